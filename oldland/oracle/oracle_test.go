package oracle

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.lua")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestOracle_hooksObserveStores(t *testing.T) {
	path := writeScript(t, `
		count = 0
		last_addr = 0
		function data_write_hook(addr, nr_bits, value)
			count = count + 1
			last_addr = addr
			if nr_bits ~= 8 then
				sim.err("unexpected width")
			end
		end
		function validate_result()
			if count ~= 2 or last_addr ~= 0x104 then
				sim.err("wrong store sequence")
			end
		end
	`)

	o, err := Load(path, nil)
	require.NoError(t, err)
	defer o.Close()

	o.OnStore(0x100, 8, 0xAA)
	o.OnStore(0x104, 8, 0xBB)
	o.OnSuccess()
	assert.NoError(t, o.Err())
}

func TestOracle_simErrFailsRun(t *testing.T) {
	path := writeScript(t, `
		function validate_result()
			sim.err("result mismatch")
		end
	`)

	o, err := Load(path, nil)
	require.NoError(t, err)
	defer o.Close()

	o.OnSuccess()
	require.Error(t, o.Err())
	assert.Contains(t, o.Err().Error(), "result mismatch")

	// The first failure sticks.
	first := o.Err()
	o.OnSuccess()
	assert.Same(t, first, o.Err())
}

func TestOracle_missingHooksAreOptional(t *testing.T) {
	o, err := Load(writeScript(t, `-- no hooks defined`), nil)
	require.NoError(t, err)
	defer o.Close()

	o.OnStore(0, 32, 0)
	o.OnSuccess()
	assert.NoError(t, o.Err())
}

func TestOracle_scriptRuntimeError(t *testing.T) {
	path := writeScript(t, `
		function data_write_hook(addr, nr_bits, value)
			error("boom")
		end
	`)

	o, err := Load(path, nil)
	require.NoError(t, err)
	defer o.Close()

	o.OnStore(0, 32, 0)
	assert.Error(t, o.Err())
}

func TestOracle_loadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.lua"), nil)
	assert.Error(t, err)

	_, err = Load(writeScript(t, `this is not lua`), nil)
	assert.Error(t, err)
}
