package oldland

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ycyang0508/oldland-cpu/oldland/cpu"
	"github.com/ycyang0508/oldland-cpu/oldland/debug"
	"github.com/ycyang0508/oldland-cpu/oldland/memory"
)

func encodeArithImm(opc cpu.ArithOpcode, rd, ra cpu.Register, imm uint16) uint32 {
	return uint32(opc)<<26 | uint32(imm)<<10 | uint32(rd)<<6 | uint32(ra)<<3
}

func encodeStore(opc cpu.LoadStoreOpcode, ra cpu.Register, imm uint16, rb cpu.Register) uint32 {
	return 2<<30 | uint32(opc)<<26 | uint32(imm)<<10 | uint32(ra)<<3 | uint32(rb)
}

func romImage(words ...uint32) []byte {
	image := make([]byte, 4*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint32(image[4*i:], w)
	}
	return image
}

func TestMachine_freeRun(t *testing.T) {
	type store struct {
		addr  uint32
		width memory.Width
		value uint32
	}
	var stores []store
	successes := 0

	image := romImage(
		encodeArithImm(cpu.ArithAdd, cpu.R1, cpu.R1, 10),
		encodeArithImm(cpu.ArithAdd, cpu.R0, cpu.R1, 5),
		encodeStore(cpu.LoadStoreStr8, cpu.R2, 0x100, cpu.R0),
		cpu.InstrSuccess,
	)

	m, err := New(image, WithHooks(Hooks{
		OnStore: func(addr uint32, width memory.Width, value uint32) {
			stores = append(stores, store{addr, width, value})
		},
		OnSuccess: func() { successes++ },
	}))
	require.NoError(t, err)

	outcome, err := m.Run()
	require.NoError(t, err)
	assert.Equal(t, cpu.Success, outcome)

	assert.Equal(t, uint32(15), m.CPU.Reg(cpu.R0))
	v, err := m.Mem.Read(0x100, memory.Width8)
	require.NoError(t, err)
	assert.Equal(t, uint32(15), v)

	require.Len(t, stores, 1)
	assert.Equal(t, store{addr: 0x100, width: memory.Width8, value: 15}, stores[0])
	assert.Equal(t, 1, successes)
}

func TestMachine_freeRunFailure(t *testing.T) {
	successes := 0
	m, err := New(romImage(cpu.InstrFail), WithHooks(Hooks{
		OnSuccess: func() { successes++ },
	}))
	require.NoError(t, err)

	outcome, err := m.Run()
	require.NoError(t, err)
	assert.Equal(t, cpu.Failure, outcome)
	assert.Zero(t, successes)
}

func TestMachine_freeRunFault(t *testing.T) {
	// Reserved instruction class is a fatal decode error.
	m, err := New(romImage(3 << 30))
	require.NoError(t, err)

	_, err = m.Run()
	assert.ErrorIs(t, err, cpu.ErrDecode)
}

func TestMachine_imageTooLarge(t *testing.T) {
	_, err := New(make([]byte, RAMSize+1))
	assert.Error(t, err)
}

// windowCommandImage builds a program that stores a command word into
// the debug window's command slot and then terminates.
func windowCommandImage(cmd debug.Command) []byte {
	return romImage(
		encodeArithImm(cpu.ArithMovhi, cpu.R1, cpu.R0, uint16(DebugBase>>16)),
		encodeArithImm(cpu.ArithAdd, cpu.R2, cpu.R0, uint16(cmd)),
		encodeStore(cpu.LoadStoreStr32, cpu.R1, 0, cpu.R2),
		cpu.InstrSuccess,
	)
}

func TestMachine_programCannotDriveExecutionViaWindow(t *testing.T) {
	// A store of an execution-control command to the window must fault
	// the storing instruction instead of re-entering the step loop.
	testCases := []struct {
		desc string
		cmd  debug.Command
	}{
		{desc: "step", cmd: debug.CmdStep},
		{desc: "run", cmd: debug.CmdRun},
		{desc: "reset", cmd: debug.CmdReset},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			m, err := New(windowCommandImage(tC.cmd))
			require.NoError(t, err)

			_, err = m.Run()
			require.Error(t, err)
			assert.Equal(t, uint32(8), m.CPU.PC()) // the faulting store
		})
	}
}

func TestMachine_programWindowStoreBenignCommand(t *testing.T) {
	m, err := New(windowCommandImage(debug.CmdCacheSync))
	require.NoError(t, err)

	outcome, err := m.Run()
	require.NoError(t, err)
	assert.Equal(t, cpu.Success, outcome)
}

// issue drives one debug command through the driver channels the way
// the socket server does: latch address and wdata, then fire RegCmd.
func issue(t *testing.T, reqCh chan<- debug.Request, respCh <-chan debug.Response, cmd debug.Command, address, wdata uint32) debug.Response {
	t.Helper()
	for _, req := range []debug.Request{
		{Addr: uint32(debug.RegAddress), Value: address},
		{Addr: uint32(debug.RegWdata), Value: wdata},
	} {
		reqCh <- req
		require.Equal(t, debug.StatusOK, (<-respCh).Status)
	}
	reqCh <- debug.Request{Addr: uint32(debug.RegCmd), Value: uint32(cmd)}
	return <-respCh
}

func TestMachine_serveUnderDebugger(t *testing.T) {
	image := romImage(
		encodeArithImm(cpu.ArithAdd, cpu.R1, cpu.R1, 42),
		cpu.InstrSuccess,
	)
	m, err := New(image)
	require.NoError(t, err)

	reqCh := make(chan debug.Request)
	respCh := make(chan debug.Response)
	type result struct {
		outcome cpu.Outcome
		err     error
	}
	done := make(chan result, 1)
	go func() {
		outcome, err := m.Serve(reqCh, respCh)
		done <- result{outcome, err}
	}()

	// The machine starts stopped, so register access works immediately.
	resp := issue(t, reqCh, respCh, debug.CmdWriteReg, 2, 0x1234)
	require.Equal(t, debug.StatusOK, resp.Status)
	resp = issue(t, reqCh, respCh, debug.CmdReadReg, 2, 0)
	require.Equal(t, debug.StatusOK, resp.Status)
	assert.Equal(t, uint32(0x1234), resp.Data)

	resp = issue(t, reqCh, respCh, debug.CmdStep, 0, 0)
	require.Equal(t, debug.StatusOK, resp.Status)
	resp = issue(t, reqCh, respCh, debug.CmdReadReg, 1, 0)
	require.Equal(t, debug.StatusOK, resp.Status)
	assert.Equal(t, uint32(42), resp.Data)

	// RUN lets the driver step to the sentinel on its own.
	resp = issue(t, reqCh, respCh, debug.CmdRun, 0, 0)
	require.Equal(t, debug.StatusOK, resp.Status)

	res := <-done
	require.NoError(t, res.err)
	assert.Equal(t, cpu.Success, res.outcome)
}

func TestMachine_serveTerm(t *testing.T) {
	m, err := New(romImage(cpu.InstrSuccess))
	require.NoError(t, err)

	reqCh := make(chan debug.Request)
	respCh := make(chan debug.Response)
	done := make(chan cpu.Outcome, 1)
	go func() {
		outcome, err := m.Serve(reqCh, respCh)
		require.NoError(t, err)
		done <- outcome
	}()

	resp := issue(t, reqCh, respCh, debug.CmdSimTerm, 0, 0)
	require.Equal(t, debug.StatusOK, resp.Status)
	assert.Equal(t, cpu.Continue, <-done)
}

func TestMachine_serveChannelClose(t *testing.T) {
	m, err := New(romImage(cpu.InstrSuccess))
	require.NoError(t, err)

	reqCh := make(chan debug.Request)
	close(reqCh)
	outcome, err := m.Serve(reqCh, make(chan debug.Response))
	require.NoError(t, err)
	assert.Equal(t, cpu.Continue, outcome)
}

func TestMachine_debugWindowMapped(t *testing.T) {
	m, err := New(nil)
	require.NoError(t, err)

	v, err := m.Mem.Read(DebugBase+4*uint32(debug.RegRdata), memory.Width32)
	require.NoError(t, err)
	assert.Zero(t, v)
}
