// Package oracle embeds a Lua test script that decides whether a
// simulated program behaved correctly. It implements the machine's hook
// callbacks, so the simulator core never sees the scripting runtime.
//
// A script may define two globals:
//
//	data_write_hook(addr, nr_bits, value) -- called on every store
//	validate_result()                     -- called once on success
//
// and may call sim.err(msg) to fail the run.
package oracle

import (
	"fmt"
	"log/slog"

	lua "github.com/yuin/gopher-lua"
)

// Oracle wraps a loaded test script.
type Oracle struct {
	state  *lua.LState
	logger *slog.Logger
	err    error
}

// Load runs the test script's top level and returns the oracle. The
// caller owns the oracle and must Close it when the run ends.
func Load(path string, logger *slog.Logger) (*Oracle, error) {
	if logger == nil {
		logger = slog.Default()
	}

	o := &Oracle{
		state:  lua.NewState(),
		logger: logger,
	}

	mod := o.state.NewTable()
	o.state.SetField(mod, "err", o.state.NewFunction(o.luaErr))
	o.state.SetGlobal("sim", mod)

	if err := o.state.DoFile(path); err != nil {
		o.state.Close()
		return nil, fmt.Errorf("load test script %s: %w", path, err)
	}
	return o, nil
}

// Close releases the interpreter.
func (o *Oracle) Close() {
	o.state.Close()
}

// Err reports a failure raised by the script, if any.
func (o *Oracle) Err() error {
	return o.err
}

// OnStore bridges the machine's write-observer hook into the script's
// data_write_hook global, when defined.
func (o *Oracle) OnStore(addr uint32, nrBits, value uint32) {
	o.call("data_write_hook",
		lua.LNumber(addr), lua.LNumber(nrBits), lua.LNumber(value))
}

// OnSuccess bridges the success hook into validate_result.
func (o *Oracle) OnSuccess() {
	o.call("validate_result")
}

func (o *Oracle) call(name string, args ...lua.LValue) {
	fn := o.state.GetGlobal(name)
	if fn == lua.LNil {
		return
	}
	err := o.state.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, args...)
	if err != nil && o.err == nil {
		o.err = fmt.Errorf("test script %s: %w", name, err)
		o.logger.Error("test script failed", "hook", name, "error", err)
	}
}

// luaErr implements sim.err: the script's way to fail the run with a
// message. It aborts the calling hook as well.
func (o *Oracle) luaErr(L *lua.LState) int {
	msg := L.CheckString(1)
	if o.err == nil {
		o.err = fmt.Errorf("test script: %s", msg)
	}
	L.RaiseError("%s", msg)
	return 0
}
