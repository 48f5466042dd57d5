package debug

import (
	"fmt"
	"log/slog"

	"github.com/ycyang0508/oldland-cpu/oldland/cpu"
	"github.com/ycyang0508/oldland-cpu/oldland/memory"
)

// Controller is the debug control unit. It owns the execution state
// machine and proxies register/memory access and run control into the
// CPU core and the address space. All access is serialized by the
// execution driver; the window accepts one outstanding request at a
// time.
type Controller struct {
	cpu    *cpu.CPU
	mem    *memory.Map
	logger *slog.Logger

	state State

	// Window register latches. A command written to RegCmd consumes
	// the pre-set address/wdata operands; rdata holds the data of the
	// last successful command.
	cmd     uint32
	address uint32
	wdata   uint32
	rdata   uint32

	outcome cpu.Outcome
	err     error
	term    bool
}

// NewController returns a controller in the Stopped state.
func NewController(c *cpu.CPU, mem *memory.Map, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{cpu: c, mem: mem, logger: logger}
}

func (c *Controller) State() State {
	return c.state
}

// Outcome reports the terminal outcome observed while stepping under
// debugger control, or cpu.Continue if the program has not finished.
func (c *Controller) Outcome() cpu.Outcome {
	return c.outcome
}

// Err reports a fatal execution error hit by a STEP command.
func (c *Controller) Err() error {
	return c.err
}

// TermRequested reports whether the debugger asked the simulator to
// shut down.
func (c *Controller) TermRequested() bool {
	return c.term
}

// NoteOutcome records a terminal outcome reached by the driver's own
// stepping; any sentinel forces the Stopped state.
func (c *Controller) NoteOutcome(o cpu.Outcome) {
	if o != cpu.Continue {
		c.outcome = o
		c.state = Stopped
	}
}

// Handle services a single window-register access and always yields
// exactly one response. Writing RegCmd is the only trigger point for a
// command; the other registers just latch operands.
func (c *Controller) Handle(req Request) Response {
	switch WindowRegister(req.Addr) {
	case RegCmd:
		if req.ReadNotWrite {
			return Response{Data: c.cmd}
		}
		c.cmd = req.Value
		return c.execute(Command(req.Value))
	case RegAddress:
		if req.ReadNotWrite {
			return Response{Data: c.address}
		}
		c.address = req.Value
		return Response{}
	case RegWdata:
		if req.ReadNotWrite {
			// Write-only on real hardware.
			return Response{Status: StatusBadRequest}
		}
		c.wdata = req.Value
		return Response{}
	case RegRdata:
		if req.ReadNotWrite {
			return Response{Data: c.rdata}
		}
		return Response{Status: StatusBadRequest}
	default:
		return Response{Status: StatusBadRequest}
	}
}

// execute runs one command against the current state. Rejected commands
// leave the machine unchanged; successful ones latch their data into
// rdata.
func (c *Controller) execute(cmd Command) Response {
	c.logger.Debug("debug command", "cmd", cmd.String(), "state", c.state.String())

	resp := c.dispatch(cmd)
	if resp.Status == StatusOK {
		c.rdata = resp.Data
	}
	return resp
}

func (c *Controller) dispatch(cmd Command) Response {
	// A store executed by the instruction currently being stepped can
	// reach the window through its device mapping. Execution control
	// from there would re-enter the step loop at the same PC (STEP) or
	// have its effect clobbered when the step completes (RESET), so it
	// is refused like any other wrong-state command.
	switch cmd {
	case CmdStep, CmdRun, CmdReset:
		if c.cpu.Stepping() {
			return Response{Status: StatusWrongState}
		}
	}

	switch cmd {
	case CmdStop:
		c.state = Stopped
		return Response{}

	case CmdRun:
		c.state = Running
		return Response{}

	case CmdStep:
		return c.stepOnce()

	case CmdReadReg:
		if c.state == Running {
			return Response{Status: StatusWrongState}
		}
		v, ok := c.readCPUReg(c.address)
		if !ok {
			return Response{Status: StatusBadRequest}
		}
		return Response{Data: v}

	case CmdWriteReg:
		if c.state == Running {
			return Response{Status: StatusWrongState}
		}
		if !c.writeCPUReg(c.address, c.wdata) {
			return Response{Status: StatusBadRequest}
		}
		return Response{}

	case CmdRmem32, CmdRmem16, CmdRmem8:
		if c.state == Running {
			return Response{Status: StatusWrongState}
		}
		v, err := c.mem.Read(c.address, memCommandWidth(cmd))
		if err != nil {
			c.logger.Debug("debug memory read rejected", "error", err)
			return Response{Status: StatusBadRequest}
		}
		return Response{Data: v}

	case CmdWmem32, CmdWmem16, CmdWmem8:
		if c.state == Running {
			return Response{Status: StatusWrongState}
		}
		if err := c.mem.Write(c.address, memCommandWidth(cmd), c.wdata); err != nil {
			c.logger.Debug("debug memory write rejected", "error", err)
			return Response{Status: StatusBadRequest}
		}
		return Response{}

	case CmdReset:
		c.cpu.Reset()
		return Response{}

	case CmdCacheSync:
		// Simulated memory is always coherent; the barrier is a logical
		// no-op kept for protocol compatibility.
		return Response{}

	case CmdCpuid:
		return Response{Data: CPUID}

	case CmdGetExecStatus:
		var mask uint32
		if c.state == Running {
			mask |= ExecStatusRunning
		}
		if c.state == StoppedOnBreakpoint {
			mask |= ExecStatusStoppedOnBkpt
		}
		return Response{Data: mask}

	case CmdStartTrace:
		c.cpu.SetTracing(true)
		return Response{}

	case CmdSimTerm:
		c.term = true
		c.state = Stopped
		return Response{}

	default:
		return Response{Status: StatusInvalidCommand}
	}
}

// stepOnce executes exactly one CPU step and lands in the Stopped
// state. A sentinel or a fatal execution error is recorded for the
// driver to pick up.
func (c *Controller) stepOnce() Response {
	c.state = Stopped
	outcome, err := c.cpu.Step()
	if err != nil {
		c.err = err
		return Response{Status: StatusExecFault}
	}
	c.NoteOutcome(outcome)
	return Response{}
}

func (c *Controller) readCPUReg(index uint32) (uint32, bool) {
	switch {
	case index < cpu.NumRegisters:
		return c.cpu.Reg(cpu.Register(index)), true
	case index == uint32(cpu.PC):
		return c.cpu.PC(), true
	default:
		return 0, false
	}
}

func (c *Controller) writeCPUReg(index, value uint32) bool {
	switch {
	case index < cpu.NumRegisters:
		c.cpu.SetReg(cpu.Register(index), value)
		return true
	case index == uint32(cpu.PC):
		c.cpu.SetPC(value)
		return true
	default:
		return false
	}
}

func memCommandWidth(cmd Command) memory.Width {
	switch cmd {
	case CmdRmem8, CmdWmem8:
		return memory.Width8
	case CmdRmem16, CmdWmem16:
		return memory.Width16
	default:
		return memory.Width32
	}
}

// WindowSize is the byte span of the memory-mapped debug window: four
// consecutive 32-bit slots.
const WindowSize = 16

// ReadRegister makes the controller a memory.Device, so the window is
// reachable from simulated loads at its mapped base.
func (c *Controller) ReadRegister(offset uint32, width memory.Width) (uint32, error) {
	reg, err := windowRegisterAt(offset, width)
	if err != nil {
		return 0, err
	}
	resp := c.Handle(Request{Addr: uint32(reg), ReadNotWrite: true})
	if resp.Status != StatusOK {
		return 0, fmt.Errorf("debug window read at offset 0x%X: status %d", offset, resp.Status)
	}
	return resp.Data, nil
}

// WriteRegister makes the controller a memory.Device for stores; a
// store to the command slot triggers the command like any other path.
func (c *Controller) WriteRegister(offset uint32, width memory.Width, value uint32) error {
	reg, err := windowRegisterAt(offset, width)
	if err != nil {
		return err
	}
	resp := c.Handle(Request{Addr: uint32(reg), Value: value})
	if resp.Status != StatusOK {
		return fmt.Errorf("debug window write at offset 0x%X: status %d", offset, resp.Status)
	}
	return nil
}

func windowRegisterAt(offset uint32, width memory.Width) (WindowRegister, error) {
	if width != memory.Width32 || offset%4 != 0 || offset >= WindowSize {
		return 0, fmt.Errorf("debug window access at offset 0x%X: %w", offset, memory.ErrUnalignedAccess)
	}
	return WindowRegister(offset / 4), nil
}
