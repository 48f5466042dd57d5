// Package cpu implements the Oldland CPU core: an 8-register 32-bit
// load/store machine executing one instruction per step against an
// address space.
package cpu

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/ycyang0508/oldland-cpu/oldland/memory"
)

// Bus provides the interface for memory access from the core.
type Bus interface {
	Read(addr uint32, width memory.Width) (uint32, error)
	Write(addr uint32, width memory.Width, value uint32) error
}

// Outcome is the result of a single step.
type Outcome int

const (
	// Continue means the instruction executed and the machine can step again.
	Continue Outcome = iota
	// Success means the success sentinel was fetched.
	Success
	// Failure means the failure sentinel was fetched.
	Failure
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case Failure:
		return "failure"
	default:
		return "continue"
	}
}

// ErrDecode marks an invalid or unimplemented instruction encoding.
// During normal execution a decode error is fatal to the run.
var ErrDecode = errors.New("invalid instruction encoding")

// CPU is the main struct holding core state.
type CPU struct {
	regs   [NumRegisters]uint32
	pc     uint32
	nextPC uint32
	z      bool
	c      bool

	bus      Bus
	logger   *slog.Logger
	tracing  bool
	stepping bool
}

// New returns an initialized CPU. All registers, the program counter
// and flags start at zero. A nil logger falls back to slog.Default.
func New(bus Bus, logger *slog.Logger) *CPU {
	if logger == nil {
		logger = slog.Default()
	}
	return &CPU{bus: bus, logger: logger}
}

// Reset reinitializes the register file, program counter and flags to
// zero. Memory is untouched.
func (c *CPU) Reset() {
	c.regs = [NumRegisters]uint32{}
	c.pc = 0
	c.nextPC = 0
	c.z = false
	c.c = false
}

// SetTracing enables or disables per-instruction trace logging.
func (c *CPU) SetTracing(on bool) {
	c.tracing = on
}

// Reg returns the value of a general-purpose register.
func (c *CPU) Reg(r Register) uint32 {
	return c.regs[r]
}

// SetReg writes a general-purpose register directly. It is the accessor
// the debug controller uses while execution is stopped.
func (c *CPU) SetReg(r Register, v uint32) {
	c.regs[r] = v
}

func (c *CPU) PC() uint32 {
	return c.pc
}

func (c *CPU) SetPC(v uint32) {
	c.pc = v
}

// ZFlag returns the zero flag.
func (c *CPU) ZFlag() bool {
	return c.z
}

// CFlag returns the carry flag.
func (c *CPU) CFlag() bool {
	return c.c
}

// Stepping reports whether a Step call is currently in flight. A store
// executed by the current instruction can land on a memory-mapped
// device that wants to drive execution; Stepping lets such a device
// tell that apart from a debugger access between instructions.
func (c *CPU) Stepping() bool {
	return c.stepping
}

// Step fetches, decodes and executes a single instruction. Fetching a
// sentinel word returns a terminal outcome with no further mutation.
// Any decode or memory-access error aborts the step; the caller decides
// whether that is fatal to the run.
func (c *CPU) Step() (Outcome, error) {
	c.stepping = true
	defer func() { c.stepping = false }()

	c.nextPC = c.pc + 4

	word, err := c.bus.Read(c.pc, memory.Width32)
	if err != nil {
		return Continue, fmt.Errorf("fetch at 0x%08X: %w", c.pc, err)
	}

	switch word {
	case InstrSuccess:
		return Success, nil
	case InstrFail:
		return Failure, nil
	}

	instr := Instruction(word)
	switch instr.Class() {
	case ClassArithmetic:
		err = c.execArithmetic(instr)
	case ClassBranch:
		err = c.execBranch(instr)
	case ClassLoadStore:
		err = c.execLoadStore(instr)
	default:
		err = fmt.Errorf("%w: class %d (0x%08X)", ErrDecode, instr.Class(), word)
	}
	if err != nil {
		return Continue, err
	}

	c.pc = c.nextPC
	return Continue, nil
}

// writeReg commits an execution result to the register file, tracing it
// against the PC of the instruction that produced it.
func (c *CPU) writeReg(r Register, v uint32) {
	if c.tracing {
		c.logger.Debug("reg write",
			"pc", fmt.Sprintf("0x%08X", c.pc),
			"reg", r.String(),
			"value", fmt.Sprintf("0x%08X", v))
	}
	c.regs[r] = v
}

func (c *CPU) setNextPC(v uint32) {
	if c.tracing {
		c.logger.Debug("pc write",
			"pc", fmt.Sprintf("0x%08X", c.pc),
			"value", fmt.Sprintf("0x%08X", v))
	}
	c.nextPC = v
}
