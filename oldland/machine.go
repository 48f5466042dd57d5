// Package oldland wires the CPU core, the address space and the debug
// control unit into a runnable machine and drives the step loop.
package oldland

import (
	"fmt"
	"log/slog"

	"github.com/ycyang0508/oldland-cpu/oldland/cpu"
	"github.com/ycyang0508/oldland-cpu/oldland/debug"
	"github.com/ycyang0508/oldland-cpu/oldland/memory"
)

// Standard memory map: RAM at the reset vector with the ROM image
// pre-loaded, the debug register window high up where the reference
// maps its debug device.
const (
	RAMBase   = 0x00000000
	RAMSize   = 0x10000
	DebugBase = 0x80000000
	DebugSize = 0x1000
)

// Hooks are the narrow callbacks handed to external collaborators such
// as a test oracle. OnStore sees every committed write, including
// debugger-initiated ones, before the value lands; OnSuccess fires once
// after a successful terminal outcome.
type Hooks struct {
	OnStore   func(addr uint32, width memory.Width, value uint32)
	OnSuccess func()
}

// Machine aggregates the simulator components. All execution happens on
// the caller's goroutine; the debug server only ferries requests in.
type Machine struct {
	Mem   *memory.Map
	CPU   *cpu.CPU
	Debug *debug.Controller

	hooks   Hooks
	logger  *slog.Logger
	tracing bool
}

type Option func(*Machine)

// WithLogger sets the structured logging sink for the whole machine.
func WithLogger(l *slog.Logger) Option {
	return func(m *Machine) { m.logger = l }
}

// WithHooks installs the external collaborator callbacks.
func WithHooks(h Hooks) Option {
	return func(m *Machine) { m.hooks = h }
}

// WithTracing enables per-instruction trace logging from the start.
func WithTracing() Option {
	return func(m *Machine) { m.tracing = true }
}

// New builds a machine with the standard memory map and optionally
// pre-loads a flat ROM image at the reset vector.
func New(romImage []byte, opts ...Option) (*Machine, error) {
	m := &Machine{
		Mem:    memory.NewMap(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}

	if err := m.Mem.MapRAM(RAMBase, RAMSize); err != nil {
		return nil, err
	}

	m.CPU = cpu.New(m.Mem, m.logger)
	m.CPU.SetTracing(m.tracing)
	m.Debug = debug.NewController(m.CPU, m.Mem, m.logger)
	if err := m.Mem.MapDevice(DebugBase, DebugSize, m.Debug); err != nil {
		return nil, err
	}

	if m.hooks.OnStore != nil {
		m.Mem.SetWriteObserver(memory.WriteObserver(m.hooks.OnStore))
	}

	if len(romImage) > 0 {
		if len(romImage) > RAMSize {
			return nil, fmt.Errorf("ROM image of %d bytes exceeds RAM size %d", len(romImage), RAMSize)
		}
		if err := m.Mem.LoadRAM(RAMBase, romImage); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// Run free-runs the machine until a sentinel instruction is fetched,
// with no debugger in the loop. Decode and memory faults are fatal to
// the run and surface as errors.
func (m *Machine) Run() (cpu.Outcome, error) {
	for {
		outcome, err := m.CPU.Step()
		if err != nil {
			return cpu.Continue, err
		}
		if outcome == cpu.Continue {
			continue
		}
		m.finish(outcome)
		return outcome, nil
	}
}

// Serve drives the machine under debugger control. The machine starts
// stopped; requests are serviced at instruction boundaries, so a
// pending STOP is honored with a worst-case latency of one instruction.
// Serve returns on a terminal outcome, a fatal execution error, a
// SIM_TERM command, or when the request channel closes.
func (m *Machine) Serve(reqCh <-chan debug.Request, respCh chan<- debug.Response) (cpu.Outcome, error) {
	for {
		if m.Debug.State() == debug.Running {
			// Poll for a pending command, then step.
			select {
			case req, ok := <-reqCh:
				if !ok {
					return cpu.Continue, nil
				}
				respCh <- m.Debug.Handle(req)
			default:
				outcome, err := m.CPU.Step()
				if err != nil {
					return cpu.Continue, err
				}
				m.Debug.NoteOutcome(outcome)
			}
		} else {
			// Stopped: block until the debugger says otherwise.
			req, ok := <-reqCh
			if !ok {
				return cpu.Continue, nil
			}
			respCh <- m.Debug.Handle(req)
		}

		if err := m.Debug.Err(); err != nil {
			return cpu.Continue, err
		}
		if outcome := m.Debug.Outcome(); outcome != cpu.Continue {
			m.finish(outcome)
			return outcome, nil
		}
		if m.Debug.TermRequested() {
			m.logger.Info("simulator termination requested")
			return cpu.Continue, nil
		}
	}
}

func (m *Machine) finish(outcome cpu.Outcome) {
	m.logger.Info("program complete", "outcome", outcome.String())
	if outcome == cpu.Success && m.hooks.OnSuccess != nil {
		m.hooks.OnSuccess()
	}
}
