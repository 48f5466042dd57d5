// Package debug implements the Oldland debug controller: a four
// register command window through which an external debugger halts,
// steps and inspects the machine, plus the wire protocol a remote
// debugger uses to reach it.
package debug

// Command is a debug command code. The numeric values are a stable
// contract shared with external debuggers and must not change.
type Command uint32

const (
	CmdStop Command = iota
	CmdRun
	CmdStep
	CmdReadReg
	CmdWriteReg
	CmdRmem32
	CmdRmem16
	CmdRmem8
	CmdWmem32
	CmdWmem16
	CmdWmem8
	CmdReset
	CmdCacheSync
	CmdCpuid
	CmdGetExecStatus

	// Simulator-only extensions with no hardware analogue.
	CmdStartTrace Command = 0xFFFFFFFE
	CmdSimTerm    Command = 0xFFFFFFFF
)

func (c Command) String() string {
	switch c {
	case CmdStop:
		return "stop"
	case CmdRun:
		return "run"
	case CmdStep:
		return "step"
	case CmdReadReg:
		return "read_reg"
	case CmdWriteReg:
		return "write_reg"
	case CmdRmem32:
		return "rmem32"
	case CmdRmem16:
		return "rmem16"
	case CmdRmem8:
		return "rmem8"
	case CmdWmem32:
		return "wmem32"
	case CmdWmem16:
		return "wmem16"
	case CmdWmem8:
		return "wmem8"
	case CmdReset:
		return "reset"
	case CmdCacheSync:
		return "cache_sync"
	case CmdCpuid:
		return "cpuid"
	case CmdGetExecStatus:
		return "get_exec_status"
	case CmdStartTrace:
		return "start_trace"
	case CmdSimTerm:
		return "sim_term"
	default:
		return "unknown"
	}
}

// WindowRegister indexes one of the four registers of the debug window.
type WindowRegister uint32

const (
	RegCmd     WindowRegister = iota // command, write triggers execution
	RegAddress                       // address/register-index operand
	RegWdata                         // write data (write-only)
	RegRdata                         // read data (read-only)
)

// State is the execution state owned by the controller.
type State int

const (
	Stopped State = iota
	Running
	StoppedOnBreakpoint
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case StoppedOnBreakpoint:
		return "stopped on breakpoint"
	default:
		return "stopped"
	}
}

// Execution status bitmask returned by CmdGetExecStatus.
const (
	ExecStatusRunning       uint32 = 1 << 0
	ExecStatusStoppedOnBkpt uint32 = 1 << 1
)

// Response status codes. Anything nonzero is a rejected request that
// left the machine unchanged.
const (
	StatusOK             int32 = 0
	StatusInvalidCommand int32 = -1
	StatusWrongState     int32 = -2
	StatusBadRequest     int32 = -3
	StatusExecFault      int32 = -4
)

// CPUID is the fixed identifier reported by CmdCpuid. High half marks
// the simulator implementation, low half its protocol revision.
const CPUID uint32 = 0x51D00001
