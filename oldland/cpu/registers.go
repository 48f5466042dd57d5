package cpu

import "strings"

// Register indexes one of the 8 general-purpose slots. FP and SP are
// ordinary registers with conventional roles.
type Register uint32

const (
	R0 Register = iota
	R1
	R2
	R3
	R4
	R5
	FP
	SP

	// PC addresses the program counter in the debug register-access
	// protocol; it is not part of the general-purpose file.
	PC
)

const NumRegisters = 8

var registerNames = [...]string{"r0", "r1", "r2", "r3", "r4", "r5", "fp", "sp", "pc"}

func (r Register) String() string {
	if int(r) < len(registerNames) {
		return registerNames[r]
	}
	return "r?"
}

// ParseRegister resolves a register name (r0-r5, fp, sp, pc), case
// insensitive. The second return is false for unknown names.
func ParseRegister(name string) (Register, bool) {
	name = strings.ToLower(name)
	for i, n := range registerNames {
		if n == name {
			return Register(i), true
		}
	}
	return 0, false
}
