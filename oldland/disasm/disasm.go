// Package disasm renders instruction words as assembly-like text for
// trace output and the debugger's monitor view.
package disasm

import (
	"fmt"

	"github.com/ycyang0508/oldland-cpu/oldland/cpu"
)

var arithNames = map[cpu.ArithOpcode]string{
	cpu.ArithAdd:   "add",
	cpu.ArithAddc:  "addc",
	cpu.ArithSub:   "sub",
	cpu.ArithSubc:  "subc",
	cpu.ArithLsl:   "lsl",
	cpu.ArithLsr:   "lsr",
	cpu.ArithAnd:   "and",
	cpu.ArithXor:   "xor",
	cpu.ArithBic:   "bic",
	cpu.ArithOr:    "or",
	cpu.ArithMovhi: "movhi",
}

var branchNames = map[cpu.BranchOpcode]string{
	cpu.BranchCall: "call",
	cpu.BranchRet:  "ret",
	cpu.BranchB:    "b",
	cpu.BranchBne:  "bne",
	cpu.BranchBeq:  "beq",
	cpu.BranchBgt:  "bgt",
}

var loadStoreNames = map[cpu.LoadStoreOpcode]string{
	cpu.LoadStoreLdr32: "ldr32",
	cpu.LoadStoreLdr16: "ldr16",
	cpu.LoadStoreLdr8:  "ldr8",
	cpu.LoadStoreStr32: "str32",
	cpu.LoadStoreStr16: "str16",
	cpu.LoadStoreStr8:  "str8",
}

// Disassemble renders the word fetched at pc. The pc is needed to
// resolve PC-relative branch targets and load/store addresses.
func Disassemble(pc, word uint32) string {
	switch word {
	case cpu.InstrSuccess:
		return ".success"
	case cpu.InstrFail:
		return ".fail"
	}

	instr := cpu.Instruction(word)
	switch instr.Class() {
	case cpu.ClassArithmetic:
		return arithmetic(instr)
	case cpu.ClassBranch:
		return branch(pc, instr)
	case cpu.ClassLoadStore:
		return loadStore(pc, instr)
	default:
		return fmt.Sprintf(".word 0x%08X", word)
	}
}

func arithmetic(instr cpu.Instruction) string {
	name, ok := arithNames[instr.ArithOpcode()]
	if !ok {
		return fmt.Sprintf(".word 0x%08X", uint32(instr))
	}
	if instr.RegisterOp2() {
		return fmt.Sprintf("%s\t%s, %s, %s", name, instr.Rd(), instr.Ra(), instr.Rb())
	}
	return fmt.Sprintf("%s\t%s, %s, #%d", name, instr.Rd(), instr.Ra(), instr.Imm16())
}

func branch(pc uint32, instr cpu.Instruction) string {
	name, ok := branchNames[instr.BranchOpcode()]
	if !ok {
		return fmt.Sprintf(".word 0x%08X", uint32(instr))
	}
	if instr.RegisterTarget() {
		return fmt.Sprintf("%s\t%s", name, instr.Rb())
	}
	target := pc + uint32(cpu.SignExtend24(instr.Imm24())<<2)
	return fmt.Sprintf("%s\t0x%08X", name, target)
}

func loadStore(pc uint32, instr cpu.Instruction) string {
	name, ok := loadStoreNames[instr.LoadStoreOpcode()]
	if !ok {
		return fmt.Sprintf(".word 0x%08X", uint32(instr))
	}
	isStore := instr.LoadStoreOpcode() >= cpu.LoadStoreStr32
	reg := instr.Rd()
	if isStore {
		reg = instr.Rb()
	}
	if instr.PCRelative() {
		addr := pc + uint32(cpu.SignExtend16(instr.Imm16()))
		return fmt.Sprintf("%s\t%s, [0x%08X]", name, reg, addr)
	}
	return fmt.Sprintf("%s\t%s, [%s, #%d]", name, reg, instr.Ra(), instr.Imm16())
}
