package cpu

// Instruction is a raw 32-bit instruction word. Decoding is expressed
// as pure accessors over the word; the word itself is never mutated.
type Instruction uint32

// Class selects one of the three instruction groups. Encoding 3 is
// reserved and always faults.
type Class uint32

const (
	ClassArithmetic Class = 0
	ClassBranch     Class = 1
	ClassLoadStore  Class = 2
)

type ArithOpcode uint32

const (
	ArithAdd   ArithOpcode = 0x0
	ArithAddc  ArithOpcode = 0x1
	ArithSub   ArithOpcode = 0x2
	ArithSubc  ArithOpcode = 0x3
	ArithLsl   ArithOpcode = 0x4
	ArithLsr   ArithOpcode = 0x5
	ArithAnd   ArithOpcode = 0x6
	ArithXor   ArithOpcode = 0x7
	ArithBic   ArithOpcode = 0x8
	ArithOr    ArithOpcode = 0x9
	ArithMovhi ArithOpcode = 0xA
)

type BranchOpcode uint32

const (
	BranchCall BranchOpcode = 0x0
	BranchRet  BranchOpcode = 0x1
	BranchB    BranchOpcode = 0x4
	BranchBne  BranchOpcode = 0x5
	BranchBeq  BranchOpcode = 0x6
	BranchBgt  BranchOpcode = 0x7
)

type LoadStoreOpcode uint32

const (
	LoadStoreLdr32 LoadStoreOpcode = 0x0
	LoadStoreLdr16 LoadStoreOpcode = 0x1
	LoadStoreLdr8  LoadStoreOpcode = 0x2
	LoadStoreStr32 LoadStoreOpcode = 0x4
	LoadStoreStr16 LoadStoreOpcode = 0x5
	LoadStoreStr8  LoadStoreOpcode = 0x6
)

// Reserved words signalling simulated-program completion. They are
// recognised at fetch time and never executed.
const (
	InstrSuccess uint32 = 0xFFFFFFFF
	InstrFail    uint32 = 0xFFFFFFFE
)

func (i Instruction) Class() Class {
	return Class(uint32(i)>>30) & 0x3
}

func (i Instruction) ArithOpcode() ArithOpcode {
	return ArithOpcode(uint32(i)>>26) & 0xF
}

func (i Instruction) BranchOpcode() BranchOpcode {
	return BranchOpcode(uint32(i)>>26) & 0xF
}

func (i Instruction) LoadStoreOpcode() LoadStoreOpcode {
	return LoadStoreOpcode(uint32(i)>>26) & 0xF
}

// Rd is the destination register field.
func (i Instruction) Rd() Register {
	return Register(uint32(i)>>6) & 0x7
}

// Ra is register operand A.
func (i Instruction) Ra() Register {
	return Register(uint32(i)>>3) & 0x7
}

// Rb is register operand B.
func (i Instruction) Rb() Register {
	return Register(i) & 0x7
}

// Imm16 is the 16-bit immediate field, bits [25:10], not sign-extended.
func (i Instruction) Imm16() uint16 {
	return uint16(uint32(i) >> 10)
}

// Imm24 is the 24-bit branch displacement field, bits [23:0].
func (i Instruction) Imm24() uint32 {
	return uint32(i) & 0xFFFFFF
}

// RegisterOp2 reports whether an arithmetic instruction takes its second
// operand from register B instead of the 16-bit immediate.
func (i Instruction) RegisterOp2() bool {
	return i&(1<<9) != 0
}

// PCRelative reports whether a load/store uses PC-relative addressing.
func (i Instruction) PCRelative() bool {
	return i&(1<<9) != 0
}

// RegisterTarget reports whether a branch targets the value of register
// B instead of a PC-relative displacement.
func (i Instruction) RegisterTarget() bool {
	return i&(1<<25) != 0
}

// SignExtend24 widens the 24-bit displacement to a signed 32-bit value.
func SignExtend24(v uint32) int32 {
	return int32(v<<8) >> 8
}

// SignExtend16 widens a 16-bit immediate to a signed 32-bit value.
func SignExtend16(v uint16) int32 {
	return int32(int16(v))
}
