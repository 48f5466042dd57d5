package disasm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisassemble(t *testing.T) {
	testCases := []struct {
		desc string
		pc   uint32
		word uint32
		want string
	}{
		{
			desc: "success sentinel",
			word: 0xFFFFFFFF,
			want: ".success",
		},
		{
			desc: "fail sentinel",
			word: 0xFFFFFFFE,
			want: ".fail",
		},
		{
			desc: "add immediate",
			word: 10<<10 | 1<<6 | 1<<3, // add r1, r1, #10
			want: "add\tr1, r1, #10",
		},
		{
			desc: "add register",
			word: 1<<9 | 0<<6 | 1<<3 | 2, // add r0, r1, r2
			want: "add\tr0, r1, r2",
		},
		{
			desc: "movhi",
			word: 0xA<<26 | 0x1234<<10 | 3<<6,
			want: "movhi\tr3, r0, #4660",
		},
		{
			desc: "branch forward",
			pc:   0x100,
			word: 1<<30 | 4<<26 | 4, // b +16
			want: "b\t0x00000110",
		},
		{
			desc: "branch backward",
			pc:   0x100,
			word: 1<<30 | 6<<26 | 0xFFFFF0, // beq -64
			want: "beq\t0x000000C0",
		},
		{
			desc: "branch register",
			word: 1<<30 | 4<<26 | 1<<25 | 3,
			want: "b\tr3",
		},
		{
			desc: "load base plus offset",
			word: 2<<30 | 0<<26 | 0x40<<10 | 2<<6 | 1<<3, // ldr32 r2, [r1, #64]
			want: "ldr32\tr2, [r1, #64]",
		},
		{
			desc: "store base plus offset",
			word: 2<<30 | 6<<26 | 0x100<<10 | 2<<3 | 5, // str8 r5, [r2, #256]
			want: "str8\tr5, [r2, #256]",
		},
		{
			desc: "pc relative load",
			pc:   0x200,
			word: 2<<30 | 0<<26 | 0x10<<10 | 1<<9 | 4<<6,
			want: "ldr32\tr4, [0x00000210]",
		},
		{
			desc: "fp and sp names",
			word: 6<<6 | 7<<3, // add fp, sp, #0
			want: "add\tfp, sp, #0",
		},
		{
			desc: "reserved class",
			word: 3 << 30,
			want: ".word 0xC0000000",
		},
		{
			desc: "arithmetic hole",
			word: 0xB << 26,
			want: ".word 0x2C000000",
		},
		{
			desc: "load store hole",
			word: 2<<30 | 3<<26,
			want: ".word 0x8C000000",
		},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			assert.Equal(t, tC.want, Disassemble(tC.pc, tC.word))
		})
	}
}
