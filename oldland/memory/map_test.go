package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMap_regionConflicts(t *testing.T) {
	testCases := []struct {
		desc       string
		base, size uint32
		wantErr    bool
	}{
		{desc: "disjoint below", base: 0x0000, size: 0x100},
		{desc: "adjacent is fine", base: 0x1000, size: 0x1000},
		{desc: "exact overlap", base: 0x2000, size: 0x1000, wantErr: true},
		{desc: "partial overlap low", base: 0x1F00, size: 0x200, wantErr: true},
		{desc: "partial overlap high", base: 0x2F00, size: 0x200, wantErr: true},
		{desc: "contained", base: 0x2400, size: 0x10, wantErr: true},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			m := NewMap()
			require.NoError(t, m.MapRAM(0x2000, 0x1000))

			err := m.MapRAM(tC.base, tC.size)
			if tC.wantErr {
				assert.ErrorIs(t, err, ErrAddressConflict)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMap_accessErrors(t *testing.T) {
	m := NewMap()
	require.NoError(t, m.MapRAM(0x1000, 0x100))

	testCases := []struct {
		desc  string
		addr  uint32
		width Width
		want  error
	}{
		{desc: "unmapped below", addr: 0x0FFF, width: Width8, want: ErrUnmappedAddress},
		{desc: "unmapped above", addr: 0x1100, width: Width8, want: ErrUnmappedAddress},
		{desc: "runs past region end", addr: 0x10FE, width: Width32, want: ErrUnalignedAccess},
		{desc: "unaligned 16-bit", addr: 0x1001, width: Width16, want: ErrUnalignedAccess},
		{desc: "unaligned 32-bit", addr: 0x1002, width: Width32, want: ErrUnalignedAccess},
		{desc: "bogus width", addr: 0x1000, width: Width(12), want: ErrInvalidWidth},
		{desc: "aligned 32-bit ok", addr: 0x10FC, width: Width32},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			_, rerr := m.Read(tC.addr, tC.width)
			werr := m.Write(tC.addr, tC.width, 0)
			if tC.want != nil {
				assert.ErrorIs(t, rerr, tC.want)
				assert.ErrorIs(t, werr, tC.want)
			} else {
				assert.NoError(t, rerr)
				assert.NoError(t, werr)
			}
		})
	}
}

func TestMap_littleEndianStorage(t *testing.T) {
	m := NewMap()
	require.NoError(t, m.MapRAM(0, 0x100))

	require.NoError(t, m.Write(0x10, Width32, 0xA1B2C3D4))

	b0, err := m.Read(0x10, Width8)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xD4), b0)

	h1, err := m.Read(0x12, Width16)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xA1B2), h1)

	w, err := m.Read(0x10, Width32)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xA1B2C3D4), w)
}

func TestMap_narrowWriteMasksValue(t *testing.T) {
	m := NewMap()
	require.NoError(t, m.MapRAM(0, 0x100))

	require.NoError(t, m.Write(0x20, Width32, 0xFFFFFFFF))
	require.NoError(t, m.Write(0x20, Width8, 0xABC))

	w, err := m.Read(0x20, Width32)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xFFFFFFBC), w)
}

type recordingDevice struct {
	reads  []uint32
	writes map[uint32]uint32
}

func (d *recordingDevice) ReadRegister(offset uint32, width Width) (uint32, error) {
	d.reads = append(d.reads, offset)
	return 0xCAFE0000 | offset, nil
}

func (d *recordingDevice) WriteRegister(offset uint32, width Width, value uint32) error {
	if d.writes == nil {
		d.writes = map[uint32]uint32{}
	}
	d.writes[offset] = value
	return nil
}

func TestMap_deviceDispatch(t *testing.T) {
	m := NewMap()
	dev := &recordingDevice{}
	require.NoError(t, m.MapDevice(0x8000_0000, 0x100, dev))

	v, err := m.Read(0x8000_0004, Width32)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xCAFE0004), v)
	assert.Equal(t, []uint32{4}, dev.reads)

	require.NoError(t, m.Write(0x8000_0008, Width32, 0x1234))
	assert.Equal(t, uint32(0x1234), dev.writes[8])
}

func TestMap_writeObserver(t *testing.T) {
	m := NewMap()
	require.NoError(t, m.MapRAM(0, 0x1000))

	type store struct {
		addr  uint32
		width Width
		value uint32
	}
	var seen []store
	m.SetWriteObserver(func(addr uint32, width Width, value uint32) {
		// The observer must run before the value is committed.
		prev, err := m.Read(addr, width)
		assert.NoError(t, err)
		assert.NotEqual(t, value, prev)
		seen = append(seen, store{addr, width, value})
	})

	require.NoError(t, m.Write(0x100, Width8, 15))
	require.NoError(t, m.Write(0x200, Width32, 0xDEADBEEF))

	assert.Equal(t, []store{
		{0x100, Width8, 15},
		{0x200, Width32, 0xDEADBEEF},
	}, seen)

	// Failed writes never reach the observer.
	assert.Error(t, m.Write(0x2000, Width8, 1))
	assert.Len(t, seen, 2)
}

func TestMap_loadRAM(t *testing.T) {
	m := NewMap()
	require.NoError(t, m.MapRAM(0x1000, 0x100))

	require.NoError(t, m.LoadRAM(0x1010, []byte{0x78, 0x56, 0x34, 0x12}))
	v, err := m.Read(0x1010, Width32)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x12345678), v)

	assert.ErrorIs(t, m.LoadRAM(0x10FE, []byte{1, 2, 3, 4}), ErrUnmappedAddress)
	assert.ErrorIs(t, m.LoadRAM(0x2000, []byte{1}), ErrUnmappedAddress)
}
