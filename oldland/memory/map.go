// Package memory implements the simulated physical address space: a set
// of disjoint regions backed by raw storage or by memory-mapped devices,
// with width-checked access dispatch shared by the CPU and the debugger.
package memory

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sort"
)

// Width is the size of a memory access in bits.
type Width uint8

const (
	Width8  Width = 8
	Width16 Width = 16
	Width32 Width = 32
)

// Bytes returns the access size in bytes.
func (w Width) Bytes() uint32 {
	return uint32(w) / 8
}

// Mask returns the value mask for the access width.
func (w Width) Mask() uint32 {
	switch w {
	case Width8:
		return 0xFF
	case Width16:
		return 0xFFFF
	default:
		return 0xFFFFFFFF
	}
}

func (w Width) valid() bool {
	return w == Width8 || w == Width16 || w == Width32
}

var (
	ErrAddressConflict = errors.New("region overlaps an existing mapping")
	ErrUnmappedAddress = errors.New("unmapped address")
	ErrUnalignedAccess = errors.New("unaligned access")
	ErrInvalidWidth    = errors.New("invalid access width")
)

// Device is a memory-mapped peripheral. Offsets are relative to the
// region base. Implementations decide which offsets and widths they
// accept; a returned error is treated as a bus fault by the caller.
type Device interface {
	ReadRegister(offset uint32, width Width) (uint32, error)
	WriteRegister(offset uint32, width Width, value uint32) error
}

// WriteObserver is called for every committed write, before the value
// lands, with the same address/width/value the write will use.
type WriteObserver func(addr uint32, width Width, value uint32)

type region struct {
	base uint32
	size uint32
	ram  []byte // nil for device regions
	dev  Device
}

func (r *region) end() uint64 {
	return uint64(r.base) + uint64(r.size)
}

func (r *region) contains(addr uint32, bytes uint32) bool {
	return addr >= r.base && uint64(addr)+uint64(bytes) <= r.end()
}

// Map owns the address space. Regions never overlap and every valid
// access falls entirely within one region. Values in raw storage are
// little-endian.
type Map struct {
	regions  []*region // sorted by base
	observer WriteObserver
}

func NewMap() *Map {
	return &Map{}
}

// SetWriteObserver registers the observer invoked on every committed
// write, including debugger-initiated ones. A nil observer disables it.
func (m *Map) SetWriteObserver(obs WriteObserver) {
	m.observer = obs
}

// MapRAM adds a raw storage region of the given size.
func (m *Map) MapRAM(base, size uint32) error {
	return m.add(&region{base: base, size: size, ram: make([]byte, size)})
}

// MapDevice adds a device-backed region.
func (m *Map) MapDevice(base, size uint32, dev Device) error {
	return m.add(&region{base: base, size: size, dev: dev})
}

func (m *Map) add(r *region) error {
	if r.size == 0 {
		return fmt.Errorf("map region at 0x%08X: zero size", r.base)
	}
	for _, other := range m.regions {
		if uint64(r.base) < other.end() && uint64(other.base) < r.end() {
			return fmt.Errorf("map region [0x%08X, 0x%X): %w", r.base, r.end(), ErrAddressConflict)
		}
	}
	m.regions = append(m.regions, r)
	sort.Slice(m.regions, func(i, j int) bool {
		return m.regions[i].base < m.regions[j].base
	})
	return nil
}

// find returns the region covering the full access, or an error
// distinguishing unmapped from out-of-region/unaligned accesses.
func (m *Map) find(addr uint32, w Width) (*region, error) {
	if !w.valid() {
		return nil, fmt.Errorf("access at 0x%08X: %w (%d bits)", addr, ErrInvalidWidth, w)
	}
	for _, r := range m.regions {
		if addr >= r.base && uint64(addr) < r.end() {
			if !r.contains(addr, w.Bytes()) {
				return nil, fmt.Errorf("%d-bit access at 0x%08X: %w", w, addr, ErrUnalignedAccess)
			}
			if r.ram != nil && addr%w.Bytes() != 0 {
				return nil, fmt.Errorf("%d-bit access at 0x%08X: %w", w, addr, ErrUnalignedAccess)
			}
			return r, nil
		}
	}
	return nil, fmt.Errorf("%d-bit access at 0x%08X: %w", w, addr, ErrUnmappedAddress)
}

// Read performs a width-checked load.
func (m *Map) Read(addr uint32, w Width) (uint32, error) {
	r, err := m.find(addr, w)
	if err != nil {
		return 0, err
	}
	if r.dev != nil {
		return r.dev.ReadRegister(addr-r.base, w)
	}
	off := addr - r.base
	switch w {
	case Width8:
		return uint32(r.ram[off]), nil
	case Width16:
		return uint32(binary.LittleEndian.Uint16(r.ram[off:])), nil
	default:
		return binary.LittleEndian.Uint32(r.ram[off:]), nil
	}
}

// Write performs a width-checked store. The observer, if any, sees the
// write before the value is committed.
func (m *Map) Write(addr uint32, w Width, value uint32) error {
	r, err := m.find(addr, w)
	if err != nil {
		return err
	}
	value &= w.Mask()
	if m.observer != nil {
		m.observer(addr, w, value)
	}
	if r.dev != nil {
		return r.dev.WriteRegister(addr-r.base, w, value)
	}
	off := addr - r.base
	switch w {
	case Width8:
		r.ram[off] = byte(value)
	case Width16:
		binary.LittleEndian.PutUint16(r.ram[off:], uint16(value))
	default:
		binary.LittleEndian.PutUint32(r.ram[off:], value)
	}
	return nil
}

// LoadRAM bulk-copies data into a raw storage region, bounds-checked
// but without width dispatch. Used for pre-loading ROM images; the
// write observer does not fire.
func (m *Map) LoadRAM(base uint32, data []byte) error {
	for _, r := range m.regions {
		if r.ram != nil && r.contains(base, uint32(len(data))) {
			copy(r.ram[base-r.base:], data)
			return nil
		}
	}
	return fmt.Errorf("load %d bytes at 0x%08X: %w", len(data), base, ErrUnmappedAddress)
}
