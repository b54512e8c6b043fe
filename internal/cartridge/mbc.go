// Package cartridge implements cartridge header parsing and the
// MBC1/MBC3/MBC5 memory bank controllers described in spec.md §4.7. A
// closed tagged-variant dispatch is used rather than a runtime
// interface, since the set of variants is fixed at compile time and
// per-tick cost matters.
package cartridge

import (
	"fmt"

	"github.com/oakmoss/gbcore/internal/state"
)

// Cartridge wraps the parsed header, the raw ROM bytes (never
// serialized into save-states, per spec.md §9), and whichever MBC
// variant the header selects.
type Cartridge struct {
	Header *Header
	rom    []byte

	variant Variant
	mbc1    *MBC1
	mbc3    *MBC3
	mbc5    *MBC5
	none    *None
}

// New constructs a Cartridge from a raw ROM image. Header validation
// warnings are logged by the caller; this constructor only panics on
// the Programmer Error conditions spec.md §7 names (unsupported
// variant/size, already handled inside ParseHeader).
func New(rom []byte) (*Cartridge, error) {
	header, warnErr := ParseHeader(rom)

	c := &Cartridge{Header: header, rom: rom, variant: header.Variant}
	switch header.Variant {
	case VariantNone:
		c.none = NewNone(rom)
	case VariantMBC1:
		c.mbc1 = NewMBC1(rom, header)
	case VariantMBC3:
		c.mbc3 = NewMBC3(rom, header)
	case VariantMBC5:
		c.mbc5 = NewMBC5(rom, header)
	default:
		panic(fmt.Sprintf("cartridge: unhandled MBC variant %v", header.Variant))
	}
	return c, warnErr
}

// ReloadROM re-attaches ROM bytes without touching banking state, for
// use after LoadSaveState per spec.md §4.1.
func (c *Cartridge) ReloadROM(rom []byte) {
	c.rom = rom
	switch c.variant {
	case VariantMBC1:
		c.mbc1.rom = rom
	case VariantMBC3:
		c.mbc3.rom = rom
	case VariantMBC5:
		c.mbc5.rom = rom
	default:
		c.none.rom = rom
	}
}

// Read dispatches an 0x0000-0x7FFF or 0xA000-0xBFFF access to the
// active variant.
func (c *Cartridge) Read(address uint16) uint8 {
	switch c.variant {
	case VariantMBC1:
		return c.mbc1.Read(address)
	case VariantMBC3:
		return c.mbc3.Read(address)
	case VariantMBC5:
		return c.mbc5.Read(address)
	default:
		return c.none.Read(address)
	}
}

// Write dispatches a banking-register or RAM write to the active
// variant.
func (c *Cartridge) Write(address uint16, value uint8) {
	switch c.variant {
	case VariantMBC1:
		c.mbc1.Write(address, value)
	case VariantMBC3:
		c.mbc3.Write(address, value)
	case VariantMBC5:
		c.mbc5.Write(address, value)
	default:
		c.none.Write(address, value)
	}
}

// Backup returns the MBC's RAM mirror (zero-sized when the cartridge
// declares no RAM), or nil for a cartridge without an MBC.
func (c *Cartridge) Backup() *BackupFile {
	switch c.variant {
	case VariantMBC1:
		return c.mbc1.backup
	case VariantMBC3:
		return c.mbc3.backup
	case VariantMBC5:
		return c.mbc5.backup
	default:
		return nil
	}
}

// RTC returns the MBC3 real-time clock, or nil for any other variant.
func (c *Cartridge) RTC() *RTC {
	if c.variant == VariantMBC3 {
		return c.mbc3.rtc
	}
	return nil
}

func (c *Cartridge) Save(s *state.State) {
	s.WriteUint8(uint8(c.variant))
	switch c.variant {
	case VariantMBC1:
		c.mbc1.Save(s)
	case VariantMBC3:
		c.mbc3.Save(s)
	case VariantMBC5:
		c.mbc5.Save(s)
	}
}

func (c *Cartridge) Load(s *state.State) {
	s.ReadUint8() // variant tag: caller already constructed the right MBC from the header
	switch c.variant {
	case VariantMBC1:
		c.mbc1.Load(s)
	case VariantMBC3:
		c.mbc3.Load(s)
	case VariantMBC5:
		c.mbc5.Load(s)
	}
}

// None is the cartridge type for headers that declare no MBC (type 0x00):
// a fixed 32KiB ROM with no banking and no external RAM.
type None struct {
	rom []byte
}

func NewNone(rom []byte) *None { return &None{rom: rom} }

func (n *None) Read(address uint16) uint8 {
	if int(address) < len(n.rom) {
		return n.rom[address]
	}
	return 0xFF
}

func (n *None) Write(uint16, uint8) {} // no banking registers, no RAM
