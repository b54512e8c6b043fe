package cartridge

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// Variant identifies which MBC family a cartridge uses.
type Variant uint8

const (
	VariantNone Variant = iota
	VariantMBC1
	VariantMBC3
	VariantMBC5
)

func (v Variant) String() string {
	switch v {
	case VariantMBC1:
		return "MBC1"
	case VariantMBC3:
		return "MBC3"
	case VariantMBC5:
		return "MBC5"
	default:
		return "None"
	}
}

var romSizeTable = map[uint8]uint{
	0x00: 32 * 1024, 0x01: 64 * 1024, 0x02: 128 * 1024, 0x03: 256 * 1024,
	0x04: 512 * 1024, 0x05: 1024 * 1024, 0x06: 2048 * 1024, 0x07: 4096 * 1024, 0x08: 8192 * 1024,
}

var ramSizeTable = map[uint8]uint{
	0x00: 0, 0x01: 2 * 1024, 0x02: 8 * 1024, 0x03: 32 * 1024, 0x04: 128 * 1024, 0x05: 64 * 1024,
}

// Header is the parsed 0x0100-0x014F cartridge header.
type Header struct {
	Title       string
	CGBFlag     uint8 // raw byte 0x143
	CartType    uint8 // raw byte 0x147
	ROMSize     uint
	RAMSize     uint
	HasBattery  bool
	HasRTC      bool
	HasRAM      bool
	Variant     Variant
	HeaderCksum uint8
}

// CGBMode reports whether byte 0x143 selects CGB mode, per spec.md §4.1
// ("choose CGB mode iff that byte matches {0x80, 0xC0}").
func (h *Header) CGBMode() bool {
	return h.CGBFlag == 0x80 || h.CGBFlag == 0xC0
}

// ParseHeader decodes a cartridge header from the raw ROM image and
// returns both the Header and any non-fatal warnings accumulated while
// doing so (restoring the original implementation's multi-warning
// validation instead of the distillation's silent-or-panic choice; see
// SPEC_FULL.md §4 "Supplemented features"). A malformed, truncated ROM
// or an unsupported cartridge type is a Programmer Error and panics,
// per spec.md §7.
func ParseHeader(rom []byte) (*Header, error) {
	if len(rom) < 0x150 {
		panic(fmt.Sprintf("cartridge: ROM too short to contain a header: %d bytes", len(rom)))
	}

	var warnings *multierror.Error

	h := &Header{
		CGBFlag:     rom[0x143],
		CartType:    rom[0x147],
		HeaderCksum: rom[0x14D],
	}

	titleEnd := 0x144
	if h.CGBFlag == 0x80 || h.CGBFlag == 0xC0 {
		titleEnd = 0x143
	}
	h.Title = trimTitle(rom[0x134:titleEnd])

	romCode := rom[0x148]
	romSize, ok := romSizeTable[romCode]
	if !ok {
		panic(fmt.Sprintf("cartridge: unsupported ROM size code 0x%02X", romCode))
	}
	h.ROMSize = romSize
	if uint(len(rom)) < h.ROMSize {
		warnings = multierror.Append(warnings, fmt.Errorf(
			"header declares %d ROM bytes but image is only %d bytes", h.ROMSize, len(rom)))
	}

	ramCode := rom[0x149]
	ramSize, ok := ramSizeTable[ramCode]
	if !ok {
		panic(fmt.Sprintf("cartridge: unsupported RAM size code 0x%02X", ramCode))
	}
	h.RAMSize = ramSize

	switch h.CartType {
	case 0x00:
		h.Variant = VariantNone
	case 0x01, 0x02, 0x03:
		h.Variant = VariantMBC1
		h.HasRAM = h.CartType != 0x01
		h.HasBattery = h.CartType == 0x03
	case 0x0F, 0x10, 0x11, 0x12, 0x13:
		h.Variant = VariantMBC3
		h.HasRTC = h.CartType == 0x0F || h.CartType == 0x10
		h.HasRAM = h.CartType == 0x10 || h.CartType == 0x12 || h.CartType == 0x13
		h.HasBattery = h.CartType == 0x0F || h.CartType == 0x10 || h.CartType == 0x13
	case 0x19, 0x1A, 0x1B, 0x1C, 0x1D, 0x1E:
		h.Variant = VariantMBC5
		h.HasRAM = h.CartType == 0x1A || h.CartType == 0x1B || h.CartType == 0x1D || h.CartType == 0x1E
		h.HasBattery = h.CartType == 0x1B || h.CartType == 0x1E
	default:
		panic(fmt.Sprintf("cartridge: unsupported cartridge type 0x%02X", h.CartType))
	}

	if (h.Variant == VariantMBC1 || h.Variant == VariantMBC3) && h.HasRAM && h.RAMSize == 0 {
		warnings = multierror.Append(warnings, fmt.Errorf(
			"cartridge type 0x%02X declares RAM support but RAM size code is 0", h.CartType))
	}

	if computed := headerChecksum(rom); computed != h.HeaderCksum {
		warnings = multierror.Append(warnings, fmt.Errorf(
			"header checksum mismatch: computed 0x%02X, stored 0x%02X", computed, h.HeaderCksum))
	}

	if warnings != nil {
		return h, warnings.ErrorOrNil()
	}
	return h, nil
}

func headerChecksum(rom []byte) uint8 {
	var sum uint8
	for i := 0x134; i <= 0x14C; i++ {
		sum = sum - rom[i] - 1
	}
	return sum
}

func trimTitle(b []byte) string {
	end := len(b)
	for end > 0 && b[end-1] == 0 {
		end--
	}
	return string(b[:end])
}
