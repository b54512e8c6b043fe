// Package palette provides the ten fixed DMG color themes named in
// spec.md §4.3, plus the CGB 15-bit BGR555 color-memory helpers used by
// the background and object palette RAM.
package palette

// RGB is a single 8-bit-per-channel color.
type RGB struct {
	R, G, B uint8
}

// Theme is a 4-entry DMG color ramp, index 0 is the lightest shade.
type Theme [4]RGB

// Named themes, grounded on the teacher's internal/ppu/palette colour
// constants (classic DMG green plus nine community favorites).
var Themes = []Theme{
	{ // 0: classic green
		{0xE0, 0xF8, 0xD0}, {0x88, 0xC0, 0x70}, {0x34, 0x68, 0x56}, {0x08, 0x18, 0x20},
	},
	{ // 1: grayscale
		{0xFF, 0xFF, 0xFF}, {0xAA, 0xAA, 0xAA}, {0x55, 0x55, 0x55}, {0x00, 0x00, 0x00},
	},
	{ // 2: solarized
		{0xFD, 0xF6, 0xE3}, {0x93, 0xA1, 0xA1}, {0x58, 0x6E, 0x75}, {0x00, 0x2B, 0x36},
	},
	{ // 3: maverick
		{0xFF, 0xF6, 0xD3}, {0xF9, 0xA8, 0x75}, {0xB0, 0x5B, 0x3A}, {0x2B, 0x17, 0x2C},
	},
	{ // 4: oceanic
		{0xE0, 0xFB, 0xFC}, {0x7D, 0xD3, 0xE0}, {0x2E, 0x86, 0xAB}, {0x0A, 0x2A, 0x43},
	},
	{ // 5: burnt peach
		{0xFF, 0xE8, 0xD6}, {0xFF, 0xAA, 0x7A}, {0xC7, 0x5B, 0x39}, {0x4A, 0x1E, 0x12},
	},
	{ // 6: grape soda
		{0xF2, 0xE6, 0xFF}, {0xC6, 0x9C, 0xF1}, {0x7B, 0x4B, 0xA6}, {0x2E, 0x14, 0x47},
	},
	{ // 7: strawberry milk
		{0xFF, 0xF0, 0xF5}, {0xFF, 0xB3, 0xC6}, {0xE6, 0x5D, 0x8A}, {0x5C, 0x1A, 0x33},
	},
	{ // 8: witching hour
		{0xF4, 0xE9, 0xCD}, {0xC9, 0x7B, 0x63}, {0x5B, 0x3A, 0x5C}, {0x1B, 0x0F, 0x2B},
	},
	{ // 9: void dream
		{0xD8, 0xE8, 0xF2}, {0x6E, 0x7F, 0xB3}, {0x3A, 0x3A, 0x6B}, {0x0C, 0x0C, 0x1E},
	},
}

// ThemeCount is the number of fixed DMG palette themes spec.md §4.3
// requires (indices 0 through 9).
const ThemeCount = 10

// Color resolves a 2-bit DMG color ID to RGB using the given theme
// index; an out-of-range index falls back to theme 0, so a bad
// host-supplied index never panics.
func Color(themeIndex int, colorID uint8) RGB {
	if themeIndex < 0 || themeIndex >= len(Themes) {
		themeIndex = 0
	}
	return Themes[themeIndex][colorID&0x3]
}

// Expand5 converts a 5-bit color channel to 8-bit per spec.md §4.3's
// CGB expansion formula: channel = (c<<3)|(c>>2).
func Expand5(c uint8) uint8 {
	return (c << 3) | (c >> 2)
}

// BGR555ToRGB decodes a 15-bit BGR555 word (as stored in CGB palette
// RAM) into 8-bit-per-channel RGB.
func BGR555ToRGB(word uint16) RGB {
	r := uint8(word & 0x1F)
	g := uint8((word >> 5) & 0x1F)
	b := uint8((word >> 10) & 0x1F)
	return RGB{Expand5(r), Expand5(g), Expand5(b)}
}

// CGBMemory is the 64-byte background or object color-palette memory:
// 8 palettes of 4 colors, each color a little-endian 15-bit BGR555 word.
type CGBMemory struct {
	raw   [64]byte
	index uint8
	auto  bool
}

// SetIndex handles a write to BCPS/OCPS: bits 0-5 are the byte index,
// bit 7 arms auto-increment on every data write.
func (m *CGBMemory) SetIndex(value uint8) {
	m.index = value & 0x3F
	m.auto = value&0x80 != 0
}

// GetIndex reconstructs the BCPS/OCPS readback value.
func (m *CGBMemory) GetIndex() uint8 {
	v := m.index
	if m.auto {
		v |= 0x80
	}
	return v
}

// ReadData returns the byte at the current index (BCPD/OCPD read).
func (m *CGBMemory) ReadData() uint8 {
	return m.raw[m.index]
}

// WriteData stores a byte at the current index and auto-increments if
// armed (BCPD/OCPD write).
func (m *CGBMemory) WriteData(value uint8) {
	m.raw[m.index] = value
	if m.auto {
		m.index = (m.index + 1) & 0x3F
	}
}

// Color returns the resolved RGB for a given CGB palette number (0-7)
// and 2-bit color index, per spec.md §4.3's "palette*8 + colorID*2"
// addressing.
func (m *CGBMemory) Color(paletteNum, colorIndex uint8) RGB {
	off := int(paletteNum)*8 + int(colorIndex)*2
	word := uint16(m.raw[off]) | uint16(m.raw[off+1])<<8
	return BGR555ToRGB(word)
}

func (m *CGBMemory) Bytes() []byte   { return m.raw[:] }
func (m *CGBMemory) LoadBytes(b []byte) { copy(m.raw[:], b) }
