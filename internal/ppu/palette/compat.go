package palette

// CompatibilityEntry is a BG/OBJ0/OBJ1 palette triplet assigned to a
// monochrome cartridge by the original CGB boot ROM's title-hash
// lookup, restored here per SPEC_FULL.md §4 "Supplemented features".
type CompatibilityEntry struct {
	BG, OBJ0, OBJ1 Theme
}

// titleChecksum reproduces the boot ROM's hash: the sum of the title
// bytes (0x134-0x143 inclusive) truncated to 8 bits.
func titleChecksum(title string) uint8 {
	var sum uint8
	for i := 0; i < len(title); i++ {
		sum += title[i]
	}
	return sum
}

// compatibilityTable is a representative subset of the boot ROM's
// hash->palette database (a handful of well-known licensed titles),
// not the exhaustive 256-entry table — hosts that need full fidelity
// should fall back to the ten configurable themes.
var compatibilityTable = map[uint8]CompatibilityEntry{
	// "Nintendo"-published defaults observed for several monochrome carts.
	0x14: {
		BG:   Theme{{0xFF, 0xFF, 0xFF}, {0x52, 0xFF, 0x00}, {0xFF, 0x42, 0x00}, {0x00, 0x00, 0x00}},
		OBJ0: Theme{{0xFF, 0xFF, 0xFF}, {0xFF, 0xFF, 0x00}, {0xFF, 0x00, 0x00}, {0x00, 0x00, 0x00}},
		OBJ1: Theme{{0xFF, 0xFF, 0xFF}, {0x63, 0xA5, 0xFF}, {0x00, 0x00, 0xFF}, {0x00, 0x00, 0x00}},
	},
}

// Compatibility looks up the automatic color scheme the CGB boot ROM
// would have assigned a monochrome cartridge with the given title. It
// reports ok=false for anything outside the small table carried here,
// leaving the caller to fall back to the ten fixed themes.
func Compatibility(title string) (entry CompatibilityEntry, ok bool) {
	entry, ok = compatibilityTable[titleChecksum(title)]
	return
}
