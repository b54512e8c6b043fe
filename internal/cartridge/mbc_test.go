package cartridge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeHeader(t byte, romCode, ramCode byte) []byte {
	rom := make([]byte, 0x150)
	rom[0x147] = t
	rom[0x148] = romCode
	rom[0x149] = ramCode
	var sum uint8
	for i := 0x134; i <= 0x14C; i++ {
		sum = sum - rom[i] - 1
	}
	rom[0x14D] = sum
	return rom
}

func TestMBC1ModeToggle(t *testing.T) {
	// ROM size code 0x05 => 1 MiB, so bank2 extends the ROM bank.
	header := makeHeader(0x01, 0x05, 0x00)
	rom := make([]byte, 1024*1024)
	copy(rom, header)
	// Tag each 0x4000 bank with its own index at offset 0 for identification.
	for bank := 0; bank < 64; bank++ {
		rom[bank*0x4000] = byte(bank)
	}

	h, _ := ParseHeader(rom)
	m := NewMBC1(rom, h)

	// Select ROM bank 0x01 in the low 5 bits, and bank2 = 0b01 (bit 5 of the
	// effective bank), mode 0: the 0x0000-0x3FFF window should still show
	// bank 0 because mode 0 collapses the upper bits there.
	m.Write(0x2000, 0x01)
	m.Write(0x4000, 0x01)
	assert.Equal(t, uint8(0), m.Read(0x0000), "mode 0 must show bank 0 in the low window")

	// Switching to mode 1 (advanced) exposes bank2<<5 in the low window too.
	m.Write(0x6000, 0x01)
	assert.Equal(t, uint8(0x20), m.Read(0x0000), "mode 1 must expose bank2<<5 in the low window")

	// Switching back to mode 0 restores the original view.
	m.Write(0x6000, 0x00)
	assert.Equal(t, uint8(0), m.Read(0x0000))
}

func TestMBC1BankZeroBecomesOne(t *testing.T) {
	header := makeHeader(0x01, 0x00, 0x00)
	rom := make([]byte, 32*1024)
	copy(rom, header)
	h, _ := ParseHeader(rom)
	m := NewMBC1(rom, h)

	m.Write(0x2000, 0x00)
	assert.Equal(t, uint8(1), m.romBank, "writing 0 to the ROM-bank register must map bank 1")
}

func TestMBC5BankZeroIsDistinctFromBank0x100(t *testing.T) {
	header := makeHeader(0x19, 0x08, 0x00) // MBC5, 8 MiB ROM
	rom := make([]byte, 8*1024*1024)
	copy(rom, header)
	rom[0x4000] = 0xAA        // bank 1 marker
	rom[0x100*0x4000] = 0xBB // bank 0x100 marker

	h, _ := ParseHeader(rom)
	m := NewMBC5(rom, h)

	m.Write(0x2000, 0x00)
	m.Write(0x3000, 0x00)
	bank0 := m.Read(0x4000)

	m.Write(0x2000, 0x00)
	m.Write(0x3000, 0x01) // bank 0x100
	bank256 := m.Read(0x4000)

	assert.NotEqual(t, bank0, bank256, "bank 0 and bank 0x100 must read differently")
	assert.Equal(t, uint8(0xBB), bank256)
}

func TestRTCHaltSemantics(t *testing.T) {
	r := NewRTC()
	r.reference = time.Now().Add(-10 * time.Second)

	r.Latch(0x00)
	r.Latch(0x01)
	require.Equal(t, uint8(10), r.Read(0x08))

	// Halt the clock.
	r.Write(0x0C, 0x40)
	elapsedAtHalt := r.haltedElapsed

	// Simulate wall-clock time passing while halted.
	time.Sleep(5 * time.Millisecond)

	r.Latch(0x00)
	r.Latch(0x01)
	assert.Equal(t, elapsedAtHalt, r.haltedElapsed, "halted duration must not advance")
	assert.Equal(t, uint8(10), r.Read(0x08), "latch reads the time held at halt")

	// Unhalt: the clock should resume from the held value, not jump forward.
	r.Write(0x0C, 0x00)
	r.Latch(0x00)
	r.Latch(0x01)
	assert.Equal(t, uint8(10), r.Read(0x08))
}

func TestBackupFileSaveDebounce(t *testing.T) {
	b := NewBackupFile(8)
	now := time.Unix(1000, 0)
	nowFunc = func() time.Time { return now }
	defer func() { nowFunc = time.Now }()

	assert.False(t, b.CheckSave(false))
	b.Write(0, 0x42)
	assert.True(t, b.IsDirty())
	assert.False(t, b.CheckSave(false), "must not flush before the debounce window elapses")

	now = now.Add(600 * time.Millisecond)
	assert.True(t, b.CheckSave(false))
}
