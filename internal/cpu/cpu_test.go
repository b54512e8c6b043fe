package cpu

import (
	"testing"

	"github.com/oakmoss/gbcore/internal/apu"
	"github.com/oakmoss/gbcore/internal/cartridge"
	"github.com/oakmoss/gbcore/internal/interrupts"
	"github.com/oakmoss/gbcore/internal/joypad"
	"github.com/oakmoss/gbcore/internal/mmu"
	"github.com/oakmoss/gbcore/internal/ppu"
	"github.com/oakmoss/gbcore/internal/timer"
	"github.com/oakmoss/gbcore/internal/types"
	"github.com/oakmoss/gbcore/pkg/audio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func blankROM() []byte {
	rom := make([]byte, 0x8000)
	var sum uint8
	for i := 0x134; i <= 0x14C; i++ {
		sum = sum - rom[i] - 1
	}
	rom[0x14D] = sum
	return rom
}

func newTestCPU(t *testing.T, program []byte) *CPU {
	rom := blankROM()
	copy(rom[0x0100:], program)

	cart, err := cartridge.New(rom)
	require.NoError(t, err)

	irq := interrupts.NewService()
	p := ppu.New(types.DMG, irq, func(uint16) uint8 { return 0 })
	a := apu.New(audio.NewRing(64), nil, false)
	tm := timer.New(irq)
	jp := joypad.New(irq)

	bus := mmu.New(types.DMG, cart, p, a, tm, jp, irq)
	return New(types.DMG, bus, irq)
}

func TestNOPAdvancesPC(t *testing.T) {
	c := newTestCPU(t, []byte{0x00})
	start := c.PC
	cycles := c.Step()
	assert.Equal(t, start+1, c.PC)
	assert.Equal(t, uint32(4), cycles)
}

func TestLDRegisterImmediate(t *testing.T) {
	c := newTestCPU(t, []byte{0x3E, 0x42}) // LD A, 0x42
	c.Step()
	assert.Equal(t, uint8(0x42), c.A)
}

func TestAddSetsCarryAndZero(t *testing.T) {
	c := newTestCPU(t, []byte{0x3E, 0xFF, 0xC6, 0x01}) // LD A,0xFF; ADD A,1
	c.Step()
	c.Step()
	assert.Equal(t, uint8(0), c.A)
	assert.True(t, c.Flag(FlagZ))
	assert.True(t, c.Flag(FlagC))
}

func TestJumpRelativeTaken(t *testing.T) {
	c := newTestCPU(t, []byte{0x18, 0x02}) // JR +2
	start := c.PC
	c.Step()
	assert.Equal(t, start+2+2, c.PC)
}

func TestPushPopRoundTrips(t *testing.T) {
	c := newTestCPU(t, []byte{
		0x01, 0xAD, 0xDE, // LD BC, 0xDEAD
		0xC5,             // PUSH BC
		0x01, 0x00, 0x00, // LD BC, 0x0000
		0xC1, // POP BC
	})
	for i := 0; i < 4; i++ {
		c.Step()
	}
	assert.Equal(t, uint16(0xDEAD), c.BC())
}

func TestCBBitInstruction(t *testing.T) {
	c := newTestCPU(t, []byte{0x3E, 0x80, 0xCB, 0x7F}) // LD A,0x80; BIT 7,A
	c.Step()
	c.Step()
	assert.False(t, c.Flag(FlagZ), "bit 7 of 0x80 is set, BIT must clear Z")
}

func TestHaltResumesOnInterruptEvenWithIMEOff(t *testing.T) {
	c := newTestCPU(t, []byte{0x76}) // HALT
	c.irq.IME = false
	c.Step()
	assert.Equal(t, modeHalted, c.mode)
	c.irq.Enable = 1 << uint8(interrupts.VBlank)
	c.irq.Request(interrupts.VBlank)
	c.Step()
	assert.Equal(t, modeRunning, c.mode)
}
