package gameboy

import (
	"testing"

	"github.com/oakmoss/gbcore/internal/ppu"
	"github.com/oakmoss/gbcore/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func blankROM(cgbFlag, cartType byte) []byte {
	rom := make([]byte, 0x8000)
	rom[0x143] = cgbFlag
	rom[0x147] = cartType
	var sum uint8
	for i := 0x134; i <= 0x14C; i++ {
		sum = sum - rom[i] - 1
	}
	rom[0x14D] = sum
	return rom
}

func TestNewDetectsCGBFromHeader(t *testing.T) {
	gb, err := New(blankROM(0xC0, 0x00))
	require.NoError(t, err)
	assert.Equal(t, types.CGB, gb.Model)
}

func TestStepFrameProducesFullScreen(t *testing.T) {
	gb, err := New(blankROM(0x00, 0x00))
	require.NoError(t, err)
	gb.StepFrame()
	screen := gb.GetScreen()
	assert.Len(t, screen, ppu.ScreenWidth*ppu.ScreenHeight*4)
}

func TestSaveStateRoundTrips(t *testing.T) {
	gb, err := New(blankROM(0x00, 0x00))
	require.NoError(t, err)
	gb.StepFrame()

	data, err := gb.CreateSaveState()
	require.NoError(t, err)

	gb2, err := New(blankROM(0x00, 0x00))
	require.NoError(t, err)
	require.NoError(t, gb2.LoadSaveState(data))
	assert.Equal(t, gb.GetScreen(), gb2.GetScreen())
}
