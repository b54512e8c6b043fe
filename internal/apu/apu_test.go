package apu

import (
	"testing"

	"github.com/oakmoss/gbcore/internal/types"
	"github.com/oakmoss/gbcore/pkg/audio"
	"github.com/stretchr/testify/assert"
)

func TestMasterEnableGatesRegisterWrites(t *testing.T) {
	ring := audio.NewRing(64)
	a := New(ring, nil, false)

	a.Write(types.NR52, 0x00) // power off
	a.Write(types.NR11, 0xFF) // should be ignored while powered off
	assert.Equal(t, uint8(0), a.ch1.duty)

	a.Write(types.NR52, 0x80) // power on
	a.Write(types.NR11, 0xC0)
	assert.Equal(t, uint8(3), a.ch1.duty)
}

func TestPulseTriggerSetsLengthAndVolume(t *testing.T) {
	ring := audio.NewRing(64)
	a := New(ring, nil, false)
	a.Write(types.NR52, 0x80)

	a.Write(types.NR12, 0xF0) // initial volume 15, no envelope
	a.Write(types.NR14, 0x80) // trigger
	assert.Equal(t, uint8(15), a.ch1.volume)
	assert.Equal(t, uint8(64), a.ch1.lengthCounter)
}

func TestWaveRAMAccessibleWhilePoweredOff(t *testing.T) {
	ring := audio.NewRing(64)
	a := New(ring, nil, false)
	a.Write(types.NR52, 0x00)
	a.Write(types.WaveRAMStart, 0xAB)
	assert.Equal(t, uint8(0xAB), a.Read(types.WaveRAMStart))
}
