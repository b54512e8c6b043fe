// Package apu implements the audio processing unit: four sound
// channels, the 512 Hz frame sequencer, and the NR5x mixer. Samples are
// pushed into a host-supplied audio.Producer rather than owning any
// platform audio handle, per spec.md §5's decoupled audio model.
package apu

import (
	"github.com/oakmoss/gbcore/internal/state"
	"github.com/oakmoss/gbcore/internal/types"
	"github.com/oakmoss/gbcore/pkg/audio"
)

const (
	// cpuClockHz is the DMG/CGB (single-speed) CPU clock.
	cpuClockHz    = 4194304
	sampleRateHz  = 44100
	frameSeqHz    = 512
)

// APU is the audio processing unit.
type APU struct {
	enabled bool

	ch1 pulse
	ch2 pulse
	ch3 wave
	ch4 noise

	nr50 uint8 // master volume / Vin
	nr51 uint8 // channel panning

	frameSeqStep   uint8
	frameSeqTimer  int32
	sampleTimer    int32

	producer audio.Producer
	tap      audio.Producer // optional waveform-tap for debug visualization

	// iOSMixer clamps the mixed sample into the positive half of the
	// float range, working around an AVAudioEngine quirk on some
	// versions of iOS that clips full-range signed samples.
	iOSMixer bool
}

// New returns an APU that will push mixed stereo samples into producer.
// tap may be nil; if set, it receives the same stream for visualization.
func New(producer audio.Producer, tap audio.Producer, iOSMixer bool) *APU {
	a := &APU{producer: producer, tap: tap, iOSMixer: iOSMixer}
	a.ch1.hasSweep = true
	a.sampleTimer = cpuClockHz / sampleRateHz
	a.frameSeqTimer = cpuClockHz / frameSeqHz
	return a
}

// Tick advances the APU by the given number of T-cycles.
func (a *APU) Tick(cycles uint8) {
	for i := uint8(0); i < cycles; i++ {
		a.tickCycle()
	}
}

func (a *APU) tickCycle() {
	if a.enabled {
		a.ch1.step()
		a.ch2.step()
		a.ch3.step()
		a.ch4.step()
	}

	a.frameSeqTimer--
	if a.frameSeqTimer <= 0 {
		a.frameSeqTimer += cpuClockHz / frameSeqHz
		a.tickFrameSequencer()
	}

	a.sampleTimer--
	if a.sampleTimer <= 0 {
		a.sampleTimer += cpuClockHz / sampleRateHz
		a.mixAndPush()
	}
}

// tickFrameSequencer clocks length (steps 0,2,4,6), sweep (steps 2,6),
// and envelope (step 7) per the documented 8-step 512 Hz sequence.
func (a *APU) tickFrameSequencer() {
	switch a.frameSeqStep {
	case 0, 4:
		a.ch1.tickLength()
		a.ch2.tickLength()
		a.ch3.tickLength()
		a.ch4.tickLength()
	case 2, 6:
		a.ch1.tickLength()
		a.ch2.tickLength()
		a.ch3.tickLength()
		a.ch4.tickLength()
		a.ch1.tickSweep()
	case 7:
		a.ch1.tickEnvelope()
		a.ch2.tickEnvelope()
		a.ch4.tickEnvelope()
	}
	a.frameSeqStep = (a.frameSeqStep + 1) % 8
}

func (a *APU) mixAndPush() {
	if !a.enabled {
		a.producer.PushStereo(0, 0)
		return
	}

	s1 := float32(a.ch1.output())
	s2 := float32(a.ch2.output())
	s3 := float32(a.ch3.output())
	s4 := float32(a.ch4.output())

	var left, right float32
	if a.nr51&0x10 != 0 {
		left += s1
	}
	if a.nr51&0x20 != 0 {
		left += s2
	}
	if a.nr51&0x40 != 0 {
		left += s3
	}
	if a.nr51&0x80 != 0 {
		left += s4
	}
	if a.nr51&0x01 != 0 {
		right += s1
	}
	if a.nr51&0x02 != 0 {
		right += s2
	}
	if a.nr51&0x04 != 0 {
		right += s3
	}
	if a.nr51&0x08 != 0 {
		right += s4
	}

	leftVol := float32((a.nr50>>4)&0x07+1) / 8
	rightVol := float32(a.nr50&0x07+1) / 8

	// Normalize 4 channels of 0-15 range into -1..1 (or 0..1 for iOS).
	left = (left/60 - 0.5) * 2 * leftVol
	right = (right/60 - 0.5) * 2 * rightVol
	if a.iOSMixer {
		left = (left + 1) / 2
		right = (right + 1) / 2
	}

	a.producer.PushStereo(left, right)
	if a.tap != nil {
		a.tap.PushStereo(left, right)
	}
}

func (a *APU) Read(address uint16) uint8 {
	switch address {
	case types.NR10:
		v := a.ch1.sweepPeriod<<4 | a.ch1.sweepShift
		if a.ch1.sweepUp {
			v |= 0x08
		}
		return v | 0x80
	case types.NR11:
		return a.ch1.duty<<6 | 0x3F
	case types.NR12:
		return a.envelopeByte(a.ch1.envelopeInitial, a.ch1.envelopeUp, a.ch1.envelopePeriod)
	case types.NR13:
		return 0xFF
	case types.NR14:
		v := uint8(0xBF)
		if a.ch1.lengthEnable {
			v |= 0x40
		}
		return v
	case types.NR21:
		return a.ch2.duty<<6 | 0x3F
	case types.NR22:
		return a.envelopeByte(a.ch2.envelopeInitial, a.ch2.envelopeUp, a.ch2.envelopePeriod)
	case types.NR24:
		v := uint8(0xBF)
		if a.ch2.lengthEnable {
			v |= 0x40
		}
		return v
	case types.NR30:
		if a.ch3.dacOn {
			return 0xFF
		}
		return 0x7F
	case types.NR32:
		return a.ch3.volumeShift<<5 | 0x9F
	case types.NR34:
		v := uint8(0xBF)
		if a.ch3.lengthEnable {
			v |= 0x40
		}
		return v
	case types.NR42:
		return a.envelopeByte(a.ch4.envelopeInitial, a.ch4.envelopeUp, a.ch4.envelopePeriod)
	case types.NR43:
		v := a.ch4.divisorCode | a.ch4.shiftAmount<<4
		if a.ch4.widthMode7 {
			v |= 0x08
		}
		return v
	case types.NR44:
		v := uint8(0xBF)
		if a.ch4.lengthEnable {
			v |= 0x40
		}
		return v
	case types.NR50:
		return a.nr50
	case types.NR51:
		return a.nr51
	case types.NR52:
		return a.nr52Byte()
	}
	if address >= types.WaveRAMStart && address <= types.WaveRAMEnd {
		return a.ch3.ram[address-types.WaveRAMStart]
	}
	return 0xFF
}

func (a *APU) envelopeByte(initial uint8, up bool, period uint8) uint8 {
	v := initial<<4 | period
	if up {
		v |= 0x08
	}
	return v
}

func (a *APU) nr52Byte() uint8 {
	v := uint8(0x70)
	if a.enabled {
		v |= 0x80
	}
	if a.ch1.enabled {
		v |= 0x01
	}
	if a.ch2.enabled {
		v |= 0x02
	}
	if a.ch3.enabled {
		v |= 0x04
	}
	if a.ch4.enabled {
		v |= 0x08
	}
	return v
}

func (a *APU) Write(address uint16, value uint8) {
	if !a.enabled && address != types.NR52 && !(address >= types.WaveRAMStart && address <= types.WaveRAMEnd) {
		return
	}
	switch address {
	case types.NR10:
		a.ch1.sweepPeriod = (value >> 4) & 0x07
		a.ch1.sweepUp = value&0x08 == 0
		a.ch1.sweepShift = value & 0x07
	case types.NR11:
		a.ch1.duty = value >> 6
		a.ch1.lengthCounter = 64 - value&0x3F
	case types.NR12:
		a.ch1.envelopeInitial = value >> 4
		a.ch1.envelopeUp = value&0x08 != 0
		a.ch1.envelopePeriod = value & 0x07
		a.ch1.dacOn = value&0xF8 != 0
		if !a.ch1.dacOn {
			a.ch1.enabled = false
		}
	case types.NR13:
		a.ch1.freq = a.ch1.freq&0x0700 | uint16(value)
	case types.NR14:
		a.ch1.freq = a.ch1.freq&0x00FF | uint16(value&0x07)<<8
		a.ch1.lengthEnable = value&0x40 != 0
		if value&0x80 != 0 {
			a.ch1.trigger()
		}
	case types.NR21:
		a.ch2.duty = value >> 6
		a.ch2.lengthCounter = 64 - value&0x3F
	case types.NR22:
		a.ch2.envelopeInitial = value >> 4
		a.ch2.envelopeUp = value&0x08 != 0
		a.ch2.envelopePeriod = value & 0x07
		a.ch2.dacOn = value&0xF8 != 0
		if !a.ch2.dacOn {
			a.ch2.enabled = false
		}
	case types.NR23:
		a.ch2.freq = a.ch2.freq&0x0700 | uint16(value)
	case types.NR24:
		a.ch2.freq = a.ch2.freq&0x00FF | uint16(value&0x07)<<8
		a.ch2.lengthEnable = value&0x40 != 0
		if value&0x80 != 0 {
			a.ch2.trigger()
		}
	case types.NR30:
		a.ch3.dacOn = value&0x80 != 0
		if !a.ch3.dacOn {
			a.ch3.enabled = false
		}
	case types.NR31:
		a.ch3.lengthCounter = 256 - uint16(value)
	case types.NR32:
		a.ch3.volumeShift = (value >> 5) & 0x03
	case types.NR33:
		a.ch3.freq = a.ch3.freq&0x0700 | uint16(value)
	case types.NR34:
		a.ch3.freq = a.ch3.freq&0x00FF | uint16(value&0x07)<<8
		a.ch3.lengthEnable = value&0x40 != 0
		if value&0x80 != 0 {
			a.ch3.trigger()
		}
	case types.NR41:
		a.ch4.lengthCounter = 64 - value&0x3F
	case types.NR42:
		a.ch4.envelopeInitial = value >> 4
		a.ch4.envelopeUp = value&0x08 != 0
		a.ch4.envelopePeriod = value & 0x07
		a.ch4.dacOn = value&0xF8 != 0
		if !a.ch4.dacOn {
			a.ch4.enabled = false
		}
	case types.NR43:
		a.ch4.divisorCode = value & 0x07
		a.ch4.widthMode7 = value&0x08 != 0
		a.ch4.shiftAmount = value >> 4
	case types.NR44:
		a.ch4.lengthEnable = value&0x40 != 0
		if value&0x80 != 0 {
			a.ch4.trigger()
		}
	case types.NR50:
		a.nr50 = value
	case types.NR51:
		a.nr51 = value
	case types.NR52:
		wasOn := a.enabled
		a.enabled = value&0x80 != 0
		if wasOn && !a.enabled {
			*a = APU{producer: a.producer, tap: a.tap, iOSMixer: a.iOSMixer,
				sampleTimer: a.sampleTimer, frameSeqTimer: a.frameSeqTimer}
			a.ch1.hasSweep = true
		}
	}
	if address >= types.WaveRAMStart && address <= types.WaveRAMEnd {
		a.ch3.ram[address-types.WaveRAMStart] = value
	}
}

func (a *APU) Save(s *state.State) {
	s.WriteBool(a.enabled)
	s.WriteUint8(a.nr50)
	s.WriteUint8(a.nr51)
	s.WriteUint8(a.frameSeqStep)
	s.WriteUint32(uint32(a.frameSeqTimer))
	s.WriteUint32(uint32(a.sampleTimer))
	saveChannel1(s, &a.ch1)
	saveChannel1(s, &a.ch2)
	saveChannel3(s, &a.ch3)
	saveChannel4(s, &a.ch4)
}

func (a *APU) Load(s *state.State) {
	a.enabled = s.ReadBool()
	a.nr50 = s.ReadUint8()
	a.nr51 = s.ReadUint8()
	a.frameSeqStep = s.ReadUint8()
	a.frameSeqTimer = int32(s.ReadUint32())
	a.sampleTimer = int32(s.ReadUint32())
	loadChannel1(s, &a.ch1)
	loadChannel1(s, &a.ch2)
	loadChannel3(s, &a.ch3)
	loadChannel4(s, &a.ch4)
}

func saveChannel1(s *state.State, c *pulse) {
	s.WriteBool(c.enabled)
	s.WriteBool(c.dacOn)
	s.WriteUint8(c.duty)
	s.WriteUint8(c.dutyStep)
	s.WriteUint16(c.freq)
	s.WriteUint32(uint32(c.timer))
	s.WriteUint8(c.lengthCounter)
	s.WriteBool(c.lengthEnable)
	s.WriteUint8(c.envelopeInitial)
	s.WriteBool(c.envelopeUp)
	s.WriteUint8(c.envelopePeriod)
	s.WriteUint8(c.envelopeTimer)
	s.WriteUint8(c.volume)
	s.WriteUint8(c.sweepPeriod)
	s.WriteBool(c.sweepUp)
	s.WriteUint8(c.sweepShift)
	s.WriteUint8(c.sweepTimer)
	s.WriteBool(c.sweepEnabled)
	s.WriteUint16(c.sweepShadow)
}

func loadChannel1(s *state.State, c *pulse) {
	c.enabled = s.ReadBool()
	c.dacOn = s.ReadBool()
	c.duty = s.ReadUint8()
	c.dutyStep = s.ReadUint8()
	c.freq = s.ReadUint16()
	c.timer = int32(s.ReadUint32())
	c.lengthCounter = s.ReadUint8()
	c.lengthEnable = s.ReadBool()
	c.envelopeInitial = s.ReadUint8()
	c.envelopeUp = s.ReadBool()
	c.envelopePeriod = s.ReadUint8()
	c.envelopeTimer = s.ReadUint8()
	c.volume = s.ReadUint8()
	c.sweepPeriod = s.ReadUint8()
	c.sweepUp = s.ReadBool()
	c.sweepShift = s.ReadUint8()
	c.sweepTimer = s.ReadUint8()
	c.sweepEnabled = s.ReadBool()
	c.sweepShadow = s.ReadUint16()
}

func saveChannel3(s *state.State, c *wave) {
	s.WriteBool(c.enabled)
	s.WriteBool(c.dacOn)
	s.WriteBytes(c.ram[:])
	s.WriteUint16(c.freq)
	s.WriteUint32(uint32(c.timer))
	s.WriteUint16(c.lengthCounter)
	s.WriteBool(c.lengthEnable)
	s.WriteUint8(c.volumeShift)
	s.WriteUint8(c.position)
}

func loadChannel3(s *state.State, c *wave) {
	c.enabled = s.ReadBool()
	c.dacOn = s.ReadBool()
	copy(c.ram[:], s.ReadBytes())
	c.freq = s.ReadUint16()
	c.timer = int32(s.ReadUint32())
	c.lengthCounter = s.ReadUint16()
	c.lengthEnable = s.ReadBool()
	c.volumeShift = s.ReadUint8()
	c.position = s.ReadUint8()
}

func saveChannel4(s *state.State, c *noise) {
	s.WriteBool(c.enabled)
	s.WriteBool(c.dacOn)
	s.WriteUint8(c.lengthCounter)
	s.WriteBool(c.lengthEnable)
	s.WriteUint8(c.envelopeInitial)
	s.WriteBool(c.envelopeUp)
	s.WriteUint8(c.envelopePeriod)
	s.WriteUint8(c.envelopeTimer)
	s.WriteUint8(c.volume)
	s.WriteUint8(c.shiftAmount)
	s.WriteBool(c.widthMode7)
	s.WriteUint8(c.divisorCode)
	s.WriteUint16(c.lfsr)
	s.WriteUint32(uint32(c.timer))
}

func loadChannel4(s *state.State, c *noise) {
	c.enabled = s.ReadBool()
	c.dacOn = s.ReadBool()
	c.lengthCounter = s.ReadUint8()
	c.lengthEnable = s.ReadBool()
	c.envelopeInitial = s.ReadUint8()
	c.envelopeUp = s.ReadBool()
	c.envelopePeriod = s.ReadUint8()
	c.envelopeTimer = s.ReadUint8()
	c.volume = s.ReadUint8()
	c.shiftAmount = s.ReadUint8()
	c.widthMode7 = s.ReadBool()
	c.divisorCode = s.ReadUint8()
	c.lfsr = s.ReadUint16()
	c.timer = int32(s.ReadUint32())
}
