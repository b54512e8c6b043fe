package apu

var dutyTable = [4][8]uint8{
	{0, 0, 0, 0, 0, 0, 0, 1}, // 12.5%
	{1, 0, 0, 0, 0, 0, 0, 1}, // 25%
	{1, 0, 0, 0, 0, 1, 1, 1}, // 50%
	{0, 1, 1, 1, 1, 1, 1, 0}, // 75%
}

// pulse is a square-wave channel, optionally with frequency sweep
// (channel 1 only).
type pulse struct {
	hasSweep bool

	enabled bool
	dacOn   bool

	duty     uint8
	dutyStep uint8

	freq     uint16
	timer    int32

	lengthCounter uint8
	lengthEnable  bool

	envelopeInitial uint8
	envelopeUp      bool
	envelopePeriod  uint8
	envelopeTimer   uint8
	volume          uint8

	sweepPeriod  uint8
	sweepUp      bool
	sweepShift   uint8
	sweepTimer   uint8
	sweepEnabled bool
	sweepShadow  uint16
}

func (c *pulse) trigger() {
	c.enabled = true
	if c.lengthCounter == 0 {
		c.lengthCounter = 64
	}
	c.timer = int32(2048-c.freq) * 4
	c.envelopeTimer = c.envelopePeriod
	c.volume = c.envelopeInitial

	if c.hasSweep {
		c.sweepShadow = c.freq
		c.sweepTimer = c.sweepPeriod
		if c.sweepTimer == 0 {
			c.sweepTimer = 8
		}
		c.sweepEnabled = c.sweepPeriod != 0 || c.sweepShift != 0
		if c.sweepShift != 0 {
			c.sweepCalculate()
		}
	}

	if !c.dacOn {
		c.enabled = false
	}
}

func (c *pulse) sweepCalculate() uint16 {
	delta := c.sweepShadow >> c.sweepShift
	var next uint16
	if c.sweepUp {
		next = c.sweepShadow + delta
	} else {
		next = c.sweepShadow - delta
	}
	if next > 2047 {
		c.enabled = false
	}
	return next
}

func (c *pulse) tickSweep() {
	if !c.hasSweep || !c.sweepEnabled {
		return
	}
	if c.sweepTimer > 0 {
		c.sweepTimer--
	}
	if c.sweepTimer != 0 {
		return
	}
	c.sweepTimer = c.sweepPeriod
	if c.sweepTimer == 0 {
		c.sweepTimer = 8
	}
	if c.sweepPeriod == 0 {
		return
	}
	next := c.sweepCalculate()
	if next <= 2047 && c.sweepShift != 0 {
		c.sweepShadow = next
		c.freq = next
		c.sweepCalculate()
	}
}

func (c *pulse) tickLength() {
	if c.lengthEnable && c.lengthCounter > 0 {
		c.lengthCounter--
		if c.lengthCounter == 0 {
			c.enabled = false
		}
	}
}

func (c *pulse) tickEnvelope() {
	if c.envelopePeriod == 0 {
		return
	}
	if c.envelopeTimer > 0 {
		c.envelopeTimer--
	}
	if c.envelopeTimer != 0 {
		return
	}
	c.envelopeTimer = c.envelopePeriod
	if c.envelopeUp && c.volume < 15 {
		c.volume++
	} else if !c.envelopeUp && c.volume > 0 {
		c.volume--
	}
}

// step advances the channel's frequency timer by one T-cycle.
func (c *pulse) step() {
	c.timer--
	if c.timer <= 0 {
		c.timer += int32(2048-c.freq) * 4
		c.dutyStep = (c.dutyStep + 1) % 8
	}
}

// output returns the current 4-bit sample without advancing state.
func (c *pulse) output() uint8 {
	if !c.enabled || !c.dacOn {
		return 0
	}
	if dutyTable[c.duty][c.dutyStep] == 0 {
		return 0
	}
	return c.volume
}
