package cpu

import "github.com/oakmoss/gbcore/internal/bits"

func (c *CPU) add(v uint8) {
	result := uint16(c.A) + uint16(v)
	c.SetFlag(FlagH, bits.HalfCarryAdd(c.A, v))
	c.SetFlag(FlagC, result > 0xFF)
	c.A = uint8(result)
	c.SetFlag(FlagZ, c.A == 0)
	c.SetFlag(FlagN, false)
}

func (c *CPU) adc(v uint8) {
	carry := uint8(0)
	if c.Flag(FlagC) {
		carry = 1
	}
	result := uint16(c.A) + uint16(v) + uint16(carry)
	halfCarry := (c.A&0x0F)+(v&0x0F)+carry > 0x0F
	c.A = uint8(result)
	c.SetFlag(FlagZ, c.A == 0)
	c.SetFlag(FlagN, false)
	c.SetFlag(FlagH, halfCarry)
	c.SetFlag(FlagC, result > 0xFF)
}

func (c *CPU) sub(v uint8) {
	c.SetFlag(FlagH, bits.HalfCarrySub(c.A, v))
	c.SetFlag(FlagC, v > c.A)
	c.A -= v
	c.SetFlag(FlagZ, c.A == 0)
	c.SetFlag(FlagN, true)
}

func (c *CPU) sbc(v uint8) {
	carry := uint8(0)
	if c.Flag(FlagC) {
		carry = 1
	}
	result := int16(c.A) - int16(v) - int16(carry)
	halfCarry := int16(c.A&0x0F)-int16(v&0x0F)-int16(carry) < 0
	c.A = uint8(result)
	c.SetFlag(FlagZ, c.A == 0)
	c.SetFlag(FlagN, true)
	c.SetFlag(FlagH, halfCarry)
	c.SetFlag(FlagC, result < 0)
}

func (c *CPU) and(v uint8) {
	c.A &= v
	c.SetFlag(FlagZ, c.A == 0)
	c.SetFlag(FlagN, false)
	c.SetFlag(FlagH, true)
	c.SetFlag(FlagC, false)
}

func (c *CPU) xor(v uint8) {
	c.A ^= v
	c.SetFlag(FlagZ, c.A == 0)
	c.F &^= FlagN | FlagH | FlagC
}

func (c *CPU) or(v uint8) {
	c.A |= v
	c.SetFlag(FlagZ, c.A == 0)
	c.F &^= FlagN | FlagH | FlagC
}

func (c *CPU) cp(v uint8) {
	c.SetFlag(FlagZ, c.A == v)
	c.SetFlag(FlagN, true)
	c.SetFlag(FlagH, bits.HalfCarrySub(c.A, v))
	c.SetFlag(FlagC, v > c.A)
}

func (c *CPU) inc8(v uint8) uint8 {
	result := v + 1
	c.SetFlag(FlagZ, result == 0)
	c.SetFlag(FlagN, false)
	c.SetFlag(FlagH, v&0x0F == 0x0F)
	return result
}

func (c *CPU) dec8(v uint8) uint8 {
	result := v - 1
	c.SetFlag(FlagZ, result == 0)
	c.SetFlag(FlagN, true)
	c.SetFlag(FlagH, v&0x0F == 0)
	return result
}

func (c *CPU) addHL(v uint16) {
	hl := c.HL()
	result := uint32(hl) + uint32(v)
	c.SetFlag(FlagN, false)
	c.SetFlag(FlagH, (hl&0x0FFF)+(v&0x0FFF) > 0x0FFF)
	c.SetFlag(FlagC, result > 0xFFFF)
	c.SetHL(uint16(result))
}

// addSPSigned implements ADD SP,r8 and LD HL,SP+r8: both add an 8-bit
// signed displacement to SP with identical (unusual) flag
// rules — H/C are computed on the low byte regardless of sign.
func (c *CPU) addSPSigned(offset int8) uint16 {
	sp := c.SP
	result := uint16(int32(sp) + int32(offset))
	c.SetFlag(FlagZ, false)
	c.SetFlag(FlagN, false)
	c.SetFlag(FlagH, (sp&0x0F)+(uint16(uint8(offset))&0x0F) > 0x0F)
	c.SetFlag(FlagC, (sp&0xFF)+(uint16(uint8(offset))&0xFF) > 0xFF)
	return result
}

func (c *CPU) daa() {
	a := c.A
	adjust := uint8(0)
	carry := false
	if c.Flag(FlagH) || (!c.Flag(FlagN) && a&0x0F > 9) {
		adjust |= 0x06
	}
	if c.Flag(FlagC) || (!c.Flag(FlagN) && a > 0x99) {
		adjust |= 0x60
		carry = true
	}
	if c.Flag(FlagN) {
		a -= adjust
	} else {
		a += adjust
	}
	c.A = a
	c.SetFlag(FlagZ, c.A == 0)
	c.SetFlag(FlagH, false)
	c.SetFlag(FlagC, carry)
}
