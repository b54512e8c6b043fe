// Package cpu implements the Sharp LR35902 instruction set: the
// register file, the opcode/CB-prefixed dispatch tables, interrupt
// servicing, and the HALT/STOP/EI-delay state machine, per spec.md §4.1.
package cpu

import (
	"github.com/oakmoss/gbcore/internal/interrupts"
	"github.com/oakmoss/gbcore/internal/mmu"
	"github.com/oakmoss/gbcore/internal/state"
	"github.com/oakmoss/gbcore/internal/types"
)

type runMode uint8

const (
	modeRunning runMode = iota
	modeHalted
	modeHaltBug // HALT requested with IME off and a pending interrupt: next fetch doesn't advance PC
	modeStopped
)

// CPU is the Sharp LR35902 core.
type CPU struct {
	Registers
	PC, SP uint16

	mode runMode

	bus *mmu.MMU
	irq *interrupts.Service

	cycles uint32 // T-cycles consumed by the instruction in flight
}

// New returns a CPU with its post-boot register state initialized for
// the given model, per spec.md §4.1's boot-state table.
func New(model types.Model, bus *mmu.MMU, irq *interrupts.Service) *CPU {
	c := &CPU{bus: bus, irq: irq}
	c.reset(model)
	return c
}

func (c *CPU) reset(model types.Model) {
	c.PC = 0x0100
	c.SP = 0xFFFE
	c.mode = modeRunning
	if model == types.CGB {
		c.SetAF(0x1180)
		c.SetBC(0x0000)
		c.SetDE(0xFF56)
		c.SetHL(0x000D)
	} else {
		c.SetAF(0x01B0)
		c.SetBC(0x0013)
		c.SetDE(0x00D8)
		c.SetHL(0x014D)
	}
}

func (c *CPU) tick(cycles uint8) {
	c.cycles += uint32(cycles)
	c.bus.Tick(cycles)
}

func (c *CPU) read(address uint16) uint8 {
	v := c.bus.Read(address)
	c.tick(4)
	return v
}

func (c *CPU) write(address uint16, value uint8) {
	c.bus.Write(address, value)
	c.tick(4)
}

func (c *CPU) fetch() uint8 {
	v := c.read(c.PC)
	c.PC++
	return v
}

func (c *CPU) fetch16() uint16 {
	lo := c.fetch()
	hi := c.fetch()
	return uint16(hi)<<8 | uint16(lo)
}

func (c *CPU) push(v uint16) {
	c.SP--
	c.write(c.SP, uint8(v>>8))
	c.SP--
	c.write(c.SP, uint8(v))
}

func (c *CPU) pop() uint16 {
	lo := c.read(c.SP)
	c.SP++
	hi := c.read(c.SP)
	c.SP++
	return uint16(hi)<<8 | uint16(lo)
}

// Step executes exactly one instruction (or dispatches one interrupt,
// or spends one idle cycle while halted/stopped) and returns the number
// of T-cycles it consumed.
// Interrupts are serviced first, before fetch, matching hardware order.
func (c *CPU) Step() uint32 {
	c.cycles = 0

	serviced := c.serviceInterrupt()
	if serviced {
		return c.cycles
	}

	switch c.mode {
	case modeHalted:
		c.tick(4)
		if c.irq.Pending() {
			c.mode = modeRunning
		}
		return c.cycles
	case modeStopped:
		c.tick(4)
		return c.cycles
	case modeHaltBug:
		op := c.fetch()
		c.PC-- // the byte after HALT is re-read as the next opcode's first byte
		c.mode = modeRunning
		c.execute(op)
		return c.cycles
	}

	op := c.fetch()
	c.execute(op)

	// An EI takes effect after the instruction following it, so the
	// delay is ticked down once per completed instruction.
	c.irq.TickEI()

	return c.cycles
}

// serviceInterrupt checks and dispatches a pending interrupt if the
// IME is set, pushing PC and jumping to the vector. It consumes the 20
// cycles real hardware spends on interrupt dispatch.
func (c *CPU) serviceInterrupt() bool {
	if !c.irq.IME || !c.irq.Pending() {
		return false
	}
	flag, ok := c.irq.Lowest()
	if !ok {
		return false
	}
	c.irq.IME = false
	c.irq.Clear(flag)
	if c.mode == modeHalted {
		c.mode = modeRunning
	}

	c.tick(8)
	c.push(c.PC) // two writes, 8 T-cycles
	c.PC = interrupts.Vector(flag)
	c.tick(4)
	return true
}

func (c *CPU) halt() {
	if c.irq.IME {
		c.mode = modeHalted
		return
	}
	if c.irq.Pending() {
		c.mode = modeHaltBug
		return
	}
	c.mode = modeHalted
}

func (c *CPU) stop() {
	if c.bus.DoubleSpeedPending() {
		c.bus.TriggerSpeedSwitch()
		return
	}
	c.mode = modeStopped
	if c.irq.Pending() {
		c.mode = modeRunning
	}
}

func (c *CPU) Save(s *state.State) {
	s.WriteUint16(c.PC)
	s.WriteUint16(c.SP)
	s.WriteUint8(c.A)
	s.WriteUint8(c.F)
	s.WriteUint8(c.B)
	s.WriteUint8(c.C)
	s.WriteUint8(c.D)
	s.WriteUint8(c.E)
	s.WriteUint8(c.H)
	s.WriteUint8(c.L)
	s.WriteUint8(uint8(c.mode))
}

func (c *CPU) Load(s *state.State) {
	c.PC = s.ReadUint16()
	c.SP = s.ReadUint16()
	c.A = s.ReadUint8()
	c.F = s.ReadUint8()
	c.B = s.ReadUint8()
	c.C = s.ReadUint8()
	c.D = s.ReadUint8()
	c.E = s.ReadUint8()
	c.H = s.ReadUint8()
	c.L = s.ReadUint8()
	c.mode = runMode(s.ReadUint8())
}
