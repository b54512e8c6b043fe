// Package joypad models the two-select-line input matrix described in
// spec.md §4.6.
package joypad

import (
	"github.com/oakmoss/gbcore/internal/interrupts"
	"github.com/oakmoss/gbcore/internal/state"
	"github.com/oakmoss/gbcore/internal/types"
)

// Controller tracks button state and the host-selectable matrix line.
type Controller struct {
	// pressed[b] is true while the button is held down.
	pressed [8]bool

	selectDirection bool // P1 bit 4, active-low
	selectAction    bool // P1 bit 5, active-low

	irq *interrupts.Service
}

// New returns a Controller wired to the shared interrupt service.
func New(irq *interrupts.Service) *Controller {
	return &Controller{irq: irq, selectDirection: true, selectAction: true}
}

// Press marks a button down and requests the Joypad interrupt, matching
// real hardware's edge-triggered behavior on any matrix line going low.
func (c *Controller) Press(b types.Button) {
	c.pressed[b] = true
	c.irq.Request(interrupts.Joypad)
}

// Release marks a button up.
func (c *Controller) Release(b types.Button) {
	c.pressed[b] = false
}

// Read returns the P1 register: the selected matrix's four line bits
// (0 = pressed) concatenated with the two select bits.
func (c *Controller) Read() uint8 {
	v := uint8(0xC0) // bits 6-7 always read 1
	if c.selectDirection {
		v |= 0x10
	}
	if c.selectAction {
		v |= 0x20
	}

	lines := uint8(0x0F)
	if !c.selectDirection {
		lines &^= c.bit(types.ButtonRight, 0)
		lines &^= c.bit(types.ButtonLeft, 1)
		lines &^= c.bit(types.ButtonUp, 2)
		lines &^= c.bit(types.ButtonDown, 3)
	}
	if !c.selectAction {
		lines &^= c.bit(types.ButtonA, 0)
		lines &^= c.bit(types.ButtonB, 1)
		lines &^= c.bit(types.ButtonSelect, 2)
		lines &^= c.bit(types.ButtonStart, 3)
	}
	return v | lines
}

func (c *Controller) bit(b types.Button, shift uint8) uint8 {
	if c.pressed[b] {
		return 1 << shift
	}
	return 0
}

// Write updates the two select lines from bits 4-5 of P1 (active-low:
// writing 0 selects the matrix).
func (c *Controller) Write(value uint8) {
	c.selectDirection = value&0x10 != 0
	c.selectAction = value&0x20 != 0
}

func (c *Controller) Save(s *state.State) {
	for _, p := range c.pressed {
		s.WriteBool(p)
	}
	s.WriteBool(c.selectDirection)
	s.WriteBool(c.selectAction)
}

func (c *Controller) Load(s *state.State) {
	for i := range c.pressed {
		c.pressed[i] = s.ReadBool()
	}
	c.selectDirection = s.ReadBool()
	c.selectAction = s.ReadBool()
}
