// Package timer implements the DIV/TIMA/TMA/TAC interval timer
// described in spec.md §4.5.
package timer

import (
	"github.com/oakmoss/gbcore/internal/interrupts"
	"github.com/oakmoss/gbcore/internal/state"
)

// clockSelect maps TAC bits[1:0] to the number of CPU cycles per TIMA
// increment.
var clockSelect = [4]uint16{1024, 16, 64, 256}

// Controller is the Game Boy's interval timer.
type Controller struct {
	Div  uint16 // free-running counter; only the high byte is externally visible
	TIMA uint8
	TMA  uint8
	TAC  uint8

	irq *interrupts.Service
}

// New returns a Controller wired to the shared interrupt service.
func New(irq *interrupts.Service) *Controller {
	return &Controller{irq: irq}
}

// Tick advances the timer by cycles T-states (always full speed,
// irrespective of CGB double-speed mode — per spec.md §4.2, only PPU and
// APU are scaled).
func (t *Controller) Tick(cycles uint8) {
	for i := uint8(0); i < cycles; i++ {
		t.Div++

		if t.TAC&0x04 == 0 {
			continue
		}
		rate := clockSelect[t.TAC&0x03]
		if t.Div%rate == 0 {
			t.TIMA++
			if t.TIMA == 0 {
				t.TIMA = t.TMA
				t.irq.Request(interrupts.Timer)
			}
		}
	}
}

// Read returns the value of a timer register.
func (t *Controller) Read(address uint16) uint8 {
	switch address {
	case 0xFF04:
		return uint8(t.Div >> 8)
	case 0xFF05:
		return t.TIMA
	case 0xFF06:
		return t.TMA
	case 0xFF07:
		return t.TAC | 0xF8
	}
	return 0xFF
}

// Write updates a timer register. Any write to DIV resets the whole
// 16-bit counter to zero.
func (t *Controller) Write(address uint16, value uint8) {
	switch address {
	case 0xFF04:
		t.Div = 0
	case 0xFF05:
		t.TIMA = value
	case 0xFF06:
		t.TMA = value
	case 0xFF07:
		t.TAC = value & 0x07
	}
}

func (t *Controller) Save(s *state.State) {
	s.WriteUint16(t.Div)
	s.WriteUint8(t.TIMA)
	s.WriteUint8(t.TMA)
	s.WriteUint8(t.TAC)
}

func (t *Controller) Load(s *state.State) {
	t.Div = s.ReadUint16()
	t.TIMA = s.ReadUint8()
	t.TMA = s.ReadUint8()
	t.TAC = s.ReadUint8()
}
