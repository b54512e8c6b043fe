// Package interrupts models the packed 5-bit interrupt request (IF) and
// enable (IE) registers, and the CPU's master interrupt-enable flip-flop.
package interrupts

import "github.com/oakmoss/gbcore/internal/state"

// Flag identifies one of the five interrupt sources, and doubles as the
// bit index it occupies in IF/IE.
type Flag uint8

const (
	VBlank Flag = iota
	LCD
	Timer
	Serial
	Joypad
)

// Vector is the service-routine address a Flag dispatches to.
const (
	VectorVBlank uint16 = 0x0040
	VectorLCD    uint16 = 0x0048
	VectorTimer  uint16 = 0x0050
	VectorSerial uint16 = 0x0058
	VectorJoypad uint16 = 0x0060
)

var vectors = [5]uint16{VectorVBlank, VectorLCD, VectorTimer, VectorSerial, VectorJoypad}

// Service holds IF, IE and IME, and the single-instruction EI delay.
type Service struct {
	Flag   uint8
	Enable uint8
	IME    bool

	// imeDelay counts down instructions until IME actually flips on,
	// implementing EI's documented one-instruction delay.
	imeDelay uint8
}

// NewService returns a freshly reset interrupt Service.
func NewService() *Service {
	return &Service{}
}

// Request raises the IF bit for the given source.
func (s *Service) Request(f Flag) {
	s.Flag |= 1 << uint8(f)
}

// Clear lowers the IF bit for the given source.
func (s *Service) Clear(f Flag) {
	s.Flag &^= 1 << uint8(f)
}

// Pending reports whether any enabled interrupt is currently requested,
// independent of IME — this is what wakes the CPU from HALT.
func (s *Service) Pending() bool {
	return s.Flag&s.Enable&0x1F != 0
}

// Lowest returns the lowest-numbered pending-and-enabled interrupt and
// true, or false if none is pending. Interrupt priority is fixed by bit
// position: VBlank first, Joypad last.
func (s *Service) Lowest() (Flag, bool) {
	pending := s.Flag & s.Enable & 0x1F
	if pending == 0 {
		return 0, false
	}
	for i := Flag(0); i < 5; i++ {
		if pending&(1<<uint8(i)) != 0 {
			return i, true
		}
	}
	return 0, false
}

// Vector returns the service-routine address for f.
func Vector(f Flag) uint16 {
	return vectors[f]
}

// RequestEI schedules IME to turn on after the next instruction retires,
// per the documented EI delay.
func (s *Service) RequestEI() {
	s.imeDelay = 2
}

// TickEI advances the EI delay counter; call once per instruction
// boundary. Returns true the instant IME flips on.
func (s *Service) TickEI() bool {
	if s.imeDelay == 0 {
		return false
	}
	s.imeDelay--
	if s.imeDelay == 0 {
		s.IME = true
		return true
	}
	return false
}

// Read returns the value of the IF or IE register at address.
func (s *Service) Read(address uint16) uint8 {
	switch address {
	case 0xFF0F:
		return s.Flag&0x1F | 0xE0
	case 0xFFFF:
		return s.Enable
	}
	return 0xFF
}

// Write updates the IF or IE register at address.
func (s *Service) Write(address uint16, value uint8) {
	switch address {
	case 0xFF0F:
		s.Flag = value & 0x1F
	case 0xFFFF:
		s.Enable = value
	}
}

func (s *Service) Save(st *state.State) {
	st.WriteUint8(s.Flag)
	st.WriteUint8(s.Enable)
	st.WriteBool(s.IME)
	st.WriteUint8(s.imeDelay)
}

func (s *Service) Load(st *state.State) {
	s.Flag = st.ReadUint8()
	s.Enable = st.ReadUint8()
	s.IME = st.ReadBool()
	s.imeDelay = st.ReadUint8()
}
