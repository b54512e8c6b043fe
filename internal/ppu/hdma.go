package ppu

import "github.com/oakmoss/gbcore/internal/state"

type hdmaMode uint8

const (
	hdmaModeGeneral hdmaMode = iota
	hdmaModeHBlank
)

// HDMA implements the CGB general-purpose and H-blank VRAM DMA engines
// triggered by writes to HDMA1-5 (0xFF51-0xFF55).
type HDMA struct {
	ppu *PPU
	bus BusReader

	src, dst uint16

	armed         bool
	mode          hdmaMode
	hblankPending bool
	blocksLeft    uint8 // remaining 16-byte blocks, 0 means 1 block (length field is blocks-1)

	pendingCycles uint16 // peripheral cycles owed for blocks transferred since the last drain
}

func newHDMA(p *PPU, bus BusReader) *HDMA {
	return &HDMA{ppu: p, bus: bus}
}

// ReadHDMA5 reports remaining-blocks-1 in bits 0-6 with bit 7 clear while
// a transfer is still armed for H-blank mode, and 0xFF once a transfer
// has completed or never started (spec.md §4.3's HDMA status encoding).
func (h *HDMA) ReadHDMA5() uint8 {
	if !h.armed {
		return 0xFF
	}
	return h.blocksLeft & 0x7F
}

// WriteHDMA5 starts a transfer, or — if an H-blank transfer is already
// armed and bit 7 of the new value is clear — cancels it.
func (h *HDMA) WriteHDMA5(value uint8) {
	if h.armed && h.mode == hdmaModeHBlank && value&0x80 == 0 {
		h.armed = false
		return
	}

	h.blocksLeft = value & 0x7F
	h.src &^= 0x000F
	h.dst &^= 0x000F
	h.dst = 0x8000 | (h.dst & 0x1FFF)

	if value&0x80 == 0 {
		h.transferAllGeneral()
	} else {
		h.mode = hdmaModeHBlank
		h.armed = true
		h.hblankPending = h.ppu.mode == ModeHBlank
	}
}

func (h *HDMA) transferAllGeneral() {
	h.mode = hdmaModeGeneral
	h.armed = true
	for h.armed {
		h.transferBlock()
	}
}

// transferBlock copies one 16-byte block and advances src/dst,
// disarming once blocksLeft underflows past zero. Each block charges 32
// extra peripheral cycles per spec.md §4.2, accumulated here and drained
// by the bus on its next Tick.
func (h *HDMA) transferBlock() {
	for i := uint16(0); i < 16; i++ {
		h.ppu.WriteVRAMDirect(h.dst+i, h.bus(h.src+i))
	}
	h.src += 16
	h.dst += 16
	if h.dst > 0x9FFF {
		h.dst = 0x8000 | (h.dst & 0x1FFF)
	}
	h.pendingCycles += 32
	if h.blocksLeft == 0 {
		h.armed = false
		return
	}
	h.blocksLeft--
	h.hblankPending = false
}

// TakePendingCycles returns and clears the peripheral cycles owed for
// blocks transferred since the last call.
func (h *HDMA) TakePendingCycles() uint16 {
	c := h.pendingCycles
	h.pendingCycles = 0
	return c
}

func (h *HDMA) Save(s *state.State) {
	s.WriteUint16(h.src)
	s.WriteUint16(h.dst)
	s.WriteBool(h.armed)
	s.WriteUint8(uint8(h.mode))
	s.WriteBool(h.hblankPending)
	s.WriteUint8(h.blocksLeft)
}

func (h *HDMA) Load(s *state.State) {
	h.src = s.ReadUint16()
	h.dst = s.ReadUint16()
	h.armed = s.ReadBool()
	h.mode = hdmaMode(s.ReadUint8())
	h.hblankPending = s.ReadBool()
	h.blocksLeft = s.ReadUint8()
}
