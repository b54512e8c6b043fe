package ppu

import "github.com/oakmoss/gbcore/internal/state"

// oamDMACycles is the number of T-cycles a full 160-byte OAM DMA takes
// on real hardware: 160 bytes at 4 cycles/byte.
const oamDMACycles = 640

// DMA implements the classic OAM DMA transfer triggered by a write to
// 0xFF46: 160 bytes are copied from source*0x100 into OAM over 640
// cycles, during which the CPU may only access HRAM.
type DMA struct {
	ppu *PPU
	bus BusReader

	active  bool
	source  uint8
	cycle   uint16
}

func newDMA(p *PPU, bus BusReader) *DMA {
	return &DMA{ppu: p, bus: bus}
}

// Start begins a transfer from source<<8. Restarting mid-transfer is
// legal on hardware and simply rebases the source/cycle counter.
func (d *DMA) Start(source uint8) {
	d.source = source
	d.active = true
	d.cycle = 0
}

// Active reports whether a transfer is in flight, which the bus uses to
// restrict CPU memory access to HRAM only.
func (d *DMA) Active() bool {
	return d.active
}

// Tick advances the transfer by the given number of cycles, copying one
// byte every 4 cycles.
func (d *DMA) Tick(cycles uint8) {
	if !d.active {
		return
	}
	for i := uint8(0); i < cycles; i++ {
		if d.cycle%4 == 0 {
			offset := d.cycle / 4
			if offset < 0xA0 {
				addr := uint16(d.source)<<8 + offset
				d.ppu.WriteOAMDirect(offset, d.bus(addr))
			}
		}
		d.cycle++
		if d.cycle >= oamDMACycles {
			d.active = false
			return
		}
	}
}

func (d *DMA) Save(s *state.State) {
	s.WriteBool(d.active)
	s.WriteUint8(d.source)
	s.WriteUint16(d.cycle)
}

func (d *DMA) Load(s *state.State) {
	d.active = s.ReadBool()
	d.source = s.ReadUint8()
	d.cycle = s.ReadUint16()
}
