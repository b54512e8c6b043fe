// Package mmu implements the 16-bit address decoder binding the CPU to
// cartridge, VRAM/OAM, WRAM, HRAM, and the memory-mapped I/O registers
// of the timer, joypad, interrupt controller, PPU, and APU, per
// spec.md §4.2.
package mmu

import (
	"github.com/oakmoss/gbcore/internal/apu"
	"github.com/oakmoss/gbcore/internal/cartridge"
	"github.com/oakmoss/gbcore/internal/interrupts"
	"github.com/oakmoss/gbcore/internal/joypad"
	"github.com/oakmoss/gbcore/internal/ppu"
	"github.com/oakmoss/gbcore/internal/state"
	"github.com/oakmoss/gbcore/internal/timer"
	"github.com/oakmoss/gbcore/internal/types"
)

// MMU is the memory management unit.
type MMU struct {
	Model types.Model

	Cart *cartridge.Cartridge
	PPU  *ppu.PPU
	APU  *apu.APU
	Timer *timer.Controller
	Joypad *joypad.Controller
	IRQ   *interrupts.Service

	wram     [8][0x1000]byte
	wramBank uint8 // SVBK: 1-7, bank 0 always backs 0xC000-0xCFFF

	hram [0x7F]byte

	key1         uint8 // speed-switch request/status
	doubleSpeed  bool
}

// New wires an MMU over the given subsystems. Tick broadcasting and the
// PPU's BusReader callback are the caller's responsibility to wire
// before running the CPU (see gameboy.New).
func New(model types.Model, cart *cartridge.Cartridge, p *ppu.PPU, a *apu.APU, t *timer.Controller, j *joypad.Controller, irq *interrupts.Service) *MMU {
	return &MMU{
		Model:    model,
		Cart:     cart,
		PPU:      p,
		APU:      a,
		Timer:    t,
		Joypad:   j,
		IRQ:      irq,
		wramBank: 1,
	}
}

// DoubleSpeed reports whether the CGB double-speed mode is active,
// which scales PPU/APU/HDMA cycle consumption but not the timer
// (spec.md §4.2's double-speed scaling rule).
func (m *MMU) DoubleSpeed() bool {
	return m.doubleSpeed
}

// Read implements the full address decode, including OAM-DMA
// restricting access to HRAM, per spec.md §4.1's DMA invariant.
func (m *MMU) Read(address uint16) uint8 {
	if m.PPU.DMA.Active() && !(address >= 0xFF80 && address <= 0xFFFE) {
		return 0xFF
	}

	switch {
	case address < 0x8000:
		return m.Cart.Read(address)
	case address < 0xA000:
		return m.PPU.ReadVRAM(address)
	case address < 0xC000:
		return m.Cart.Read(address)
	case address < 0xD000:
		return m.wram[0][address-0xC000]
	case address < 0xE000:
		return m.wram[m.effectiveWRAMBank()][address-0xD000]
	case address < 0xFE00:
		return 0xFF // echo RAM, simplified per spec.md §4.2
	case address < 0xFEA0:
		return m.PPU.ReadOAM(address)
	case address < 0xFF00:
		return 0xFF // unusable
	case address == types.P1:
		return m.Joypad.Read()
	case address == types.SB, address == types.SC:
		return 0xFF // serial stubbed
	case address >= types.DIV && address <= types.TAC:
		return m.Timer.Read(address)
	case address == types.IF:
		return m.IRQ.Read(address)
	case address >= types.NR10 && address <= types.WaveRAMEnd:
		return m.APU.Read(address)
	case address >= types.LCDC && address <= types.WX:
		return m.PPU.Read(address)
	case address == types.KEY1:
		v := m.key1 & 0x01
		if m.doubleSpeed {
			v |= 0x80
		}
		return v | 0x7E
	case address >= types.VBK && address <= types.HDMA5:
		return m.PPU.Read(address)
	case address >= types.BCPS && address <= types.OCPD:
		return m.PPU.Read(address)
	case address == types.SVBK:
		return m.wramBank | 0xF8
	case address >= 0xFF80 && address <= 0xFFFE:
		return m.hram[address-0xFF80]
	case address == types.IE:
		return m.IRQ.Read(address)
	}
	return 0xFF
}

func (m *MMU) effectiveWRAMBank() uint8 {
	if m.Model != types.CGB || m.wramBank == 0 {
		return 1
	}
	return m.wramBank
}

func (m *MMU) Write(address uint16, value uint8) {
	if m.PPU.DMA.Active() && !(address >= 0xFF80 && address <= 0xFFFE) {
		return
	}

	switch {
	case address < 0x8000:
		m.Cart.Write(address, value)
	case address < 0xA000:
		m.PPU.WriteVRAM(address, value)
	case address < 0xC000:
		m.Cart.Write(address, value)
	case address < 0xD000:
		m.wram[0][address-0xC000] = value
	case address < 0xE000:
		m.wram[m.effectiveWRAMBank()][address-0xD000] = value
	case address < 0xFE00:
		// echo RAM, writes discarded
	case address < 0xFEA0:
		m.PPU.WriteOAM(address, value)
	case address < 0xFF00:
		// unusable
	case address == types.P1:
		m.Joypad.Write(value)
	case address == types.SB, address == types.SC:
		// serial stubbed
	case address >= types.DIV && address <= types.TAC:
		m.Timer.Write(address, value)
	case address == types.IF:
		m.IRQ.Write(address, value)
	case address >= types.NR10 && address <= types.WaveRAMEnd:
		m.APU.Write(address, value)
	case address == types.DMA:
		m.PPU.DMA.Start(value)
	case address >= types.LCDC && address <= types.WX:
		m.PPU.Write(address, value)
	case address == types.KEY1:
		m.key1 = value & 0x01
	case address >= types.VBK && address <= types.HDMA5:
		m.PPU.Write(address, value)
	case address >= types.BCPS && address <= types.OCPD:
		m.PPU.Write(address, value)
	case address == types.SVBK:
		if m.Model == types.CGB {
			m.wramBank = value & 0x07
		}
	case address >= 0xFF80 && address <= 0xFFFE:
		m.hram[address-0xFF80] = value
	case address == types.IE:
		m.IRQ.Write(address, value)
	}
}

// BusReader returns a function suitable for injection into the PPU's
// DMA/HDMA engines, reading 0x0000-0xDFFF (VRAM through bank 0; 0xFF
// above 0xDFFF) without the DMA/OAM access gate (source addresses are always outside the PPU's own VRAM
// window during an OAM DMA, and HDMA's source is explicitly exempt from
// the gate on real hardware).
func (m *MMU) BusReader() ppu.BusReader {
	return func(address uint16) uint8 {
		switch {
		case address < 0x8000:
			return m.Cart.Read(address)
		case address < 0xA000:
			return m.PPU.ReadVRAMBank(0, address)
		case address < 0xC000:
			return m.Cart.Read(address)
		case address < 0xD000:
			return m.wram[0][address-0xC000]
		case address < 0xE000:
			return m.wram[m.effectiveWRAMBank()][address-0xD000]
		}
		return 0xFF
	}
}

// DoubleSpeedPending reports whether a KEY1 speed-switch request is
// armed, which changes STOP's behavior from a low-power halt into an
// immediate speed change per spec.md §4.1.
func (m *MMU) DoubleSpeedPending() bool {
	return m.key1&0x01 != 0
}

// TriggerSpeedSwitch handles a STOP instruction executed with KEY1 bit 0
// set, toggling CGB double-speed mode per spec.md §4.1.
func (m *MMU) TriggerSpeedSwitch() {
	if m.key1&0x01 != 0 {
		m.doubleSpeed = !m.doubleSpeed
		m.key1 &^= 0x01
	}
}

// Tick broadcasts elapsed T-cycles to the timer (never scaled, so it
// runs at the CPU's rate) and to the PPU/APU/DMA/HDMA. The CPU itself runs twice as fast in CGB
// double-speed mode while the PPU/APU clocks stay fixed, so from the
// peripherals' perspective each CPU T-cycle is only worth half a tick,
// per spec.md §4.2.
func (m *MMU) Tick(cycles uint8) {
	m.Timer.Tick(cycles)

	scaled := cycles
	if m.doubleSpeed {
		scaled /= 2
	}
	m.PPU.Tick(scaled)
	m.PPU.DMA.Tick(scaled)
	m.APU.Tick(scaled)

	// A completed HDMA block (general-purpose or H-blank) steals bus
	// bandwidth from the CPU but not wall-clock time from the PPU/APU,
	// so they owe 32 extra cycles of real time per block, per spec.md
	// §4.2. Drain in uint8-sized chunks since Tick takes a uint8.
	for extra := m.PPU.TakeHDMAPendingCycles(); extra > 0; {
		chunk := extra
		if chunk > 0xFF {
			chunk = 0xFF
		}
		m.PPU.Tick(uint8(chunk))
		m.APU.Tick(uint8(chunk))
		extra -= chunk
	}
}

func (m *MMU) Save(s *state.State) {
	for i := range m.wram {
		s.WriteBytes(m.wram[i][:])
	}
	s.WriteUint8(m.wramBank)
	s.WriteBytes(m.hram[:])
	s.WriteUint8(m.key1)
	s.WriteBool(m.doubleSpeed)
}

func (m *MMU) Load(s *state.State) {
	for i := range m.wram {
		copy(m.wram[i][:], s.ReadBytes())
	}
	m.wramBank = s.ReadUint8()
	copy(m.hram[:], s.ReadBytes())
	m.key1 = s.ReadUint8()
	m.doubleSpeed = s.ReadBool()
}
