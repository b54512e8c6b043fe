// Package ppu implements the picture-processing unit: the OAM-scan/
// draw/H-blank/V-blank mode state machine, background/window/sprite
// rendering, STAT/LYC interrupt generation, and OAM/general-purpose
// HDMA, per spec.md §4.3.
package ppu

import (
	"github.com/oakmoss/gbcore/internal/interrupts"
	"github.com/oakmoss/gbcore/internal/ppu/palette"
	"github.com/oakmoss/gbcore/internal/state"
	"github.com/oakmoss/gbcore/internal/types"
)

// Mode is one of the four PPU scan modes.
type Mode uint8

const (
	ModeHBlank Mode = iota
	ModeVBlank
	ModeOAMScan
	ModeDraw
)

const (
	ScreenWidth  = 160
	ScreenHeight = 144

	oamScanCycles = 80
	drawCycles    = 172
	hblankCycles  = 204
	lineCycles    = oamScanCycles + drawCycles + hblankCycles // 456
	vblankLines   = 10
	totalLines    = ScreenHeight + vblankLines // 154
	cyclesPerFrame = lineCycles * totalLines    // 70224
)

// BusReader lets the PPU's DMA/HDMA engines pull bytes from the rest of
// the address space without the PPU holding a back-reference to the
// bus.
type BusReader func(address uint16) uint8

// PPU is the picture-processing unit.
type PPU struct {
	Model types.Model

	vram     [2][0x2000]byte
	vramBank uint8

	OAM [0xA0]byte

	lcdc, stat, scy, scx, ly, lyc, wy, wx uint8
	bgp, obp0, obp1                      uint8

	bgPalette  palette.CGBMemory
	objPalette palette.CGBMemory

	mode        Mode
	modeCycles  uint16
	windowLine  uint8

	// Per-scanline scratch used for sprite/BG priority, per spec.md §3.
	bgColorIndex  [ScreenWidth]uint8
	winColorIndex [ScreenWidth]uint8
	spriteOwner   [ScreenWidth]int16 // OAM index of the sprite drawn here, or -1

	Screen [ScreenWidth * ScreenHeight * 4]uint8

	PaletteTheme int // host-selected DMG theme index, 0-9

	FrameFinished bool

	irq *interrupts.Service

	DMA  *DMA
	HDMA *HDMA
}

// New returns a PPU wired to the shared interrupt service and a
// BusReader used by its DMA/HDMA engines.
func New(model types.Model, irq *interrupts.Service, bus BusReader) *PPU {
	p := &PPU{
		Model:        model,
		irq:          irq,
		mode:         ModeOAMScan,
		PaletteTheme: 0,
		lcdc:         0x91, // post-boot value: LCD on, BG on, tile data at 0x8000
	}
	for i := range p.spriteOwner {
		p.spriteOwner[i] = -1
	}
	p.DMA = newDMA(p, bus)
	p.HDMA = newHDMA(p, bus)
	return p
}

// Tick advances the PPU by cycles dots (already scaled for double-speed
// by the bus, per spec.md §4.2).
func (p *PPU) Tick(cycles uint8) {
	if p.lcdc&0x80 == 0 {
		return // LCD disabled: frozen at LY=0, mode 0
	}
	for i := uint8(0); i < cycles; i++ {
		p.tickDot()
	}
}

func (p *PPU) tickDot() {
	p.modeCycles++

	switch p.mode {
	case ModeOAMScan:
		if p.modeCycles == oamScanCycles {
			p.modeCycles = 0
			p.enterMode(ModeDraw)
		}
	case ModeDraw:
		if p.modeCycles == drawCycles {
			p.renderScanline()
			p.modeCycles = 0
			p.enterMode(ModeHBlank)
		}
	case ModeHBlank:
		if p.HDMA.armed && p.HDMA.hblankPending {
			p.HDMA.transferBlock()
		}
		if p.modeCycles == hblankCycles {
			p.modeCycles = 0
			p.ly++
			p.checkLYC()
			if p.ly == ScreenHeight {
				p.enterMode(ModeVBlank)
			} else {
				p.enterMode(ModeOAMScan)
			}
		}
	case ModeVBlank:
		if p.modeCycles == lineCycles {
			p.modeCycles = 0
			p.ly++
			if p.ly > totalLines-1 {
				p.ly = 0
				p.FrameFinished = true
				p.checkLYC()
				p.enterMode(ModeOAMScan)
			} else {
				p.checkLYC()
			}
		}
	}
}

func (p *PPU) enterMode(m Mode) {
	p.mode = m
	p.stat = p.stat&^0x03 | uint8(m)

	switch m {
	case ModeVBlank:
		p.irq.Request(interrupts.VBlank)
		if p.stat&0x10 != 0 {
			p.irq.Request(interrupts.LCD)
		}
		p.windowLine = 0
	case ModeHBlank:
		if p.stat&0x08 != 0 {
			p.irq.Request(interrupts.LCD)
		}
		p.HDMA.hblankPending = p.HDMA.armed && p.HDMA.mode == hdmaModeHBlank
	case ModeOAMScan:
		if p.stat&0x20 != 0 {
			p.irq.Request(interrupts.LCD)
		}
	}
}

func (p *PPU) checkLYC() {
	match := p.ly == p.lyc
	if match {
		p.stat |= 0x04
	} else {
		p.stat &^= 0x04
	}
	if match && p.stat&0x40 != 0 {
		p.irq.Request(interrupts.LCD)
	}
}

// ReadVRAM reads through the mode-gated bus window at 0x8000-0x9FFF:
// returns 0xFF while the PPU is mid-draw, per spec.md §4.2.
func (p *PPU) ReadVRAM(address uint16) uint8 {
	if p.mode == ModeDraw {
		return 0xFF
	}
	return p.vram[p.vramBank][address-0x8000]
}

// ReadVRAMBank reads VRAM ignoring the mode gate and bank select,
// for internal renderer use and for CGB attribute-byte lookups in bank 1.
func (p *PPU) ReadVRAMBank(bank uint8, address uint16) uint8 {
	return p.vram[bank&1][address-0x8000]
}

func (p *PPU) WriteVRAM(address uint16, value uint8) {
	if p.mode == ModeDraw {
		return
	}
	p.vram[p.vramBank][address-0x8000] = value
}

// WriteVRAMDirect bypasses the mode gate — used by HDMA/DMA transfers,
// which spec.md's invariants define independently of draw-mode access.
func (p *PPU) WriteVRAMDirect(address uint16, value uint8) {
	p.vram[p.vramBank][address-0x8000] = value
}

// TakeHDMAPendingCycles returns and clears the peripheral cycles owed
// for HDMA blocks transferred since the last call, per spec.md §4.2.
func (p *PPU) TakeHDMAPendingCycles() uint16 {
	return p.HDMA.TakePendingCycles()
}

func (p *PPU) ReadOAM(address uint16) uint8 {
	if p.mode == ModeOAMScan || p.mode == ModeDraw {
		return 0xFF
	}
	return p.OAM[address-0xFE00]
}

func (p *PPU) WriteOAM(address uint16, value uint8) {
	if p.mode == ModeOAMScan || p.mode == ModeDraw {
		return
	}
	p.OAM[address-0xFE00] = value
}

// WriteOAMDirect bypasses the mode gate, used by OAM DMA.
func (p *PPU) WriteOAMDirect(offset uint16, value uint8) {
	p.OAM[offset] = value
}

func (p *PPU) Read(address uint16) uint8 {
	switch address {
	case types.LCDC:
		return p.lcdc
	case types.STAT:
		return p.stat | 0x80
	case types.SCY:
		return p.scy
	case types.SCX:
		return p.scx
	case types.LY:
		return p.ly
	case types.LYC:
		return p.lyc
	case types.BGP:
		return p.bgp
	case types.OBP0:
		return p.obp0
	case types.OBP1:
		return p.obp1
	case types.WY:
		return p.wy
	case types.WX:
		return p.wx
	case types.VBK:
		return p.vramBank | 0xFE
	case types.BCPS:
		return p.bgPalette.GetIndex()
	case types.BCPD:
		return p.bgPalette.ReadData()
	case types.OCPS:
		return p.objPalette.GetIndex()
	case types.OCPD:
		return p.objPalette.ReadData()
	case types.HDMA5:
		return p.HDMA.ReadHDMA5()
	}
	return 0xFF
}

func (p *PPU) Write(address uint16, value uint8) {
	switch address {
	case types.LCDC:
		wasOn := p.lcdc&0x80 != 0
		p.lcdc = value
		if wasOn && value&0x80 == 0 {
			p.disableLCD()
		}
	case types.STAT:
		p.stat = p.stat&0x07 | value&0x78
	case types.SCY:
		p.scy = value
	case types.SCX:
		p.scx = value
	case types.LY:
		// read-only on hardware
	case types.LYC:
		p.lyc = value
		p.checkLYC()
	case types.BGP:
		p.bgp = value
	case types.OBP0:
		p.obp0 = value
	case types.OBP1:
		p.obp1 = value
	case types.WY:
		p.wy = value
	case types.WX:
		p.wx = value
	case types.VBK:
		if p.Model == types.CGB {
			p.vramBank = value & 0x01
		}
	case types.BCPS:
		p.bgPalette.SetIndex(value)
	case types.BCPD:
		p.bgPalette.WriteData(value)
	case types.OCPS:
		p.objPalette.SetIndex(value)
	case types.OCPD:
		p.objPalette.WriteData(value)
	case types.HDMA1:
		p.HDMA.src = p.HDMA.src&0x00FF | uint16(value)<<8
	case types.HDMA2:
		p.HDMA.src = p.HDMA.src&0xFF00 | uint16(value&0xF0)
	case types.HDMA3:
		p.HDMA.dst = p.HDMA.dst&0x00FF | uint16(value&0x1F)<<8
	case types.HDMA4:
		p.HDMA.dst = p.HDMA.dst&0xFF00 | uint16(value&0xF0)
	case types.HDMA5:
		p.HDMA.WriteHDMA5(value)
	}
}

func (p *PPU) disableLCD() {
	p.ly = 0
	p.modeCycles = 0
	p.mode = ModeHBlank
	p.stat &^= 0x03
}

func (p *PPU) Save(s *state.State) {
	s.WriteBytes(p.vram[0][:])
	s.WriteBytes(p.vram[1][:])
	s.WriteUint8(p.vramBank)
	s.WriteBytes(p.OAM[:])
	s.WriteUint8(p.lcdc)
	s.WriteUint8(p.stat)
	s.WriteUint8(p.scy)
	s.WriteUint8(p.scx)
	s.WriteUint8(p.ly)
	s.WriteUint8(p.lyc)
	s.WriteUint8(p.wy)
	s.WriteUint8(p.wx)
	s.WriteUint8(p.bgp)
	s.WriteUint8(p.obp0)
	s.WriteUint8(p.obp1)
	s.WriteBytes(p.bgPalette.Bytes())
	s.WriteBytes(p.objPalette.Bytes())
	s.WriteUint8(uint8(p.mode))
	s.WriteUint16(p.modeCycles)
	s.WriteUint8(p.windowLine)
	s.WriteBool(p.FrameFinished)
	s.WriteUint8(uint8(p.PaletteTheme))
	s.WriteBytes(p.Screen[:])
	p.DMA.Save(s)
	p.HDMA.Save(s)
}

func (p *PPU) Load(s *state.State) {
	copy(p.vram[0][:], s.ReadBytes())
	copy(p.vram[1][:], s.ReadBytes())
	p.vramBank = s.ReadUint8()
	copy(p.OAM[:], s.ReadBytes())
	p.lcdc = s.ReadUint8()
	p.stat = s.ReadUint8()
	p.scy = s.ReadUint8()
	p.scx = s.ReadUint8()
	p.ly = s.ReadUint8()
	p.lyc = s.ReadUint8()
	p.wy = s.ReadUint8()
	p.wx = s.ReadUint8()
	p.bgp = s.ReadUint8()
	p.obp0 = s.ReadUint8()
	p.obp1 = s.ReadUint8()
	p.bgPalette.LoadBytes(s.ReadBytes())
	p.objPalette.LoadBytes(s.ReadBytes())
	p.mode = Mode(s.ReadUint8())
	p.modeCycles = s.ReadUint16()
	p.windowLine = s.ReadUint8()
	p.FrameFinished = s.ReadBool()
	p.PaletteTheme = int(s.ReadUint8())
	copy(p.Screen[:], s.ReadBytes())
	p.DMA.Load(s)
	p.HDMA.Load(s)
}
