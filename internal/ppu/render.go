package ppu

import (
	"github.com/oakmoss/gbcore/internal/ppu/palette"
	"github.com/oakmoss/gbcore/internal/types"
)

// spriteAttr mirrors a 4-byte OAM entry. y and x are stored already
// shifted into screen space (OAM's raw y_pos-16/x_pos-8) as signed ints
// so sprites straddling the top/left edge of the screen don't wrap
// around through uint8 underflow.
type spriteAttr struct {
	y, x        int
	tile, flags uint8
	oamIndex    int
}

// renderScanline draws background, window, and sprites for the current
// LY into the Screen framebuffer, applying the DMG/CGB priority rules
// from spec.md §4.3.
func (p *PPU) renderScanline() {
	if p.ly >= ScreenHeight {
		return
	}
	for i := range p.spriteOwner {
		p.spriteOwner[i] = -1
	}

	// On DMG, LCDC bit 0 clear blanks BG/window entirely. On CGB it only
	// strips BG-over-sprite priority; BG/window still render.
	if p.lcdc&0x01 != 0 || p.Model == types.CGB {
		p.renderBackground()
	} else {
		p.clearLine()
	}

	if p.lcdc&0x20 != 0 && (p.lcdc&0x01 != 0 || p.Model == types.CGB) {
		p.renderWindow()
	}

	if p.lcdc&0x02 != 0 {
		p.renderSprites()
	}
}

func (p *PPU) clearLine() {
	base := int(p.ly) * ScreenWidth * 4
	for x := 0; x < ScreenWidth; x++ {
		off := base + x*4
		p.Screen[off], p.Screen[off+1], p.Screen[off+2], p.Screen[off+3] = 0xFF, 0xFF, 0xFF, 0xFF
		p.bgColorIndex[x] = 0
	}
}

func (p *PPU) bgTileMapBase() uint16 {
	if p.lcdc&0x08 != 0 {
		return 0x9C00
	}
	return 0x9800
}

func (p *PPU) winTileMapBase() uint16 {
	if p.lcdc&0x40 != 0 {
		return 0x9C00
	}
	return 0x9800
}

func (p *PPU) tileDataAddr(tileIndex uint8) uint16 {
	if p.lcdc&0x10 != 0 {
		return 0x8000 + uint16(tileIndex)*16
	}
	return uint16(0x9000 + int16(int8(tileIndex))*16)
}

type tileAttrs struct {
	palette  uint8
	bank     uint8
	xFlip    bool
	yFlip    bool
	priority bool
}

func (p *PPU) readTileAttrs(mapAddr uint16) tileAttrs {
	if p.Model != types.CGB {
		return tileAttrs{}
	}
	raw := p.ReadVRAMBank(1, mapAddr)
	return tileAttrs{
		palette:  raw & 0x07,
		bank:     (raw >> 3) & 0x01,
		xFlip:    raw&0x20 != 0,
		yFlip:    raw&0x40 != 0,
		priority: raw&0x80 != 0,
	}
}

func (p *PPU) renderBackground() {
	y := uint8(int(p.ly) + int(p.scy))
	tileRow := y / 8
	fineY := y % 8
	mapBase := p.bgTileMapBase()

	base := int(p.ly) * ScreenWidth * 4
	for screenX := 0; screenX < ScreenWidth; screenX++ {
		x := uint8(screenX) + p.scx
		tileCol := x / 8
		fineX := x % 8

		mapAddr := mapBase + uint16(tileRow)*32 + uint16(tileCol)
		tileIndex := p.ReadVRAMBank(0, mapAddr)
		attrs := p.readTileAttrs(mapAddr)

		rowInTile := fineY
		if attrs.yFlip {
			rowInTile = 7 - rowInTile
		}
		colInTile := fineX
		if attrs.xFlip {
			colInTile = 7 - colInTile
		}

		colorID := p.readTilePixel(attrs.bank, tileIndex, rowInTile, colInTile)
		p.bgColorIndex[screenX] = colorID

		var rgb palette.RGB
		if p.Model == types.CGB {
			rgb = p.bgPalette.Color(attrs.palette, colorID)
		} else {
			shade := (p.bgp >> (colorID * 2)) & 0x03
			rgb = palette.Color(p.PaletteTheme, shade)
		}
		off := base + screenX*4
		p.Screen[off], p.Screen[off+1], p.Screen[off+2], p.Screen[off+3] = rgb.R, rgb.G, rgb.B, 0xFF
		p.bgPriorityAt(screenX, attrs.priority)
	}
}

// bgPriorityAt records the CGB BG-to-OAM priority bit for a pixel so
// sprite compositing can honor it during renderSprites.
func (p *PPU) bgPriorityAt(x int, priority bool) {
	if priority {
		p.winColorIndex[x] |= 0x80 // reuse high bit as a priority flag scratch
	} else {
		p.winColorIndex[x] &^= 0x80
	}
}

func (p *PPU) renderWindow() {
	if p.wy > p.ly {
		return
	}
	wx := int(p.wx) - 7
	if wx >= ScreenWidth {
		return
	}

	mapBase := p.winTileMapBase()
	tileRow := p.windowLine / 8
	fineY := p.windowLine % 8
	drew := false

	base := int(p.ly) * ScreenWidth * 4
	for screenX := 0; screenX < ScreenWidth; screenX++ {
		if screenX < wx {
			continue
		}
		drew = true
		wPixelX := uint8(screenX - wx)
		tileCol := wPixelX / 8
		fineX := wPixelX % 8

		mapAddr := mapBase + uint16(tileRow)*32 + uint16(tileCol)
		tileIndex := p.ReadVRAMBank(0, mapAddr)
		attrs := p.readTileAttrs(mapAddr)

		rowInTile := fineY
		if attrs.yFlip {
			rowInTile = 7 - rowInTile
		}
		colInTile := fineX
		if attrs.xFlip {
			colInTile = 7 - colInTile
		}

		colorID := p.readTilePixel(attrs.bank, tileIndex, rowInTile, colInTile)
		p.bgColorIndex[screenX] = colorID

		var rgb palette.RGB
		if p.Model == types.CGB {
			rgb = p.bgPalette.Color(attrs.palette, colorID)
		} else {
			shade := (p.bgp >> (colorID * 2)) & 0x03
			rgb = palette.Color(p.PaletteTheme, shade)
		}
		off := base + screenX*4
		p.Screen[off], p.Screen[off+1], p.Screen[off+2], p.Screen[off+3] = rgb.R, rgb.G, rgb.B, 0xFF
		p.bgPriorityAt(screenX, attrs.priority)
	}
	if drew {
		p.windowLine++
	}
}

func (p *PPU) readTilePixel(bank, tileIndex, row, col uint8) uint8 {
	addr := p.tileDataAddr(tileIndex) + uint16(row)*2
	lo := p.ReadVRAMBank(bank, addr)
	hi := p.ReadVRAMBank(bank, addr+1)
	bit := 7 - col
	loBit := (lo >> bit) & 1
	hiBit := (hi >> bit) & 1
	return hiBit<<1 | loBit
}

// renderSprites evaluates up to 10 sprites intersecting this scanline
// (spec.md §8 property 5) and composites them honoring DMG x-coordinate
// priority (lower X wins; OAM index breaks ties) and CGB OAM-index-only
// priority (spec.md §8 property 6 / invariant 6).
func (p *PPU) renderSprites() {
	tall := p.lcdc&0x04 != 0
	height := uint8(8)
	if tall {
		height = 16
	}

	var candidates []spriteAttr
	for i := 0; i < 40 && len(candidates) < 10; i++ {
		base := i * 4
		y := int(p.OAM[base]) - 16
		if int(p.ly) < y || int(p.ly) >= y+int(height) {
			continue
		}
		candidates = append(candidates, spriteAttr{
			y:        y,
			x:        int(p.OAM[base+1]) - 8,
			tile:     p.OAM[base+2],
			flags:    p.OAM[base+3],
			oamIndex: i,
		})
	}

	// Sort highest priority first; the compositing loop below draws
	// first-come, skipping any pixel a higher-priority sprite already
	// claimed, so the winner must appear earliest in candidates.
	if p.Model != types.CGB {
		// DMG: lower X coordinate wins; ties broken by lower OAM index.
		for i := 0; i < len(candidates); i++ {
			for j := i + 1; j < len(candidates); j++ {
				if candidates[j].x < candidates[i].x ||
					(candidates[j].x == candidates[i].x && candidates[j].oamIndex < candidates[i].oamIndex) {
					candidates[i], candidates[j] = candidates[j], candidates[i]
				}
			}
		}
	} else {
		// CGB: pure OAM-index priority, lowest index wins.
		for i := 0; i < len(candidates); i++ {
			for j := i + 1; j < len(candidates); j++ {
				if candidates[j].oamIndex < candidates[i].oamIndex {
					candidates[i], candidates[j] = candidates[j], candidates[i]
				}
			}
		}
	}

	base := int(p.ly) * ScreenWidth * 4
	for _, sp := range candidates {
		yFlip := sp.flags&0x40 != 0
		xFlip := sp.flags&0x20 != 0
		behindBG := sp.flags&0x80 != 0
		dmgPalette := (sp.flags >> 4) & 0x01
		cgbPalette := sp.flags & 0x07
		cgbBank := (sp.flags >> 3) & 0x01

		row := int(p.ly) - sp.y
		if yFlip {
			row = int(height) - 1 - row
		}
		tile := sp.tile
		if tall {
			tile &^= 0x01
			if row >= 8 {
				tile |= 0x01
				row -= 8
			}
		}

		for col := uint8(0); col < 8; col++ {
			screenX := sp.x + int(col)
			if screenX < 0 || screenX >= ScreenWidth {
				continue
			}
			srcCol := col
			if xFlip {
				srcCol = 7 - col
			}
			colorID := p.readTilePixel(cgbBank, tile, uint8(row), srcCol)
			if colorID == 0 {
				continue
			}

			bgColorID := p.bgColorIndex[screenX]
			bgHasPriority := p.winColorIndex[screenX]&0x80 != 0
			if p.Model == types.CGB && p.lcdc&0x01 != 0 && bgHasPriority && bgColorID != 0 {
				continue
			}
			if behindBG && bgColorID != 0 {
				continue
			}
			if owner := p.spriteOwner[screenX]; owner != -1 {
				// Already drawn by a higher-priority sprite this pass.
				continue
			}

			var rgb palette.RGB
			if p.Model == types.CGB {
				rgb = p.objPalette.Color(cgbPalette, colorID)
			} else {
				reg := p.obp0
				if dmgPalette == 1 {
					reg = p.obp1
				}
				shade := (reg >> (colorID * 2)) & 0x03
				rgb = palette.Color(p.PaletteTheme, shade)
			}
			off := base + screenX*4
			p.Screen[off], p.Screen[off+1], p.Screen[off+2], p.Screen[off+3] = rgb.R, rgb.G, rgb.B, 0xFF
			p.spriteOwner[screenX] = int16(sp.oamIndex)
		}
	}
}
