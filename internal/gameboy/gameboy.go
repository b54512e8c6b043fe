// Package gameboy wires the CPU, MMU, PPU, APU, timer, joypad, and
// cartridge into the public emulation engine named in spec.md §6: load
// a ROM, step whole frames, read the framebuffer, feed input, and
// manage battery/RTC/save-state persistence.
package gameboy

import (
	"fmt"

	"github.com/oakmoss/gbcore/internal/apu"
	"github.com/oakmoss/gbcore/internal/cartridge"
	"github.com/oakmoss/gbcore/internal/cpu"
	"github.com/oakmoss/gbcore/internal/interrupts"
	"github.com/oakmoss/gbcore/internal/joypad"
	"github.com/oakmoss/gbcore/internal/mmu"
	"github.com/oakmoss/gbcore/internal/ppu"
	"github.com/oakmoss/gbcore/internal/state"
	"github.com/oakmoss/gbcore/internal/timer"
	"github.com/oakmoss/gbcore/internal/types"
	"github.com/oakmoss/gbcore/pkg/log"
)

// GameBoy is the assembled emulation core. It holds no reference to any
// host window, audio device, or filesystem path beyond the injected
// audio.Producer — see spec.md §5 for the rationale.
type GameBoy struct {
	Model types.Model

	cart *cartridge.Cartridge
	irq  *interrupts.Service
	ppu  *ppu.PPU
	apu  *apu.APU
	tmr  *timer.Controller
	jp   *joypad.Controller
	bus  *mmu.MMU
	cpu  *cpu.CPU

	cfg config
	log log.Logger
}

// New constructs a GameBoy from a ROM image, auto-detecting DMG vs CGB
// from the cartridge header's CGB flag per spec.md §4.1.
func New(rom []byte, opts ...Option) (*GameBoy, error) {
	// cartridge.New only ever returns non-fatal header warnings (a
	// malformed or unsupported ROM panics inside ParseHeader, per
	// spec.md §7) — callers that want them logged should check Header
	// validity themselves; New here propagates them to the caller.
	cart, warnings := cartridge.New(rom)

	cfg := config{producer: nullProducer{}}
	for _, opt := range opts {
		opt(&cfg)
	}

	model := types.DMG
	if cart.Header.CGBMode() {
		model = types.CGB
	}

	irq := interrupts.NewService()

	// The PPU's DMA/HDMA engines need to read the full bus, but the bus
	// (MMU) needs the PPU to exist first. Close over a not-yet-assigned
	// pointer: by the time the PPU actually invokes this callback (during
	// Tick, after construction finishes), bus is set.
	var bus *mmu.MMU
	p := ppu.New(model, irq, func(addr uint16) uint8 { return bus.BusReader()(addr) })
	a := apu.New(cfg.producer, cfg.tap, cfg.iOSMixer)
	t := timer.New(irq)
	j := joypad.New(irq)
	bus = mmu.New(model, cart, p, a, t, j, irq)
	c := cpu.New(model, bus, irq)

	return &GameBoy{
		Model: model,
		cart:  cart,
		irq:   irq,
		ppu:   p,
		apu:   a,
		tmr:   t,
		jp:    j,
		bus:   bus,
		cpu:   c,
		cfg:   cfg,
		log:   log.NewNullLogger(),
	}, warnings
}

// SetLogger overrides the default no-op logger.
func (g *GameBoy) SetLogger(l log.Logger) {
	g.log = l
}

// ReloadROM swaps the ROM image of an already-loaded cartridge without
// resetting CPU, RAM, or RTC state, per spec.md §4.1's "reload_rom"
// operation (used when a host re-reads a ROM file from disk).
func (g *GameBoy) ReloadROM(rom []byte) {
	g.cart.ReloadROM(rom)
}

// StepFrame runs the CPU until the PPU reports a completed frame and
// returns the number of CPU Step calls it made (instructions, interrupt
// dispatches and halted idle steps).
func (g *GameBoy) StepFrame() int {
	g.ppu.FrameFinished = false
	instructions := 0
	for !g.ppu.FrameFinished {
		g.cpu.Step()
		instructions++
	}
	return instructions
}

// GetScreen returns a copy of the current RGBA framebuffer.
func (g *GameBoy) GetScreen() []byte {
	out := make([]byte, len(g.ppu.Screen))
	copy(out, g.ppu.Screen[:])
	return out
}

// Press/Release feed joypad input.
func (g *GameBoy) Press(b types.Button)   { g.jp.Press(b) }
func (g *GameBoy) Release(b types.Button) { g.jp.Release(b) }

// SetPalette selects one of the ten fixed DMG color themes (spec.md
// §4.3); it has no effect in CGB mode, which always uses the
// cartridge's own palette data.
func (g *GameBoy) SetPalette(themeIndex int) {
	g.ppu.PaletteTheme = themeIndex
}

// HasBatterySave reports whether this cartridge persists RAM across
// sessions at all, independent of whether it currently has unflushed
// writes.
func (g *GameBoy) HasBatterySave() bool {
	return g.cart.Header.HasBattery
}

// SaveRAM returns the current battery-backed RAM contents and true if
// the debounce window has elapsed since the last write, or false if
// there is nothing new to flush. desktopSaveTiming widens the debounce
// the way spec.md §4.7 describes for hosts where writes are cheap but
// frequent.
func (g *GameBoy) SaveRAM() ([]byte, bool) {
	backup := g.cart.Backup()
	if backup == nil || !backup.CheckSave(g.cfg.desktopSaveTiming) {
		return nil, false
	}
	data := make([]byte, len(backup.Bytes()))
	copy(data, backup.Bytes())
	backup.ClearDirty()
	return data, true
}

// LoadRAM restores battery-backed RAM from a previously saved buffer.
func (g *GameBoy) LoadRAM(data []byte) {
	if backup := g.cart.Backup(); backup != nil {
		backup.Load(data)
	}
}

// SaveRTCJSON serializes the MBC3 real-time clock state, or nil if this
// cartridge has no RTC.
func (g *GameBoy) SaveRTCJSON() ([]byte, error) {
	rtc := g.cart.RTC()
	if rtc == nil {
		return nil, nil
	}
	json, err := rtc.SaveJSON()
	if err != nil {
		return nil, err
	}
	return []byte(json), nil
}

// LoadRTCJSON restores a previously saved RTC state.
func (g *GameBoy) LoadRTCJSON(data []byte) error {
	rtc := g.cart.RTC()
	if rtc == nil {
		return fmt.Errorf("gameboy: cartridge has no real-time clock")
	}
	return rtc.LoadJSON(data)
}

// CreateSaveState serializes the entire machine state and returns it
// zstd-compressed and framed, per spec.md §4.8.
func (g *GameBoy) CreateSaveState() ([]byte, error) {
	s := state.NewState()
	s.WriteUint8(uint8(g.Model))
	g.cpu.Save(s)
	g.bus.Save(s)
	g.ppu.Save(s)
	g.apu.Save(s)
	g.tmr.Save(s)
	g.jp.Save(s)
	g.irq.Save(s)
	g.cart.Save(s)
	return state.Compress(s.Bytes())
}

// LoadSaveState restores machine state previously produced by
// CreateSaveState. The cartridge's ROM image is left untouched — only
// banking/RTC/RAM state is restored, matching spec.md §4.8's invariant
// that save states never embed the ROM itself.
func (g *GameBoy) LoadSaveState(data []byte) error {
	payload, err := state.Decompress(data)
	if err != nil {
		return err
	}
	s := state.NewStateFromBytes(payload)
	g.Model = types.Model(s.ReadUint8())
	g.cpu.Load(s)
	g.bus.Load(s)
	g.ppu.Load(s)
	g.apu.Load(s)
	g.tmr.Load(s)
	g.jp.Load(s)
	g.irq.Load(s)
	g.cart.Load(s)
	return nil
}
