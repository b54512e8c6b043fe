package cartridge

import (
	"encoding/json"
	"time"
)

// RTC models the MBC3 real-time clock described in spec.md §3 and §4.7,
// grounded on original_source's mbc3.rs ClockRegister/RtcFile.
//
// The wall clock is read
// only on the latch's 0→1 edge and on a halt/unhalt transition — the
// tick loop itself never touches time.Now, keeping emulation
// deterministic and testable.
type RTC struct {
	reference time.Time // instant the clock's elapsed time is measured from

	latched    bool
	latchValue uint8 // last byte written to the latch register, for edge detection

	s, m, h, dl, dh uint8 // latched snapshot

	halted         bool
	haltedElapsed  time.Duration
	carry          bool
	wrappedDays    uint16
	numWraps       uint32
}

// NewRTC returns an RTC referenced from now.
func NewRTC() *RTC {
	return &RTC{reference: time.Now()}
}

// rtcFile is the JSON structure named in spec.md §6.
type rtcFile struct {
	Timestamp int64 `json:"timestamp"`
	Halted    bool  `json:"halted"`
	CarryBit  bool  `json:"carry_bit"`
	NumWraps  uint32 `json:"num_wraps"`
}

// LoadJSON restores RTC state from the host-provided JSON document.
func (r *RTC) LoadJSON(data []byte) error {
	var f rtcFile
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	r.reference = time.Unix(f.Timestamp, 0)
	r.halted = f.Halted
	r.carry = f.CarryBit
	r.numWraps = f.NumWraps
	r.haltedElapsed = 0
	return nil
}

// SaveJSON serializes RTC state to the spec.md §6 JSON format.
func (r *RTC) SaveJSON() (string, error) {
	f := rtcFile{
		Timestamp: r.reference.Unix(),
		Halted:    r.halted,
		CarryBit:  r.carry,
		NumWraps:  r.numWraps,
	}
	b, err := json.Marshal(f)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// elapsed returns the clock's current running duration: wall-clock
// delta from the reference instant if running, or the duration frozen
// at the moment it was halted.
func (r *RTC) elapsed() time.Duration {
	if r.halted {
		return r.haltedElapsed
	}
	d := time.Since(r.reference)
	if d < 0 {
		d = 0
	}
	return d
}

// updateLatch recomputes S/M/H/DL/DH from the current elapsed duration.
// Called only on the 0→1 latch edge, matching real hardware.
func (r *RTC) updateLatch() {
	d := r.elapsed()
	totalSeconds := int64(d.Seconds())

	seconds := totalSeconds % 60
	minutes := (totalSeconds / 60) % 60
	hours := (totalSeconds / 3600) % 24
	days := totalSeconds / 3600 / 24

	wrapped := uint16(days & 0x1FF)
	if wrapped < r.wrappedDays {
		r.carry = true
		r.numWraps++
	}
	r.wrappedDays = wrapped

	r.s = uint8(seconds)
	r.m = uint8(minutes)
	r.h = uint8(hours)
	r.dl = uint8(wrapped & 0xFF)
	r.dh = uint8((wrapped>>8)&0x01)
	if r.halted {
		r.dh |= 0x40
	}
	if r.carry {
		r.dh |= 0x80
	}
}

// Latch handles a write to the 0x6000-0x7FFF latch-trigger address: a
// 0 then 1 edge snapshots the live clock.
func (r *RTC) Latch(value uint8) {
	if r.latchValue == 0x00 && value == 0x01 {
		r.updateLatch()
	}
	r.latchValue = value
}

// Read returns the latched register selected by sel (0x08-0x0C).
func (r *RTC) Read(sel uint8) uint8 {
	switch sel {
	case 0x08:
		return r.s
	case 0x09:
		return r.m
	case 0x0A:
		return r.h
	case 0x0B:
		return r.dl
	case 0x0C:
		return r.dh
	}
	panic("cartridge: invalid RTC register select")
}

// Write updates the latched register selected by sel, handling the
// halt/unhalt edge on DH per spec.md §4.7: halting snapshots the
// elapsed duration so it freezes; unhalting rebases the reference
// instant so time continues from where it was held.
func (r *RTC) Write(sel uint8, value uint8) {
	switch sel {
	case 0x08:
		r.s = value
	case 0x09:
		r.m = value
	case 0x0A:
		r.h = value
	case 0x0B:
		r.dl = value
	case 0x0C:
		wasHalted := r.halted
		r.carry = value&0x80 != 0
		r.halted = value&0x40 != 0
		r.dh = value

		if !wasHalted && r.halted {
			r.haltedElapsed = time.Since(r.reference)
			if r.haltedElapsed < 0 {
				r.haltedElapsed = 0
			}
		} else if wasHalted && !r.halted {
			r.reference = time.Now().Add(-r.haltedElapsed)
		}
	default:
		panic("cartridge: invalid RTC register select")
	}
}
