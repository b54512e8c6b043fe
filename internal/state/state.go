// Package state provides the byte-oriented codec every stateful
// component serializes itself through, and the zstd-compressed envelope
// the host persists to disk. Every subsystem implements Stater; the
// save-state walk in gameboy.GameBoy simply calls Save/Load on each
// component in a fixed order.
package state

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// Stater is implemented by every component that participates in
// save-state serialization.
type Stater interface {
	Save(s *State)
	Load(s *State)
}

// State is an append-only write cursor or a sequential read cursor over
// a byte buffer, never both in the same instance.
type State struct {
	buf    []byte
	offset int
}

// NewState returns a State ready for writing.
func NewState() *State {
	return &State{buf: make([]byte, 0, 4096)}
}

// NewStateFromBytes returns a State ready for reading back a buffer
// previously produced by Bytes.
func NewStateFromBytes(b []byte) *State {
	return &State{buf: b}
}

// Bytes returns the accumulated buffer (valid after a sequence of
// Write* calls).
func (s *State) Bytes() []byte { return s.buf }

func (s *State) WriteUint8(v uint8) { s.buf = append(s.buf, v) }

func (s *State) WriteUint16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	s.buf = append(s.buf, b[:]...)
}

func (s *State) WriteUint32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	s.buf = append(s.buf, b[:]...)
}

func (s *State) WriteUint64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	s.buf = append(s.buf, b[:]...)
}

func (s *State) WriteBool(v bool) {
	if v {
		s.WriteUint8(1)
	} else {
		s.WriteUint8(0)
	}
}

func (s *State) WriteBytes(b []byte) {
	s.WriteUint32(uint32(len(b)))
	s.buf = append(s.buf, b...)
}

func (s *State) ReadUint8() uint8 {
	v := s.buf[s.offset]
	s.offset++
	return v
}

func (s *State) ReadUint16() uint16 {
	v := binary.LittleEndian.Uint16(s.buf[s.offset:])
	s.offset += 2
	return v
}

func (s *State) ReadUint32() uint32 {
	v := binary.LittleEndian.Uint32(s.buf[s.offset:])
	s.offset += 4
	return v
}

func (s *State) ReadUint64() uint64 {
	v := binary.LittleEndian.Uint64(s.buf[s.offset:])
	s.offset += 8
	return v
}

func (s *State) ReadBool() bool {
	return s.ReadUint8() != 0
}

func (s *State) ReadBytes() []byte {
	n := s.ReadUint32()
	b := make([]byte, n)
	copy(b, s.buf[s.offset:s.offset+int(n)])
	s.offset += int(n)
	return b
}

const (
	magic          = "GBCORE01"
	formatVersion  = uint32(1)
)

// Compress wraps a raw save-state payload in a small versioned header
// and zstd-compresses it at the spec-recommended level 9, so corrupt or
// format-incompatible state is rejected before anything tries to
// deserialize garbage into live subsystem fields.
func Compress(payload []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(9)))
	if err != nil {
		return nil, fmt.Errorf("state: create zstd encoder: %w", err)
	}
	defer enc.Close()

	var out bytes.Buffer
	out.WriteString(magic)
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], formatVersion)
	out.Write(lenBuf[:])
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	out.Write(lenBuf[:])
	out.Write(enc.EncodeAll(payload, nil))
	return out.Bytes(), nil
}

// Decompress reverses Compress, validating the envelope header before
// handing back the raw payload.
func Decompress(data []byte) ([]byte, error) {
	if len(data) < len(magic)+8 || string(data[:len(magic)]) != magic {
		return nil, fmt.Errorf("state: not a save-state (bad magic)")
	}
	off := len(magic)
	version := binary.LittleEndian.Uint32(data[off:])
	off += 4
	if version != formatVersion {
		return nil, fmt.Errorf("state: unsupported save-state version %d", version)
	}
	rawLen := binary.LittleEndian.Uint32(data[off:])
	off += 4

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("state: create zstd decoder: %w", err)
	}
	defer dec.Close()

	payload, err := dec.DecodeAll(data[off:], make([]byte, 0, rawLen))
	if err != nil {
		return nil, fmt.Errorf("state: decompress: %w", err)
	}
	if uint32(len(payload)) != rawLen {
		return nil, fmt.Errorf("state: truncated payload: want %d got %d", rawLen, len(payload))
	}
	return payload, nil
}
