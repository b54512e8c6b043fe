package cartridge

import "github.com/oakmoss/gbcore/internal/state"

// MBC5 implements spec.md §4.7's MBC5 banking: a 9-bit ROM bank (banks
// split across two registers) and a 4-bit RAM bank. Unlike MBC1/MBC3,
// bank 0 is a legal and distinct ROM bank selection (invariant 8).
type MBC5 struct {
	rom    []byte
	backup *BackupFile

	ramEnabled bool
	romBankLow uint8 // 0x2000-0x2FFF: low 8 bits
	romBankHi  uint8 // 0x3000-0x3FFF: bit 8
	ramBank    uint8 // 4 bits
}

func NewMBC5(rom []byte, h *Header) *MBC5 {
	return &MBC5{rom: rom, backup: NewBackupFile(h.RAMSize), romBankLow: 1}
}

func (m *MBC5) romBank() uint32 {
	return uint32(m.romBankHi)<<8 | uint32(m.romBankLow)
}

func (m *MBC5) Read(address uint16) uint8 {
	switch {
	case address < 0x4000:
		return m.romAt(uint32(address))
	case address < 0x8000:
		return m.romAt(m.romBank()*0x4000 + uint32(address-0x4000))
	case address >= 0xA000 && address < 0xC000:
		if !m.ramEnabled {
			return 0xFF
		}
		return m.backup.Read(uint32(m.ramBank)*0x2000 + uint32(address-0xA000))
	}
	return 0xFF
}

func (m *MBC5) romAt(idx uint32) uint8 {
	if int(idx) < len(m.rom) {
		return m.rom[idx]
	}
	return 0xFF
}

func (m *MBC5) Write(address uint16, value uint8) {
	switch {
	case address < 0x2000:
		m.ramEnabled = value&0x0F == 0x0A
	case address < 0x3000:
		m.romBankLow = value
	case address < 0x4000:
		m.romBankHi = value & 0x01
	case address < 0x6000:
		m.ramBank = value & 0x0F
	case address >= 0xA000 && address < 0xC000:
		if m.ramEnabled {
			m.backup.Write(uint32(m.ramBank)*0x2000+uint32(address-0xA000), value)
		}
	}
}

func (m *MBC5) Save(s *state.State) {
	s.WriteBool(m.ramEnabled)
	s.WriteUint8(m.romBankLow)
	s.WriteUint8(m.romBankHi)
	s.WriteUint8(m.ramBank)
	s.WriteBytes(m.backup.Bytes())
}

func (m *MBC5) Load(s *state.State) {
	m.ramEnabled = s.ReadBool()
	m.romBankLow = s.ReadUint8()
	m.romBankHi = s.ReadUint8()
	m.ramBank = s.ReadUint8()
	m.backup.Load(s.ReadBytes())
}
