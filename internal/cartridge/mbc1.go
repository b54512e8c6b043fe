package cartridge

import "github.com/oakmoss/gbcore/internal/state"

// MBC1 implements spec.md §4.7's MBC1 banking rules, including the
// mode-dependent reuse of the secondary 2-bit register for either the
// upper ROM-bank bits or the RAM bank (invariant 7).
type MBC1 struct {
	rom    []byte
	backup *BackupFile

	ramEnabled bool
	romBank    uint8 // 5-bit primary ROM bank register, 0 treated as 1
	bank2      uint8 // 2-bit secondary register: upper ROM bits or RAM bank
	mode       uint8 // 0 = simple (ROM-only addressing for 0x0000-0x3FFF), 1 = advanced

	largeROM bool // ROM >= 1 MiB: bank2 extends the ROM bank
	largeRAM bool // RAM >= 32 KiB: bank2 selects a RAM bank in advanced mode
}

func NewMBC1(rom []byte, h *Header) *MBC1 {
	return &MBC1{
		rom:      rom,
		backup:   NewBackupFile(h.RAMSize),
		romBank:  1,
		largeROM: h.ROMSize >= 1024*1024,
		largeRAM: h.RAMSize >= 32*1024,
	}
}

func (m *MBC1) effectiveLowBank() uint8 {
	if !m.largeROM {
		return 0
	}
	return m.bank2
}

func (m *MBC1) romBankLow() uint32 {
	// Mode 0 collapses the upper bits for the 0x0000-0x3FFF window.
	if m.mode == 0 {
		return 0
	}
	return uint32(m.effectiveLowBank()) << 5
}

func (m *MBC1) romBankHigh() uint32 {
	bank := uint32(m.romBank)
	if m.largeROM {
		bank |= uint32(m.bank2) << 5
	}
	return bank
}

func (m *MBC1) Read(address uint16) uint8 {
	switch {
	case address < 0x4000:
		idx := m.romBankLow()*0x4000 + uint32(address)
		return m.romAt(idx)
	case address < 0x8000:
		idx := m.romBankHigh()*0x4000 + uint32(address-0x4000)
		return m.romAt(idx)
	case address >= 0xA000 && address < 0xC000:
		if !m.ramEnabled {
			return 0xFF
		}
		return m.backup.Read(m.ramAddress(address))
	}
	return 0xFF
}

func (m *MBC1) romAt(idx uint32) uint8 {
	if int(idx) < len(m.rom) {
		return m.rom[idx]
	}
	return 0xFF
}

func (m *MBC1) ramAddress(address uint16) uint32 {
	bank := uint32(0)
	if m.largeRAM && m.mode == 1 {
		bank = uint32(m.bank2)
	}
	return bank*0x2000 + uint32(address-0xA000)
}

func (m *MBC1) Write(address uint16, value uint8) {
	switch {
	case address < 0x2000:
		m.ramEnabled = value&0x0F == 0x0A
	case address < 0x4000:
		bank := value & 0x1F
		if bank == 0 {
			bank = 1
		}
		m.romBank = bank
	case address < 0x6000:
		m.bank2 = value & 0x03
	case address < 0x8000:
		m.mode = value & 0x01
	case address >= 0xA000 && address < 0xC000:
		if m.ramEnabled {
			m.backup.Write(m.ramAddress(address), value)
		}
	}
}

func (m *MBC1) Save(s *state.State) {
	s.WriteBool(m.ramEnabled)
	s.WriteUint8(m.romBank)
	s.WriteUint8(m.bank2)
	s.WriteUint8(m.mode)
	s.WriteBytes(m.backup.Bytes())
}

func (m *MBC1) Load(s *state.State) {
	m.ramEnabled = s.ReadBool()
	m.romBank = s.ReadUint8()
	m.bank2 = s.ReadUint8()
	m.mode = s.ReadUint8()
	m.backup.Load(s.ReadBytes())
}
