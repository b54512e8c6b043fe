package cartridge

import "github.com/oakmoss/gbcore/internal/state"

// MBC3 implements spec.md §4.7's MBC3 banking plus the optional
// real-time clock.
type MBC3 struct {
	rom    []byte
	backup *BackupFile
	rtc    *RTC
	hasRTC bool

	timerRAMEnable bool
	romBank        uint8 // 7-bit, 0 treated as 1
	ramBank        uint8 // 0x00-0x03 RAM bank, 0x08-0x0C RTC register select
}

func NewMBC3(rom []byte, h *Header) *MBC3 {
	m := &MBC3{
		rom:     rom,
		backup:  NewBackupFile(h.RAMSize),
		romBank: 1,
		hasRTC:  h.HasRTC,
	}
	if h.HasRTC {
		m.rtc = NewRTC()
	}
	return m
}

func (m *MBC3) Read(address uint16) uint8 {
	switch {
	case address < 0x4000:
		return m.romAt(uint32(address))
	case address < 0x8000:
		return m.romAt(uint32(m.romBank)*0x4000 + uint32(address-0x4000))
	case address >= 0xA000 && address < 0xC000:
		if !m.timerRAMEnable {
			return 0xFF
		}
		if m.ramBank >= 0x08 {
			if m.hasRTC {
				return m.rtc.Read(m.ramBank)
			}
			return 0xFF
		}
		return m.backup.Read(uint32(m.ramBank)*0x2000 + uint32(address-0xA000))
	}
	return 0xFF
}

func (m *MBC3) romAt(idx uint32) uint8 {
	if int(idx) < len(m.rom) {
		return m.rom[idx]
	}
	return 0xFF
}

func (m *MBC3) Write(address uint16, value uint8) {
	switch {
	case address < 0x2000:
		m.timerRAMEnable = value&0x0F == 0x0A
	case address < 0x4000:
		bank := value & 0x7F
		if bank == 0 {
			bank = 1
		}
		m.romBank = bank
	case address < 0x6000:
		m.ramBank = value
	case address < 0x8000:
		if m.hasRTC {
			m.rtc.Latch(value)
		}
	case address >= 0xA000 && address < 0xC000:
		if !m.timerRAMEnable {
			return
		}
		if m.ramBank >= 0x08 {
			if m.hasRTC {
				m.rtc.Write(m.ramBank, value)
			}
			return
		}
		m.backup.Write(uint32(m.ramBank)*0x2000+uint32(address-0xA000), value)
	}
}

func (m *MBC3) Save(s *state.State) {
	s.WriteBool(m.timerRAMEnable)
	s.WriteUint8(m.romBank)
	s.WriteUint8(m.ramBank)
	s.WriteBytes(m.backup.Bytes())
	s.WriteBool(m.hasRTC)
	if m.hasRTC {
		json, _ := m.rtc.SaveJSON()
		s.WriteBytes([]byte(json))
	}
}

func (m *MBC3) Load(s *state.State) {
	m.timerRAMEnable = s.ReadBool()
	m.romBank = s.ReadUint8()
	m.ramBank = s.ReadUint8()
	m.backup.Load(s.ReadBytes())
	m.hasRTC = s.ReadBool()
	if m.hasRTC {
		if m.rtc == nil {
			m.rtc = NewRTC()
		}
		_ = m.rtc.LoadJSON(s.ReadBytes())
	}
}
