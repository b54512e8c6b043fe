package cartridge

import (
	"time"

	"github.com/cespare/xxhash/v2"
)

// localDebounce / cloudDebounce are the save-flush intervals named in
// spec.md §4.7.
const (
	localDebounce = 500 * time.Millisecond
	cloudDebounce = 3 * time.Second
)

// BackupFile is the battery-backed external RAM mirror shared by every
// MBC variant that declares battery support, grounded on
// original_source's backup_file.rs.
type BackupFile struct {
	ram       []byte
	dirty     bool
	lastWrite time.Time
	lastHash  uint64
}

// NewBackupFile allocates a BackupFile of the given size (0 is valid for
// cartridges without external RAM).
func NewBackupFile(size uint) *BackupFile {
	return &BackupFile{ram: make([]byte, size), lastHash: xxhash.Sum64(nil)}
}

// Load replaces the RAM mirror wholesale (host restoring a save file).
// It does not mark the file dirty.
func (b *BackupFile) Load(data []byte) {
	n := copy(b.ram, data)
	for i := n; i < len(b.ram); i++ {
		b.ram[i] = 0
	}
	b.lastHash = xxhash.Sum64(b.ram)
	b.dirty = false
}

// Read returns the byte at offset, or 0xFF if the cartridge has no RAM.
func (b *BackupFile) Read(offset uint32) uint8 {
	if len(b.ram) == 0 || offset >= uint32(len(b.ram)) {
		return 0xFF
	}
	return b.ram[offset]
}

// Write stores a byte and arms the save-debounce timer, unless the
// write restores the byte already there and the array's content hash is
// unchanged as a result — avoiding spurious re-flushing when a game
// writes back the same value (e.g. polling RAM-enable ping-pong).
func (b *BackupFile) Write(offset uint32, value uint8) {
	if len(b.ram) == 0 || offset >= uint32(len(b.ram)) {
		return
	}
	if b.ram[offset] == value {
		return
	}
	b.ram[offset] = value
	b.lastWrite = nowFunc()
	newHash := xxhash.Sum64(b.ram)
	if newHash != b.lastHash {
		b.dirty = true
		b.lastHash = newHash
	}
}

// Bytes returns the current RAM mirror for the host to persist.
func (b *BackupFile) Bytes() []byte {
	return b.ram
}

// IsDirty reports whether unflushed writes exist.
func (b *BackupFile) IsDirty() bool {
	return b.dirty
}

// ClearDirty marks the mirror as flushed.
func (b *BackupFile) ClearDirty() {
	b.dirty = false
}

// CheckSave reports whether enough time has elapsed since the last
// write to justify the host flushing the backup file now, implementing
// the ~500ms (local) / ~3s (cloud) debounce from spec.md §4.7.
func (b *BackupFile) CheckSave(isCloud bool) bool {
	if !b.dirty {
		return false
	}
	debounce := localDebounce
	if isCloud {
		debounce = cloudDebounce
	}
	return nowFunc().Sub(b.lastWrite) >= debounce
}

// nowFunc is a seam for tests; production code always uses time.Now.
var nowFunc = time.Now
