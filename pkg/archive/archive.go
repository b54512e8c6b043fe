// Package archive loads ROM and save images from disk, transparently
// decompressing the container formats ROM collections are commonly
// distributed in.
package archive

import (
	"archive/zip"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/sevenzip"
)

// Load reads filename and returns its raw, decompressed bytes. Files
// ending in .gb, .gbc, or .bin (boot ROMs) are returned as-is; .gz,
// .zip, and .7z containers are decompressed; for .zip and .7z the first
// .gb/.gbc/.sgb member is returned, or the first member if none matches.
func Load(filename string) ([]byte, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".gb", ".gbc", ".bin":
		return io.ReadAll(f)
	case ".gz":
		r, err := gzip.NewReader(f)
		if err != nil {
			return nil, err
		}
		defer r.Close()
		return io.ReadAll(r)
	case ".zip":
		return loadFromZip(f)
	case ".7z":
		return loadFromSevenZip(f)
	default:
		return io.ReadAll(f)
	}
}

func loadFromZip(f *os.File) ([]byte, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	r, err := zip.NewReader(f, info.Size())
	if err != nil {
		return nil, err
	}
	member, err := firstROMMember(zipEntries(r.File))
	if err != nil {
		return nil, err
	}
	rc, err := r.File[member].Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func zipEntries(files []*zip.File) []string {
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name
	}
	return names
}

// loadFromSevenZip extracts the first ROM-looking entry from a .7z
// archive. Game Boy ROM compilations are frequently distributed this
// way; picking the first entry whose extension looks like a ROM
// avoids grabbing a scans/ or manual.txt sibling packed in the same
// archive.
func loadFromSevenZip(f *os.File) ([]byte, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	r, err := sevenzip.NewReader(f, info.Size())
	if err != nil {
		return nil, err
	}

	names := make([]string, len(r.File))
	for i, entry := range r.File {
		names[i] = entry.Name
	}
	member, err := firstROMMember(names)
	if err != nil {
		return nil, err
	}

	rc, err := r.File[member].Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func firstROMMember(names []string) (int, error) {
	for i, name := range names {
		switch strings.ToLower(filepath.Ext(name)) {
		case ".gb", ".gbc", ".sgb":
			return i, nil
		}
	}
	if len(names) > 0 {
		return 0, nil
	}
	return 0, fmt.Errorf("archive: no members found")
}
