package mboot

import (
	"bytes"
	"fmt"
	"io"

	gzip "github.com/klauspost/pgzip"
)

// Ramdisk compression formats
const (
	CompGzip = iota
	CompLz4
	CompLzo
	CompXz
	CompBzip2
	CompLzma
	CompUnknown
)

// DetectCompression sniffs the compression format of a ramdisk from its
// leading magic bytes.
func DetectCompression(ramdisk []byte) int {
	if len(ramdisk) < 2 {
		return CompUnknown
	}
	switch {
	case ramdisk[0] == 0x1f && (ramdisk[1] == 0x8b || ramdisk[1] == 0x9e):
		return CompGzip
	case ramdisk[0] == 0x42 && ramdisk[1] == 0x5a:
		return CompBzip2
	case ramdisk[0] == 0x04 && ramdisk[1] == 0x22:
		return CompLz4
	case ramdisk[0] == 0x89 && ramdisk[1] == 0x4c:
		return CompLzo
	case ramdisk[0] == 0x5d && ramdisk[1] == 0x00:
		return CompLzma
	case ramdisk[0] == 0xfd && ramdisk[1] == 0x37:
		return CompXz
	default:
		return CompUnknown
	}
}

// CompressionName returns the display name of a compression format.
func CompressionName(comp int) string {
	switch comp {
	case CompGzip:
		return "gzip"
	case CompLz4:
		return "lz4"
	case CompLzo:
		return "lzo"
	case CompXz:
		return "xz"
	case CompBzip2:
		return "bzip2"
	case CompLzma:
		return "lzma"
	default:
		return "unknown"
	}
}

// checkRamdisk proves the carved ramdisk decodes as a complete gzip
// stream. A boundary that slipped by even one byte corrupts the stream,
// so a clean decode is strong evidence the split landed right. Ramdisks
// in other formats are skipped rather than failed.
func (cfg *Config) checkRamdisk(ramdisk []byte) error {
	comp := DetectCompression(ramdisk)
	if comp != CompGzip {
		cfg.logf("ramdisk check skipped (%s)", CompressionName(comp))
		return nil
	}

	zr, err := gzip.NewReader(bytes.NewReader(ramdisk))
	if err != nil {
		return eMsg(err, "checking ramdisk")
	}
	n, err := io.Copy(io.Discard, zr)
	if err != nil {
		zr.Close()
		return eMsg(err, "checking ramdisk")
	}
	if err := zr.Close(); err != nil {
		return eMsg(err, "checking ramdisk")
	}

	cfg.logf("ramdisk check ok (%d bytes uncompressed)", n)
	return nil
}

// checkLayout runs the segment locator back over an assembled image and
// confirms every boundary lands on the segment sizes it was built from.
func (cfg *Config) checkLayout(img *Image, buf []byte) error {
	silent := &Config{Probe: cfg.Probe}
	redo, err := silent.UnpackImageBytes(buf)
	if err != nil {
		return eMsg(err, "checking assembled image")
	}

	for _, seg := range []struct {
		name      string
		want, got int
	}{
		{"header", len(img.Header), len(redo.Header)},
		{"sig", len(img.Signature), len(redo.Signature)},
		{"bootstub", len(img.Bootstub), len(redo.Bootstub)},
		{"kernel", len(img.Kernel), len(redo.Kernel)},
		{"ramdisk", len(img.Ramdisk), len(redo.Ramdisk)},
	} {
		if seg.want != seg.got {
			return fmt.Errorf("checking assembled image: %s size drifted from %d to %d",
				seg.name, seg.want, seg.got)
		}
	}

	cfg.logf("boundary check ok")
	return nil
}
