package mboot

import (
	"log"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
)

// Config carries one run's settings into the Unpack and Pack pipelines.
// The zero value unpacks from and packs to the current directory with the
// stock probe and no output.
type Config struct {
	// File is the boot image path.
	File string
	// Dir is the directory holding the segment artifacts.
	Dir string

	// Check verifies the run afterwards: a full decode of the carved
	// ramdisk on unpack, a boundary re-scan of the assembled image on
	// pack.
	Check bool
	// Verbose adds a digest line per emitted segment.
	Verbose bool

	// Log receives progress lines. Nil silences them.
	Log *log.Logger

	// Probe overrides the boundary heuristic. Nil selects AlnumProbe.
	Probe Probe
}

func (cfg *Config) logf(format string, v ...any) {
	if cfg.Log != nil {
		cfg.Log.Printf(format, v...)
	}
}

func (cfg *Config) probeFunc() Probe {
	if cfg.Probe != nil {
		return cfg.Probe
	}
	return AlnumProbe
}

func (cfg *Config) path(name string) string {
	return filepath.Join(cfg.Dir, name)
}

// digest logs the xxh64 of one emitted segment when verbose.
func (cfg *Config) digest(name string, data []byte) {
	if cfg.Verbose {
		cfg.logf("%s xxh64 %016x", name, xxhash.Sum64(data))
	}
}
