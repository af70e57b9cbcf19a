package main

import (
	"errors"
	"io"
	"log"
	"os"

	"github.com/medfieldtools/mboot"

	flag "github.com/spf13/pflag"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cfg := &mboot.Config{Log: log.New(stdout, "", 0)}
	errlog := log.New(stderr, "mboot: ", 0)
	var unpack, help bool

	fs := flag.NewFlagSet("mboot", flag.ContinueOnError)
	fs.BoolVarP(&unpack, "unpack", "u", false, "split the boot image into separate files")
	fs.StringVarP(&cfg.File, "file", "f", "boot.img", "boot image to unpack or create")
	fs.StringVarP(&cfg.Dir, "dir", "d", "./", "directory holding the separate files")
	fs.BoolVarP(&cfg.Check, "check", "c", false, "verify the ramdisk decodes after unpacking, or the segment boundaries after packing")
	fs.BoolVarP(&cfg.Verbose, "verbose", "v", false, "report an xxh64 digest per segment")
	fs.BoolVarP(&help, "help", "h", false, "show this help message and exit")
	fs.Usage = func() { usage(stderr, fs) }

	// pflag prints nothing of its own under ContinueOnError
	if err := fs.Parse(args); err != nil {
		errlog.Print(err)
		fs.Usage()
		return 1
	}
	if help {
		usage(stdout, fs)
		return 0
	}
	if fs.NArg() > 0 {
		fs.Usage()
		return 1
	}

	st, err := os.Stat(cfg.Dir)
	if err != nil {
		if pe := (*os.PathError)(nil); errors.As(err, &pe) {
			err = pe.Err
		}
		errlog.Printf("cannot access '%s': %v", cfg.Dir, err)
		return 1
	}
	if !st.IsDir() {
		errlog.Printf("cannot access '%s': Is not a directory", cfg.Dir)
		return 1
	}

	if unpack {
		err = mboot.Unpack(cfg)
	} else {
		err = mboot.Pack(cfg)
	}
	if err != nil {
		errlog.Print(err)
		return 1
	}
	return 0
}
