package main

import (
	"fmt"
	"io"

	"github.com/mitchellh/go-wordwrap"

	flag "github.com/spf13/pflag"
)

const usageWidth = 72

const description = "Unpack an Intel boot image into separate files, OR, " +
	"pack a directory with kernel/ramdisk/bootstub into an Intel boot image."

func usage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintln(w, "Usage: mboot [-u] [-c] [-v] [-f FILE] [-d DIR]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, wordwrap.WrapString(description, usageWidth))
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Options:")
	fmt.Fprint(w, fs.FlagUsages())
}
