package mboot

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// A segmentSink receives each segment in layout order as the locator
// settles its boundary, keyed by artifact file name.
type segmentSink func(name string, data []byte) error

// locator walks a boot image stream front to back, deciding segment
// boundaries as it goes. Only the kernel and ramdisk carry stored sizes;
// everything else is inferred by probing a few bytes ahead.
type locator struct {
	r     io.ReadSeeker
	probe Probe
}

// probeAt reads a window of size bytes, rewinds it, and applies the
// probe with the given threshold. A window cut short by EOF reads
// negative.
func (l *locator) probeAt(size, min int) (bool, error) {
	window := make([]byte, size)
	n, err := io.ReadFull(l.r, window)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return false, err
	}
	if _, err := l.r.Seek(int64(-n), io.SeekCurrent); err != nil {
		return false, err
	}
	if n < size {
		return false, nil
	}
	return l.probe(window, min), nil
}

// read consumes size bytes as one segment.
func (l *locator) read(size int, what string) ([]byte, error) {
	buf := make([]byte, size)
	if _, err := io.ReadFull(l.r, buf); err != nil {
		return nil, eMsg(err, "reading "+what)
	}
	return buf, nil
}

// header decides whether the image begins with a bootloader header. The
// probe reads positive when offset 0 already looks like cmdline text, in
// which case there is no header; anything else keeps the one-sector
// default.
func (l *locator) header() ([]byte, error) {
	text, err := l.probeAt(4, 1)
	if err != nil {
		return nil, eMsg(err, "probing for header")
	}
	if text {
		return nil, nil
	}
	return l.read(HeaderSize, "header")
}

// signature steps through the candidate signature sizes, probing after
// each one until the cmdline shows up. The cumulative sizes are 0, 480,
// 728 and 1024 bytes; a scan that exhausts them settles on the largest.
func (l *locator) signature() ([]byte, error) {
	var total int64
	for _, delta := range signatureDeltas {
		if _, err := l.r.Seek(delta, io.SeekCurrent); err != nil {
			return nil, eMsg(err, "seeking past signature")
		}
		total += delta

		text, err := l.probeAt(4, 1)
		if err != nil {
			return nil, eMsg(err, "probing for signature end")
		}
		if text {
			break
		}
	}
	if total == 0 {
		return nil, nil
	}

	if _, err := l.r.Seek(-total, io.SeekCurrent); err != nil {
		return nil, eMsg(err, "rewinding to signature")
	}
	return l.read(int(total), "signature")
}

// imageInfo reads the 16-byte image info: the kernel and ramdisk size
// fields, then the opaque parameter block. It leaves the stream on the
// filler that pads the cmdline block out to CmdlineBlockSize.
func (l *locator) imageInfo() (kernelSize, ramdiskSize uint32, parameter []byte, err error) {
	var fields [InfoSize - ParameterSize]byte
	if _, err = io.ReadFull(l.r, fields[:]); err != nil {
		return 0, 0, nil, eMsg(err, "reading image info")
	}
	kernelSize = binary.LittleEndian.Uint32(fields[0:4])
	ramdiskSize = binary.LittleEndian.Uint32(fields[4:8])

	parameter, err = l.read(ParameterSize, "parameter block")
	if err != nil {
		return 0, 0, nil, err
	}
	return kernelSize, ramdiskSize, parameter, nil
}

// bootstub measures the bootstub: one unit of BootstubSize bytes,
// extended to two when the bytes just past the first unit already look
// like code or data rather than padding.
func (l *locator) bootstub() ([]byte, error) {
	size := int64(BootstubSize)
	if _, err := l.r.Seek(size, io.SeekCurrent); err != nil {
		return nil, eMsg(err, "seeking past bootstub")
	}

	ext, err := l.probeAt(2, 0)
	if err != nil {
		return nil, eMsg(err, "probing for extended bootstub")
	}
	if ext {
		size += BootstubSize
	}

	if _, err := l.r.Seek(-int64(BootstubSize), io.SeekCurrent); err != nil {
		return nil, eMsg(err, "rewinding to bootstub")
	}
	return l.read(int(size), "bootstub")
}

// unpackImage runs the locator over fin, reporting each segment size on
// cfg.Log and handing finished segments to emit as their boundaries
// settle. Segments located before a failure are still emitted, so a bad
// size field leaves the earlier artifacts behind for inspection.
func (cfg *Config) unpackImage(fin io.ReadSeeker, emit segmentSink) (*Image, error) {
	l := &locator{r: fin, probe: cfg.probeFunc()}
	img := new(Image)

	var err error
	if img.Header, err = l.header(); err != nil {
		return nil, err
	}
	if err = emitSegment(emit, HeaderFile, img.Header); err != nil {
		return nil, err
	}
	cfg.logf("header size   %d", len(img.Header))

	if img.Signature, err = l.signature(); err != nil {
		return nil, err
	}
	if err = emitSegment(emit, SignatureFile, img.Signature); err != nil {
		return nil, err
	}
	cfg.logf("sig size      %d", len(img.Signature))

	if img.Cmdline, err = l.read(CmdlineSize, "cmdline"); err != nil {
		return nil, err
	}
	if err = emitSegment(emit, CmdlineFile, img.Cmdline); err != nil {
		return nil, err
	}

	kernelSize, ramdiskSize, parameter, err := l.imageInfo()
	if err != nil {
		return nil, err
	}
	img.Parameter = parameter
	if err = emitSegment(emit, ParameterFile, img.Parameter); err != nil {
		return nil, err
	}

	// skip the filler between the image info and the bootstub
	skip := int64(CmdlineBlockSize - CmdlineSize - InfoSize)
	if _, err = l.r.Seek(skip, io.SeekCurrent); err != nil {
		return nil, eMsg(err, "seeking past info filler")
	}

	if img.Bootstub, err = l.bootstub(); err != nil {
		return nil, err
	}
	if err = emitSegment(emit, BootstubFile, img.Bootstub); err != nil {
		return nil, err
	}
	cfg.logf("bootstub size %d", len(img.Bootstub))

	if kernelSize < MinKernelSize || kernelSize > MaxKernelSize {
		return nil, &SizeRangeError{
			Segment: "kernel", Size: kernelSize,
			Min: MinKernelSize, Max: MaxKernelSize,
		}
	}
	if img.Kernel, err = l.read(int(kernelSize), "kernel"); err != nil {
		return nil, err
	}
	if err = emitSegment(emit, KernelFile, img.Kernel); err != nil {
		return nil, err
	}
	cfg.logf("kernel size   %d", len(img.Kernel))

	if ramdiskSize < MinRamdiskSize || ramdiskSize > MaxRamdiskSize {
		return nil, &SizeRangeError{
			Segment: "ramdisk", Size: ramdiskSize,
			Min: MinRamdiskSize, Max: MaxRamdiskSize,
		}
	}
	if img.Ramdisk, err = l.read(int(ramdiskSize), "ramdisk"); err != nil {
		return nil, err
	}
	if err = emitSegment(emit, RamdiskFile, img.Ramdisk); err != nil {
		return nil, err
	}
	cfg.logf("ramdisk size  %d", len(img.Ramdisk))

	return img, nil
}

func emitSegment(emit segmentSink, name string, data []byte) error {
	if emit == nil || data == nil {
		return nil
	}
	return emit(name, data)
}

// UnpackImage locates every segment of the boot image in fin and returns
// the contents.
func (cfg *Config) UnpackImage(fin io.ReadSeeker) (*Image, error) {
	return cfg.unpackImage(fin, nil)
}

// UnpackImageBytes locates every segment of the boot image in data and
// returns the contents.
func (cfg *Config) UnpackImageBytes(data []byte) (*Image, error) {
	return cfg.unpackImage(bytes.NewReader(data), nil)
}

// Unpack splits the boot image at cfg.File into segment artifacts under
// cfg.Dir. With cfg.Check set it then proves the carved ramdisk still
// decodes end to end.
func Unpack(cfg *Config) error {
	fin, err := os.Open(cfg.File)
	if err != nil {
		return eMsg(err, fmt.Sprintf("cannot open input file '%s'", cfg.File))
	}
	defer fin.Close()

	img, err := cfg.unpackImage(fin, func(name string, data []byte) error {
		if err := os.WriteFile(cfg.path(name), data, 0644); err != nil {
			return eMsg(err, "writing "+name)
		}
		cfg.digest(name, data)
		return nil
	})
	if err != nil {
		return err
	}

	if cfg.Verbose {
		cfg.logf("ramdisk comp  %s", CompressionName(DetectCompression(img.Ramdisk)))
	}
	if cfg.Check {
		return cfg.checkRamdisk(img.Ramdisk)
	}
	return nil
}
