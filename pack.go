package mboot

import (
	"encoding/binary"
	"fmt"
	"os"
)

// requiredFiles are the artifacts every repack must find. The header and
// signature are optional; leaving them out builds a headerless or
// unsigned image.
var requiredFiles = [...]string{
	CmdlineFile,
	ParameterFile,
	BootstubFile,
	KernelFile,
	RamdiskFile,
}

// paddingSize calculates the amount of padding needed to round imgSize up
// to a whole sector.
func paddingSize(imgSize int) int {
	rem := imgSize % SectorSize
	if rem == 0 {
		return 0
	}
	return SectorSize - rem
}

// validate rejects segment combinations the layout cannot express.
func (img *Image) validate() error {
	if img.Header != nil && len(img.Header) != HeaderSize {
		return fmt.Errorf("header must be %d bytes, got %d", HeaderSize, len(img.Header))
	}
	if len(img.Cmdline) > CmdlineSize {
		return fmt.Errorf("cmdline exceeds %d bytes: %d", CmdlineSize, len(img.Cmdline))
	}
	if len(img.Parameter) != ParameterSize {
		return fmt.Errorf("parameter block must be %d bytes, got %d", ParameterSize, len(img.Parameter))
	}
	return nil
}

// DumpBytes lays the segments out into one contiguous boot image,
// recomputes the derived header fields, and pads the result to a whole
// sector with 0xff bytes.
func (img *Image) DumpBytes() ([]byte, error) {
	if err := img.validate(); err != nil {
		return nil, err
	}

	// Calculate size up front so the image assembles in a single buffer
	block := len(img.Header) + len(img.Signature)
	imgSize := block + CmdlineBlockSize + len(img.Bootstub) + len(img.Kernel) + len(img.Ramdisk)
	padding := paddingSize(imgSize)

	buf := make([]byte, imgSize+padding)
	copy(buf, img.Header)
	copy(buf[len(img.Header):], img.Signature)

	copy(buf[block:], img.Cmdline)
	binary.LittleEndian.PutUint32(buf[block+CmdlineSize:], uint32(len(img.Kernel)))
	binary.LittleEndian.PutUint32(buf[block+CmdlineSize+4:], uint32(len(img.Ramdisk)))
	copy(buf[block+CmdlineSize+8:], img.Parameter)

	if img.Signature != nil {
		copy(buf[block+CmdlineSize+InfoSize:], SignedPadding[:])
	} else if img.Header != nil {
		// unsigned images track repacks in the image type field instead
		hdr := Header(buf[:HeaderSize])
		hdr.SetImageType(hdr.ImageType() + 1)
	}

	stub := block + CmdlineBlockSize
	copy(buf[stub:], img.Bootstub)
	copy(buf[stub+len(img.Bootstub):], img.Kernel)
	copy(buf[stub+len(img.Bootstub)+len(img.Kernel):], img.Ramdisk)

	for i := imgSize; i < len(buf); i++ {
		buf[i] = 0xff
	}

	if img.Header != nil {
		hdr := Header(buf[:HeaderSize])
		hdr.SetSectorCount(uint32(len(buf)/SectorSize - 1))
		hdr.Seal()
	}

	return buf, nil
}

// readOptional loads an artifact that may legitimately be missing.
func (cfg *Config) readOptional(name string) ([]byte, error) {
	data, err := os.ReadFile(cfg.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, eMsg(err, fmt.Sprintf("cannot open input file '%s'", cfg.path(name)))
	}
	return data, nil
}

// LoadImage collects the segment artifacts under cfg.Dir into an Image.
func (cfg *Config) LoadImage() (*Image, error) {
	img := new(Image)

	var err error
	if img.Header, err = cfg.readOptional(HeaderFile); err != nil {
		return nil, err
	}
	if img.Signature, err = cfg.readOptional(SignatureFile); err != nil {
		return nil, err
	}

	for _, name := range requiredFiles {
		data, err := os.ReadFile(cfg.path(name))
		if err != nil {
			return nil, eMsg(err, fmt.Sprintf("cannot open input file '%s'", cfg.path(name)))
		}
		switch name {
		case CmdlineFile:
			img.Cmdline = data
		case ParameterFile:
			img.Parameter = data
		case BootstubFile:
			img.Bootstub = data
		case KernelFile:
			img.Kernel = data
		case RamdiskFile:
			img.Ramdisk = data
		}
	}
	return img, nil
}

// Pack reassembles the segment artifacts under cfg.Dir into a boot image
// at cfg.File. With cfg.Check set the assembled image is scanned back
// before anything touches disk.
func Pack(cfg *Config) error {
	img, err := cfg.LoadImage()
	if err != nil {
		return err
	}

	buf, err := img.DumpBytes()
	if err != nil {
		return err
	}

	if cfg.Check {
		if err := cfg.checkLayout(img, buf); err != nil {
			return err
		}
	}
	cfg.digest("image", buf)

	fout, err := os.Create(cfg.File)
	if err != nil {
		return eMsg(err, fmt.Sprintf("cannot open output file '%s'", cfg.File))
	}
	if _, err := fout.Write(buf); err != nil {
		fout.Close()
		return eMsg(err, fmt.Sprintf("writing '%s'", cfg.File))
	}
	if err := fout.Close(); err != nil {
		return eMsg(err, fmt.Sprintf("writing '%s'", cfg.File))
	}
	return nil
}
