package mboot

// Boot image format constants
const (
	SectorSize  = 512
	HeaderSize  = 512
	CmdlineSize = 1024

	// The cmdline, the 16-byte image info and its filler form a fixed
	// 4096-byte block ahead of the bootstub.
	InfoSize         = 16
	ParameterSize    = 8
	CmdlineBlockSize = 4096

	// One bootstub unit. Some devices carry two.
	BootstubSize = 4096
)

// Sanity bounds for the stored segment sizes
const (
	MinKernelSize  = 500000
	MaxKernelSize  = 15000000
	MinRamdiskSize = 10000
	MaxRamdiskSize = 300000000
)

// SignedPadding is the marker the bootloader expects at the tail of the
// image info on signed images, in byte array form
var SignedPadding = [...]byte{0xbd, 0x02, 0xbd, 0x02, 0xbd, 0x12, 0xbd, 0x12}

// signatureDeltas are the gaps between consecutive candidate signature
// sizes: 0, 480, 728 and 1024 bytes in total.
var signatureDeltas = [...]int64{0, 480, 248, 296}

// Artifact file names used by both the unpack and pack pipelines
const (
	HeaderFile    = "hdr"
	SignatureFile = "sig"
	CmdlineFile   = "cmdline.txt"
	ParameterFile = "parameter"
	BootstubFile  = "bootstub"
	KernelFile    = "kernel"
	RamdiskFile   = "ramdisk.cpio.gz"
)

// Image represents the contents of an Intel boot image.
type Image struct {
	// Bootloader header, one sector. Nil when the image carries none.
	Header []byte
	// Signature blob. Nil on unsigned images.
	Signature []byte

	// Kernel command line, NUL padded to CmdlineSize on disk
	Cmdline []byte
	// Opaque ParameterSize-byte block trailing the size fields
	Parameter []byte

	Bootstub []byte
	Kernel   []byte
	Ramdisk  []byte
}
