package mboot

import "encoding/binary"

// Offsets of the header fields this tool rewrites
const (
	checksumOffset    = 7
	sectorCountOffset = 48
	imageTypeOffset   = 52
	checksumSpan      = 56
)

// Header is a view over the leading sector of a boot image. Only three
// fields are understood; the rest is opaque bootloader data carried
// through untouched.
type Header []byte

// SectorCount returns the stored size of the image in sectors, less one.
func (h Header) SectorCount() uint32 {
	return binary.LittleEndian.Uint32(h[sectorCountOffset:])
}

// SetSectorCount stores the size of the image in sectors, less one.
func (h Header) SetSectorCount(n uint32) {
	binary.LittleEndian.PutUint32(h[sectorCountOffset:], n)
}

// ImageType returns the image type field.
func (h Header) ImageType() uint32 {
	return binary.LittleEndian.Uint32(h[imageTypeOffset:])
}

// SetImageType stores v in the image type field.
func (h Header) SetImageType(v uint32) {
	binary.LittleEndian.PutUint32(h[imageTypeOffset:], v)
}

// Checksum folds the first 56 header bytes together with XOR, taking the
// checksum byte itself as zero.
func (h Header) Checksum() byte {
	var x byte
	for i, b := range h[:checksumSpan] {
		if i == checksumOffset {
			continue
		}
		x ^= b
	}
	return x
}

// Seal stores a fresh checksum. The checksummed span covers the sector
// count and image type fields, so Seal must come after every other
// header mutation.
func (h Header) Seal() {
	h[checksumOffset] = h.Checksum()
}
