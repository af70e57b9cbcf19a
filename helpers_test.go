package mboot

import (
	"bytes"
	"encoding/binary"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	gzip "github.com/klauspost/pgzip"
	"github.com/stretchr/testify/require"
)

// fixture describes a synthetic boot image assembled by hand for tests.
type fixture struct {
	header     bool
	sig        int // 0, 480, 728 or 1024
	bootstub   int
	kernel     int
	rawRamdisk int // uncompressed ramdisk payload size
}

func defaultFixture() fixture {
	return fixture{
		header:     true,
		sig:        480,
		bootstub:   BootstubSize,
		kernel:     600000,
		rawRamdisk: 30000,
	}
}

func patternBytes(seed int64, n int) []byte {
	r := rand.New(rand.NewSource(seed))
	b := make([]byte, n)
	r.Read(b)
	return b
}

// testHeader returns header content whose leading bytes cannot pass for
// cmdline text.
func testHeader() []byte {
	h := patternBytes(1, HeaderSize)
	copy(h, []byte{0x8e, 0x13, 0x00, 0xd6})
	return h
}

func testSignature(size int) []byte {
	if size == 0 {
		return nil
	}
	return bytes.Repeat([]byte{0xee}, size)
}

func testCmdline() []byte {
	c := make([]byte, CmdlineSize)
	copy(c, "console=ttyMFD2 androidboot.hardware=mfld_pr2 vmalloc=172M")
	return c
}

func testParameter() []byte {
	return []byte{0xb0, 0xb1, 0xb2, 0xb3, 0xb4, 0xb5, 0xb6, 0xb7}
}

// testBootstub plants readable bytes past the first unit so a two-unit
// stub is recognized as such.
func testBootstub(size int) []byte {
	b := patternBytes(2, size)
	b[0] = 0xea
	if size > BootstubSize {
		b[BootstubSize] = '6'
		b[BootstubSize+1] = 'b'
	}
	return b
}

// testKernel leads with the gzip magic, as compressed kernels do, which
// also keeps the bootstub probe from misreading it as stub code.
func testKernel(size int) []byte {
	k := patternBytes(3, size)
	k[0], k[1] = 0x1f, 0x8b
	return k
}

func testRamdisk(t *testing.T, rawSize int) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	require.NoError(t, err)
	_, err = zw.Write(patternBytes(4, rawSize))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	rd := buf.Bytes()
	require.GreaterOrEqual(t, len(rd), MinRamdiskSize)
	return rd
}

// buildImage lays a boot image out by hand, independent of the assembler,
// so the locator and assembler are both tested against the format itself.
func buildImage(img *Image, marker bool) []byte {
	var buf bytes.Buffer
	buf.Write(img.Header)
	buf.Write(img.Signature)

	block := make([]byte, CmdlineBlockSize)
	copy(block, img.Cmdline)
	binary.LittleEndian.PutUint32(block[CmdlineSize:], uint32(len(img.Kernel)))
	binary.LittleEndian.PutUint32(block[CmdlineSize+4:], uint32(len(img.Ramdisk)))
	copy(block[CmdlineSize+8:], img.Parameter)
	if marker {
		copy(block[CmdlineSize+InfoSize:], SignedPadding[:])
	}
	buf.Write(block)

	buf.Write(img.Bootstub)
	buf.Write(img.Kernel)
	buf.Write(img.Ramdisk)
	for buf.Len()%SectorSize != 0 {
		buf.WriteByte(0xff)
	}
	return buf.Bytes()
}

// build returns the expected segment contents and the raw image bytes.
func (fx fixture) build(t *testing.T) (*Image, []byte) {
	t.Helper()
	img := &Image{
		Cmdline:   testCmdline(),
		Parameter: testParameter(),
		Bootstub:  testBootstub(fx.bootstub),
		Kernel:    testKernel(fx.kernel),
		Ramdisk:   testRamdisk(t, fx.rawRamdisk),
	}
	if fx.header {
		img.Header = testHeader()
	}
	img.Signature = testSignature(fx.sig)
	return img, buildImage(img, fx.sig > 0)
}

func writeArtifacts(t *testing.T, dir string, img *Image) {
	t.Helper()
	write := func(name string, data []byte) {
		if data != nil {
			require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0644))
		}
	}
	write(HeaderFile, img.Header)
	write(SignatureFile, img.Signature)
	write(CmdlineFile, img.Cmdline)
	write(ParameterFile, img.Parameter)
	write(BootstubFile, img.Bootstub)
	write(KernelFile, img.Kernel)
	write(RamdiskFile, img.Ramdisk)
}

func captureLog() (*bytes.Buffer, *log.Logger) {
	var buf bytes.Buffer
	return &buf, log.New(&buf, "", 0)
}
