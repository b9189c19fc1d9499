package sigtransplant

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseImage(t *testing.T) {
	for _, is64 := range []bool{false, true} {
		img, err := ParseImage(unsignedImage(t, is64, 4096))
		require.NoError(t, err)

		assert.True(t, img.HasOptionalHeader())
		assert.Equal(t, is64, img.Is64())
		assert.Equal(t, uint32(0x80), img.PESignatureOffset())
		assert.Equal(t, IMAGE_NUMBEROF_DIRECTORY_ENTRIES, img.NumberOfDirectories())
		assert.True(t, img.HasLoadConfig())

		_, ok := img.Directory(IMAGE_DIRECTORY_ENTRY_SECURITY)
		assert.False(t, ok)
		if is64 {
			assert.Equal(t, "PE32+", img.Format())
			assert.Equal(t, IMAGE_FILE_MACHINE_AMD64, img.Machine())
		} else {
			assert.Equal(t, "PE32", img.Format())
			assert.Equal(t, IMAGE_FILE_MACHINE_I386, img.Machine())
		}
	}
}

func TestParseImageCertificateEntryOffset(t *testing.T) {
	for _, tc := range []struct {
		is64   bool
		lfanew uint32
		want   int
	}{
		{false, 0x80, 0x80 + 0x98},
		{true, 0x80, 0x80 + 0xa8},
		{false, 0xf8, 0xf8 + 0x98},
		{true, 0x100, 0x100 + 0xa8},
	} {
		spec := newSpec(tc.is64, 4096)
		spec.Lfanew = tc.lfanew
		contents := spec.build(t)

		img, err := ParseImage(contents)
		require.NoError(t, err)
		offset, err := img.CertificateEntryOffset()
		require.NoError(t, err)
		assert.Equal(t, tc.want, offset)
	}
}

func TestParseImageNotAPE(t *testing.T) {
	_, err := ParseImage([]byte("MZ"))
	assert.True(t, IsNotAPE(err))

	_, err = ParseImage(make([]byte, 512))
	assert.True(t, IsNotAPE(err))

	contents := unsignedImage(t, true, 1024)
	copy(contents[0x80:], "NE\x00\x00")
	_, err = ParseImage(contents)
	assert.True(t, IsNotAPE(err))

	contents = unsignedImage(t, true, 1024)
	binary.LittleEndian.PutUint32(contents[dosLfanewOffset:], 0xfffffff0)
	_, err = ParseImage(contents)
	assert.True(t, IsNotAPE(err))
}

func TestParseImageNoOptionalHeader(t *testing.T) {
	spec := newSpec(false, 512)
	spec.NoOptionalHeader = true

	img, err := ParseImage(spec.build(t))
	require.NoError(t, err)
	assert.False(t, img.HasOptionalHeader())
	assert.False(t, img.HasLoadConfig())
	assert.Equal(t, "COFF", img.Format())

	_, err = img.CertificateEntryOffset()
	assert.True(t, IsUnsupportedImage(err))
}

func TestParseImageUnknownMagic(t *testing.T) {
	contents := unsignedImage(t, true, 1024)
	binary.LittleEndian.PutUint16(contents[0x80+4+IMAGE_FILE_HEADER_SIZE:], 0x107)

	_, err := ParseImage(contents)
	assert.True(t, IsUnsupportedImage(err))
}

func TestParseImageTruncated(t *testing.T) {
	contents := unsignedImage(t, true, 0)
	_, err := ParseImage(contents[:len(contents)-10])
	assert.ErrorIs(t, err, ErrTruncated)
	assert.True(t, IsTruncated(err))
}

func TestParseImageDirectoryCountClamped(t *testing.T) {
	spec := newSpec(false, 1024)
	spec.Directories = 6
	spec.LoadConfig = false
	contents := spec.build(t)

	// claim more entries than the optional header holds
	numberOfRvaAndSizes := 0x80 + 4 + IMAGE_FILE_HEADER_SIZE + IMAGE_OPTIONAL_HEADER32_SIZE - 4
	binary.LittleEndian.PutUint32(contents[numberOfRvaAndSizes:], 0xffff)

	img, err := ParseImage(contents)
	require.NoError(t, err)
	assert.Equal(t, 6, img.NumberOfDirectories())
	assert.False(t, img.HasLoadConfig())
}
