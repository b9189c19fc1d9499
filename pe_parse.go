package sigtransplant

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/lunixbochs/struc"
	"github.com/pkg/errors"
)

// Image is a parsed view over the headers of a PE file. It never copies or
// modifies the contents it was parsed from.
type Image struct {
	contents    []byte
	peOffset    uint32 // e_lfanew, the file offset of "PE\0\0"
	fileHeader  IMAGE_FILE_HEADER
	magic       uint16 // optional header magic, 0 when there is none
	checksum    uint32
	directories []IMAGE_DATA_DIRECTORY
}

// ParseImage walks the DOS header, the PE signature, the COFF file header
// and the optional header of contents.
func ParseImage(contents []byte) (*Image, error) {
	var dosHeader IMAGE_DOS_HEADER
	var fileHeader IMAGE_FILE_HEADER

	reader := bytes.NewReader(contents)
	if err := dosHeader.ReadFrom(reader); err != nil {
		return nil, errors.Wrap(ErrNotAPE, "DOS header truncated")
	}
	if dosHeader.Magic != IMAGE_DOS_SIGNATURE {
		return nil, errors.Wrap(ErrNotAPE, "missing MZ signature")
	}

	peHeaderOffset := dosHeader.Lfanew
	if _, err := reader.Seek(int64(peHeaderOffset), io.SeekStart); err != nil {
		return nil, errors.Wrap(ErrNotAPE, err.Error())
	}

	peSignatureBuf := make([]byte, 4)
	if _, err := io.ReadFull(reader, peSignatureBuf); err != nil {
		return nil, errors.Wrapf(ErrNotAPE, "PE header offset 0x%x past end of file", peHeaderOffset)
	}
	if !bytes.Equal(peSignatureBuf, IMAGE_NT_HEADER_SIGNATURE) {
		return nil, errors.Wrap(ErrNotAPE, "PE header not found at expected offset")
	}

	if err := fileHeader.ReadFrom(reader); err != nil {
		return nil, errors.Wrap(ErrTruncated, "reading COFF file header")
	}

	img := &Image{
		contents:   contents,
		peOffset:   peHeaderOffset,
		fileHeader: fileHeader,
	}
	if fileHeader.SizeOfOptionalHeader == 0 {
		return img, nil
	}

	optionalHeaderRaw := make([]byte, fileHeader.SizeOfOptionalHeader)
	if _, err := io.ReadFull(reader, optionalHeaderRaw); err != nil {
		return nil, errors.Wrap(ErrTruncated, "reading optional header")
	}
	if len(optionalHeaderRaw) < 2 {
		return nil, errors.Wrap(ErrTruncated, "optional header too small for magic")
	}
	optionalHeaderReader := bytes.NewReader(optionalHeaderRaw)

	var fixedSize int
	var numOfDirectoryEntries uint32

	img.magic = binary.LittleEndian.Uint16(optionalHeaderRaw)
	switch img.magic {
	case IMAGE_NT_OPTIONAL_HDR32_MAGIC:
		if len(optionalHeaderRaw) < IMAGE_OPTIONAL_HEADER32_SIZE {
			return nil, errors.Wrap(ErrTruncated, "optional header too small for PE32")
		}
		var optionalHeader IMAGE_OPTIONAL_HEADER32
		if err := optionalHeader.ReadFrom(optionalHeaderReader); err != nil {
			return nil, errors.Wrap(err, "reading PE32 optional header")
		}
		fixedSize = IMAGE_OPTIONAL_HEADER32_SIZE
		numOfDirectoryEntries = optionalHeader.NumberOfRvaAndSizes
		img.checksum = optionalHeader.CheckSum
	case IMAGE_NT_OPTIONAL_HDR64_MAGIC:
		if len(optionalHeaderRaw) < IMAGE_OPTIONAL_HEADER64_SIZE {
			return nil, errors.Wrap(ErrTruncated, "optional header too small for PE32+")
		}
		var optionalHeader IMAGE_OPTIONAL_HEADER64
		if err := optionalHeader.ReadFrom(optionalHeaderReader); err != nil {
			return nil, errors.Wrap(err, "reading PE32+ optional header")
		}
		fixedSize = IMAGE_OPTIONAL_HEADER64_SIZE
		numOfDirectoryEntries = optionalHeader.NumberOfRvaAndSizes
		img.checksum = optionalHeader.CheckSum
	default:
		return nil, errors.Wrapf(ErrUnsupportedImage, "unknown optional header magic 0x%x", img.magic)
	}

	// Only trust as many entries as the declared optional header can hold.
	fits := uint32((len(optionalHeaderRaw) - fixedSize) / IMAGE_DATA_DIRECTORY_SIZE)
	if numOfDirectoryEntries > fits {
		numOfDirectoryEntries = fits
	}
	if numOfDirectoryEntries > IMAGE_NUMBEROF_DIRECTORY_ENTRIES {
		numOfDirectoryEntries = IMAGE_NUMBEROF_DIRECTORY_ENTRIES
	}

	img.directories = make([]IMAGE_DATA_DIRECTORY, numOfDirectoryEntries)
	for i := 0; i < int(numOfDirectoryEntries); i++ {
		if err := struc.Unpack(optionalHeaderReader, &img.directories[i]); err != nil {
			return nil, errors.Wrapf(err, "reading data directory %d", i)
		}
	}

	return img, nil
}

// HasOptionalHeader reports whether the image declares an optional header.
func (img *Image) HasOptionalHeader() bool {
	return img.magic != 0
}

// Is64 reports whether the optional header is PE32+.
func (img *Image) Is64() bool {
	return img.magic == IMAGE_NT_OPTIONAL_HDR64_MAGIC
}

func (img *Image) Format() string {
	switch img.magic {
	case IMAGE_NT_OPTIONAL_HDR32_MAGIC:
		return "PE32"
	case IMAGE_NT_OPTIONAL_HDR64_MAGIC:
		return "PE32+"
	}
	return "COFF"
}

func (img *Image) Machine() ImageFileMachine {
	return img.fileHeader.Machine
}

func (img *Image) Checksum() uint32 {
	return img.checksum
}

// PESignatureOffset is the value of e_lfanew.
func (img *Image) PESignatureOffset() uint32 {
	return img.peOffset
}

// NumberOfDirectories is the count of data directories actually read.
func (img *Image) NumberOfDirectories() int {
	return len(img.directories)
}

// Directory returns the data directory at index. The second result is false
// if the table is too short to hold the entry or the entry is all zero.
func (img *Image) Directory(index int) (DataDirectory, bool) {
	if index < 0 || index >= len(img.directories) {
		return DataDirectory{}, false
	}
	dir := img.directories[index]
	if dir.IsZero() {
		return dir, false
	}
	return dir, true
}

// HasLoadConfig reports whether the load config directory is present. Both
// the extractor and the implanter refuse images without one.
func (img *Image) HasLoadConfig() bool {
	_, ok := img.Directory(IMAGE_DIRECTORY_ENTRY_LOAD_CONFIG)
	return ok
}

// CertificateEntryOffset returns the file offset of the certificate table
// entry in the data directory table, computed from the pointer at 0x3c and
// the bitness of the image. The result is checked against the contents so
// an 8 byte access at it is always in bounds.
func (img *Image) CertificateEntryOffset() (int, error) {
	if !img.HasOptionalHeader() {
		return 0, errors.Wrap(ErrUnsupportedImage, "no optional header")
	}
	return certificateEntryOffset(img.contents, img.Is64())
}

func certificateEntryOffset(contents []byte, is64 bool) (int, error) {
	if len(contents) < dosLfanewOffset+4 {
		return 0, errors.Wrap(ErrMalformedDirectoryEntry, "DOS header truncated")
	}
	peSigOffset := uint64(binary.LittleEndian.Uint32(contents[dosLfanewOffset:]))

	var entryOffset uint64
	if is64 {
		entryOffset = peSigOffset + certEntryOffset64
	} else {
		entryOffset = peSigOffset + certEntryOffset32
	}

	if entryOffset+IMAGE_DATA_DIRECTORY_SIZE > uint64(len(contents)) {
		return 0, errors.Wrapf(ErrMalformedDirectoryEntry,
			"certificate table entry at 0x%x outside %d byte file", entryOffset, len(contents))
	}
	return int(entryOffset), nil
}

// checksumFieldOffset returns the file offset of the optional header CheckSum.
func (img *Image) checksumFieldOffset() (int, error) {
	if !img.HasOptionalHeader() {
		return 0, errors.Wrap(ErrUnsupportedImage, "no optional header")
	}
	offset := uint64(img.peOffset) + checksumOffset
	if offset+4 > uint64(len(img.contents)) {
		return 0, errors.Wrap(ErrTruncated, "checksum field past end of file")
	}
	return int(offset), nil
}
