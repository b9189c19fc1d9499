// Package petest builds minimal PE images for tests. The images carry a DOS
// header, the PE signature, a COFF file header and an optional header with
// a full data directory table; everything after the headers is filler.
package petest

import (
	"bytes"

	sigtransplant "github.com/ianatha/go-sigtransplant"
	"github.com/lunixbochs/struc"
)

const lfanew = 0x80

type Options struct {
	Is64       bool
	Size       int
	LoadConfig bool
	// Cert, when set, is placed at the end of the file and referenced by
	// the certificate table entry.
	Cert []byte
}

// Build returns the image described by opts.
func Build(opts Options) []byte {
	fixed := sigtransplant.IMAGE_OPTIONAL_HEADER32_SIZE
	if opts.Is64 {
		fixed = sigtransplant.IMAGE_OPTIONAL_HEADER64_SIZE
	}
	directorySize := sigtransplant.IMAGE_NUMBEROF_DIRECTORY_ENTRIES * sigtransplant.IMAGE_DATA_DIRECTORY_SIZE
	headerEnd := lfanew + 4 + sigtransplant.IMAGE_FILE_HEADER_SIZE + fixed + directorySize

	size := opts.Size
	if size < headerEnd+len(opts.Cert) {
		size = headerEnd + len(opts.Cert)
	}

	var headers bytes.Buffer
	mustPack(&headers, &sigtransplant.IMAGE_DOS_HEADER{
		Magic:  sigtransplant.IMAGE_DOS_SIGNATURE,
		Lfanew: lfanew,
	})
	headers.Write(make([]byte, lfanew-headers.Len()))
	headers.Write(sigtransplant.IMAGE_NT_HEADER_SIGNATURE)

	fileHeader := sigtransplant.IMAGE_FILE_HEADER{
		Machine:              sigtransplant.IMAGE_FILE_MACHINE_I386,
		SizeOfOptionalHeader: uint16(fixed + directorySize),
	}
	if opts.Is64 {
		fileHeader.Machine = sigtransplant.IMAGE_FILE_MACHINE_AMD64
	}
	mustPack(&headers, &fileHeader)

	if opts.Is64 {
		mustPack(&headers, &sigtransplant.IMAGE_OPTIONAL_HEADER64{
			Magic:               sigtransplant.IMAGE_NT_OPTIONAL_HDR64_MAGIC,
			NumberOfRvaAndSizes: sigtransplant.IMAGE_NUMBEROF_DIRECTORY_ENTRIES,
		})
	} else {
		mustPack(&headers, &sigtransplant.IMAGE_OPTIONAL_HEADER32{
			Magic:               sigtransplant.IMAGE_NT_OPTIONAL_HDR32_MAGIC,
			NumberOfRvaAndSizes: sigtransplant.IMAGE_NUMBEROF_DIRECTORY_ENTRIES,
		})
	}

	for i := 0; i < sigtransplant.IMAGE_NUMBEROF_DIRECTORY_ENTRIES; i++ {
		var dir sigtransplant.IMAGE_DATA_DIRECTORY
		switch {
		case i == sigtransplant.IMAGE_DIRECTORY_ENTRY_LOAD_CONFIG && opts.LoadConfig:
			dir = sigtransplant.IMAGE_DATA_DIRECTORY{VirtualAddress: 0x2000, Size: 0x140}
		case i == sigtransplant.IMAGE_DIRECTORY_ENTRY_SECURITY && len(opts.Cert) > 0:
			dir = sigtransplant.IMAGE_DATA_DIRECTORY{
				VirtualAddress: uint32(size - len(opts.Cert)),
				Size:           uint32(len(opts.Cert)),
			}
		}
		mustPack(&headers, &dir)
	}

	b := make([]byte, size)
	for i := headerEnd; i < size; i++ {
		b[i] = byte(i % 253)
	}
	copy(b, headers.Bytes())
	copy(b[size-len(opts.Cert):], opts.Cert)
	return b
}

func mustPack(buf *bytes.Buffer, data interface{}) {
	if err := struc.Pack(buf, data); err != nil {
		panic(err)
	}
}

// Signed is a PE32+ image of size bytes ending in a certificate table of
// certSize bytes. It returns the image and the table.
func Signed(size, certSize int) ([]byte, []byte) {
	cert := make([]byte, certSize)
	for i := range cert {
		cert[i] = byte(0x5a ^ i)
	}
	return Build(Options{Is64: true, Size: size, LoadConfig: true, Cert: cert}), cert
}

// Unsigned is a PE32+ image of size bytes without a certificate table.
func Unsigned(size int) []byte {
	return Build(Options{Is64: true, Size: size, LoadConfig: true})
}
