package sigtransplant

import (
	"bytes"
	"testing"

	"github.com/lunixbochs/struc"
	"github.com/stretchr/testify/require"
)

// peSpec describes a synthetic PE image. It only carries headers and filler
// bytes, which is all the certificate table code looks at.
type peSpec struct {
	Is64             bool
	Lfanew           uint32
	NoOptionalHeader bool
	Directories      uint32
	LoadConfig       bool
	Cert             IMAGE_DATA_DIRECTORY
	CertBlob         []byte // written at Cert.VirtualAddress
	Size             int
}

func newSpec(is64 bool, size int) peSpec {
	return peSpec{
		Is64:        is64,
		Lfanew:      0x80,
		Directories: IMAGE_NUMBEROF_DIRECTORY_ENTRIES,
		LoadConfig:  true,
		Size:        size,
	}
}

func (s peSpec) headerEnd() int {
	end := int(s.Lfanew) + 4 + IMAGE_FILE_HEADER_SIZE
	if s.NoOptionalHeader {
		return end
	}
	if s.Is64 {
		end += IMAGE_OPTIONAL_HEADER64_SIZE
	} else {
		end += IMAGE_OPTIONAL_HEADER32_SIZE
	}
	return end + int(s.Directories)*IMAGE_DATA_DIRECTORY_SIZE
}

func (s peSpec) build(t *testing.T) []byte {
	t.Helper()

	var headers bytes.Buffer
	dosHeader := IMAGE_DOS_HEADER{
		Magic:  IMAGE_DOS_SIGNATURE,
		Lfanew: s.Lfanew,
	}
	require.NoError(t, struc.Pack(&headers, &dosHeader))
	for headers.Len() < int(s.Lfanew) {
		headers.WriteByte(0)
	}
	headers.Write(IMAGE_NT_HEADER_SIGNATURE)

	fileHeader := IMAGE_FILE_HEADER{
		Machine:          IMAGE_FILE_MACHINE_I386,
		NumberOfSections: 0,
		Characteristics:  0x0102,
	}
	if s.Is64 {
		fileHeader.Machine = IMAGE_FILE_MACHINE_AMD64
	}
	if !s.NoOptionalHeader {
		fixed := IMAGE_OPTIONAL_HEADER32_SIZE
		if s.Is64 {
			fixed = IMAGE_OPTIONAL_HEADER64_SIZE
		}
		fileHeader.SizeOfOptionalHeader = uint16(fixed + int(s.Directories)*IMAGE_DATA_DIRECTORY_SIZE)
	}
	require.NoError(t, struc.Pack(&headers, &fileHeader))

	if !s.NoOptionalHeader {
		if s.Is64 {
			optionalHeader := IMAGE_OPTIONAL_HEADER64{
				Magic:               IMAGE_NT_OPTIONAL_HDR64_MAGIC,
				ImageBase:           0x140000000,
				SectionAlignment:    0x1000,
				FileAlignment:       0x200,
				NumberOfRvaAndSizes: s.Directories,
			}
			require.NoError(t, struc.Pack(&headers, &optionalHeader))
		} else {
			optionalHeader := IMAGE_OPTIONAL_HEADER32{
				Magic:               IMAGE_NT_OPTIONAL_HDR32_MAGIC,
				ImageBase:           0x400000,
				SectionAlignment:    0x1000,
				FileAlignment:       0x200,
				NumberOfRvaAndSizes: s.Directories,
			}
			require.NoError(t, struc.Pack(&headers, &optionalHeader))
		}

		for i := 0; i < int(s.Directories); i++ {
			var dir IMAGE_DATA_DIRECTORY
			switch i {
			case IMAGE_DIRECTORY_ENTRY_SECURITY:
				dir = s.Cert
			case IMAGE_DIRECTORY_ENTRY_LOAD_CONFIG:
				if s.LoadConfig {
					dir = IMAGE_DATA_DIRECTORY{VirtualAddress: 0x2000, Size: 0x140}
				}
			}
			require.NoError(t, struc.Pack(&headers, &dir))
		}
	}
	require.Equal(t, s.headerEnd(), headers.Len())

	size := s.Size
	if size < headers.Len() {
		size = headers.Len()
	}
	if end := int(s.Cert.VirtualAddress) + len(s.CertBlob); len(s.CertBlob) > 0 && end > size {
		size = end
	}

	contents := make([]byte, size)
	for i := range contents {
		contents[i] = byte(i % 251)
	}
	copy(contents, headers.Bytes())
	if len(s.CertBlob) > 0 {
		copy(contents[s.Cert.VirtualAddress:], s.CertBlob)
	}
	return contents
}

// signedImage builds a PE with a certificate table of certSize bytes at the
// end of the file.
func signedImage(t *testing.T, is64 bool, size, certSize int) ([]byte, []byte) {
	t.Helper()

	cert := make([]byte, certSize)
	for i := range cert {
		cert[i] = byte(0xa5 ^ i)
	}
	spec := newSpec(is64, size)
	spec.Cert = IMAGE_DATA_DIRECTORY{
		VirtualAddress: uint32(size - certSize),
		Size:           uint32(certSize),
	}
	spec.CertBlob = cert
	return spec.build(t), cert
}

func unsignedImage(t *testing.T, is64 bool, size int) []byte {
	t.Helper()
	return newSpec(is64, size).build(t)
}
