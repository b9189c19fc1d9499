package sigtransplant

import (
	"io"

	"github.com/lunixbochs/struc"
)

const (
	IMAGE_DOS_SIGNATURE              = 0x5A4D
	IMAGE_DOS_HEADER_SIZE            = 64
	IMAGE_FILE_HEADER_SIZE           = 20
	IMAGE_DATA_DIRECTORY_SIZE        = 8
	IMAGE_NUMBEROF_DIRECTORY_ENTRIES = 16

	IMAGE_OPTIONAL_HEADER32_SIZE = 96  // fixed part, data directories excluded
	IMAGE_OPTIONAL_HEADER64_SIZE = 112 // fixed part, data directories excluded
)

const (
	IMAGE_NT_OPTIONAL_HDR32_MAGIC = 0x10b
	IMAGE_NT_OPTIONAL_HDR64_MAGIC = 0x20b
)

// Data directory indexes used by this package.
const (
	IMAGE_DIRECTORY_ENTRY_SECURITY    = 4
	IMAGE_DIRECTORY_ENTRY_LOAD_CONFIG = 10
)

var (
	IMAGE_NT_HEADER_SIGNATURE = []byte{'P', 'E', 0, 0}
)

// Fixed file offsets of the PE/COFF layout.
//
// The certificate table entry is the fifth data directory. Its offset from
// the "PE\0\0" signature is the signature itself (4), the COFF file header
// (20), the fixed part of the optional header (96 for PE32, 112 for PE32+)
// and the four directories before it (4*8).
const (
	// dosLfanewOffset is the position of e_lfanew in the DOS header.
	dosLfanewOffset = 0x3c

	certEntryOffset32 = 4 + IMAGE_FILE_HEADER_SIZE + IMAGE_OPTIONAL_HEADER32_SIZE + IMAGE_DIRECTORY_ENTRY_SECURITY*IMAGE_DATA_DIRECTORY_SIZE // 0x98
	certEntryOffset64 = 4 + IMAGE_FILE_HEADER_SIZE + IMAGE_OPTIONAL_HEADER64_SIZE + IMAGE_DIRECTORY_ENTRY_SECURITY*IMAGE_DATA_DIRECTORY_SIZE // 0xa8

	// checksumOffset is the CheckSum field of the optional header, counted
	// from the PE signature. Identical for PE32 and PE32+.
	checksumOffset = 4 + IMAGE_FILE_HEADER_SIZE + 64
)

type ImageFileMachine = uint16

const (
	IMAGE_FILE_MACHINE_I386  ImageFileMachine = 0x014c
	IMAGE_FILE_MACHINE_IA64  ImageFileMachine = 0x0200
	IMAGE_FILE_MACHINE_AMD64 ImageFileMachine = 0x8664
	IMAGE_FILE_MACHINE_ARM64 ImageFileMachine = 0xaa64
)

// MachineName returns the short name of a COFF machine type, or "unknown".
func MachineName(machine ImageFileMachine) string {
	switch machine {
	case IMAGE_FILE_MACHINE_I386:
		return "I386"
	case IMAGE_FILE_MACHINE_IA64:
		return "IA64"
	case IMAGE_FILE_MACHINE_AMD64:
		return "AMD64"
	case IMAGE_FILE_MACHINE_ARM64:
		return "ARM64"
	}
	return "unknown"
}

type IMAGE_DOS_HEADER struct {
	Magic    uint16     `struc:"uint16,little"` // Magic number
	Cblp     uint16     `struc:"uint16,little"` // Byte on last page of file
	Cp       uint16     `struc:"uint16,little"` // Pages in file
	Crlc     uint16     `struc:"uint16,little"` // Relocations
	Cparhdr  uint16     `struc:"uint16,little"` // Size of header in paragraphs
	Minalloc uint16     `struc:"uint16,little"` // Minimum extra paragraphs needed
	Maxalloc uint16     `struc:"uint16,little"` // Maximum extra paragraphs needed
	Ss       uint16     `struc:"uint16,little"` // Initial (relative) SS value
	Sp       uint16     `struc:"uint16,little"` // Initial SP value
	Csum     uint16     `struc:"uint16,little"` // Checksum
	Ip       uint16     `struc:"uint16,little"` // Initial IP value
	Cs       uint16     `struc:"uint16,little"` // Initial (relative) CS value
	Lfarlc   uint16     `struc:"uint16,little"` // File address of relocation table
	Ovno     uint16     `struc:"uint16,little"` // Overlay number
	Res      [4]uint16  `struc:"[4]uint16,little"`
	Oemid    uint16     `struc:"uint16,little"` // OEM identifier (for e_oeminfo)
	Oeminfo  uint16     `struc:"uint16,little"` // OEM information; e_oemid specific
	Res2     [10]uint16 `struc:"[10]uint16,little"`
	Lfanew   uint32     `struc:"uint32,little"` // File address of new exe header
}

func (h *IMAGE_DOS_HEADER) ReadFrom(reader io.Reader) error {
	return struc.Unpack(reader, h)
}

// The structures here were taken from "Microsoft Portable Executable and
// Common Object File Format Specification".

// IMAGE_FILE_HEADER represents the IMAGE_FILE_HEADER structure from
// http://msdn.microsoft.com/en-us/library/windows/desktop/ms680313(v=vs.85).aspx.
type IMAGE_FILE_HEADER struct {
	Machine               ImageFileMachine `struc:"uint16,little"`
	NumberOfSections      uint16           `struc:"uint16,little"`
	TimeDateStamp         uint32           `struc:"uint32,little"`
	PointerForSymbolTable uint32           `struc:"uint32,little"`
	NumberOfSymbols       uint32           `struc:"uint32,little"`
	SizeOfOptionalHeader  uint16           `struc:"uint16,little"`
	Characteristics       uint16           `struc:"uint16,little"`
}

func (h *IMAGE_FILE_HEADER) ReadFrom(reader io.Reader) error {
	return struc.Unpack(reader, h)
}

// IMAGE_DATA_DIRECTORY is one 8 byte entry of the optional header's data
// directory table.
type IMAGE_DATA_DIRECTORY struct {
	VirtualAddress uint32 `struc:"uint32,little"`
	Size           uint32 `struc:"uint32,little"`
}

// DataDirectory is the exported name of a data directory entry.
type DataDirectory = IMAGE_DATA_DIRECTORY

// IsZero reports whether both fields are zero, which PE tooling treats as
// an absent directory.
func (d IMAGE_DATA_DIRECTORY) IsZero() bool {
	return d.VirtualAddress == 0 && d.Size == 0
}

func (d *IMAGE_DATA_DIRECTORY) ReadFrom(reader io.Reader) error {
	return struc.Unpack(reader, d)
}

// IMAGE_OPTIONAL_HEADER32 represents the IMAGE_OPTIONAL_HEADER structure from
// http://msdn.microsoft.com/en-us/library/windows/desktop/ms680339(v=vs.85).aspx.
type IMAGE_OPTIONAL_HEADER32 struct {
	Magic                       uint16 `struc:"uint16,little"` // Magic number
	MajorLinkerVersion          byte   `struc:"byte"`          // Major linker version
	MinorLinkerVersion          byte   `struc:"byte"`          // Minor linker version
	SizeOfCode                  uint32 `struc:"uint32,little"` // Size of code
	SizeOfInitializedData       uint32 `struc:"uint32,little"` // Size of initialized data
	SizeOfUninitializedData     uint32 `struc:"uint32,little"` // Size of uninitialized data
	AddressOfEntryPoint         uint32 `struc:"uint32,little"` // Address of entry point
	BaseOfCode                  uint32 `struc:"uint32,little"` // Base address of code
	BaseOfData                  uint32 `struc:"uint32,little"` // Base address of data
	ImageBase                   uint32 `struc:"uint32,little"` // Image base address
	SectionAlignment            uint32 `struc:"uint32,little"` // Section alignment
	FileAlignment               uint32 `struc:"uint32,little"` // File alignment
	MajorOperatingSystemVersion uint16 `struc:"uint16,little"` // Major operating system version
	MinorOperatingSystemVersion uint16 `struc:"uint16,little"` // Minor operating system version
	MajorImageVersion           uint16 `struc:"uint16,little"` // Major image version
	MinorImageVersion           uint16 `struc:"uint16,little"` // Minor image version
	MajorSubsystemVersion       uint16 `struc:"uint16,little"` // Major subsystem version
	MinorSubsystemVersion       uint16 `struc:"uint16,little"` // Minor subsystem version
	Win32VersionValue           uint32 `struc:"uint32,little"` // Win32 version value
	SizeOfImage                 uint32 `struc:"uint32,little"` // Size of image
	SizeOfHeaders               uint32 `struc:"uint32,little"` // Size of headers
	CheckSum                    uint32 `struc:"uint32,little"` // Checksum
	Subsystem                   uint16 `struc:"uint16,little"` // Subsystem
	DllCharacteristics          uint16 `struc:"uint16,little"` // DLL characteristics
	SizeOfStackReserve          uint32 `struc:"uint32,little"` // Size of stack to reserve
	SizeOfStackCommit           uint32 `struc:"uint32,little"` // Size of stack to commit
	SizeOfHeapReserve           uint32 `struc:"uint32,little"` // Size of heap to reserve
	SizeOfHeapCommit            uint32 `struc:"uint32,little"` // Size of heap to commit
	LoaderFlags                 uint32 `struc:"uint32,little"` // Loader flags
	NumberOfRvaAndSizes         uint32 `struc:"uint32,little"` // Number of data-directory entries
}

func (h *IMAGE_OPTIONAL_HEADER32) ReadFrom(reader io.Reader) error {
	return struc.Unpack(reader, h)
}

type IMAGE_OPTIONAL_HEADER64 struct {
	Magic                       uint16 `struc:"uint16,little"` // Magic number
	MajorLinkerVersion          byte   `struc:"byte"`          // Major linker version
	MinorLinkerVersion          byte   `struc:"byte"`          // Minor linker version
	SizeOfCode                  uint32 `struc:"uint32,little"` // Size of code
	SizeOfInitializedData       uint32 `struc:"uint32,little"` // Size of initialized data
	SizeOfUninitializedData     uint32 `struc:"uint32,little"` // Size of uninitialized data
	AddressOfEntryPoint         uint32 `struc:"uint32,little"` // Address of entry point
	BaseOfCode                  uint32 `struc:"uint32,little"` // Base address of code
	ImageBase                   uint64 `struc:"uint64,little"` // Image base address
	SectionAlignment            uint32 `struc:"uint32,little"` // Section alignment
	FileAlignment               uint32 `struc:"uint32,little"` // File alignment
	MajorOperatingSystemVersion uint16 `struc:"uint16,little"` // Major operating system version
	MinorOperatingSystemVersion uint16 `struc:"uint16,little"` // Minor operating system version
	MajorImageVersion           uint16 `struc:"uint16,little"` // Major image version
	MinorImageVersion           uint16 `struc:"uint16,little"` // Minor image version
	MajorSubsystemVersion       uint16 `struc:"uint16,little"` // Major subsystem version
	MinorSubsystemVersion       uint16 `struc:"uint16,little"` // Minor subsystem version
	Win32VersionValue           uint32 `struc:"uint32,little"` // Win32 version value
	SizeOfImage                 uint32 `struc:"uint32,little"` // Size of image
	SizeOfHeaders               uint32 `struc:"uint32,little"` // Size of headers
	CheckSum                    uint32 `struc:"uint32,little"` // Checksum
	Subsystem                   uint16 `struc:"uint16,little"` // Subsystem
	DllCharacteristics          uint16 `struc:"uint16,little"` // DLL characteristics
	SizeOfStackReserve          uint64 `struc:"uint64,little"` // Size of stack to reserve
	SizeOfStackCommit           uint64 `struc:"uint64,little"` // Size of stack to commit
	SizeOfHeapReserve           uint64 `struc:"uint64,little"` // Size of heap to reserve
	SizeOfHeapCommit            uint64 `struc:"uint64,little"` // Size of heap to commit
	LoaderFlags                 uint32 `struc:"uint32,little"` // Loader flags
	NumberOfRvaAndSizes         uint32 `struc:"uint32,little"` // Number of data-directory entries
}

func (h *IMAGE_OPTIONAL_HEADER64) ReadFrom(reader io.Reader) error {
	return struc.Unpack(reader, h)
}
