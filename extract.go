package sigtransplant

import (
	"github.com/pkg/errors"
)

// SignatureRange is the half-open byte range [Start, End) of a certificate
// table inside a PE file.
type SignatureRange struct {
	Start int
	End   int
}

func (r SignatureRange) Len() int {
	return r.End - r.Start
}

// Bytes returns the range as a view into contents. The caller must pass the
// buffer the range was found in.
func (r SignatureRange) Bytes(contents []byte) []byte {
	return contents[r.Start:r.End]
}

// FindSignature locates the certificate table of a PE file.
//
// ok is false, with a nil error, when contents is not a parseable PE image,
// has no optional header, has no load config directory or has an empty
// certificate table entry. A present entry that points past the end of
// contents yields ErrMalformedDirectoryEntry.
func FindSignature(contents []byte) (r SignatureRange, ok bool, err error) {
	img, parseErr := ParseImage(contents)
	if parseErr != nil {
		return
	}
	return findSignature(img, contents)
}

func findSignature(img *Image, contents []byte) (r SignatureRange, ok bool, err error) {
	if !img.HasOptionalHeader() || !img.HasLoadConfig() {
		return
	}

	certEntry, present := img.Directory(IMAGE_DIRECTORY_ENTRY_SECURITY)
	if !present || certEntry.VirtualAddress == 0 || certEntry.Size == 0 {
		return
	}

	// uint64 so that VirtualAddress+Size can not wrap.
	start := uint64(certEntry.VirtualAddress)
	end := start + uint64(certEntry.Size)
	if end > uint64(len(contents)) {
		err = errors.Wrapf(ErrMalformedDirectoryEntry,
			"certificate table [0x%x, 0x%x) outside %d byte file", start, end, len(contents))
		return
	}

	return SignatureRange{Start: int(start), End: int(end)}, true, nil
}

// ExtractSignature returns a copy of the certificate table of a PE file, or
// ErrNoSignature if it has none.
func ExtractSignature(contents []byte) ([]byte, error) {
	r, ok, err := FindSignature(contents)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoSignature
	}

	cert := make([]byte, r.Len())
	copy(cert, r.Bytes(contents))
	return cert, nil
}

// HasSignature reports whether contents carries a certificate table.
// Validity of the signature is not checked.
func HasSignature(contents []byte) (bool, error) {
	_, ok, err := FindSignature(contents)
	return ok, err
}
