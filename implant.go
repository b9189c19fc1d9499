package sigtransplant

import (
	"bytes"
	"math"

	"github.com/lunixbochs/struc"
	"github.com/pkg/errors"
)

// Implant returns a copy of target with signature appended and the
// certificate table entry pointing at it. target is not modified.
//
// The certificate table entry is located with the fixed offsets from the PE
// signature, so images without an optional header or a load config
// directory are rejected with ErrUnsupportedImage.
func Implant(target, signature []byte) ([]byte, error) {
	img, err := supportedImage(target)
	if err != nil {
		return nil, err
	}

	if uint64(len(target)) > math.MaxUint32 || uint64(len(signature)) > math.MaxUint32 {
		return nil, errors.Wrap(ErrMalformedDirectoryEntry, "certificate table does not fit a 32-bit directory entry")
	}
	certEntry := IMAGE_DATA_DIRECTORY{
		VirtualAddress: uint32(len(target)),
		Size:           uint32(len(signature)),
	}

	entryOffset, err := img.CertificateEntryOffset()
	if err != nil {
		return nil, err
	}

	modified := make([]byte, len(target), len(target)+len(signature))
	copy(modified, target)

	if err := writeDirectory(modified, entryOffset, certEntry); err != nil {
		return nil, err
	}

	// append the cert(s)
	return append(modified, signature...), nil
}

// RemoveSignature returns a copy of contents with the certificate table
// entry zeroed. If the table is the tail of the file it is cut off as well.
func RemoveSignature(contents []byte) ([]byte, error) {
	img, err := supportedImage(contents)
	if err != nil {
		return nil, err
	}

	r, ok, err := findSignature(img, contents)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoSignature
	}

	entryOffset, err := img.CertificateEntryOffset()
	if err != nil {
		return nil, err
	}

	end := len(contents)
	if r.End == len(contents) {
		end = r.Start
	}
	if entryOffset+IMAGE_DATA_DIRECTORY_SIZE > end {
		return nil, errors.Wrap(ErrMalformedDirectoryEntry, "certificate table overlaps the headers")
	}

	stripped := make([]byte, end)
	copy(stripped, contents[:end])

	if err := writeDirectory(stripped, entryOffset, IMAGE_DATA_DIRECTORY{}); err != nil {
		return nil, err
	}
	return stripped, nil
}

func supportedImage(contents []byte) (*Image, error) {
	img, err := ParseImage(contents)
	if err != nil {
		return nil, err
	}
	if !img.HasOptionalHeader() {
		return nil, errors.Wrap(ErrUnsupportedImage, "no optional header")
	}
	if !img.HasLoadConfig() {
		return nil, errors.Wrap(ErrUnsupportedImage, "no load config directory")
	}
	return img, nil
}

// writeDirectory overwrites the 8 bytes at offset with dir.
func writeDirectory(contents []byte, offset int, dir IMAGE_DATA_DIRECTORY) error {
	if offset < 0 || offset+IMAGE_DATA_DIRECTORY_SIZE > len(contents) {
		return errors.Wrapf(ErrMalformedDirectoryEntry, "directory entry at 0x%x outside %d byte file", offset, len(contents))
	}

	var buf bytes.Buffer
	if err := struc.Pack(&buf, &dir); err != nil {
		return errors.Wrap(err, "packing data directory")
	}
	copy(contents[offset:offset+IMAGE_DATA_DIRECTORY_SIZE], buf.Bytes())
	return nil
}
