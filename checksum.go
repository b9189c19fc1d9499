package sigtransplant

import (
	"encoding/binary"

	"github.com/sassoftware/relic/v7/lib/authenticode"
)

// Checksum computes the optional header CheckSum of contents: a 16-bit
// one's complement style sum over little-endian words, skipping the CheckSum
// field itself, plus the file length.
func Checksum(contents []byte) (uint32, error) {
	img, err := ParseImage(contents)
	if err != nil {
		return 0, err
	}
	if _, err := img.checksumFieldOffset(); err != nil {
		return 0, err
	}
	return peChecksum(contents, int(img.PESignatureOffset())), nil
}

// UpdateChecksum returns a copy of contents with the CheckSum field set to
// the checksum of the file. The length of the file does not change.
func UpdateChecksum(contents []byte) ([]byte, error) {
	img, err := ParseImage(contents)
	if err != nil {
		return nil, err
	}
	fieldOffset, err := img.checksumFieldOffset()
	if err != nil {
		return nil, err
	}

	updated := make([]byte, len(contents))
	copy(updated, contents)
	binary.LittleEndian.PutUint32(updated[fieldOffset:], peChecksum(updated, int(img.PESignatureOffset())))
	return updated, nil
}

func peChecksum(contents []byte, peStart int) uint32 {
	h := authenticode.NewPEChecksum(peStart)
	// writes to a hash.Hash never fail
	_, _ = h.Write(contents)
	return binary.LittleEndian.Uint32(h.Sum(nil))
}
