package sigtransplant

import (
	"io"
	"os"
)

// sniffLen is how many leading bytes are looked at to recognise a PE file.
const sniffLen = 16

// IsPE reports whether the stream starts like a PE image, i.e. with the MZ
// magic of the DOS header. It consumes up to 16 bytes of r.
func IsPE(r io.Reader) (bool, error) {
	hint := make([]byte, sniffLen)
	n, err := io.ReadFull(r, hint)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return false, err
	}
	hint = hint[:n]
	return len(hint) >= 2 && hint[0] == 'M' && hint[1] == 'Z', nil
}

// IsPEFile is IsPE on the named file. Files that can not be opened are not
// PE files.
func IsPEFile(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	ok, err := IsPE(f)
	return err == nil && ok
}
