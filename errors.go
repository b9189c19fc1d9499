package sigtransplant

import (
	"github.com/pkg/errors"
)

var (
	// ErrNotAPE is returned when the input lacks the MZ or PE\0\0 magic.
	ErrNotAPE = errors.New("not a PE image")

	// ErrNoSignature is returned when a PE image has no certificate table.
	ErrNoSignature = errors.New("input file does not contain an Authenticode signature")

	// ErrUnsupportedImage is returned when the image has no optional header
	// or no load config directory, so the fixed certificate entry offsets
	// cannot be trusted.
	ErrUnsupportedImage = errors.New("unsupported PE image layout")

	// ErrMalformedDirectoryEntry is returned when a directory entry or a
	// computed offset points outside the buffer or overflows.
	ErrMalformedDirectoryEntry = errors.New("malformed data directory entry")

	// ErrVerificationFailed is returned when a freshly implanted signature
	// can not be found again, or differs from what was implanted.
	ErrVerificationFailed = errors.New("signature verification failed")

	// ErrTruncated is returned when a header runs past the end of the file.
	ErrTruncated = errors.New("truncated file")
)

// IsNotAPE and friends let callers outside the package classify errors
// without importing pkg/errors.
func IsNotAPE(err error) bool { return errors.Is(err, ErrNotAPE) }

func IsNoSignature(err error) bool { return errors.Is(err, ErrNoSignature) }

func IsUnsupportedImage(err error) bool { return errors.Is(err, ErrUnsupportedImage) }

func IsMalformed(err error) bool { return errors.Is(err, ErrMalformedDirectoryEntry) }

func IsVerificationFailed(err error) bool { return errors.Is(err, ErrVerificationFailed) }

func IsTruncated(err error) bool { return errors.Is(err, ErrTruncated) }
