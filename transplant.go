package sigtransplant

import (
	"bytes"

	"github.com/pkg/errors"
)

// Transplant takes the certificate table of signed and implants it into
// target, returning the new file. The result is verified before it is
// returned.
func Transplant(signed, target []byte) ([]byte, error) {
	cert, err := ExtractSignature(signed)
	if err != nil {
		return nil, errors.Wrap(err, "signed input")
	}

	output, err := Implant(target, cert)
	if err != nil {
		return nil, errors.Wrap(err, "unsigned input")
	}

	if err := Verify(output, cert); err != nil {
		return nil, err
	}
	return output, nil
}

// Verify checks that the certificate table of output is exactly signature.
// Only the location of the bytes is checked, not the signature itself.
func Verify(output, signature []byte) error {
	r, ok, err := FindSignature(output)
	if err != nil {
		return errors.Wrap(ErrVerificationFailed, err.Error())
	}
	if !ok {
		return errors.Wrap(ErrVerificationFailed, "no certificate table found in output")
	}
	if r.Len() != len(signature) {
		return errors.Wrapf(ErrVerificationFailed, "certificate table is %d bytes, expected %d", r.Len(), len(signature))
	}
	if !bytes.Equal(r.Bytes(output), signature) {
		return errors.Wrap(ErrVerificationFailed, "certificate table content differs")
	}
	return nil
}
