package sigtransplant

import (
	"io/ioutil"

	"github.com/kardianos/osext"
	"github.com/pkg/errors"
)

// SelfSignature returns the certificate table of the running executable.
func SelfSignature() (cert []byte, err error) {
	exe, err := osext.Executable()
	if err != nil {
		return nil, errors.Wrap(err, "locating own executable")
	}

	exeContents, err := ioutil.ReadFile(exe)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", exe)
	}

	return ExtractSignature(exeContents)
}
