package main

import (
	sigtransplant "github.com/ianatha/go-sigtransplant"
	"github.com/pkg/errors"
)

// Exit codes, one per failure class.
const (
	exitOK           = 0
	exitFailure      = 1
	exitUsage        = 2
	exitNotAPE       = 3
	exitNoSignature  = 4
	exitUnsupported  = 5
	exitMalformed    = 6
	exitIOFailure    = 7
	exitVerification = 8
)

type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }

func (e *usageError) Unwrap() error { return e.err }

func exitCode(err error) int {
	var usage *usageError
	var ioErr *ioError

	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &usage):
		return exitUsage
	case errors.As(err, &ioErr):
		return exitIOFailure
	case sigtransplant.IsVerificationFailed(err):
		return exitVerification
	case sigtransplant.IsNotAPE(err):
		return exitNotAPE
	case sigtransplant.IsNoSignature(err):
		return exitNoSignature
	case sigtransplant.IsUnsupportedImage(err):
		return exitUnsupported
	case sigtransplant.IsMalformed(err), sigtransplant.IsTruncated(err):
		return exitMalformed
	}
	return exitFailure
}
