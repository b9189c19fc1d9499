package main

import (
	"fmt"

	sigtransplant "github.com/ianatha/go-sigtransplant"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// TransplantCmd holds the positional transplant invocation
type TransplantCmd struct {
	*GlobalFlags
}

// Run runs the command logic
func (cmd *TransplantCmd) Run(cobraCmd *cobra.Command, args []string) error {
	if len(args) != 3 {
		_ = cobraCmd.Usage()
		return &usageError{errors.Errorf("expected 3 arguments, got %d", len(args))}
	}
	signedPath, unsignedPath, outputPath := args[0], args[1], args[2]

	for _, path := range []string{signedPath, unsignedPath} {
		if !sigtransplant.IsPEFile(path) {
			_ = cobraCmd.Usage()
			return errors.Wrap(sigtransplant.ErrNotAPE, path)
		}
	}

	signed, err := readFile("reading signed input", signedPath)
	if err != nil {
		return err
	}
	cert, err := sigtransplant.ExtractSignature(signed)
	if err != nil {
		if sigtransplant.IsNoSignature(err) {
			fmt.Fprintln(cobraCmd.OutOrStdout(), "Input file does not contain an Authenticode signature")
			_ = cobraCmd.Usage()
		}
		return errors.Wrapf(err, "extracting signature from %s", signedPath)
	}
	log.Debugf("found %d byte certificate table in %s", len(cert), signedPath)

	unsigned, err := readFile("reading unsigned input", unsignedPath)
	if err != nil {
		return err
	}

	output, err := sigtransplant.Implant(unsigned, cert)
	if err != nil {
		return errors.Wrapf(err, "implanting signature into %s", unsignedPath)
	}
	log.Info("writing modified PE binary...")
	log.Info("appending certificate table...")
	if err := sigtransplant.Verify(output, cert); err != nil {
		return err
	}

	written, err := writePE(cmd.GlobalFlags, outputPath, output)
	if err != nil {
		return err
	}
	log.Infof("wrote %d bytes to %s (%d byte certificate table appended)", len(written), outputPath, len(cert))

	return verifyOutput(outputPath, cert)
}

// verifyOutput reads a written file back and checks that its certificate
// table is cert.
func verifyOutput(path string, cert []byte) error {
	written, err := readFile("re-reading output", path)
	if err != nil {
		return err
	}
	if err := sigtransplant.Verify(written, cert); err != nil {
		return errors.Wrapf(err, "verifying %s", path)
	}
	log.Infof("verified %d byte certificate table in %s", len(cert), path)
	return nil
}
