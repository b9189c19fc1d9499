package main

import (
	sigtransplant "github.com/ianatha/go-sigtransplant"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// ExtractCmd holds the extract cmd flags
type ExtractCmd struct {
	*GlobalFlags

	Input  string
	Output string
}

// NewExtractCmd creates a new extract command
func NewExtractCmd(globalFlags *GlobalFlags) *cobra.Command {
	cmd := &ExtractCmd{GlobalFlags: globalFlags}
	extractCmd := &cobra.Command{
		Use:   "extract",
		Short: "Copy the certificate table of a signed PE file to disk",
		Args:  cobra.NoArgs,
		RunE:  cmd.Run,
	}

	extractCmd.Flags().StringVarP(&cmd.Input, "input", "i", "", "Signed PE file to copy the signature from")
	extractCmd.Flags().StringVarP(&cmd.Output, "output", "o", "", "File the raw certificate table is written to")
	_ = extractCmd.MarkFlagRequired("input")
	_ = extractCmd.MarkFlagRequired("output")
	return extractCmd
}

// Run runs the command logic
func (cmd *ExtractCmd) Run(_ *cobra.Command, _ []string) error {
	signed, err := readFile("reading signed input", cmd.Input)
	if err != nil {
		return err
	}

	cert, err := sigtransplant.ExtractSignature(signed)
	if err != nil {
		return errors.Wrapf(err, "extracting signature from %s", cmd.Input)
	}

	if err := writeFile(cmd.Output, cert, 0644); err != nil {
		return err
	}
	log.Infof("wrote %d byte certificate table to %s", len(cert), cmd.Output)
	return nil
}
