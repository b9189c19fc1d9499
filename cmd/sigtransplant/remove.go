package main

import (
	sigtransplant "github.com/ianatha/go-sigtransplant"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// RemoveCmd holds the remove cmd flags
type RemoveCmd struct {
	*GlobalFlags

	Input  string
	Output string
}

// NewRemoveCmd creates a new remove command
func NewRemoveCmd(globalFlags *GlobalFlags) *cobra.Command {
	cmd := &RemoveCmd{GlobalFlags: globalFlags}
	removeCmd := &cobra.Command{
		Use:   "remove",
		Short: "Strip the certificate table from a signed PE file",
		Args:  cobra.NoArgs,
		RunE:  cmd.Run,
	}

	removeCmd.Flags().StringVarP(&cmd.Input, "input", "i", "", "Signed PE file")
	removeCmd.Flags().StringVarP(&cmd.Output, "output", "o", "", "Output file")
	_ = removeCmd.MarkFlagRequired("input")
	_ = removeCmd.MarkFlagRequired("output")
	return removeCmd
}

// Run runs the command logic
func (cmd *RemoveCmd) Run(_ *cobra.Command, _ []string) error {
	signed, err := readFile("reading input", cmd.Input)
	if err != nil {
		return err
	}

	stripped, err := sigtransplant.RemoveSignature(signed)
	if err != nil {
		return errors.Wrapf(err, "removing signature from %s", cmd.Input)
	}

	written, err := writePE(cmd.GlobalFlags, cmd.Output, stripped)
	if err != nil {
		return err
	}
	log.Infof("wrote %d bytes to %s (%d bytes removed)", len(written), cmd.Output, len(signed)-len(written))
	return nil
}
