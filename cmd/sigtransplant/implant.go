package main

import (
	sigtransplant "github.com/ianatha/go-sigtransplant"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// ImplantCmd holds the implant cmd flags
type ImplantCmd struct {
	*GlobalFlags

	Signature string
	Target    string
	Output    string
}

// NewImplantCmd creates a new implant command
func NewImplantCmd(globalFlags *GlobalFlags) *cobra.Command {
	cmd := &ImplantCmd{GlobalFlags: globalFlags}
	implantCmd := &cobra.Command{
		Use:   "implant",
		Short: "Append a certificate table from disk to a PE file",
		Args:  cobra.NoArgs,
		RunE:  cmd.Run,
	}

	implantCmd.Flags().StringVarP(&cmd.Signature, "signature", "s", "", "Raw certificate table, as written by extract")
	implantCmd.Flags().StringVarP(&cmd.Target, "target", "t", "", "PE file to receive the signature")
	implantCmd.Flags().StringVarP(&cmd.Output, "output", "o", "", "Output file")
	_ = implantCmd.MarkFlagRequired("signature")
	_ = implantCmd.MarkFlagRequired("target")
	_ = implantCmd.MarkFlagRequired("output")
	return implantCmd
}

// Run runs the command logic
func (cmd *ImplantCmd) Run(_ *cobra.Command, _ []string) error {
	cert, err := readFile("reading signature", cmd.Signature)
	if err != nil {
		return err
	}
	target, err := readFile("reading target", cmd.Target)
	if err != nil {
		return err
	}

	output, err := sigtransplant.Implant(target, cert)
	if err != nil {
		return errors.Wrapf(err, "implanting signature into %s", cmd.Target)
	}

	written, err := writePE(cmd.GlobalFlags, cmd.Output, output)
	if err != nil {
		return err
	}
	log.Infof("wrote %d bytes to %s", len(written), cmd.Output)

	return verifyOutput(cmd.Output, cert)
}
