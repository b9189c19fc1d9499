package main

import (
	"github.com/fatih/color"
	sigtransplant "github.com/ianatha/go-sigtransplant"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// CheckCmd holds the check cmd flags
type CheckCmd struct {
	*GlobalFlags

	Input string
	Self  bool
}

// NewCheckCmd creates a new check command
func NewCheckCmd(globalFlags *GlobalFlags) *cobra.Command {
	cmd := &CheckCmd{GlobalFlags: globalFlags}
	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Report whether a PE file carries a certificate table; validity is not checked",
		Args:  cobra.NoArgs,
		RunE:  cmd.Run,
	}

	checkCmd.Flags().StringVarP(&cmd.Input, "input", "i", "", "PE file to check")
	checkCmd.Flags().BoolVar(&cmd.Self, "self", false, "Check the running sigtransplant executable instead of --input")
	return checkCmd
}

// Run runs the command logic
func (cmd *CheckCmd) Run(cobraCmd *cobra.Command, _ []string) error {
	out := cobraCmd.OutOrStdout()

	if cmd.Self {
		cert, err := sigtransplant.SelfSignature()
		if err != nil && !sigtransplant.IsNoSignature(err) {
			return err
		}
		if len(cert) > 0 {
			color.New(color.FgGreen).Fprintf(out, "Own executable contains a %d byte certificate table\n", len(cert))
		} else {
			color.New(color.FgYellow).Fprintln(out, "Own executable does not contain a certificate table")
		}
		return nil
	}

	if cmd.Input == "" {
		return &usageError{errors.New("check requires --input or --self")}
	}
	contents, err := readFile("reading input", cmd.Input)
	if err != nil {
		return err
	}

	r, ok, err := sigtransplant.FindSignature(contents)
	if err != nil {
		return errors.Wrapf(err, "checking %s", cmd.Input)
	}
	if ok {
		color.New(color.FgGreen).Fprintf(out, "%s contains a %d byte certificate table at 0x%x\n", cmd.Input, r.Len(), r.Start)
	} else {
		color.New(color.FgYellow).Fprintf(out, "%s does not contain a certificate table\n", cmd.Input)
	}
	return nil
}
