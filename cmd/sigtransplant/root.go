package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd returns a new root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "sigtransplant <signed input> <unsigned input> <output>",
		Short:         "Copy an Authenticode signature from one PE file into another",
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err}
	})
	return rootCmd
}

// BuildRoot creates the root command with all sub commands attached. Run
// with three positional arguments the root command transplants a signature.
func BuildRoot() *cobra.Command {
	rootCmd := NewRootCmd()
	globalFlags := SetGlobalFlags(rootCmd.PersistentFlags())

	transplantCmd := &TransplantCmd{GlobalFlags: globalFlags}
	rootCmd.RunE = transplantCmd.Run
	rootCmd.PersistentPreRunE = func(cobraCmd *cobra.Command, _ []string) error {
		return configureLogger(globalFlags, cobraCmd.ErrOrStderr())
	}

	rootCmd.AddCommand(NewExtractCmd(globalFlags))
	rootCmd.AddCommand(NewImplantCmd(globalFlags))
	rootCmd.AddCommand(NewCheckCmd(globalFlags))
	rootCmd.AddCommand(NewRemoveCmd(globalFlags))
	rootCmd.AddCommand(NewInspectCmd(globalFlags))
	return rootCmd
}

// Execute runs the command line and exits with a code that identifies the
// class of failure.
func Execute() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	rootCmd := BuildRoot()
	ran := false
	markRun(rootCmd, &ran)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	err := rootCmd.Execute()
	if err != nil && !ran && exitCode(err) == exitFailure {
		// cobra rejected the arguments or a required flag
		err = &usageError{err}
	}
	if err != nil {
		if debug, _ := rootCmd.PersistentFlags().GetBool("debug"); debug {
			_, _ = fmt.Fprintf(stderr, "Error: %+v\n", err)
		} else {
			_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		}
	}
	return exitCode(err)
}

// markRun sets *ran once any command gets past cobra's argument and flag
// validation.
func markRun(cmd *cobra.Command, ran *bool) {
	if runE := cmd.RunE; runE != nil {
		cmd.RunE = func(cobraCmd *cobra.Command, args []string) error {
			*ran = true
			return runE(cobraCmd, args)
		}
	}
	for _, subCmd := range cmd.Commands() {
		markRun(subCmd, ran)
	}
}
