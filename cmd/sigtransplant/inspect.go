package main

import (
	"bytes"
	"fmt"
	"io"

	"github.com/Binject/debug/pe"
	sigtransplant "github.com/ianatha/go-sigtransplant"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// InspectCmd holds the inspect cmd flags
type InspectCmd struct {
	*GlobalFlags

	Input string
}

// NewInspectCmd creates a new inspect command
func NewInspectCmd(globalFlags *GlobalFlags) *cobra.Command {
	cmd := &InspectCmd{GlobalFlags: globalFlags}
	inspectCmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print the header fields a transplant relies on",
		Args:  cobra.NoArgs,
		RunE:  cmd.Run,
	}

	inspectCmd.Flags().StringVarP(&cmd.Input, "input", "i", "", "PE file to inspect")
	_ = inspectCmd.MarkFlagRequired("input")
	return inspectCmd
}

// Run runs the command logic
func (cmd *InspectCmd) Run(cobraCmd *cobra.Command, _ []string) error {
	out := cobraCmd.OutOrStdout()

	contents, err := readFile("reading input", cmd.Input)
	if err != nil {
		return err
	}

	img, err := sigtransplant.ParseImage(contents)
	if err != nil {
		return errors.Wrapf(err, "parsing %s", cmd.Input)
	}

	fmt.Fprintf(out, "file:               %s (%d bytes)\n", cmd.Input, len(contents))
	fmt.Fprintf(out, "format:             %s\n", img.Format())
	fmt.Fprintf(out, "machine:            %s (0x%04x)\n", sigtransplant.MachineName(img.Machine()), img.Machine())
	fmt.Fprintf(out, "PE header offset:   0x%x\n", img.PESignatureOffset())
	fmt.Fprintf(out, "data directories:   %d\n", img.NumberOfDirectories())
	fmt.Fprintf(out, "load config:        %t\n", img.HasLoadConfig())
	if img.HasOptionalHeader() {
		fmt.Fprintf(out, "checksum:           0x%08x\n", img.Checksum())
	}

	if entryOffset, err := img.CertificateEntryOffset(); err == nil {
		fmt.Fprintf(out, "certificate entry:  0x%x\n", entryOffset)
	}
	if dir, ok := img.Directory(sigtransplant.IMAGE_DIRECTORY_ENTRY_SECURITY); ok {
		fmt.Fprintf(out, "certificate table:  0x%x, %d bytes\n", dir.VirtualAddress, dir.Size)
	} else {
		fmt.Fprintln(out, "certificate table:  none")
	}

	printSections(out, contents)
	return nil
}

// printSections lists the section table as seen by a second, independent
// PE parser. Failures only produce a warning.
func printSections(out io.Writer, contents []byte) {
	f, err := pe.NewFile(bytes.NewReader(contents))
	if err != nil {
		log.Warnf("section table unavailable: %v", err)
		return
	}
	defer f.Close()

	fmt.Fprintf(out, "sections:           %d\n", len(f.Sections))
	for _, s := range f.Sections {
		fmt.Fprintf(out, "  %-8s va=0x%08x vsize=0x%08x raw=0x%08x rawsize=0x%08x\n",
			s.Name, s.VirtualAddress, s.VirtualSize, s.Offset, s.Size)
	}
	if len(f.CertificateTable) > 0 {
		fmt.Fprintf(out, "parser certificate: %d bytes\n", len(f.CertificateTable))
	}
}
