package main

import (
	flag "github.com/spf13/pflag"
)

type GlobalFlags struct {
	Debug       bool
	LogFormat   string
	FixChecksum bool
}

// SetGlobalFlags applies the global flags
func SetGlobalFlags(flags *flag.FlagSet) *GlobalFlags {
	globalFlags := &GlobalFlags{}

	flags.BoolVar(&globalFlags.Debug, "debug", false, "Prints debug output and the stack trace if an error occurs")
	flags.StringVar(&globalFlags.LogFormat, "log-format", "text", "The log format to use. Can be either text or json")
	flags.BoolVar(&globalFlags.FixChecksum, "fix-checksum", false, "Recompute the optional header checksum of written PE files")
	return globalFlags
}
