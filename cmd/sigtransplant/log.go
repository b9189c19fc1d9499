package main

import (
	"io"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var log = logrus.New()

func configureLogger(globalFlags *GlobalFlags, out io.Writer) error {
	log.SetOutput(out)

	if globalFlags.Debug {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.InfoLevel)
	}

	switch globalFlags.LogFormat {
	case "", "text":
		log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	default:
		return &usageError{errors.Errorf("unknown log format %q", globalFlags.LogFormat)}
	}
	return nil
}
