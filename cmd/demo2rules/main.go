package main

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/jessevdk/go-flags"

	"github.com/gwillem/demo2rules/pkg/config"
)

type Options struct {
	Config   string `long:"config" short:"c" default:"demo2rules.json" description:"Project config file"`
	LogLevel string `long:"log-level" default:"info" choice:"debug" choice:"info" choice:"warn" choice:"error" description:"Log verbosity"`

	Init     InitCommand     `command:"init" description:"Write a default config file"`
	Generate GenerateCommand `command:"generate" alias:"gen" description:"Convert a demonstration into a rule program"`
	Inspect  InspectCommand  `command:"inspect" description:"Show speeds, plateaus and stages of a demonstration"`
	Record   RecordCommand   `command:"record" description:"Record a demonstration by moving the arm by hand"`
	Validate ValidateCommand `command:"validate" description:"Check the stage structure of a rule program"`
}

var opts Options
var parser = flags.NewParser(&opts, flags.Default)

func main() {
	parser.LongDescription = "demo2rules - turn recorded SO-101 demonstrations into durable_rules programs"

	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
		}
		os.Exit(1)
	}
}

// newLogger returns a stderr logger at the configured level.
func newLogger() *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})
	level, err := log.ParseLevel(opts.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}

// loadConfig reads the project config, falling back to defaults when the
// file does not exist.
func loadConfig() (*config.Config, error) {
	return config.LoadOrDefault(opts.Config)
}
