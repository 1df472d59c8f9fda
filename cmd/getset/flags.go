package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/bgricker/getset/internal/config"
)

func gatherFlags(cmd *cobra.Command, args []string) (config.FlagValues, error) {
	flags := cmd.Flags()
	var values config.FlagValues

	if len(args) > 0 {
		values.File = config.StringFlag{Value: args[0], Set: true}
	}

	var err error
	if values.Verbose, err = boolFlag(flags, "verbose"); err != nil {
		return values, err
	}
	if values.Report, err = boolFlag(flags, "report"); err != nil {
		return values, err
	}
	if values.Plain, err = boolFlag(flags, "plain"); err != nil {
		return values, err
	}
	if values.Step, err = stringFlag(flags, "step"); err != nil {
		return values, err
	}
	if values.Format, err = stringFlag(flags, "format"); err != nil {
		return values, err
	}
	if values.LogLevel, err = stringFlag(flags, "log-level"); err != nil {
		return values, err
	}

	return values, nil
}

func boolFlag(flags *pflag.FlagSet, name string) (config.BoolFlag, error) {
	if !flags.Changed(name) {
		return config.BoolFlag{}, nil
	}
	v, err := flags.GetBool(name)
	if err != nil {
		return config.BoolFlag{}, fmt.Errorf("parse --%s: %w", name, err)
	}
	return config.BoolFlag{Value: v, Set: true}, nil
}

func stringFlag(flags *pflag.FlagSet, name string) (config.StringFlag, error) {
	if !flags.Changed(name) {
		return config.StringFlag{}, nil
	}
	v, err := flags.GetString(name)
	if err != nil {
		return config.StringFlag{}, fmt.Errorf("parse --%s: %w", name, err)
	}
	return config.StringFlag{Value: v, Set: true}, nil
}
