package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bgricker/getset/internal/config"
	"github.com/bgricker/getset/internal/discovery"
	"github.com/bgricker/getset/internal/filter"
	"github.com/bgricker/getset/internal/output"
	"github.com/bgricker/getset/internal/taskfile"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [file]",
		Short: "List the steps of a task file without running them",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runList,
	}
}

func runList(cmd *cobra.Command, args []string) error {
	settings, root, err := loadSettings(cmd, args)
	if err != nil {
		return err
	}

	doc, err := loadTaskFile(root, settings)
	if err != nil {
		return err
	}

	pattern, err := filter.Compile(settings.Step)
	if err != nil {
		return err
	}
	steps, err := filter.Select(doc.Steps, pattern)
	if err != nil {
		return err
	}

	switch strings.ToLower(settings.Format) {
	case config.FormatJSON:
		doc.Steps = steps
		return output.NewJSON(cmd.OutOrStdout()).Encode(doc)
	default:
		return output.NewPretty(cmd.OutOrStdout()).RenderList(steps, settings.Verbose)
	}
}

func loadSettings(cmd *cobra.Command, args []string) (config.Settings, string, error) {
	root, err := os.Getwd()
	if err != nil {
		return config.Settings{}, "", fmt.Errorf("determine working directory: %w", err)
	}

	settings, err := config.Load(root, os.Getenv)
	if err != nil {
		return config.Settings{}, "", err
	}

	flags, err := gatherFlags(cmd, args)
	if err != nil {
		return config.Settings{}, "", err
	}
	config.ApplyFlags(&settings, flags)

	if err := settings.Validate(); err != nil {
		return config.Settings{}, "", err
	}
	return settings, root, nil
}

func loadTaskFile(root string, settings config.Settings) (taskfile.Document, error) {
	loc, err := discovery.TaskFile(root, settings.File)
	if err != nil {
		return taskfile.Document{}, err
	}
	doc, err := taskfile.Load(loc.Path)
	if err != nil {
		return taskfile.Document{}, err
	}
	doc.Path = loc.Display
	return doc, nil
}
