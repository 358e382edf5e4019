package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"cmdbar/internal/config"
	"cmdbar/internal/store"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// historyCmd lists recently executed lines
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recently executed command-bar lines",
	RunE:  showHistory,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage cmdbar configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration",
	RunE:  initConfig,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE:  showConfig,
}

// seedCmd writes the demo world
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Write the demo world to the seed file",
	RunE:  writeSeed,
}

func showHistory(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	history, err := store.OpenHistory(cfg.Store.HistoryPath)
	if err != nil {
		return err
	}
	defer history.Close()

	entries, err := history.Recent(ctx, actorID, historyLimit)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(out, mutedStyle.Render("No commands yet"))
		return nil
	}
	for _, e := range entries {
		fmt.Fprintf(out, "%s %s %s %s\n",
			mutedStyle.Render(e.CreatedAt.Local().Format(time.DateTime)),
			actorStyle.Render(e.ActorID),
			kindStyle.Render(e.Kind),
			e.Line)
		if e.Message != "" {
			fmt.Fprintln(out, "    "+successStyle.Render(e.Message))
		}
	}
	return nil
}

func initConfig(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(configPath); err == nil {
		fmt.Fprintln(cmd.OutOrStdout(), warnStyle.Render(configPath+" already exists"))
		return nil
	}
	if err := config.DefaultConfig().Save(configPath); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("Wrote "+configPath))
	return nil
}

func showConfig(cmd *cobra.Command, args []string) error {
	shown := *cfg
	if shown.LLM.APIKey != "" {
		shown.LLM.APIKey = "********"
	}
	data, err := yaml.Marshal(&shown)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	fmt.Fprint(cmd.OutOrStdout(), string(data))
	return nil
}

func writeSeed(cmd *cobra.Command, args []string) error {
	if err := store.SaveSeed(cfg.Store.SeedPath, store.DemoWorld(time.Now())); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("Wrote "+cfg.Store.SeedPath))
	return nil
}
