// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/speedmaster/cmd/speedmaster/config"
	"github.com/AleutianAI/speedmaster/pkg/ux"
	"github.com/AleutianAI/speedmaster/services/speedmaster/storage/badger"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// cliOptions holds flag values shared by the subcommands.
type cliOptions struct {
	configPath string

	// play overrides
	dataDir     string
	mute        bool
	noSpeech    bool
	metricsAddr string
	logLevel    string
	seed        int64

	// highscore
	reset bool

	// config init
	force bool

	cfg config.SpeedMasterConfig
}

// newRootCmd builds the command tree.
func newRootCmd() *cobra.Command {
	opts := &cliOptions{}

	rootCmd := &cobra.Command{
		Use:   "speedmaster",
		Short: "A terminal reaction game: hear the note, hit the key",
		Long: `SpeedMaster plays a note and shows its color. Press the matching key
before time runs out. Every level shrinks the response window.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default ~/.speedmaster/speedmaster.yaml)")

	loadConfig := func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(opts.configPath)
		if err != nil {
			return err
		}
		opts.cfg = cfg
		return nil
	}

	// --- Game ---
	playCmd := &cobra.Command{
		Use:     "play",
		Short:   "Start the game",
		PreRunE: loadConfig,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.applyFlags(cmd)
			return runPlay(cmd.Context(), opts.cfg, opts.seed)
		},
	}
	playCmd.Flags().StringVar(&opts.dataDir, "data-dir", "", "directory for the high-score database")
	playCmd.Flags().BoolVar(&opts.mute, "mute", false, "disable tones and ambient audio")
	playCmd.Flags().BoolVar(&opts.noSpeech, "no-speech", false, "disable spoken narration")
	playCmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	playCmd.Flags().StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error")
	playCmd.Flags().Int64Var(&opts.seed, "seed", 0, "seed the note sequence (0 picks a random seed)")

	// --- High score ---
	highScoreCmd := &cobra.Command{
		Use:     "highscore",
		Short:   "Show or reset the stored high score",
		PreRunE: loadConfig,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.applyFlags(cmd)
			return runHighScore(cmd, opts)
		},
	}
	highScoreCmd.Flags().BoolVar(&opts.reset, "reset", false, "clear the stored high score")
	highScoreCmd.Flags().StringVar(&opts.dataDir, "data-dir", "", "directory for the high-score database")

	// --- Notes ---
	notesCmd := &cobra.Command{
		Use:     "notes",
		Short:   "List the note catalog",
		PreRunE: loadConfig,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runNotes(cmd, opts)
		},
	}

	// --- Config ---
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}
	configInitCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigInit(cmd, opts)
		},
	}
	configInitCmd.Flags().BoolVar(&opts.force, "force", false, "overwrite an existing file")
	configCmd.AddCommand(configInitCmd)

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "speedmaster %s\n", version)
		},
	}

	rootCmd.AddCommand(playCmd, highScoreCmd, notesCmd, configCmd, versionCmd)
	return rootCmd
}

// applyFlags layers explicitly set flags over the loaded config.
func (o *cliOptions) applyFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Changed("data-dir") {
		o.cfg.Storage.DataDir = o.dataDir
	}
	if flags.Changed("mute") && o.mute {
		o.cfg.Audio.Enabled = false
	}
	if flags.Changed("no-speech") && o.noSpeech {
		o.cfg.Speech.Enabled = false
	}
	if flags.Changed("metrics-addr") {
		o.cfg.Telemetry.MetricsAddr = o.metricsAddr
	}
	if flags.Changed("log-level") {
		o.cfg.Logging.Level = o.logLevel
	}
}

func runHighScore(cmd *cobra.Command, opts *cliOptions) error {
	db, err := badger.Open(badger.DefaultConfig(config.ExpandPath(opts.cfg.Storage.DataDir)))
	if err != nil {
		return fmt.Errorf("open high-score database: %w", err)
	}
	defer db.Close()

	store := badger.NewHighScoreStore(db, nil)
	out := ux.NewPrinter(cmd.OutOrStdout())

	if opts.reset {
		if err := store.Reset(cmd.Context()); err != nil {
			return fmt.Errorf("reset high score: %w", err)
		}
		out.Success("High score reset")
		return nil
	}

	v, err := store.Load(cmd.Context())
	if err != nil {
		return fmt.Errorf("read high score: %w", err)
	}
	out.Title("SpeedMaster")
	out.KeyValue("high_score", v)
	return nil
}

func runNotes(cmd *cobra.Command, opts *cliOptions) error {
	appCfg, err := opts.cfg.AppConfig()
	if err != nil {
		return err
	}
	out := ux.NewPrinter(cmd.OutOrStdout())
	out.Title("Notes")
	for _, n := range appCfg.Session.Catalog.Notes() {
		out.Swatch(n.Color.Hex(), n.Key.String(), n.Name, fmt.Sprintf("%.2f Hz", n.Frequency))
	}
	return nil
}

func runConfigInit(cmd *cobra.Command, opts *cliOptions) error {
	path := opts.configPath
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := config.WriteDefault(path, opts.force); err != nil {
		return err
	}
	ux.NewPrinter(cmd.OutOrStdout()).Success("Wrote " + config.ExpandPath(path))
	return nil
}
