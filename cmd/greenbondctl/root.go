package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"greenbonds/internal/bootstrap"
	"greenbonds/internal/config"
	"greenbonds/internal/infrastructure/logging"
)

type cli struct {
	envFile string
	verbose bool
	asJSON  bool

	app *bootstrap.App
}

func newRootCmd() (*cobra.Command, *cli) {
	c := &cli{}
	root := &cobra.Command{
		Use:           "greenbondctl",
		Short:         "Operate the green bonds platform",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup()
		},
	}
	root.PersistentFlags().StringVar(&c.envFile, "env-file", ".env", "dotenv file merged into the environment")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "debug logging")
	root.PersistentFlags().BoolVar(&c.asJSON, "json", false, "print JSON instead of a table")

	root.AddCommand(c.seedCmd(), c.reconcileCmd(), c.bondsCmd(), c.portfolioCmd())
	return root, c
}

func (c *cli) setup() error {
	cfg := config.Load(c.envFile)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	level := "warn"
	if c.verbose {
		level = "debug"
	}
	log, err := logging.New(cfg.AppEnv, level)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	c.app, err = bootstrap.New(cfg, log)
	return err
}

func (c *cli) close() {
	if c.app == nil {
		return
	}
	_ = c.app.Close()
	_ = c.app.Log.Sync()
	c.app = nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
