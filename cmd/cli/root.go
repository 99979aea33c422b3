package main

import (
	"fmt"
	"strings"
	"sync"

	"github.com/himanishpuri/PulseDNA/internal/config"
	"github.com/himanishpuri/PulseDNA/pkg/logger"
	"github.com/himanishpuri/PulseDNA/pkg/pulsedna"
	"github.com/spf13/cobra"
)

const banner = `
 ____        _          ____  _   _    _
|  _ \ _   _| |___  ___|  _ \| \ | |  / \
| |_) | | | | / __|/ _ \ | | |  \| | / _ \
|  __/| |_| | \__ \  __/ |_| | |\  |/ ___ \
|_|    \__,_|_|___/\___|____/|_| \_/_/   \_\

      Camera-based heart rate estimation
`

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	log *logger.Logger
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(strings.TrimSpace(*c.configFlag))
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// setupLogger writes logs to the command's stderr at the level from
// --log-level, falling back to the config file.
func (c *commandContext) setupLogger(cmd *cobra.Command, cfg *config.Config) error {
	level := logger.INFO
	if cfg != nil {
		level = cfg.LogLevel()
	}
	if v := strings.TrimSpace(*c.logLevelFlag); v != "" {
		lvl, err := logger.ParseLevel(v)
		if err != nil {
			return err
		}
		level = lvl
	}
	lc := logger.DefaultConfig()
	lc.Level = level
	lc.Output = cmd.ErrOrStderr()
	lc.Colorize = logger.IsTerminal(lc.Output)
	c.log = logger.New(lc)
	return nil
}

func (c *commandContext) newSession(extra ...pulsedna.Option) (*pulsedna.Session, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	opts := append(cfg.SessionOptions(), pulsedna.WithLogger(c.log.Named("session")))
	return pulsedna.NewSession(append(opts, extra...)...)
}

func newRootCommand() *cobra.Command {
	var configFlag, logLevelFlag string
	ctx := &commandContext{configFlag: &configFlag, logLevelFlag: &logLevelFlag}

	rootCmd := &cobra.Command{
		Use:           "pulsedna",
		Short:         "Estimate heart rate from facial video",
		Long:          banner,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations["skipConfigLoad"] == "true" {
				return ctx.setupLogger(cmd, nil)
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return ctx.setupLogger(cmd, cfg)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(newAnalyzeCommand(ctx))
	rootCmd.AddCommand(newSimulateCommand(ctx))
	rootCmd.AddCommand(newSpectrumCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}
