package main

import (
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/entrhq/formpilot/pkg/config"
	"github.com/entrhq/formpilot/pkg/logging"
)

type commandContext struct {
	configFlag *string
	levelFlag  *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag, levelFlag *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		levelFlag:  levelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.levelFlag != nil && *c.levelFlag != "" {
			cfg.Logging.Level = *c.levelFlag
		}
		if err := logging.SetLevel(cfg.Logging.Level); err != nil {
			c.configErr = err
			return
		}
		logging.SetDirectory(cfg.Logging.Dir)
		c.config = cfg
	})
	return c.config, c.configErr
}

// logger returns a file logger for component. When file logging is not
// available the logger falls back to stderr and says so itself.
func (c *commandContext) logger(component string) *logging.Logger {
	log, _ := logging.NewLogger(component)
	return log
}

func newRootCommand() *cobra.Command {
	var configFlag string
	var levelFlag string

	ctx := newCommandContext(&configFlag, &levelFlag)

	rootCmd := &cobra.Command{
		Use:           "formpilot",
		Short:         "Drive the document and intake workflows of the practice web application",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if skipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path (default ~/.formpilot/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&levelFlag, "log-level", "", "Override the configured log level")

	rootCmd.AddCommand(newRunCommand(ctx))
	rootCmd.AddCommand(newIntakeCommand(ctx))
	rootCmd.AddCommand(newParseCommand(ctx))
	rootCmd.AddCommand(newClassifyCommand(ctx))
	rootCmd.AddCommand(newReferCommand(ctx))
	rootCmd.AddCommand(newGoToCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}

func skipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations["skipConfig"] == "true" {
			return true
		}
	}
	return false
}
