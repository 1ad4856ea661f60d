package cmd

import (
	"os"

	"github.com/nikogura/cv-coach/pkg/config"
	"github.com/nikogura/cv-coach/pkg/logging"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var verbose bool

//nolint:gochecknoglobals // Cobra boilerplate
var configFile string

//nolint:gochecknoglobals // Cobra boilerplate
var logLevel string

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "cv-coach",
	Short: "Critique CVs and walk through the critique section by section",
	Long: `cv-coach critiques CVs with a text-generation service. It runs as a Telegram bot
or from the terminal.

A critique can be reviewed step by step: each section (summary, skills, experience,
education, formatting) is shown in turn and can be kept or rewritten. The reviewed
critique is reassembled in order with its scores and recommendations.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is $HOME/.cv-coach/config.json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: trace, debug, info, warn, error (overrides config)")
}

// getVerbose returns the verbose flag value.
func getVerbose() (result bool) {
	result = verbose
	return result
}

// getConfigFile returns the config file path.
func getConfigFile() (result string) {
	result = configFile
	return result
}

// loadConfig loads the config and installs the root logger. The returned closer flushes
// the log file, if any.
func loadConfig() (cfg config.Config, closer func(), err error) {
	closer = func() {}

	cfg, err = config.Load(getConfigFile())
	if err != nil {
		err = errors.Wrap(err, "failed to load config")
		return cfg, closer, err
	}

	level := cfg.Logging.Level
	switch {
	case logLevel != "":
		level = logLevel
	case getVerbose():
		level = "debug"
	}

	logger, logCloser, err := logging.New(level, cfg.Logging.File)
	if err != nil {
		return cfg, closer, err
	}
	log.Logger = logger
	closer = logCloser

	return cfg, closer, err
}

// getOutputDir prefers the flag value over the configured directory.
func getOutputDir(flagValue, configValue string) (outDir string) {
	outDir = flagValue
	if outDir == "" {
		outDir = configValue
	}
	return outDir
}
