package cmd

import (
	"fmt"

	"github.com/nikogura/cv-coach/pkg/config"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config file",
	Long: `Write a starter config file with placeholder keys.

The format follows the extension: .yaml or .yml writes YAML, anything else JSON.

Example:
  cv-coach init
  cv-coach init --config ./cv-coach.yaml`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) (err error) {
	path := getConfigFile()
	if path == "" {
		path, err = config.DefaultPath()
		if err != nil {
			return err
		}
	}

	err = config.InitConfig(path)
	if err != nil {
		err = errors.Wrap(err, "failed to write config")
		return err
	}

	fmt.Printf("Config written to %s\n", path)
	fmt.Println("Fill in your API key and Telegram token, or set ANTHROPIC_API_KEY / GEMINI_API_KEY / TELEGRAM_TOKEN.")

	return err
}
