package cmd

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/nikogura/cv-coach/pkg/bot"
	"github.com/nikogura/cv-coach/pkg/coach"
	"github.com/nikogura/cv-coach/pkg/config"
	"github.com/nikogura/cv-coach/pkg/llm"
	"github.com/nikogura/cv-coach/pkg/logging"
	"github.com/nikogura/cv-coach/pkg/renderer"
	"github.com/nikogura/cv-coach/pkg/review"
	"github.com/nikogura/cv-coach/pkg/telegram"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const sweepInterval = time.Minute

//nolint:gochecknoglobals // Cobra boilerplate
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Telegram bot",
	Long: `Run the Telegram bot with long polling until interrupted.

Requires telegram.token (or TELEGRAM_TOKEN) and at least one of telegram.admin_id or
telegram.allowed_users. Results are rendered to PDF under defaults.output_dir.

Example:
  cv-coach serve
  cv-coach serve --config ./cv-coach.yaml --log-level debug`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) (err error) {
	cfg, closeLog, err := loadConfig()
	if err != nil {
		return err
	}
	defer closeLog()

	err = cfg.ValidateBot()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logging.Component("serve")

	svc, machine, err := buildServices(ctx, cfg, cfg.Defaults.OutputDir)
	if err != nil {
		return err
	}

	downloadDir := filepath.Join(cfg.Defaults.OutputDir, "uploads")
	err = os.MkdirAll(downloadDir, 0750)
	if err != nil {
		err = errors.Wrapf(err, "failed to create upload directory: %s", downloadDir)
		return err
	}

	client := telegram.NewClient(cfg.Telegram.Token)
	transport := telegram.NewTransport(client, downloadDir, bot.MenuRows(), logging.Component("telegram"))
	b := bot.New(transport, svc, machine, bot.Access{
		AdminID:      cfg.Telegram.AdminID,
		AllowedUsers: cfg.Telegram.AllowedUsers,
	})

	go b.RunSweeper(ctx, sweepInterval, cfg.SessionTTL())

	logger.Info().
		Str("provider", cfg.Provider).
		Str("model", cfg.GetGenerationModel()).
		Int("allowed_users", len(cfg.Telegram.AllowedUsers)).
		Msg("bot started")

	poller := telegram.NewPoller(client, cfg.PollTimeout(), logging.Component("poller"))
	err = poller.Run(ctx, transport.Handler(b))
	if err != nil {
		err = errors.Wrap(err, "polling failed")
		return err
	}

	logger.Info().Msg("bot stopped")
	return err
}

// buildServices wires the generator, publisher and review machine shared by the commands.
// An empty outDir disables PDF rendering.
func buildServices(ctx context.Context, cfg config.Config, outDir string) (svc *coach.Service, machine *review.Machine, err error) {
	var gen llm.Generator
	gen, err = llm.NewGenerator(ctx, cfg)
	if err != nil {
		err = errors.Wrap(err, "failed to create generation client")
		return svc, machine, err
	}

	var publisher coach.Publisher
	if outDir != "" {
		publisher = renderer.Pandoc{
			Dir: outDir,
			Options: renderer.Options{
				TemplatePath: cfg.Pandoc.TemplatePath,
				ClassPath:    cfg.Pandoc.ClassFile,
			},
		}
	}
	svc = coach.New(gen, publisher)

	var reviser review.Reviser = review.VerbatimReviser{}
	if cfg.PolishRevisions() {
		reviser = review.NewGeneratorReviser(gen)
	}
	machine = review.NewMachine(review.NewMemoryStore(), reviser, review.WithRevisionTimeout(cfg.RevisionTimeout()))

	return svc, machine, err
}
