// Package coach runs one assistant request: prompt, generation and publication of the result.
package coach

import (
	"context"
	"time"

	"github.com/nikogura/cv-coach/pkg/failure"
	"github.com/nikogura/cv-coach/pkg/llm"
	"github.com/nikogura/cv-coach/pkg/logging"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Publisher turns a finished result into a downloadable artifact.
type Publisher interface {
	Publish(text string, userID int64, prefix string, now time.Time) (artifactPath string, err error)
}

// Request is a single assistant request.
type Request struct {
	UserID  int64
	Mode    llm.Mode
	CV      string
	Vacancy string
}

// Result is generated text and, when publishing worked, the artifact path.
type Result struct {
	Text         string
	ArtifactPath string
}

// Service runs requests against a generator.
type Service struct {
	generator llm.Generator
	publisher Publisher
	now       func() time.Time
	logger    zerolog.Logger
}

// Option configures a Service.
type Option func(s *Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// New creates a Service. A nil publisher disables artifacts.
func New(generator llm.Generator, publisher Publisher, opts ...Option) (s *Service) {
	s = &Service{
		generator: generator,
		publisher: publisher,
		now:       time.Now,
		logger:    logging.Component("coach"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate builds the prompt for the request and returns the cleaned reply. Generation errors
// and empty replies are Generation failures.
func (s *Service) Generate(ctx context.Context, req Request) (text string, err error) {
	var prompt string
	prompt, err = llm.BuildPrompt(req.Mode, llm.PromptInput{CV: req.CV, Vacancy: req.Vacancy})
	if err != nil {
		err = errors.Wrap(err, "failed to build prompt")
		return text, err
	}

	ctx = logging.WithUserID(ctx, req.UserID)
	started := s.now()

	var out string
	out, err = s.generator.Generate(ctx, prompt)
	if err != nil {
		err = failure.Wrap(failure.Generation, "generate "+string(req.Mode), err)
		return text, err
	}

	text = llm.CleanText(out)
	if text == "" {
		err = failure.New(failure.Generation, "generate "+string(req.Mode), "generation service returned no text")
		return text, err
	}

	s.logger.Info().Ctx(ctx).
		Str("mode", string(req.Mode)).
		Int("prompt_chars", len(prompt)).
		Int("reply_chars", len(text)).
		Dur("took", s.now().Sub(started)).
		Msg("reply generated")

	return text, err
}

// Run generates the reply, adds the UK notice for English critiques and publishes it.
// A publishing failure is logged and leaves ArtifactPath empty.
func (s *Service) Run(ctx context.Context, req Request) (result Result, err error) {
	var text string
	text, err = s.Generate(ctx, req)
	if err != nil {
		return result, err
	}

	if req.Mode != llm.ModeCover && req.Mode != llm.ModeStep {
		if notice := llm.UKNotice(llm.DetectLanguage(req.CV)); notice != "" {
			text = notice + "\n\n" + text
		}
	}

	result.Text = text
	result.ArtifactPath = s.Publish(ctx, req.UserID, req.Mode.ArtifactPrefix(), text)

	return result, err
}

// Publish renders text for the user and returns the artifact path, or "" when there is no
// publisher or rendering failed.
func (s *Service) Publish(ctx context.Context, userID int64, prefix, text string) (artifactPath string) {
	if s.publisher == nil {
		return artifactPath
	}

	path, err := s.publisher.Publish(text, userID, prefix, s.now())
	if err != nil {
		s.logger.Warn().Ctx(logging.WithUserID(ctx, userID)).Err(err).Str("prefix", prefix).Msg("publishing failed")
		return artifactPath
	}

	artifactPath = path
	return artifactPath
}
