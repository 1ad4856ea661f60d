// Package bot is the chat dialog: menu, access control, uploads and the step-by-step review,
// independent of the chat service that carries it.
package bot

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/nikogura/cv-coach/pkg/coach"
	"github.com/nikogura/cv-coach/pkg/extract"
	"github.com/nikogura/cv-coach/pkg/failure"
	"github.com/nikogura/cv-coach/pkg/kv"
	"github.com/nikogura/cv-coach/pkg/llm"
	"github.com/nikogura/cv-coach/pkg/logging"
	"github.com/nikogura/cv-coach/pkg/review"
	"github.com/nikogura/cv-coach/pkg/vacancy"
	"github.com/rs/zerolog"
)

// User-facing messages.
const (
	MsgMenu        = "Select an option from the menu 👇"
	MsgDenied      = "❌ You do not have access to this bot.\n\nIf you would like to use it, please contact the bot administrator."
	MsgProcessing  = "⌛ Processing your request... This may take 10–15 seconds"
	MsgSendCV      = "Thank you! Now send your CV"
	MsgPDFOffer    = "You can download the result as PDF:"
	MsgPDFMissing  = "❌ PDF file not found. Please try again."
	MsgUnsupported = "Please upload a PDF, DOCX or TXT file"
	MsgDiscarded   = "Your unfinished step-by-step review was discarded."
	MsgCancelled   = "Cancelled."
	MsgNoReview    = "There is no review in progress."
	MsgChoose      = "Please choose Edit or Skip for this section."
	MsgAwaitingRev = "I am still waiting for the new text of this section. Send it, or press Cancel edit."
	MsgEmptyRev    = "The new text is empty. Please send the rewritten section."
	MsgExtraction  = "😔 I could not read that file. Please upload a PDF, DOCX or TXT file and try again."
	MsgGeneration  = "😔 The assistant did not answer this time. Please try again in a moment."
	MsgFailed      = "Oops, something went wrong. Please try again later."
	MsgFinished    = "✅ Review complete. Here is your updated critique:"
	MsgUnsplit     = "I could not split this critique into sections, so here it is in full:"
)

const helpText = `I review CVs.

📄 CV analysis: a full critique with scores and recommendations.
🌟 Step-by-step CV review: go through the critique section by section, editing or skipping each one.
🎯 CV and job match analysis: send a vacancy, then your CV.
🧠 HR Expert Advice: a short HR-style critique.
💌 Generate Cover Letter: send a vacancy, then your CV.

Commands: /start shows the menu, /cancel stops what you are doing.`

// Extractor turns an uploaded file into text.
type Extractor func(ctx context.Context, path string) (text string, err error)

// VacancyResolver turns a typed vacancy (link or text) into text.
type VacancyResolver func(ctx context.Context, input string) (text string, err error)

// Access lists who may use the bot. The admin is always allowed and is told about
// refused users.
type Access struct {
	AdminID      int64
	AllowedUsers []int64
}

// dialog is the per-user menu state outside a review.
type dialog struct {
	Mode    llm.Mode
	Vacancy string
}

// Bot handles chat events.
type Bot struct {
	transport Transport
	coach     *coach.Service
	machine   *review.Machine
	adminID   int64
	allowed   map[int64]bool
	dialogs   *kv.Store[int64, dialog]
	results   *kv.Store[int64, string]
	extract   Extractor
	resolve   VacancyResolver
	logger    zerolog.Logger
}

// Option configures a Bot.
type Option func(b *Bot)

// WithExtractor overrides how uploads are read.
func WithExtractor(fn Extractor) Option {
	return func(b *Bot) {
		b.extract = fn
	}
}

// WithVacancyResolver overrides how typed vacancies are resolved.
func WithVacancyResolver(fn VacancyResolver) Option {
	return func(b *Bot) {
		b.resolve = fn
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(b *Bot) {
		b.logger = logger
	}
}

// New creates a Bot.
func New(transport Transport, svc *coach.Service, machine *review.Machine, access Access, opts ...Option) (b *Bot) {
	b = &Bot{
		transport: transport,
		coach:     svc,
		machine:   machine,
		adminID:   access.AdminID,
		allowed:   make(map[int64]bool, len(access.AllowedUsers)+1),
		dialogs:   kv.New[int64, dialog](),
		results:   kv.New[int64, string](),
		extract:   extract.File,
		resolve:   ResolveTypedVacancy,
		logger:    logging.Component("bot"),
	}

	if access.AdminID != 0 {
		b.allowed[access.AdminID] = true
	}
	for _, id := range access.AllowedUsers {
		b.allowed[id] = true
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// ResolveTypedVacancy fetches links and takes anything else as the vacancy text. Unlike
// vacancy.Resolve it never reads local files, since the input comes from chat users.
func ResolveTypedVacancy(ctx context.Context, input string) (text string, err error) {
	input = strings.TrimSpace(input)
	if strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://") {
		text, err = vacancy.Resolve(ctx, input)
		return text, err
	}
	text = input
	return text, err
}

// Handle processes one event. Events of one user must not be handled concurrently.
func (b *Bot) Handle(ctx context.Context, ev Event) {
	ctx = logging.WithUserID(ctx, ev.User.ID)

	if !b.allowed[ev.User.ID] {
		b.deny(ctx, ev)
		return
	}

	switch {
	case ev.Callback != "":
		b.handleCallback(ctx, ev)
	case ev.Document != nil:
		b.handleDocument(ctx, ev)
	default:
		b.handleText(ctx, ev)
	}
}

// RunSweeper drops reviews idle for longer than ttl every interval until ctx is done.
func (b *Bot) RunSweeper(ctx context.Context, interval, ttl time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, userID := range b.machine.Sweep(ttl) {
				b.dialogs.Delete(userID)
			}
		}
	}
}

func (b *Bot) deny(ctx context.Context, ev Event) {
	b.logger.Warn().Ctx(ctx).Str("username", ev.User.Username).Msg("unauthorized access attempt")

	if b.adminID != 0 && b.adminID != ev.User.ID {
		message := ev.Text
		if message == "" {
			message = "n/a"
		}
		notice := fmt.Sprintf("🚨 Unauthorized access attempt\n- User: ID=%d, Username=%s, Name=%s\n- Chat ID: %d\n- Message: %s",
			ev.User.ID, ev.User.Username, ev.User.Name, ev.ChatID, message)
		b.send(ctx, b.adminID, Reply{Text: notice})
	}

	b.send(ctx, ev.ChatID, Reply{Text: MsgDenied})
}

func (b *Bot) handleText(ctx context.Context, ev Event) {
	text := strings.TrimSpace(ev.Text)

	switch text {
	case "/start":
		b.send(ctx, ev.ChatID, Reply{Text: MsgMenu, Menu: true})
		return
	case "/help":
		b.send(ctx, ev.ChatID, Reply{Text: helpText, Menu: true})
		return
	case "/cancel":
		b.machine.Abandon(ev.User.ID)
		b.dialogs.Delete(ev.User.ID)
		b.send(ctx, ev.ChatID, Reply{Text: MsgCancelled + " " + MsgMenu, Menu: true})
		return
	}

	if mode, ok := ModeForLabel(text); ok {
		b.selectMode(ctx, ev, mode)
		return
	}

	if s, ok := b.machine.Session(ev.User.ID); ok {
		switch s.State() {
		case review.StateAwaitingRevision:
			switch strings.ToLower(text) {
			case "edit":
				b.decide(ctx, ev, review.ChoiceEdit)
			case "skip":
				b.decide(ctx, ev, review.ChoiceSkip)
			case "cancel":
				b.cancelEdit(ctx, ev)
			default:
				b.submitRevision(ctx, ev, text)
			}
			return
		case review.StateAwaitingDecision:
			switch strings.ToLower(text) {
			case "edit":
				b.decide(ctx, ev, review.ChoiceEdit)
			case "skip":
				b.decide(ctx, ev, review.ChoiceSkip)
			default:
				b.represent(ctx, ev, MsgChoose)
			}
			return
		case review.StateFinished:
		}
	}

	d, ok := b.dialogs.Get(ev.User.ID)
	if ok && d.Mode.NeedsVacancy() && d.Vacancy == "" && text != "" {
		vac, err := b.resolve(ctx, text)
		if err != nil {
			b.logger.Warn().Ctx(ctx).Err(err).Msg("vacancy could not be resolved")
			b.send(ctx, ev.ChatID, Reply{Text: "😔 I could not open that vacancy. Please send its text or a file instead."})
			return
		}
		b.setVacancy(ctx, ev, vac)
		return
	}

	b.send(ctx, ev.ChatID, Reply{Text: MsgMenu, Menu: true})
}

func (b *Bot) selectMode(ctx context.Context, ev Event, mode llm.Mode) {
	if b.machine.Abandon(ev.User.ID) {
		b.send(ctx, ev.ChatID, Reply{Text: MsgDiscarded})
	}

	b.dialogs.Set(ev.User.ID, dialog{Mode: mode})
	b.logger.Debug().Ctx(ctx).Str("mode", string(mode)).Msg("mode selected")

	b.send(ctx, ev.ChatID, Reply{Text: modePrompt(mode), Menu: true})
}

func (b *Bot) setVacancy(ctx context.Context, ev Event, text string) {
	b.dialogs.Update(ev.User.ID, func(cur dialog, exists bool) (next dialog, keep bool) {
		next, keep = cur, exists
		next.Vacancy = text
		return next, keep
	})
	b.send(ctx, ev.ChatID, Reply{Text: MsgSendCV})
}

func (b *Bot) handleDocument(ctx context.Context, ev Event) {
	d, ok := b.dialogs.Get(ev.User.ID)
	if !ok {
		b.send(ctx, ev.ChatID, Reply{Text: MsgMenu, Menu: true})
		return
	}

	if !extract.Supported(ev.Document.FileName) {
		b.send(ctx, ev.ChatID, Reply{Text: MsgUnsupported})
		return
	}

	path, err := b.transport.Download(ctx, *ev.Document)
	if err != nil {
		b.logger.Warn().Ctx(ctx).Err(err).Str("file", ev.Document.FileName).Msg("download failed")
		b.send(ctx, ev.ChatID, Reply{Text: "😔 I could not download that file: " + err.Error()})
		return
	}
	defer b.remove(ctx, path)

	var text string
	text, err = b.extract(ctx, path)
	if err != nil {
		b.fail(ctx, ev, err)
		return
	}

	if d.Mode.NeedsVacancy() && d.Vacancy == "" {
		b.setVacancy(ctx, ev, text)
		return
	}

	b.send(ctx, ev.ChatID, Reply{Text: MsgProcessing})

	if d.Mode == llm.ModeStep {
		b.startReview(ctx, ev, text)
		return
	}

	result, err := b.coach.Run(ctx, coach.Request{UserID: ev.User.ID, Mode: d.Mode, CV: text, Vacancy: d.Vacancy})
	if err != nil {
		b.fail(ctx, ev, err)
		return
	}

	if d.Mode.NeedsVacancy() {
		b.dialogs.Set(ev.User.ID, dialog{Mode: d.Mode})
	}

	b.deliver(ctx, ev, result.Text, result.ArtifactPath)
}

func (b *Bot) startReview(ctx context.Context, ev Event, cv string) {
	raw, err := b.coach.Generate(ctx, coach.Request{UserID: ev.User.ID, Mode: llm.ModeStep, CV: cv})
	if err != nil {
		b.fail(ctx, ev, err)
		return
	}

	step, discarded, err := b.machine.Start(ctx, ev.User.ID, raw)
	if discarded {
		b.send(ctx, ev.ChatID, Reply{Text: MsgDiscarded})
	}

	switch {
	case failure.IsKind(err, failure.SegmentationEmpty):
		b.send(ctx, ev.ChatID, Reply{Text: MsgUnsplit})
		b.finish(ctx, ev)
	case err != nil:
		b.fail(ctx, ev, err)
	default:
		b.present(ctx, ev, step)
	}
}

func (b *Bot) handleCallback(ctx context.Context, ev Event) {
	switch ev.Callback {
	case CallbackEdit:
		b.decide(ctx, ev, review.ChoiceEdit)
	case CallbackSkip:
		b.decide(ctx, ev, review.ChoiceSkip)
	case CallbackCancel:
		b.cancelEdit(ctx, ev)
	case CallbackPDF:
		b.sendPDF(ctx, ev)
	default:
		b.logger.Debug().Ctx(ctx).Str("callback", ev.Callback).Msg("unknown callback")
	}
}

func (b *Bot) decide(ctx context.Context, ev Event, choice review.Choice) {
	step, err := b.machine.Decide(ctx, ev.User.ID, choice)
	if err != nil {
		b.fail(ctx, ev, err)
		return
	}
	b.present(ctx, ev, step)
}

func (b *Bot) cancelEdit(ctx context.Context, ev Event) {
	step, err := b.machine.Cancel(ev.User.ID)
	if err != nil {
		b.fail(ctx, ev, err)
		return
	}
	b.present(ctx, ev, step)
}

func (b *Bot) submitRevision(ctx context.Context, ev Event, text string) {
	if text == "" {
		b.send(ctx, ev.ChatID, Reply{Text: MsgEmptyRev, Buttons: cancelButtons()})
		return
	}

	b.send(ctx, ev.ChatID, Reply{Text: "⌛ Polishing your text..."})

	step, err := b.machine.SubmitRevision(ctx, ev.User.ID, text)
	if err != nil {
		b.fail(ctx, ev, err)
		return
	}
	b.present(ctx, ev, step)
}

// present shows the step, or finishes the review when nothing is left.
func (b *Bot) present(ctx context.Context, ev Event, step review.Step) {
	switch step.State {
	case review.StateFinished:
		b.finish(ctx, ev)
	case review.StateAwaitingRevision:
		text := fmt.Sprintf("✏️ Send the new text for %s.", step.Section.Label)
		b.send(ctx, ev.ChatID, Reply{Text: text, Buttons: cancelButtons()})
	case review.StateAwaitingDecision:
		b.send(ctx, ev.ChatID, Reply{Text: StepText(step), Buttons: reviewButtons()})
	}
}

// represent repeats the current step after a hint.
func (b *Bot) represent(ctx context.Context, ev Event, hint string) {
	step, err := b.machine.Present(ev.User.ID)
	if err != nil {
		b.send(ctx, ev.ChatID, Reply{Text: MsgNoReview + " " + MsgMenu, Menu: true})
		return
	}
	b.send(ctx, ev.ChatID, Reply{Text: hint})
	b.present(ctx, ev, step)
}

// StepText renders a section for a decision.
func StepText(step review.Step) (text string) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🌟 Section %d of %d: %s\n\n", step.Index+1, step.Total, step.Section.Label)

	body := strings.TrimSpace(step.Section.Body)
	if body == "" {
		body = "(no comments for this section)"
	}
	sb.WriteString(body)

	if step.Section.IsScored {
		fmt.Fprintf(&sb, "\n\n📊 Score: %d / 10", step.Section.Score)
	}

	text = sb.String()
	return text
}

func (b *Bot) finish(ctx context.Context, ev Event) {
	text, err := b.machine.Final(ev.User.ID)
	if err != nil {
		b.fail(ctx, ev, err)
		return
	}

	b.machine.Abandon(ev.User.ID)
	b.send(ctx, ev.ChatID, Reply{Text: MsgFinished})

	path := b.coach.Publish(ctx, ev.User.ID, llm.ModeStep.ArtifactPrefix(), text)
	b.deliver(ctx, ev, text, path)
}

func (b *Bot) deliver(ctx context.Context, ev Event, text, artifactPath string) {
	b.send(ctx, ev.ChatID, Reply{Text: text, Menu: true})

	if artifactPath == "" {
		return
	}

	b.results.Set(ev.User.ID, artifactPath)
	b.send(ctx, ev.ChatID, Reply{Text: MsgPDFOffer, Buttons: pdfButtons()})
}

func (b *Bot) sendPDF(ctx context.Context, ev Event) {
	path, ok := b.results.Get(ev.User.ID)
	if ok {
		_, err := os.Stat(path)
		ok = err == nil
	}
	if !ok {
		b.send(ctx, ev.ChatID, Reply{Text: MsgPDFMissing})
		return
	}

	err := b.transport.SendDocument(ctx, ev.ChatID, path, "")
	if err != nil {
		b.logger.Error().Ctx(ctx).Err(err).Str("path", path).Msg("failed to send PDF")
		b.send(ctx, ev.ChatID, Reply{Text: MsgPDFMissing})
	}
}

// fail tells the user what went wrong. The session, if any, is left as it was.
func (b *Bot) fail(ctx context.Context, ev Event, err error) {
	kind, _ := failure.KindOf(err)

	switch kind {
	case failure.Extraction:
		b.logger.Warn().Ctx(ctx).Err(err).Msg("extraction failed")
		b.send(ctx, ev.ChatID, Reply{Text: MsgExtraction})
	case failure.Generation:
		b.logger.Warn().Ctx(ctx).Err(err).Msg("generation failed")
		text := MsgGeneration
		if s, ok := b.machine.Session(ev.User.ID); ok && s.State() == review.StateAwaitingRevision {
			b.send(ctx, ev.ChatID, Reply{Text: text + " Send the new text again, or press Cancel edit.", Buttons: cancelButtons()})
			return
		}
		b.send(ctx, ev.ChatID, Reply{Text: text, Menu: true})
	case failure.InvalidDecision:
		b.logger.Debug().Ctx(ctx).Err(err).Msg("invalid decision")
		b.invalidDecision(ctx, ev)
	default:
		b.logger.Error().Ctx(ctx).Err(err).Msg("request failed")
		b.send(ctx, ev.ChatID, Reply{Text: MsgFailed, Menu: true})
	}
}

func (b *Bot) invalidDecision(ctx context.Context, ev Event) {
	s, ok := b.machine.Session(ev.User.ID)
	if !ok {
		b.send(ctx, ev.ChatID, Reply{Text: MsgNoReview + " " + MsgMenu, Menu: true})
		return
	}

	switch s.State() {
	case review.StateAwaitingRevision:
		b.send(ctx, ev.ChatID, Reply{Text: MsgAwaitingRev, Buttons: cancelButtons()})
	case review.StateAwaitingDecision:
		b.represent(ctx, ev, MsgChoose)
	case review.StateFinished:
		b.finish(ctx, ev)
	}
}

func (b *Bot) send(ctx context.Context, chatID int64, reply Reply) {
	err := b.transport.Send(ctx, chatID, reply)
	if err != nil {
		b.logger.Error().Ctx(ctx).Err(err).Int64("chat_id", chatID).Msg("failed to send reply")
	}
}

func (b *Bot) remove(ctx context.Context, path string) {
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		b.logger.Warn().Ctx(ctx).Err(err).Str("path", path).Msg("failed to remove upload")
	}
}
