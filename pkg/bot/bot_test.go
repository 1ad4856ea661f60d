package bot

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nikogura/cv-coach/pkg/coach"
	"github.com/nikogura/cv-coach/pkg/llm"
	"github.com/nikogura/cv-coach/pkg/review"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

const (
	adminID = int64(1)
	userID  = int64(42)

	stepCritique = "Impression.\n\nSummary/Profile\nGood intro.\n\nSkills/Qualifications\nStrong.\n\n" +
		"📊 CV Score Breakdown:\n• Summary/Profile: 6\n• Skills & Qualifications: 8\n\n" +
		"🌟 Overall Score: 70/100\n\n📌 Recommendations:\n• Add metrics."
)

type sentReply struct {
	chatID int64
	reply  Reply
}

type fakeTransport struct {
	mu    sync.Mutex
	dir   string
	files map[string]string
	sent  []sentReply
	docs  []string
}

func (f *fakeTransport) Send(_ context.Context, chatID int64, reply Reply) (err error) {
	f.mu.Lock()
	f.sent = append(f.sent, sentReply{chatID: chatID, reply: reply})
	f.mu.Unlock()
	return err
}

func (f *fakeTransport) SendDocument(_ context.Context, _ int64, path, _ string) (err error) {
	f.mu.Lock()
	f.docs = append(f.docs, path)
	f.mu.Unlock()
	return err
}

func (f *fakeTransport) Download(_ context.Context, att Attachment) (path string, err error) {
	content, ok := f.files[att.FileID]
	if !ok {
		err = errors.Errorf("no file %s", att.FileID)
		return path, err
	}
	path = filepath.Join(f.dir, att.FileID+"_"+att.FileName)
	err = os.WriteFile(path, []byte(content), 0600)
	return path, err
}

// texts returns and forgets everything sent so far.
func (f *fakeTransport) texts() (out []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sent {
		out = append(out, s.reply.Text)
	}
	f.sent = nil
	return out
}

func (f *fakeTransport) last() (s sentReply) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s = f.sent[len(f.sent)-1]
	return s
}

type fakeGenerator struct {
	mu       sync.Mutex
	critique string
	reply    string
	err      error
	prompts  []string
}

func (g *fakeGenerator) Generate(_ context.Context, prompt string) (text string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		err = g.err
		return text, err
	}
	if strings.Contains(prompt, "step-by-step CV review") {
		text = g.critique
		return text, err
	}
	text = g.reply
	return text, err
}

type filePublisher struct {
	dir      string
	prefixes []string
	texts    []string
}

func (p *filePublisher) Publish(text string, _ int64, prefix string, _ time.Time) (path string, err error) {
	p.prefixes = append(p.prefixes, prefix)
	p.texts = append(p.texts, text)
	path = filepath.Join(p.dir, prefix+".pdf")
	err = os.WriteFile(path, []byte("%PDF"), 0600)
	return path, err
}

type harness struct {
	bot       *Bot
	transport *fakeTransport
	gen       *fakeGenerator
	pub       *filePublisher
}

func newHarness(t *testing.T) (h *harness) {
	t.Helper()
	dir := t.TempDir()

	h = &harness{
		transport: &fakeTransport{dir: dir, files: map[string]string{
			"cv":      "Jane Doe\nGo engineer, 7 years",
			"vacancy": "Senior SRE at Example Ltd",
			"blank":   "   ",
		}},
		gen: &fakeGenerator{critique: stepCritique, reply: "Impression."},
		pub: &filePublisher{dir: dir},
	}

	svc := coach.New(h.gen, h.pub, coach.WithLogger(zerolog.Nop()))
	machine := review.NewMachine(review.NewMemoryStore(), review.VerbatimReviser{}, review.WithLogger(zerolog.Nop()))
	h.bot = New(h.transport, svc, machine, Access{AdminID: adminID, AllowedUsers: []int64{userID}}, WithLogger(zerolog.Nop()))

	return h
}

func (h *harness) text(text string) {
	h.bot.Handle(context.Background(), Event{User: User{ID: userID}, ChatID: userID, Text: text})
}

func (h *harness) upload(fileID, name string) {
	h.bot.Handle(context.Background(), Event{User: User{ID: userID}, ChatID: userID, Document: &Attachment{FileID: fileID, FileName: name}})
}

func (h *harness) press(data string) {
	h.bot.Handle(context.Background(), Event{User: User{ID: userID}, ChatID: userID, Callback: data})
}

func TestUnauthorizedUserIsDeniedAndAdminNotified(t *testing.T) {
	h := newHarness(t)

	h.bot.Handle(context.Background(), Event{User: User{ID: 99, Username: "eve", Name: "Eve"}, ChatID: 990, Text: "hi"})

	require.Len(t, h.transport.sent, 2)
	assert.Equal(t, adminID, h.transport.sent[0].chatID)
	assert.Contains(t, h.transport.sent[0].reply.Text, "ID=99, Username=eve, Name=Eve")
	assert.Contains(t, h.transport.sent[0].reply.Text, "Message: hi")
	assert.Equal(t, int64(990), h.transport.sent[1].chatID)
	assert.Equal(t, MsgDenied, h.transport.sent[1].reply.Text)
	assert.Empty(t, h.gen.prompts)
}

func TestAdminIsAlwaysAllowed(t *testing.T) {
	h := newHarness(t)

	h.bot.Handle(context.Background(), Event{User: User{ID: adminID}, ChatID: adminID, Text: "/start"})

	s := h.transport.last()
	assert.Equal(t, MsgMenu, s.reply.Text)
	assert.True(t, s.reply.Menu)
}

func TestAnalysisFlowWithPDF(t *testing.T) {
	h := newHarness(t)

	h.text(LabelAnalysis)
	assert.Equal(t, []string{"Please upload your CV"}, h.transport.texts())

	h.upload("cv", "cv.txt")
	texts := h.transport.texts()
	require.Len(t, texts, 3)
	assert.Equal(t, MsgProcessing, texts[0])
	assert.Equal(t, llm.UKNotice(llm.English)+"\n\nImpression.", texts[1])
	assert.Equal(t, MsgPDFOffer, texts[2])
	assert.Equal(t, []string{"cv_analysis"}, h.pub.prefixes)

	require.Len(t, h.gen.prompts, 1)
	assert.Contains(t, h.gen.prompts[0], "Jane Doe")

	h.press(CallbackPDF)
	require.Len(t, h.transport.docs, 1)
	assert.Equal(t, filepath.Join(h.pub.dir, "cv_analysis.pdf"), h.transport.docs[0])
}

func TestUploadIsRemovedAfterProcessing(t *testing.T) {
	h := newHarness(t)

	h.text(LabelHR)
	h.upload("cv", "cv.txt")

	_, err := os.Stat(filepath.Join(h.transport.dir, "cv_cv.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestMatchTakesVacancyThenCV(t *testing.T) {
	h := newHarness(t)

	h.text(LabelMatch)
	h.text("We need a Kubernetes expert")
	texts := h.transport.texts()
	assert.Equal(t, MsgSendCV, texts[len(texts)-1])
	assert.Empty(t, h.gen.prompts)

	h.upload("cv", "cv.txt")
	require.Len(t, h.gen.prompts, 1)
	assert.Contains(t, h.gen.prompts[0], "We need a Kubernetes expert")
	assert.Contains(t, h.gen.prompts[0], "Jane Doe")
	assert.Equal(t, []string{"cv_match"}, h.pub.prefixes)

	// The vacancy is used once; the next upload starts a new pair.
	h.transport.texts()
	h.upload("vacancy", "vacancy.txt")
	assert.Equal(t, []string{MsgSendCV}, h.transport.texts())
	assert.Len(t, h.gen.prompts, 1)
}

func TestCoverLetterVacancyAsFile(t *testing.T) {
	h := newHarness(t)

	h.text(LabelCover)
	h.upload("vacancy", "vacancy.txt")
	h.upload("cv", "cv.txt")

	require.Len(t, h.gen.prompts, 1)
	assert.Contains(t, h.gen.prompts[0], "Senior SRE at Example Ltd")
	assert.Equal(t, []string{"cover_letter"}, h.pub.prefixes)
}

func TestStepByStepReview(t *testing.T) {
	h := newHarness(t)

	h.text(LabelStep)
	h.upload("cv", "cv.txt")

	first := h.transport.last()
	assert.Contains(t, first.reply.Text, "Section 1 of 2: Summary/Profile")
	assert.Contains(t, first.reply.Text, "Good intro.")
	assert.Contains(t, first.reply.Text, "Score: 6 / 10")
	assert.Equal(t, reviewButtons(), first.reply.Buttons)

	h.press(CallbackEdit)
	editing := h.transport.last()
	assert.Contains(t, editing.reply.Text, "Send the new text for Summary/Profile")
	assert.Equal(t, cancelButtons(), editing.reply.Buttons)

	h.text("Seasoned Go engineer.")
	second := h.transport.last()
	assert.Contains(t, second.reply.Text, "Section 2 of 2: Skills/Qualifications")

	h.transport.texts()
	h.text("skip")
	texts := h.transport.texts()
	require.Len(t, texts, 3)
	assert.Equal(t, MsgFinished, texts[0])
	assert.Contains(t, texts[1], "Seasoned Go engineer.")
	assert.Contains(t, texts[1], "Strong.")
	assert.NotContains(t, texts[1], "Good intro.")
	assert.Equal(t, MsgPDFOffer, texts[2])
	assert.Equal(t, []string{"step_by_step"}, h.pub.prefixes)

	_, ok := h.bot.machine.Session(userID)
	assert.False(t, ok)
}

func TestStepCancelEditShowsSectionAgain(t *testing.T) {
	h := newHarness(t)

	h.text(LabelStep)
	h.upload("cv", "cv.txt")
	h.press(CallbackEdit)
	h.press(CallbackCancel)

	s := h.transport.last()
	assert.Contains(t, s.reply.Text, "Section 1 of 2")
	assert.Equal(t, reviewButtons(), s.reply.Buttons)
}

func TestDecisionWordsWhileAwaitingRevision(t *testing.T) {
	h := newHarness(t)

	h.text(LabelStep)
	h.upload("cv", "cv.txt")
	h.press(CallbackEdit)

	for _, word := range []string{"skip", "Edit"} {
		h.transport.texts()
		h.text(word)
		assert.Equal(t, []string{MsgAwaitingRev}, h.transport.texts(), word)

		s, ok := h.bot.machine.Session(userID)
		require.True(t, ok)
		assert.Equal(t, review.StateAwaitingRevision, s.State())
		assert.Equal(t, 0, s.Cursor)
		assert.Equal(t, "Good intro.", s.Document.Sections[0].Body)
		assert.False(t, s.Document.Sections[0].Revised)
	}

	h.text("cancel")
	s, ok := h.bot.machine.Session(userID)
	require.True(t, ok)
	assert.Equal(t, review.StateAwaitingDecision, s.State())
	assert.Contains(t, h.transport.last().reply.Text, "Section 1 of 2")
}

func TestStepUnsplittableCritiqueIsDeliveredWhole(t *testing.T) {
	h := newHarness(t)
	h.gen.critique = "Just some prose about the CV."

	h.text(LabelStep)
	h.transport.texts()
	h.upload("cv", "cv.txt")

	texts := h.transport.texts()
	assert.Contains(t, texts, MsgUnsplit)
	assert.Contains(t, texts, "Just some prose about the CV.")
}

func TestTypedTextDuringDecisionAsksForChoice(t *testing.T) {
	h := newHarness(t)

	h.text(LabelStep)
	h.upload("cv", "cv.txt")
	h.transport.texts()

	h.text("what now?")
	texts := h.transport.texts()
	require.Len(t, texts, 2)
	assert.Equal(t, MsgChoose, texts[0])
	assert.Contains(t, texts[1], "Section 1 of 2")
}

func TestSelectingModeDiscardsReview(t *testing.T) {
	h := newHarness(t)

	h.text(LabelStep)
	h.upload("cv", "cv.txt")
	h.transport.texts()

	h.text(LabelAnalysis)
	assert.Equal(t, []string{MsgDiscarded, "Please upload your CV"}, h.transport.texts())

	_, ok := h.bot.machine.Session(userID)
	assert.False(t, ok)
}

func TestReviewButtonWithoutReview(t *testing.T) {
	h := newHarness(t)

	h.press(CallbackSkip)
	assert.Equal(t, []string{MsgNoReview + " " + MsgMenu}, h.transport.texts())
}

func TestPDFWithoutResult(t *testing.T) {
	h := newHarness(t)

	h.press(CallbackPDF)
	assert.Equal(t, []string{MsgPDFMissing}, h.transport.texts())
	assert.Empty(t, h.transport.docs)
}

func TestFailures(t *testing.T) {
	t.Run("generation", func(t *testing.T) {
		h := newHarness(t)
		h.gen.err = errors.New("upstream timeout")

		h.text(LabelAnalysis)
		h.upload("cv", "cv.txt")
		assert.Equal(t, MsgGeneration, h.transport.last().reply.Text)
	})

	t.Run("extraction", func(t *testing.T) {
		h := newHarness(t)

		h.text(LabelAnalysis)
		h.upload("blank", "cv.txt")
		assert.Equal(t, MsgExtraction, h.transport.last().reply.Text)
		assert.Empty(t, h.gen.prompts)
	})

	t.Run("unsupported file", func(t *testing.T) {
		h := newHarness(t)

		h.text(LabelAnalysis)
		h.upload("cv", "cv.exe")
		assert.Equal(t, MsgUnsupported, h.transport.last().reply.Text)
	})

	t.Run("upload before choosing a mode", func(t *testing.T) {
		h := newHarness(t)

		h.upload("cv", "cv.txt")
		assert.Equal(t, MsgMenu, h.transport.last().reply.Text)
	})
}

func TestCancelCommand(t *testing.T) {
	h := newHarness(t)

	h.text(LabelStep)
	h.upload("cv", "cv.txt")
	h.text("/cancel")

	_, ok := h.bot.machine.Session(userID)
	assert.False(t, ok)
	assert.True(t, h.transport.last().reply.Menu)
}

func TestRunSweeperDropsIdleReviews(t *testing.T) {
	h := newHarness(t)

	h.text(LabelStep)
	h.upload("cv", "cv.txt")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.bot.RunSweeper(ctx, 5*time.Millisecond, -time.Hour)
		close(done)
	}()

	require.Eventually(t, func() bool {
		_, ok := h.bot.machine.Session(userID)
		return !ok
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done
}

func TestResolveTypedVacancyKeepsText(t *testing.T) {
	text, err := ResolveTypedVacancy(context.Background(), "  /etc/passwd  ")
	require.NoError(t, err)
	assert.Equal(t, "/etc/passwd", text)
}

func TestMenuModes(t *testing.T) {
	for _, row := range MenuRows() {
		for _, label := range row {
			mode, ok := ModeForLabel(label)
			require.True(t, ok, label)
			assert.True(t, mode.Valid())
		}
	}
}
