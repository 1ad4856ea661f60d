package telegram

import (
	"context"
	"path/filepath"
	"strings"
	"unicode/utf16"

	"github.com/nikogura/cv-coach/pkg/bot"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// MaxMessageChars is the split size for outgoing text, below the Bot API's 4096 limit.
const MaxMessageChars = 4000

// Transport implements bot.Transport over the Bot API.
type Transport struct {
	client      *Client
	downloadDir string
	menu        [][]string
	logger      zerolog.Logger
}

// NewTransport creates a transport that stores uploads under downloadDir and shows menu as
// the reply keyboard.
func NewTransport(client *Client, downloadDir string, menu [][]string, logger zerolog.Logger) (t *Transport) {
	t = &Transport{
		client:      client,
		downloadDir: downloadDir,
		menu:        menu,
		logger:      logger,
	}
	return t
}

// Send implements bot.Transport. Long text goes out in several messages; keyboards are
// attached to the last one.
func (t *Transport) Send(ctx context.Context, chatID int64, reply bot.Reply) (err error) {
	chunks := SplitText(reply.Text, MaxMessageChars)
	for i, chunk := range chunks {
		req := SendMessageRequest{ChatID: chatID, Text: chunk}
		if i == len(chunks)-1 {
			req.ReplyMarkup = t.markup(reply)
		}

		_, err = t.client.SendMessage(ctx, req)
		if err != nil {
			err = errors.Wrapf(err, "failed to send message part %d of %d", i+1, len(chunks))
			return err
		}
	}
	return err
}

// SendDocument implements bot.Transport.
func (t *Transport) SendDocument(ctx context.Context, chatID int64, path, caption string) (err error) {
	_, err = t.client.SendDocument(ctx, chatID, path, caption)
	return err
}

// Download implements bot.Transport.
func (t *Transport) Download(ctx context.Context, att bot.Attachment) (path string, err error) {
	if att.Size > MaxDownloadBytes {
		err = errors.Errorf("file is too large (%d MB, limit %d MB)", att.Size>>20, MaxDownloadBytes>>20)
		return path, err
	}

	var file File
	file, err = t.client.GetFile(ctx, att.FileID)
	if err != nil {
		return path, err
	}

	name := filepath.Base(att.FileName)
	if name == "." || name == string(filepath.Separator) || name == "" {
		name = filepath.Base(file.FilePath)
	}
	path = filepath.Join(t.downloadDir, att.FileID+"_"+name)

	err = t.client.DownloadFile(ctx, file, path)
	return path, err
}

// EventHandler consumes bot events.
type EventHandler interface {
	Handle(ctx context.Context, ev bot.Event)
}

// Handler adapts updates to bot events. Button presses are acknowledged first so the
// client stops its spinner.
func (t *Transport) Handler(h EventHandler) (handler Handler) {
	handler = func(ctx context.Context, u Update) {
		if u.CallbackQuery != nil {
			err := t.client.AnswerCallbackQuery(ctx, u.CallbackQuery.ID)
			if err != nil {
				t.logger.Warn().Err(err).Msg("failed to answer callback query")
			}
		}

		ev, ok := EventFromUpdate(u)
		if !ok {
			t.logger.Debug().Int64("update_id", u.UpdateID).Msg("ignoring update")
			return
		}
		h.Handle(ctx, ev)
	}
	return handler
}

func (t *Transport) markup(reply bot.Reply) (markup any) {
	if len(reply.Buttons) > 0 {
		inline := InlineKeyboardMarkup{}
		for _, row := range reply.Buttons {
			var buttons []InlineKeyboardButton
			for _, b := range row {
				buttons = append(buttons, InlineKeyboardButton{Text: b.Label, CallbackData: b.Data})
			}
			inline.InlineKeyboard = append(inline.InlineKeyboard, buttons)
		}
		markup = inline
		return markup
	}

	if reply.Menu && len(t.menu) > 0 {
		keyboard := ReplyKeyboardMarkup{ResizeKeyboard: true}
		for _, row := range t.menu {
			var keys []KeyboardButton
			for _, label := range row {
				keys = append(keys, KeyboardButton{Text: label})
			}
			keyboard.Keyboard = append(keyboard.Keyboard, keys)
		}
		markup = keyboard
	}

	return markup
}

// EventFromUpdate converts an update into a bot event. Updates without a sender are dropped.
func EventFromUpdate(u Update) (ev bot.Event, ok bool) {
	switch {
	case u.CallbackQuery != nil:
		q := u.CallbackQuery
		ev = bot.Event{User: botUser(q.From), ChatID: q.From.ID, Callback: q.Data}
		if q.Message != nil {
			ev.ChatID = q.Message.Chat.ID
		}
		ok = true
	case u.Message != nil && u.Message.From != nil:
		m := u.Message
		ev = bot.Event{User: botUser(*m.From), ChatID: m.Chat.ID, Text: m.Text}
		if m.Document != nil {
			ev.Document = &bot.Attachment{FileID: m.Document.FileID, FileName: m.Document.FileName, Size: m.Document.FileSize}
			ev.Text = m.Caption
		}
		ok = true
	}
	return ev, ok
}

func botUser(u User) (user bot.User) {
	user = bot.User{
		ID:       u.ID,
		Username: u.Username,
		Name:     strings.TrimSpace(u.FirstName + " " + u.LastName),
	}
	return user
}

// SplitText cuts text into chunks of at most limit UTF-16 units, breaking between lines.
// A single line longer than limit is cut between characters.
func SplitText(text string, limit int) (chunks []string) {
	if text == "" {
		chunks = []string{""}
		return chunks
	}

	var (
		current strings.Builder
		size    int
	)

	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
			size = 0
		}
	}

	for _, line := range strings.Split(text, "\n") {
		lineSize := utf16Len(line)

		sep := 0
		if current.Len() > 0 {
			sep = 1
		}

		if size+sep+lineSize <= limit {
			if sep == 1 {
				current.WriteByte('\n')
			}
			current.WriteString(line)
			size += sep + lineSize
			continue
		}

		flush()

		for utf16Len(line) > limit {
			head, rest := cutUTF16(line, limit)
			chunks = append(chunks, head)
			line = rest
		}
		current.WriteString(line)
		size = utf16Len(line)
	}
	flush()

	if len(chunks) == 0 {
		chunks = []string{""}
	}

	return chunks
}

func utf16Len(s string) (n int) {
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

// cutUTF16 splits s after at most limit UTF-16 units without breaking a character.
func cutUTF16(s string, limit int) (head, rest string) {
	n := 0
	for i, r := range s {
		w := utf16.RuneLen(r)
		if n+w > limit {
			head, rest = s[:i], s[i:]
			return head, rest
		}
		n += w
	}
	head = s
	return head, rest
}
