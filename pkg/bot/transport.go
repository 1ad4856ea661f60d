package bot

import "context"

// Transport delivers replies to a chat and fetches uploads.
type Transport interface {
	// Send delivers a text reply. Transports split text that exceeds their message limit.
	Send(ctx context.Context, chatID int64, reply Reply) (err error)
	// SendDocument uploads a local file.
	SendDocument(ctx context.Context, chatID int64, path, caption string) (err error)
	// Download saves an uploaded file locally and returns its path.
	Download(ctx context.Context, att Attachment) (path string, err error)
}

// Reply is an outgoing message.
type Reply struct {
	Text string
	// Menu shows the mode menu keyboard.
	Menu bool
	// Buttons are inline buttons, one slice per row.
	Buttons [][]Button
}

// Button is an inline button that sends Data back as a callback.
type Button struct {
	Label string
	Data  string
}

// User identifies the person behind an event.
type User struct {
	ID       int64
	Username string
	Name     string
}

// Attachment is an uploaded file not yet downloaded.
type Attachment struct {
	FileID   string
	FileName string
	Size     int64
}

// Event is one incoming message, upload or button press.
type Event struct {
	User   User
	ChatID int64
	Text   string
	// Document is set for uploads.
	Document *Attachment
	// Callback is the data of a pressed inline button.
	Callback string
}
