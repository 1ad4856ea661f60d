// Package telegram is a long-polling Telegram Bot API transport for the chat dialog.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

const (
	// APIEndpoint is the Bot API base URL.
	APIEndpoint = "https://api.telegram.org"

	// MaxDownloadBytes is the largest file the Bot API lets bots download.
	MaxDownloadBytes = 20 << 20

	requestTimeout = 60 * time.Second
)

// APIError is a failed Bot API call.
type APIError struct {
	Method      string
	Code        int
	Description string
	RetryAfter  int
}

func (e *APIError) Error() (msg string) {
	msg = fmt.Sprintf("telegram %s failed with code %d: %s", e.Method, e.Code, e.Description)
	return msg
}

// Client calls the Bot API.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Bot API client.
func NewClient(token string) (client *Client) {
	client = &Client{
		token:   token,
		baseURL: APIEndpoint,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
	return client
}

// GetUpdates long-polls for updates starting at offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) (updates []Update, err error) {
	req := getUpdatesRequest{
		Offset:         offset,
		Timeout:        int(timeout / time.Second),
		AllowedUpdates: []string{"message", "callback_query"},
	}

	err = c.call(ctx, "getUpdates", req, &updates)
	return updates, err
}

// SendMessage sends a text message.
func (c *Client) SendMessage(ctx context.Context, req SendMessageRequest) (msg Message, err error) {
	err = c.call(ctx, "sendMessage", req, &msg)
	return msg, err
}

// AnswerCallbackQuery acknowledges an inline button press.
func (c *Client) AnswerCallbackQuery(ctx context.Context, id string) (err error) {
	var ok bool
	err = c.call(ctx, "answerCallbackQuery", answerCallbackRequest{CallbackQueryID: id}, &ok)
	return err
}

// GetFile resolves a file ID to a downloadable path.
func (c *Client) GetFile(ctx context.Context, fileID string) (file File, err error) {
	err = c.call(ctx, "getFile", getFileRequest{FileID: fileID}, &file)
	return file, err
}

// DownloadFile saves a file returned by GetFile to dst.
func (c *Client) DownloadFile(ctx context.Context, file File, dst string) (err error) {
	if file.FilePath == "" {
		err = errors.Errorf("file %s has no download path", file.FileID)
		return err
	}

	if file.FileSize > MaxDownloadBytes {
		err = errors.Errorf("file is too large (%d bytes, limit %d)", file.FileSize, MaxDownloadBytes)
		return err
	}

	endpoint := c.baseURL + "/file/bot" + c.token + "/" + file.FilePath

	var httpReq *http.Request
	httpReq, err = http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		err = errors.Wrap(err, "failed to create HTTP request")
		return err
	}

	var resp *http.Response
	resp, err = c.httpClient.Do(httpReq)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		err = errors.Wrap(err, "file download failed")
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err = errors.Errorf("file download failed with status %d", resp.StatusCode)
		return err
	}

	err = os.MkdirAll(filepath.Dir(dst), 0750)
	if err != nil {
		err = errors.Wrapf(err, "failed to create download directory: %s", filepath.Dir(dst))
		return err
	}

	var out *os.File
	out, err = os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		err = errors.Wrapf(err, "failed to create file: %s", dst)
		return err
	}

	_, err = io.Copy(out, io.LimitReader(resp.Body, MaxDownloadBytes+1))
	closeErr := out.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		err = errors.Wrapf(err, "failed to write file: %s", dst)
		return err
	}

	return err
}

// SendDocument uploads a local file to a chat.
func (c *Client) SendDocument(ctx context.Context, chatID int64, path, caption string) (msg Message, err error) {
	var f *os.File
	f, err = os.Open(path)
	if err != nil {
		err = errors.Wrapf(err, "failed to open document: %s", path)
		return msg, err
	}
	defer f.Close()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	err = w.WriteField("chat_id", strconv.FormatInt(chatID, 10))
	if err == nil && caption != "" {
		err = w.WriteField("caption", caption)
	}
	if err != nil {
		err = errors.Wrap(err, "failed to build upload")
		return msg, err
	}

	var part io.Writer
	part, err = w.CreateFormFile("document", filepath.Base(path))
	if err != nil {
		err = errors.Wrap(err, "failed to build upload")
		return msg, err
	}

	_, err = io.Copy(part, f)
	if err != nil {
		err = errors.Wrapf(err, "failed to read document: %s", path)
		return msg, err
	}

	err = w.Close()
	if err != nil {
		err = errors.Wrap(err, "failed to build upload")
		return msg, err
	}

	err = c.do(ctx, "sendDocument", w.FormDataContentType(), &body, &msg)
	return msg, err
}

// call posts a JSON request to a Bot API method and decodes the result into out.
func (c *Client) call(ctx context.Context, method string, req any, out any) (err error) {
	var reqBody []byte
	reqBody, err = json.Marshal(req)
	if err != nil {
		err = errors.Wrapf(err, "failed to marshal %s request", method)
		return err
	}

	err = c.do(ctx, method, "application/json", bytes.NewReader(reqBody), out)
	return err
}

func (c *Client) do(ctx context.Context, method, contentType string, body io.Reader, out any) (err error) {
	endpoint := c.baseURL + "/bot" + c.token + "/" + method

	var httpReq *http.Request
	httpReq, err = http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		err = errors.Wrap(err, "failed to create HTTP request")
		return err
	}
	httpReq.Header.Set("Content-Type", contentType)

	var resp *http.Response
	resp, err = c.httpClient.Do(httpReq)
	if err != nil {
		// The URL carries the token; keep it out of logs.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		err = errors.Wrapf(err, "telegram %s request failed", method)
		return err
	}
	defer resp.Body.Close()

	var respBody []byte
	respBody, err = io.ReadAll(resp.Body)
	if err != nil {
		err = errors.Wrap(err, "failed to read response body")
		return err
	}

	var envelope apiResponse
	err = json.Unmarshal(respBody, &envelope)
	if err != nil {
		err = errors.Wrapf(err, "failed to parse telegram %s response (status %d)", method, resp.StatusCode)
		return err
	}

	if !envelope.OK {
		apiErr := &APIError{Method: method, Code: envelope.ErrorCode, Description: envelope.Description}
		if envelope.Parameters != nil {
			apiErr.RetryAfter = envelope.Parameters.RetryAfter
		}
		err = apiErr
		return err
	}

	if out != nil && len(envelope.Result) > 0 {
		err = json.Unmarshal(envelope.Result, out)
		if err != nil {
			err = errors.Wrapf(err, "failed to parse telegram %s result", method)
			return err
		}
	}

	return err
}
