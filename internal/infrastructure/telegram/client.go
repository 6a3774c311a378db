package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kirilljugatsu/letsextract-cleaner-bot/internal/ports"
)

const (
	defaultAPIURL  = "https://api.telegram.org"
	requestTimeout = 30 * time.Second
	errorBodyLimit = 1024
)

// Client talks to the Telegram Bot API over plain HTTPS.
type Client struct {
	apiURL   string
	botToken string
	client   *http.Client
}

var _ ports.Messenger = (*Client)(nil)

// NewClient registers the bot token. An empty apiURL selects the public API;
// a nil httpClient gets a timeout long enough for long polling.
func NewClient(apiURL, botToken string, httpClient *http.Client) *Client {
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 2 * requestTimeout}
	}
	return &Client{
		apiURL:   strings.TrimRight(apiURL, "/"),
		botToken: botToken,
		client:   httpClient,
	}
}

// GetUpdates long-polls for updates starting at offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error) {
	form := url.Values{}
	form.Set("offset", strconv.FormatInt(offset, 10))
	form.Set("timeout", strconv.Itoa(int(timeout.Seconds())))
	form.Set("allowed_updates", `["message"]`)

	var updates []Update
	if err := c.call(ctx, "getUpdates", form, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

// SendMessage posts plain text and returns the new message id.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) (int, error) {
	form := url.Values{}
	form.Set("chat_id", strconv.FormatInt(chatID, 10))
	form.Set("text", text)

	var msg Message
	if err := c.call(ctx, "sendMessage", form, &msg); err != nil {
		return 0, err
	}
	return msg.MessageID, nil
}

// DeleteMessage removes a message the bot sent earlier.
func (c *Client) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	form := url.Values{}
	form.Set("chat_id", strconv.FormatInt(chatID, 10))
	form.Set("message_id", strconv.Itoa(messageID))

	return c.call(ctx, "deleteMessage", form, nil)
}

// SendDocument uploads content as a file attachment.
func (c *Client) SendDocument(ctx context.Context, chatID int64, fileName, caption string, content io.Reader) error {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	if err := mw.WriteField("chat_id", strconv.FormatInt(chatID, 10)); err != nil {
		return fmt.Errorf("write chat_id: %w", err)
	}
	if caption != "" {
		if err := mw.WriteField("caption", caption); err != nil {
			return fmt.Errorf("write caption: %w", err)
		}
	}

	part, err := mw.CreateFormFile("document", fileName)
	if err != nil {
		return fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return fmt.Errorf("copy document: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.methodURL("sendDocument"), &body)
	if err != nil {
		return transportError("new request", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return c.do(req, "sendDocument", nil)
}

// GetFile resolves a file id to a downloadable path.
func (c *Client) GetFile(ctx context.Context, fileID string) (File, error) {
	form := url.Values{}
	form.Set("file_id", fileID)

	var file File
	if err := c.call(ctx, "getFile", form, &file); err != nil {
		return File{}, err
	}
	if file.FilePath == "" {
		return File{}, fmt.Errorf("getFile: empty file_path for %s", fileID)
	}
	return file, nil
}

// DownloadFile streams the file behind fileID into dst.
func (c *Client) DownloadFile(ctx context.Context, fileID string, dst io.Writer) error {
	file, err := c.GetFile(ctx, fileID)
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/file/bot%s/%s", c.apiURL, c.botToken, file.FilePath)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return transportError("new request", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return transportError("download file", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download file: telegram returned %s", resp.Status)
	}

	if _, err := io.Copy(dst, resp.Body); err != nil {
		return fmt.Errorf("copy file: %w", err)
	}
	return nil
}

func (c *Client) call(ctx context.Context, method string, form url.Values, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.methodURL(method), strings.NewReader(form.Encode()))
	if err != nil {
		return transportError("new request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return c.do(req, method, result)
}

func (c *Client) do(req *http.Request, method string, result any) error {
	if c.botToken == "" || c.client == nil {
		return fmt.Errorf("telegram client misconfigured")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return transportError(method, err)
	}
	defer resp.Body.Close()

	var payload apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("%s: telegram error %s", method, resp.Status)
		}
		return fmt.Errorf("%s: decode response: %w", method, err)
	}

	if !payload.OK {
		desc := payload.Description
		if len(desc) > errorBodyLimit {
			desc = desc[:errorBodyLimit]
		}
		return &APIError{Method: method, Code: payload.ErrorCode, Description: desc}
	}

	if result == nil || len(payload.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload.Result, result); err != nil {
		return fmt.Errorf("%s: decode result: %w", method, err)
	}
	return nil
}

// transportError drops the request URL, which carries the bot token, from
// net/http errors.
func transportError(op string, err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%s: %s: %w", op, strings.ToLower(urlErr.Op), urlErr.Err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (c *Client) methodURL(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", c.apiURL, c.botToken, method)
}

// APIError is a Bot API response with ok=false.
type APIError struct {
	Method      string
	Code        int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: telegram error %d: %s", e.Method, e.Code, e.Description)
}
