package telegram

import (
	"encoding/json"

	"github.com/kirilljugatsu/letsextract-cleaner-bot/internal/domain"
)

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	ErrorCode   int             `json:"error_code"`
	Description string          `json:"description"`
}

// Update is a single Bot API update; only messages are consumed.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message"`
}

// Message is the subset of a Bot API message the bot reads.
type Message struct {
	MessageID int       `json:"message_id"`
	From      *User     `json:"from"`
	Chat      Chat      `json:"chat"`
	Text      string    `json:"text"`
	Document  *Document `json:"document"`
}

// User identifies the sender.
type User struct {
	ID int64 `json:"id"`
}

// Chat identifies the conversation.
type Chat struct {
	ID int64 `json:"id"`
}

// Document is an attached file.
type Document struct {
	FileID   string `json:"file_id"`
	FileName string `json:"file_name"`
	FileSize int64  `json:"file_size"`
}

// File is the result of getFile.
type File struct {
	FileID   string `json:"file_id"`
	FileSize int64  `json:"file_size"`
	FilePath string `json:"file_path"`
}

func (m *Message) toIncoming() domain.Incoming {
	in := domain.Incoming{
		ChatID:    m.Chat.ID,
		MessageID: m.MessageID,
		Text:      m.Text,
	}
	if m.From != nil {
		in.UserID = m.From.ID
	}
	if m.Document != nil {
		in.Document = &domain.Document{
			FileID:   m.Document.FileID,
			FileName: m.Document.FileName,
			FileSize: m.Document.FileSize,
		}
	}
	return in
}
