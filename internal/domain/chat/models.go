package chat

import (
	"io"
	"time"
)

const (
	KindDirect = "direct"
	KindGroup  = "group"

	EventMessageNew = "message.new"
)

type Member struct {
	UserID     string     `json:"userId"`
	FullName   string     `json:"fullName"`
	Role       string     `json:"role"`
	LastSeenAt *time.Time `json:"lastSeenAt,omitempty"`
}

type Conversation struct {
	ID            string     `json:"id"`
	Kind          string     `json:"kind"`
	Name          string     `json:"name,omitempty"`
	CreatedBy     string     `json:"createdBy,omitempty"`
	Members       []Member   `json:"members"`
	Unread        int        `json:"unread"`
	LastMessageAt *time.Time `json:"lastMessageAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

type Attachment struct {
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	ContentType string `json:"contentType"`
	URL         string `json:"url"`
	Path        string `json:"-"`
}

type Message struct {
	ID             string      `json:"id"`
	ConversationID string      `json:"conversationId"`
	SenderID       string      `json:"senderId"`
	SenderName     string      `json:"senderName,omitempty"`
	Body           string      `json:"body"`
	Attachment     *Attachment `json:"attachment,omitempty"`
	CreatedAt      time.Time   `json:"createdAt"`
}

// storedMessage is a message row before its body is opened.
type storedMessage struct {
	Message
	raw       []byte
	encrypted bool
}

type Event struct {
	Type           string   `json:"type"`
	ConversationID string   `json:"conversationId"`
	Message        *Message `json:"message,omitempty"`
}

type CreateInput struct {
	Kind      string
	Name      string
	MemberIDs []string
}

type SendInput struct {
	ConversationID string
	Body           string
	FileName       string
	File           io.Reader
}

type Unread struct {
	Total         int            `json:"total"`
	Conversations map[string]int `json:"conversations"`
}
