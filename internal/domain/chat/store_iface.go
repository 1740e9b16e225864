package chat

import (
	"context"
	"time"
)

type StoreAPI interface {
	InTx(ctx context.Context, fn func(StoreAPI) error) error

	CreateDirect(ctx context.Context, key, creator string, members []string) (string, bool, error)
	CreateGroup(ctx context.Context, name, creator string, members []string) (string, error)
	AddMembers(ctx context.Context, conversationID string, userIDs []string) error
	ConversationKind(ctx context.Context, id string) (string, error)
	IsMember(ctx context.Context, conversationID, userID string) (bool, error)
	MemberIDs(ctx context.Context, conversationID string) ([]string, error)
	ListConversations(ctx context.Context, userID string) ([]Conversation, error)
	GetConversation(ctx context.Context, id, userID string) (Conversation, error)

	InsertMessage(ctx context.Context, conversationID, senderID string, body []byte, encrypted bool, att *Attachment) (string, time.Time, error)
	ListMessages(ctx context.Context, conversationID string, before *time.Time, limit int) ([]storedMessage, error)
	GetMessage(ctx context.Context, id string) (storedMessage, error)
	MarkSeen(ctx context.Context, conversationID, userID string) error
	UnreadCounts(ctx context.Context, userID string) (map[string]int, error)
}

var _ StoreAPI = (*Store)(nil)
