package chat

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path"
	"strings"
	"time"

	"pms/internal/domain/auth"
	"pms/internal/platform/storage"
)

const (
	defaultMessageLimit = 50
	maxMessageLimit     = 200
)

// Sealer encrypts message bodies at rest.
type Sealer interface {
	Configured() bool
	Seal(plain []byte) ([]byte, error)
	Open(sealed []byte) ([]byte, error)
}

// Blobs stores message attachments.
type Blobs interface {
	Save(ctx context.Context, dir, name string, r io.Reader) (storage.Object, error)
	Open(path string) (*os.File, error)
	Remove(path string) error
}

type Service struct {
	store  StoreAPI
	sealer Sealer
	blobs  Blobs
	Hub    *Hub
}

func NewService(store StoreAPI, sealer Sealer, blobs Blobs, hub *Hub) *Service {
	if hub == nil {
		hub = NewHub()
	}
	return &Service{store: store, sealer: sealer, blobs: blobs, Hub: hub}
}

// Create opens a conversation. Direct conversations are idempotent per pair of
// users; the boolean reports whether a new conversation was created.
func (s *Service) Create(ctx context.Context, actor auth.UserContext, in CreateInput) (Conversation, bool, error) {
	in, others, err := normalizeCreate(actor.UserID, in)
	if err != nil {
		return Conversation{}, false, err
	}
	var id string
	var created bool
	err = s.store.InTx(ctx, func(tx StoreAPI) error {
		var txErr error
		if in.Kind == KindDirect {
			id, created, txErr = tx.CreateDirect(ctx, DirectKey(actor.UserID, others[0]), actor.UserID, others)
			return txErr
		}
		id, txErr = tx.CreateGroup(ctx, in.Name, actor.UserID, others)
		created = true
		return txErr
	})
	if err != nil {
		return Conversation{}, false, err
	}
	c, err := s.store.GetConversation(ctx, id, actor.UserID)
	return c, created, err
}

func (s *Service) List(ctx context.Context, actor auth.UserContext) ([]Conversation, error) {
	convs, err := s.store.ListConversations(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if convs == nil {
		convs = []Conversation{}
	}
	return convs, nil
}

func (s *Service) requireMember(ctx context.Context, conversationID, userID string) error {
	if _, err := s.store.ConversationKind(ctx, conversationID); err != nil {
		return err
	}
	ok, err := s.store.IsMember(ctx, conversationID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotMember
	}
	return nil
}

// AddMembers adds users to a group conversation the actor belongs to.
func (s *Service) AddMembers(ctx context.Context, actor auth.UserContext, conversationID string, userIDs []string) (Conversation, error) {
	kind, err := s.store.ConversationKind(ctx, conversationID)
	if err != nil {
		return Conversation{}, err
	}
	if kind != KindGroup {
		return Conversation{}, ErrDirectImmutable
	}
	if err := s.requireMember(ctx, conversationID, actor.UserID); err != nil {
		return Conversation{}, err
	}
	others := otherMembers(actor.UserID, userIDs)
	if len(others) == 0 {
		return Conversation{}, ErrNoMembers
	}
	if err := s.store.AddMembers(ctx, conversationID, others); err != nil {
		return Conversation{}, err
	}
	return s.store.GetConversation(ctx, conversationID, actor.UserID)
}

// Send stores a message with an optional attachment and pushes it to the
// members' live connections.
func (s *Service) Send(ctx context.Context, actor auth.UserContext, in SendInput) (Message, error) {
	body := strings.TrimSpace(in.Body)
	if body == "" && in.File == nil {
		return Message{}, ErrEmptyMessage
	}
	if err := s.requireMember(ctx, in.ConversationID, actor.UserID); err != nil {
		return Message{}, err
	}

	raw := []byte(body)
	encrypted := false
	if s.sealer != nil && s.sealer.Configured() && len(raw) > 0 {
		sealed, err := s.sealer.Seal(raw)
		if err != nil {
			return Message{}, err
		}
		raw, encrypted = sealed, true
	}

	var att *Attachment
	if in.File != nil {
		obj, err := s.blobs.Save(ctx, path.Join("chat", in.ConversationID), in.FileName, in.File)
		if err != nil {
			return Message{}, err
		}
		att = &Attachment{Name: obj.Name, Size: obj.Size, ContentType: obj.ContentType, Path: obj.Path}
	}

	id, createdAt, err := s.store.InsertMessage(ctx, in.ConversationID, actor.UserID, raw, encrypted, att)
	if err != nil {
		if att != nil {
			if rmErr := s.blobs.Remove(att.Path); rmErr != nil {
				slog.Warn("chat attachment cleanup failed", "path", att.Path, "err", rmErr)
			}
		}
		return Message{}, err
	}
	if att != nil {
		att.URL = AttachmentURL(id)
	}
	msg := Message{
		ID:             id,
		ConversationID: in.ConversationID,
		SenderID:       actor.UserID,
		Body:           body,
		Attachment:     att,
		CreatedAt:      createdAt,
	}

	members, err := s.store.MemberIDs(ctx, in.ConversationID)
	if err != nil {
		slog.Warn("chat member lookup failed", "conversation", in.ConversationID, "err", err)
		return msg, nil
	}
	s.Hub.Publish(members, Event{Type: EventMessageNew, ConversationID: in.ConversationID, Message: &msg})
	return msg, nil
}

// Messages returns a page of history, oldest first, ending before the given
// time when set.
func (s *Service) Messages(ctx context.Context, actor auth.UserContext, conversationID string, before *time.Time, limit int) ([]Message, error) {
	if err := s.requireMember(ctx, conversationID, actor.UserID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultMessageLimit
	}
	if limit > maxMessageLimit {
		limit = maxMessageLimit
	}
	stored, err := s.store.ListMessages(ctx, conversationID, before, limit)
	if err != nil {
		return nil, err
	}
	out := make([]Message, 0, len(stored))
	for _, m := range stored {
		msg, err := s.open(m)
		if err != nil {
			return nil, err
		}
		out = append(out, msg)
	}
	return out, nil
}

func (s *Service) open(m storedMessage) (Message, error) {
	msg := m.Message
	if !m.encrypted {
		msg.Body = string(m.raw)
		return msg, nil
	}
	if s.sealer == nil || !s.sealer.Configured() {
		msg.Body = ""
		return msg, nil
	}
	plain, err := s.sealer.Open(m.raw)
	if err != nil {
		return Message{}, err
	}
	msg.Body = string(plain)
	return msg, nil
}

func (s *Service) MarkSeen(ctx context.Context, actor auth.UserContext, conversationID string) error {
	if err := s.requireMember(ctx, conversationID, actor.UserID); err != nil {
		return err
	}
	return s.store.MarkSeen(ctx, conversationID, actor.UserID)
}

func (s *Service) Unread(ctx context.Context, actor auth.UserContext) (Unread, error) {
	counts, err := s.store.UnreadCounts(ctx, actor.UserID)
	if err != nil {
		return Unread{}, err
	}
	out := Unread{Conversations: counts}
	for _, n := range counts {
		out.Total += n
	}
	return out, nil
}

// OpenAttachment returns a message attachment for a member of its
// conversation. The caller closes the handle.
func (s *Service) OpenAttachment(ctx context.Context, actor auth.UserContext, messageID string) (Attachment, *os.File, error) {
	m, err := s.store.GetMessage(ctx, messageID)
	if err != nil {
		return Attachment{}, nil, err
	}
	if m.Attachment == nil {
		return Attachment{}, nil, ErrMessageNotFound
	}
	if err := s.requireMember(ctx, m.ConversationID, actor.UserID); err != nil {
		return Attachment{}, nil, err
	}
	f, err := s.blobs.Open(m.Attachment.Path)
	if err != nil {
		return Attachment{}, nil, err
	}
	return *m.Attachment, f, nil
}
