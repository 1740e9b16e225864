package chat

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"pms/internal/platform/db"
	"pms/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func (s *Store) InTx(ctx context.Context, fn func(StoreAPI) error) error {
	return querier.InTx(ctx, s.DB, func(q querier.Querier) error {
		return fn(NewStore(q))
	})
}

// CreateDirect returns the direct conversation for key, creating it on first
// use. The boolean reports whether it was created.
func (s *Store) CreateDirect(ctx context.Context, key, creator string, members []string) (string, bool, error) {
	var id string
	var created bool
	err := s.DB.QueryRow(ctx, `
    INSERT INTO conversations (kind, direct_key, created_by)
    VALUES ('direct', $1, $2)
    ON CONFLICT (direct_key) DO UPDATE SET direct_key = EXCLUDED.direct_key
    RETURNING id, (xmax = 0)
  `, key, creator).Scan(&id, &created)
	if err != nil {
		return "", false, err
	}
	if created {
		if err := s.AddMembers(ctx, id, append([]string{creator}, members...)); err != nil {
			return "", false, err
		}
	}
	return id, created, nil
}

func (s *Store) CreateGroup(ctx context.Context, name, creator string, members []string) (string, error) {
	var id string
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO conversations (kind, name, created_by)
    VALUES ('group', $1, $2)
    RETURNING id
  `, name, creator).Scan(&id); err != nil {
		return "", err
	}
	if err := s.AddMembers(ctx, id, append([]string{creator}, members...)); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) AddMembers(ctx context.Context, conversationID string, userIDs []string) error {
	for _, userID := range userIDs {
		_, err := s.DB.Exec(ctx, `
      INSERT INTO conversation_members (conversation_id, user_id)
      VALUES ($1, $2)
      ON CONFLICT DO NOTHING
    `, conversationID, userID)
		if db.IsForeignKeyViolation(err) {
			return ErrUserNotFound
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) ConversationKind(ctx context.Context, id string) (string, error) {
	var kind string
	err := s.DB.QueryRow(ctx, "SELECT kind FROM conversations WHERE id = $1", id).Scan(&kind)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	return kind, err
}

func (s *Store) IsMember(ctx context.Context, conversationID, userID string) (bool, error) {
	var ok bool
	err := s.DB.QueryRow(ctx, `
    SELECT EXISTS (SELECT 1 FROM conversation_members WHERE conversation_id = $1 AND user_id = $2)
  `, conversationID, userID).Scan(&ok)
	return ok, err
}

func (s *Store) MemberIDs(ctx context.Context, conversationID string) ([]string, error) {
	rows, err := s.DB.Query(ctx, "SELECT user_id FROM conversation_members WHERE conversation_id = $1", conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

const conversationSelect = `
    SELECT c.id, c.kind, c.name, COALESCE(c.created_by::text, ''), c.last_message_at, c.created_at,
           (SELECT COUNT(1) FROM messages m
            WHERE m.conversation_id = c.id
              AND m.sender_id IS DISTINCT FROM me.user_id
              AND m.created_at > COALESCE(me.last_seen_at, '-infinity'::timestamptz))
    FROM conversations c
    JOIN conversation_members me ON me.conversation_id = c.id AND me.user_id = $1`

func scanConversation(row pgx.Row) (Conversation, error) {
	var c Conversation
	err := row.Scan(&c.ID, &c.Kind, &c.Name, &c.CreatedBy, &c.LastMessageAt, &c.CreatedAt, &c.Unread)
	return c, err
}

func (s *Store) ListConversations(ctx context.Context, userID string) ([]Conversation, error) {
	rows, err := s.DB.Query(ctx, conversationSelect+`
    ORDER BY COALESCE(c.last_message_at, c.created_at) DESC
  `, userID)
	if err != nil {
		return nil, err
	}
	var out []Conversation
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := s.attachMembers(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) GetConversation(ctx context.Context, id, userID string) (Conversation, error) {
	c, err := scanConversation(s.DB.QueryRow(ctx, conversationSelect+` WHERE c.id = $2`, userID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Conversation{}, ErrNotFound
	}
	if err != nil {
		return Conversation{}, err
	}
	list := []Conversation{c}
	if err := s.attachMembers(ctx, list); err != nil {
		return Conversation{}, err
	}
	return list[0], nil
}

func (s *Store) attachMembers(ctx context.Context, convs []Conversation) error {
	if len(convs) == 0 {
		return nil
	}
	ids := make([]string, len(convs))
	index := make(map[string]int, len(convs))
	for i, c := range convs {
		ids[i] = c.ID
		index[c.ID] = i
		convs[i].Members = []Member{}
	}
	rows, err := s.DB.Query(ctx, `
    SELECT cm.conversation_id, cm.user_id, u.full_name, u.role, cm.last_seen_at
    FROM conversation_members cm
    JOIN users u ON u.id = cm.user_id
    WHERE cm.conversation_id::text = ANY($1)
    ORDER BY cm.joined_at
  `, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var convID string
		var m Member
		if err := rows.Scan(&convID, &m.UserID, &m.FullName, &m.Role, &m.LastSeenAt); err != nil {
			return err
		}
		if i, ok := index[convID]; ok {
			convs[i].Members = append(convs[i].Members, m)
		}
	}
	return rows.Err()
}

func (s *Store) InsertMessage(ctx context.Context, conversationID, senderID string, body []byte, encrypted bool, att *Attachment) (string, time.Time, error) {
	var path, name, mime string
	var size int64
	if att != nil {
		path, name, mime, size = att.Path, att.Name, att.ContentType, att.Size
	}
	var id string
	var createdAt time.Time
	err := s.DB.QueryRow(ctx, `
    INSERT INTO messages (conversation_id, sender_id, body, encrypted, attachment_path, attachment_name, attachment_size, attachment_mime)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    RETURNING id, created_at
  `, conversationID, senderID, body, encrypted, path, name, size, mime).Scan(&id, &createdAt)
	if err != nil {
		return "", time.Time{}, err
	}
	_, err = s.DB.Exec(ctx, `
    UPDATE conversations SET last_message_at = $2 WHERE id = $1
  `, conversationID, createdAt)
	return id, createdAt, err
}

const messageSelect = `
    SELECT m.id, m.conversation_id, COALESCE(m.sender_id::text, '') AS sender_id, COALESCE(u.full_name, '') AS sender_name,
           m.body, m.encrypted, m.attachment_path, m.attachment_name, m.attachment_size, m.attachment_mime, m.created_at
    FROM messages m
    LEFT JOIN users u ON u.id = m.sender_id`

func scanMessage(row pgx.Row) (storedMessage, error) {
	var m storedMessage
	var att Attachment
	err := row.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.SenderName,
		&m.raw, &m.encrypted, &att.Path, &att.Name, &att.Size, &att.ContentType, &m.CreatedAt)
	if err != nil {
		return m, err
	}
	if att.Path != "" {
		att.URL = AttachmentURL(m.ID)
		m.Attachment = &att
	}
	return m, nil
}

// AttachmentURL is the API path serving a message attachment.
func AttachmentURL(messageID string) string {
	return "/api/v1/chat/messages/" + messageID + "/attachment"
}

// ListMessages returns up to limit messages older than before, oldest first.
func (s *Store) ListMessages(ctx context.Context, conversationID string, before *time.Time, limit int) ([]storedMessage, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT * FROM (`+messageSelect+`
      WHERE m.conversation_id = $1 AND ($2::timestamptz IS NULL OR m.created_at < $2)
      ORDER BY m.created_at DESC
      LIMIT $3
    ) recent
    ORDER BY created_at
  `, conversationID, before, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []storedMessage
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) GetMessage(ctx context.Context, id string) (storedMessage, error) {
	m, err := scanMessage(s.DB.QueryRow(ctx, messageSelect+` WHERE m.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return m, ErrMessageNotFound
	}
	return m, err
}

func (s *Store) MarkSeen(ctx context.Context, conversationID, userID string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE conversation_members SET last_seen_at = now()
    WHERE conversation_id = $1 AND user_id = $2
  `, conversationID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotMember
	}
	return nil
}

func (s *Store) UnreadCounts(ctx context.Context, userID string) (map[string]int, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT me.conversation_id, COUNT(m.id)
    FROM conversation_members me
    JOIN messages m ON m.conversation_id = me.conversation_id
    WHERE me.user_id = $1
      AND m.sender_id IS DISTINCT FROM me.user_id
      AND m.created_at > COALESCE(me.last_seen_at, '-infinity'::timestamptz)
    GROUP BY me.conversation_id
  `, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]int{}
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		out[id] = n
	}
	return out, rows.Err()
}
