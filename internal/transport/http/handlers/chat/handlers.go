package chathandler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/go-chi/chi/v5"

	"pms/internal/domain/chat"
	"pms/internal/platform/storage"
	"pms/internal/transport/http/api"
	"pms/internal/transport/http/middleware"
	"pms/internal/transport/http/shared"
)

const (
	multipartMemory = 8 << 20
	wsBuffer        = 64
	wsWriteTimeout  = 5 * time.Second
)

type Handler struct {
	Service        *chat.Service
	OriginPatterns []string
}

func NewHandler(service *chat.Service, originPatterns []string) *Handler {
	return &Handler{Service: service, OriginPatterns: originPatterns}
}

type createRequest struct {
	Kind      string   `json:"kind" validate:"required,oneof=direct group"`
	Name      string   `json:"name" validate:"max=200"`
	MemberIDs []string `json:"memberIds" validate:"required,min=1,dive,uuid"`
}

type membersRequest struct {
	UserIDs []string `json:"userIds" validate:"required,min=1,dive,uuid"`
}

type messageRequest struct {
	Body string `json:"body" validate:"max=10000"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/chat", func(r chi.Router) {
		r.Get("/conversations", h.handleList)
		r.Post("/conversations", h.handleCreate)
		r.Post("/conversations/{conversationID}/members", h.handleAddMembers)
		r.Get("/conversations/{conversationID}/messages", h.handleMessages)
		r.Post("/conversations/{conversationID}/messages", h.handleSend)
		r.Post("/conversations/{conversationID}/seen", h.handleSeen)
		r.Get("/messages/{messageID}/attachment", h.handleAttachment)
		r.Get("/unread", h.handleUnread)
		r.Get("/ws", h.handleWS)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	convs, err := h.Service.List(r.Context(), user)
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	api.Success(w, convs, reqID)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	var payload createRequest
	if !shared.DecodeAndValidate(w, r, &payload, reqID) {
		return
	}

	conv, created, err := h.Service.Create(r.Context(), user, chat.CreateInput{
		Kind:      payload.Kind,
		Name:      strings.TrimSpace(payload.Name),
		MemberIDs: payload.MemberIDs,
	})
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	if created {
		api.Created(w, conv, reqID)
		return
	}
	api.Success(w, conv, reqID)
}

func (h *Handler) handleAddMembers(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	var payload membersRequest
	if !shared.DecodeAndValidate(w, r, &payload, reqID) {
		return
	}
	conversationID, ok := shared.PathUUID(w, r, "conversationID", reqID)
	if !ok {
		return
	}
	conv, err := h.Service.AddMembers(r.Context(), user, conversationID, payload.UserIDs)
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	api.Success(w, conv, reqID)
}

func (h *Handler) handleMessages(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	var before *time.Time
	if raw := shared.QueryString(r, "before"); raw != "" {
		parsed, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "before", Reason: "must be an RFC 3339 timestamp"}})
			return
		}
		before = &parsed
	}
	limit, ok := shared.QueryInt(r, "limit", 0)
	if !ok {
		shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "limit", Reason: "must be an integer"}})
		return
	}

	conversationID, ok := shared.PathUUID(w, r, "conversationID", reqID)
	if !ok {
		return
	}
	msgs, err := h.Service.Messages(r.Context(), user, conversationID, before, limit)
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	api.Success(w, msgs, reqID)
}

// handleSend accepts a JSON body or a multipart form with an optional file.
func (h *Handler) handleSend(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	conversationID, ok := shared.PathUUID(w, r, "conversationID", reqID)
	if !ok {
		return
	}
	in := chat.SendInput{ConversationID: conversationID}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				api.Fail(w, http.StatusRequestEntityTooLarge, "payload_too_large", "upload too large", reqID)
				return
			}
			api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid multipart form", reqID)
			return
		}
		defer r.MultipartForm.RemoveAll()
		in.Body = r.FormValue("body")
		file, header, err := r.FormFile("file")
		if err == nil {
			defer file.Close()
			in.File = file
			in.FileName = header.Filename
		} else if !errors.Is(err, http.ErrMissingFile) {
			api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid attachment", reqID)
			return
		}
	} else {
		var payload messageRequest
		if !shared.DecodeAndValidate(w, r, &payload, reqID) {
			return
		}
		in.Body = payload.Body
	}

	msg, err := h.Service.Send(r.Context(), user, in)
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	api.Created(w, msg, reqID)
}

func (h *Handler) handleSeen(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	conversationID, ok := shared.PathUUID(w, r, "conversationID", reqID)
	if !ok {
		return
	}
	if err := h.Service.MarkSeen(r.Context(), user, conversationID); err != nil {
		writeError(w, err, reqID)
		return
	}
	api.Success(w, map[string]string{"status": "seen"}, reqID)
}

func (h *Handler) handleUnread(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	unread, err := h.Service.Unread(r.Context(), user)
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	api.Success(w, unread, reqID)
}

func (h *Handler) handleAttachment(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	messageID, ok := shared.PathUUID(w, r, "messageID", reqID)
	if !ok {
		return
	}
	att, handle, err := h.Service.OpenAttachment(r.Context(), user, messageID)
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	defer handle.Close()

	if att.ContentType != "" {
		w.Header().Set("Content-Type", att.ContentType)
	}
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": att.Name}))
	if _, err := io.Copy(w, handle); err != nil {
		slog.Warn("chat attachment write failed", "err", err)
	}
}

// handleWS streams message.new events for the caller until either side
// closes. Inbound frames are read only to notice the close.
func (h *Handler) handleWS(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	opts := &websocket.AcceptOptions{}
	if len(h.OriginPatterns) > 0 {
		opts.OriginPatterns = h.OriginPatterns
	}
	conn, err := websocket.Accept(w, r, opts)
	if err != nil {
		slog.Warn("websocket accept failed", "err", err)
		return
	}
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	sub := h.Service.Hub.Subscribe(user.UserID, wsBuffer)
	defer h.Service.Hub.Unsubscribe(user.UserID, sub)

	_ = wsjson.Write(ctx, conn, chat.Event{Type: "ready"})
	readErr := make(chan error, 1)
	go func() {
		for {
			if _, _, err := conn.Read(ctx); err != nil {
				readErr <- err
				return
			}
		}
	}()
	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "closed")
			return
		case <-readErr:
			_ = conn.Close(websocket.StatusNormalClosure, "closed")
			return
		case evt, ok := <-sub:
			if !ok {
				_ = conn.Close(websocket.StatusNormalClosure, "closed")
				return
			}
			writeCtx, cancelWrite := context.WithTimeout(ctx, wsWriteTimeout)
			err := wsjson.Write(writeCtx, conn, evt)
			cancelWrite()
			if err != nil {
				_ = conn.Close(websocket.StatusNormalClosure, "write_failed")
				return
			}
		}
	}
}

func writeError(w http.ResponseWriter, err error, reqID string) {
	switch {
	case errors.Is(err, chat.ErrNotFound),
		errors.Is(err, chat.ErrMessageNotFound),
		errors.Is(err, storage.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), reqID)
	case errors.Is(err, chat.ErrNotMember):
		api.Fail(w, http.StatusForbidden, "forbidden", err.Error(), reqID)
	case errors.Is(err, chat.ErrDirectImmutable):
		api.Fail(w, http.StatusConflict, "direct_immutable", err.Error(), reqID)
	case errors.Is(err, chat.ErrInvalidKind):
		shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "kind", Reason: err.Error()}})
	case errors.Is(err, chat.ErrGroupName):
		shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "name", Reason: err.Error()}})
	case errors.Is(err, chat.ErrDirectMembers),
		errors.Is(err, chat.ErrNoMembers),
		errors.Is(err, chat.ErrUserNotFound):
		shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "memberIds", Reason: err.Error()}})
	case errors.Is(err, chat.ErrEmptyMessage),
		errors.Is(err, storage.ErrEmptyFile):
		shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "body", Reason: err.Error()}})
	case errors.Is(err, storage.ErrTooLarge):
		api.Fail(w, http.StatusRequestEntityTooLarge, "payload_too_large", err.Error(), reqID)
	default:
		slog.Error("chat operation failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "chat_failed", "chat operation failed", reqID)
	}
}
