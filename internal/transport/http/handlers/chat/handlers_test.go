package chathandler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/go-chi/chi/v5"

	"pms/internal/domain/auth"
	"pms/internal/domain/chat"
	"pms/internal/transport/http/middleware"
)

func newRouter(svc *chat.Service, user auth.UserContext) chi.Router {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middleware.WithUser(req.Context(), user)))
		})
	})
	NewHandler(svc, nil).RegisterRoutes(r)
	return r
}

func TestCreateConversationValidation(t *testing.T) {
	router := newRouter(chat.NewService(nil, nil, nil, nil), auth.UserContext{UserID: "u1", Role: auth.RoleCEO})
	cases := []string{
		`{"kind":"room","memberIds":["1a2b3c4d-5e6f-4a7b-8c9d-0e1f2a3b4c5d"]}`,
		`{"kind":"direct","memberIds":[]}`,
		`{"kind":"group","memberIds":["not-an-id"]}`,
	}
	for _, body := range cases {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/chat/conversations", strings.NewReader(body)))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", body, rec.Code)
		}
	}
}

func TestSendRejectsEmptyMessage(t *testing.T) {
	router := newRouter(chat.NewService(nil, nil, nil, nil), auth.UserContext{UserID: "u1", Role: auth.RoleWorker})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/chat/conversations/4b6f0c1e-2d3a-4f5b-8c7d-9e0f1a2b3c4d/messages", strings.NewReader(`{"body":"   "}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestMessagesRejectsBadCursor(t *testing.T) {
	router := newRouter(chat.NewService(nil, nil, nil, nil), auth.UserContext{UserID: "u1", Role: auth.RoleWorker})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/chat/conversations/4b6f0c1e-2d3a-4f5b-8c7d-9e0f1a2b3c4d/messages?before=yesterday", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestWebsocketDeliversHubEvents(t *testing.T) {
	svc := chat.NewService(nil, nil, nil, nil)
	srv := httptest.NewServer(newRouter(svc, auth.UserContext{UserID: "u1", Role: auth.RoleCEO}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/chat/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "done")

	var ready chat.Event
	if err := wsjson.Read(ctx, conn, &ready); err != nil {
		t.Fatalf("read ready: %v", err)
	}
	if ready.Type != "ready" {
		t.Fatalf("expected ready event, got %q", ready.Type)
	}

	msg := &chat.Message{ID: "m1", ConversationID: "c1", SenderID: "u2", Body: "hello"}
	if n := svc.Hub.Publish([]string{"u1"}, chat.Event{Type: chat.EventMessageNew, ConversationID: "c1", Message: msg}); n != 1 {
		t.Fatalf("expected one delivery, got %d", n)
	}
	var got chat.Event
	if err := wsjson.Read(ctx, conn, &got); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if got.Type != chat.EventMessageNew || got.Message == nil || got.Message.Body != "hello" {
		t.Fatalf("unexpected event %+v", got)
	}
}
