package email

import (
	"context"
	"strings"
	"testing"

	"pms/internal/platform/config"
)

func TestNewReturnsNoopWhenDisabled(t *testing.T) {
	mailer := New(config.Config{EmailEnabled: false})
	if _, ok := mailer.(noopMailer); !ok {
		t.Fatalf("expected noop mailer, got %T", mailer)
	}
	if err := mailer.Send(context.Background(), Message{To: "a@example.com"}); err != nil {
		t.Fatalf("noop send: %v", err)
	}
}

func TestBuildMessageStripsHeaderInjection(t *testing.T) {
	raw := string(buildMessage("from@example.com", Message{
		To:      "to@example.com",
		Subject: "Plan approved\r\nBcc: evil@example.com",
		Body:    "body",
	}))
	if strings.Contains(raw, "\r\nBcc:") {
		t.Fatalf("header injection survived: %q", raw)
	}
	if !strings.HasSuffix(raw, "\r\n\r\nbody") {
		t.Fatalf("unexpected message layout: %q", raw)
	}
}
