package notifications

import (
	"context"
	"errors"
	"strings"
	"testing"

	"pms/internal/domain/approval"
	"pms/internal/platform/email"
)

type sent struct {
	userID string
	ntype  string
	msg    string
}

type fakeStore struct {
	StoreAPI
	created []sent
	emails  map[string]string
}

func (f *fakeStore) CreateNotification(ctx context.Context, userID, ntype, message string) error {
	f.created = append(f.created, sent{userID: userID, ntype: ntype, msg: message})
	return nil
}

func (f *fakeStore) UserEmail(ctx context.Context, userID string) (string, error) {
	return f.emails[userID], nil
}

type fakeMailer struct {
	messages []email.Message
	err      error
}

func (m *fakeMailer) Send(ctx context.Context, msg email.Message) error {
	m.messages = append(m.messages, msg)
	return m.err
}

type fakeDirectory struct {
	role, sector, subsector string
	ids                     []string
}

func (d *fakeDirectory) UsersInScope(ctx context.Context, role, sectorID, subsectorID string) ([]string, error) {
	d.role, d.sector, d.subsector = role, sectorID, subsectorID
	return d.ids, nil
}

func decision(stage approval.Stage, status approval.Status) approval.Result {
	return approval.Result{
		RecordType: approval.RecordPlan,
		RecordID:   "p1",
		Stage:      stage,
		Bucket:     approval.BucketQ1,
		Decision:   approval.Decision{Status: status, Description: "needs work"},
		Scope:      approval.RecordScope{UserID: "owner", SectorID: "s1", SubsectorID: "ss1", Year: 2024},
	}
}

func TestCreateMirrorsEmail(t *testing.T) {
	store := &fakeStore{emails: map[string]string{"u1": "u1@example.com"}}
	mailer := &fakeMailer{err: errors.New("smtp down")}
	svc := New(store, mailer, nil)

	if err := svc.Create(context.Background(), "u1", TypeMeasureAssigned, "hello"); err != nil {
		t.Fatalf("create should not surface mail errors: %v", err)
	}
	if len(mailer.messages) != 1 || mailer.messages[0].To != "u1@example.com" {
		t.Fatalf("expected one email, got %+v", mailer.messages)
	}
	if mailer.messages[0].Subject != subjects[TypeMeasureAssigned] {
		t.Fatalf("unexpected subject %q", mailer.messages[0].Subject)
	}
}

func TestNotifyDecisionApprovedTargetsNextStage(t *testing.T) {
	store := &fakeStore{}
	dir := &fakeDirectory{ids: []string{"chief1", "chief2"}}
	svc := New(store, nil, dir)

	if err := svc.NotifyDecision(context.Background(), decision(approval.StageCEO, approval.StatusApproved)); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if dir.role != "Chief CEO" || dir.sector != "s1" || dir.subsector != "" {
		t.Fatalf("unexpected directory lookup %+v", dir)
	}
	if len(store.created) != 2 || store.created[0].ntype != TypeValidationApproved {
		t.Fatalf("expected two approval notifications, got %+v", store.created)
	}
}

func TestNotifyDecisionRejectedTargetsOwner(t *testing.T) {
	store := &fakeStore{}
	svc := New(store, nil, &fakeDirectory{})

	if err := svc.NotifyDecision(context.Background(), decision(approval.StageChiefCEO, approval.StatusRejected)); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(store.created) != 1 || store.created[0].userID != "owner" || store.created[0].ntype != TypeValidationRejected {
		t.Fatalf("unexpected notifications %+v", store.created)
	}
	if !strings.Contains(store.created[0].msg, "needs work") {
		t.Fatalf("expected rejection reason in message, got %q", store.created[0].msg)
	}
}

func TestNotifyDecisionFinalStageCompletes(t *testing.T) {
	store := &fakeStore{}
	svc := New(store, nil, &fakeDirectory{ids: []string{"nobody"}})

	if err := svc.NotifyDecision(context.Background(), decision(approval.StageMinister, approval.StatusApproved)); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(store.created) != 1 || store.created[0].ntype != TypeValidationCompleted || store.created[0].userID != "owner" {
		t.Fatalf("unexpected notifications %+v", store.created)
	}
}
