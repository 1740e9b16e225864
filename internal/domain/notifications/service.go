package notifications

import (
	"context"
	"fmt"
	"log/slog"

	"pms/internal/domain/approval"
	"pms/internal/platform/email"
)

// Directory resolves the users holding a role within an organisational scope.
type Directory interface {
	UsersInScope(ctx context.Context, role, sectorID, subsectorID string) ([]string, error)
}

type Service struct {
	store     StoreAPI
	Mailer    email.Mailer
	Directory Directory
}

func New(store StoreAPI, mailer email.Mailer, directory Directory) *Service {
	return &Service{store: store, Mailer: mailer, Directory: directory}
}

// Create stores an in-app notification and mirrors it by email when a mailer
// is configured. Email failures are logged, never returned.
func (s *Service) Create(ctx context.Context, userID, ntype, message string) error {
	if err := s.store.CreateNotification(ctx, userID, ntype, message); err != nil {
		return err
	}
	if s.Mailer == nil {
		return nil
	}

	addr, err := s.store.UserEmail(ctx, userID)
	if err != nil {
		slog.Warn("notification email lookup failed", "err", err)
		return nil
	}
	if addr == "" {
		return nil
	}
	subject := subjects[ntype]
	if subject == "" {
		subject = "Performance management notification"
	}
	if err := s.Mailer.Send(ctx, email.Message{To: addr, Subject: subject, Body: message}); err != nil {
		slog.Warn("notification email send failed", "err", err)
	}
	return nil
}

// NotifyDecision fans a stage decision out. An approval notifies the next
// stage's validators in the record's scope, or the owner once the last stage
// approves. A rejection notifies the owner.
func (s *Service) NotifyDecision(ctx context.Context, res approval.Result) error {
	label := fmt.Sprintf("%s %s (%s, %d)", res.RecordType, res.RecordID, res.Bucket, res.Scope.Year)

	if res.Decision.Status == approval.StatusRejected {
		msg := fmt.Sprintf("Your %s was rejected at the %s stage", label, res.Stage)
		if res.Decision.Description != "" {
			msg += ": " + res.Decision.Description
		}
		return s.Create(ctx, res.Scope.UserID, TypeValidationRejected, msg)
	}
	if res.Decision.Status != approval.StatusApproved {
		return nil
	}

	next, ok := res.Stage.Next()
	if !ok {
		return s.Create(ctx, res.Scope.UserID, TypeValidationCompleted, fmt.Sprintf("Your %s was approved at every stage", label))
	}
	if s.Directory == nil {
		return nil
	}
	sectorID, subsectorID := "", ""
	switch next.Visibility() {
	case approval.VisibleSector:
		sectorID = res.Scope.SectorID
	case approval.VisibleSubsector:
		sectorID, subsectorID = res.Scope.SectorID, res.Scope.SubsectorID
	}
	recipients, err := s.Directory.UsersInScope(ctx, next.Role(), sectorID, subsectorID)
	if err != nil {
		return err
	}
	msg := fmt.Sprintf("A %s approved by the %s stage is awaiting your validation", label, res.Stage)
	for _, userID := range recipients {
		if err := s.Create(ctx, userID, TypeValidationApproved, msg); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) List(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]Notification, error) {
	return s.store.ListNotifications(ctx, userID, unreadOnly, limit, offset)
}

func (s *Service) Count(ctx context.Context, userID string, unreadOnly bool) (int, error) {
	return s.store.CountNotifications(ctx, userID, unreadOnly)
}

func (s *Service) MarkRead(ctx context.Context, userID, notificationID string) error {
	return s.store.MarkRead(ctx, userID, notificationID)
}
