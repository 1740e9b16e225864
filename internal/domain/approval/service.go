package approval

import (
	"context"
	"time"
)

type Service struct {
	store StoreAPI
	now   func() time.Time
}

func NewService(store StoreAPI) *Service {
	return &Service{store: store, now: time.Now}
}

// Decide records a stage decision for one bucket of a plan or performance.
// The acting stage comes from the actor's role; the record is locked for the
// duration so the gate checks and the write see the same chain.
func (s *Service) Decide(ctx context.Context, in DecideInput) (Result, error) {
	stage, ok := StageForRole(in.ActorRole)
	if !ok {
		return Result{}, ErrUnknownStage
	}
	if _, ok := ParseBucket(string(in.Bucket)); !ok {
		return Result{}, ErrInvalidBucket
	}
	if _, ok := ParseStatus(string(in.Status)); !ok {
		return Result{}, ErrInvalidStatus
	}

	result := Result{RecordType: in.RecordType, RecordID: in.RecordID, Stage: stage, Bucket: in.Bucket}
	err := s.store.InTx(ctx, func(tx StoreAPI) error {
		scope, err := tx.LockRecord(ctx, in.RecordType, in.RecordID)
		if err != nil {
			return err
		}
		if !InScope(stage, in.SectorID, in.SubsectorID, scope) {
			return ErrOutOfScope
		}
		chain, err := tx.Load(ctx, in.RecordType, in.RecordID)
		if err != nil {
			return err
		}
		if err := CanTransition(chain, stage, in.Bucket, scope); err != nil {
			return err
		}

		decidedAt := s.now().UTC()
		decision := Decision{
			Status:      in.Status,
			Description: in.Description,
			DecidedBy:   in.ActorID,
			DecidedAt:   &decidedAt,
		}
		if err := tx.Save(ctx, in.RecordType, in.RecordID, stage, in.Bucket, decision); err != nil {
			return err
		}
		result.Previous = chain.Get(stage, in.Bucket)
		chain.Set(stage, in.Bucket, decision)
		result.Decision = decision
		result.Chain = chain
		result.Scope = scope
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	return result, nil
}

func (s *Service) Chain(ctx context.Context, rt RecordType, id string) (Chain, error) {
	return s.store.Load(ctx, rt, id)
}

func (s *Service) Chains(ctx context.Context, rt RecordType, ids []string) (map[string]Chain, error) {
	return s.store.LoadMany(ctx, rt, ids)
}
