package approval

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"pms/internal/platform/querier"
)

type recordingQuerier struct {
	querier.Querier
	args []any
}

func (q *recordingQuerier) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	q.args = args
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func TestSaveStoresTheDecisionTimestamp(t *testing.T) {
	q := &recordingQuerier{}
	decidedAt := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	err := NewStore(q).Save(context.Background(), RecordPlan, "p1", StageCEO, BucketQ1, Decision{
		Status:    StatusApproved,
		DecidedBy: "ceo",
		DecidedAt: &decidedAt,
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if len(q.args) != 8 {
		t.Fatalf("expected 8 arguments, got %d", len(q.args))
	}
	got, ok := q.args[7].(*time.Time)
	if !ok || got == nil || !got.Equal(decidedAt) {
		t.Fatalf("expected decided_at %v, got %v", decidedAt, q.args[7])
	}
}
