package evidence

import (
	"context"

	"pms/internal/platform/storage"
)

type StoreAPI interface {
	// Upsert writes the file row for (worker, measure, year, quarter) and
	// returns the stored path it replaced, if any.
	Upsert(ctx context.Context, in UploadInput, obj storage.Object) (File, string, error)
	Get(ctx context.Context, id string) (File, error)
	List(ctx context.Context, f Filter) ([]File, error)
	Confirm(ctx context.Context, id, actorID string) (File, error)
}

var _ StoreAPI = (*Store)(nil)
