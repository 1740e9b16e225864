package approval

import "context"

type StoreAPI interface {
	LockRecord(ctx context.Context, rt RecordType, id string) (RecordScope, error)
	Load(ctx context.Context, rt RecordType, id string) (Chain, error)
	LoadMany(ctx context.Context, rt RecordType, ids []string) (map[string]Chain, error)
	Save(ctx context.Context, rt RecordType, id string, stage Stage, bucket Bucket, d Decision) error
	InTx(ctx context.Context, fn func(StoreAPI) error) error
}

var _ StoreAPI = (*Store)(nil)
