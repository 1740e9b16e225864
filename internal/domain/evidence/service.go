package evidence

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path"

	"pms/internal/domain/auth"
	"pms/internal/platform/storage"
)

// Blobs stores the uploaded bytes.
type Blobs interface {
	Save(ctx context.Context, dir, name string, r io.Reader) (storage.Object, error)
	Open(path string) (*os.File, error)
	Remove(path string) error
}

type Service struct {
	store StoreAPI
	blobs Blobs
}

func NewService(store StoreAPI, blobs Blobs) *Service {
	return &Service{store: store, blobs: blobs}
}

// Upload stores the file and records it against the worker's measure and
// quarter. A second upload for the same slot replaces the first and clears
// its confirmation.
func (s *Service) Upload(ctx context.Context, actor auth.UserContext, in UploadInput) (File, error) {
	if actor.Role != auth.RoleWorker {
		return File{}, ErrNotWorker
	}
	if in.Quarter < 1 || in.Quarter > 4 {
		return File{}, ErrInvalidQuarter
	}
	if in.Body == nil {
		return File{}, ErrMissingFile
	}
	in.WorkerID = actor.UserID

	obj, err := s.blobs.Save(ctx, path.Join("performance", in.WorkerID), in.FileName, in.Body)
	if err != nil {
		return File{}, err
	}
	f, previous, err := s.store.Upsert(ctx, in, obj)
	if err != nil {
		if rmErr := s.blobs.Remove(obj.Path); rmErr != nil {
			slog.Warn("evidence cleanup failed", "path", obj.Path, "err", rmErr)
		}
		return File{}, err
	}
	if previous != "" && previous != obj.Path {
		if err := s.blobs.Remove(previous); err != nil {
			slog.Warn("evidence replace cleanup failed", "path", previous, "err", err)
		}
	}
	return f, nil
}

func (s *Service) List(ctx context.Context, viewer auth.UserContext, f Filter) ([]File, error) {
	switch viewer.Role {
	case auth.RoleWorker:
		f.WorkerID = viewer.UserID
	case auth.RoleCEO:
		f.SubsectorID = viewer.SubsectorID
	case auth.RoleChiefCEO:
		f.SectorID = viewer.SectorID
	}
	return s.store.List(ctx, f)
}

func (s *Service) Get(ctx context.Context, viewer auth.UserContext, id string) (File, error) {
	f, err := s.store.Get(ctx, id)
	if err != nil {
		return File{}, err
	}
	if !canView(viewer, f) {
		return File{}, ErrOutOfScope
	}
	return f, nil
}

// Confirm marks the file reviewed. Only the CEO of the worker's subsector
// may confirm.
func (s *Service) Confirm(ctx context.Context, actor auth.UserContext, id string) (File, error) {
	f, err := s.store.Get(ctx, id)
	if err != nil {
		return File{}, err
	}
	if actor.Role != auth.RoleCEO || actor.SubsectorID == "" || f.SubsectorID != actor.SubsectorID {
		return File{}, ErrOutOfScope
	}
	return s.store.Confirm(ctx, id, actor.UserID)
}

// Open returns the file metadata and a handle on its bytes. The caller closes
// the handle.
func (s *Service) Open(ctx context.Context, viewer auth.UserContext, id string) (File, *os.File, error) {
	f, err := s.Get(ctx, viewer, id)
	if err != nil {
		return File{}, nil, err
	}
	handle, err := s.blobs.Open(f.Path)
	if err != nil {
		return File{}, nil, err
	}
	return f, handle, nil
}

func canView(viewer auth.UserContext, f File) bool {
	switch viewer.Role {
	case auth.RoleWorker:
		return f.WorkerID == viewer.UserID
	case auth.RoleCEO:
		return f.SubsectorID == viewer.SubsectorID
	case auth.RoleChiefCEO:
		return f.SectorID == viewer.SectorID
	}
	return auth.IsValidRole(viewer.Role)
}
