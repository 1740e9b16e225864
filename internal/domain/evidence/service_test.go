package evidence

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pms/internal/domain/auth"
	"pms/internal/platform/storage"
)

type fakeStore struct {
	files  map[string]File
	fail   error
	nextID int
}

func newFakeStore() *fakeStore {
	return &fakeStore{files: map[string]File{}}
}

func (f *fakeStore) Upsert(ctx context.Context, in UploadInput, obj storage.Object) (File, string, error) {
	if f.fail != nil {
		return File{}, "", f.fail
	}
	for id, existing := range f.files {
		if existing.WorkerID == in.WorkerID && existing.MeasureID == in.MeasureID && existing.Year == in.Year && existing.Quarter == in.Quarter {
			previous := existing.Path
			existing.Path = obj.Path
			existing.FileName = obj.Name
			existing.Confirmed = false
			f.files[id] = existing
			return existing, previous, nil
		}
	}
	f.nextID++
	id := fmt.Sprintf("f%d", f.nextID)
	file := File{ID: id, WorkerID: in.WorkerID, SubsectorID: "ss1", SectorID: "s1", MeasureID: in.MeasureID, Year: in.Year, Quarter: in.Quarter, FileName: obj.Name, Path: obj.Path}
	f.files[id] = file
	return file, "", nil
}

func (f *fakeStore) Get(ctx context.Context, id string) (File, error) {
	file, ok := f.files[id]
	if !ok {
		return File{}, ErrNotFound
	}
	return file, nil
}

func (f *fakeStore) List(ctx context.Context, filter Filter) ([]File, error) {
	var out []File
	for _, file := range f.files {
		if filter.WorkerID != "" && file.WorkerID != filter.WorkerID {
			continue
		}
		if filter.SubsectorID != "" && file.SubsectorID != filter.SubsectorID {
			continue
		}
		out = append(out, file)
	}
	return out, nil
}

func (f *fakeStore) Confirm(ctx context.Context, id, actorID string) (File, error) {
	file, ok := f.files[id]
	if !ok {
		return File{}, ErrNotFound
	}
	file.Confirmed = true
	file.ConfirmedBy = actorID
	f.files[id] = file
	return file, nil
}

func newTestService(t *testing.T) (*Service, *fakeStore, *storage.Local) {
	t.Helper()
	blobs, err := storage.NewLocal(t.TempDir(), 1024)
	if err != nil {
		t.Fatalf("storage: %v", err)
	}
	store := newFakeStore()
	return NewService(store, blobs), store, blobs
}

var worker = auth.UserContext{UserID: "w1", Role: auth.RoleWorker, SectorID: "s1", SubsectorID: "ss1"}

func TestUploadReplacesPreviousFile(t *testing.T) {
	svc, _, blobs := newTestService(t)
	ctx := context.Background()

	first, err := svc.Upload(ctx, worker, UploadInput{MeasureID: "m1", Year: 2024, Quarter: 1, FileName: "a.txt", Body: strings.NewReader("first")})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	second, err := svc.Upload(ctx, worker, UploadInput{MeasureID: "m1", Year: 2024, Quarter: 1, FileName: "b.txt", Body: strings.NewReader("second")})
	if err != nil {
		t.Fatalf("re-upload: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected upsert on the same slot, got %s and %s", first.ID, second.ID)
	}
	if _, err := blobs.Open(first.Path); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected previous blob removed, got %v", err)
	}
	handle, err := blobs.Open(second.Path)
	if err != nil {
		t.Fatalf("open new blob: %v", err)
	}
	defer handle.Close()
	data, _ := io.ReadAll(handle)
	if string(data) != "second" {
		t.Fatalf("unexpected content %q", data)
	}
}

func TestUploadRemovesBlobWhenStoreFails(t *testing.T) {
	svc, store, blobs := newTestService(t)
	store.fail = ErrMeasureNotFound

	_, err := svc.Upload(context.Background(), worker, UploadInput{MeasureID: "missing", Year: 2024, Quarter: 2, FileName: "a.txt", Body: strings.NewReader("x")})
	if !errors.Is(err, ErrMeasureNotFound) {
		t.Fatalf("expected ErrMeasureNotFound, got %v", err)
	}
	entries, err := os.ReadDir(filepath.Join(blobs.Root, "performance", "w1"))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected orphan blob removed, found %d files", len(entries))
	}
}

func TestUploadValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	ceo := auth.UserContext{UserID: "c1", Role: auth.RoleCEO, SubsectorID: "ss1"}
	if _, err := svc.Upload(ctx, ceo, UploadInput{Quarter: 1, Body: strings.NewReader("x")}); !errors.Is(err, ErrNotWorker) {
		t.Fatalf("expected ErrNotWorker, got %v", err)
	}
	if _, err := svc.Upload(ctx, worker, UploadInput{Quarter: 0, Body: strings.NewReader("x")}); !errors.Is(err, ErrInvalidQuarter) {
		t.Fatalf("expected ErrInvalidQuarter, got %v", err)
	}
	if _, err := svc.Upload(ctx, worker, UploadInput{Quarter: 1}); !errors.Is(err, ErrMissingFile) {
		t.Fatalf("expected ErrMissingFile, got %v", err)
	}
}

func TestConfirmRequiresSubsectorCEO(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	file, err := svc.Upload(ctx, worker, UploadInput{MeasureID: "m1", Year: 2024, Quarter: 3, FileName: "a.txt", Body: strings.NewReader("x")})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	other := auth.UserContext{UserID: "c2", Role: auth.RoleCEO, SubsectorID: "ss2"}
	if _, err := svc.Confirm(ctx, other, file.ID); !errors.Is(err, ErrOutOfScope) {
		t.Fatalf("expected ErrOutOfScope, got %v", err)
	}
	ceo := auth.UserContext{UserID: "c1", Role: auth.RoleCEO, SubsectorID: "ss1"}
	confirmed, err := svc.Confirm(ctx, ceo, file.ID)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if !confirmed.Confirmed || confirmed.ConfirmedBy != "c1" {
		t.Fatalf("unexpected confirmation %+v", confirmed)
	}
}

func TestOpenHonoursScope(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	file, err := svc.Upload(ctx, worker, UploadInput{MeasureID: "m1", Year: 2024, Quarter: 4, FileName: "a.txt", Body: strings.NewReader("hello")})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	_, handle, err := svc.Open(ctx, worker, file.ID)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	handle.Close()

	stranger := auth.UserContext{UserID: "w9", Role: auth.RoleWorker, SubsectorID: "ss1"}
	if _, _, err := svc.Open(ctx, stranger, file.ID); !errors.Is(err, ErrOutOfScope) {
		t.Fatalf("expected ErrOutOfScope, got %v", err)
	}
}
