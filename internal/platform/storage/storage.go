package storage

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

var (
	ErrTooLarge    = errors.New("file exceeds size limit")
	ErrEmptyFile   = errors.New("file is empty")
	ErrInvalidPath = errors.New("invalid storage path")
	ErrNotFound    = errors.New("stored file not found")
)

type Object struct {
	Path        string
	Name        string
	ContentType string
	Size        int64
}

// Local keeps uploaded files under a root directory. Paths handed back to
// callers are relative to that root.
type Local struct {
	Root     string
	MaxBytes int64
}

func NewLocal(root string, maxBytes int64) (*Local, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, err
	}
	return &Local{Root: root, MaxBytes: maxBytes}, nil
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func SanitizeName(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	name = unsafeName.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if name == "" {
		return "file"
	}
	if len(name) > 120 {
		ext := filepath.Ext(name)
		if len(ext) > 20 {
			ext = ""
		}
		name = name[:120-len(ext)] + ext
	}
	return name
}

// Save streams r into dir under a unique name derived from name.
func (l *Local) Save(ctx context.Context, dir, name string, r io.Reader) (Object, error) {
	if err := ctx.Err(); err != nil {
		return Object{}, err
	}
	cleanDir := filepath.Clean(dir)
	if filepath.IsAbs(cleanDir) || strings.HasPrefix(cleanDir, "..") {
		return Object{}, ErrInvalidPath
	}
	target := filepath.Join(l.Root, cleanDir)
	if err := os.MkdirAll(target, 0o750); err != nil {
		return Object{}, err
	}

	original := SanitizeName(name)
	rel := filepath.Join(cleanDir, uuid.NewString()+"-"+original)
	f, err := os.OpenFile(filepath.Join(l.Root, rel), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o640)
	if err != nil {
		return Object{}, err
	}

	buffered := bufio.NewReaderSize(r, 3072)
	head, _ := buffered.Peek(3072)
	contentType := mimetype.Detect(head).String()

	limit := l.MaxBytes
	if limit <= 0 {
		limit = 10 << 20
	}
	written, err := io.Copy(f, io.LimitReader(buffered, limit+1))
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	switch {
	case err != nil:
	case written > limit:
		err = ErrTooLarge
	case written == 0:
		err = ErrEmptyFile
	}
	if err != nil {
		_ = os.Remove(filepath.Join(l.Root, rel))
		return Object{}, err
	}

	return Object{
		Path:        filepath.ToSlash(rel),
		Name:        original,
		ContentType: contentType,
		Size:        written,
	}, nil
}

func (l *Local) Open(path string) (*os.File, error) {
	full, err := l.resolve(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	return f, err
}

func (l *Local) Remove(path string) error {
	full, err := l.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (l *Local) resolve(path string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(path))
	if clean == "." || filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return "", ErrInvalidPath
	}
	return filepath.Join(l.Root, clean), nil
}
