package catalog

import "errors"

var (
	ErrNotFound  = errors.New("catalog entry not found")
	ErrDuplicate = errors.New("catalog entry already exists")
	ErrInUse     = errors.New("catalog entry is still referenced")
	ErrParent    = errors.New("parent entry does not exist")
	ErrEmptyName = errors.New("name is required")
)
