package chat

import "errors"

var (
	ErrNotFound        = errors.New("conversation not found")
	ErrMessageNotFound = errors.New("message not found")
	ErrNotMember       = errors.New("not a member of this conversation")
	ErrInvalidKind     = errors.New("kind must be direct or group")
	ErrDirectMembers   = errors.New("a direct conversation needs exactly one other member")
	ErrGroupName       = errors.New("a group conversation needs a name")
	ErrNoMembers       = errors.New("at least one member is required")
	ErrUserNotFound    = errors.New("member user not found")
	ErrEmptyMessage    = errors.New("message needs a body or an attachment")
	ErrDirectImmutable = errors.New("members cannot be added to a direct conversation")
)
