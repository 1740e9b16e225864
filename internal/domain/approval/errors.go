package approval

import "errors"

var (
	ErrUnknownStage      = errors.New("role is not an approval stage")
	ErrStagePrecondition = errors.New("previous stage has not approved this bucket")
	ErrStageLocked       = errors.New("next stage has already decided this bucket")
	ErrOutOfScope        = errors.New("record is outside the approver's scope")
	ErrRecordNotFound    = errors.New("record not found")
	ErrInvalidBucket     = errors.New("invalid bucket")
	ErrInvalidStatus     = errors.New("invalid status")
)
