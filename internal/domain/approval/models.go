package approval

import (
	"strings"
	"time"
)

type Stage string

const (
	StageCEO           Stage = "ceo"
	StageChiefCEO      Stage = "chiefCeo"
	StageStrategicUnit Stage = "strategic"
	StageMinister      Stage = "minister"
)

type Bucket string

const (
	BucketYear Bucket = "year"
	BucketQ1   Bucket = "q1"
	BucketQ2   Bucket = "q2"
	BucketQ3   Bucket = "q3"
	BucketQ4   Bucket = "q4"
)

type Status string

const (
	StatusPending  Status = "Pending"
	StatusApproved Status = "Approved"
	StatusRejected Status = "Rejected"
)

type RecordType string

const (
	RecordPlan        RecordType = "plan"
	RecordPerformance RecordType = "performance"
)

// Visibility names the organisational filter applied to a stage's list views.
type Visibility int

const (
	VisibleAll Visibility = iota
	VisibleSector
	VisibleSubsector
)

var (
	Stages   = []Stage{StageCEO, StageChiefCEO, StageStrategicUnit, StageMinister}
	Buckets  = []Bucket{BucketYear, BucketQ1, BucketQ2, BucketQ3, BucketQ4}
	Statuses = []Status{StatusPending, StatusApproved, StatusRejected}
)

type Decision struct {
	Status      Status     `json:"status"`
	Description string     `json:"description,omitempty"`
	DecidedBy   string     `json:"decidedBy,omitempty"`
	DecidedAt   *time.Time `json:"decidedAt,omitempty"`
}

// Chain holds every stage decision for one record. Missing entries are Pending.
type Chain map[Stage]map[Bucket]Decision

// RecordScope is the ownership and placement of a plan or performance row.
type RecordScope struct {
	UserID      string
	Role        string
	SectorID    string
	SubsectorID string
	KPIID       string
	Year        int
}

type DecideInput struct {
	RecordType  RecordType
	RecordID    string
	ActorID     string
	ActorRole   string
	SectorID    string
	SubsectorID string
	Bucket      Bucket
	Status      Status
	Description string
}

type Result struct {
	RecordType RecordType  `json:"recordType"`
	RecordID   string      `json:"recordId"`
	Stage      Stage       `json:"stage"`
	Bucket     Bucket      `json:"bucket"`
	Previous   Decision    `json:"previous"`
	Decision   Decision    `json:"decision"`
	Chain      Chain       `json:"chain"`
	Scope      RecordScope `json:"-"`
}

func ParseBucket(raw string) (Bucket, bool) {
	b := Bucket(strings.ToLower(strings.TrimSpace(raw)))
	for _, candidate := range Buckets {
		if b == candidate {
			return b, true
		}
	}
	return "", false
}

// BucketForQuarter maps 1..4 to q1..q4 and 0 to the yearly bucket.
func BucketForQuarter(quarter int) (Bucket, bool) {
	switch quarter {
	case 0:
		return BucketYear, true
	case 1:
		return BucketQ1, true
	case 2:
		return BucketQ2, true
	case 3:
		return BucketQ3, true
	case 4:
		return BucketQ4, true
	}
	return "", false
}

func ParseStatus(raw string) (Status, bool) {
	trimmed := strings.TrimSpace(raw)
	for _, candidate := range Statuses {
		if strings.EqualFold(trimmed, string(candidate)) {
			return candidate, true
		}
	}
	return "", false
}

func ParseRecordType(raw string) (RecordType, bool) {
	switch RecordType(raw) {
	case RecordPlan:
		return RecordPlan, true
	case RecordPerformance:
		return RecordPerformance, true
	}
	return "", false
}
