package approval

import "pms/internal/domain/auth"

type stageInfo struct {
	role       string
	visibility Visibility
}

// stageTable is ordered: each stage is gated by the one before it.
var stageTable = []struct {
	stage Stage
	info  stageInfo
}{
	{StageCEO, stageInfo{role: auth.RoleCEO, visibility: VisibleSubsector}},
	{StageChiefCEO, stageInfo{role: auth.RoleChiefCEO, visibility: VisibleSector}},
	{StageStrategicUnit, stageInfo{role: auth.RoleStrategicUnit, visibility: VisibleAll}},
	{StageMinister, stageInfo{role: auth.RoleMinister, visibility: VisibleAll}},
}

func stageIndex(s Stage) int {
	for i, entry := range stageTable {
		if entry.stage == s {
			return i
		}
	}
	return -1
}

func StageForRole(role string) (Stage, bool) {
	for _, entry := range stageTable {
		if entry.info.role == role {
			return entry.stage, true
		}
	}
	return "", false
}

func ParseStage(raw string) (Stage, bool) {
	s := Stage(raw)
	return s, stageIndex(s) >= 0
}

func (s Stage) Role() string {
	if i := stageIndex(s); i >= 0 {
		return stageTable[i].info.role
	}
	return ""
}

func (s Stage) Visibility() Visibility {
	if i := stageIndex(s); i >= 0 {
		return stageTable[i].info.visibility
	}
	return VisibleAll
}

func (s Stage) Previous() (Stage, bool) {
	i := stageIndex(s)
	if i <= 0 {
		return "", false
	}
	return stageTable[i-1].stage, true
}

// AppliesTo reports whether the stage reviews rec at all. Sector level records
// carry no subsector and have no CEO stage.
func (s Stage) AppliesTo(rec RecordScope) bool {
	return s.Visibility() != VisibleSubsector || rec.SubsectorID != ""
}

// PreviousFor returns the closest earlier stage that reviews rec.
func (s Stage) PreviousFor(rec RecordScope) (Stage, bool) {
	for prev, ok := s.Previous(); ok; prev, ok = prev.Previous() {
		if prev.AppliesTo(rec) {
			return prev, true
		}
	}
	return "", false
}

func (s Stage) Next() (Stage, bool) {
	i := stageIndex(s)
	if i < 0 || i+1 >= len(stageTable) {
		return "", false
	}
	return stageTable[i+1].stage, true
}

func NewChain() Chain {
	c := make(Chain, len(Stages))
	for _, stage := range Stages {
		buckets := make(map[Bucket]Decision, len(Buckets))
		for _, bucket := range Buckets {
			buckets[bucket] = Decision{Status: StatusPending}
		}
		c[stage] = buckets
	}
	return c
}

func (c Chain) Get(stage Stage, bucket Bucket) Decision {
	if d, ok := c[stage][bucket]; ok && d.Status != "" {
		return d
	}
	return Decision{Status: StatusPending}
}

func (c Chain) Set(stage Stage, bucket Bucket, d Decision) {
	if c[stage] == nil {
		c[stage] = map[Bucket]Decision{}
	}
	c[stage][bucket] = d
}

// CanTransition reports whether stage may record a decision on bucket of rec.
// The prior stage reviewing rec must have approved the bucket and the next
// stage must not have acted on it yet.
func CanTransition(c Chain, stage Stage, bucket Bucket, rec RecordScope) error {
	if stageIndex(stage) < 0 {
		return ErrUnknownStage
	}
	if prev, ok := stage.PreviousFor(rec); ok && c.Get(prev, bucket).Status != StatusApproved {
		return ErrStagePrecondition
	}
	if next, ok := stage.Next(); ok && c.Get(next, bucket).Status != StatusPending {
		return ErrStageLocked
	}
	return nil
}

// VisibleTo reports whether a bucket has reached the stage's review queue.
func VisibleTo(c Chain, stage Stage, bucket Bucket, rec RecordScope) bool {
	if !stage.AppliesTo(rec) {
		return false
	}
	prev, ok := stage.PreviousFor(rec)
	if !ok {
		return stageIndex(stage) >= 0
	}
	return c.Get(prev, bucket).Status == StatusApproved
}

// InScope applies the stage's organisational filter to a record.
func InScope(stage Stage, actorSector, actorSubsector string, rec RecordScope) bool {
	switch stage.Visibility() {
	case VisibleSubsector:
		return actorSubsector != "" && rec.SubsectorID == actorSubsector
	case VisibleSector:
		return actorSector != "" && rec.SectorID == actorSector
	}
	return true
}
