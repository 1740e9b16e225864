package planning

import (
	"time"

	"pms/internal/domain/approval"
)

// Header is the placement shared by plans and performances.
type Header struct {
	UserID          string `json:"userId"`
	UserName        string `json:"userName,omitempty"`
	Role            string `json:"role"`
	SectorID        string `json:"sectorId,omitempty"`
	SectorName      string `json:"sectorName,omitempty"`
	SubsectorID     string `json:"subsectorId,omitempty"`
	SubsectorName   string `json:"subsectorName,omitempty"`
	GoalID          string `json:"goalId"`
	GoalDescription string `json:"goalDescription,omitempty"`
	KRAID           string `json:"kraId"`
	KRAName         string `json:"kraName,omitempty"`
	KPIID           string `json:"kpiId"`
	KPIName         string `json:"kpiName,omitempty"`
	Year            int    `json:"year"`
}

type Plan struct {
	ID string `json:"id"`
	Header
	Target      float64        `json:"target"`
	Q1          float64        `json:"q1"`
	Q2          float64        `json:"q2"`
	Q3          float64        `json:"q3"`
	Q4          float64        `json:"q4"`
	Description string         `json:"description"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	Validation  approval.Chain `json:"validation"`
}

type QuarterPerformance struct {
	Value       float64 `json:"value"`
	Description string  `json:"description"`
}

type Performance struct {
	ID     string `json:"id"`
	PlanID string `json:"planId"`
	Header
	PerformanceYear float64            `json:"performanceYear"`
	YearDescription string             `json:"yearDescription"`
	Q1Performance   QuarterPerformance `json:"q1Performance"`
	Q2Performance   QuarterPerformance `json:"q2Performance"`
	Q3Performance   QuarterPerformance `json:"q3Performance"`
	Q4Performance   QuarterPerformance `json:"q4Performance"`
	CreatedAt       time.Time          `json:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt"`
	Validation      approval.Chain     `json:"validation"`
}

// PerformanceValues is the mutable part of a performance row.
type PerformanceValues struct {
	Year            float64
	YearDescription string
	Quarters        [4]float64
	Descriptions    [4]string
}

func (v PerformanceValues) apply(p *Performance) {
	p.PerformanceYear = v.Year
	p.YearDescription = v.YearDescription
	p.Q1Performance = QuarterPerformance{Value: v.Quarters[0], Description: v.Descriptions[0]}
	p.Q2Performance = QuarterPerformance{Value: v.Quarters[1], Description: v.Descriptions[1]}
	p.Q3Performance = QuarterPerformance{Value: v.Quarters[2], Description: v.Descriptions[2]}
	p.Q4Performance = QuarterPerformance{Value: v.Quarters[3], Description: v.Descriptions[3]}
}

// PlanKey is the natural key of a plan row.
type PlanKey struct {
	KPIID       string
	Year        int
	Role        string
	SectorID    string
	SubsectorID string
	OwnerKey    string
}

type KPIRef struct {
	ID     string
	Name   string
	KRAID  string
	GoalID string
}

// WriteInput addresses a plan or performance bucket. Quarter 0 is the yearly
// bucket.
type WriteInput struct {
	UserID      string
	Role        string
	KPIName     string
	Year        int
	Quarter     int
	Value       float64
	Description *string
	KRAID       string
	GoalID      string
	SectorID    string
	SubsectorID string
}

type MeasureAssignment struct {
	ID          string    `json:"id"`
	MeasureID   string    `json:"measureId"`
	MeasureName string    `json:"measureName,omitempty"`
	KPIID       string    `json:"kpiId"`
	KPIName     string    `json:"kpiName,omitempty"`
	WorkerID    string    `json:"workerId"`
	WorkerName  string    `json:"workerName,omitempty"`
	SectorID    string    `json:"sectorId"`
	SubsectorID string    `json:"subsectorId"`
	Year        int       `json:"year"`
	Quarter     int       `json:"quarter"`
	Target      float64   `json:"target"`
	CreatedAt   time.Time `json:"createdAt"`
}

type MeasureInput struct {
	MeasureID string
	WorkerID  string
	Target    float64
	Year      int
	Quarter   int
	ActorID   string
	ActorRole string
	ActorSub  string
}

type MeasureFilter struct {
	WorkerID    string
	SubsectorID string
	KPIID       string
	Year        int
	Quarter     int
}

// WorkerInfo is the role and placement of a measure assignee.
type WorkerInfo struct {
	Role        string
	SectorID    string
	SubsectorID string
}

type RollupKey struct {
	KPIID string `json:"kpiId"`
	Year  int    `json:"year"`
}

type RollupResult struct {
	MeasureAssignmentID string     `json:"measureAssignmentId,omitempty"`
	PlanID              string     `json:"planId"`
	KPIID               string     `json:"kpiId"`
	Year                int        `json:"year"`
	Quarters            [4]float64 `json:"quarters"`
	Total               float64    `json:"total"`
}

type ReconcileReport struct {
	Recomputed int      `json:"recomputed"`
	Skipped    int      `json:"skipped"`
	Failed     int      `json:"failed"`
	Errors     []string `json:"errors,omitempty"`
}

type ListFilter struct {
	Year   int
	Bucket approval.Bucket
	Role   string
	KPIID  string
	Limit  int
	Offset int
}

// ListQuery is a ListFilter resolved against the viewer's role and scope.
type ListQuery struct {
	Year        int
	Role        string
	KPIID       string
	UserID      string
	SectorID    string
	SubsectorID string
	GateStage   approval.Stage
	// GateSkipsSectorLevel lets rows without a subsector through the gate;
	// they never pass the CEO stage.
	GateSkipsSectorLevel bool
	Bucket               approval.Bucket
	Limit                int
	Offset               int
}
