package reports

import "time"

// StageProgress counts plans whose yearly bucket each stage has approved.
type StageProgress struct {
	CEO       int `json:"ceo"`
	ChiefCEO  int `json:"chiefCeo"`
	Strategic int `json:"strategic"`
	Minister  int `json:"minister"`
}

type ScorecardRow struct {
	KPIID           string        `json:"kpiId"`
	KPIName         string        `json:"kpiName"`
	KRAName         string        `json:"kraName"`
	GoalDescription string        `json:"goalDescription"`
	Plans           int           `json:"plans"`
	Target          float64       `json:"target"`
	Actual          float64       `json:"actual"`
	Achievement     float64       `json:"achievementPercent"`
	Approved        StageProgress `json:"approved"`
}

type Scorecard struct {
	Year        int            `json:"year"`
	Role        string         `json:"role"`
	SectorID    string         `json:"sectorId,omitempty"`
	SubsectorID string         `json:"subsectorId,omitempty"`
	Rows        []ScorecardRow `json:"rows"`
	Target      float64        `json:"target"`
	Actual      float64        `json:"actual"`
	Achievement float64        `json:"achievementPercent"`
	GeneratedAt time.Time      `json:"generatedAt"`
}

type ScorecardFilter struct {
	Year        int
	Role        string
	SectorID    string
	SubsectorID string
}
