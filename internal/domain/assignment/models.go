package assignment

import "time"

type KpiAssignment struct {
	ID              string    `json:"id"`
	SectorID        string    `json:"sectorId"`
	SectorName      string    `json:"sectorName"`
	SubsectorID     string    `json:"subsectorId,omitempty"`
	SubsectorName   string    `json:"subsectorName,omitempty"`
	GoalID          string    `json:"goalId"`
	GoalDescription string    `json:"goalDescription"`
	KRAID           string    `json:"kraId"`
	KRAName         string    `json:"kraName"`
	KPIID           string    `json:"kpiId"`
	KPIName         string    `json:"kpiName"`
	CreatedAt       time.Time `json:"createdAt"`
}

type KpiYearAssignment struct {
	ID              string    `json:"id"`
	SectorID        string    `json:"sectorId"`
	SectorName      string    `json:"sectorName"`
	SubsectorID     string    `json:"subsectorId,omitempty"`
	SubsectorName   string    `json:"subsectorName,omitempty"`
	GoalID          string    `json:"goalId"`
	GoalDescription string    `json:"goalDescription"`
	KRAID           string    `json:"kraId"`
	KRAName         string    `json:"kraName"`
	KPIID           string    `json:"kpiId"`
	KPIName         string    `json:"kpiName"`
	StartYear       int       `json:"startYear"`
	EndYear         int       `json:"endYear"`
	CreatedAt       time.Time `json:"createdAt"`
}

type AssignKPIInput struct {
	SectorID    string
	SubsectorID string
	KRAID       string
	KPIID       string
	CreatedBy   string
}

type YearRangeInput struct {
	ID          string
	SectorID    string
	SubsectorID string
	KPIID       string
	KRAID       string
	GoalID      string
	StartYear   int
	EndYear     int
}

// Scope is the organisational placement of a KPI assignment.
type Scope struct {
	SectorID    string
	SubsectorID string
}

type Filter struct {
	SectorID    string
	SubsectorID string
	KPIID       string
	Year        int
}

// kpiHierarchy is the KRA and goal a KPI hangs under.
type kpiHierarchy struct {
	KRAID  string
	GoalID string
}
