package catalog

import "time"

type Sector struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

type Subsector struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	SectorID   string    `json:"sectorId"`
	SectorName string    `json:"sectorName,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

type Goal struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

type KRA struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	GoalID          string    `json:"goalId"`
	GoalDescription string    `json:"goalDescription,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// KPI carries its goal through the KRA; the goal is never stored on the KPI.
type KPI struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	KRAID           string    `json:"kraId"`
	KRAName         string    `json:"kraName,omitempty"`
	GoalID          string    `json:"goalId"`
	GoalDescription string    `json:"goalDescription,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

type Measure struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	KPIID     string    `json:"kpiId"`
	KPIName   string    `json:"kpiName,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type Filter struct {
	ParentID string
	GoalID   string
	Limit    int
	Offset   int
}
