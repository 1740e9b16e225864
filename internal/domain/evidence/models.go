package evidence

import (
	"io"
	"time"
)

// File is a worker's evidence upload for one measure and quarter. It links to
// the worker's performance record for the measure's KPI once one exists.
type File struct {
	ID            string     `json:"id"`
	PerformanceID *string    `json:"performanceId"`
	WorkerID      string     `json:"workerId"`
	WorkerName    string     `json:"workerName,omitempty"`
	SectorID      string     `json:"sectorId,omitempty"`
	SubsectorID   string     `json:"subsectorId,omitempty"`
	KPIID         string     `json:"kpiId"`
	MeasureID     string     `json:"measureId"`
	MeasureName   string     `json:"measureName,omitempty"`
	Year          int        `json:"year"`
	Quarter       int        `json:"quarter"`
	Description   string     `json:"description"`
	FileName      string     `json:"fileName"`
	URL           string     `json:"url"`
	ContentType   string     `json:"contentType"`
	Size          int64      `json:"size"`
	Confirmed     bool       `json:"confirmed"`
	ConfirmedBy   string     `json:"confirmedBy,omitempty"`
	ConfirmedAt   *time.Time `json:"confirmedAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
	Path          string     `json:"-"`
}

type UploadInput struct {
	WorkerID    string
	MeasureID   string
	Year        int
	Quarter     int
	Description string
	FileName    string
	Body        io.Reader
}

type Filter struct {
	WorkerID      string
	SectorID      string
	SubsectorID   string
	MeasureID     string
	KPIID         string
	PerformanceID string
	Year          int
	Quarter       int
	Confirmed     *bool
}
