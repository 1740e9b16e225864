package planning

import "pms/internal/domain/auth"

// OwnerKey separates per-worker plan rows from the single shared row each
// supervisory role keeps per scope.
func OwnerKey(role, userID string) string {
	if role == auth.RoleWorker {
		return userID
	}
	return ""
}

func SumQuarters(q [4]float64) float64 {
	return q[0] + q[1] + q[2] + q[3]
}

// LatestNonZero returns the last non-zero quarter value, searching Q4 to Q1.
func LatestNonZero(q [4]float64) float64 {
	for i := 3; i >= 0; i-- {
		if q[i] != 0 {
			return q[i]
		}
	}
	return 0
}

// CheckQuarterMonotonic verifies that writing value into quarter keeps the
// reported quarters non-decreasing. Unreported (zero) quarters are skipped.
func CheckQuarterMonotonic(q [4]float64, quarter int, value float64) error {
	if quarter < 1 || quarter > 4 {
		return ErrInvalidQuarter
	}
	idx := quarter - 1
	for i := idx - 1; i >= 0; i-- {
		if q[i] != 0 {
			if value < q[i] {
				return ErrQuarterRegression
			}
			break
		}
	}
	if value == 0 {
		return nil
	}
	for i := idx + 1; i < 4; i++ {
		if q[i] != 0 {
			if value > q[i] {
				return ErrQuarterRegression
			}
			break
		}
	}
	return nil
}

// CheckYearMonotonic rejects a year whose reported value falls below the
// previous year's. A zero current value means nothing has been reported.
func CheckYearMonotonic(current, previous float64) error {
	if current != 0 && current < previous {
		return ErrYearRegression
	}
	return nil
}

// ApplyPerformance writes value into the addressed bucket and derives the
// yearly figure. It does not mutate v.
func ApplyPerformance(v PerformanceValues, quarter int, value float64, description *string) (PerformanceValues, error) {
	switch {
	case quarter == 0:
		v.Year = value
		if description != nil {
			v.YearDescription = *description
		}
		return v, nil
	case quarter < 1 || quarter > 4:
		return v, ErrInvalidQuarter
	}
	if err := CheckQuarterMonotonic(v.Quarters, quarter, value); err != nil {
		return v, err
	}
	v.Quarters[quarter-1] = value
	if description != nil {
		v.Descriptions[quarter-1] = *description
	}
	v.Year = LatestNonZero(v.Quarters)
	return v, nil
}

// planColumn maps a bucket to the plan column it writes.
func planColumn(quarter int) (string, error) {
	switch quarter {
	case 0:
		return "target", nil
	case 1:
		return "q1", nil
	case 2:
		return "q2", nil
	case 3:
		return "q3", nil
	case 4:
		return "q4", nil
	}
	return "", ErrInvalidQuarter
}
