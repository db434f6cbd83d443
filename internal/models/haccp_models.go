package models

import "time"

// HACCP record statuses. The only transition is recorded -> voided, and it is
// terminal: compliance retention forbids physical deletion.
const (
	HaccpStatusRecorded = "recorded"
	HaccpStatusVoided   = "voided"
)

// HaccpTemperatureLog is one temperature check of a piece of equipment.
type HaccpTemperatureLog struct {
	ID               int64      `json:"id" db:"id"`
	Equipment        string     `json:"equipment" db:"equipment" binding:"required"`
	Temperature      float64    `json:"temperature" db:"temperature"`
	LimitMin         *float64   `json:"limit_min,omitempty" db:"limit_min"`
	LimitMax         *float64   `json:"limit_max,omitempty" db:"limit_max"`
	Shift            *string    `json:"shift,omitempty" db:"shift"`
	Operator         *string    `json:"operator,omitempty" db:"operator"`
	NonConformity    *string    `json:"non_conformity,omitempty" db:"non_conformity"`
	CorrectiveAction *string    `json:"corrective_action,omitempty" db:"corrective_action"`
	Status           string     `json:"status" db:"status"`
	VoidReason       *string    `json:"void_reason,omitempty" db:"void_reason"`
	ReferenceDate    *time.Time `json:"reference_date,omitempty" db:"reference_date"`
	RecordedAt       time.Time  `json:"recorded_at" db:"recorded_at"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
}

// OutOfLimits reports whether the reading violates its configured limits.
func (l *HaccpTemperatureLog) OutOfLimits() bool {
	if l.LimitMin != nil && l.Temperature < *l.LimitMin {
		return true
	}
	if l.LimitMax != nil && l.Temperature > *l.LimitMax {
		return true
	}
	return false
}

// HaccpCleaningLog is one cleaning/sanitation task record.
type HaccpCleaningLog struct {
	ID            int64      `json:"id" db:"id"`
	Area          string     `json:"area" db:"area" binding:"required"`
	Task          string     `json:"task" db:"task" binding:"required"`
	Frequency     *string    `json:"frequency,omitempty" db:"frequency"`
	Done          bool       `json:"done" db:"done"`
	Shift         *string    `json:"shift,omitempty" db:"shift"`
	Operator      *string    `json:"operator,omitempty" db:"operator"`
	Notes         *string    `json:"notes,omitempty" db:"notes"`
	Status        string     `json:"status" db:"status"`
	VoidReason    *string    `json:"void_reason,omitempty" db:"void_reason"`
	ReferenceDate *time.Time `json:"reference_date,omitempty" db:"reference_date"`
	RecordedAt    time.Time  `json:"recorded_at" db:"recorded_at"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
}
