package models

// AttendanceMode describes how much of a student's nominal fee applies
// for the month.
type AttendanceMode string

const (
	// AttendanceFull charges the full monthly amount.
	AttendanceFull AttendanceMode = "full"

	// AttendanceHalf charges half the monthly amount.
	AttendanceHalf AttendanceMode = "half"

	// AttendanceDays charges per attended day, amount/30 per day.
	AttendanceDays AttendanceMode = "days"
)

const (
	// MinDays and MaxDays bound the day count for AttendanceDays.
	MinDays = 1
	MaxDays = 30
)

// Student represents one tracked student.
type Student struct {
	// Name identifies the student. Unique within the roster,
	// case-sensitive. Used as the key for all mutations.
	Name string `json:"name"`

	// Amount is the nominal monthly fee. Never negative.
	Amount float64 `json:"amount"`

	// Active marks whether the student currently counts toward totals.
	// Inactive students contribute zero regardless of other fields.
	Active bool `json:"active"`

	// Attendance selects how Amount is scaled for the month.
	Attendance AttendanceMode `json:"attendance"`

	// Days is the attended day count, only meaningful when
	// Attendance is AttendanceDays. Zero when unset.
	Days int `json:"days,omitempty"`
}

// ValidMode reports whether m is one of the known attendance modes.
func ValidMode(m AttendanceMode) bool {
	switch m {
	case AttendanceFull, AttendanceHalf, AttendanceDays:
		return true
	}
	return false
}
