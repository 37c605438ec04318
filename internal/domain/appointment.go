package domain

import "time"

type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusCompleted AppointmentStatus = "completed"
)

var transitions = map[AppointmentStatus][]AppointmentStatus{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
}

func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s AppointmentStatus) Terminal() bool {
	return len(transitions[s]) == 0
}

func (s AppointmentStatus) CanTransitionTo(to AppointmentStatus) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

const (
	MinAppointmentMinutes = 15
	MaxAppointmentMinutes = 240
)

// Appointment occupies [StartMin, EndMin) minutes of Date on the coach's calendar.
type Appointment struct {
	ID              string            `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CoachID         string            `gorm:"type:varchar(36);not null;index:idx_appt_coach_date,priority:1" json:"coach_id"`
	UserID          string            `gorm:"type:varchar(36);not null;index" json:"user_id"`
	Date            string            `gorm:"type:varchar(10);not null;index:idx_appt_coach_date,priority:2" json:"date"`
	Time            string            `gorm:"type:varchar(5);not null" json:"time"`
	DurationMinutes int               `gorm:"not null" json:"duration_minutes"`
	StartMin        int               `gorm:"not null" json:"-"`
	EndMin          int               `gorm:"not null" json:"-"`
	Status          AppointmentStatus `gorm:"type:varchar(16);index;not null" json:"status"`
	Notes           string            `json:"notes,omitempty"`
	Rating          *int              `json:"rating,omitempty"`
	Review          string            `json:"review,omitempty"`
	ConfirmedAt     *time.Time        `json:"confirmed_at,omitempty"`
	CancelledAt     *time.Time        `json:"cancelled_at,omitempty"`
	CompletedAt     *time.Time        `json:"completed_at,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// EndTime is the HH:MM at which the appointment ends.
func (a *Appointment) EndTime() string {
	return FormatClock(a.EndMin)
}

func (a *Appointment) Interval() Interval {
	return Interval{Start: a.StartMin, End: a.EndMin}
}

// Interval is a half-open [Start, End) range of minutes after midnight.
type Interval struct {
	Start int
	End   int
}

// Overlaps applies the half-open test a.start < b.end && a.end > b.start,
// so back-to-back intervals do not overlap.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start < o.End && i.End > o.Start
}

// CoachSchedule is one weekly working window of a coach.
type CoachSchedule struct {
	ID      string       `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CoachID string       `gorm:"type:varchar(36);not null;index" json:"coach_id"`
	Weekday time.Weekday `gorm:"not null" json:"weekday"`
	Start   string       `gorm:"column:start_time;type:varchar(5);not null" json:"start"`
	End     string       `gorm:"column:end_time;type:varchar(5);not null" json:"end"`
}

func (s *CoachSchedule) Window() (Interval, error) {
	st, err := ParseClock(s.Start)
	if err != nil {
		return Interval{}, err
	}
	en, err := ParseClock(s.End)
	if err != nil {
		return Interval{}, err
	}
	if en <= st {
		return Interval{}, Invalidf("schedule end %s must be after start %s", s.End, s.Start)
	}
	return Interval{Start: st, End: en}, nil
}
