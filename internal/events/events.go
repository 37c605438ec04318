package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/log"
)

// Routing keys published on the events exchange.
const (
	RKAppointmentCreated   = "appointment.created"
	RKAppointmentConfirmed = "appointment.confirmed"
	RKAppointmentCancelled = "appointment.cancelled"
	RKAppointmentCompleted = "appointment.completed"
	RKAppointmentRated     = "appointment.rated"

	RKCheckinCreated = "checkin.created"
	RKCheckinUpdated = "checkin.updated"
	RKCheckinDeleted = "checkin.deleted"
)

// Appointment carries enough to render a notification for either party.
type Appointment struct {
	AppointmentID   string `json:"appointment_id"`
	CoachID         string `json:"coach_id"`
	UserID          string `json:"user_id"`
	Date            string `json:"date"`
	Time            string `json:"time"`
	DurationMinutes int    `json:"duration_minutes"`
	Status          string `json:"status"`
	Rating          int    `json:"rating,omitempty"`
}

type Checkin struct {
	UserID           string `json:"user_id"`
	PlanID           string `json:"plan_id"`
	Date             string `json:"date"`
	ActualCigarettes int    `json:"actual_cigarettes"`
	TargetCigarettes int    `json:"target_cigarettes"`
}

func Decode[T any](b []byte) (T, error) {
	var t T
	if err := json.Unmarshal(b, &t); err != nil {
		var zero T
		return zero, fmt.Errorf("decode payload failed: %w", err)
	}
	return t, nil
}

// Publisher is satisfied by *mq.Publisher.
type Publisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

// Noop drops every event; used when RabbitMQ is not configured.
type Noop struct{}

func (Noop) PublishJSON(context.Context, string, any) error { return nil }

type logged struct {
	next Publisher
	log  *log.Logger
}

// Logged wraps p so publish failures are logged instead of returned.
// Events are best-effort and never fail the request that produced them.
func Logged(p Publisher, lg *log.Logger) Publisher {
	return &logged{next: p, log: lg}
}

// BestEffort returns p wrapped so that it never reports an error. A nil p
// becomes Noop; publishers that already swallow errors are returned as is.
func BestEffort(p Publisher) Publisher {
	switch p.(type) {
	case nil:
		return Noop{}
	case Noop, *logged:
		return p
	}
	return Logged(p, log.Default().WithPrefix("events"))
}

func (l *logged) PublishJSON(ctx context.Context, key string, v any) error {
	if err := l.next.PublishJSON(ctx, key, v); err != nil {
		l.log.Warn("publish event failed", "key", key, "err", err)
	}
	return nil
}
