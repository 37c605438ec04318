package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/you/nosmoke/internal/events"
	"github.com/you/nosmoke/internal/notifier"
)

// Source yields deliveries; satisfied by *mq.Consumer.
type Source interface {
	Deliveries(ctx context.Context) (<-chan amqp.Delivery, error)
}

type Consumer struct {
	src      Source
	notifier notifier.Notifier
	log      *log.Logger
	now      func() time.Time
}

func NewConsumer(src Source, n notifier.Notifier, lg *log.Logger) *Consumer {
	return &Consumer{src: src, notifier: n, log: lg, now: time.Now}
}

// Run acks handled deliveries and dead-letters failed ones until ctx ends or
// the channel closes.
func (c *Consumer) Run(ctx context.Context) error {
	msgs, err := c.src.Deliveries(ctx)
	if err != nil {
		return fmt.Errorf("consume failed: %w", err)
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return nil
			}
			if err := c.handle(d.RoutingKey, d.Body); err != nil {
				c.log.Error("handle failed, dead-lettering", "key", d.RoutingKey, "err", err)
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (c *Consumer) handle(key string, body []byte) error {
	switch key {
	case events.RKAppointmentCreated:
		ev, err := events.Decode[events.Appointment](body)
		if err != nil {
			return err
		}
		return c.notifier.Notify("New appointment request",
			fmt.Sprintf("Coach %s: client %s requested %s.", ev.CoachID, ev.UserID, c.when(ev)))

	case events.RKAppointmentConfirmed:
		ev, err := events.Decode[events.Appointment](body)
		if err != nil {
			return err
		}
		return c.notifier.Notify("Appointment confirmed",
			fmt.Sprintf("User %s: your session on %s is confirmed.", ev.UserID, c.when(ev)))

	case events.RKAppointmentCancelled:
		ev, err := events.Decode[events.Appointment](body)
		if err != nil {
			return err
		}
		return c.notifier.Notify("Appointment cancelled",
			fmt.Sprintf("Appointment %s on %s %s was cancelled.", ev.AppointmentID, ev.Date, ev.Time))

	case events.RKAppointmentCompleted:
		ev, err := events.Decode[events.Appointment](body)
		if err != nil {
			return err
		}
		return c.notifier.Notify("Appointment completed",
			fmt.Sprintf("User %s: how was your session? Rate appointment %s.", ev.UserID, ev.AppointmentID))

	case events.RKAppointmentRated:
		ev, err := events.Decode[events.Appointment](body)
		if err != nil {
			return err
		}
		return c.notifier.Notify("Appointment rated",
			fmt.Sprintf("Coach %s received %d/5 for appointment %s.", ev.CoachID, ev.Rating, ev.AppointmentID))

	case events.RKCheckinCreated, events.RKCheckinUpdated:
		ev, err := events.Decode[events.Checkin](body)
		if err != nil {
			return err
		}
		if ev.ActualCigarettes == 0 {
			return c.notifier.Notify("Smoke-free day",
				fmt.Sprintf("User %s stayed smoke-free on %s. Keep going!", ev.UserID, ev.Date))
		}
		if ev.ActualCigarettes > ev.TargetCigarettes {
			return c.notifier.Notify("Over target",
				fmt.Sprintf("User %s smoked %d on %s, target was %d. Tomorrow is a new day.",
					ev.UserID, ev.ActualCigarettes, ev.Date, ev.TargetCigarettes))
		}
		return nil

	case events.RKCheckinDeleted:
		// nothing to tell anyone
		return nil

	default:
		c.log.Warn("skip unknown key", "key", key)
	}
	return nil
}

func (c *Consumer) when(ev events.Appointment) string {
	return notifier.When(ev.Date, ev.Time, ev.DurationMinutes, c.now())
}
