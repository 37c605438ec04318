package notifier

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"

	"github.com/you/nosmoke/internal/domain"
)

// Notifier delivers a message to a user. Console is the only implementation;
// email and push are out of scope.
type Notifier interface {
	Notify(subject, message string) error
}

type Console struct {
	log *log.Logger
}

func NewConsole(lg *log.Logger) *Console {
	return &Console{log: lg}
}

func (c *Console) Notify(subject, message string) error {
	c.log.Info(subject, "message", message)
	return nil
}

// When renders an appointment slot as "2025-03-04 10:00-11:00 (in 2 days)".
func When(date, clock string, minutes int, now time.Time) string {
	d, err := domain.ParseDate(date)
	if err != nil {
		return date + " " + clock
	}
	start, err := domain.ParseClock(clock)
	if err != nil {
		return date + " " + clock
	}
	at := d.Add(time.Duration(start) * time.Minute)
	return fmt.Sprintf("%s %s-%s (%s)", date, clock, domain.FormatClock(start+minutes),
		humanize.RelTime(at, now, "ago", "from now"))
}
