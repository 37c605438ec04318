package events

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failing struct{ calls int }

func (f *failing) PublishJSON(context.Context, string, any) error {
	f.calls++
	return errors.New("channel closed")
}

func TestLoggedSwallowsErrors(t *testing.T) {
	var buf bytes.Buffer
	next := &failing{}
	p := Logged(next, log.New(&buf))

	require.NoError(t, p.PublishJSON(context.Background(), RKCheckinCreated, Checkin{UserID: "u1"}))
	assert.Equal(t, 1, next.calls)
	assert.Contains(t, buf.String(), "publish event failed")
	assert.Contains(t, buf.String(), RKCheckinCreated)
}

func TestBestEffort(t *testing.T) {
	assert.Equal(t, Noop{}, BestEffort(nil))
	assert.Equal(t, Noop{}, BestEffort(Noop{}))

	wrapped := Logged(&failing{}, log.New(&bytes.Buffer{}))
	assert.Same(t, wrapped, BestEffort(wrapped), "already best-effort")

	raw := &failing{}
	p := BestEffort(raw)
	assert.NotSame(t, raw, p)
	assert.NoError(t, p.PublishJSON(context.Background(), RKAppointmentCreated, Appointment{}))
	assert.Equal(t, 1, raw.calls)
}

func TestDecode(t *testing.T) {
	ev, err := Decode[Checkin]([]byte(`{"user_id":"u1","actual_cigarettes":3}`))
	require.NoError(t, err)
	assert.Equal(t, "u1", ev.UserID)
	assert.Equal(t, 3, ev.ActualCigarettes)

	_, err = Decode[Checkin]([]byte("nope"))
	assert.Error(t, err)
}
