package invite

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeRoundTripsThroughDecoder(t *testing.T) {
	start := time.Date(2024, 6, 1, 15, 0, 0, 0, time.UTC)
	var buf bytes.Buffer
	err := Encode(&buf, Invite{
		CallID:      "abc-123",
		Summary:     "Planning",
		StartsAt:    start,
		Duration:    time.Hour,
		MeetingLink: "https://yoom.test/meeting/abc-123",
		Stamp:       start.Add(-time.Hour),
	})
	require.NoError(t, err)

	cal, err := ical.NewDecoder(&buf).Decode()
	require.NoError(t, err)
	events := cal.Events()
	require.Len(t, events, 1)

	ev := events[0]
	summary, err := ev.Props.Text(ical.PropSummary)
	require.NoError(t, err)
	assert.Equal(t, "Planning", summary)

	got, err := ev.DateTimeStart(time.UTC)
	require.NoError(t, err)
	assert.True(t, got.Equal(start))

	loc, err := ev.Props.Text(ical.PropLocation)
	require.NoError(t, err)
	assert.Equal(t, "https://yoom.test/meeting/abc-123", loc)
	assert.Equal(t, "https://yoom.test/meeting/abc-123", ev.Props.Get(ical.PropURL).Value)
}

func TestEncodeRequiresCallAndStart(t *testing.T) {
	var buf bytes.Buffer
	err := Encode(&buf, Invite{StartsAt: time.Now()})
	require.Error(t, err)
	err = Encode(&buf, Invite{CallID: "abc"})
	require.Error(t, err)
	assert.False(t, strings.Contains(buf.String(), "BEGIN:VCALENDAR"))
}
