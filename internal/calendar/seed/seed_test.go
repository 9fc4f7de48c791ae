package seed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tramite/internal/calendar/models"
	"tramite/internal/calendar/service"
	"tramite/internal/calendar/store"
)

const doc = `
schedules:
  - weekday: 0
    start: "08:00"
    end: "17:00"
  - weekday: 5
    start: "09:00"
    end: "13:00"
holidays:
  - date: "2025-12-25"
    description: Christmas
  - date: "2025-12-25"
    description: duplicate
`

func TestApply(t *testing.T) {
	ctx := context.Background()
	f, err := Parse([]byte(doc))
	require.NoError(t, err)

	svc := service.New(store.NewInMemory(), time.UTC)
	require.NoError(t, f.Apply(ctx, svc))
	require.NoError(t, f.Apply(ctx, svc), "second apply is a no-op")

	schedules, err := svc.ListSchedules(ctx)
	require.NoError(t, err)
	require.Len(t, schedules, 2)
	assert.Equal(t, models.Saturday, schedules[1].Weekday)

	holidays, err := svc.ListHolidays(ctx)
	require.NoError(t, err)
	require.Len(t, holidays, 1)
	assert.Equal(t, "Christmas", holidays[0].Description)
}

func TestParseInvalid(t *testing.T) {
	_, err := Parse([]byte("schedules: [oops"))
	require.Error(t, err)

	f, err := Parse([]byte("schedules:\n  - weekday: 1\n    start: nine\n    end: \"17:00\"\n"))
	require.NoError(t, err)
	_, err = f.WorkSchedules()
	require.Error(t, err)
}
