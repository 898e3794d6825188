package converter

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jnardiello/printfarmhq-sub002/internal/model"
)

func TestLowStockEventToJSON(t *testing.T) {
	t.Parallel()

	event := model.LowStockEvent{
		EventID:     uuid.New(),
		MaterialID:  uuid.New(),
		Color:       "Galaxy Black",
		Brand:       "Prusament",
		Composition: "PLA",
		OnHandKg:    decimal.RequireFromString("0.5"),
		ThresholdKg: decimal.RequireFromString("1"),
		OccurredAt:  time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC),
	}

	data, err := LowStockEventToJSON(event)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))

	// Quantities travel as fixed-precision strings, never JSON numbers.
	assert.Equal(t, "0.500", raw["on_hand_kg"])
	assert.Equal(t, "1.000", raw["threshold_kg"])
	assert.Equal(t, event.MaterialID.String(), raw["material_id"])
}

func TestJobFinishedEventFromJSON(t *testing.T) {
	t.Parallel()

	jobID := uuid.New()

	t.Run("valid event", func(t *testing.T) {
		t.Parallel()

		event, err := JobFinishedEventFromJSON([]byte(
			`{"event_id":"` + uuid.NewString() + `","job_id":"` + jobID.String() + `","finished_at":"2026-08-20T10:00:00Z"}`,
		))
		require.NoError(t, err)
		assert.Equal(t, jobID, event.JobID)
		assert.Equal(t, 2026, event.FinishedAt.Year())
	})

	t.Run("missing event id is tolerated", func(t *testing.T) {
		t.Parallel()

		event, err := JobFinishedEventFromJSON([]byte(`{"job_id":"` + jobID.String() + `"}`))
		require.NoError(t, err)
		assert.Equal(t, jobID, event.JobID)
		assert.Equal(t, uuid.Nil, event.EventID)
	})

	t.Run("invalid job id", func(t *testing.T) {
		t.Parallel()

		_, err := JobFinishedEventFromJSON([]byte(`{"job_id":"nope"}`))
		require.Error(t, err)
	})
}
