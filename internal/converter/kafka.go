package converter

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jnardiello/printfarmhq-sub002/internal/model"
)

// Wire shapes for the Kafka topics. Decimals travel as strings so consumers
// in other languages do not inherit binary float rounding.

type lowStockPayload struct {
	EventID     string    `json:"event_id"`
	MaterialID  string    `json:"material_id"`
	Color       string    `json:"color"`
	Brand       string    `json:"brand"`
	Composition string    `json:"composition"`
	OnHandKg    string    `json:"on_hand_kg"`
	ThresholdKg string    `json:"threshold_kg"`
	OccurredAt  time.Time `json:"occurred_at"`
}

type jobFinishedPayload struct {
	EventID    string    `json:"event_id"`
	JobID      string    `json:"job_id"`
	FinishedAt time.Time `json:"finished_at"`
}

func LowStockEventToJSON(event model.LowStockEvent) ([]byte, error) {
	return json.Marshal(lowStockPayload{
		EventID:     event.EventID.String(),
		MaterialID:  event.MaterialID.String(),
		Color:       event.Color,
		Brand:       event.Brand,
		Composition: event.Composition,
		OnHandKg:    event.OnHandKg.StringFixed(3),
		ThresholdKg: event.ThresholdKg.StringFixed(3),
		OccurredAt:  event.OccurredAt,
	})
}

func JobFinishedEventFromJSON(data []byte) (model.JobFinishedEvent, error) {
	var p jobFinishedPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return model.JobFinishedEvent{}, fmt.Errorf("decode job finished event: %w", err)
	}

	jobID, err := uuid.Parse(p.JobID)
	if err != nil {
		return model.JobFinishedEvent{}, fmt.Errorf("parse job id %q: %w", p.JobID, err)
	}

	event := model.JobFinishedEvent{
		JobID:      jobID,
		FinishedAt: p.FinishedAt,
	}
	if eventID, err := uuid.Parse(p.EventID); err == nil {
		event.EventID = eventID
	}

	return event, nil
}
