package audit

import (
	"encoding/csv"
	"io"
	"time"
)

// EventWriter renders events as CSV rows, one Write per event.
type EventWriter struct {
	csv *csv.Writer
}

// NewEventWriter writes the header row immediately.
func NewEventWriter(w io.Writer) (*EventWriter, error) {
	cw := csv.NewWriter(w)
	err := cw.Write([]string{"id", "actor_user_id", "action", "entity_type", "entity_id", "request_id", "ip", "created_at"})
	return &EventWriter{csv: cw}, err
}

func (e *EventWriter) Write(evt Event) error {
	return e.csv.Write([]string{
		evt.ID,
		evt.ActorID,
		evt.Action,
		evt.EntityType,
		evt.EntityID,
		evt.RequestID,
		evt.IP,
		evt.CreatedAt.UTC().Format(time.RFC3339),
	})
}

// Flush must be called once all events are written.
func (e *EventWriter) Flush() error {
	e.csv.Flush()
	return e.csv.Error()
}
