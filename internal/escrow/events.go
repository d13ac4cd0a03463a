package escrow

import (
	"time"

	"freelance-escrow-go/internal/models"

	"github.com/google/uuid"
)

// EventLog is the append-only record of state transitions and fund movements.
// External observers (frontends, indexers) read it; nothing ever mutates or
// prunes an appended entry.
type EventLog struct {
	events []models.Event
}

// NewEventLog creates an empty log.
func NewEventLog() *EventLog {
	return &EventLog{}
}

// Append records one transition and returns the stored entry.
func (l *EventLog) Append(kind string, jobID uint64, from, to models.JobStatus, actor models.Address) models.Event {
	event := models.Event{
		ID:         uuid.New(),
		Kind:       kind,
		JobID:      jobID,
		FromStatus: from,
		ToStatus:   to,
		Actor:      actor,
		Timestamp:  time.Now(),
	}
	l.events = append(l.events, event)
	return event
}

// All returns a copy of every entry in append order.
func (l *EventLog) All() []models.Event {
	out := make([]models.Event, len(l.events))
	copy(out, l.events)
	return out
}

// ByJob returns the entries for one job in append order.
func (l *EventLog) ByJob(jobID uint64) []models.Event {
	var out []models.Event
	for _, event := range l.events {
		if event.JobID == jobID {
			out = append(out, event)
		}
	}
	return out
}
