package infrastructure

import (
	"fmt"

	"chiptable/events"
)

// StreamName is the JetStream stream every chiptable event lands in
const StreamName = "chiptable_events"

var subjectsByType = map[events.EventType]string{
	events.EventTypeBalanceChange:    "chiptable.accounts.balance_changed",
	events.EventTypeAccountOpened:    "chiptable.accounts.opened",
	events.EventTypeTableCreated:     "chiptable.tables.created",
	events.EventTypePlayerJoined:     "chiptable.tables.player_joined",
	events.EventTypeGuessPlaced:      "chiptable.tables.guess_placed",
	events.EventTypeTableStateChange: "chiptable.tables.state_changed",
	events.EventTypeTableSettled:     "chiptable.tables.settled",
	events.EventTypeSaleReviewed:     "chiptable.wallet.sale_reviewed",
}

// EventSubjectMapper handles mapping between domain events and NATS subjects
type EventSubjectMapper struct{}

// NewEventSubjectMapper creates a new event subject mapper
func NewEventSubjectMapper() *EventSubjectMapper {
	return &EventSubjectMapper{}
}

// MapEventToSubject converts a domain event to its corresponding NATS subject
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	if subject, ok := subjectsByType[event.Type()]; ok {
		return subject
	}
	return fmt.Sprintf("chiptable.unknown.%s", event.Type())
}

// GetAllSubjects returns the subjects the event stream must capture
func (m *EventSubjectMapper) GetAllSubjects() []string {
	return []string{"chiptable.>"}
}
