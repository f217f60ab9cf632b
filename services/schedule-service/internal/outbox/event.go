package outbox

// Event is the domain event envelope written to the outbox table.
// The Kafka topic name equals EventType (one event type per topic).
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

const (
	EventScheduleCreated = "schedule.vet_schedule.created.v1"
	EventSlotsAdded      = "schedule.slots.added.v1"
)
