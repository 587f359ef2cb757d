package interfaces

// EventPublisher emits domain events after a transaction has committed.
// Publishing is best-effort and never part of the commit itself.
type EventPublisher interface {
	Publish(topic string, event any) error
}
