// Package events is the lifecycle event bus of the datastore connection
// manager.
//
// The manager and the health monitor publish three topics: connected, error
// and disconnected. Collaborators subscribe instead of polling internal
// state:
//
//	bus := events.NewBus(logger)
//	bus.Subscribe(events.TopicDisconnected, func(ctx context.Context, ev events.Event) error {
//	    alerts.Page("datastore lost: %v", ev.Cause)
//	    return nil
//	})
//
// KafkaSink forwards every event to a Kafka topic for external alerting.
package events
