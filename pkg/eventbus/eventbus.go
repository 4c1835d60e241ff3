// Package eventbus is the in-process publish/subscribe layer that
// decouples the engine's core path (order book manager, strategy,
// execution manager, all wired by direct callback/interface per spec
// §9 "inject explicitly") from optional observers such as the telemetry
// publisher, which subscribes to the execution manager's lifecycle
// topics instead of being called directly. Grounded on
// pkg/eventbus/inprocbus/inproc_bus.go's topic/Message shape, consolidated
// into a single interface after this package was found to declare two
// conflicting `EventBus` types across files (one a concrete sync.Map
// struct, one a generic struct) with no shared interface either
// satisfied — a pre-existing break, not carried forward; see DESIGN.md.
package eventbus

import "github.com/brightpool/arbiq/pkg/message"

// Bus is the publish/subscribe contract. Subscribe returns an unsubscribe
// function that is safe to call at most once.
type Bus interface {
	Publish(topic string, msg message.Message) error
	Subscribe(topic string, handler func(message.Message)) (unsubscribe func(), err error)
}

// TopicOpportunity and TopicOrder are the execution manager's two
// lifecycle-event topics: opportunity acceptance/resolution and
// individual order state changes, matching the NATS subject names spec
// §9's telemetry publisher ships the same events under.
const (
	TopicOpportunity = "arbiq.opportunity"
	TopicOrder       = "arbiq.order"
)
