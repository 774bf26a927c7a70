// Package bus provides the pub/sub channel the live store uses to relay
// mutations between server instances. Two implementations share one message
// schema: an in-process hub for single-instance deployments and tests, and a
// Kafka-backed bus for multi-instance deployments.
package bus

import "encoding/json"

// Message is the wire envelope for a store event. Payload is JSON so all
// temporal fields are encoded and decoded at this boundary (RFC 3339).
// Origin identifies the publishing instance; subscribers use it to ignore
// their own messages, matching broadcast-channel semantics where a sender
// never hears itself.
type Message struct {
	Origin  string          `json:"origin"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Handler receives messages published on a bus.
type Handler func(Message)

// Bus is the cross-instance broadcast channel. Publish is fire-and-forget:
// there is no acknowledgement, retry, or cross-instance ordering guarantee.
type Bus interface {
	// Publish sends the message to all other subscribed instances.
	Publish(msg Message) error

	// Subscribe registers a handler for inbound messages and returns a
	// function that removes it.
	Subscribe(h Handler) (unsubscribe func())

	// Close releases the transport. Subscribers receive no further messages.
	Close() error
}
