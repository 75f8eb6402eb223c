package types

// Event represents a typed notification emitted during accounting state
// transitions. Attributes are string encoded so payloads survive any
// persistence or transport layer without loss of integer precision.
type Event struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}

// Emitter receives events produced by the native modules. Implementations
// must not retain the event beyond the call.
type Emitter interface {
	Emit(evt *Event)
}

// EmitterFunc adapts a function to the Emitter interface.
type EmitterFunc func(evt *Event)

func (f EmitterFunc) Emit(evt *Event) { f(evt) }
