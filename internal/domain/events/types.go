package events

// EventType identifies a request lifecycle event on the in-process bus
type EventType string

const (
	// RequestSubmitted fires after a request is created and armed at its first step
	RequestSubmitted EventType = "request.submitted"
	// RequestTransitioned fires after a request advances (or terminates) via an action
	RequestTransitioned EventType = "request.transitioned"
	// RequestSLABreached fires after the sweep marks a request breached
	RequestSLABreached EventType = "request.sla_breached"
)
