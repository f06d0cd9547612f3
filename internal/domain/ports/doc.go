// Package ports defines the boundary interfaces the engine depends on:
// persistence, workflow definition lookup, notification delivery and the
// clock. Adapters implement them; services receive them, which keeps every
// service unit-testable with in-memory fakes.
package ports
