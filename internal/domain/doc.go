// Package domain defines the core domain types and interfaces.
//
// Concept-oriented files (user.go, poll.go, vote.go, tally.go, ...) hold the shared
// model types and the consumer-side interfaces the app and broadcast layers depend on.
// No implementation code - just contracts.
package domain
