// Package broadcast is the real-time core of pollpulse.
//
// A Registry maps poll ids to rooms of subscribed connections. The
// ConnectionManager owns every WebSocket connection, handles join-poll control
// messages and keeps the registry in sync with connection lifetimes. The
// Dispatcher is told when a vote has been recorded; it queues a broadcast that
// fetches a fresh tally and pushes a poll-update to every live member of that
// poll's room. Broadcasts for one poll run in order on a single worker.
//
// Each connection has its own writer goroutine with a bounded send buffer, so a
// slow or dead client never blocks the dispatcher or other clients.
package broadcast
