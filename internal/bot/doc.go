// Package bot implements the per-participant conversation controller.
//
// ARCHITECTURE:
//
// Per-Participant Event Loop:
// Each participant gets a FIFO queue and a worker goroutine. Events for one
// participant are handled to completion, in arrival order - the blocking
// membership check and store I/O included - before the next event for that
// participant is processed. Events for different participants run
// concurrently; the store is the only shared state between them.
//
// Event Processing Flow:
//  1. Poller long-polls the transport for updates
//  2. Dispatcher routes each update to its participant's queue
//  3. The participant worker dequeues and calls the controller
//  4. Controller re-checks the gatekeeper, applies the state transition,
//     reads/writes the store, and emits at most one response
//
// ERROR HANDLING: transitions recover every failure at their own boundary.
// Denied access and storage faults surface as fixed user-visible messages
// with no state change; send failures are logged and dropped. Nothing
// propagates out of a worker, so one participant's trouble never stalls
// another's events.
package bot
