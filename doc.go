// Package rastro records the history of a workflow engine.
//
// A History subscribes to two engine components, the expression pool and the
// participant dispatch map, and turns the events they raise into an ordered
// audit trail of one-line records:
//
//	2026-10-15 09:12:44.120731 +0000 -- expool launch (fei engine 5c1f2a9e root 0)
//	2026-10-15 09:12:44.121002 +0000 -- pmap dispatch (fei engine 5c1f2a9e alpha 0.0) alpha
//	2026-10-15 09:12:45.004511 +0000 -- expool terminate (fei engine 5c1f2a9e root 0)
//
// # Filtering
//
// Only the pool events that matter to an operator are kept: launch,
// terminate, cancel, error, reschedule, stop, pause and resume. Dispatch map
// events are kept except for the after_consume echo. When the dispatch map
// reports an event over a participant channel, the channel name arrives where
// the event kind belongs; history swaps the two back and drops channelled
// apply events.
//
// # Records
//
// Each record carries a timestamp with microsecond precision, its source and
// kind, the flow expression id of the first argument that has one, and a
// message made of the symbol and text arguments in order.
//
// # Sinks
//
// InMemoryHistory keeps the latest records in a ring buffer
// (DefaultMemoryCapacity by default). FileHistory appends to
// <work dir>/history.log and becomes a no-op once stopped. New accepts any
// Sink; the daemon in cmd/rastrod can also write to SQLite, PostgreSQL, Redis
// and MongoDB.
//
// Recording never propagates a failure back into the engine.
package rastro
