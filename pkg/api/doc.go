// Package api defines the public types shared by the history subsystem and
// the engine components that feed it: event sources and their raw events,
// flow expression ids, work items and history records.
package api
