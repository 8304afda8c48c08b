// Package progress defines the event structures emitted during collection
// runs and the hub that fans them out to sinks.
package progress
