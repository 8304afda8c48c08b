// Package pipeline defines the record types, error taxonomy, and interfaces
// shared by the collection pipeline: the rate-limited fetcher, the source
// adapters, the collector orchestrator, and the dataset merger.
package pipeline
