// package tasks implements playlist migration between music services.
//
// The core type is Engine, which orchestrates resumable full transfers and
// incremental syncs against a source and target service, persisting progress
// through the checkpoint store and match results through the track library.
// Operations emit progress updates via channels for non-blocking status
// reporting to the CLI layer.
package tasks
