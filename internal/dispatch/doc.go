// Package dispatch resolves CLI targets (tool names, groups or "all") to
// descriptors and applies an action to each one sequentially, collecting a
// per-tool outcome and an aggregate summary. A failing tool never stops the
// batch.
package dispatch
