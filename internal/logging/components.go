package logging

// Component names attached to log records.
const (
	ComponentRender  = "render"
	ComponentSession = "session"
	ComponentBatch   = "batch"
	ComponentLive    = "live"
	ComponentExport  = "export"
	ComponentConfig  = "config"
)
