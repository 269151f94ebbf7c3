package model

// Diagnostic levels
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// Diagnostic categories
const (
	EventCategoryAuth    = "auth"
	EventCategoryCatalog = "catalog"
	EventCategoryRole    = "role"
	EventCategoryStream  = "stream"
	EventCategorySystem  = "system"
)
