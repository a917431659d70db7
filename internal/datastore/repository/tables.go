package repository

// Table names used in metrics and error context.
const (
	tableNotes     = "notes"
	tableAuditLogs = "audit_logs"
)
