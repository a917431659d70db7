// Package entities contains the GORM models persisted by notekeeper.
//
// Two tables exist: notes, which are mutated in place and hard deleted, and
// audit_logs, which are append-only and outlive the notes they describe.
// AuditLogEntry references a note by EntityID without a foreign key.
package entities
