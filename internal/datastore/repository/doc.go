// Package repository provides the repository interfaces and GORM implementations
// for notes and the audit trail.
//
// Repositories are bound to a *gorm.DB. The datastore.Store hands out
// repositories bound to the transaction inside Store.Transaction, so a note
// mutation and its audit entry share one commit.
package repository
