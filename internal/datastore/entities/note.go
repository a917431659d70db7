package entities

import "time"

// Note is a titled text record owned by the identity that created it.
// Timestamps are assigned by the caller so a single clock drives both the
// row and the audit snapshot taken from it.
type Note struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"size:200;not null;index" json:"title"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	OwnerID   *string   `gorm:"size:255;index" json:"owner_id"`
	CreatedAt time.Time `gorm:"not null;index;autoCreateTime:false" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime:false" json:"updated_at"`
}

// TableName returns the table name for GORM.
func (Note) TableName() string {
	return "notes"
}

// Snapshot returns the full state of the note as stored in audit entries.
func (n *Note) Snapshot() State {
	if n == nil {
		return nil
	}
	var owner any
	if n.OwnerID != nil {
		owner = *n.OwnerID
	}
	return State{
		"id":         n.ID,
		"title":      n.Title,
		"content":    n.Content,
		"owner_id":   owner,
		"created_at": n.CreatedAt.UTC().Format(time.RFC3339Nano),
		"updated_at": n.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}
