package models

import "time"

// Identity is an enrolled person's profile. The table is shared with the
// external enrollment tooling, which upserts rows keyed by registration
// number; the core treats it as read-mostly reference data.
type Identity struct {
	RegNo string `gorm:"column:reg_no;primaryKey"`
	Name  string `gorm:"not null"`

	// Face embedding, raw IEEE-754 float32 little-endian (see pkg/embedding).
	// Fixed length: 4 bytes per dimension of the extraction model.
	Embedding []byte `gorm:"type:bytea;not null"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Identity) TableName() string {
	return "faces"
}
