package model

import "time"

// ShortLinkAlias maps a human-shareable code to a scan id. Created once
// at registration, immutable, never re-minted.
type ShortLinkAlias struct {
	Code      string    `gorm:"type:varchar(8);primaryKey"         json:"code"`
	ScanID    string    `gorm:"type:uuid;not null"                 json:"scan_id"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName names the table.
func (ShortLinkAlias) TableName() string { return "short_link_aliases" }
