package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// UTMParams holds page attribution key/values as JSONB.
type UTMParams map[string]string

// Scan implements sql.Scanner for the JSONB column.
func (u *UTMParams) Scan(src interface{}) error {
	if src == nil {
		*u = nil
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("UTMParams.Scan: unsupported type %T", src)
	}
	return json.Unmarshal(data, u)
}

// Value implements driver.Valuer for the JSONB column.
func (u UTMParams) Value() (driver.Value, error) {
	if u == nil {
		return nil, nil
	}
	return json.Marshal(u)
}

// Lead is a marketing contact capture record. Append-only.
type Lead struct {
	LeadID    string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"lead_id"`
	Source    string    `gorm:"type:varchar(50);not null"                      json:"source"`
	Phone     *string   `gorm:"type:varchar(30)"                               json:"phone,omitempty"`
	Email     *string   `gorm:"type:varchar(255)"                              json:"email,omitempty"`
	Page      *string   `gorm:"type:varchar(255)"                              json:"page,omitempty"`
	UTM       UTMParams `gorm:"type:jsonb"                                     json:"utm,omitempty"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName names the table.
func (Lead) TableName() string { return "leads" }
