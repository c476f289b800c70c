package model

import "time"

// Subject is the person being scanned (patient, student, gym member).
type Subject struct {
	SubjectID   string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"subject_id"`
	Name        string     `gorm:"type:varchar(100);not null"                     json:"name"`
	Phone       string     `gorm:"type:varchar(30);not null"                      json:"phone"`
	Email       *string    `gorm:"type:varchar(255)"                              json:"email,omitempty"`
	DateOfBirth *time.Time `gorm:"type:date"                                      json:"date_of_birth,omitempty"`
	ClassID     *string    `gorm:"type:uuid"                                      json:"class_id,omitempty"`
	DataConsent bool       `gorm:"not null;default:true"                          json:"data_consent"`
	BaseModel

	Class *Class `gorm:"foreignKey:ClassID;references:ClassID" json:"class,omitempty"`
}

// TableName names the table.
func (Subject) TableName() string { return "subjects" }
