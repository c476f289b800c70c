package model

// Issuer is the party initiating a scan on behalf of a subject
// (dentist, clinic, school).
type Issuer struct {
	IssuerID   string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"issuer_id"`
	Name       string  `gorm:"type:varchar(100);not null"                     json:"name"`
	ClinicName *string `gorm:"type:varchar(200)"                              json:"clinic_name,omitempty"`
	Phone      *string `gorm:"type:varchar(30)"                               json:"phone,omitempty"`
	IsDefault  bool    `gorm:"not null;default:false"                         json:"is_default"`
	BaseModel
}

// TableName names the table.
func (Issuer) TableName() string { return "issuers" }
