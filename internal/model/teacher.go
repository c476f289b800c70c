package model

// Teacher is a school-portal account. The password hash is stored as
// pbkdf2_sha256$iterations$salt$hash and never serialized.
type Teacher struct {
	TeacherID    string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"teacher_id"`
	Name         string  `gorm:"type:varchar(100);not null"                     json:"name"`
	Email        string  `gorm:"type:varchar(255);not null;uniqueIndex"         json:"email"`
	PasswordHash string  `gorm:"type:varchar(255);not null"                     json:"-"`
	SchoolName   *string `gorm:"type:varchar(200)"                              json:"school_name,omitempty"`
	BaseModel
}

// TableName names the table.
func (Teacher) TableName() string { return "teachers" }

// Class is one class roster owned by a teacher.
type Class struct {
	ClassID   string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"class_id"`
	TeacherID string  `gorm:"type:uuid;not null"                             json:"teacher_id"`
	Name      string  `gorm:"type:varchar(100);not null"                     json:"name"`
	Grade     *string `gorm:"type:varchar(20)"                               json:"grade,omitempty"`
	BaseModel

	Teacher *Teacher `gorm:"foreignKey:TeacherID;references:TeacherID" json:"teacher,omitempty"`
}

// TableName names the table.
func (Class) TableName() string { return "classes" }
