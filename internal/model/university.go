package model

// University 高校表，对应 universities
type University struct {
	UniversityID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"university_id"`
	Name         string `gorm:"type:varchar(150);not null"                     json:"name"`
	ShortName    string `gorm:"type:varchar(30)"                               json:"short_name,omitempty"`
	City         string `gorm:"type:varchar(100)"                              json:"city,omitempty"`
	EmailDomain  string `gorm:"type:varchar(100)"                              json:"email_domain,omitempty"`
	IsActive     bool   `gorm:"not null;default:true"                          json:"is_active"`
	VersionedModel
}

// TableName 指定表名
func (University) TableName() string { return "universities" }
