package model

// Venue 上课地点表，对应 venues
type Venue struct {
	VenueID      string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"venue_id"`
	UniversityID string `gorm:"type:uuid;not null"                             json:"university_id"`
	Name         string `gorm:"type:varchar(100);not null"                     json:"name"`
	Building     string `gorm:"type:varchar(100)"                              json:"building,omitempty"`
	Capacity     int    `gorm:"not null;default:0"                             json:"capacity"`
	IsActive     bool   `gorm:"not null;default:true"                          json:"is_active"`
	SoftDeleteModel
}

// TableName 指定表名
func (Venue) TableName() string { return "venues" }
