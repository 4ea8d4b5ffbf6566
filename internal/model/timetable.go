package model

// 课次类型
const (
	SessionLecture  = "lecture"
	SessionTutorial = "tutorial"
	SessionLab      = "lab"
)

// TimetableEntry 课表条目，对应 timetables
type TimetableEntry struct {
	TimetableID string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"timetable_id"`
	CourseID    string  `gorm:"type:uuid;not null"                             json:"course_id"`
	LecturerID  string  `gorm:"type:uuid;not null"                             json:"lecturer_id"` // 冗余，便于冲突检测
	DayOfWeek   int     `gorm:"type:smallint;not null"                         json:"day_of_week"` // 1-7
	StartTime   string  `gorm:"type:time;not null"                             json:"start_time"`
	EndTime     string  `gorm:"type:time;not null"                             json:"end_time"`
	VenueID     *string `gorm:"type:uuid"                                      json:"venue_id,omitempty"`
	SessionType string  `gorm:"type:varchar(20);not null;default:'lecture'"    json:"session_type"` // lecture | tutorial | lab
	VersionedModel

	// 关联
	Course *Course `gorm:"foreignKey:CourseID;references:CourseID" json:"course,omitempty"`
	Venue  *Venue  `gorm:"foreignKey:VenueID;references:VenueID"   json:"venue,omitempty"`
}

// TableName 指定表名
func (TimetableEntry) TableName() string { return "timetables" }
