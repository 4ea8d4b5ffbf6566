package model

import "time"

// Course 课程表，对应 courses
type Course struct {
	CourseID     string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"course_id"`
	UniversityID string `gorm:"type:uuid;not null"                             json:"university_id"`
	LecturerID   string `gorm:"type:uuid;not null"                             json:"lecturer_id"`
	Code         string `gorm:"type:varchar(20);not null"                      json:"code"`
	Title        string `gorm:"type:varchar(200);not null"                     json:"title"`
	Units        int    `gorm:"type:smallint;not null;default:3"               json:"units"`
	Description  string `gorm:"type:text"                                      json:"description,omitempty"`
	VersionedModel

	// 关联
	Lecturer *User `gorm:"foreignKey:LecturerID;references:UserID" json:"lecturer,omitempty"`
}

// TableName 指定表名
func (Course) TableName() string { return "courses" }

// Enrollment 选课记录表，对应 enrollments（含成绩，即学生学业记录）
type Enrollment struct {
	EnrollmentID string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"enrollment_id"`
	CourseID     string     `gorm:"type:uuid;not null"                             json:"course_id"`
	StudentID    string     `gorm:"type:uuid;not null"                             json:"student_id"`
	Score        *int       `gorm:"type:smallint"                                  json:"score,omitempty"` // 0-100
	Grade        *string    `gorm:"type:varchar(2)"                                json:"grade,omitempty"` // A | B | C | D | E | F
	GradedAt     *time.Time `json:"graded_at,omitempty"`
	VersionedModel

	// 关联
	Course  *Course `gorm:"foreignKey:CourseID;references:CourseID"  json:"course,omitempty"`
	Student *User   `gorm:"foreignKey:StudentID;references:UserID"   json:"student,omitempty"`
}

// TableName 指定表名
func (Enrollment) TableName() string { return "enrollments" }
