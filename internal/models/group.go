package models

import "time"

// GroupStatus enumerates lifecycle states of a class section.
type GroupStatus string

const (
	GroupSpare   GroupStatus = "spare"
	GroupActive  GroupStatus = "active"
	GroupArchive GroupStatus = "archive"
)

// Group is a scheduled class section binding a course, a teacher, a room,
// a weekday set and a student roster. StartTime/EndTime are the course
// dates, StartHour/EndHour the daily lesson window.
type Group struct {
	ID        string      `db:"id" json:"id"`
	Name      string      `db:"name" json:"name"`
	CourseID  string      `db:"course_id" json:"course_id"`
	TeacherID string      `db:"teacher_id" json:"teacher_id"`
	RoomID    string      `db:"room_id" json:"room_id"`
	StartTime time.Time   `db:"start_time" json:"start_time"`
	EndTime   *time.Time  `db:"end_time" json:"end_time,omitempty"`
	StartHour string      `db:"start_hour" json:"start_hour"`
	EndHour   string      `db:"end_hour" json:"end_hour"`
	Info      *string     `db:"info" json:"info,omitempty"`
	Status    GroupStatus `db:"status" json:"status"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
}

// GroupDetail is the fully nested transfer shape of a group.
type GroupDetail struct {
	Group
	Course          Course         `json:"course"`
	Teacher         EmployeeDetail `json:"teacher"`
	Room            Room           `json:"room"`
	Days            []Day          `json:"days"`
	Students        []User         `json:"students"`
	ArchiveStudents []User         `json:"archive_students"`
}

// GroupFilter captures filtering options for listing groups.
type GroupFilter struct {
	Search    string
	CourseID  string
	TeacherID string
	Status    *GroupStatus
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
