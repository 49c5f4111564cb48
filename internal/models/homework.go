package models

import "time"

// Homework is an assignment handed out to a group.
type Homework struct {
	ID        string    `db:"id" json:"id"`
	GroupID   string    `db:"group_id" json:"group_id"`
	TeacherID *string   `db:"teacher_id" json:"teacher_id,omitempty"`
	Work      string    `db:"work" json:"work"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// HomeworkDetail embeds the group and the assigning teacher.
type HomeworkDetail struct {
	Homework
	Group   GroupDetail     `json:"group"`
	Teacher *EmployeeDetail `json:"teacher,omitempty"`
}

// Exam is a scored assessment scheduled for a group.
type Exam struct {
	ID       string    `db:"id" json:"id"`
	GroupID  string    `db:"group_id" json:"group_id"`
	MinScore int       `db:"min_score" json:"min_score"`
	MaxScore int       `db:"max_score" json:"max_score"`
	Date     time.Time `db:"date" json:"date"`
	RoomID   *string   `db:"room_id" json:"room_id,omitempty"`
}

// ExamDetail embeds the group, examiner set and optional venue.
type ExamDetail struct {
	Exam
	Group     GroupDetail      `json:"group"`
	Examiners []EmployeeDetail `json:"exam_teacher"`
	Room      *Room            `json:"room,omitempty"`
}

// Notification is a message sent by an employee to a student account.
type Notification struct {
	ID        string    `db:"id" json:"id"`
	CreatorID *string   `db:"creator_id" json:"creator_id,omitempty"`
	StudentID string    `db:"student_id" json:"student_id"`
	Message   string    `db:"message" json:"message"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// NotificationDetail embeds the creating employee and the target user.
type NotificationDetail struct {
	Notification
	Creator *EmployeeDetail `json:"creator,omitempty"`
	Student User            `json:"student"`
}
