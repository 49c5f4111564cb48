package models

// StudentStatus enumerates enrollment states of a learner.
type StudentStatus string

const (
	StudentActive  StudentStatus = "active"
	StudentPassive StudentStatus = "passive"
	StudentWaiting StudentStatus = "waiting"
)

// Student is a learner profile. A user account may own several student
// records; the link is deliberately many-to-one.
type Student struct {
	ID                string        `db:"id" json:"id"`
	UserID            string        `db:"user_id" json:"user_id"`
	ParentNumber      *string       `db:"parent_number" json:"parent_number,omitempty"`
	ExtraParentNumber *string       `db:"extra_parent_number" json:"extra_parent_number,omitempty"`
	Telegram          *string       `db:"telegram" json:"telegram,omitempty"`
	Status            StudentStatus `db:"status" json:"status"`
}

// StudentDetail embeds the linked user account for nested reads.
type StudentDetail struct {
	Student
	User User `db:"user" json:"user"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search    string
	Status    *StudentStatus
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
