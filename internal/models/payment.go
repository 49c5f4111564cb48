package models

import "time"

// Payment records money received from a user.
type Payment struct {
	ID          string     `db:"id" json:"id"`
	UserID      string     `db:"user_id" json:"user_id"`
	Amount      int64      `db:"amount" json:"amount"`
	PaymentDate *time.Time `db:"payment_date" json:"payment_date,omitempty"`
}

// PaymentDetail embeds the paying user for nested reads.
type PaymentDetail struct {
	Payment
	User User `db:"user" json:"user"`
}

// PaymentFilter captures filtering options for listing payments.
type PaymentFilter struct {
	UserID    string
	DateFrom  *time.Time
	DateTo    *time.Time
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Attendance marks presence of a user on a given date.
type Attendance struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Date      time.Time `db:"date" json:"date"`
	IsPresent bool      `db:"is_present" json:"is_present"`
}

// AttendanceDetail embeds the attending user for nested reads.
type AttendanceDetail struct {
	Attendance
	User User `db:"user" json:"user"`
}

// AttendanceFilter captures filtering options for listing attendance marks.
type AttendanceFilter struct {
	UserID    string
	DateFrom  *time.Time
	DateTo    *time.Time
	IsPresent *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
