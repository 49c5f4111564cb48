package models

// Room is a physical classroom.
type Room struct {
	ID       string `db:"id" json:"id"`
	Name     string `db:"name" json:"name"`
	Capacity int    `db:"capacity" json:"capacity"`
}

// Day is a weekday label attached to group schedules.
type Day struct {
	ID      string `db:"id" json:"id"`
	DayName string `db:"day_name" json:"day_name"`
}
