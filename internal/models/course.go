package models

// Course is a priced catalog entry. Duration is in months.
type Course struct {
	ID       string `db:"id" json:"id"`
	Name     string `db:"name" json:"name"`
	Duration int    `db:"duration" json:"duration"`
	Price    int64  `db:"price" json:"price"`
	Info     string `db:"info" json:"info"`
}

// CourseFilter captures filtering options for listing courses.
type CourseFilter struct {
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
