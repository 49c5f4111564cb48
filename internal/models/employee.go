package models

// Employee is a staff/teacher profile extending a user account. Salary is
// always derived from group enrollment, never accepted from a client.
type Employee struct {
	ID         string `db:"id" json:"id"`
	UserID     string `db:"user_id" json:"user_id"`
	Salary     int64  `db:"salary" json:"salary"`
	Bio        string `db:"bio" json:"bio"`
	Specialty  string `db:"specialty" json:"specialty"`
	Experience string `db:"experience" json:"experience"`
	Percentage int    `db:"percentage" json:"percentage"`
}

// EmployeeDetail embeds the linked user account for nested reads.
type EmployeeDetail struct {
	Employee
	User User `db:"user" json:"user"`
}

// EmployeeFilter captures filtering options for listing employees.
type EmployeeFilter struct {
	Search    string
	Specialty string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
