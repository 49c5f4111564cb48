package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

// Full text of the revenue sum. The roster subquery must read
// group_students, never the archive table.
var revenueQueryRe = regexp.QuoteMeta(`SELECT COALESCE(SUM(c.price * (SELECT COUNT(*) FROM group_students gs WHERE gs.group_id = g.id)), 0)
		FROM groups g JOIN courses c ON c.id = g.course_id WHERE g.teacher_id = $1`)

func TestEmployeeRepositoryRecomputeSalary(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEmployeeRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT percentage FROM employees WHERE id = $1 FOR UPDATE")).
		WithArgs("e1").
		WillReturnRows(sqlmock.NewRows([]string{"percentage"}).AddRow(40))
	mock.ExpectQuery(revenueQueryRe).
		WithArgs("e1").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(1500000))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE employees SET salary = $2 WHERE id = $1")).
		WithArgs("e1", int64(600000)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	salary, err := repo.RecomputeSalary(context.Background(), "e1")
	require.NoError(t, err)
	assert.Equal(t, int64(600000), salary)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEmployeeRepositoryRecomputeSalaryTruncates(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEmployeeRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT percentage FROM employees WHERE id = $1 FOR UPDATE")).
		WithArgs("e1").
		WillReturnRows(sqlmock.NewRows([]string{"percentage"}).AddRow(33))
	mock.ExpectQuery(revenueQueryRe).
		WithArgs("e1").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(333))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE employees SET salary = $2 WHERE id = $1")).
		WithArgs("e1", int64(109)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	salary, err := repo.RecomputeSalary(context.Background(), "e1")
	require.NoError(t, err)
	assert.Equal(t, int64(109), salary)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEmployeeRepositoryRecomputeSalaryIdempotent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEmployeeRepository(db)

	for i := 0; i < 2; i++ {
		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta("SELECT percentage FROM employees WHERE id = $1 FOR UPDATE")).
			WithArgs("e1").
			WillReturnRows(sqlmock.NewRows([]string{"percentage"}).AddRow(40))
		mock.ExpectQuery(revenueQueryRe).
			WithArgs("e1").
			WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(1500000))
		mock.ExpectExec(regexp.QuoteMeta("UPDATE employees SET salary = $2 WHERE id = $1")).
			WithArgs("e1", int64(600000)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()
	}

	first, err := repo.RecomputeSalary(context.Background(), "e1")
	require.NoError(t, err)
	second, err := repo.RecomputeSalary(context.Background(), "e1")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEmployeeRepositoryDeleteRejectsAssignedTeacher(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEmployeeRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM groups WHERE teacher_id = $1")).
		WithArgs("e1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectRollback()

	err := repo.Delete(context.Background(), "e1")
	require.ErrorIs(t, err, ErrTeacherAssigned)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEmployeeRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEmployeeRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM groups WHERE teacher_id = $1")).
		WithArgs("e1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE notifications SET creator_id = NULL WHERE creator_id = $1")).
		WithArgs("e1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM exam_teachers WHERE employee_id = $1")).
		WithArgs("e1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM employees WHERE id = $1")).
		WithArgs("e1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), "e1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
