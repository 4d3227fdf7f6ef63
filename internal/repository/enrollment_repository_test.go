package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/educenter-api/internal/models"
)

func TestEnrollmentRepositoryCountAndExists(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM student_groups WHERE group_id = $1 AND status = 'active'")).
		WithArgs("g1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))
	count, err := repo.CountActive(context.Background(), "g1")
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM student_groups WHERE student_id = $1 AND group_id = $2 AND status = 'active' LIMIT 1")).
		WithArgs("s1", "g1").
		WillReturnRows(sqlmock.NewRows([]string{"1"}))
	exists, err := repo.ExistsActive(context.Background(), "s1", "g1")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec("INSERT INTO student_groups").
		WithArgs(sqlmock.AnyArg(), "s1", "g1", models.StatusActive, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	enrollment := &models.StudentGroup{StudentID: "s1", GroupID: "g1"}
	require.NoError(t, repo.Create(context.Background(), enrollment))
	assert.NotEmpty(t, enrollment.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
