package departments

import (
	"context"
	"testing"

	"maildesk/internal/cache"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDirectory(t *testing.T, fallback string) (*Directory, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	db := sqlx.NewDb(mockDB, "sqlmock")
	return NewDirectory(db, cache.New(), fallback, zerolog.Nop()), mock
}

func departmentRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "head_name", "head_email"}).
		AddRow(1, "Finance", "", "").
		AddRow(2, "HR", "Dana Levi", "dana@example.com").
		AddRow(3, "Other", "", "").
		AddRow(4, "Sales", "Avi Cohen", "avi@example.com")
}

func TestResolve_ExactMatch(t *testing.T) {
	dir, mock := newMockDirectory(t, "Other")
	mock.ExpectQuery("SELECT id, name, head_name, head_email FROM departments").
		WillReturnRows(departmentRows())

	dept, usedFallback, err := dir.Resolve(context.Background(), "Sales")

	require.NoError(t, err)
	assert.False(t, usedFallback)
	assert.Equal(t, "Sales", dept.Name)
	assert.Equal(t, "avi@example.com", dept.HeadEmail)
}

func TestResolve_CaseInsensitiveMatch(t *testing.T) {
	dir, mock := newMockDirectory(t, "Other")
	mock.ExpectQuery("SELECT id, name, head_name, head_email FROM departments").
		WillReturnRows(departmentRows())

	dept, usedFallback, err := dir.Resolve(context.Background(), "sales")

	require.NoError(t, err)
	assert.False(t, usedFallback)
	assert.Equal(t, "Sales", dept.Name)
}

func TestResolve_ShoutedLabelMatches(t *testing.T) {
	dir, mock := newMockDirectory(t, "Other")
	mock.ExpectQuery("SELECT id, name, head_name, head_email FROM departments").
		WillReturnRows(departmentRows())

	dept, usedFallback, err := dir.Resolve(context.Background(), "  FINANCE ")

	require.NoError(t, err)
	assert.False(t, usedFallback)
	assert.Equal(t, "Finance", dept.Name)
}

func TestResolve_UnknownLabelFallsBack(t *testing.T) {
	dir, mock := newMockDirectory(t, "Other")
	mock.ExpectQuery("SELECT id, name, head_name, head_email FROM departments").
		WillReturnRows(departmentRows())

	dept, usedFallback, err := dir.Resolve(context.Background(), "Unknown")

	require.NoError(t, err)
	assert.True(t, usedFallback)
	assert.Equal(t, "Other", dept.Name)
}

func TestResolve_MissingFallbackIsFatal(t *testing.T) {
	dir, mock := newMockDirectory(t, "Other")
	mock.ExpectQuery("SELECT id, name, head_name, head_email FROM departments").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "head_name", "head_email"}).
			AddRow(1, "Sales", "", ""))

	_, _, err := dir.Resolve(context.Background(), "Unknown")

	assert.ErrorIs(t, err, ErrNoFallback)
}

func TestResolve_EveryLabelResolves(t *testing.T) {
	// Resolution must be total as long as the fallback exists
	labels := []string{"Sales", "sales", "SALES", "Unknown", "", "Späm", "hr"}

	dir, mock := newMockDirectory(t, "Other")
	mock.ExpectQuery("SELECT id, name, head_name, head_email FROM departments").
		WillReturnRows(departmentRows())

	for _, label := range labels {
		dept, _, err := dir.Resolve(context.Background(), label)
		require.NoError(t, err, "label %q", label)
		assert.NotEmpty(t, dept.Name, "label %q", label)
	}
}

func TestAll_UsesCachedSnapshot(t *testing.T) {
	dir, mock := newMockDirectory(t, "Other")
	mock.ExpectQuery("SELECT id, name, head_name, head_email FROM departments").
		WillReturnRows(departmentRows())

	// Second call must be served from the cache; only one query expected
	_, err := dir.All(context.Background())
	require.NoError(t, err)
	all, err := dir.All(context.Background())
	require.NoError(t, err)

	assert.Len(t, all, 4)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNames(t *testing.T) {
	dir, mock := newMockDirectory(t, "Other")
	mock.ExpectQuery("SELECT id, name, head_name, head_email FROM departments").
		WillReturnRows(departmentRows())

	names, err := dir.Names(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"Finance", "HR", "Other", "Sales"}, names)
}

func TestUpdateHead_InvalidatesCache(t *testing.T) {
	dir, mock := newMockDirectory(t, "Other")
	mock.ExpectQuery("SELECT id, name, head_name, head_email FROM departments").
		WillReturnRows(departmentRows())
	mock.ExpectExec("UPDATE departments SET head_name").
		WithArgs("New Head", "head@example.com", 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT id, name, head_name, head_email FROM departments").
		WillReturnRows(departmentRows())

	_, err := dir.All(context.Background())
	require.NoError(t, err)

	err = dir.UpdateHead(context.Background(), 2, "New Head", "head@example.com")
	require.NoError(t, err)

	// Cache was invalidated, so this hits the database again
	_, err = dir.All(context.Background())
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateHead_UnknownDepartment(t *testing.T) {
	dir, mock := newMockDirectory(t, "Other")
	mock.ExpectExec("UPDATE departments SET head_name").
		WithArgs("x", "x@example.com", 99).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := dir.UpdateHead(context.Background(), 99, "x", "x@example.com")
	assert.Error(t, err)
}
