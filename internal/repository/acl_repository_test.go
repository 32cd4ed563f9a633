package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valokuva/cms-admin-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	return sqlxDB, mock, func() {
		sqlxDB.Close()
		db.Close()
	}
}

func int64Ptr(v int64) *int64 {
	return &v
}

func TestAclRepositoryFindByAclID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAclRepository(db)
	rows := sqlmock.NewRows([]string{"permission_id", "acl_id", "user_id", "unit_id",
		"create_privilege", "read_privilege", "modify_privilege", "delete_privilege"}).
		AddRow(int64(1), int64(7), int64(3), nil, true, true, false, false).
		AddRow(int64(2), int64(7), nil, int64(5), false, true, false, false)
	mock.ExpectQuery("SELECT permission_id, acl_id").
		WithArgs(int64(7)).
		WillReturnRows(rows)

	result, err := repo.FindByAclID(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, int64(3), *result[0].UserID)
	assert.Nil(t, result[0].UnitID)
	assert.Equal(t, int64(5), *result[1].UnitID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAclRepositoryCreateGroupAllocatesID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAclRepository(db)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT COALESCE").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(int64(12)))
	mock.ExpectExec("INSERT INTO acl").
		WithArgs(int64(12), int64(3), nil, true, true, true, true).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO acl").
		WithArgs(int64(12), nil, int64(5), false, true, false, false).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	aclID, err := repo.CreateGroup(context.Background(), []models.Acl{
		{UserID: int64Ptr(3), CreatePriv: true, ReadPriv: true, ModifyPriv: true, DeletePriv: true},
		{UnitID: int64Ptr(5), ReadPriv: true},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(12), aclID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAclRepositoryCreateGroupRejectsEmpty(t *testing.T) {
	db, _, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAclRepository(db)
	_, err := repo.CreateGroup(context.Background(), nil)
	require.Error(t, err)
}

func TestAclRepositoryDeleteGroupNotFound(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAclRepository(db)
	mock.ExpectExec("DELETE FROM acl").
		WithArgs(int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.DeleteGroup(context.Background(), 99)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestAclRepositoryEntityAclRefs(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAclRepository(db)
	rows := sqlmock.NewRows([]string{"entity", "id", "acl_id"}).
		AddRow("page", int64(1), int64(4)).
		AddRow("gallery", int64(2), int64(4)).
		AddRow("form", int64(9), int64(6))
	mock.ExpectQuery("SELECT 'page' AS entity").WillReturnRows(rows)

	refs, err := repo.EntityAclRefs(context.Background())
	require.NoError(t, err)
	require.Len(t, refs, 3)
	assert.Equal(t, "gallery", refs[1].Entity)
	assert.Equal(t, int64(6), refs[2].AclID)
}
