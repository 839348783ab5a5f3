package repository

import (
	"errors"
	"testing"
	"time"

	"github.com/Johnie198946/Authen-sub002/internal/model"

	"github.com/DATA-DOG/go-sqlmock"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func newMockUserOrgRepo(t *testing.T) (UserOrganizationRepository, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New() error: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	gdb, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	if err != nil {
		t.Fatalf("gorm.Open() error: %v", err)
	}

	return NewUserOrganizationRepository(gdb), mock
}

func TestUserOrganizationRepository_Assign(t *testing.T) {
	repo, mock := newMockUserOrgRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT IGNORE INTO `user_organizations`").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	err := repo.Assign([]model.UserOrganization{
		{UserID: 1, NodeID: "n1"},
		{UserID: 2, NodeID: "n1"},
	})
	if err != nil {
		t.Fatalf("Assign() error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserOrganizationRepository_Assign_Empty(t *testing.T) {
	repo, _ := newMockUserOrgRepo(t)

	if err := repo.Assign(nil); err != nil {
		t.Fatalf("Assign() error: %v", err)
	}
}

func TestUserOrganizationRepository_Assign_MissingField(t *testing.T) {
	repo, _ := newMockUserOrgRepo(t)

	if err := repo.Assign([]model.UserOrganization{{NodeID: "n1"}}); err == nil {
		t.Fatal("expected error for zero user id, got nil")
	}
}

func TestUserOrganizationRepository_FindByNodeID(t *testing.T) {
	repo, mock := newMockUserOrgRepo(t)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"user_id", "node_id", "created_at"}).
		AddRow(1, "n1", now).
		AddRow(2, "n1", now)

	mock.ExpectQuery("SELECT .* FROM `user_organizations` WHERE node_id = \\? ORDER BY user_id ASC").
		WithArgs("n1").
		WillReturnRows(rows)

	memberships, err := repo.FindByNodeID("n1")
	if err != nil {
		t.Fatalf("FindByNodeID() error: %v", err)
	}
	if len(memberships) != 2 || memberships[0].UserID != 1 {
		t.Fatalf("unexpected memberships: %+v", memberships)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserOrganizationRepository_Remove(t *testing.T) {
	repo, mock := newMockUserOrgRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM `user_organizations` WHERE node_id = \\? AND user_id = \\?").
		WithArgs("n1", uint(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.Remove("n1", 1); err != nil {
		t.Fatalf("Remove() error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserOrganizationRepository_Remove_NotFound(t *testing.T) {
	repo, mock := newMockUserOrgRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM `user_organizations` WHERE node_id = \\? AND user_id = \\?").
		WithArgs("n1", uint(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.Remove("n1", 99)
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got: %v", err)
	}
}
