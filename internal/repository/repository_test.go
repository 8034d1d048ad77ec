package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/Dan9191/finance-ledger/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// RepositoryTestSuite runs store operations against a migrated SQLite file
type RepositoryTestSuite struct {
	suite.Suite
	repo *Repository
	ctx  context.Context
}

func (s *RepositoryTestSuite) SetupTest() {
	repo, err := Open(DialectSQLite, filepath.Join(s.T().TempDir(), "ledger.db"))
	require.NoError(s.T(), err, "failed to open test database")
	s.repo = repo
	s.ctx = context.Background()
}

func (s *RepositoryTestSuite) TearDownTest() {
	if s.repo != nil {
		s.repo.Close()
	}
}

func (s *RepositoryTestSuite) createUser(name string, balance string) *models.User {
	user := &models.User{
		Name:           name,
		Balance:        decimal.RequireFromString(balance),
		OpeningBalance: decimal.RequireFromString(balance),
	}
	require.NoError(s.T(), s.repo.CreateUser(s.ctx, user))
	return user
}

func (s *RepositoryTestSuite) TestCreateAndFindUser() {
	user := s.createUser("alice", "100.50")
	assert.NotZero(s.T(), user.ID)

	found, err := s.repo.FindUserByID(s.ctx, user.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "alice", found.Name)
	assert.True(s.T(), decimal.RequireFromString("100.50").Equal(found.Balance))
	assert.True(s.T(), found.OpeningBalance.Equal(found.Balance))

	byName, err := s.repo.FindUserByName(s.ctx, "alice")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), user.ID, byName.ID)
}

func (s *RepositoryTestSuite) TestFindUserNotFound() {
	_, err := s.repo.FindUserByID(s.ctx, 999)
	assert.ErrorIs(s.T(), err, ErrNotFound)

	_, err = s.repo.FindUserByName(s.ctx, "nobody")
	assert.ErrorIs(s.T(), err, ErrNotFound)
}

func (s *RepositoryTestSuite) TestCreateUserDuplicateName() {
	s.createUser("bob", "0")

	err := s.repo.CreateUser(s.ctx, &models.User{Name: "bob"})
	assert.ErrorIs(s.T(), err, ErrDuplicate)
}

func (s *RepositoryTestSuite) TestCategoryLifecycle() {
	category := &models.Category{Name: "Groceries"}
	require.NoError(s.T(), s.repo.CreateCategory(s.ctx, category))
	assert.NotZero(s.T(), category.ID)

	found, err := s.repo.FindCategoryByID(s.ctx, category.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "Groceries", found.Name)

	require.NoError(s.T(), s.repo.DeleteCategory(s.ctx, category.ID))
	_, err = s.repo.FindCategoryByID(s.ctx, category.ID)
	assert.ErrorIs(s.T(), err, ErrNotFound)

	assert.ErrorIs(s.T(), s.repo.DeleteCategory(s.ctx, category.ID), ErrNotFound)
}

func (s *RepositoryTestSuite) TestRecordRoundTripWithCategory() {
	user := s.createUser("carol", "10")
	category := &models.Category{Name: "Salary"}
	require.NoError(s.T(), s.repo.CreateCategory(s.ctx, category))

	record := &models.Record{
		UserID:      user.ID,
		CategoryID:  &category.ID,
		Amount:      decimal.RequireFromString("1234.56"),
		Description: "October",
	}
	err := s.repo.InTx(s.ctx, func(tx *Tx) error {
		return tx.InsertRecord(s.ctx, record)
	})
	require.NoError(s.T(), err)

	found, err := s.repo.FindRecordByID(s.ctx, record.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), user.ID, found.UserID)
	assert.False(s.T(), found.IsExpense)
	assert.Equal(s.T(), "October", found.Description)
	assert.True(s.T(), decimal.RequireFromString("1234.56").Equal(found.Amount))
	require.NotNil(s.T(), found.Category)
	assert.Equal(s.T(), "Salary", found.Category.Name)
	require.NotNil(s.T(), found.CategoryID)
	assert.Equal(s.T(), category.ID, *found.CategoryID)
}

func (s *RepositoryTestSuite) TestDeleteCategoryNullsRecordReference() {
	user := s.createUser("dave", "10")
	category := &models.Category{Name: "Fun"}
	require.NoError(s.T(), s.repo.CreateCategory(s.ctx, category))

	record := &models.Record{UserID: user.ID, CategoryID: &category.ID, Amount: decimal.NewFromInt(5), IsExpense: true}
	require.NoError(s.T(), s.repo.InTx(s.ctx, func(tx *Tx) error { return tx.InsertRecord(s.ctx, record) }))

	require.NoError(s.T(), s.repo.DeleteCategory(s.ctx, category.ID))

	found, err := s.repo.FindRecordByID(s.ctx, record.ID)
	require.NoError(s.T(), err)
	assert.Nil(s.T(), found.CategoryID)
	assert.Nil(s.T(), found.Category)
}

func (s *RepositoryTestSuite) TestFindRecordNotFound() {
	_, err := s.repo.FindRecordByID(s.ctx, 42)
	assert.ErrorIs(s.T(), err, ErrNotFound)
}

func (s *RepositoryTestSuite) TestInTxRollsBackOnError() {
	user := s.createUser("erin", "50")
	boom := errors.New("boom")

	err := s.repo.InTx(s.ctx, func(tx *Tx) error {
		locked, err := tx.LockUser(s.ctx, user.ID)
		if err != nil {
			return err
		}
		if err := tx.UpdateBalance(s.ctx, user.ID, locked.Balance.Sub(decimal.NewFromInt(20))); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(s.T(), err, boom)

	found, err := s.repo.FindUserByID(s.ctx, user.ID)
	require.NoError(s.T(), err)
	assert.True(s.T(), decimal.NewFromInt(50).Equal(found.Balance), "balance should be unchanged, got %s", found.Balance)
}

func (s *RepositoryTestSuite) TestTxCategoryExists() {
	category := &models.Category{Name: "Rent"}
	require.NoError(s.T(), s.repo.CreateCategory(s.ctx, category))

	err := s.repo.InTx(s.ctx, func(tx *Tx) error {
		ok, err := tx.CategoryExists(s.ctx, category.ID)
		require.NoError(s.T(), err)
		assert.True(s.T(), ok)

		ok, err = tx.CategoryExists(s.ctx, category.ID+100)
		require.NoError(s.T(), err)
		assert.False(s.T(), ok)
		return nil
	})
	require.NoError(s.T(), err)
}

func (s *RepositoryTestSuite) TestTotals() {
	user := s.createUser("frank", "100")
	other := s.createUser("grace", "0")

	err := s.repo.InTx(s.ctx, func(tx *Tx) error {
		for _, r := range []*models.Record{
			{UserID: user.ID, Amount: decimal.RequireFromString("30.25"), IsExpense: true},
			{UserID: user.ID, Amount: decimal.RequireFromString("10.10")},
		} {
			if err := tx.InsertRecord(s.ctx, r); err != nil {
				return err
			}
		}
		if err := tx.InsertAdjustment(s.ctx, &models.Adjustment{
			UserID: user.ID, Amount: decimal.NewFromInt(-5), Kind: models.AdjustmentWithdraw,
		}); err != nil {
			return err
		}
		return tx.UpdateBalance(s.ctx, user.ID, decimal.RequireFromString("74.85"))
	})
	require.NoError(s.T(), err)

	totals, err := s.repo.Totals(s.ctx)
	require.NoError(s.T(), err)
	require.Len(s.T(), totals, 2)

	assert.Equal(s.T(), user.ID, totals[0].UserID)
	assert.True(s.T(), decimal.RequireFromString("-20.15").Equal(totals[0].Records), "records sum %s", totals[0].Records)
	assert.True(s.T(), decimal.NewFromInt(-5).Equal(totals[0].Adjustments))
	assert.True(s.T(), totals[0].Expected().Equal(totals[0].Balance))

	assert.Equal(s.T(), other.ID, totals[1].UserID)
	assert.True(s.T(), totals[1].Expected().IsZero())
}

func TestRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(RepositoryTestSuite))
}

func TestRebind(t *testing.T) {
	q := `SELECT a FROM t WHERE x = ? AND y = ?`
	assert.Equal(t, q, rebind(DialectSQLite, q))
	assert.Equal(t, `SELECT a FROM t WHERE x = $1 AND y = $2`, rebind(DialectPostgres, q))
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "ledger.db?"+sqlitePragmas, sqliteDSN("ledger.db"))
	assert.Equal(t, "ledger.db?mode=rwc&"+sqlitePragmas, sqliteDSN("ledger.db?mode=rwc"))
	assert.Equal(t, "ledger.db?_pragma=journal_mode(WAL)", sqliteDSN("ledger.db?_pragma=journal_mode(WAL)"))
}
