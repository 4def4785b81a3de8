package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/upb/portfolio-backend/models"
	"github.com/upb/portfolio-backend/repositories"
)

// MockTransactionManager is a mock implementation of TransactionManager
type MockTransactionManager struct {
	mock.Mock
}

func (m *MockTransactionManager) Begin(ctx context.Context) (repositories.Transaction, error) {
	args := m.Called(ctx)
	if tx := args.Get(0); tx != nil {
		return tx.(repositories.Transaction), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTransactionManager) InTransaction(ctx context.Context, fn func(ctx context.Context, tx repositories.Transaction) error) error {
	args := m.Called(ctx, fn)
	return args.Error(0)
}

// MockTransaction is a mock implementation of Transaction
type MockTransaction struct {
	mock.Mock
	committed  bool
	rolledback bool
}

func (m *MockTransaction) Commit() error {
	args := m.Called()
	m.committed = true
	return args.Error(0)
}

func (m *MockTransaction) Rollback() error {
	args := m.Called()
	m.rolledback = true
	return args.Error(0)
}

func (m *MockTransaction) Context() context.Context {
	args := m.Called()
	return args.Get(0).(context.Context)
}

type txCall struct {
	name      string
	beginErr  error
	fnErr     error
	rbErr     error
	commitErr error
	wantErr   string
	committed bool
	rolled    bool
}

var txCalls = []txCall{
	{name: "commits on success", committed: true},
	{name: "rolls back when fn fails", fnErr: ErrDuplicateEmail, wantErr: "email already exists", rolled: true},
	{name: "begin failure", beginErr: errors.New("pool exhausted"), wantErr: "failed to begin transaction"},
	{name: "commit failure", commitErr: errors.New("conn reset"), wantErr: "failed to commit transaction", committed: true},
	{name: "rollback failure", fnErr: errors.New("insert failed"), rbErr: errors.New("conn reset"), wantErr: "rollback error", rolled: true},
}

func (c txCall) setup(ctx context.Context) (*MockTransactionManager, *MockTransaction) {
	txMgr := new(MockTransactionManager)
	tx := new(MockTransaction)
	if c.beginErr != nil {
		txMgr.On("Begin", ctx).Return(nil, c.beginErr)
		return txMgr, tx
	}
	txMgr.On("Begin", ctx).Return(tx, nil)
	tx.On("Context").Return(ctx)
	if c.fnErr != nil {
		tx.On("Rollback").Return(c.rbErr)
	} else {
		tx.On("Commit").Return(c.commitErr)
	}
	return txMgr, tx
}

func (c txCall) check(t *testing.T, err error, txMgr *MockTransactionManager, tx *MockTransaction) {
	t.Helper()
	if c.wantErr == "" {
		assert.NoError(t, err)
	} else {
		require.Error(t, err)
		assert.Contains(t, err.Error(), c.wantErr)
	}
	assert.Equal(t, c.committed, tx.committed)
	assert.Equal(t, c.rolled, tx.rolledback)
	txMgr.AssertExpectations(t)
	tx.AssertExpectations(t)
}

func TestWithTransaction(t *testing.T) {
	for _, tt := range txCalls {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			txMgr, tx := tt.setup(ctx)

			err := WithTransaction(ctx, txMgr, func(ctx context.Context, _ repositories.Transaction) error {
				return tt.fnErr
			})

			tt.check(t, err, txMgr, tx)
		})
	}
}

func TestWithTransactionResult(t *testing.T) {
	for _, tt := range txCalls {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			txMgr, tx := tt.setup(ctx)
			created := models.NewUser("Jane", "jane@example.com", "hash")

			user, err := WithTransactionResult(ctx, txMgr, func(ctx context.Context, _ repositories.Transaction) (*models.User, error) {
				if tt.fnErr != nil {
					return nil, tt.fnErr
				}
				return created, nil
			})

			tt.check(t, err, txMgr, tx)
			if tt.wantErr == "" {
				assert.Same(t, created, user)
			}
		})
	}
}

func TestWithTransaction_FnErrorIsReturnedAsIs(t *testing.T) {
	ctx := context.Background()
	txMgr, tx := txCall{fnErr: ErrDuplicateEmail}.setup(ctx)

	err := WithTransaction(ctx, txMgr, func(context.Context, repositories.Transaction) error {
		return ErrDuplicateEmail
	})

	assert.Same(t, ErrDuplicateEmail, err)
	assert.True(t, tx.rolledback)
}

func TestWithTransaction_RollsBackOnPanic(t *testing.T) {
	ctx := context.Background()
	txMgr := new(MockTransactionManager)
	tx := new(MockTransaction)
	txMgr.On("Begin", ctx).Return(tx, nil)
	tx.On("Context").Return(ctx)
	tx.On("Rollback").Return(nil)

	assert.Panics(t, func() {
		_ = WithTransaction(ctx, txMgr, func(context.Context, repositories.Transaction) error {
			panic("boom")
		})
	})
	assert.True(t, tx.rolledback)
	assert.False(t, tx.committed)
}
