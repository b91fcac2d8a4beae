package transaction_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/ledgerly/internal/clock"
	"github.com/MrJamesThe3rd/ledgerly/internal/identity"
	"github.com/MrJamesThe3rd/ledgerly/internal/transaction"
	"github.com/MrJamesThe3rd/ledgerly/internal/validation"
)

var (
	actor = identity.Identity{Email: "owner@example.com", Name: "Owner"}
	now   = time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestService_Create(t *testing.T) {
	date := time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC)

	valid := transaction.CreateParams{
		Type:        transaction.TypeExpense,
		Amount:      dec("42.50"),
		Date:        date,
		Category:    "Office Supplies",
		Description: "Printer paper",
	}

	type args struct {
		params transaction.CreateParams
	}

	type testCase struct {
		name       string
		args       args
		setupMock  func(m *transaction.MockRepository)
		wantErr    bool
		wantErrMsg string
	}

	tests := []testCase{
		{
			name: "Success",
			args: args{params: valid},
			setupMock: func(m *transaction.MockRepository) {
				m.EXPECT().
					CreateTransactions(gomock.Any(), gomock.Len(1)).
					Return(nil)
			},
		},
		{
			name: "ZeroAmount",
			args: args{params: func() transaction.CreateParams {
				p := valid
				p.Amount = decimal.Zero
				return p
			}()},
			wantErr:    true,
			wantErrMsg: "Missing required fields",
		},
		{
			name: "MissingCategory",
			args: args{params: func() transaction.CreateParams {
				p := valid
				p.Category = "  "
				return p
			}()},
			wantErr:    true,
			wantErrMsg: "Missing required fields",
		},
		{
			name: "UnknownType",
			args: args{params: func() transaction.CreateParams {
				p := valid
				p.Type = "transfer"
				return p
			}()},
			wantErr:    true,
			wantErrMsg: "Missing required fields",
		},
		{
			name: "RepoError",
			args: args{params: valid},
			setupMock: func(m *transaction.MockRepository) {
				m.EXPECT().
					CreateTransactions(gomock.Any(), gomock.Any()).
					Return(errors.New("quota exceeded"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := transaction.NewMockRepository(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(repo)
			}

			svc := transaction.NewService(repo, clock.NewFake(now))
			got, err := svc.Create(context.Background(), actor, tt.args.params)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, got)

				if tt.wantErrMsg != "" {
					msg, ok := validation.Message(err)
					assert.True(t, ok)
					assert.Equal(t, tt.wantErrMsg, msg)
				}

				return
			}

			require.NoError(t, err)
			assert.Contains(t, got.ID, "txn_")
			assert.Equal(t, transaction.PaymentCash, got.PaymentMethod)
			assert.Equal(t, now, got.CreatedAt)
			assert.Equal(t, now, got.UpdatedAt)
			assert.Equal(t, "owner@example.com", got.CreatedBy)
			assert.Equal(t, []string{}, got.Tags)
		})
	}
}

func TestService_List(t *testing.T) {
	march := func(d int) time.Time { return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC) }

	stored := []*transaction.Transaction{
		{ID: "a", Type: transaction.TypeIncome, Amount: dec("1000"), Date: march(1), Category: "Consulting", Description: "Retainer", Tags: []string{"acme"}},
		{ID: "b", Type: transaction.TypeExpense, Amount: dec("20"), Date: march(5), Category: "Bank Fees", Description: "Monthly fee", Notes: "ACME bank"},
		{ID: "c", Type: transaction.TypeExpense, Amount: dec("300"), Date: march(10), Category: "Rent", Description: "Office", Tags: []string{"office", "fixed"}},
		{ID: "d", Type: transaction.TypeExpense, Amount: dec("12"), Date: march(11), Description: "Imported"},
	}

	type testCase struct {
		name    string
		filter  transaction.Filter
		wantIDs []string
	}

	tests := []testCase{
		{name: "NoFilter", filter: transaction.Filter{}, wantIDs: []string{"a", "b", "c", "d"}},
		{name: "InclusiveDates", filter: transaction.Filter{StartDate: new(march(5)), EndDate: new(march(10))}, wantIDs: []string{"b", "c"}},
		{name: "Type", filter: transaction.Filter{Type: transaction.TypeIncome}, wantIDs: []string{"a"}},
		{name: "AmountRange", filter: transaction.Filter{MinAmount: new(dec("20")), MaxAmount: new(dec("300"))}, wantIDs: []string{"b", "c"}},
		{name: "SearchCaseInsensitiveAcrossNotes", filter: transaction.Filter{Search: "acme"}, wantIDs: []string{"b"}},
		{name: "TagIntersection", filter: transaction.Filter{Tags: []string{"fixed", "other"}}, wantIDs: []string{"c"}},
		{name: "Uncategorized", filter: transaction.Filter{Uncategorized: true}, wantIDs: []string{"d"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := transaction.NewMockRepository(ctrl)
			repo.EXPECT().ListTransactions(gomock.Any()).Return(stored, nil)

			svc := transaction.NewService(repo, clock.NewFake(now))
			got, err := svc.List(context.Background(), tt.filter)
			require.NoError(t, err)

			gotIDs := make([]string, len(got))
			for i, tx := range got {
				gotIDs[i] = tx.ID
			}

			assert.Equal(t, tt.wantIDs, gotIDs)
		})
	}
}

func TestService_Update(t *testing.T) {
	created := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	type testCase struct {
		name      string
		params    transaction.UpdateParams
		setupMock func(m *transaction.MockRepository)
		wantErr   error
		check     func(t *testing.T, tx *transaction.Transaction)
	}

	tests := []testCase{
		{
			name:   "MergesProvidedFields",
			params: transaction.UpdateParams{Description: new("Updated"), Tags: []string{"x"}},
			setupMock: func(m *transaction.MockRepository) {
				m.EXPECT().GetTransaction(gomock.Any(), "txn_1").Return(&transaction.Transaction{
					ID: "txn_1", Type: transaction.TypeIncome, Amount: dec("10"), Description: "Old",
					Category: "Consulting", CreatedAt: created, UpdatedAt: created, CreatedBy: "first@example.com",
				}, nil)
				m.EXPECT().UpdateTransaction(gomock.Any(), gomock.Any()).Return(nil)
			},
			check: func(t *testing.T, tx *transaction.Transaction) {
				assert.Equal(t, "txn_1", tx.ID)
				assert.Equal(t, "Updated", tx.Description)
				assert.Equal(t, "Consulting", tx.Category)
				assert.Equal(t, []string{"x"}, tx.Tags)
				assert.Equal(t, created, tx.CreatedAt)
				assert.Equal(t, now, tx.UpdatedAt)
				assert.Equal(t, "first@example.com", tx.CreatedBy)
			},
		},
		{
			name:   "NotFound",
			params: transaction.UpdateParams{Description: new("x")},
			setupMock: func(m *transaction.MockRepository) {
				m.EXPECT().GetTransaction(gomock.Any(), "txn_1").Return(nil, transaction.ErrNotFound)
			},
			wantErr: transaction.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := transaction.NewMockRepository(ctrl)
			tt.setupMock(repo)

			svc := transaction.NewService(repo, clock.NewFake(now))
			got, err := svc.Update(context.Background(), "txn_1", tt.params)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			tt.check(t, got)
		})
	}
}

func TestService_Stats(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := transaction.NewMockRepository(ctrl)
	repo.EXPECT().ListTransactions(gomock.Any()).Return([]*transaction.Transaction{
		{Type: transaction.TypeIncome, Amount: dec("1000"), Category: "Consulting", Date: now},
		{Type: transaction.TypeIncome, Amount: dec("500"), Category: "Consulting", Date: now},
		{Type: transaction.TypeExpense, Amount: dec("300"), Category: "Rent", Date: now},
		{Type: transaction.TypeExpense, Amount: dec("99"), Category: "Rent", Date: now.AddDate(-1, 0, 0)},
	}, nil)

	svc := transaction.NewService(repo, clock.NewFake(now))
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	st, err := svc.Stats(context.Background(), &start, nil)
	require.NoError(t, err)

	assert.True(t, dec("1500").Equal(st.TotalIncome))
	assert.True(t, dec("300").Equal(st.TotalExpenses))
	assert.True(t, dec("1200").Equal(st.NetBalance))
	assert.Equal(t, 3, st.TransactionCount)
	assert.Equal(t, 2, st.CategoryBreakdown["Consulting"].Count)
	assert.True(t, dec("300").Equal(st.CategoryBreakdown["Rent"].Amount))
}

func TestService_ImportBatch_NoConflicts(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := transaction.NewMockRepository(ctrl)
	svc := transaction.NewService(repo, clock.NewFake(now))

	date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	params := []transaction.CreateParams{
		{
			Amount:         dec("10.00"),
			Type:           transaction.TypeExpense,
			Description:    "Coffee",
			RawDescription: "COFFEE SHOP",
			Date:           date,
		},
	}

	repo.EXPECT().ListTransactions(gomock.Any()).Return(nil, nil)
	repo.EXPECT().CreateTransactions(gomock.Any(), gomock.Len(1)).Return(nil)

	result, err := svc.ImportBatch(context.Background(), actor, params)
	require.NoError(t, err)
	assert.Len(t, result.Imported, 1)
	assert.Empty(t, result.Conflicts)
	assert.Empty(t, result.New)
	assert.Empty(t, result.Imported[0].Category)
}

func TestService_ImportBatch_WithConflicts(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := transaction.NewMockRepository(ctrl)
	svc := transaction.NewService(repo, clock.NewFake(now))

	date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	params := []transaction.CreateParams{
		{
			Amount:         dec("10"),
			Type:           transaction.TypeExpense,
			Description:    "Coffee",
			RawDescription: "COFFEE SHOP",
			Date:           date,
		},
		{
			Amount:         dec("20"),
			Type:           transaction.TypeExpense,
			Description:    "Lunch",
			RawDescription: "LUNCH PLACE",
			Date:           date,
		},
	}

	existing := &transaction.Transaction{
		ID:             "txn_existing",
		Amount:         dec("10.00"),
		Type:           transaction.TypeExpense,
		RawDescription: "COFFEE SHOP",
		Date:           date,
	}

	repo.EXPECT().ListTransactions(gomock.Any()).Return([]*transaction.Transaction{existing}, nil)

	result, err := svc.ImportBatch(context.Background(), actor, params)
	require.NoError(t, err)
	assert.Empty(t, result.Imported)
	assert.Len(t, result.New, 1)
	assert.Len(t, result.Conflicts, 1)
	assert.Equal(t, params[0], result.Conflicts[0].Incoming)
	assert.Equal(t, existing, result.Conflicts[0].Existing)
}

func TestService_ImportBatch_Empty(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := transaction.NewMockRepository(ctrl)
	svc := transaction.NewService(repo, clock.NewFake(now))

	result, err := svc.ImportBatch(context.Background(), actor, []transaction.CreateParams{})
	require.NoError(t, err)
	assert.Empty(t, result.Imported)
	assert.Empty(t, result.Conflicts)
	assert.Empty(t, result.New)
}

func TestService_CreateBatch(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := transaction.NewMockRepository(ctrl)
	svc := transaction.NewService(repo, clock.NewFake(now))

	date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	params := []transaction.CreateParams{
		{Amount: dec("10"), Type: transaction.TypeExpense, Description: "Coffee", RawDescription: "COFFEE SHOP", Date: date},
		{Amount: dec("5"), Type: transaction.TypeIncome, Description: "Refund", RawDescription: "REFUND", Date: date},
	}

	repo.EXPECT().CreateTransactions(gomock.Any(), gomock.Len(2)).Return(nil)

	txs, err := svc.CreateBatch(context.Background(), actor, params)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.True(t, dec("10").Equal(txs[0].Amount))
	assert.Equal(t, transaction.TypeExpense, txs[0].Type)
	assert.NotEqual(t, txs[0].ID, txs[1].ID)
}
