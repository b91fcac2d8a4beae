package categorize_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/ledgerly/internal/categorize"
	"github.com/MrJamesThe3rd/ledgerly/internal/clock"
	categorizehttp "github.com/MrJamesThe3rd/ledgerly/internal/http/categorize"
	"github.com/MrJamesThe3rd/ledgerly/internal/identity"
)

var now = time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

func serve(t *testing.T, repo categorize.Repository, method, target, body string) (int, envelope) {
	t.Helper()

	r := chi.NewRouter()
	r.Route("/categories", categorizehttp.NewHandler(categorize.NewService(repo, clock.NewFake(now))).Routes)

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req = req.WithContext(identity.WithContext(req.Context(), identity.Identity{Email: "owner@example.com"}))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))

	return rec.Code, env
}

func TestHandler_Defaults(t *testing.T) {
	type testCase struct {
		name        string
		query       string
		wantIncome  int
		wantExpense int
	}

	tests := []testCase{
		{name: "Both", wantIncome: 7, wantExpense: 13},
		{name: "Income", query: "?type=income", wantIncome: 7},
		{name: "Expense", query: "?type=expense", wantExpense: 13},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)

			code, env := serve(t, categorize.NewMockRepository(ctrl), http.MethodGet, "/categories"+tt.query, "")
			require.Equal(t, http.StatusOK, code)

			var got struct {
				Income  []string `json:"income"`
				Expense []string `json:"expense"`
			}
			require.NoError(t, json.Unmarshal(env.Data, &got))
			assert.Len(t, got.Income, tt.wantIncome)
			assert.Len(t, got.Expense, tt.wantExpense)
		})
	}
}

func TestHandler_Suggest(t *testing.T) {
	rules := []*categorize.Rule{
		{ID: "rule_1", Pattern: "wise", Category: "Consulting", CreatedAt: now.Add(-time.Hour)},
		{ID: "rule_2", Pattern: "tfi wise", Category: "Service Income", CreatedAt: now.Add(-2 * time.Hour)},
	}

	ctrl := gomock.NewController(t)
	repo := categorize.NewMockRepository(ctrl)
	repo.EXPECT().ListRules(gomock.Any()).Return(rules, nil)
	repo.EXPECT().ListRules(gomock.Any()).Return(nil, errors.New("sheet missing"))

	code, env := serve(t, repo, http.MethodGet, "/categories/suggest?description=TFI+Wise+transfer", "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"rawDescription":"TFI Wise transfer","category":"Service Income"}`, string(env.Data))

	code, env = serve(t, repo, http.MethodGet, "/categories/suggest?description=anything", "")
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "Failed to suggest category", env.Error)

	code, env = serve(t, repo, http.MethodGet, "/categories/suggest", "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Description is required", env.Error)
}

func TestHandler_Learn(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := categorize.NewMockRepository(ctrl)
	repo.EXPECT().CreateRule(gomock.Any(), gomock.Any()).Return(nil)

	code, env := serve(t, repo, http.MethodPost, "/categories/rules", `{"pattern":" PAGAMENTO TSU ","category":"Taxes"}`)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "Category rule created successfully", env.Message)

	var got struct {
		Pattern   string `json:"pattern"`
		CreatedBy string `json:"createdBy"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "PAGAMENTO TSU", got.Pattern)
	assert.Equal(t, "owner@example.com", got.CreatedBy)

	code, env = serve(t, repo, http.MethodPost, "/categories/rules", `{"pattern":"x"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Pattern and category are required", env.Error)
}

func TestHandler_Rules(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := categorize.NewMockRepository(ctrl)
	repo.EXPECT().ListRules(gomock.Any()).Return([]*categorize.Rule{
		{ID: "rule_1", Pattern: "uber", Category: "Travel & Transportation"},
		{ID: "rule_2", Pattern: "uber eats", Category: "Meals & Entertainment"},
	}, nil)

	code, env := serve(t, repo, http.MethodGet, "/categories/rules", "")
	require.Equal(t, http.StatusOK, code)

	var got []struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &got))
	require.Len(t, got, 2)
	assert.Equal(t, "rule_2", got[0].ID)
}
