package transaction

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/ledgerly/internal/clock"
	"github.com/MrJamesThe3rd/ledgerly/internal/identity"
	"github.com/MrJamesThe3rd/ledgerly/internal/ids"
	"github.com/MrJamesThe3rd/ledgerly/internal/validation"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=transaction
type Repository interface {
	Init(ctx context.Context) error
	ListTransactions(ctx context.Context) ([]*Transaction, error)
	GetTransaction(ctx context.Context, id string) (*Transaction, error)
	CreateTransactions(ctx context.Context, txs []*Transaction) error
	UpdateTransaction(ctx context.Context, tx *Transaction) error
	DeleteTransaction(ctx context.Context, id string) error
}

type Service struct {
	repo  Repository
	clock clock.Clock
}

func NewService(repo Repository, clk clock.Clock) *Service {
	return &Service{repo: repo, clock: clk}
}

const msgMissingFields = "Missing required fields"

type CreateParams struct {
	Type               Type
	Amount             decimal.Decimal
	Date               time.Time
	Category           string
	Description        string
	PaymentMethod      PaymentMethod
	ClientID           string
	InvoiceID          string
	Tags               []string
	Attachments        []string
	Notes              string
	IsRecurring        bool
	RecurringFrequency Frequency
	RawDescription     string
}

func (p CreateParams) validate() error {
	if !p.Type.Valid() || !p.Amount.IsPositive() || p.Date.IsZero() ||
		strings.TrimSpace(p.Category) == "" || strings.TrimSpace(p.Description) == "" {
		return validation.New(msgMissingFields)
	}

	return nil
}

// UpdateParams holds a partial update. Nil fields keep their stored value.
type UpdateParams struct {
	Type               *Type
	Amount             *decimal.Decimal
	Date               *time.Time
	Category           *string
	Description        *string
	PaymentMethod      *PaymentMethod
	ClientID           *string
	InvoiceID          *string
	Tags               []string
	Attachments        []string
	Notes              *string
	IsRecurring        *bool
	RecurringFrequency *Frequency
}

// Init prepares the backing table. Safe to call on every start.
func (s *Service) Init(ctx context.Context) error {
	return s.repo.Init(ctx)
}

func (s *Service) Create(ctx context.Context, actor identity.Identity, params CreateParams) (*Transaction, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	tx := s.newTransaction(actor, params)
	if err := s.repo.CreateTransactions(ctx, []*Transaction{tx}); err != nil {
		return nil, err
	}

	return tx, nil
}

func (s *Service) List(ctx context.Context, filter Filter) ([]*Transaction, error) {
	txs, err := s.repo.ListTransactions(ctx)
	if err != nil {
		return nil, err
	}

	return Apply(txs, filter), nil
}

func (s *Service) Get(ctx context.Context, id string) (*Transaction, error) {
	return s.repo.GetTransaction(ctx, id)
}

// Update merges params over the stored transaction. ID, CreatedAt and
// CreatedBy never change.
func (s *Service) Update(ctx context.Context, id string, params UpdateParams) (*Transaction, error) {
	if params.Type != nil && !params.Type.Valid() {
		return nil, validation.New("Invalid transaction type")
	}

	tx, err := s.repo.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}

	merge(tx, params)
	tx.UpdatedAt = s.clock.Now()

	if err := s.repo.UpdateTransaction(ctx, tx); err != nil {
		return nil, err
	}

	return tx, nil
}

func merge(tx *Transaction, p UpdateParams) {
	if p.Type != nil {
		tx.Type = *p.Type
	}

	if p.Amount != nil {
		tx.Amount = *p.Amount
	}

	if p.Date != nil {
		tx.Date = clock.DateOf(*p.Date)
	}

	if p.Category != nil {
		tx.Category = *p.Category
	}

	if p.Description != nil {
		tx.Description = *p.Description
	}

	if p.PaymentMethod != nil {
		tx.PaymentMethod = *p.PaymentMethod
	}

	if p.ClientID != nil {
		tx.ClientID = *p.ClientID
	}

	if p.InvoiceID != nil {
		tx.InvoiceID = *p.InvoiceID
	}

	if p.Tags != nil {
		tx.Tags = p.Tags
	}

	if p.Attachments != nil {
		tx.Attachments = p.Attachments
	}

	if p.Notes != nil {
		tx.Notes = *p.Notes
	}

	if p.IsRecurring != nil {
		tx.IsRecurring = *p.IsRecurring
	}

	if p.RecurringFrequency != nil {
		tx.RecurringFrequency = *p.RecurringFrequency
	}
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.DeleteTransaction(ctx, id)
}

type CategoryTotal struct {
	Amount decimal.Decimal
	Count  int
}

type Stats struct {
	TotalIncome       decimal.Decimal
	TotalExpenses     decimal.Decimal
	NetBalance        decimal.Decimal
	TransactionCount  int
	CategoryBreakdown map[string]CategoryTotal
}

// Stats aggregates the transactions dated within [start, end]; nil bounds are
// open.
func (s *Service) Stats(ctx context.Context, start, end *time.Time) (*Stats, error) {
	txs, err := s.List(ctx, Filter{StartDate: start, EndDate: end})
	if err != nil {
		return nil, err
	}

	return Summarize(txs), nil
}

func Summarize(txs []*Transaction) *Stats {
	st := &Stats{
		TotalIncome:       decimal.Zero,
		TotalExpenses:     decimal.Zero,
		CategoryBreakdown: make(map[string]CategoryTotal),
	}

	for _, tx := range txs {
		switch tx.Type {
		case TypeIncome:
			st.TotalIncome = st.TotalIncome.Add(tx.Amount)
		case TypeExpense:
			st.TotalExpenses = st.TotalExpenses.Add(tx.Amount)
		}

		ct := st.CategoryBreakdown[tx.Category]
		ct.Amount = ct.Amount.Add(tx.Amount)
		ct.Count++
		st.CategoryBreakdown[tx.Category] = ct
	}

	st.NetBalance = st.TotalIncome.Sub(st.TotalExpenses)
	st.TransactionCount = len(txs)

	return st
}

type ImportResult struct {
	Imported  []*Transaction
	New       []CreateParams
	Conflicts []Conflict
}

type Conflict struct {
	Incoming CreateParams
	Existing *Transaction
}

type dupKey struct {
	Date           string
	Amount         string
	Type           Type
	RawDescription string
}

func keyOf(date time.Time, amount decimal.Decimal, typ Type, raw string) dupKey {
	return dupKey{
		Date:           date.Format(time.DateOnly),
		Amount:         amount.StringFixed(2),
		Type:           typ,
		RawDescription: raw,
	}
}

// ImportBatch stores params unless any of them matches an existing
// transaction on date, amount, type and raw description. When conflicts exist
// nothing is written and the caller decides which entries to keep, then
// calls CreateBatch.
func (s *Service) ImportBatch(ctx context.Context, actor identity.Identity, params []CreateParams) (*ImportResult, error) {
	if len(params) == 0 {
		return &ImportResult{}, nil
	}

	existing, err := s.repo.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing existing transactions: %w", err)
	}

	lookup := make(map[dupKey]*Transaction, len(existing))
	for _, tx := range existing {
		lookup[keyOf(tx.Date, tx.Amount, tx.Type, tx.RawDescription)] = tx
	}

	var newParams []CreateParams

	var conflicts []Conflict

	for _, p := range params {
		found, ok := lookup[keyOf(p.Date, p.Amount, p.Type, p.RawDescription)]
		if ok {
			conflicts = append(conflicts, Conflict{Incoming: p, Existing: found})
			continue
		}

		newParams = append(newParams, p)
	}

	if len(conflicts) > 0 {
		return &ImportResult{New: newParams, Conflicts: conflicts}, nil
	}

	txs, err := s.CreateBatch(ctx, actor, newParams)
	if err != nil {
		return nil, err
	}

	return &ImportResult{Imported: txs}, nil
}

// CreateBatch appends all params in one write. Category and description are
// not required here: imported rows are categorised later.
func (s *Service) CreateBatch(ctx context.Context, actor identity.Identity, params []CreateParams) ([]*Transaction, error) {
	if len(params) == 0 {
		return nil, nil
	}

	txs := make([]*Transaction, len(params))
	for i, p := range params {
		txs[i] = s.newTransaction(actor, p)
	}

	if err := s.repo.CreateTransactions(ctx, txs); err != nil {
		return nil, fmt.Errorf("create transactions: %w", err)
	}

	return txs, nil
}

func (s *Service) newTransaction(actor identity.Identity, p CreateParams) *Transaction {
	now := s.clock.Now()

	method := p.PaymentMethod
	if method == "" {
		method = PaymentCash
	}

	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}

	attachments := p.Attachments
	if attachments == nil {
		attachments = []string{}
	}

	return &Transaction{
		ID:                 ids.NewAt(ids.PrefixTransaction, now),
		Type:               p.Type,
		Amount:             p.Amount,
		Date:               clock.DateOf(p.Date),
		Category:           strings.TrimSpace(p.Category),
		Description:        strings.TrimSpace(p.Description),
		PaymentMethod:      method,
		ClientID:           p.ClientID,
		InvoiceID:          p.InvoiceID,
		Tags:               tags,
		Attachments:        attachments,
		Notes:              p.Notes,
		IsRecurring:        p.IsRecurring,
		RecurringFrequency: p.RecurringFrequency,
		RawDescription:     p.RawDescription,
		CreatedAt:          now,
		UpdatedAt:          now,
		CreatedBy:          actor.Email,
	}
}
