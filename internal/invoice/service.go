package invoice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/ledgerly/internal/clock"
	"github.com/MrJamesThe3rd/ledgerly/internal/events"
	"github.com/MrJamesThe3rd/ledgerly/internal/identity"
	"github.com/MrJamesThe3rd/ledgerly/internal/ids"
	"github.com/MrJamesThe3rd/ledgerly/internal/lock"
	"github.com/MrJamesThe3rd/ledgerly/internal/validation"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=invoice
type Repository interface {
	Init(ctx context.Context) error
	// ListInvoices returns every invoice with its items attached.
	ListInvoices(ctx context.Context) ([]*Invoice, error)
	GetInvoice(ctx context.Context, id string) (*Invoice, error)
	// CreateInvoice stores the invoice row and its item rows together.
	CreateInvoice(ctx context.Context, inv *Invoice) error
	// UpdateInvoice rewrites the invoice row and, when replaceItems is set,
	// swaps its stored item set for inv.Items in the same commit.
	UpdateInvoice(ctx context.Context, inv *Invoice, replaceItems bool) error
	// DeleteInvoice removes the invoice and its items.
	DeleteInvoice(ctx context.Context, id string) error
}

type Service struct {
	repo   Repository
	clock  clock.Clock
	locker lock.Locker
	events events.Publisher
}

type Option func(*Service)

// WithLocker serialises invoice number allocation across processes.
func WithLocker(l lock.Locker) Option {
	return func(s *Service) { s.locker = l }
}

func WithPublisher(p events.Publisher) Option {
	return func(s *Service) { s.events = p }
}

func NewService(repo Repository, clk clock.Clock, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		clock:  clk,
		locker: lock.NewLocal(),
		events: events.Noop{},
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

type ItemParams struct {
	// ID keeps an existing item's identity across an update. Empty means new.
	ID          string
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
}

type CreateParams struct {
	ClientID    string
	IssueDate   time.Time
	DueDate     time.Time
	Status      Status
	TaxRate     decimal.Decimal
	PaidAmount  decimal.Decimal
	Items       []ItemParams
	Notes       string
	Terms       string
	Attachments []string
	SentDate    time.Time
	PaidDate    time.Time
}

func (p CreateParams) validate() error {
	switch {
	case strings.TrimSpace(p.ClientID) == "":
		return validation.New("Client is required")
	case p.IssueDate.IsZero():
		return validation.New("Issue date is required")
	case p.DueDate.IsZero():
		return validation.New("Due date is required")
	case p.Status != "" && !p.Status.Valid():
		return validation.New("Invalid invoice status")
	}

	return validateItems(p.Items)
}

func (p UpdateParams) validate() error {
	switch {
	case p.ClientID != nil && strings.TrimSpace(*p.ClientID) == "":
		return validation.New("Client is required")
	case p.IssueDate != nil && p.IssueDate.IsZero():
		return validation.New("Issue date is required")
	case p.DueDate != nil && p.DueDate.IsZero():
		return validation.New("Due date is required")
	case p.Status != nil && !p.Status.Valid():
		return validation.New("Invalid invoice status")
	case p.TaxRate != nil && p.TaxRate.IsNegative():
		return validation.New("Tax rate cannot be negative")
	}

	if p.Items != nil {
		return validateItems(p.Items)
	}

	return nil
}

// checkPaid rejects a paid amount outside [0, total]. It runs after totals
// are recomputed so item and tax changes are taken into account.
func checkPaid(inv *Invoice) error {
	switch {
	case inv.PaidAmount.IsNegative():
		return validation.New("Paid amount cannot be negative")
	case inv.PaidAmount.GreaterThan(inv.Total):
		return validation.New("Paid amount cannot exceed the invoice total")
	}

	return nil
}

func validateItems(items []ItemParams) error {
	if len(items) == 0 {
		return validation.New("At least one line item is required")
	}

	for _, it := range items {
		if strings.TrimSpace(it.Description) == "" || !it.Quantity.IsPositive() || !it.UnitPrice.IsPositive() {
			return validation.New("Invalid line item data")
		}
	}

	return nil
}

// UpdateParams holds a partial update. Nil fields keep their stored value;
// a non-nil Items replaces the whole item set.
type UpdateParams struct {
	ClientID    *string
	IssueDate   *time.Time
	DueDate     *time.Time
	Status      *Status
	TaxRate     *decimal.Decimal
	PaidAmount  *decimal.Decimal
	Items       []ItemParams
	Notes       *string
	Terms       *string
	Attachments []string
	SentDate    *time.Time
	PaidDate    *time.Time
}

type Stats struct {
	Total       int
	Draft       int
	Sent        int
	Paid        int
	Overdue     int
	TotalAmount decimal.Decimal
	PaidAmount  decimal.Decimal
	Outstanding decimal.Decimal
}

func (s *Service) Init(ctx context.Context) error {
	return s.repo.Init(ctx)
}

func (s *Service) Create(ctx context.Context, actor identity.Identity, params CreateParams) (*Invoice, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	now := s.clock.Now()

	status := params.Status
	if status == "" {
		status = StatusDraft
	}

	inv := &Invoice{
		ID:          ids.NewAt(ids.PrefixInvoice, now),
		ClientID:    strings.TrimSpace(params.ClientID),
		IssueDate:   clock.DateOf(params.IssueDate),
		DueDate:     clock.DateOf(params.DueDate),
		Status:      status,
		TaxRate:     params.TaxRate,
		PaidAmount:  params.PaidAmount,
		Notes:       strings.TrimSpace(params.Notes),
		Terms:       strings.TrimSpace(params.Terms),
		Attachments: nonNil(params.Attachments),
		SentDate:    dateOrZero(params.SentDate),
		PaidDate:    dateOrZero(params.PaidDate),
		CreatedAt:   now,
		UpdatedAt:   now,
		CreatedBy:   actor.Email,
	}
	inv.Items = s.buildItems(inv.ID, params.Items, now)

	s.recalculate(inv, "", now)

	if err := checkPaid(inv); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("invoice-number:%d", now.Year())

	err := s.locker.WithLock(ctx, key, func(ctx context.Context) error {
		existing, err := s.repo.ListInvoices(ctx)
		if err != nil {
			return fmt.Errorf("listing invoices: %w", err)
		}

		numbers := make([]string, len(existing))
		for i, e := range existing {
			numbers[i] = e.Number
		}

		inv.Number = NextNumber(numbers, now.Year())

		return s.repo.CreateInvoice(ctx, inv)
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, events.InvoiceCreated, inv, actor)

	if inv.Status == StatusPaid {
		s.emit(ctx, events.InvoicePaid, inv, actor)
	}

	return inv, nil
}

func (s *Service) List(ctx context.Context, filter Filter) ([]*Invoice, error) {
	all, err := s.repo.ListInvoices(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*Invoice, 0, len(all))

	for _, inv := range all {
		if filter.Match(inv) {
			out = append(out, inv)
		}
	}

	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Invoice, error) {
	return s.repo.GetInvoice(ctx, id)
}

func (s *Service) Update(ctx context.Context, actor identity.Identity, id string, params UpdateParams) (*Invoice, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	inv, err := s.repo.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}

	before := inv.Status
	now := s.clock.Now()

	merge(inv, params)

	if params.Items != nil {
		inv.Items = s.buildItems(inv.ID, params.Items, now)
	}

	var override Status
	if params.Status != nil {
		override = *params.Status
	}

	s.recalculate(inv, override, now)
	inv.UpdatedAt = now

	if err := checkPaid(inv); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateInvoice(ctx, inv, params.Items != nil); err != nil {
		return nil, err
	}

	if before != StatusPaid && inv.Status == StatusPaid {
		s.emit(ctx, events.InvoicePaid, inv, actor)
	}

	return inv, nil
}

func merge(inv *Invoice, p UpdateParams) {
	if p.ClientID != nil {
		inv.ClientID = strings.TrimSpace(*p.ClientID)
	}

	if p.IssueDate != nil {
		inv.IssueDate = clock.DateOf(*p.IssueDate)
	}

	if p.DueDate != nil {
		inv.DueDate = clock.DateOf(*p.DueDate)
	}

	if p.TaxRate != nil {
		inv.TaxRate = *p.TaxRate
	}

	if p.PaidAmount != nil {
		inv.PaidAmount = *p.PaidAmount
	}

	if p.Notes != nil {
		inv.Notes = strings.TrimSpace(*p.Notes)
	}

	if p.Terms != nil {
		inv.Terms = strings.TrimSpace(*p.Terms)
	}

	if p.Attachments != nil {
		inv.Attachments = p.Attachments
	}

	if p.SentDate != nil {
		inv.SentDate = dateOrZero(*p.SentDate)
	}

	if p.PaidDate != nil {
		inv.PaidDate = dateOrZero(*p.PaidDate)
	}
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.DeleteInvoice(ctx, id)
}

// RecordPayment adds amount to the paid total. Overpayment is rejected. When
// the invoice becomes fully paid its paid date is set to when.
func (s *Service) RecordPayment(ctx context.Context, actor identity.Identity, id string, amount decimal.Decimal, when time.Time) (*Invoice, error) {
	if !amount.IsPositive() {
		return nil, validation.New("Payment amount must be positive")
	}

	inv, err := s.repo.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}

	if amount.GreaterThan(inv.Total.Sub(inv.PaidAmount)) {
		return nil, validation.New("Payment exceeds the balance due")
	}

	before := inv.Status
	now := s.clock.Now()

	inv.PaidAmount = inv.PaidAmount.Add(amount)
	if inv.PaidAmount.GreaterThanOrEqual(inv.Total) && inv.PaidDate.IsZero() {
		inv.PaidDate = clock.DateOf(when)
	}

	s.recalculate(inv, "", now)
	inv.UpdatedAt = now

	if err := s.repo.UpdateInvoice(ctx, inv, false); err != nil {
		return nil, err
	}

	if before != StatusPaid && inv.Status == StatusPaid {
		s.emit(ctx, events.InvoicePaid, inv, actor)
	}

	return inv, nil
}

// MarkSent records that the invoice went out on when. The derivation rule
// still applies, so a past-due invoice stays overdue.
func (s *Service) MarkSent(ctx context.Context, actor identity.Identity, id string, when time.Time) (*Invoice, error) {
	inv, err := s.repo.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()

	inv.SentDate = clock.DateOf(when)
	s.recalculate(inv, StatusSent, now)
	inv.UpdatedAt = now

	if err := s.repo.UpdateInvoice(ctx, inv, false); err != nil {
		return nil, err
	}

	s.emit(ctx, events.InvoiceSent, inv, actor)

	return inv, nil
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	all, err := s.repo.ListInvoices(ctx)
	if err != nil {
		return nil, err
	}

	st := &Stats{Total: len(all), TotalAmount: decimal.Zero, PaidAmount: decimal.Zero}

	for _, inv := range all {
		switch inv.Status {
		case StatusDraft:
			st.Draft++
		case StatusSent:
			st.Sent++
		case StatusPaid:
			st.Paid++
		case StatusOverdue:
			st.Overdue++
		}

		st.TotalAmount = st.TotalAmount.Add(inv.Total)
		st.PaidAmount = st.PaidAmount.Add(inv.PaidAmount)
	}

	st.Outstanding = st.TotalAmount.Sub(st.PaidAmount)

	return st, nil
}

func (s *Service) recalculate(inv *Invoice, override Status, now time.Time) {
	Recalculate(inv, override, clock.DateOf(now))
}

func (s *Service) buildItems(invoiceID string, params []ItemParams, now time.Time) []Item {
	items := make([]Item, len(params))
	for i, p := range params {
		id := p.ID
		if id == "" {
			id = ids.NewAt(ids.PrefixItem, now)
		}

		items[i] = Item{
			ID:          id,
			InvoiceID:   invoiceID,
			Description: strings.TrimSpace(p.Description),
			Quantity:    p.Quantity,
			UnitPrice:   p.UnitPrice,
		}
	}

	return items
}

func (s *Service) emit(ctx context.Context, typ string, inv *Invoice, actor identity.Identity) {
	events.Emit(ctx, s.events, events.Event{
		Type:       typ,
		SubjectID:  inv.ID,
		Actor:      actor.Email,
		OccurredAt: s.clock.Now(),
		Data: map[string]string{
			"number":     inv.Number,
			"clientId":   inv.ClientID,
			"total":      inv.Total.StringFixed(2),
			"balanceDue": inv.BalanceDue.StringFixed(2),
		},
	})
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}

	return list
}

func dateOrZero(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}

	return clock.DateOf(t)
}
