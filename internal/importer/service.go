package importer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/MrJamesThe3rd/ledgerly/internal/client"
	"github.com/MrJamesThe3rd/ledgerly/internal/importer/cgd"
	"github.com/MrJamesThe3rd/ledgerly/internal/transaction"
	"github.com/MrJamesThe3rd/ledgerly/internal/validation"
)

// Suggester proposes a category for a raw bank description, or "" for none.
type Suggester interface {
	Suggest(ctx context.Context, rawDescription string) (string, error)
}

// ClientDirectory lists the client book used to assign counterparties.
type ClientDirectory interface {
	List(ctx context.Context) ([]*client.Client, error)
}

type Option func(*Service)

// WithClients matches parsed rows against the client book.
func WithClients(dir ClientDirectory) Option {
	return func(s *Service) {
		s.clients = dir
	}
}

type Service struct {
	parsers   map[Bank]Parser
	suggester Suggester
	clients   ClientDirectory
}

func NewService(suggester Suggester, opts ...Option) *Service {
	s := &Service{
		parsers:   map[Bank]Parser{BankCGD: cgd.NewParser()},
		suggester: suggester,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Parse reads a statement from bank and returns drafts ready for review.
// Each row is tagged with the bank, matched to a counterparty when the client
// book names one in the bank text, and given a suggested category. Lookup
// failures are logged and leave the affected fields empty.
func (s *Service) Parse(ctx context.Context, bank Bank, r io.Reader) ([]transaction.CreateParams, error) {
	p, ok := s.parsers[bank]
	if !ok {
		return nil, validation.New(fmt.Sprintf("Unknown bank: %s", bank))
	}

	params, err := p.Parse(r)
	if err != nil {
		return nil, validation.New(err.Error())
	}

	tag := bank.Tag()
	for i := range params {
		if !slices.Contains(params[i].Tags, tag) {
			params[i].Tags = append(params[i].Tags, tag)
		}
	}

	s.assignClients(ctx, params)
	s.suggestCategories(ctx, params)

	slog.Info("statement parsed", "bank", string(bank), "rows", len(params))

	return params, nil
}

func (s *Service) assignClients(ctx context.Context, params []transaction.CreateParams) {
	if s.clients == nil {
		return
	}

	list, err := s.clients.List(ctx)
	if err != nil {
		slog.Warn("listing clients for import", "error", err)
		return
	}

	book := newCounterparties(list)
	if len(book) == 0 {
		return
	}

	for i := range params {
		if params[i].ClientID != "" {
			continue
		}

		params[i].ClientID = book.match(params[i].RawDescription, params[i].Type)
	}
}

// suggestCategories stops at the first failure; the rest stay uncategorized.
func (s *Service) suggestCategories(ctx context.Context, params []transaction.CreateParams) {
	if s.suggester == nil {
		return
	}

	for i := range params {
		if params[i].Category != "" {
			continue
		}

		cat, err := s.suggester.Suggest(ctx, params[i].RawDescription)
		if err != nil {
			slog.Warn("category suggestion failed", "error", err)
			return
		}

		params[i].Category = cat
	}
}
