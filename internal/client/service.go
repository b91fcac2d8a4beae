package client

import (
	"context"
	"strings"

	"github.com/MrJamesThe3rd/ledgerly/internal/clock"
	"github.com/MrJamesThe3rd/ledgerly/internal/identity"
	"github.com/MrJamesThe3rd/ledgerly/internal/ids"
	"github.com/MrJamesThe3rd/ledgerly/internal/validation"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=client
type Repository interface {
	Init(ctx context.Context) error
	ListClients(ctx context.Context) ([]*Client, error)
	GetClient(ctx context.Context, id string) (*Client, error)
	CreateClient(ctx context.Context, c *Client) error
	UpdateClient(ctx context.Context, c *Client) error
	DeleteClient(ctx context.Context, id string) error
}

type Service struct {
	repo  Repository
	clock clock.Clock
}

func NewService(repo Repository, clk clock.Clock) *Service {
	return &Service{repo: repo, clock: clk}
}

type CreateParams struct {
	Name    string
	Email   string
	Phone   string
	Address string
	City    string
	State   string
	ZipCode string
	Country string
	TaxID   string
	Type    Type
	Notes   string
}

type UpdateParams struct {
	Name    *string
	Email   *string
	Phone   *string
	Address *string
	City    *string
	State   *string
	ZipCode *string
	Country *string
	TaxID   *string
	Type    *Type
	Notes   *string
}

type Stats struct {
	Total   int
	Clients int
	Vendors int
	Both    int
}

func (s *Service) Init(ctx context.Context) error {
	return s.repo.Init(ctx)
}

func (s *Service) Create(ctx context.Context, actor identity.Identity, params CreateParams) (*Client, error) {
	name := strings.TrimSpace(params.Name)
	email := strings.TrimSpace(params.Email)

	if name == "" || email == "" {
		return nil, validation.New("Name and email are required")
	}

	typ := params.Type
	if typ == "" {
		typ = TypeClient
	}

	if !typ.Valid() {
		return nil, validation.New("Invalid client type")
	}

	now := s.clock.Now()
	c := &Client{
		ID:        ids.NewAt(ids.PrefixClient, now),
		Name:      name,
		Email:     email,
		Phone:     params.Phone,
		Address:   params.Address,
		City:      params.City,
		State:     params.State,
		ZipCode:   params.ZipCode,
		Country:   params.Country,
		TaxID:     strings.TrimSpace(params.TaxID),
		Type:      typ,
		Notes:     strings.TrimSpace(params.Notes),
		CreatedAt: now,
		UpdatedAt: now,
		CreatedBy: actor.Email,
	}

	if err := s.repo.CreateClient(ctx, c); err != nil {
		return nil, err
	}

	return c, nil
}

func (s *Service) List(ctx context.Context) ([]*Client, error) {
	return s.repo.ListClients(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (*Client, error) {
	return s.repo.GetClient(ctx, id)
}

func (s *Service) Update(ctx context.Context, id string, params UpdateParams) (*Client, error) {
	if params.Type != nil && !params.Type.Valid() {
		return nil, validation.New("Invalid client type")
	}

	c, err := s.repo.GetClient(ctx, id)
	if err != nil {
		return nil, err
	}

	setIf(&c.Name, params.Name)
	setIf(&c.Email, params.Email)
	setIf(&c.Phone, params.Phone)
	setIf(&c.Address, params.Address)
	setIf(&c.City, params.City)
	setIf(&c.State, params.State)
	setIf(&c.ZipCode, params.ZipCode)
	setIf(&c.Country, params.Country)
	setIf(&c.TaxID, params.TaxID)
	setIf(&c.Notes, params.Notes)

	if params.Type != nil {
		c.Type = *params.Type
	}

	c.UpdatedAt = s.clock.Now()

	if err := s.repo.UpdateClient(ctx, c); err != nil {
		return nil, err
	}

	return c, nil
}

func setIf(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// Delete removes the client only. Transactions and invoices that reference
// it keep the dangling id.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.DeleteClient(ctx, id)
}

// Search matches name, email and tax id case-insensitively and phone as a raw
// substring.
func (s *Service) Search(ctx context.Context, query string) ([]*Client, error) {
	clients, err := s.repo.ListClients(ctx)
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(query)

	var out []*Client

	for _, c := range clients {
		if strings.Contains(strings.ToLower(c.Name), q) ||
			strings.Contains(strings.ToLower(c.Email), q) ||
			strings.Contains(c.Phone, query) ||
			(c.TaxID != "" && strings.Contains(strings.ToLower(c.TaxID), q)) {
			out = append(out, c)
		}
	}

	return out, nil
}

// ListByType returns clients of type t plus those of TypeBoth.
func (s *Service) ListByType(ctx context.Context, t Type) ([]*Client, error) {
	clients, err := s.repo.ListClients(ctx)
	if err != nil {
		return nil, err
	}

	var out []*Client

	for _, c := range clients {
		if c.Type == t || c.Type == TypeBoth {
			out = append(out, c)
		}
	}

	return out, nil
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	clients, err := s.repo.ListClients(ctx)
	if err != nil {
		return nil, err
	}

	st := &Stats{Total: len(clients)}

	for _, c := range clients {
		switch c.Type {
		case TypeClient:
			st.Clients++
		case TypeVendor:
			st.Vendors++
		case TypeBoth:
			st.Both++
		}
	}

	return st, nil
}
