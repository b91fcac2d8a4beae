package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrJamesThe3rd/ledgerly/internal/client"
	"github.com/MrJamesThe3rd/ledgerly/internal/datastore"
	"github.com/MrJamesThe3rd/ledgerly/internal/rowcodec"
)

var Schema = rowcodec.Schema{
	Table:   "Clients",
	Version: 1,
	Fields: []string{
		"id", "name", "email", "phone", "address", "city", "state", "zipCode",
		"country", "taxId", "type", "notes", "createdAt", "updatedAt", "createdBy",
	},
}

type Store struct {
	table *datastore.Table
}

func New(gw datastore.Gateway) *Store {
	return &Store{table: datastore.NewTable(gw, Schema)}
}

func (s *Store) Init(ctx context.Context) error {
	return s.table.Init(ctx)
}

func (s *Store) ListClients(ctx context.Context) ([]*client.Client, error) {
	recs, err := s.table.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing clients: %w", err)
	}

	out := make([]*client.Client, len(recs))
	for i, r := range recs {
		out[i] = fromRecord(r)
	}

	return out, nil
}

func (s *Store) GetClient(ctx context.Context, id string) (*client.Client, error) {
	rec, err := s.table.Find(ctx, id)
	if err != nil {
		return nil, mapErr("getting client", err)
	}

	return fromRecord(rec), nil
}

func (s *Store) CreateClient(ctx context.Context, c *client.Client) error {
	if err := s.table.Insert(ctx, toRecord(c)); err != nil {
		return fmt.Errorf("creating client: %w", err)
	}

	return nil
}

func (s *Store) UpdateClient(ctx context.Context, c *client.Client) error {
	if err := s.table.Replace(ctx, toRecord(c)); err != nil {
		return mapErr("updating client", err)
	}

	return nil
}

func (s *Store) DeleteClient(ctx context.Context, id string) error {
	if err := s.table.Remove(ctx, id); err != nil {
		return mapErr("deleting client", err)
	}

	return nil
}

func mapErr(op string, err error) error {
	if errors.Is(err, datastore.ErrRowNotFound) {
		return client.ErrNotFound
	}

	return fmt.Errorf("%s: %w", op, err)
}

func toRecord(c *client.Client) rowcodec.Record {
	return rowcodec.Record{
		"id":        c.ID,
		"name":      c.Name,
		"email":     c.Email,
		"phone":     c.Phone,
		"address":   c.Address,
		"city":      c.City,
		"state":     c.State,
		"zipCode":   c.ZipCode,
		"country":   c.Country,
		"taxId":     c.TaxID,
		"type":      string(c.Type),
		"notes":     c.Notes,
		"createdAt": rowcodec.Time(c.CreatedAt),
		"updatedAt": rowcodec.Time(c.UpdatedAt),
		"createdBy": c.CreatedBy,
	}
}

func fromRecord(r rowcodec.Record) *client.Client {
	typ := client.Type(r["type"])
	if typ == "" {
		typ = client.TypeClient
	}

	return &client.Client{
		ID:        r["id"],
		Name:      r["name"],
		Email:     r["email"],
		Phone:     r["phone"],
		Address:   r["address"],
		City:      r["city"],
		State:     r["state"],
		ZipCode:   r["zipCode"],
		Country:   r["country"],
		TaxID:     r["taxId"],
		Type:      typ,
		Notes:     r["notes"],
		CreatedAt: rowcodec.ParseTime(r["createdAt"]),
		UpdatedAt: rowcodec.ParseTime(r["updatedAt"]),
		CreatedBy: r["createdBy"],
	}
}
