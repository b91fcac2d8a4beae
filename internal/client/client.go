package client

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("client not found")

// Type is the relationship kind. A client of TypeBoth is listed under both
// clients and vendors.
type Type string

const (
	TypeClient Type = "client"
	TypeVendor Type = "vendor"
	TypeBoth   Type = "both"
)

func (t Type) Valid() bool {
	return t == TypeClient || t == TypeVendor || t == TypeBoth
}

type Client struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	Address   string
	City      string
	State     string
	ZipCode   string
	Country   string
	TaxID     string
	Type      Type
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
	CreatedBy string
}

// Names indexes client display names by id.
func Names(clients []*Client) map[string]string {
	m := make(map[string]string, len(clients))
	for _, c := range clients {
		m[c.ID] = c.Name
	}

	return m
}
