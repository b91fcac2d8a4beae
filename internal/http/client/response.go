package client

import (
	"time"

	"github.com/MrJamesThe3rd/ledgerly/internal/client"
)

type clientResponse struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Phone     string      `json:"phone"`
	Address   string      `json:"address"`
	City      string      `json:"city"`
	State     string      `json:"state"`
	ZipCode   string      `json:"zipCode"`
	Country   string      `json:"country"`
	TaxID     string      `json:"taxId,omitempty"`
	Type      client.Type `json:"type"`
	Notes     string      `json:"notes,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
	CreatedBy string      `json:"createdBy"`
}

func toResponse(c *client.Client) clientResponse {
	return clientResponse{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		Phone:     c.Phone,
		Address:   c.Address,
		City:      c.City,
		State:     c.State,
		ZipCode:   c.ZipCode,
		Country:   c.Country,
		TaxID:     c.TaxID,
		Type:      c.Type,
		Notes:     c.Notes,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
		CreatedBy: c.CreatedBy,
	}
}

func toResponseList(clients []*client.Client) []clientResponse {
	resp := make([]clientResponse, len(clients))
	for i, c := range clients {
		resp[i] = toResponse(c)
	}

	return resp
}

type statsResponse struct {
	TotalClients int `json:"totalClients"`
	ClientCount  int `json:"clientCount"`
	VendorCount  int `json:"vendorCount"`
	BothCount    int `json:"bothCount"`
}
