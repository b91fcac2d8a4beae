package client

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/ledgerly/internal/client"
	"github.com/MrJamesThe3rd/ledgerly/internal/http/request"
	"github.com/MrJamesThe3rd/ledgerly/internal/http/respond"
	"github.com/MrJamesThe3rd/ledgerly/internal/identity"
)

const msgNotFound = "Client not found"

type Handler struct {
	svc *client.Service
}

func NewHandler(svc *client.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

// list answers, in order of precedence, the stats aggregate, a free-text
// search, a type filter or the full collection. Unknown types fall through to
// the full collection.
func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var (
		clients []*client.Client
		err     error
	)

	switch typ := client.Type(q.Get("type")); {
	case q.Get("action") == "stats":
		h.stats(w, r)
		return
	case q.Get("query") != "":
		clients, err = h.svc.Search(r.Context(), q.Get("query"))
	case typ.Valid():
		clients, err = h.svc.ListByType(r.Context(), typ)
	default:
		clients, err = h.svc.List(r.Context())
	}

	if err != nil {
		respond.Fail(w, "Failed to fetch clients", err)
		return
	}

	respond.OK(w, toResponseList(clients))
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Stats(r.Context())
	if err != nil {
		respond.Fail(w, "Failed to fetch clients", err)
		return
	}

	respond.OK(w, statsResponse{
		TotalClients: st.Total,
		ClientCount:  st.Clients,
		VendorCount:  st.Vendors,
		BothCount:    st.Both,
	})
}

type createClientRequest struct {
	Name    string      `json:"name" validate:"required"`
	Email   string      `json:"email" validate:"required"`
	Phone   string      `json:"phone"`
	Address string      `json:"address"`
	City    string      `json:"city"`
	State   string      `json:"state"`
	ZipCode string      `json:"zipCode"`
	Country string      `json:"country"`
	TaxID   string      `json:"taxId"`
	Type    client.Type `json:"type"`
	Notes   string      `json:"notes"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createClientRequest
	if err := request.Decode(r, &req, "Name and email are required"); err != nil {
		respond.Fail(w, "Failed to create client", err)
		return
	}

	actor, _ := identity.FromContext(r.Context())

	c, err := h.svc.Create(r.Context(), actor, client.CreateParams{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
		City:    req.City,
		State:   req.State,
		ZipCode: req.ZipCode,
		Country: req.Country,
		TaxID:   req.TaxID,
		Type:    req.Type,
		Notes:   req.Notes,
	})
	if err != nil {
		respond.Fail(w, "Failed to create client", err)
		return
	}

	respond.Created(w, toResponse(c), "Client created successfully")
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, client.ErrNotFound) {
			respond.NotFound(w, msgNotFound)
			return
		}

		respond.Fail(w, "Failed to fetch client", err)

		return
	}

	respond.OK(w, toResponse(c))
}

type updateClientRequest struct {
	Name    *string      `json:"name"`
	Email   *string      `json:"email"`
	Phone   *string      `json:"phone"`
	Address *string      `json:"address"`
	City    *string      `json:"city"`
	State   *string      `json:"state"`
	ZipCode *string      `json:"zipCode"`
	Country *string      `json:"country"`
	TaxID   *string      `json:"taxId"`
	Type    *client.Type `json:"type"`
	Notes   *string      `json:"notes"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var req updateClientRequest
	if err := request.Decode(r, &req, "Invalid client data"); err != nil {
		respond.Fail(w, "Failed to update client", err)
		return
	}

	c, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), client.UpdateParams{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
		City:    req.City,
		State:   req.State,
		ZipCode: req.ZipCode,
		Country: req.Country,
		TaxID:   req.TaxID,
		Type:    req.Type,
		Notes:   req.Notes,
	})
	if err != nil {
		if errors.Is(err, client.ErrNotFound) {
			respond.NotFound(w, msgNotFound)
			return
		}

		respond.Fail(w, "Failed to update client", err)

		return
	}

	respond.Message(w, toResponse(c), "Client updated successfully")
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, client.ErrNotFound) {
			respond.NotFound(w, msgNotFound)
			return
		}

		respond.Fail(w, "Failed to delete client", err)

		return
	}

	respond.Message(w, nil, "Client deleted successfully")
}
