package categorize

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/ledgerly/internal/categorize"
	"github.com/MrJamesThe3rd/ledgerly/internal/http/request"
	"github.com/MrJamesThe3rd/ledgerly/internal/http/respond"
	"github.com/MrJamesThe3rd/ledgerly/internal/identity"
	"github.com/MrJamesThe3rd/ledgerly/internal/transaction"
)

type Handler struct {
	svc *categorize.Service
}

func NewHandler(svc *categorize.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.defaults)
	r.Get("/suggest", h.suggest)
	r.Get("/rules", h.rules)
	r.Post("/rules", h.learn)
}

type defaultsResponse struct {
	Income  []string `json:"income,omitempty"`
	Expense []string `json:"expense,omitempty"`
}

func (h *Handler) defaults(w http.ResponseWriter, r *http.Request) {
	switch t := transaction.Type(r.URL.Query().Get("type")); t {
	case transaction.TypeIncome:
		respond.OK(w, defaultsResponse{Income: categorize.Defaults(t)})
	case transaction.TypeExpense:
		respond.OK(w, defaultsResponse{Expense: categorize.Defaults(t)})
	default:
		respond.OK(w, defaultsResponse{
			Income:  categorize.Defaults(transaction.TypeIncome),
			Expense: categorize.Defaults(transaction.TypeExpense),
		})
	}
}

type suggestResponse struct {
	RawDescription string `json:"rawDescription"`
	Category       string `json:"category"`
}

func (h *Handler) suggest(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("description")
	if raw == "" {
		respond.BadRequest(w, "Description is required")
		return
	}

	category, err := h.svc.Suggest(r.Context(), raw)
	if err != nil {
		respond.Fail(w, "Failed to suggest category", err)
		return
	}

	respond.OK(w, suggestResponse{RawDescription: raw, Category: category})
}

type ruleResponse struct {
	ID        string    `json:"id"`
	Pattern   string    `json:"pattern"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"createdAt"`
	CreatedBy string    `json:"createdBy"`
}

func toRuleResponse(rule *categorize.Rule) ruleResponse {
	return ruleResponse(*rule)
}

func (h *Handler) rules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.svc.Rules(r.Context())
	if err != nil {
		respond.Fail(w, "Failed to fetch category rules", err)
		return
	}

	resp := make([]ruleResponse, len(rules))
	for i, rule := range rules {
		resp[i] = toRuleResponse(rule)
	}

	respond.OK(w, resp)
}

type learnRequest struct {
	Pattern  string `json:"pattern" validate:"required"`
	Category string `json:"category" validate:"required"`
}

func (h *Handler) learn(w http.ResponseWriter, r *http.Request) {
	var req learnRequest
	if err := request.Decode(r, &req, "Pattern and category are required"); err != nil {
		respond.Fail(w, "Failed to create category rule", err)
		return
	}

	actor, _ := identity.FromContext(r.Context())

	rule, err := h.svc.Learn(r.Context(), actor, req.Pattern, req.Category)
	if err != nil {
		respond.Fail(w, "Failed to create category rule", err)
		return
	}

	respond.Created(w, toRuleResponse(rule), "Category rule created successfully")
}
