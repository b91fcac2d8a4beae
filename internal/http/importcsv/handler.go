package importcsv

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/ledgerly/internal/http/request"
	"github.com/MrJamesThe3rd/ledgerly/internal/http/respond"
	txhttp "github.com/MrJamesThe3rd/ledgerly/internal/http/transaction"
	"github.com/MrJamesThe3rd/ledgerly/internal/identity"
	"github.com/MrJamesThe3rd/ledgerly/internal/importer"
	"github.com/MrJamesThe3rd/ledgerly/internal/transaction"
)

const maxUpload = 10 << 20

type Handler struct {
	importSvc *importer.Service
	txSvc     *transaction.Service
}

func NewHandler(importSvc *importer.Service, txSvc *transaction.Service) *Handler {
	return &Handler{
		importSvc: importSvc,
		txSvc:     txSvc,
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.importStatement)
	r.Post("/confirm", h.confirmImport)
}

type paramsDTO struct {
	Type           transaction.Type          `json:"type" validate:"required,oneof=income expense"`
	Amount         decimal.Decimal           `json:"amount"`
	Date           request.Day               `json:"date" validate:"required"`
	Category       string                    `json:"category"`
	Description    string                    `json:"description"`
	PaymentMethod  transaction.PaymentMethod `json:"paymentMethod"`
	ClientID       string                    `json:"clientId,omitempty"`
	Tags           []string                  `json:"tags,omitempty"`
	RawDescription string                    `json:"rawDescription"`
}

type conflictDTO struct {
	Incoming paramsDTO       `json:"incoming"`
	Existing txhttp.Response `json:"existing"`
}

type importSuccessResponse struct {
	Imported     int               `json:"imported"`
	Transactions []txhttp.Response `json:"transactions"`
}

type importConflictResponse struct {
	New       []paramsDTO   `json:"new"`
	Conflicts []conflictDTO `json:"conflicts"`
}

type confirmRequest struct {
	Params []paramsDTO `json:"params" validate:"dive"`
}

// importStatement parses an uploaded statement and stores it. When any row
// duplicates a stored transaction nothing is written: the response is 409
// with the split so the caller can pick rows and post them to /confirm.
func (h *Handler) importStatement(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUpload); err != nil {
		respond.BadRequest(w, "Invalid upload")
		return
	}

	bank := importer.Bank(r.FormValue("bank"))
	if bank == "" {
		respond.BadRequest(w, "Bank is required")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		respond.BadRequest(w, "File is required")
		return
	}
	defer file.Close()

	params, err := h.importSvc.Parse(r.Context(), bank, file)
	if err != nil {
		respond.Fail(w, "Failed to import statement", err)
		return
	}

	actor, _ := identity.FromContext(r.Context())

	result, err := h.txSvc.ImportBatch(r.Context(), actor, params)
	if err != nil {
		respond.Fail(w, "Failed to import statement", err)
		return
	}

	if len(result.Conflicts) > 0 {
		resp := importConflictResponse{
			New:       make([]paramsDTO, 0, len(result.New)),
			Conflicts: make([]conflictDTO, 0, len(result.Conflicts)),
		}

		for _, p := range result.New {
			resp.New = append(resp.New, toParamsDTO(p))
		}

		for _, c := range result.Conflicts {
			resp.Conflicts = append(resp.Conflicts, conflictDTO{
				Incoming: toParamsDTO(c.Incoming),
				Existing: txhttp.NewResponse(c.Existing),
			})
		}

		respond.JSON(w, http.StatusConflict, respond.Envelope{
			Success: false,
			Data:    resp,
			Error:   fmt.Sprintf("%d transactions already exist", len(result.Conflicts)),
		})

		return
	}

	respond.Created(w, toSuccessResponse(result.Imported), importedMessage(len(result.Imported)))
}

func (h *Handler) confirmImport(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if err := request.Decode(r, &req, "Invalid import rows"); err != nil {
		respond.Fail(w, "Failed to import transactions", err)
		return
	}

	params := make([]transaction.CreateParams, 0, len(req.Params))
	for _, p := range req.Params {
		params = append(params, transaction.CreateParams{
			Type:           p.Type,
			Amount:         p.Amount,
			Date:           p.Date.Time,
			Category:       p.Category,
			Description:    p.Description,
			PaymentMethod:  p.PaymentMethod,
			ClientID:       p.ClientID,
			Tags:           p.Tags,
			RawDescription: p.RawDescription,
		})
	}

	actor, _ := identity.FromContext(r.Context())

	txs, err := h.txSvc.CreateBatch(r.Context(), actor, params)
	if err != nil {
		respond.Fail(w, "Failed to import transactions", err)
		return
	}

	respond.Created(w, toSuccessResponse(txs), importedMessage(len(txs)))
}

func importedMessage(n int) string {
	return fmt.Sprintf("%d transactions imported successfully", n)
}

func toSuccessResponse(txs []*transaction.Transaction) importSuccessResponse {
	return importSuccessResponse{
		Imported:     len(txs),
		Transactions: txhttp.NewResponseList(txs),
	}
}

func toParamsDTO(p transaction.CreateParams) paramsDTO {
	return paramsDTO{
		Type:           p.Type,
		Amount:         p.Amount,
		Date:           request.Day{Time: p.Date},
		Category:       p.Category,
		Description:    p.Description,
		PaymentMethod:  p.PaymentMethod,
		ClientID:       p.ClientID,
		Tags:           p.Tags,
		RawDescription: p.RawDescription,
	}
}
