package attachment

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/ledgerly/internal/attachment"
	"github.com/MrJamesThe3rd/ledgerly/internal/http/respond"
)

// formOverhead leaves room for multipart boundaries and headers on top of the
// file itself.
const formOverhead = 1 << 20

type Handler struct {
	svc *attachment.Service
}

func NewHandler(svc *attachment.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.upload)
	r.Get("/{name}", h.download)
}

type uploadResponse struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Size        int    `json:"size"`
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, attachment.MaxSize+formOverhead)

	if err := r.ParseMultipartForm(attachment.MaxSize); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			respond.Fail(w, "Failed to upload file", attachment.ErrTooLarge)
			return
		}

		respond.BadRequest(w, "Invalid upload")

		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respond.BadRequest(w, "No file provided")
		return
	}
	defer file.Close()

	obj, err := h.svc.Upload(r.Context(), header.Filename, file)
	if err != nil {
		respond.Fail(w, "Failed to upload file", err)
		return
	}

	respond.Created(w, uploadResponse(*obj), "File uploaded successfully")
}

func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	body, contentType, err := h.svc.Download(r.Context(), name)
	if err != nil {
		if errors.Is(err, attachment.ErrNotFound) {
			respond.NotFound(w, "Attachment not found")
			return
		}

		respond.Fail(w, "Failed to fetch attachment", err)

		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `inline; filename="`+name+`"`)

	if sized, ok := body.(interface{ Len() int }); ok {
		w.Header().Set("Content-Length", strconv.Itoa(sized.Len()))
	}

	if _, err := io.Copy(w, body); err != nil {
		slog.Error("failed to write attachment", "name", name, "error", err)
	}
}
