package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/scmmishra/linklog/internal/links"
	"github.com/scmmishra/linklog/internal/models"
)

// LinkHandler serves JSON link creation.
type LinkHandler struct {
	Links *links.Service
}

type createLinkRequest struct {
	TargetURL  string              `json:"target_url"`
	Shortener  string              `json:"shortener"`
	CustomCode string              `json:"custom_code"`
	Email      string              `json:"email"`
	Capture    models.CapturePrefs `json:"capture"`
}

// CreateResponse is the JSON body returned for a new link.
type CreateResponse struct {
	Code     string `json:"code"`
	Target   string `json:"target"`
	ShortURL string `json:"short_url"`
	ShareURL string `json:"share_url"`
	TrackURL string `json:"track_url"`
}

func NewCreateResponse(res *links.Result) CreateResponse {
	return CreateResponse{
		Code:     res.Link.Code,
		Target:   res.Link.Target,
		ShortURL: res.ShortURL,
		ShareURL: res.ShareURL,
		TrackURL: res.TrackURL,
	}
}

func (h *LinkHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createLinkRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		jsonError(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	res, err := h.Links.Create(r.Context(), links.Input{
		Target:      req.TargetURL,
		Mode:        req.Shortener,
		CustomCode:  req.CustomCode,
		Email:       req.Email,
		Capture:     req.Capture,
		RequestBase: links.RequestBase(r),
	})
	if err != nil {
		msg, code := CreateErrorStatus(err)
		jsonError(w, msg, code)
		return
	}
	writeJSON(w, http.StatusCreated, NewCreateResponse(res))
}

// CreateErrorStatus maps a links.Service.Create error to a user-facing
// message and HTTP status.
func CreateErrorStatus(err error) (string, int) {
	switch {
	case errors.Is(err, links.ErrInvalidTarget),
		errors.Is(err, links.ErrInvalidCode),
		errors.Is(err, links.ErrInvalidMode),
		errors.Is(err, links.ErrInvalidEmail):
		return err.Error(), http.StatusBadRequest
	case errors.Is(err, models.ErrCodeTaken):
		return "code already taken", http.StatusConflict
	default:
		return "failed to create link", http.StatusInternalServerError
	}
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
