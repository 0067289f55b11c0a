package handlers

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/scmmishra/linklog/internal/links"
	"github.com/scmmishra/linklog/internal/models"
)

type APIHandler struct {
	DB     *sql.DB
	Links  *links.Service
	Logger *slog.Logger
}

type visitMetadata struct {
	Code      string    `json:"code"`
	Target    string    `json:"target"`
	Visits    int       `json:"visits"`
	CreatedAt time.Time `json:"created_at"`
}

type visitList struct {
	Code   string         `json:"code"`
	Target string         `json:"target"`
	Visits []models.Visit `json:"visits"`
}

// link resolves the {code} URL param, writing a JSON error when it fails.
func (h *APIHandler) link(w http.ResponseWriter, r *http.Request) (*models.Link, bool) {
	code := chi.URLParam(r, "code")
	l, err := h.Links.Resolve(code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			jsonError(w, "link not found", http.StatusNotFound)
			return nil, false
		}
		h.Logger.Error("resolve link", "code", code, "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
		return nil, false
	}
	return l, true
}

func (h *APIHandler) VisitMetadata(w http.ResponseWriter, r *http.Request) {
	l, ok := h.link(w, r)
	if !ok {
		return
	}
	count, err := models.VisitCountForLink(h.DB, l.ID)
	if err != nil {
		h.Logger.Error("count visits", "code", l.Code, "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, visitMetadata{
		Code:      l.Code,
		Target:    l.Target,
		Visits:    count,
		CreatedAt: l.CreatedAt,
	})
}

func (h *APIHandler) Visits(w http.ResponseWriter, r *http.Request) {
	l, ok := h.link(w, r)
	if !ok {
		return
	}
	visits, err := models.ListVisitsForLink(h.DB, l.ID)
	if err != nil {
		h.Logger.Error("list visits", "code", l.Code, "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}
	if visits == nil {
		visits = []models.Visit{}
	}
	writeJSON(w, http.StatusOK, visitList{Code: l.Code, Target: l.Target, Visits: visits})
}

func Ping(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}
