package handlers

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/scmmishra/linklog/internal/capture"
	"github.com/scmmishra/linklog/internal/links"
	"github.com/scmmishra/linklog/internal/metrics"
	"github.com/scmmishra/linklog/internal/models"
)

// InterstitialRenderer writes the page that reports client attributes and
// then forwards the visitor.
type InterstitialRenderer interface {
	RenderInterstitial(w http.ResponseWriter, r *http.Request, link *models.Link, token string) error
}

type RedirectHandler struct {
	DB       *sql.DB
	Links    *links.Service
	Capturer *capture.Capturer
	Pages    InterstitialRenderer
	Logger   *slog.Logger
}

func (h *RedirectHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if code == "" {
		http.NotFound(w, r)
		return
	}

	link, err := h.Links.Resolve(code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Link not found", http.StatusNotFound)
			return
		}
		h.Logger.Error("resolve link", "code", code, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	visit := h.Capturer.Visit(r.Context(), r, link)
	if err := models.InsertVisit(h.DB, visit); err != nil {
		metrics.VisitsRecorded.WithLabelValues("error").Inc()
		h.Logger.Error("insert visit", "code", code, "error", err)
		visit.Token = ""
	}

	if link.Capture.NeedsClient() && h.Pages != nil {
		if err := h.Pages.RenderInterstitial(w, r, link, visit.Token); err != nil {
			h.Logger.Error("render interstitial", "code", code, "error", err)
		}
		if visit.Token != "" {
			metrics.VisitsRecorded.WithLabelValues("interstitial").Inc()
		}
		return
	}

	if visit.Token != "" {
		metrics.VisitsRecorded.WithLabelValues("redirect").Inc()
	}
	http.Redirect(w, r, link.Target, http.StatusFound)
}
