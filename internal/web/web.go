package web

import (
	"database/sql"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/scmmishra/linklog/internal/handlers"
	"github.com/scmmishra/linklog/internal/links"
	"github.com/scmmishra/linklog/internal/models"
)

// Handler serves the HTML side: the creation form, result and tracking
// pages, the interstitial and QR codes.
type Handler struct {
	db        *sql.DB
	links     *links.Service
	templates *TemplateRegistry
	logger    *slog.Logger
}

func NewHandler(db *sql.DB, svc *links.Service, logger *slog.Logger) (*Handler, error) {
	tmpl, err := NewTemplateRegistry()
	if err != nil {
		return nil, err
	}
	return &Handler{
		db:        db,
		links:     svc,
		templates: tmpl,
		logger:    logger,
	}, nil
}

// RegisterRoutes mounts the pages. limit wraps POST /create.
func (h *Handler) RegisterRoutes(r chi.Router, limit func(http.Handler) http.Handler) {
	staticSub, _ := fs.Sub(staticFS, "static")
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))

	r.Get("/", h.Index)
	r.With(limit).Post("/create", h.Create)
	r.Get("/track/{code}", h.Track)
	r.Get("/qr/{code}", h.QRCode)
}

type mode struct {
	Value string
	Label string
}

var modes = []mode{
	{links.ModeRandom, "Random code"},
	{links.ModeCustom, "Custom code"},
	{links.ModeTinyURL, "TinyURL"},
	{links.ModeIsGd, "is.gd"},
}

type indexData struct {
	Error       string
	Form        links.Input
	Modes       []mode
	ServerFlags []models.CaptureFlag
	ClientFlags []models.CaptureFlag
}

func newIndexData(form links.Input, errMsg string) indexData {
	d := indexData{Error: errMsg, Form: form, Modes: modes}
	for _, f := range models.CaptureFlags {
		if f.Client {
			d.ClientFlags = append(d.ClientFlags, f)
		} else {
			d.ServerFlags = append(d.ServerFlags, f)
		}
	}
	return d
}

func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	h.templates.Render(w, "templates/index.html", newIndexData(links.Input{Mode: links.ModeRandom}, ""))
}

type resultData struct {
	Code     string
	Target   string
	ShortURL string
	ShareURL string
	TrackURL string
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 64<<10)
	if err := r.ParseForm(); err != nil {
		h.createError(w, r, links.Input{}, "invalid form", http.StatusBadRequest)
		return
	}

	in := links.Input{
		Target:      r.PostForm.Get("target_url"),
		Mode:        r.PostForm.Get("shortener"),
		CustomCode:  r.PostForm.Get("custom_code"),
		Email:       r.PostForm.Get("email"),
		Capture:     models.CapturePrefsFromForm(r.PostForm),
		RequestBase: links.RequestBase(r),
	}

	res, err := h.links.Create(r.Context(), in)
	if err != nil {
		msg, code := handlers.CreateErrorStatus(err)
		if code == http.StatusInternalServerError {
			h.logger.Error("create link", "error", err)
		}
		h.createError(w, r, in, msg, code)
		return
	}

	if wantsJSON(r) {
		writeJSON(w, http.StatusCreated, handlers.NewCreateResponse(res))
		return
	}
	h.templates.Render(w, "templates/result.html", resultData{
		Code:     res.Link.Code,
		Target:   res.Link.Target,
		ShortURL: res.ShortURL,
		ShareURL: res.ShareURL,
		TrackURL: res.TrackURL,
	})
}

func (h *Handler) createError(w http.ResponseWriter, r *http.Request, in links.Input, msg string, code int) {
	if wantsJSON(r) {
		writeJSON(w, code, map[string]string{"error": msg})
		return
	}
	h.templates.RenderStatus(w, code, "templates/index.html", newIndexData(in, msg))
}

type trackData struct {
	Link     *models.Link
	ShortURL string
	Summary  models.VisitSummary
	Visits   []models.Visit
}

func (h *Handler) Track(w http.ResponseWriter, r *http.Request) {
	link, ok := h.resolve(w, r)
	if !ok {
		return
	}
	visits, err := models.ListVisitsForLink(h.db, link.ID)
	if err != nil {
		h.logger.Error("list visits", "code", link.Code, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	h.templates.Render(w, "templates/track.html", trackData{
		Link:     link,
		ShortURL: links.ShortURL(h.links.Base(links.RequestBase(r)), link.Code),
		Summary:  models.SummaryForLink(h.db, link.ID),
		Visits:   visits,
	})
}

func (h *Handler) resolve(w http.ResponseWriter, r *http.Request) (*models.Link, bool) {
	code := chi.URLParam(r, "code")
	link, err := h.links.Resolve(code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Link not found", http.StatusNotFound)
			return nil, false
		}
		h.logger.Error("resolve link", "code", code, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return nil, false
	}
	return link, true
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
