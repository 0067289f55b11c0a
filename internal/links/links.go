// Package links creates short links and resolves codes back to them.
package links

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/scmmishra/linklog/internal/cache"
	"github.com/scmmishra/linklog/internal/code"
	"github.com/scmmishra/linklog/internal/metrics"
	"github.com/scmmishra/linklog/internal/models"
	"github.com/scmmishra/linklog/internal/scrape"
	"github.com/scmmishra/linklog/internal/shorten"
)

const (
	ModeRandom  = "random"
	ModeCustom  = "custom"
	ModeTinyURL = "tinyurl"
	ModeIsGd    = "isgd"
)

var (
	ErrInvalidTarget = errors.New("target must be an absolute http or https URL")
	ErrInvalidCode   = errors.New("custom code must be 3-64 letters, digits, '-' or '_' and not a reserved name")
	ErrInvalidMode   = errors.New("unknown shortener")
	ErrInvalidEmail  = errors.New("invalid email address")
	ErrCodeCollision = errors.New("could not allocate a unique code")
)

var customCodeRe = regexp.MustCompile(`^[A-Za-z0-9_-]{3,64}$`)

// Reserved are first path segments owned by other routes.
var Reserved = map[string]bool{
	"create":  true,
	"collect": true,
	"track":   true,
	"api":     true,
	"ping":    true,
	"qr":      true,
	"metrics": true,
	"static":  true,
}

var validate = validator.New()

// Input is one creation request.
type Input struct {
	Target     string `validate:"required,url,max=2048"`
	Mode       string `validate:"omitempty,oneof=random custom tinyurl isgd"`
	CustomCode string
	Email      string `validate:"omitempty,email,max=254"`
	Capture    models.CapturePrefs

	// RequestBase is scheme://host of the incoming request, used when no
	// base URL is configured.
	RequestBase string
}

// Result is what the creator gets back.
type Result struct {
	Link     *models.Link
	ShortURL string // canonical redirect URL on this service
	TrackURL string
	// ShareURL is the external provider's short URL for provider modes,
	// otherwise ShortURL.
	ShareURL string
}

type Service struct {
	db         *sql.DB
	cache      *cache.LinkCache
	shorteners shorten.Registry
	client     *http.Client
	codeLength int
	baseURL    string
	logger     *slog.Logger

	codeGenerator func(int) (string, error)
	fetchOG       func(ctx context.Context, client *http.Client, target string) (scrape.OpenGraph, error)
}

type Options struct {
	CodeLength  int
	BaseURL     string
	HTTPTimeout time.Duration

	// FetchOpenGraph replaces the preview scraper; nil uses scrape.FetchOpenGraph.
	FetchOpenGraph func(ctx context.Context, client *http.Client, target string) (scrape.OpenGraph, error)
}

func NewService(db *sql.DB, lc *cache.LinkCache, shorteners shorten.Registry, opts Options, logger *slog.Logger) *Service {
	fetchOG := opts.FetchOpenGraph
	if fetchOG == nil {
		fetchOG = scrape.FetchOpenGraph
	}
	return &Service{
		db:            db,
		cache:         lc,
		shorteners:    shorteners,
		client:        &http.Client{Timeout: opts.HTTPTimeout},
		codeLength:    opts.CodeLength,
		baseURL:       strings.TrimSuffix(opts.BaseURL, "/"),
		logger:        logger,
		codeGenerator: code.Generate,
		fetchOG:       fetchOG,
	}
}

// Create validates the input, scrapes preview metadata and stores the link.
// A generated code that collides or names a fixed route is regenerated
// exactly once.
func (s *Service) Create(ctx context.Context, in Input) (*Result, error) {
	in.Target = strings.TrimSpace(in.Target)
	in.CustomCode = strings.TrimSpace(in.CustomCode)
	in.Email = strings.TrimSpace(in.Email)
	if in.Mode == "" {
		in.Mode = ModeRandom
	}
	if err := s.validate(in); err != nil {
		return nil, err
	}

	link := &models.Link{
		Target:  in.Target,
		Email:   in.Email,
		Capture: in.Capture,
	}

	og, err := s.fetchOG(ctx, s.client, in.Target)
	if err != nil {
		s.logger.Debug("open graph scrape failed", "target", in.Target, "error", err)
	} else {
		link.OGTitle, link.OGDescription, link.OGImage = og.Title, og.Description, og.Image
	}

	if in.Mode == ModeCustom {
		link.Code = in.CustomCode
		if err := models.CreateLink(s.db, link); err != nil {
			return nil, err
		}
	} else if err := s.insertGenerated(link); err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(link.Code, link)
	}
	metrics.LinksCreated.WithLabelValues(in.Mode).Inc()
	s.logger.Info("link created", "code", link.Code, "mode", in.Mode)

	base := s.Base(in.RequestBase)
	res := &Result{
		Link:     link,
		ShortURL: ShortURL(base, link.Code),
		TrackURL: TrackURL(base, link.Code),
	}
	res.ShareURL = res.ShortURL
	if sh, ok := s.shorteners[in.Mode]; ok {
		short, err := sh.Shorten(ctx, res.ShortURL)
		if err != nil {
			s.logger.Warn("external shortener failed", "provider", sh.Name(), "error", err)
		} else {
			res.ShareURL = short
		}
	}
	return res, nil
}

func (s *Service) insertGenerated(link *models.Link) error {
	for attempt := 0; attempt < 2; attempt++ {
		c, err := s.codeGenerator(s.codeLength)
		if err != nil {
			return fmt.Errorf("generate code: %w", err)
		}
		if Reserved[strings.ToLower(c)] {
			s.logger.Warn("generated code is reserved", "code", c, "attempt", attempt+1)
			continue
		}
		link.Code = c
		err = models.CreateLink(s.db, link)
		if err == nil {
			return nil
		}
		if !errors.Is(err, models.ErrCodeTaken) {
			return err
		}
		metrics.CodeCollisions.Inc()
		s.logger.Warn("generated code collided", "code", c, "attempt", attempt+1)
	}
	return ErrCodeCollision
}

func (s *Service) validate(in Input) error {
	if err := validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			switch verrs[0].Field() {
			case "Mode":
				return ErrInvalidMode
			case "Email":
				return ErrInvalidEmail
			}
		}
		return ErrInvalidTarget
	}
	u, err := url.Parse(in.Target)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidTarget
	}
	if (in.Mode == ModeTinyURL || in.Mode == ModeIsGd) && s.shorteners[in.Mode] == nil {
		return ErrInvalidMode
	}
	if in.Mode == ModeCustom && !ValidCustomCode(in.CustomCode) {
		return ErrInvalidCode
	}
	return nil
}

// ValidCustomCode reports whether c may be chosen by a user.
func ValidCustomCode(c string) bool {
	return customCodeRe.MatchString(c) && !Reserved[strings.ToLower(c)]
}

// Resolve returns the link for code, from cache when possible.
// Unknown codes yield sql.ErrNoRows.
func (s *Service) Resolve(code string) (*models.Link, error) {
	if s.cache != nil {
		if l, ok := s.cache.Get(code); ok {
			return l, nil
		}
	}
	l, err := models.GetLinkByCode(s.db, code)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Set(code, l)
	}
	return l, nil
}

// Base prefers the configured base URL over the request's.
func (s *Service) Base(requestBase string) string {
	if s.baseURL != "" {
		return s.baseURL
	}
	return strings.TrimSuffix(requestBase, "/")
}

func ShortURL(base, code string) string {
	return base + "/" + url.PathEscape(code)
}

func TrackURL(base, code string) string {
	return base + "/track/" + url.PathEscape(code)
}

// RequestBase derives scheme://host from r, honoring X-Forwarded-Proto.
func RequestBase(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if p := r.Header.Get("X-Forwarded-Proto"); p == "http" || p == "https" {
		scheme = p
	}
	return scheme + "://" + r.Host
}
