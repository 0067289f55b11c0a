// Package shorten wraps third-party URL shorteners that answer with the
// short URL as plain text.
package shorten

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	tinyURLEndpoint = "https://tinyurl.com/api-create.php"
	isgdEndpoint    = "https://is.gd/create.php"
)

// Shortener turns a long URL into a provider short URL.
type Shortener interface {
	Name() string
	Shorten(ctx context.Context, longURL string) (string, error)
}

// TextAPI calls GET Endpoint?<Params>&url=<long> and returns the body.
type TextAPI struct {
	ProviderName string
	Endpoint     string
	Params       url.Values
	Client       *http.Client
}

func NewTinyURL(timeout time.Duration) *TextAPI {
	return &TextAPI{
		ProviderName: "tinyurl",
		Endpoint:     tinyURLEndpoint,
		Client:       &http.Client{Timeout: timeout},
	}
}

func NewIsGd(timeout time.Duration) *TextAPI {
	return &TextAPI{
		ProviderName: "isgd",
		Endpoint:     isgdEndpoint,
		Params:       url.Values{"format": {"simple"}},
		Client:       &http.Client{Timeout: timeout},
	}
}

func (a *TextAPI) Name() string { return a.ProviderName }

func (a *TextAPI) Shorten(ctx context.Context, longURL string) (string, error) {
	q := url.Values{}
	for k, v := range a.Params {
		q[k] = v
	}
	q.Set("url", longURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.Endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}
	resp, err := a.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s: %w", a.ProviderName, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return "", fmt.Errorf("%s: reading response: %w", a.ProviderName, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s: status %d", a.ProviderName, resp.StatusCode)
	}

	short := strings.TrimSpace(string(body))
	u, err := url.Parse(short)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%s: unexpected response %q", a.ProviderName, short)
	}
	return short, nil
}

// Registry maps shortener modes to providers.
type Registry map[string]Shortener

// NewRegistry builds the default tinyurl and isgd providers.
func NewRegistry(timeout time.Duration) Registry {
	return Registry{
		"tinyurl": NewTinyURL(timeout),
		"isgd":    NewIsGd(timeout),
	}
}
