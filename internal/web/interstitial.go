package web

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/scmmishra/linklog/internal/links"
	"github.com/scmmishra/linklog/internal/models"
)

type interstitialData struct {
	Link     *models.Link
	ShortURL string
	Token    string
	Flags    []string
}

// RenderInterstitial writes the page that reports the link's enabled
// client attributes to /collect and then navigates to the target.
func (h *Handler) RenderInterstitial(w http.ResponseWriter, r *http.Request, link *models.Link, token string) error {
	flags := link.Capture.ClientFlags()
	if flags == nil {
		flags = []string{}
	}
	var buf bytes.Buffer
	err := h.templates.Execute(&buf, "templates/interstitial.html", interstitialData{
		Link:     link,
		ShortURL: links.ShortURL(h.links.Base(links.RequestBase(r)), link.Code),
		Token:    token,
		Flags:    flags,
	})
	if err != nil {
		http.Redirect(w, r, link.Target, http.StatusFound)
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Referrer-Policy", "no-referrer")
	_, err = buf.WriteTo(w)
	return err
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
