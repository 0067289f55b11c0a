package web

import (
	"bytes"
	"io"
	"net/http"
	"regexp"

	qrcode "github.com/yeqown/go-qrcode/v2"
	"github.com/yeqown/go-qrcode/writer/standard"

	"github.com/scmmishra/linklog/internal/links"
)

var hexColorRe = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// QRCode renders a PNG of the link's canonical URL. Query params:
// shape=circle, fg=#rrggbb, dl=1 for a download.
func (h *Handler) QRCode(w http.ResponseWriter, r *http.Request) {
	link, ok := h.resolve(w, r)
	if !ok {
		return
	}
	shortURL := links.ShortURL(h.links.Base(links.RequestBase(r)), link.Code)

	q := r.URL.Query()
	opts := []standard.ImageOption{
		standard.WithBuiltinImageEncoder(standard.PNG_FORMAT),
		standard.WithQRWidth(10),
		standard.WithBorderWidth(20),
		standard.WithBgTransparent(),
	}
	if q.Get("shape") == "circle" {
		opts = append(opts, standard.WithCircleShape())
	}
	if fg := q.Get("fg"); hexColorRe.MatchString(fg) {
		opts = append(opts, standard.WithFgColorRGBHex(fg))
	}

	qrc, err := qrcode.New(shortURL)
	if err != nil {
		http.Error(w, "failed to generate qr code", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := qrc.Save(standard.NewWithWriter(nopCloser{&buf}, opts...)); err != nil {
		h.logger.Error("render qr", "code", link.Code, "error", err)
		http.Error(w, "failed to render qr code", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	if q.Get("dl") == "1" {
		w.Header().Set("Content-Disposition", `attachment; filename="`+link.Code+`-qr.png"`)
	}
	w.Write(buf.Bytes())
}
