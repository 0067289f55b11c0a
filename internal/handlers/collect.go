package handlers

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/scmmishra/linklog/internal/links"
	"github.com/scmmishra/linklog/internal/metrics"
	"github.com/scmmishra/linklog/internal/models"
)

const maxBodyBytes = 16 << 10

type collectRequest struct {
	Code  string `json:"code"`
	Token string `json:"token"`
	models.ClientReport
}

// CollectHandler accepts the interstitial's report. It always answers
// 200 {"status":"ok"} so the page never has to handle failures.
type CollectHandler struct {
	DB     *sql.DB
	Links  *links.Service
	Logger *slog.Logger
}

func (h *CollectHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	defer writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})

	var req collectRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		metrics.ClientReports.WithLabelValues("ignored").Inc()
		h.Logger.Debug("collect: bad body", "error", err)
		return
	}
	if req.Code == "" || req.Token == "" {
		metrics.ClientReports.WithLabelValues("ignored").Inc()
		return
	}

	link, err := h.Links.Resolve(req.Code)
	if err != nil {
		metrics.ClientReports.WithLabelValues("ignored").Inc()
		return
	}

	report := req.ClientReport.Allowed(link.Capture)
	if report.Empty() {
		metrics.ClientReports.WithLabelValues("ignored").Inc()
		return
	}

	applied, err := models.ApplyClientReport(h.DB, link.ID, req.Token, report)
	if err != nil {
		h.Logger.Error("apply client report", "code", req.Code, "error", err)
	}
	if applied {
		metrics.ClientReports.WithLabelValues("applied").Inc()
	} else {
		metrics.ClientReports.WithLabelValues("ignored").Inc()
	}
}
