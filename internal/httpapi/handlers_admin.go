package httpapi

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/p-n-ai/pai-tracker/internal/apperr"
	"github.com/p-n-ai/pai-tracker/internal/report"
)

func (a *api) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := a.Admin.Leaderboard(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (a *api) handleUserReport(w http.ResponseWriter, r *http.Request) {
	rep, err := a.Admin.UserReport(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (a *api) handleExport(w http.ResponseWriter, r *http.Request) {
	entries, err := a.Admin.Leaderboard(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := report.WriteLeaderboard(&buf, entries); err != nil {
		writeError(w, r, apperr.Wrap(err, "render leaderboard"))
		return
	}

	name := fmt.Sprintf("leaderboard-%s.xlsx", time.Now().UTC().Format("20060102"))
	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}
