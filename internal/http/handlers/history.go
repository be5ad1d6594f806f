package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"photofx/internal/export"
)

func (a *App) ListHistory(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{"items": a.State.History()})
}

// RefreshHistory checks a job now and keeps tracking it in the background.
func (a *App) RefreshHistory(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobId")
	job, err := a.Generator.Refresh(r.Context(), jobID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, job)
}

func (a *App) DeleteHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	deleted, err := a.State.DeleteJob(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if !deleted {
		a.error(w, http.StatusNotFound, "not_found", "history record not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) ClearHistory(w http.ResponseWriter, r *http.Request) {
	if err := a.State.ClearHistory(r.Context()); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExportHistory streams a zip of every available result plus a manifest.
func (a *App) ExportHistory(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="photofx-history.zip"`)
	summary, err := export.WriteHistory(r.Context(), w, a.State.History(), a.Images)
	if err != nil {
		// Headers are gone by now; the client sees a truncated archive.
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("history export failed")
		return
	}
	zerolog.Ctx(r.Context()).Debug().
		Int("included", summary.Included).
		Int("skipped", len(summary.Skipped)).
		Msg("history exported")
}
