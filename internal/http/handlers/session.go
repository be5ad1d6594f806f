package handlers

import (
	"net/http"
	"strconv"

	"photofx/internal/middleware"
)

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *App) GetState(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, a.State.Snapshot())
}

// StartSession logs in and loads the catalog in the client's language.
func (a *App) StartSession(w http.ResponseWriter, r *http.Request) {
	if middleware.HasExplicitLocale(r) {
		a.State.SetLanguage(middleware.LocaleFromContext(r.Context()))
	}
	cat, err := a.State.StartSession(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"state":   a.State.Snapshot(),
		"catalog": cat,
	})
}

// GetCatalog returns the cached catalog; ?refresh=true forces a fetch.
func (a *App) GetCatalog(w http.ResponseWriter, r *http.Request) {
	force, _ := strconv.ParseBool(r.URL.Query().Get("refresh"))
	cat, err := a.State.LoadCatalog(r.Context(), force)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, cat)
}
