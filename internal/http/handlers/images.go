package handlers

import (
	"net/http"
	"strconv"
)

// Image serves ?url= through the shared image cache so the shell never
// downloads the same preview twice.
func (a *App) Image(w http.ResponseWriter, r *http.Request) {
	u := r.URL.Query().Get("url")
	if err := a.validate.Var(u, "required,url"); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "url required")
		return
	}
	img := a.Images.Load(r.Context(), u)
	if img == nil {
		a.error(w, http.StatusNotFound, "not_found", "image unavailable")
		return
	}
	w.Header().Set("Content-Type", img.ContentType())
	w.Header().Set("Content-Length", strconv.Itoa(len(img.Data)))
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.Header().Set("X-Image-Size", strconv.Itoa(img.Width)+"x"+strconv.Itoa(img.Height))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img.Data)
}
