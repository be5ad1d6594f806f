package handlers

import (
	"encoding/json"
	"errors"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"strconv"
	"strings"

	_ "golang.org/x/image/webp"

	"photofx/internal/domain"
	"photofx/internal/generation"
)

const photoField = "photo"

type promptRequest struct {
	Prompt  string `json:"prompt" validate:"required,max=4000"`
	StyleID *int   `json:"styleId,omitempty" validate:"omitempty,gt=0"`
}

type generationResponse struct {
	JobID     string               `json:"jobId"`
	Succeeded bool                 `json:"succeeded"`
	Status    string               `json:"status"`
	ResultURL *string              `json:"resultUrl,omitempty"`
	Job       domain.GenerationJob `json:"job"`
}

func newGenerationResponse(res generation.Result) generationResponse {
	return generationResponse{
		JobID:     res.JobID,
		Succeeded: res.Succeeded(),
		Status:    res.Status.Status,
		ResultURL: res.ResultURL,
		Job:       res.Job,
	}
}

// GeneratePhoto accepts multipart templateId + photo and runs the effect to
// completion. A client disconnect stops tracking; the job stays resumable.
func (a *App) GeneratePhoto(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, a.MaxUploadBytes)
	if err := r.ParseMultipartForm(a.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			a.error(w, http.StatusRequestEntityTooLarge, "too_large", "photo is too large")
			return
		}
		a.error(w, http.StatusBadRequest, "bad_request", "multipart form expected")
		return
	}
	templateID, err := strconv.Atoi(strings.TrimSpace(r.FormValue("templateId")))
	if err != nil || templateID <= 0 {
		a.error(w, http.StatusBadRequest, "bad_request", "templateId required")
		return
	}
	file, _, err := r.FormFile(photoField)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "photo required")
		return
	}
	defer file.Close()
	img, _, err := image.Decode(file)
	if err != nil {
		a.error(w, http.StatusUnprocessableEntity, "unsupported_image", "photo could not be decoded")
		return
	}

	if err := a.State.CheckEligibility(); err != nil {
		a.fail(w, r, err)
		return
	}
	effect, ok, err := a.findEffect(r, templateID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if !ok {
		a.error(w, http.StatusNotFound, "not_found", "unknown template")
		return
	}
	if !effect.IsEnabled {
		a.error(w, http.StatusConflict, "template_disabled", "template is not available")
		return
	}

	res, err := a.Generator.GenerateWithPhoto(r.Context(), img, effect)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, newGenerationResponse(res))
}

// GeneratePrompt runs a text generation, optionally styled by a catalog
// effect.
func (a *App) GeneratePrompt(w http.ResponseWriter, r *http.Request) {
	var req promptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		a.fail(w, r, domain.ErrInvalidPrompt)
		return
	}
	if err := a.validate.Struct(req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if err := a.State.CheckEligibility(); err != nil {
		a.fail(w, r, err)
		return
	}

	var style *domain.TemplateEffect
	if req.StyleID != nil {
		effect, ok, err := a.findEffect(r, *req.StyleID)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		if !ok {
			a.error(w, http.StatusNotFound, "not_found", "unknown style")
			return
		}
		style = &effect
	}

	res, err := a.Generator.GenerateWithPrompt(r.Context(), req.Prompt, style)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, newGenerationResponse(res))
}

func (a *App) findEffect(r *http.Request, id int) (domain.TemplateEffect, bool, error) {
	cat, err := a.State.LoadCatalog(r.Context(), false)
	if err != nil {
		return domain.TemplateEffect{}, false, err
	}
	effect, ok := cat.EffectByID(id)
	return effect, ok, nil
}
