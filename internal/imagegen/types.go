package imagegen

import "photofx/internal/domain"

// CatalogRequest selects the template list to fetch.
type CatalogRequest struct {
	Lang   string
	Reels  string
	Source string
	UserID *string
}

// PhotoRequest starts an effect generation from a JPEG photo.
type PhotoRequest struct {
	TemplateID int
	Image      []byte
	Source     string
	UserID     *string
}

// TextRequest starts a text-to-image generation. Prompt is sent verbatim.
type TextRequest struct {
	Prompt     string
	TemplateID *int
	UserID     string
}

// envelope is the response wrapper shared by every endpoint. The error flag
// signals a logical failure independently of the HTTP status.
type envelope[T any] struct {
	Error   bool    `json:"error"`
	Code    *string `json:"code,omitempty"`
	Message *string `json:"message,omitempty"`
	Data    *T      `json:"data,omitempty"`
}

type catalogData struct {
	List           []domain.TemplateCategory `json:"list"`
	TotalTemplates int                       `json:"totalTemplates"`
	TotalUsed      int                       `json:"totalUsed"`
}
