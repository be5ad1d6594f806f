// Package imagegen is the typed client for the remote generation backend.
package imagegen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/text/language"

	"photofx/internal/domain"
	"photofx/internal/observability"
)

const (
	DefaultBaseURL = "https://nextgenwebapps.shop"

	defaultLightTimeout      = 30 * time.Second
	defaultGenerationTimeout = 60 * time.Second

	pathLogin      = "/api/v1/user/login"
	pathEffects    = "/api/v1/effects/list"
	pathGenerate   = "/api/v1/effects/generate"
	pathTxt2Img    = "/api/v1/photo/generate/txt2imgBasic"
	pathJobStatus  = "/api/v1/services/status"
	photoFieldName = "photo"
)

type Options struct {
	BaseURL           string
	Token             string
	HTTPClient        *http.Client
	LightTimeout      time.Duration
	GenerationTimeout time.Duration
	Logger            *zerolog.Logger
	Metrics           *observability.Metrics
}

type Client struct {
	httpClient        *http.Client
	baseURL           string
	token             string
	lightTimeout      time.Duration
	generationTimeout time.Duration
	logger            zerolog.Logger
	metrics           *observability.Metrics
}

func NewClient(opts Options) *Client {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	light := opts.LightTimeout
	if light <= 0 {
		light = defaultLightTimeout
	}
	heavy := opts.GenerationTimeout
	if heavy <= 0 {
		heavy = defaultGenerationTimeout
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = opts.Logger.With().Str("component", "imagegen").Logger()
	}
	return &Client{
		httpClient:        client,
		baseURL:           base,
		token:             strings.TrimSpace(opts.Token),
		lightTimeout:      light,
		generationTimeout: heavy,
		logger:            logger,
		metrics:           opts.Metrics,
	}
}

// Login registers or refreshes the user and returns its quota counters.
func (c *Client) Login(ctx context.Context, p domain.LoginParams) (domain.UserRecord, error) {
	q := url.Values{}
	q.Set("userId", p.UserID)
	q.Set("gender", p.Gender)
	q.Set("source", p.Source)
	q.Set("payments", p.Payments)
	if p.IsFB != nil {
		q.Set("isFb", strconv.Itoa(*p.IsFB))
	}
	body, err := c.do(ctx, call{
		op:          "login",
		method:      http.MethodPost,
		path:        pathLogin,
		query:       q,
		contentType: "application/json",
		timeout:     c.lightTimeout,
	})
	if err != nil {
		return domain.UserRecord{}, err
	}
	return decode[domain.UserRecord](c, "login", body, nil)
}

// FetchTemplateCatalog returns the categories and effects offered to the user.
func (c *Client) FetchTemplateCatalog(ctx context.Context, req CatalogRequest) (domain.Catalog, error) {
	q := url.Values{}
	q.Set("lang", NormalizeLang(req.Lang))
	q.Set("reels", req.Reels)
	q.Set("source", req.Source)
	if req.UserID != nil {
		q.Set("userId", *req.UserID)
	}
	body, err := c.do(ctx, call{
		op:      "effects_list",
		method:  http.MethodGet,
		path:    pathEffects,
		query:   q,
		timeout: c.lightTimeout,
	})
	if err != nil {
		return domain.Catalog{}, err
	}
	data, err := decode[catalogData](c, "effects_list", body, nil)
	if err != nil {
		return domain.Catalog{}, err
	}
	return domain.Catalog{
		Categories:     data.List,
		TotalTemplates: data.TotalTemplates,
		TotalUsed:      data.TotalUsed,
	}, nil
}

// StartPhotoGeneration uploads a JPEG photo for the given template and
// returns the job created by the backend.
func (c *Client) StartPhotoGeneration(ctx context.Context, req PhotoRequest) (domain.GenerationRecord, error) {
	if len(req.Image) == 0 {
		return domain.GenerationRecord{}, &domain.EncodingError{Err: errors.New("empty image payload")}
	}
	payload, contentType, err := encodeMultipart(req)
	if err != nil {
		return domain.GenerationRecord{}, &domain.EncodingError{Err: err}
	}
	body, err := c.do(ctx, call{
		op:          "effects_generate",
		method:      http.MethodPost,
		path:        pathGenerate,
		body:        payload,
		contentType: contentType,
		timeout:     c.generationTimeout,
	})
	if err != nil {
		return domain.GenerationRecord{}, err
	}
	return decode[domain.GenerationRecord](c, "effects_generate", body, func(r domain.GenerationRecord) error {
		return requireJob(r.JobID, r.Status)
	})
}

// StartTextGeneration starts a text-to-image job.
func (c *Client) StartTextGeneration(ctx context.Context, req TextRequest) (domain.JobStatus, error) {
	q := url.Values{}
	q.Set("userId", req.UserID)
	q.Set("prompt", req.Prompt)
	if req.TemplateID != nil {
		q.Set("templateId", strconv.Itoa(*req.TemplateID))
	}
	body, err := c.do(ctx, call{
		op:      "txt2img",
		method:  http.MethodPost,
		path:    pathTxt2Img,
		query:   q,
		timeout: c.generationTimeout,
	})
	if err != nil {
		return domain.JobStatus{}, err
	}
	return decode[domain.JobStatus](c, "txt2img", body, validStatus)
}

// PollJobStatus performs a single status check for a job.
func (c *Client) PollJobStatus(ctx context.Context, jobID, userID string) (domain.JobStatus, error) {
	q := url.Values{}
	q.Set("userId", userID)
	q.Set("jobId", jobID)
	body, err := c.do(ctx, call{
		op:      "status",
		method:  http.MethodGet,
		path:    pathJobStatus,
		query:   q,
		timeout: c.lightTimeout,
	})
	if err != nil {
		return domain.JobStatus{}, err
	}
	return decode[domain.JobStatus](c, "status", body, validStatus)
}

// NormalizeLang reduces a locale to the base language code the backend
// expects, defaulting to English.
func NormalizeLang(lang string) string {
	tag, err := language.Parse(strings.TrimSpace(lang))
	if err != nil {
		return "en"
	}
	base, conf := tag.Base()
	if conf == language.No {
		return "en"
	}
	return base.String()
}

type call struct {
	op          string
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
	timeout     time.Duration
}

func (c *Client) do(ctx context.Context, cl call) ([]byte, error) {
	if c.token == "" {
		return nil, errors.New("imagegen: API token is missing")
	}
	ctx, cancel := context.WithTimeout(ctx, cl.timeout)
	defer cancel()

	endpoint := c.baseURL + cl.path
	if len(cl.query) > 0 {
		endpoint += "?" + cl.query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, cl.method, endpoint, cl.body)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", cl.op, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if cl.contentType != "" {
		req.Header.Set("Content-Type", cl.contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.APIRequest(cl.op, "transport")
		return nil, &domain.TransportError{Op: cl.op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.APIRequest(cl.op, "transport")
		return nil, &domain.TransportError{Op: cl.op, Err: fmt.Errorf("read body: %w", err)}
	}
	c.logger.Debug().Str("op", cl.op).Int("status", resp.StatusCode).RawJSON("body", rawForLog(body)).Msg("imagegen: response")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.metrics.APIRequest(cl.op, "server")
		return nil, statusError(resp.StatusCode, body)
	}
	return body, nil
}

func decode[T any](c *Client, op string, body []byte, check func(T) error) (T, error) {
	var zero T
	var env envelope[T]
	if err := json.Unmarshal(body, &env); err != nil {
		c.metrics.APIRequest(op, "malformed")
		return zero, &domain.MalformedResponseError{Op: op, Err: err}
	}
	if env.Error {
		c.metrics.APIRequest(op, "server")
		return zero, &domain.ServerError{StatusCode: http.StatusOK, Code: env.Code, Message: env.Message}
	}
	if env.Data == nil {
		c.metrics.APIRequest(op, "malformed")
		return zero, &domain.MalformedResponseError{Op: op, Err: errors.New("missing data")}
	}
	if check != nil {
		if err := check(*env.Data); err != nil {
			c.metrics.APIRequest(op, "malformed")
			return zero, &domain.MalformedResponseError{Op: op, Err: err}
		}
	}
	c.metrics.APIRequest(op, "ok")
	return *env.Data, nil
}

// statusError builds the error for a non-2xx reply, keeping the envelope's
// code and message when the body carries one.
func statusError(status int, body []byte) error {
	out := &domain.ServerError{StatusCode: status}
	var env envelope[json.RawMessage]
	if err := json.Unmarshal(body, &env); err == nil {
		out.Code = env.Code
		out.Message = env.Message
	}
	if out.Message == nil {
		msg := fmt.Sprintf("http %d", status)
		out.Message = &msg
	}
	return out
}

func validStatus(s domain.JobStatus) error {
	return requireJob(s.JobID, s.Status)
}

func requireJob(jobID, status string) error {
	if strings.TrimSpace(jobID) == "" {
		return errors.New("missing jobId")
	}
	if strings.TrimSpace(status) == "" {
		return errors.New("missing status")
	}
	return nil
}

func encodeMultipart(req PhotoRequest) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	if err := w.SetBoundary("Boundary-" + uuid.NewString()); err != nil {
		return nil, "", err
	}
	fields := [][2]string{
		{"templateId", strconv.Itoa(req.TemplateID)},
		{"source", req.Source},
	}
	if req.UserID != nil {
		fields = append(fields, [2]string{"userId", *req.UserID})
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", err
		}
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="photo.jpg"`, photoFieldName))
	h.Set("Content-Type", "image/jpeg")
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(req.Image); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}

func rawForLog(body []byte) []byte {
	if json.Valid(body) {
		return body
	}
	quoted, _ := json.Marshal(string(body))
	return quoted
}
