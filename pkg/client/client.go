// Package client is a Go SDK for the symposium registration API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/terra-clan/symposium-registry/internal/models"
)

// Client is a Go SDK for symposium-api
type Client struct {
	baseURL       string
	adminPassword string
	httpClient    *http.Client
}

// Option configures the client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the client timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithAdminPassword sends the dashboard password on admin calls
func WithAdminPassword(password string) Option {
	return func(c *Client) {
		c.adminPassword = password
	}
}

// NewClient creates a new symposium-api client
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError is a non-2xx response decoded from the error envelope
type APIError struct {
	Status   int                         `json:"-"`
	Code     string                      `json:"code"`
	Message  string                      `json:"message"`
	Fields   map[string]string           `json:"fields,omitempty"`
	Reason   string                      `json:"reason,omitempty"`
	Existing *models.RegistrationSummary `json:"existing,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error: %d %s - %s", e.Status, e.Code, e.Message)
}

// PaymentStep is returned once an outer form is accepted
type PaymentStep struct {
	State      string `json:"state"`
	DraftToken string `json:"draft_token"`
	Amount     int    `json:"amount"`
}

// Confirmation is the terminal success state of a registration
type Confirmation struct {
	Registration         models.RegistrationSummary `json:"registration"`
	Replaced             bool                       `json:"replaced"`
	RedirectURL          string                     `json:"redirect_url"`
	RedirectAfterSeconds int                        `json:"redirect_after_seconds"`
}

// VariantStats aggregates one collection on the dashboard
type VariantStats struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Verified int `json:"verified"`
	Entered  int `json:"entered"`
	Revenue  int `json:"revenue"`
}

// Dashboard is the admin stats header
type Dashboard struct {
	Stats struct {
		Combined VariantStats                    `json:"combined"`
		Variants map[models.Variant]VariantStats `json:"variants"`
	} `json:"stats"`
	DraftsInProgress int `json:"drafts_in_progress"`
}

// ListOptions filters the admin registration list
type ListOptions struct {
	Variant models.Variant
	Tab     models.Tab
	Query   string
}

// Proof is a payment screenshot to upload
type Proof struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// --- Public ---

// Health checks if the service is healthy
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, request{method: http.MethodGet, path: "/health"}, nil)
}

// Settings returns the public settings snapshot
func (c *Client) Settings(ctx context.Context) (*models.SiteSettings, error) {
	var out models.SiteSettings
	if err := c.do(ctx, request{method: http.MethodGet, path: "/api/v1/settings"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Events lists catalog events, optionally by category
func (c *Client) Events(ctx context.Context, category models.EventCategory) ([]models.Event, error) {
	path := "/api/v1/catalog/events"
	if category != "" {
		path += "?category=" + url.QueryEscape(string(category))
	}

	var out struct {
		Events []models.Event `json:"events"`
	}
	if err := c.do(ctx, request{method: http.MethodGet, path: path}, &out); err != nil {
		return nil, err
	}
	return out.Events, nil
}

// Coordinators lists the coordinator directory
func (c *Client) Coordinators(ctx context.Context) ([]models.Coordinator, error) {
	var out struct {
		Coordinators []models.Coordinator `json:"coordinators"`
	}
	if err := c.do(ctx, request{method: http.MethodGet, path: "/api/v1/catalog/coordinators"}, &out); err != nil {
		return nil, err
	}
	return out.Coordinators, nil
}

// Status runs the gate for a variant; nil means the form can be shown
func (c *Client) Status(ctx context.Context, v models.Variant) error {
	return c.do(ctx, request{method: http.MethodGet, path: "/api/v1/register/" + string(v) + "/status"}, nil)
}

// SubmitOuter sends the outer form and returns the payment step
func (c *Client) SubmitOuter(ctx context.Context, form models.OuterForm) (*PaymentStep, error) {
	var out PaymentStep
	if err := c.do(ctx, request{method: http.MethodPost, path: "/api/v1/register/outer", body: form}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadProof sends the payment screenshot for a draft
func (c *Client) UploadProof(ctx context.Context, draftToken string, proof Proof) (*Confirmation, error) {
	body, contentType, err := proofForm(proof, nil)
	if err != nil {
		return nil, err
	}

	var out Confirmation
	err = c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/api/v1/register/outer/" + url.PathEscape(draftToken) + "/proof",
		raw:         body,
		contentType: contentType,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitInter sends the inter-college form; replace overwrites a duplicate
func (c *Client) SubmitInter(ctx context.Context, form models.InterForm, replace bool) (*Confirmation, error) {
	return c.submitFree(ctx, "/api/v1/register/inter", form, replace)
}

// SubmitDepartment sends the department form; replace overwrites a duplicate
func (c *Client) SubmitDepartment(ctx context.Context, form models.DepartmentForm, replace bool) (*Confirmation, error) {
	return c.submitFree(ctx, "/api/v1/register/department", form, replace)
}

func (c *Client) submitFree(ctx context.Context, path string, form interface{}, replace bool) (*Confirmation, error) {
	if replace {
		path += "?replace=true"
	}
	var out Confirmation
	if err := c.do(ctx, request{method: http.MethodPost, path: path, body: form}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Lookup finds a registration by email
func (c *Client) Lookup(ctx context.Context, email string) (*models.RegistrationSummary, error) {
	var out models.RegistrationSummary
	path := "/api/v1/registrations/lookup?email=" + url.QueryEscape(email)
	if err := c.do(ctx, request{method: http.MethodGet, path: path}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateEvents replaces a registrant's events. Without Confirm the API answers
// confirmation_required with the found record in APIError.Existing.
func (c *Client) UpdateEvents(ctx context.Context, req models.UpdateEventsRequest) (*models.RegistrationSummary, error) {
	var out models.RegistrationSummary
	if err := c.do(ctx, request{method: http.MethodPut, path: "/api/v1/registrations/events", body: req}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// --- Admin ---

// Login checks the dashboard password
func (c *Client) Login(ctx context.Context, password string) error {
	return c.do(ctx, request{method: http.MethodPost, path: "/api/v1/admin/login", body: map[string]string{"password": password}}, nil)
}

// Stats returns the dashboard header
func (c *Client) Stats(ctx context.Context) (*Dashboard, error) {
	var out Dashboard
	if err := c.do(ctx, request{method: http.MethodGet, path: "/api/v1/admin/stats", admin: true}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListRegistrations returns one dashboard tab
func (c *Client) ListRegistrations(ctx context.Context, opts ListOptions) ([]models.RegistrationSummary, error) {
	params := url.Values{}
	if opts.Variant != "" {
		params.Set("variant", string(opts.Variant))
	}
	if opts.Tab != "" {
		params.Set("tab", string(opts.Tab))
	}
	if opts.Query != "" {
		params.Set("q", opts.Query)
	}

	path := "/api/v1/admin/registrations"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var out struct {
		Registrations []models.RegistrationSummary `json:"registrations"`
	}
	if err := c.do(ctx, request{method: http.MethodGet, path: path, admin: true}, &out); err != nil {
		return nil, err
	}
	return out.Registrations, nil
}

// SetPaymentVerified toggles payment verification
func (c *Client) SetPaymentVerified(ctx context.Context, v models.Variant, id string, value bool) error {
	return c.setFlag(ctx, v, id, "verification", value)
}

// SetEntryConfirmed marks attendance; it cannot be reverted
func (c *Client) SetEntryConfirmed(ctx context.Context, v models.Variant, id string, value bool) error {
	return c.setFlag(ctx, v, id, "entry", value)
}

func (c *Client) setFlag(ctx context.Context, v models.Variant, id, flag string, value bool) error {
	return c.do(ctx, request{
		method: http.MethodPut,
		path:   registrationPath(v, id) + "/" + flag,
		body:   map[string]bool{"value": value},
		admin:  true,
	}, nil)
}

// DeleteRegistration removes a row; deletePassword is the second secret
func (c *Client) DeleteRegistration(ctx context.Context, v models.Variant, id, deletePassword string) error {
	return c.do(ctx, request{
		method:  http.MethodDelete,
		path:    registrationPath(v, id),
		admin:   true,
		headers: map[string]string{"X-Delete-Password": deletePassword},
	}, nil)
}

// CreateRegistration adds an operator entry, with an optional proof
func (c *Client) CreateRegistration(ctx context.Context, v models.Variant, entry models.ManualEntry, proof *Proof) (*models.RegistrationSummary, error) {
	req := request{method: http.MethodPost, path: "/api/v1/admin/registrations/" + string(v), admin: true, body: entry}
	if proof != nil {
		data, err := json.Marshal(entry)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal entry: %w", err)
		}
		body, contentType, err := proofForm(*proof, map[string]string{"entry": string(data)})
		if err != nil {
			return nil, err
		}
		req.body, req.raw, req.contentType = nil, body, contentType
	}

	var out models.RegistrationSummary
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateRegistration edits an existing row
func (c *Client) UpdateRegistration(ctx context.Context, v models.Variant, id string, patch models.RegistrationPatch) (*models.RegistrationSummary, error) {
	var out models.RegistrationSummary
	err := c.do(ctx, request{method: http.MethodPatch, path: registrationPath(v, id), body: patch, admin: true}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateSetting changes one site setting
func (c *Client) UpdateSetting(ctx context.Context, key string, value interface{}) (*models.SiteSettings, error) {
	var out models.SiteSettings
	err := c.do(ctx, request{
		method: http.MethodPut,
		path:   "/api/v1/admin/settings/" + url.PathEscape(key),
		body:   map[string]interface{}{"value": value},
		admin:  true,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Export writes every registration to the configured sheet
func (c *Client) Export(ctx context.Context) (map[models.Variant]int, error) {
	var out struct {
		Exported map[models.Variant]int `json:"exported"`
	}
	if err := c.do(ctx, request{method: http.MethodPost, path: "/api/v1/admin/export", admin: true}, &out); err != nil {
		return nil, err
	}
	return out.Exported, nil
}

func registrationPath(v models.Variant, id string) string {
	return "/api/v1/admin/registrations/" + string(v) + "/" + url.PathEscape(id)
}

// --- Transport ---

type request struct {
	method      string
	path        string
	body        interface{}
	raw         io.Reader
	contentType string
	admin       bool
	headers     map[string]string
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
}

// do performs an HTTP request and decodes the envelope's data into out
func (c *Client) do(ctx context.Context, r request, out interface{}) error {
	body := r.raw
	contentType := r.contentType
	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, r.method, c.baseURL+r.path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if r.admin && c.adminPassword != "" {
		req.Header.Set("X-Admin-Password", c.adminPassword)
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		if resp.StatusCode >= 400 {
			return &APIError{Status: resp.StatusCode, Code: "http_error", Message: strings.TrimSpace(string(respBody))}
		}
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if resp.StatusCode >= 400 || !env.Success {
		apiErr := env.Error
		if apiErr == nil {
			apiErr = &APIError{Code: "http_error", Message: http.StatusText(resp.StatusCode)}
		}
		apiErr.Status = resp.StatusCode
		return apiErr
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}
	return nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func proofForm(p Proof, fields map[string]string) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return nil, "", fmt.Errorf("failed to write form field: %w", err)
		}
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="screenshot"; filename="`+quoteEscaper.Replace(p.Filename)+`"`)
	if p.ContentType != "" {
		h.Set("Content-Type", p.ContentType)
	}
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, p.Body); err != nil {
		return nil, "", fmt.Errorf("failed to read proof: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close form: %w", err)
	}
	return &buf, mw.FormDataContentType(), nil
}
