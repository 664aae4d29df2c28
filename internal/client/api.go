// Package client is the Go client for the Sticky Board API.
//
// API is a thin typed wrapper over the REST endpoints. Store keeps the
// in-memory board of parsed notes in sync with the server and is the only
// place a note list is mutated. DashboardView loads notes and users
// concurrently and aggregates them.
package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/sakif/stickyboard/internal/apperror"
	"github.com/sakif/stickyboard/internal/dashboard"
	"github.com/sakif/stickyboard/internal/model"
	"github.com/sakif/stickyboard/internal/notefmt"
)

// DefaultTimeout bounds every API request.
const DefaultTimeout = 15 * time.Second

// APIError is a non-2xx response. It unwraps to the apperror sentinel for
// its kind, so callers can write errors.Is(err, apperror.ErrNotFound).
type APIError struct {
	Status  int
	Kind    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s: %s", e.Status, e.Kind, e.Message)
}

func (e *APIError) Unwrap() error {
	if sentinel := apperror.FromKind(e.Kind); sentinel != nil {
		return sentinel
	}
	switch e.Status {
	case http.StatusBadRequest:
		return apperror.ErrValidation
	case http.StatusUnauthorized:
		return apperror.ErrUnauthorized
	case http.StatusForbidden:
		return apperror.ErrForbidden
	case http.StatusNotFound:
		return apperror.ErrNotFound
	case http.StatusConflict:
		return apperror.ErrConflict
	}
	return nil
}

// errorBody is the server's error envelope.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

// ListQuery selects notes. The zero value lists the caller's own notes;
// All and UserID require an admin token.
type ListQuery struct {
	All    bool
	UserID string
}

func (q ListQuery) encode() string {
	v := url.Values{}
	if q.All {
		v.Set("all", "true")
	}
	if q.UserID != "" {
		v.Set("userId", q.UserID)
	}
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}

// NewNote describes a note to create. Nil colors or position let the
// server pick its defaults.
type NewNote struct {
	Body     string
	Colors   *model.Colors
	Position *model.Position
}

// NotePatch is a partial update; nil fields are left unchanged.
type NotePatch struct {
	Body     *string
	Colors   *model.Colors
	Position *model.Position
}

// noteWire is the request body of create and update: every field is in
// its serialized (JSON-in-a-string) form.
type noteWire struct {
	Body     *string `json:"body,omitempty"`
	Colors   *string `json:"colors,omitempty"`
	Position *string `json:"position,omitempty"`
}

func (p NotePatch) wire() noteWire {
	var w noteWire
	if p.Body != nil {
		b := notefmt.EncodeBody(*p.Body)
		w.Body = &b
	}
	if p.Colors != nil {
		c := notefmt.EncodeColors(*p.Colors)
		w.Colors = &c
	}
	if p.Position != nil {
		pos := notefmt.EncodePosition(*p.Position)
		w.Position = &pos
	}
	return w
}

// API talks to a Sticky Board server.
type API struct {
	http  *resty.Client
	token string
}

// New creates an API for the server at baseURL, e.g. "http://localhost:8080".
func New(baseURL string) *API {
	c := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(DefaultTimeout).
		SetHeader("Accept", "application/json")
	return &API{http: c}
}

// SetToken makes every following request carry "Authorization: Bearer token".
func (a *API) SetToken(token string) {
	a.token = token
	a.http.SetAuthToken(token)
}

// Token returns the bearer token in use, if any.
func (a *API) Token() string {
	return a.token
}

// do sends one request. result may be nil for responses without a body.
func (a *API) do(ctx context.Context, method, path string, body, result any) error {
	req := a.http.R().
		SetContext(ctx).
		SetError(&errorBody{})
	if body != nil {
		req.SetBody(body)
	}
	if result != nil {
		req.SetResult(result)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("client: %s %s: %w", method, path, err)
	}
	if resp.IsError() {
		return newAPIError(resp)
	}
	return nil
}

func newAPIError(resp *resty.Response) *APIError {
	e := &APIError{Status: resp.StatusCode()}
	if body, ok := resp.Error().(*errorBody); ok && body != nil {
		e.Kind, e.Message = body.Error, body.Message
	}
	if e.Kind == "" {
		e.Kind = apperror.Kind(e.Unwrap())
	}
	if e.Message == "" {
		e.Message = strings.TrimSpace(resp.String())
		if e.Message == "" {
			e.Message = http.StatusText(e.Status)
		}
	}
	return e
}

// Register creates an account and stores the returned token on the client.
func (a *API) Register(ctx context.Context, email, password string) (*AuthResult, error) {
	return a.authenticate(ctx, "/api/auth/register", email, password)
}

// Login exchanges credentials for a token and stores it on the client.
func (a *API) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	return a.authenticate(ctx, "/api/auth/login", email, password)
}

func (a *API) authenticate(ctx context.Context, path, email, password string) (*AuthResult, error) {
	var out AuthResult
	body := map[string]string{"email": email, "password": password}
	if err := a.do(ctx, http.MethodPost, path, body, &out); err != nil {
		return nil, err
	}
	a.SetToken(out.Token)
	return &out, nil
}

// Me returns the authenticated user.
func (a *API) Me(ctx context.Context) (*model.User, error) {
	var u model.User
	if err := a.do(ctx, http.MethodGet, "/api/me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (a *API) ListNotes(ctx context.Context, q ListQuery) ([]model.Note, error) {
	var notes []model.Note
	if err := a.do(ctx, http.MethodGet, "/api/notes"+q.encode(), nil, &notes); err != nil {
		return nil, err
	}
	return notes, nil
}

func (a *API) GetNote(ctx context.Context, id string) (*model.Note, error) {
	var n model.Note
	if err := a.do(ctx, http.MethodGet, "/api/notes/"+url.PathEscape(id), nil, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

func (a *API) CreateNote(ctx context.Context, in NewNote) (*model.Note, error) {
	body := in.Body
	w := NotePatch{Body: &body, Colors: in.Colors, Position: in.Position}.wire()

	var n model.Note
	if err := a.do(ctx, http.MethodPost, "/api/notes", w, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

func (a *API) UpdateNote(ctx context.Context, id string, patch NotePatch) (*model.Note, error) {
	var n model.Note
	if err := a.do(ctx, http.MethodPut, "/api/notes/"+url.PathEscape(id), patch.wire(), &n); err != nil {
		return nil, err
	}
	return &n, nil
}

func (a *API) DeleteNote(ctx context.Context, id string) error {
	return a.do(ctx, http.MethodDelete, "/api/notes/"+url.PathEscape(id), nil, nil)
}

// ListUsers requires an admin token.
func (a *API) ListUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := a.do(ctx, http.MethodGet, "/api/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Dashboard returns the statistics computed by the server (admin only).
func (a *API) Dashboard(ctx context.Context) (*dashboard.Stats, error) {
	var s dashboard.Stats
	if err := a.do(ctx, http.MethodGet, "/api/dashboard", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
