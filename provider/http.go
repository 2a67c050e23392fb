package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kvasirlabs/otpkit"
)

// HTTPConfig configures an [HTTP] provider. Paths are relative to BaseURL and
// default to /accounts, /accounts/credential, and /accounts/authenticate.
type HTTPConfig struct {
	BaseURL string

	CreatePath       string
	CredentialPath   string
	AuthenticatePath string

	// Client defaults to one with a 10 second timeout.
	Client *http.Client
}

// HTTP is an [otpkit.IdentityProvider] that delegates account operations to a
// backend API over JSON. Backend failure statuses map onto the otpkit error
// taxonomy: 409 to ErrAccountExists, 404 to ErrUserNotFound, 401 to
// ErrInvalidCredentials, 422 to ErrPasswordPolicy.
type HTTP struct {
	cfg HTTPConfig
}

// NewHTTP validates cfg and returns a provider. BaseURL is required.
func NewHTTP(cfg HTTPConfig) (*HTTP, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("provider: BaseURL required")
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.CreatePath == "" {
		cfg.CreatePath = "/accounts"
	}
	if cfg.CredentialPath == "" {
		cfg.CredentialPath = "/accounts/credential"
	}
	if cfg.AuthenticatePath == "" {
		cfg.AuthenticatePath = "/accounts/authenticate"
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTP{cfg: cfg}, nil
}

type accountRequest struct {
	Identifier string `json:"identifier"`
	Credential string `json:"credential"`
}

type accountResponse struct {
	UserID     string    `json:"user_id"`
	Identifier string    `json:"identifier"`
	CreatedAt  time.Time `json:"created_at"`
}

func (h *HTTP) CreateAccount(ctx context.Context, identifier, credential string) (otpkit.UserRecord, error) {
	var resp accountResponse
	err := h.post(ctx, h.cfg.CreatePath, accountRequest{Identifier: identifier, Credential: credential}, &resp)
	if err != nil {
		return otpkit.UserRecord{}, err
	}
	return otpkit.UserRecord{
		UserID:     resp.UserID,
		Identifier: resp.Identifier,
		CreatedAt:  resp.CreatedAt,
	}, nil
}

func (h *HTTP) UpdateCredential(ctx context.Context, identifier, credential string) error {
	return h.post(ctx, h.cfg.CredentialPath, accountRequest{Identifier: identifier, Credential: credential}, nil)
}

func (h *HTTP) Authenticate(ctx context.Context, identifier, credential string) (otpkit.UserRecord, error) {
	var resp accountResponse
	err := h.post(ctx, h.cfg.AuthenticatePath, accountRequest{Identifier: identifier, Credential: credential}, &resp)
	if err != nil {
		return otpkit.UserRecord{}, err
	}
	return otpkit.UserRecord{
		UserID:     resp.UserID,
		Identifier: resp.Identifier,
		CreatedAt:  resp.CreatedAt,
	}, nil
}

func (h *HTTP) post(ctx context.Context, path string, payload accountRequest, out *accountResponse) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := h.cfg.Client.Do(req)
	if err != nil {
		return fmt.Errorf("provider: backend request failed: %w", err)
	}
	defer res.Body.Close()

	if err := mapStatus(res.StatusCode); err != nil {
		// Drain so the connection can be reused.
		io.Copy(io.Discard, io.LimitReader(res.Body, 4096))
		return err
	}

	if out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			return fmt.Errorf("provider: decoding backend response: %w", err)
		}
	}
	return nil
}

func mapStatus(status int) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusConflict:
		return otpkit.ErrAccountExists
	case status == http.StatusNotFound:
		return otpkit.ErrUserNotFound
	case status == http.StatusUnauthorized:
		return otpkit.ErrInvalidCredentials
	case status == http.StatusUnprocessableEntity:
		return otpkit.ErrPasswordPolicy
	default:
		return fmt.Errorf("provider: backend returned status %d", status)
	}
}
