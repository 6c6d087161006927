// internal/auth/client.go
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"sentinel/internal/utils"
)

// Client talks to the external identity service. Token issuance and
// verification live server-side; this client only relays credentials and
// maps failures onto the application error codes. There is no automatic
// retry anywhere: a failed call is reported and retrying is the caller's
// decision.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// TokenSet is the credential bundle issued at login.
type TokenSet struct {
	AccessToken  string `json:"AccessToken"`
	RefreshToken string `json:"RefreshToken"`
	IDToken      string `json:"IdToken"`
	ExpiresIn    int    `json:"ExpiresIn"` // Seconds until the access token expires
}

// UserAttributes are the identity fields returned alongside the tokens.
type UserAttributes struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Nickname string `json:"nickname"`
	Sub      string `json:"sub"`
	Role     string `json:"role,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Message        string         `json:"message,omitempty"`
	Token          TokenSet       `json:"token"`
	UserAttributes UserAttributes `json:"userAttributes"`
}

type RegisterRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	Name            string `json:"name"`
	Nickname        string `json:"nickname"`
}

type ConfirmRegisterRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type CheckEmailResponse struct {
	Exists bool `json:"exists"`
}

type errorResponse struct {
	Message string `json:"message"`
}

// Login exchanges credentials for a token set plus user attributes.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	var resp LoginResponse
	status, err := c.postJSON(ctx, "/api/login", &LoginRequest{Email: email, Password: password}, &resp)
	if err != nil {
		return nil, err
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return nil, utils.NewAppError(utils.ErrInvalidCredentials, "Login rejected", nil)
	}
	if status != http.StatusOK {
		return nil, utils.NewAppError(utils.ErrAuthBadResponse, fmt.Sprintf("Login failed with status %d", status), nil)
	}
	if resp.Token.AccessToken == "" {
		return nil, utils.NewAppError(utils.ErrAuthBadResponse, "Login response missing token", nil)
	}
	return &resp, nil
}

// Register submits a registration; the service emails a confirmation code.
func (c *Client) Register(ctx context.Context, req *RegisterRequest) error {
	var resp errorResponse
	status, err := c.postJSON(ctx, "/api/register", req, &resp)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		msg := resp.Message
		if msg == "" {
			msg = fmt.Sprintf("Registration failed with status %d", status)
		}
		return utils.NewAppError(utils.ErrAuthBadResponse, msg, nil)
	}
	return nil
}

// ConfirmRegister submits the emailed confirmation code.
func (c *Client) ConfirmRegister(ctx context.Context, email, code string) error {
	var resp errorResponse
	status, err := c.postJSON(ctx, "/api/confirm-register", &ConfirmRegisterRequest{Email: email, Code: code}, &resp)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		msg := resp.Message
		if msg == "" {
			msg = fmt.Sprintf("Confirmation failed with status %d", status)
		}
		return utils.NewAppError(utils.ErrEmailNotConfirmed, msg, nil)
	}
	return nil
}

// CheckEmail reports whether an account already exists for the address.
func (c *Client) CheckEmail(ctx context.Context, email string) (bool, error) {
	var resp CheckEmailResponse
	status, err := c.postJSON(ctx, "/api/check-email", map[string]string{"email": email}, &resp)
	if err != nil {
		return false, err
	}
	if status != http.StatusOK {
		return false, utils.NewAppError(utils.ErrAuthBadResponse, fmt.Sprintf("Email check failed with status %d", status), nil)
	}
	return resp.Exists, nil
}

// postJSON sends the payload and decodes the body into out. Transport
// failures and non-JSON bodies come back as distinct error codes so callers
// can tell a dead network from a broken service.
func (c *Client) postJSON(ctx context.Context, path string, payload any, out any) (int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, utils.NewAppError(utils.ErrInvalidInput, "Failed to encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return 0, utils.NewAppError(utils.ErrInvalidInput, "Failed to build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, utils.NewAppError(utils.ErrAuthNetwork, "Auth service unreachable", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, utils.NewAppError(utils.ErrAuthNetwork, "Failed to read auth response", err)
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return resp.StatusCode, utils.NewAppError(utils.ErrAuthBadResponse, "Auth service returned malformed JSON", err)
		}
	}
	return resp.StatusCode, nil
}
