package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	apperrors "github.com/Venkata-Giridhar-Garikipati/bookstore-backend/pkg/errors"
	"github.com/Venkata-Giridhar-Garikipati/bookstore-backend/pkg/httpclient"
	"github.com/Venkata-Giridhar-Garikipati/bookstore-backend/pkg/middleware"
)

// meResponse is the identity service's token introspection payload.
type meResponse struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// Client resolves bearer tokens against the identity service. Calls go
// through the circuit-breaker HTTP client so an identity outage degrades
// fast instead of piling up requests.
type Client struct {
	http    *httpclient.CircuitBreakerClient
	baseURL string
	logger  *slog.Logger
}

// NewClient creates an identity service client.
func NewClient(http *httpclient.CircuitBreakerClient, baseURL string, logger *slog.Logger) *Client {
	return &Client{
		http:    http,
		baseURL: baseURL,
		logger:  logger,
	}
}

// Resolve validates a bearer token and returns the claims it carries.
func (c *Client) Resolve(ctx context.Context, token string) (*middleware.Claims, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/auth/me", nil)
	if err != nil {
		return nil, fmt.Errorf("create identity request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("call identity service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, httpclient.ParseResponseError(resp, "identity")
	}

	var me meResponse
	if err := json.NewDecoder(resp.Body).Decode(&me); err != nil {
		return nil, fmt.Errorf("decode identity response: %w", err)
	}
	if me.UserID == "" {
		return nil, apperrors.Unauthorized("identity service returned no user")
	}

	return &middleware.Claims{
		UserID: me.UserID,
		Email:  me.Email,
		Role:   me.Role,
	}, nil
}

// Validator adapts the client to the auth middleware.
func (c *Client) Validator() middleware.TokenValidator {
	return c.Resolve
}
