// Package freshbooks implementa el cliente de sync contra el proveedor de
// billing: ciclo de vida del token OAuth2 (exchange + lazy refresh) y
// reconciliación de clients/projects/invoices por external id.
//
// El cliente se construye una vez en startup y se inyecta en los handlers;
// no hay estado global.
package freshbooks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/brightforge/portal/internal/metrics"
	"github.com/brightforge/portal/internal/store/core"
)

// Provider es la clave con la que el credential se guarda en storage.
const Provider = "freshbooks"

// ErrNotConnected: no hay credential guardado; el admin tiene que pasar por
// el flujo de autorización. La UI lo distingue de un error genérico.
var ErrNotConnected = errors.New("freshbooks: not connected")

// UpstreamError es cualquier respuesta no-2xx del proveedor. No se reintenta.
type UpstreamError struct {
	Op     string
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("freshbooks: %s http %d: %s", e.Op, e.Status, e.Body)
}

type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	// BaseURL del API (override para tests). Default https://api.freshbooks.com
	BaseURL string
	// AuthURL de la pantalla de consent.
	AuthURL string
}

type Client struct {
	cfg  Config
	repo core.Repository
	http *http.Client
}

func New(cfg Config, repo core.Repository) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.freshbooks.com"
	}
	if cfg.AuthURL == "" {
		cfg.AuthURL = "https://auth.freshbooks.com/oauth/authorize"
	}
	return &Client{
		cfg:  cfg,
		repo: repo,
		http: &http.Client{Timeout: 15 * time.Second},
	}
}

// AuthorizationURL construye la URL de consent del proveedor.
func (c *Client) AuthorizationURL(state string) string {
	u, _ := url.Parse(c.cfg.AuthURL)
	q := u.Query()
	q.Set("response_type", "code")
	q.Set("client_id", c.cfg.ClientID)
	q.Set("redirect_uri", c.cfg.RedirectURI)
	q.Set("scope", "user:profile:read user:clients:read user:projects:read user:invoices:read")
	if state != "" {
		q.Set("state", state)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// tokenGrant pega al token endpoint con el grant indicado.
func (c *Client) tokenGrant(ctx context.Context, grantType, codeOrToken string) (*tokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", grantType)
	form.Set("client_id", c.cfg.ClientID)
	form.Set("client_secret", c.cfg.ClientSecret)
	form.Set("redirect_uri", c.cfg.RedirectURI)
	switch grantType {
	case "authorization_code":
		form.Set("code", codeOrToken)
	case "refresh_token":
		form.Set("refresh_token", codeOrToken)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/auth/oauth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		var b struct {
			Error            string `json:"error"`
			ErrorDescription string `json:"error_description"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&b)
		return nil, &UpstreamError{Op: "token " + grantType, Status: resp.StatusCode,
			Body: strings.TrimSpace(b.Error + " " + b.ErrorDescription)}
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, err
	}
	return &tr, nil
}

// ExchangeCode canjea el authorization code por el par de tokens, descubre
// el account id del proveedor y persiste el credential pisando cualquier
// anterior. Falla fatal (sin retry) si el exchange o el lookup no dan 2xx.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*core.APIConnection, error) {
	tr, err := c.tokenGrant(ctx, "authorization_code", code)
	if err != nil {
		return nil, err
	}

	accountID, err := c.fetchAccountID(ctx, tr.AccessToken)
	if err != nil {
		return nil, err
	}

	conn := &core.APIConnection{
		Provider:     Provider,
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		AccountID:    accountID,
		ExpiresAt:    time.Now().UTC().Add(time.Duration(tr.ExpiresIn) * time.Second),
	}
	if err := c.repo.UpsertAPIConnection(ctx, conn); err != nil {
		return nil, err
	}
	return conn, nil
}

// fetchAccountID pega al perfil del usuario autorizado. El API del proveedor
// está scoped por account, así que sin esto no se puede llamar nada más.
func (c *Client) fetchAccountID(ctx context.Context, accessToken string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.cfg.BaseURL+"/auth/api/v1/users/me", nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return "", &UpstreamError{Op: "users/me", Status: resp.StatusCode}
	}

	var body struct {
		Response struct {
			BusinessMemberships []struct {
				Business struct {
					AccountID string `json:"account_id"`
				} `json:"business"`
			} `json:"business_memberships"`
		} `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	if len(body.Response.BusinessMemberships) == 0 {
		return "", fmt.Errorf("freshbooks: users/me returned no business memberships")
	}
	return body.Response.BusinessMemberships[0].Business.AccountID, nil
}

// EnsureFreshToken devuelve un access token vigente. Refresh perezoso: solo
// cuando el guardado ya venció; con token vigente no sale a la red. Los
// callers piden un token antes de CADA llamada al proveedor y no lo cachean.
func (c *Client) EnsureFreshToken(ctx context.Context) (string, error) {
	conn, err := c.repo.GetAPIConnection(ctx, Provider)
	if errors.Is(err, core.ErrNotFound) {
		return "", ErrNotConnected
	}
	if err != nil {
		return "", err
	}

	if time.Now().UTC().Before(conn.ExpiresAt) {
		return conn.AccessToken, nil
	}

	tr, err := c.tokenGrant(ctx, "refresh_token", conn.RefreshToken)
	if err != nil {
		return "", err
	}
	metrics.TokenRefreshes.Inc()

	conn.AccessToken = tr.AccessToken
	conn.RefreshToken = tr.RefreshToken
	conn.ExpiresAt = time.Now().UTC().Add(time.Duration(tr.ExpiresIn) * time.Second)
	if err := c.repo.UpsertAPIConnection(ctx, conn); err != nil {
		return "", err
	}
	return conn.AccessToken, nil
}

// Connection devuelve el credential guardado (para el endpoint de status).
func (c *Client) Connection(ctx context.Context) (*core.APIConnection, error) {
	conn, err := c.repo.GetAPIConnection(ctx, Provider)
	if errors.Is(err, core.ErrNotFound) {
		return nil, ErrNotConnected
	}
	return conn, err
}

// apiGET hace un GET autenticado contra el API del proveedor.
func (c *Client) apiGET(ctx context.Context, path string, out any) error {
	token, err := c.EnsureFreshToken(ctx)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return &UpstreamError{Op: "GET " + path, Status: resp.StatusCode}
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
