package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/brightforge/portal/internal/audit"
	"github.com/brightforge/portal/internal/auth"
	"github.com/brightforge/portal/internal/httpx/handlers"
	"github.com/brightforge/portal/internal/security/password"
	"github.com/brightforge/portal/internal/session"
	"github.com/brightforge/portal/internal/store/core"
	"github.com/brightforge/portal/internal/store/memory"
)

// scrypt liviano para que la suite no tarde.
var testParams = password.Params{N: 1024, R: 8, P: 1, KeyLen: 32}

type testEnv struct {
	repo core.Repository
	srv  *httptest.Server
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	repo := memory.New()
	deps := handlers.Deps{
		Repo:     repo,
		Auth:     auth.NewServiceWithParams(repo, testParams),
		Sessions: session.NewManager(session.NewMemory(time.Hour), session.CookieConfig{Name: "portal_session"}, time.Hour),
		Audit:    audit.NewRecorder(repo),
	}
	srv := httptest.NewServer(New(deps))
	t.Cleanup(srv.Close)
	return &testEnv{repo: repo, srv: srv}
}

// client devuelve un http.Client con su propio cookie jar (una "sesión de
// browser" independiente por llamada).
func (e *testEnv) client(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar, CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
}

func (e *testEnv) do(t *testing.T, c *http.Client, method, path string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, e.srv.URL+path, &buf)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.Do(req)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

// registerAs crea y deja logueado un usuario con el rol pedido. Para admin
// escala el rol directo en el repo, el endpoint público no lo permite.
func (e *testEnv) registerAs(t *testing.T, c *http.Client, username, role string) map[string]any {
	t.Helper()
	resp := e.do(t, c, http.MethodPost, "/api/register", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "pw123456",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	u := decode[map[string]any](t, resp)

	if role == core.RoleAdmin {
		stored, err := e.repo.GetUserByUsername(context.Background(), username)
		require.NoError(t, err)
		stored.Role = core.RoleAdmin
		require.NoError(t, e.repo.UpdateUser(context.Background(), stored))
	}
	return u
}

func TestHealthz(t *testing.T) {
	e := newTestEnv(t)
	resp, err := http.Get(e.srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuthFlow(t *testing.T) {
	e := newTestEnv(t)
	c := e.client(t)

	// register deja la sesión iniciada y nunca expone el hash
	resp := e.do(t, c, http.MethodPost, "/api/register", map[string]string{
		"username": "alice", "email": "alice@example.com", "password": "pw123456",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	body := decode[map[string]any](t, resp)
	require.Equal(t, "alice", body["username"])
	require.Equal(t, core.RoleClient, body["role"])
	require.NotContains(t, body, "password_hash")

	resp = e.do(t, c, http.MethodGet, "/api/user", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	me := decode[map[string]any](t, resp)
	require.Equal(t, "alice", me["username"])

	resp = e.do(t, c, http.MethodPost, "/api/logout", nil)
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = e.do(t, c, http.MethodGet, "/api/user", nil)
	resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// login vuelve a abrir sesión
	resp = e.do(t, c, http.MethodPost, "/api/login", map[string]string{
		"username": "alice", "password": "pw123456",
	})
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = e.do(t, c, http.MethodGet, "/api/user", nil)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRegisterIgnoresRequestedRole(t *testing.T) {
	e := newTestEnv(t)
	c := e.client(t)

	// el body puede pedir admin, el endpoint público siempre crea client
	resp := e.do(t, c, http.MethodPost, "/api/register", map[string]string{
		"username": "mallory", "email": "mallory@example.com",
		"password": "pw123456", "role": core.RoleAdmin,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	body := decode[map[string]any](t, resp)
	require.Equal(t, core.RoleClient, body["role"])

	stored, err := e.repo.GetUserByUsername(context.Background(), "mallory")
	require.NoError(t, err)
	require.Equal(t, core.RoleClient, stored.Role)

	// y no pasa las rutas admin
	resp = e.do(t, c, http.MethodGet, "/api/inquiries", nil)
	resp.Body.Close()
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestLoginWrongPassword(t *testing.T) {
	e := newTestEnv(t)
	c := e.client(t)
	e.registerAs(t, c, "bob", core.RoleClient)

	resp := e.do(t, e.client(t), http.MethodPost, "/api/login", map[string]string{
		"username": "bob", "password": "wrongwrong",
	})
	resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRoleEnforcement(t *testing.T) {
	e := newTestEnv(t)

	clientHTTP := e.client(t)
	e.registerAs(t, clientHTTP, "cliente", core.RoleClient)

	adminHTTP := e.client(t)
	e.registerAs(t, adminHTTP, "jefe", core.RoleAdmin)
	// re-login para que el principal recargue el rol nuevo
	resp := e.do(t, adminHTTP, http.MethodPost, "/api/login", map[string]string{
		"username": "jefe", "password": "pw123456",
	})
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// sin sesión: 401
	resp, err := http.Get(e.srv.URL + "/api/inquiries")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// client contra ruta admin: 403, el match de rol es exacto
	resp = e.do(t, clientHTTP, http.MethodGet, "/api/inquiries", nil)
	resp.Body.Close()
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	// admin: 200
	resp = e.do(t, adminHTTP, http.MethodGet, "/api/inquiries", nil)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestInquiryConvertFlow(t *testing.T) {
	e := newTestEnv(t)

	// intake público, sin sesión
	resp := e.do(t, e.client(t), http.MethodPost, "/api/inquiries", map[string]string{
		"name": "Prospecto", "email": "prospecto@example.com", "message": "quiero un sitio",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	inq := decode[map[string]any](t, resp)
	inqID := inq["id"].(string)

	adminHTTP := e.client(t)
	e.registerAs(t, adminHTTP, "jefe", core.RoleAdmin)
	resp = e.do(t, adminHTTP, http.MethodPost, "/api/login", map[string]string{
		"username": "jefe", "password": "pw123456",
	})
	resp.Body.Close()

	resp = e.do(t, adminHTTP, http.MethodPost, "/api/inquiries/"+inqID+"/convert", map[string]string{
		"username": "prospecto", "password": "pw123456",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// el client quedó creado y el inquiry marcado converted
	clients, err := e.repo.ListClients(context.Background())
	require.NoError(t, err)
	require.Len(t, clients, 1)
	require.Equal(t, "Prospecto", clients[0].Name)

	stored, err := e.repo.GetInquiry(context.Background(), inqID)
	require.NoError(t, err)
	require.Equal(t, core.InquiryConverted, stored.Status)

	// el usuario portal quedó linkeado al client
	u, err := e.repo.GetUserByUsername(context.Background(), "prospecto")
	require.NoError(t, err)
	require.Equal(t, core.RoleClient, u.Role)
	require.NotNil(t, u.ClientID)
	require.Equal(t, clients[0].ID, *u.ClientID)

	// doble convert: 409
	resp = e.do(t, adminHTTP, http.MethodPost, "/api/inquiries/"+inqID+"/convert", map[string]string{
		"username": "prospecto2", "password": "pw123456",
	})
	resp.Body.Close()
	require.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestClientScoping(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	mine := &core.Client{Name: "Mío"}
	other := &core.Client{Name: "Ajeno"}
	require.NoError(t, e.repo.CreateClient(ctx, mine))
	require.NoError(t, e.repo.CreateClient(ctx, other))
	require.NoError(t, e.repo.CreateInvoice(ctx, &core.Invoice{ClientID: mine.ID, Number: "A-1", Status: core.InvoicePending}))
	require.NoError(t, e.repo.CreateInvoice(ctx, &core.Invoice{ClientID: other.ID, Number: "B-1", Status: core.InvoicePending}))

	c := e.client(t)
	e.registerAs(t, c, "cliente", core.RoleClient)
	u, err := e.repo.GetUserByUsername(ctx, "cliente")
	require.NoError(t, err)
	u.ClientID = &mine.ID
	require.NoError(t, e.repo.UpdateUser(ctx, u))
	// re-login para recargar el ClientID en el principal
	resp := e.do(t, c, http.MethodPost, "/api/login", map[string]string{
		"username": "cliente", "password": "pw123456",
	})
	resp.Body.Close()

	// lista scoped: solo el client propio
	resp = e.do(t, c, http.MethodGet, "/api/clients", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	clients := decode[[]map[string]any](t, resp)
	require.Len(t, clients, 1)
	require.Equal(t, "Mío", clients[0]["name"])

	// get directo del ajeno: 403
	resp = e.do(t, c, http.MethodGet, "/api/clients/"+other.ID, nil)
	resp.Body.Close()
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	// invoices scoped
	resp = e.do(t, c, http.MethodGet, "/api/invoices", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	invoices := decode[[]map[string]any](t, resp)
	require.Len(t, invoices, 1)
	require.Equal(t, "A-1", invoices[0]["number"])
}

func TestContentPublicReadAdminWrite(t *testing.T) {
	e := newTestEnv(t)

	adminHTTP := e.client(t)
	e.registerAs(t, adminHTTP, "jefe", core.RoleAdmin)
	resp := e.do(t, adminHTTP, http.MethodPost, "/api/login", map[string]string{
		"username": "jefe", "password": "pw123456",
	})
	resp.Body.Close()

	resp = e.do(t, adminHTTP, http.MethodPut, "/api/content/home-hero", map[string]any{
		"title": "Hola", "body": "Bienvenidos", "sort_order": 1,
	})
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// lectura pública sin sesión
	resp, err := http.Get(e.srv.URL + "/api/content/home-hero")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	block := decode[map[string]any](t, resp)
	require.Equal(t, "Hola", block["title"])

	// escritura sin sesión: 401
	req, err := http.NewRequest(http.MethodPut, e.srv.URL+"/api/content/home-hero", bytes.NewBufferString(`{"title":"x"}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestActivityRecordsLogin(t *testing.T) {
	e := newTestEnv(t)

	adminHTTP := e.client(t)
	e.registerAs(t, adminHTTP, "jefe", core.RoleAdmin)
	resp := e.do(t, adminHTTP, http.MethodPost, "/api/login", map[string]string{
		"username": "jefe", "password": "pw123456",
	})
	resp.Body.Close()

	resp = e.do(t, adminHTTP, http.MethodGet, "/api/activity", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	acts := decode[[]map[string]any](t, resp)
	require.NotEmpty(t, acts)

	var actions []string
	for _, a := range acts {
		actions = append(actions, a["action"].(string))
	}
	require.Contains(t, actions, "register")
	require.Contains(t, actions, "login")
}
