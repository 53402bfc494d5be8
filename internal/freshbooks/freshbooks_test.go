package freshbooks

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/brightforge/portal/internal/store/core"
	"github.com/brightforge/portal/internal/store/memory"
)

// fakeProvider simula el API remoto: token endpoint, perfil y colecciones.
type fakeProvider struct {
	tokenHits    atomic.Int64
	clientsJSON  string
	projectsJSON string
	invoicesJSON string
}

func (f *fakeProvider) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/auth/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		f.tokenHits.Add(1)
		if err := r.ParseForm(); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		gt := r.PostForm.Get("grant_type")
		if gt != "authorization_code" && gt != "refresh_token" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"access_token":"at-%s-%d","refresh_token":"rt-new","expires_in":3600,"token_type":"Bearer"}`,
			gt, f.tokenHits.Load())
	})

	mux.HandleFunc("/auth/api/v1/users/me", func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"response":{"business_memberships":[{"business":{"account_id":"ACC1"}}]}}`)
	})

	mux.HandleFunc("/accounting/account/ACC1/users/clients", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, f.clientsJSON)
	})
	mux.HandleFunc("/projects/business/ACC1/projects", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, f.projectsJSON)
	})
	mux.HandleFunc("/accounting/account/ACC1/invoices/invoices", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, f.invoicesJSON)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, baseURL string) (*Client, core.Repository) {
	t.Helper()
	repo := memory.New()
	c := New(Config{
		ClientID:     "cid",
		ClientSecret: "csecret",
		RedirectURI:  "http://localhost/cb",
		BaseURL:      baseURL,
		AuthURL:      baseURL + "/oauth/authorize",
	}, repo)
	return c, repo
}

func seedConnection(t *testing.T, repo core.Repository, expiresAt time.Time) {
	t.Helper()
	err := repo.UpsertAPIConnection(context.Background(), &core.APIConnection{
		Provider:     Provider,
		AccessToken:  "at-stored",
		RefreshToken: "rt-stored",
		AccountID:    "ACC1",
		ExpiresAt:    expiresAt,
	})
	require.NoError(t, err)
}

func TestAuthorizationURL(t *testing.T) {
	c, _ := newTestClient(t, "http://base")
	u := c.AuthorizationURL("st4te")
	require.Contains(t, u, "client_id=cid")
	require.Contains(t, u, "response_type=code")
	require.Contains(t, u, "state=st4te")
	require.Contains(t, u, "redirect_uri=")
}

func TestEnsureFreshToken_NotConnected(t *testing.T) {
	c, _ := newTestClient(t, "http://base")
	_, err := c.EnsureFreshToken(context.Background())
	require.ErrorIs(t, err, ErrNotConnected)
}

func TestEnsureFreshToken_FreshTokenSkipsNetwork(t *testing.T) {
	fp := &fakeProvider{}
	srv := fp.server(t)
	c, repo := newTestClient(t, srv.URL)
	seedConnection(t, repo, time.Now().UTC().Add(time.Hour))

	tok, err := c.EnsureFreshToken(context.Background())
	require.NoError(t, err)
	require.Equal(t, "at-stored", tok)
	require.EqualValues(t, 0, fp.tokenHits.Load(), "con token vigente no debe salir a la red")
}

func TestEnsureFreshToken_RefreshesExpired(t *testing.T) {
	fp := &fakeProvider{}
	srv := fp.server(t)
	c, repo := newTestClient(t, srv.URL)
	seedConnection(t, repo, time.Now().UTC().Add(-time.Minute))

	tok, err := c.EnsureFreshToken(context.Background())
	require.NoError(t, err)
	require.NotEqual(t, "at-stored", tok)
	require.EqualValues(t, 1, fp.tokenHits.Load())

	// El credential quedó persistido con expiry nuevo: la segunda llamada
	// no vuelve a refrescar.
	conn, err := repo.GetAPIConnection(context.Background(), Provider)
	require.NoError(t, err)
	require.Equal(t, tok, conn.AccessToken)
	require.Equal(t, "rt-new", conn.RefreshToken)
	require.True(t, conn.ExpiresAt.After(time.Now().UTC()))

	tok2, err := c.EnsureFreshToken(context.Background())
	require.NoError(t, err)
	require.Equal(t, tok, tok2)
	require.EqualValues(t, 1, fp.tokenHits.Load())
}

func TestExchangeCode(t *testing.T) {
	fp := &fakeProvider{}
	srv := fp.server(t)
	c, repo := newTestClient(t, srv.URL)

	conn, err := c.ExchangeCode(context.Background(), "auth-code")
	require.NoError(t, err)
	require.Equal(t, "ACC1", conn.AccountID)
	require.NotEmpty(t, conn.AccessToken)
	require.True(t, conn.ExpiresAt.After(time.Now().UTC()))

	stored, err := repo.GetAPIConnection(context.Background(), Provider)
	require.NoError(t, err)
	require.Equal(t, conn.AccessToken, stored.AccessToken)
}

const syncClientsJSON = `{"response":{"result":{"clients":[
  {"id":101,"organization":"Acme SA","email":"acme@example.com","bus_phone":"555-1"},
  {"id":102,"organization":"","fname":"Ana","lname":"García","email":"ana@example.com"}
],"page":1,"pages":1}}}`

const syncProjectsJSON = `{"projects":[
  {"id":201,"title":"Sitio web","description":"rediseño","client_id":101,"complete":false,"active":true},
  {"id":202,"title":"Huérfano","client_id":999,"complete":false,"active":true}
],"meta":{"page":1,"pages":1}}`

const syncInvoicesJSON = `{"response":{"result":{"invoices":[
  {"id":301,"customerid":101,"projectid":201,"invoice_number":"INV-1","v3_status":"paid","due_date":"2026-09-15","amount":{"amount":"1234.50","code":"USD"}},
  {"id":302,"customerid":999,"invoice_number":"INV-2","v3_status":"sent","amount":{"amount":"10.00","code":"USD"}},
  {"id":303,"customerid":102,"invoice_number":"INV-3","v3_status":"partial","amount":{"amount":"99.99","code":"USD"}}
],"page":1,"pages":1}}}`

func TestSyncAll(t *testing.T) {
	fp := &fakeProvider{
		clientsJSON:  syncClientsJSON,
		projectsJSON: syncProjectsJSON,
		invoicesJSON: syncInvoicesJSON,
	}
	srv := fp.server(t)
	c, repo := newTestClient(t, srv.URL)
	seedConnection(t, repo, time.Now().UTC().Add(time.Hour))

	ctx := context.Background()
	require.NoError(t, c.SyncAll(ctx))

	clients, err := repo.ListClients(ctx)
	require.NoError(t, err)
	require.Len(t, clients, 2)

	acme, err := repo.GetClientByExternalID(ctx, Provider, "101")
	require.NoError(t, err)
	require.Equal(t, "Acme SA", acme.Name)

	ana, err := repo.GetClientByExternalID(ctx, Provider, "102")
	require.NoError(t, err)
	require.Equal(t, "Ana García", ana.Name, "sin organization usa fname+lname")

	// El project huérfano (client 999) se saltea sin error.
	projects, err := repo.ListProjects(ctx, "")
	require.NoError(t, err)
	require.Len(t, projects, 1)
	require.Equal(t, acme.ID, projects[0].ClientID)
	require.Equal(t, "active", projects[0].Status)

	// Invoice 302 (client 999) salteada; 301 linkeada a client y project;
	// 303 con status desconocido cae a pending.
	invoices, err := repo.ListInvoices(ctx, "")
	require.NoError(t, err)
	require.Len(t, invoices, 2)

	inv1, err := repo.GetInvoiceByExternalID(ctx, Provider, "301")
	require.NoError(t, err)
	require.Equal(t, core.InvoicePaid, inv1.Status)
	require.EqualValues(t, 123450, inv1.AmountCents)
	require.NotNil(t, inv1.ProjectID)
	require.Equal(t, projects[0].ID, *inv1.ProjectID)
	require.NotNil(t, inv1.DueDate)

	inv3, err := repo.GetInvoiceByExternalID(ctx, Provider, "303")
	require.NoError(t, err)
	require.Equal(t, core.InvoicePending, inv3.Status)
	require.Nil(t, inv3.ProjectID)

	// Segunda corrida: idempotente, actualiza in-place sin duplicar.
	require.NoError(t, c.SyncAll(ctx))
	clients, err = repo.ListClients(ctx)
	require.NoError(t, err)
	require.Len(t, clients, 2)
	invoices, err = repo.ListInvoices(ctx, "")
	require.NoError(t, err)
	require.Len(t, invoices, 2)
}

func TestSyncProjects_NotConnected(t *testing.T) {
	c, _ := newTestClient(t, "http://base")
	err := c.SyncProjects(context.Background())
	require.ErrorIs(t, err, ErrNotConnected)
}

func TestMapInvoiceStatus(t *testing.T) {
	cases := map[string]string{
		"draft":    core.InvoicePending,
		"sent":     core.InvoicePending,
		"viewed":   core.InvoicePending,
		"paid":     core.InvoicePaid,
		"PAID":     core.InvoicePaid,
		"overdue":  core.InvoiceOverdue,
		"partial":  core.InvoicePending,
		"whatever": core.InvoicePending,
		"":         core.InvoicePending,
	}
	for in, want := range cases {
		require.Equal(t, want, mapInvoiceStatus(in), "status %q", in)
	}
}

func TestParseAmountCents(t *testing.T) {
	cases := map[string]int64{
		"1234.50": 123450,
		"10":      1000,
		"0.05":    5,
		"0.5":     50,
		"-3.25":   -325,
		"":        0,
		"abc":     0,
		"7.999":   799, // se trunca a 2 decimales
	}
	for in, want := range cases {
		require.Equal(t, want, parseAmountCents(in), "amount %q", in)
	}
}
