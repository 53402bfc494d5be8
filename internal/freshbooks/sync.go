package freshbooks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/brightforge/portal/internal/metrics"
	"github.com/brightforge/portal/internal/observability/logger"
	"github.com/brightforge/portal/internal/store/core"
)

// SyncAll corre los tres syncs en orden fijo: clients, projects, invoices.
// El orden es un requisito de correctitud, no una optimización: projects
// dependen de clients e invoices de ambos; fuera de orden se saltean
// registros que hubieran matcheado. Cualquier fallo aborta y propaga; una
// re-corrida es idempotente por el matching de external id.
func (c *Client) SyncAll(ctx context.Context) error {
	if err := c.SyncClients(ctx); err != nil {
		return fmt.Errorf("sync clients: %w", err)
	}
	if err := c.SyncProjects(ctx); err != nil {
		return fmt.Errorf("sync projects: %w", err)
	}
	if err := c.SyncInvoices(ctx); err != nil {
		return fmt.Errorf("sync invoices: %w", err)
	}
	return nil
}

func (c *Client) accountID(ctx context.Context) (string, error) {
	conn, err := c.repo.GetAPIConnection(ctx, Provider)
	if errors.Is(err, core.ErrNotFound) {
		return "", ErrNotConnected
	}
	if err != nil {
		return "", err
	}
	return conn.AccountID, nil
}

// SyncClients trae la colección completa del proveedor y hace upsert por
// external id: si hay match actualiza in-place, si no inserta.
func (c *Client) SyncClients(ctx context.Context) (err error) {
	defer func() { countRun("clients", err) }()

	account, err := c.accountID(ctx)
	if err != nil {
		return err
	}

	for page := 1; ; page++ {
		var pg clientsPage
		path := fmt.Sprintf("/accounting/account/%s/users/clients?page=%d&per_page=100", account, page)
		if err = c.apiGET(ctx, path, &pg); err != nil {
			return err
		}

		for _, rc := range pg.Response.Result.Clients {
			extID := externalID(rc.ID)
			if err = c.upsertClient(ctx, extID, rc); err != nil {
				return err
			}
		}

		if pg.Response.Result.Page >= pg.Response.Result.Pages {
			return nil
		}
	}
}

func (c *Client) upsertClient(ctx context.Context, extID string, rc remoteClient) error {
	local, err := c.repo.GetClientByExternalID(ctx, Provider, extID)
	switch {
	case err == nil:
		local.Name = rc.displayName()
		local.Email = rc.Email
		local.Phone = rc.Phone
		local.Company = rc.Organization
		if err := c.repo.UpdateClient(ctx, local); err != nil {
			return err
		}
		metrics.SyncRecords.WithLabelValues("client", "updated").Inc()
	case errors.Is(err, core.ErrNotFound):
		nc := &core.Client{
			Name:         rc.displayName(),
			Email:        rc.Email,
			Phone:        rc.Phone,
			Company:      rc.Organization,
			FreshbooksID: &extID,
		}
		if err := c.repo.CreateClient(ctx, nc); err != nil {
			return err
		}
		metrics.SyncRecords.WithLabelValues("client", "created").Inc()
	default:
		return err
	}
	return nil
}

// SyncProjects requiere que el client padre ya exista localmente por
// external id; si falta, el registro se saltea en silencio (llegará en su
// propio sweep de clients, o nunca — gap de consistencia eventual aceptado,
// no un error).
func (c *Client) SyncProjects(ctx context.Context) (err error) {
	defer func() { countRun("projects", err) }()

	account, err := c.accountID(ctx)
	if err != nil {
		return err
	}

	for page := 1; ; page++ {
		var pg projectsPage
		path := fmt.Sprintf("/projects/business/%s/projects?page=%d&per_page=100", account, page)
		if err = c.apiGET(ctx, path, &pg); err != nil {
			return err
		}

		for _, rp := range pg.Projects {
			if err = c.upsertProject(ctx, rp); err != nil {
				return err
			}
		}

		if pg.Meta.Page >= pg.Meta.Pages {
			return nil
		}
	}
}

func (c *Client) upsertProject(ctx context.Context, rp remoteProject) error {
	parent, err := c.repo.GetClientByExternalID(ctx, Provider, externalID(rp.ClientID))
	if errors.Is(err, core.ErrNotFound) {
		logger.From(ctx).Sugar().Debugw("sync_project_skipped_missing_client",
			"project_ext_id", externalID(rp.ID), "client_ext_id", externalID(rp.ClientID))
		metrics.SyncRecords.WithLabelValues("project", "skipped").Inc()
		return nil
	}
	if err != nil {
		return err
	}

	extID := externalID(rp.ID)
	local, err := c.repo.GetProjectByExternalID(ctx, Provider, extID)
	switch {
	case err == nil:
		local.ClientID = parent.ID
		local.Name = rp.Title
		local.Description = rp.Description
		local.Status = rp.localStatus()
		if err := c.repo.UpdateProject(ctx, local); err != nil {
			return err
		}
		metrics.SyncRecords.WithLabelValues("project", "updated").Inc()
	case errors.Is(err, core.ErrNotFound):
		np := &core.Project{
			ClientID:     parent.ID,
			Name:         rp.Title,
			Description:  rp.Description,
			Status:       rp.localStatus(),
			FreshbooksID: &extID,
		}
		if err := c.repo.CreateProject(ctx, np); err != nil {
			return err
		}
		metrics.SyncRecords.WithLabelValues("project", "created").Inc()
	default:
		return err
	}
	return nil
}

// SyncInvoices requiere el client padre (skip silencioso si falta); el
// project padre es opcional y se linkea solo si matchea por external id.
func (c *Client) SyncInvoices(ctx context.Context) (err error) {
	defer func() { countRun("invoices", err) }()

	account, err := c.accountID(ctx)
	if err != nil {
		return err
	}

	for page := 1; ; page++ {
		var pg invoicesPage
		path := fmt.Sprintf("/accounting/account/%s/invoices/invoices?page=%d&per_page=100", account, page)
		if err = c.apiGET(ctx, path, &pg); err != nil {
			return err
		}

		for _, ri := range pg.Response.Result.Invoices {
			if err = c.upsertInvoice(ctx, ri); err != nil {
				return err
			}
		}

		if pg.Response.Result.Page >= pg.Response.Result.Pages {
			return nil
		}
	}
}

func (c *Client) upsertInvoice(ctx context.Context, ri remoteInvoice) error {
	parent, err := c.repo.GetClientByExternalID(ctx, Provider, externalID(ri.ClientID))
	if errors.Is(err, core.ErrNotFound) {
		logger.From(ctx).Sugar().Debugw("sync_invoice_skipped_missing_client",
			"invoice_ext_id", externalID(ri.ID), "client_ext_id", externalID(ri.ClientID))
		metrics.SyncRecords.WithLabelValues("invoice", "skipped").Inc()
		return nil
	}
	if err != nil {
		return err
	}

	// Project padre: opcional.
	var projectID *string
	if externalID(ri.ProjectID) != "" && externalID(ri.ProjectID) != "0" {
		if p, err := c.repo.GetProjectByExternalID(ctx, Provider, externalID(ri.ProjectID)); err == nil {
			projectID = &p.ID
		} else if !errors.Is(err, core.ErrNotFound) {
			return err
		}
	}

	var dueDate *time.Time
	if ri.DueDate != "" {
		if d, err := time.Parse("2006-01-02", ri.DueDate); err == nil {
			dueDate = &d
		}
	}

	extID := externalID(ri.ID)
	local, err := c.repo.GetInvoiceByExternalID(ctx, Provider, extID)
	switch {
	case err == nil:
		local.ClientID = parent.ID
		local.ProjectID = projectID
		local.Number = ri.InvoiceNumber
		local.AmountCents = parseAmountCents(ri.Amount.Amount)
		local.Status = mapInvoiceStatus(ri.Status)
		local.DueDate = dueDate
		if err := c.repo.UpdateInvoice(ctx, local); err != nil {
			return err
		}
		metrics.SyncRecords.WithLabelValues("invoice", "updated").Inc()
	case errors.Is(err, core.ErrNotFound):
		ni := &core.Invoice{
			ClientID:     parent.ID,
			ProjectID:    projectID,
			Number:       ri.InvoiceNumber,
			AmountCents:  parseAmountCents(ri.Amount.Amount),
			Status:       mapInvoiceStatus(ri.Status),
			DueDate:      dueDate,
			FreshbooksID: &extID,
		}
		if err := c.repo.CreateInvoice(ctx, ni); err != nil {
			return err
		}
		metrics.SyncRecords.WithLabelValues("invoice", "created").Inc()
	default:
		return err
	}
	return nil
}

func countRun(entity string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.SyncRuns.WithLabelValues(entity, result).Inc()
}
