package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	mw "github.com/tphakala/notekeeper/internal/api/middleware"
	"github.com/tphakala/notekeeper/internal/datastore/entities"
	"github.com/tphakala/notekeeper/internal/notes"
)

// AuditListResponse is one page of audit entries.
type AuditListResponse struct {
	Items  []entities.AuditLogEntry `json:"items"`
	Total  int64                    `json:"total"`
	Limit  int                      `json:"limit"`
	Offset int                      `json:"offset"`
}

// ListAudit handles GET /audit. Admin only.
func (c *Controller) ListAudit(ctx echo.Context) error {
	limit, offset, err := pageParams(ctx)
	if err != nil {
		return err
	}

	q := notes.AuditQuery{
		Action: entities.AuditAction(strings.ToUpper(strings.TrimSpace(ctx.QueryParam("action")))),
		Limit:  limit,
		Offset: offset,
	}
	if raw := strings.TrimSpace(ctx.QueryParam("entity_id")); raw != "" {
		id, err := parsePositiveID("entity_id", raw)
		if err != nil {
			return err
		}
		q.EntityID = &id
	}

	page, err := c.service.ListAudit(ctx.Request().Context(), mw.IdentityFrom(ctx), q)
	if err != nil {
		return err
	}

	items := page.Items
	if items == nil {
		items = []entities.AuditLogEntry{}
	}
	return ctx.JSON(http.StatusOK, AuditListResponse{
		Items:  items,
		Total:  page.Total,
		Limit:  page.Limit,
		Offset: page.Offset,
	})
}

// GetAuditEntry handles GET /audit/:id. Admin only.
func (c *Controller) GetAuditEntry(ctx echo.Context) error {
	id, err := parsePositiveID("id", ctx.Param("id"))
	if err != nil {
		return err
	}

	entry, err := c.service.GetAuditEntry(ctx.Request().Context(), mw.IdentityFrom(ctx), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, entry)
}
