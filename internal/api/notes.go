package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	mw "github.com/tphakala/notekeeper/internal/api/middleware"
	"github.com/tphakala/notekeeper/internal/datastore/entities"
	"github.com/tphakala/notekeeper/internal/notes"
)

// CreateNoteRequest is the body of POST /notes. An owner_id field is ignored.
type CreateNoteRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
	Reason  *string `json:"reason"`
}

// UpdateNoteRequest is the body of PUT /notes/:id. Absent and null fields are left unchanged.
type UpdateNoteRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
	Reason  *string `json:"reason"`
}

// NoteListResponse is one page of notes.
type NoteListResponse struct {
	Items  []entities.Note `json:"items"`
	Total  int64           `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

// CreateNote handles POST /notes.
func (c *Controller) CreateNote(ctx echo.Context) error {
	var req CreateNoteRequest
	if err := decodeBody(ctx, &req); err != nil {
		return err
	}

	var missing []notes.FieldError
	if req.Title == nil {
		missing = append(missing, notes.FieldError{Field: "title", Message: msgFieldRequired})
	}
	if req.Content == nil {
		missing = append(missing, notes.FieldError{Field: "content", Message: msgFieldRequired})
	}
	if len(missing) > 0 {
		return fieldErrors(missing...)
	}

	note, err := c.service.Create(ctx.Request().Context(), mw.IdentityFrom(ctx), notes.CreateInput{
		Title:   *req.Title,
		Content: *req.Content,
		Reason:  req.Reason,
	})
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, note)
}

// ListNotes handles GET /notes.
func (c *Controller) ListNotes(ctx echo.Context) error {
	limit, offset, err := pageParams(ctx)
	if err != nil {
		return err
	}

	page, err := c.service.List(ctx.Request().Context(), mw.IdentityFrom(ctx), limit, offset)
	if err != nil {
		return err
	}

	items := page.Items
	if items == nil {
		items = []entities.Note{}
	}
	return ctx.JSON(http.StatusOK, NoteListResponse{
		Items:  items,
		Total:  page.Total,
		Limit:  page.Limit,
		Offset: page.Offset,
	})
}

// GetNote handles GET /notes/:id.
func (c *Controller) GetNote(ctx echo.Context) error {
	id, err := noteID(ctx)
	if err != nil {
		return err
	}

	note, err := c.service.Get(ctx.Request().Context(), mw.IdentityFrom(ctx), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, note)
}

// UpdateNote handles PUT /notes/:id.
func (c *Controller) UpdateNote(ctx echo.Context) error {
	id, err := noteID(ctx)
	if err != nil {
		return err
	}

	var req UpdateNoteRequest
	if err := decodeBody(ctx, &req); err != nil {
		return err
	}

	note, err := c.service.Update(ctx.Request().Context(), mw.IdentityFrom(ctx), id, notes.UpdateInput{
		Title:   req.Title,
		Content: req.Content,
		Reason:  req.Reason,
	})
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, note)
}

// DeleteNote handles DELETE /notes/:id. The optional reason travels in the query string.
func (c *Controller) DeleteNote(ctx echo.Context) error {
	id, err := noteID(ctx)
	if err != nil {
		return err
	}

	if err := c.service.Delete(ctx.Request().Context(), mw.IdentityFrom(ctx), id, optionalQuery(ctx, "reason")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
