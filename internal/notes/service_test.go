package notes

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tphakala/notekeeper/internal/access"
	"github.com/tphakala/notekeeper/internal/conf"
	"github.com/tphakala/notekeeper/internal/datastore/entities"
	"github.com/tphakala/notekeeper/internal/datastore/repository"
	"github.com/tphakala/notekeeper/internal/errors"
	"pgregory.net/rapid"
)

var defaultAudit = conf.AuditSettings{RecordErrors: true}

func TestCreateSetsOwnerAndAudits(t *testing.T) {
	e := newTestEnv(t, defaultAudit)
	ctx := context.Background()

	note, err := e.svc.Create(ctx, user("u1"), CreateInput{
		Title:   "  My Note  ",
		Content: "Hello",
		Reason:  strPtr("initial"),
	})
	require.NoError(t, err)

	assert.NotZero(t, note.ID)
	assert.Equal(t, "My Note", note.Title, "title is stored trimmed")
	assert.Equal(t, "Hello", note.Content)
	require.NotNil(t, note.OwnerID)
	assert.Equal(t, "u1", *note.OwnerID)
	assert.Equal(t, note.CreatedAt, note.UpdatedAt)

	entries := e.auditEntries(t)
	require.Len(t, entries, 1)
	entry := entries[0]
	assert.Equal(t, entities.ActionCreate, entry.Action)
	assert.Equal(t, entities.EntityNote, entry.Entity)
	require.NotNil(t, entry.EntityID)
	assert.Equal(t, note.ID, *entry.EntityID)
	assert.Equal(t, "u1", *entry.UserID)
	assert.Equal(t, "initial", *entry.Reason)
	assert.Nil(t, entry.BeforeState)
	require.NotNil(t, entry.AfterState)
	assert.Equal(t, "My Note", entry.AfterState["title"])
	assert.Equal(t, "u1", entry.AfterState["owner_id"])
	assert.Nil(t, entry.Error)

	assert.Equal(t, 1, e.metrics.operation("create/success"))
	assert.Equal(t, 1, e.metrics.audit("CREATE"))
}

func TestCreateAnonymousHasNoOwner(t *testing.T) {
	e := newTestEnv(t, defaultAudit)

	note, err := e.svc.Create(context.Background(), access.Anonymous, CreateInput{Title: "t", Content: "c"})
	require.NoError(t, err)
	assert.Nil(t, note.OwnerID)

	entries := e.auditEntries(t)
	require.Len(t, entries, 1)
	assert.Nil(t, entries[0].UserID)
	assert.Nil(t, entries[0].AfterState["owner_id"])
}

func TestCreateValidation(t *testing.T) {
	tests := []struct {
		name   string
		in     CreateInput
		fields []string
	}{
		{"empty title", CreateInput{Title: "", Content: "c"}, []string{"title"}},
		{"blank title", CreateInput{Title: "   ", Content: "c"}, []string{"title"}},
		{"long title", CreateInput{Title: strings.Repeat("a", 201), Content: "c"}, []string{"title"}},
		{"blank content", CreateInput{Title: "t", Content: " \n\t"}, []string{"content"}},
		{"long content", CreateInput{Title: "t", Content: strings.Repeat("x", 10_001)}, []string{"content"}},
		{"both invalid", CreateInput{Title: "", Content: ""}, []string{"title", "content"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEnv(t, defaultAudit)

			note, err := e.svc.Create(context.Background(), user("u1"), tt.in)
			require.Error(t, err)
			assert.Nil(t, note)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			got := make([]string, 0, len(verr.Fields))
			for _, f := range verr.Fields {
				got = append(got, f.Field)
			}
			assert.Equal(t, tt.fields, got)
			assert.Equal(t, errors.CategoryValidation, verr.ErrorCategory())

			entries := e.auditEntries(t)
			require.Len(t, entries, 1, "only the ERROR entry is written")
			assert.Equal(t, entities.ActionError, entries[0].Action)
			assert.Nil(t, entries[0].EntityID)
			require.NotNil(t, entries[0].Error)
			assert.True(t, strings.HasPrefix(*entries[0].Error, "create: Validation failed"))
			assert.Equal(t, 1, e.metrics.operation("create/validation_error"))
		})
	}
}

func TestCreateBoundaryLengths(t *testing.T) {
	e := newTestEnv(t, defaultAudit)

	// 200 code points of a multi-byte character is still within the limit
	title := strings.Repeat("é", MaxTitleLength)
	note, err := e.svc.Create(context.Background(), user("u1"), CreateInput{
		Title:   title,
		Content: strings.Repeat("x", MaxContentLength),
	})
	require.NoError(t, err)
	assert.Equal(t, title, note.Title)
}

func TestListScopesByOwner(t *testing.T) {
	e := newTestEnv(t, defaultAudit)
	ctx := context.Background()

	created := mustCreate(t, e, user("u1"), "My Note")
	mustCreate(t, e, user("u2"), "Other")

	page, err := e.svc.List(ctx, user("u1"), 10, 0)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, created.ID, page.Items[0].ID)
	assert.EqualValues(t, 1, page.Total)

	page, err = e.svc.List(ctx, user("u3"), 10, 0)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.NotNil(t, page.Items)
	assert.Zero(t, page.Total)

	page, err = e.svc.List(ctx, admin(), 10, 0)
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.EqualValues(t, 2, page.Total)
	assert.Equal(t, "Other", page.Items[0].Title, "newest first")

	assert.Len(t, e.auditEntries(t), 2, "listing never audits")
}

func TestListTotalIgnoresLimit(t *testing.T) {
	e := newTestEnv(t, defaultAudit)
	for i := range 5 {
		mustCreate(t, e, user("u1"), fmt.Sprintf("note %d", i))
	}

	page, err := e.svc.List(context.Background(), user("u1"), 2, 1)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.EqualValues(t, 5, page.Total)
	assert.Equal(t, 2, page.Limit)
	assert.Equal(t, 1, page.Offset)
	assert.Equal(t, "note 3", page.Items[0].Title)
	assert.Equal(t, "note 2", page.Items[1].Title)
}

func TestListAnonymousSeesNothing(t *testing.T) {
	e := newTestEnv(t, defaultAudit)
	mustCreate(t, e, access.Anonymous, "unowned")
	mustCreate(t, e, user("u1"), "owned")

	page, err := e.svc.List(context.Background(), access.Anonymous, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Zero(t, page.Total)
}

func TestListRejectsBadPage(t *testing.T) {
	e := newTestEnv(t, defaultAudit)

	for _, tc := range []struct{ limit, offset int }{{0, 0}, {101, 0}, {10, -1}} {
		_, err := e.svc.List(context.Background(), user("u1"), tc.limit, tc.offset)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr, "limit=%d offset=%d", tc.limit, tc.offset)
	}
	assert.Empty(t, e.auditEntries(t), "read failures are not audited")
}

func TestGetHidesOtherUsersNotes(t *testing.T) {
	e := newTestEnv(t, defaultAudit)
	ctx := context.Background()
	note := mustCreate(t, e, user("u1"), "mine")

	got, err := e.svc.Get(ctx, user("u1"), note.ID)
	require.NoError(t, err)
	assert.Equal(t, note.ID, got.ID)

	_, err = e.svc.Get(ctx, user("u2"), note.ID)
	require.ErrorIs(t, err, ErrNoteNotFound)
	assert.True(t, errors.IsNotFound(err))

	_, err = e.svc.Get(ctx, access.Anonymous, note.ID)
	require.ErrorIs(t, err, ErrNoteNotFound)

	_, err = e.svc.Get(ctx, admin(), note.ID)
	require.NoError(t, err)

	_, err = e.svc.Get(ctx, user("u1"), note.ID+100)
	require.ErrorIs(t, err, ErrNoteNotFound)

	assert.Len(t, e.auditEntries(t), 1, "reads are not audited by default")
	assert.Equal(t, 3, e.metrics.operation("get/not_found"))
}

func TestGetRecordsReadsWhenEnabled(t *testing.T) {
	e := newTestEnv(t, conf.AuditSettings{RecordErrors: true, RecordReads: true})
	note := mustCreate(t, e, user("u1"), "mine")

	_, err := e.svc.Get(context.Background(), user("u1"), note.ID)
	require.NoError(t, err)

	entries := e.auditEntries(t)
	require.Len(t, entries, 2)
	read := entries[0]
	assert.Equal(t, entities.ActionRead, read.Action)
	assert.Equal(t, note.ID, *read.EntityID)
	assert.Nil(t, read.BeforeState)
	assert.Nil(t, read.AfterState)
}

func TestUpdateWritesSnapshots(t *testing.T) {
	e := newTestEnv(t, defaultAudit)
	ctx := context.Background()
	note := mustCreate(t, e, user("u1"), "before")

	updated, err := e.svc.Update(ctx, user("u1"), note.ID, UpdateInput{
		Title:  strPtr("  after "),
		Reason: strPtr("rename"),
	})
	require.NoError(t, err)

	assert.Equal(t, "after", updated.Title)
	assert.Equal(t, "Hello", updated.Content)
	assert.Equal(t, note.CreatedAt, updated.CreatedAt)
	assert.True(t, updated.UpdatedAt.After(note.UpdatedAt))
	assert.Equal(t, "u1", *updated.OwnerID)

	stored, err := e.svc.Get(ctx, user("u1"), note.ID)
	require.NoError(t, err)
	assert.Equal(t, "after", stored.Title)
	assert.True(t, stored.UpdatedAt.Equal(updated.UpdatedAt))

	entries := e.auditEntries(t)
	require.Len(t, entries, 2)
	entry := entries[0]
	assert.Equal(t, entities.ActionUpdate, entry.Action)
	assert.Equal(t, "before", entry.BeforeState["title"])
	assert.Equal(t, "after", entry.AfterState["title"])
	assert.Equal(t, entry.BeforeState["created_at"], entry.AfterState["created_at"])
	assert.NotEqual(t, entry.BeforeState["updated_at"], entry.AfterState["updated_at"])
	assert.Equal(t, "rename", *entry.Reason)
}

func TestUpdateWithoutFields(t *testing.T) {
	e := newTestEnv(t, defaultAudit)
	ctx := context.Background()
	note := mustCreate(t, e, user("u1"), "mine")

	_, err := e.svc.Update(ctx, user("u1"), note.ID, UpdateInput{})
	require.ErrorIs(t, err, ErrNoFieldsToUpdate)
	assert.Equal(t, "No fields provided to update", err.Error())

	// A missing target is reported before the empty payload
	_, err = e.svc.Update(ctx, user("u1"), note.ID+1, UpdateInput{})
	require.ErrorIs(t, err, ErrNoteNotFound)

	entries := e.auditEntries(t)
	require.Len(t, entries, 3)
	assert.Equal(t, entities.ActionError, entries[1].Action)
	assert.Equal(t, "update: No fields provided to update", *entries[1].Error)
	assert.Equal(t, note.ID, *entries[1].EntityID)
	assert.Equal(t, 1, e.metrics.operation("update/nothing_to_update"))
}

func TestUpdateCannotReachOtherUsersNotes(t *testing.T) {
	e := newTestEnv(t, defaultAudit)
	ctx := context.Background()
	note := mustCreate(t, e, user("u1"), "mine")

	_, err := e.svc.Update(ctx, user("u2"), note.ID, UpdateInput{Content: strPtr("hijack")})
	require.ErrorIs(t, err, ErrNoteNotFound)

	stored, err := e.svc.Get(ctx, user("u1"), note.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hello", stored.Content)

	updated, err := e.svc.Update(ctx, admin(), note.ID, UpdateInput{Content: strPtr("moderated")})
	require.NoError(t, err)
	assert.Equal(t, "moderated", updated.Content)
	assert.Equal(t, "u1", *updated.OwnerID, "owner never changes")
}

func TestUpdateValidationComesFirst(t *testing.T) {
	e := newTestEnv(t, defaultAudit)

	_, err := e.svc.Update(context.Background(), user("u1"), 999, UpdateInput{Title: strPtr("  ")})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "title", verr.Fields[0].Field)
}

func TestDeleteScenario(t *testing.T) {
	e := newTestEnv(t, defaultAudit)
	ctx := context.Background()
	note := mustCreate(t, e, user("u1"), "doomed")

	err := e.svc.Delete(ctx, user("u2"), note.ID, nil)
	require.ErrorIs(t, err, ErrNoteNotFound)

	require.NoError(t, e.svc.Delete(ctx, user("u1"), note.ID, strPtr("cleanup")))

	_, err = e.svc.Get(ctx, user("u1"), note.ID)
	require.ErrorIs(t, err, ErrNoteNotFound)

	err = e.svc.Delete(ctx, user("u1"), note.ID, nil)
	require.ErrorIs(t, err, ErrNoteNotFound)

	entries := e.auditEntries(t)
	require.Len(t, entries, 4)

	deleted := entries[1]
	assert.Equal(t, entities.ActionDelete, deleted.Action)
	assert.Equal(t, note.ID, *deleted.EntityID)
	assert.Equal(t, "doomed", deleted.BeforeState["title"])
	assert.Nil(t, deleted.AfterState)
	assert.Equal(t, "cleanup", *deleted.Reason)

	failed := entries[2]
	assert.Equal(t, entities.ActionError, failed.Action)
	assert.Equal(t, "u2", *failed.UserID)
	assert.Equal(t, "delete: note not found", *failed.Error)
}

func TestFailedAuditRollsBackMutation(t *testing.T) {
	e := newTestEnv(t, defaultAudit)
	ctx := context.Background()
	owner := user("u1")
	kept := mustCreate(t, e, owner, "Original")

	restore := e.breakAuditTable(t)

	_, err := e.svc.Create(ctx, owner, CreateInput{Title: "Orphan", Content: "Hello"})
	require.Error(t, err)
	_, err = e.svc.Update(ctx, owner, kept.ID, UpdateInput{Title: strPtr("Changed")})
	require.Error(t, err)
	err = e.svc.Delete(ctx, owner, kept.ID, strPtr("cleanup"))
	require.Error(t, err)

	restore()

	notes, total, err := e.store.Notes().List(ctx, repository.NoteFilter{Limit: repository.MaxLimit})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total, "create without its audit entry must not persist")
	require.Len(t, notes, 1)

	stored, err := e.store.Notes().GetByID(ctx, kept.ID)
	require.NoError(t, err, "delete without its audit entry must not persist")
	assert.Equal(t, "Original", stored.Title, "update without its audit entry must not persist")
	assert.True(t, kept.UpdatedAt.Equal(stored.UpdatedAt))

	// Only the first create was audited; ERROR entries could not be written either
	entries := e.auditEntries(t)
	require.Len(t, entries, 1)
	assert.Equal(t, entities.ActionCreate, entries[0].Action)

	assert.Equal(t, 1, e.metrics.operation(OpCreate+"/"+OutcomeError))
	assert.Equal(t, 1, e.metrics.operation(OpUpdate+"/"+OutcomeError))
	assert.Equal(t, 1, e.metrics.operation(OpDelete+"/"+OutcomeError))
	assert.Equal(t, 1, e.metrics.audit(string(entities.ActionCreate)), "metrics count committed entries only")
}

func TestErrorEntriesCanBeDisabled(t *testing.T) {
	e := newTestEnv(t, conf.AuditSettings{RecordErrors: false})

	_, err := e.svc.Create(context.Background(), user("u1"), CreateInput{Title: "", Content: ""})
	require.Error(t, err)
	assert.Empty(t, e.auditEntries(t))
}

func TestErrorEntrySurvivesCancelledContext(t *testing.T) {
	e := newTestEnv(t, defaultAudit)
	note := mustCreate(t, e, user("u1"), "mine")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := e.svc.Delete(ctx, user("u1"), note.ID, nil)
	require.Error(t, err)

	entries := e.auditEntries(t)
	require.Len(t, entries, 2)
	assert.Equal(t, entities.ActionError, entries[0].Action)

	_, err = e.svc.Get(context.Background(), user("u1"), note.ID)
	require.NoError(t, err, "the failed delete rolled back")
}

func TestPermissionDenied(t *testing.T) {
	e := newTestEnv(t, defaultAudit)
	guest := access.Identity{Role: access.Role("guest")}

	_, err := e.svc.Create(context.Background(), guest, CreateInput{Title: "t", Content: "c"})
	require.ErrorIs(t, err, ErrPermissionDenied)

	_, err = e.svc.ListAudit(context.Background(), user("u1"), AuditQuery{Limit: 10})
	require.ErrorIs(t, err, ErrPermissionDenied)
	assert.True(t, errors.IsCategory(err, errors.CategoryPermission))

	entries := e.auditEntries(t)
	require.Len(t, entries, 1)
	assert.Equal(t, "create: Insufficient permissions for this operation", *entries[0].Error)
	assert.Equal(t, 1, e.metrics.operation("create/permission_denied"))
}

func TestListAudit(t *testing.T) {
	e := newTestEnv(t, defaultAudit)
	ctx := context.Background()
	first := mustCreate(t, e, user("u1"), "first")
	second := mustCreate(t, e, user("u1"), "second")
	_, err := e.svc.Update(ctx, user("u1"), first.ID, UpdateInput{Content: strPtr("edited")})
	require.NoError(t, err)

	page, err := e.svc.ListAudit(ctx, admin(), AuditQuery{EntityID: &first.ID, Limit: 10})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.EqualValues(t, 2, page.Total)
	assert.Equal(t, entities.ActionUpdate, page.Items[0].Action)
	assert.Equal(t, entities.ActionCreate, page.Items[1].Action)

	page, err = e.svc.ListAudit(ctx, admin(), AuditQuery{Action: entities.ActionCreate, Limit: 1})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.EqualValues(t, 2, page.Total)
	assert.Equal(t, second.ID, *page.Items[0].EntityID)

	_, err = e.svc.ListAudit(ctx, admin(), AuditQuery{Action: "PATCH", Limit: 10})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestGetAuditEntry(t *testing.T) {
	e := newTestEnv(t, defaultAudit)
	ctx := context.Background()
	note := mustCreate(t, e, user("u1"), "first")
	created := e.auditEntries(t)[0]

	entry, err := e.svc.GetAuditEntry(ctx, admin(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.ActionCreate, entry.Action)
	assert.Equal(t, note.ID, *entry.EntityID)

	_, err = e.svc.GetAuditEntry(ctx, user("u1"), created.ID)
	require.ErrorIs(t, err, ErrPermissionDenied)

	_, err = e.svc.GetAuditEntry(ctx, admin(), created.ID+100)
	require.ErrorIs(t, err, ErrAuditEntryNotFound)
	assert.True(t, errors.IsNotFound(err))
	assert.Equal(t, 1, e.metrics.operation(OpGetAudit+"/"+OutcomeNotFound))
}

func TestOutcomeOf(t *testing.T) {
	assert.Equal(t, OutcomeSuccess, outcomeOf(nil))
	assert.Equal(t, OutcomeNotFound, outcomeOf(notFound(1)))
	assert.Equal(t, OutcomeValidation, outcomeOf(&ValidationError{Fields: []FieldError{{Field: "title"}}}))
	assert.Equal(t, OutcomeNothingToUpdate, outcomeOf(errors.New(ErrNoFieldsToUpdate).Build()))
	assert.Equal(t, OutcomeBusy, outcomeOf(fmt.Errorf("update: %w", ErrStoreBusy)))
	assert.Equal(t, OutcomePermissionDenied, outcomeOf(access.Authorize(access.RoleUser, access.RoleAdmin)))
	assert.Equal(t, OutcomeError, outcomeOf(errors.NewStd("disk I/O error")))
}

// TestListOwnershipProperty checks that for any set of notes, a user's listing
// holds exactly that user's notes and reports their full count.
func TestListOwnershipProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		e := newTestEnv(t, defaultAudit)
		ctx := context.Background()

		owners := []string{"u1", "u2", "u3"}
		counts := map[string]int{}
		n := rapid.IntRange(0, 12).Draw(rt, "notes")
		for i := range n {
			owner := rapid.SampledFrom(owners).Draw(rt, fmt.Sprintf("owner_%d", i))
			_, err := e.svc.Create(ctx, user(owner), CreateInput{Title: fmt.Sprintf("n%d", i), Content: "c"})
			if err != nil {
				rt.Fatalf("create: %v", err)
			}
			counts[owner]++
		}

		limit := rapid.IntRange(1, 5).Draw(rt, "limit")
		for _, owner := range owners {
			page, err := e.svc.List(ctx, user(owner), limit, 0)
			if err != nil {
				rt.Fatalf("list: %v", err)
			}
			if page.Total != int64(counts[owner]) {
				rt.Fatalf("owner %s: total %d, want %d", owner, page.Total, counts[owner])
			}
			if len(page.Items) != min(limit, counts[owner]) {
				rt.Fatalf("owner %s: %d items for limit %d", owner, len(page.Items), limit)
			}
			for _, item := range page.Items {
				if item.OwnerID == nil || *item.OwnerID != owner {
					rt.Fatalf("owner %s received note of %v", owner, item.OwnerID)
				}
			}
		}

		page, err := e.svc.List(ctx, admin(), 100, 0)
		if err != nil {
			rt.Fatalf("admin list: %v", err)
		}
		if page.Total != int64(n) {
			rt.Fatalf("admin total %d, want %d", page.Total, n)
		}
	})
}
