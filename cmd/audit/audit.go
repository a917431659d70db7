// Package audit provides the audit command that prints the audit trail.
package audit

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/tphakala/notekeeper/internal/access"
	"github.com/tphakala/notekeeper/internal/app"
	"github.com/tphakala/notekeeper/internal/conf"
	"github.com/tphakala/notekeeper/internal/datastore/entities"
	"github.com/tphakala/notekeeper/internal/notes"
	"gopkg.in/yaml.v3"
)

// Output formats.
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// cliActor is the identity the command reads the trail as.
const cliActor = "cli"

// Command creates the audit command.
func Command(settings *conf.Settings) *cobra.Command {
	var (
		entityID uint
		action   string
		limit    int
		offset   int
		format   string
	)

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Print the audit trail of notes",
		Long:  "Print audit entries newest first, optionally restricted to one note and one action.",
		RunE: func(cmd *cobra.Command, args []string) error {
			format = strings.ToLower(format)
			if format != FormatYAML && format != FormatJSON {
				return fmt.Errorf("unsupported format %q, use yaml or json", format)
			}

			q := notes.AuditQuery{
				Action: entities.AuditAction(strings.ToUpper(action)),
				Limit:  limit,
				Offset: offset,
			}
			if cmd.Flags().Changed("entity-id") {
				q.EntityID = &entityID
			}

			a, err := app.Open(cmd.Context(), settings)
			if err != nil {
				return err
			}
			defer a.Close()

			actor := cliActor
			page, err := a.Service.ListAudit(cmd.Context(), access.Identity{UserID: &actor, Role: access.RoleAdmin}, q)
			if err != nil {
				return err
			}
			return Render(cmd.OutOrStdout(), page, format)
		},
	}

	cmd.Flags().UintVar(&entityID, "entity-id", 0, "Only entries of this note id")
	cmd.Flags().StringVar(&action, "action", "", "Only entries with this action (CREATE, READ, UPDATE, DELETE, ERROR)")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of entries (1-100)")
	cmd.Flags().IntVar(&offset, "offset", 0, "Number of entries to skip")
	cmd.Flags().StringVarP(&format, "format", "f", FormatYAML, "Output format: yaml or json")

	return cmd
}

// entryView is the printed form of an audit entry.
type entryView struct {
	ID        uint           `yaml:"id" json:"id"`
	Timestamp string         `yaml:"timestamp" json:"timestamp"`
	Action    string         `yaml:"action" json:"action"`
	Entity    string         `yaml:"entity" json:"entity"`
	EntityID  *uint          `yaml:"entity_id" json:"entity_id"`
	UserID    *string        `yaml:"user_id" json:"user_id"`
	Reason    *string        `yaml:"reason,omitempty" json:"reason,omitempty"`
	Error     *string        `yaml:"error,omitempty" json:"error,omitempty"`
	Before    map[string]any `yaml:"before_state" json:"before_state"`
	After     map[string]any `yaml:"after_state" json:"after_state"`
}

// pageView is the printed form of a page of entries.
type pageView struct {
	Total   int64       `yaml:"total" json:"total"`
	Limit   int         `yaml:"limit" json:"limit"`
	Offset  int         `yaml:"offset" json:"offset"`
	Entries []entryView `yaml:"entries" json:"entries"`
}

// Render writes page to w in the given format.
func Render(w io.Writer, page *notes.AuditPage, format string) error {
	view := pageView{
		Total:   page.Total,
		Limit:   page.Limit,
		Offset:  page.Offset,
		Entries: make([]entryView, 0, len(page.Items)),
	}
	for i := range page.Items {
		e := &page.Items[i]
		view.Entries = append(view.Entries, entryView{
			ID:        e.ID,
			Timestamp: e.Timestamp.UTC().Format(time.RFC3339Nano),
			Action:    string(e.Action),
			Entity:    e.Entity,
			EntityID:  e.EntityID,
			UserID:    e.UserID,
			Reason:    e.Reason,
			Error:     e.Error,
			Before:    e.BeforeState,
			After:     e.AfterState,
		})
	}

	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	default:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(view); err != nil {
			return fmt.Errorf("failed to encode audit trail: %w", err)
		}
		return enc.Close()
	}
}
