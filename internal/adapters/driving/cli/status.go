package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/slack2rag/internal/app"
	"github.com/custodia-labs/slack2rag/internal/core/domain"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show per-channel sync cursors and index size",
	Long: `Lists the stored cursor of every synced channel and the number of
documents in the vector store. The index size is reported as unknown when
Qdrant cannot be reached.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "print status as JSON")
	rootCmd.AddCommand(statusCmd)
}

type statusCursorJSON struct {
	ChannelID string `json:"channel_id"`
	TS        string `json:"ts"`
	Date      string `json:"date"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

type statusJSONDocument struct {
	Collection   string             `json:"collection"`
	TotalIndexed int                `json:"total_indexed"`
	Cursors      []statusCursorJSON `json:"cursors"`
}

func runStatus(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	svcs, err := build(ctx, cfg, log, app.ScopeStatus)
	if err != nil {
		return err
	}
	defer svcs.Close()

	st, err := svcs.Status.Status(ctx)
	if err != nil {
		return err
	}

	if statusJSON {
		return writeStatusJSON(cmd.OutOrStdout(), cfg.Qdrant.Collection, st)
	}
	printStatus(cmd.OutOrStdout(), paletteFor(cmd.OutOrStdout()), cfg.Qdrant.Collection, st)
	return nil
}

func writeStatusJSON(w io.Writer, collection string, st *domain.Status) error {
	doc := statusJSONDocument{
		Collection:   collection,
		TotalIndexed: st.TotalIndexed,
		Cursors:      make([]statusCursorJSON, 0, len(st.Cursors)),
	}
	for _, c := range st.Cursors {
		doc.Cursors = append(doc.Cursors, statusCursorJSON{
			ChannelID: c.ChannelID,
			TS:        c.TS,
			Date:      domain.DateFromTS(c.TS),
			UpdatedAt: formatUpdated(c.UpdatedAt, time.RFC3339),
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func printStatus(w io.Writer, p palette, collection string, st *domain.Status) {
	total := p.warn.Render("unknown (Qdrant unreachable)")
	if st.TotalIndexed >= 0 {
		total = formatCount(st.TotalIndexed)
	}
	fmt.Fprintf(w, "Collection: %s\n", p.heading.Render(collection))
	fmt.Fprintf(w, "Indexed:    %s\n\n", total)

	if len(st.Cursors) == 0 {
		fmt.Fprintln(w, "No channels synced yet.")
		return
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("CHANNEL", "LAST TS", "DATE", "UPDATED")
	for _, c := range st.Cursors {
		t.Row(c.ChannelID, c.TS, domain.DateFromTS(c.TS), formatUpdated(c.UpdatedAt, time.DateTime))
	}
	fmt.Fprintln(w, t.String())
}

func formatUpdated(t time.Time, layout string) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(layout)
}
