package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/x/ansi"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/slack2rag/internal/app"
	"github.com/custodia-labs/slack2rag/internal/core/domain"
)

const (
	wrapWidth = 90
	barWidth  = 20
)

var (
	searchLimit    int
	searchChannel  string
	searchDateFrom string
	searchDateTo   string
	searchNoScore  bool
	searchJSON     bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>...",
	Short: "Semantic search over indexed Slack messages",
	Long: `Embeds the query with the configured model and returns the closest
indexed messages and threads.

Results can be narrowed to one channel (by name or ID) and to an inclusive
date range. All query arguments are joined with spaces.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", domain.DefaultSearchLimit, "maximum number of results")
	searchCmd.Flags().StringVarP(&searchChannel, "channel", "c", "", "restrict to a channel name or ID")
	searchCmd.Flags().StringVar(&searchDateFrom, "date-from", "", "earliest date, inclusive (YYYY-MM-DD)")
	searchCmd.Flags().StringVar(&searchDateTo, "date-to", "", "latest date, inclusive (YYYY-MM-DD)")
	searchCmd.Flags().BoolVar(&searchNoScore, "no-score", false, "hide similarity scores")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "print results as JSON")
	rootCmd.AddCommand(searchCmd)
}

type searchResultJSON struct {
	Text        string  `json:"text"`
	ChannelID   string  `json:"channel_id"`
	ChannelName string  `json:"channel_name"`
	Date        string  `json:"date"`
	User        string  `json:"user"`
	TS          string  `json:"ts"`
	ThreadTS    string  `json:"thread_ts"`
	ReplyCount  int     `json:"reply_count"`
	Score       float64 `json:"score"`
}

type searchJSONDocument struct {
	Query        string             `json:"query"`
	TotalIndexed int                `json:"total_indexed"`
	Results      []searchResultJSON `json:"results"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.TrimSpace(strings.Join(args, " "))
	if query == "" {
		return fmt.Errorf("empty query: %w", domain.ErrInvalidInput)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	svcs, err := build(ctx, cfg, log, app.ScopeSearch)
	if err != nil {
		return err
	}
	defer svcs.Close()

	opts := domain.SearchOptions{
		Limit:    searchLimit,
		Channel:  searchChannel,
		DateFrom: searchDateFrom,
		DateTo:   searchDateTo,
	}
	hits, err := svcs.Search.Search(ctx, query, opts)
	if err != nil {
		return err
	}

	total := -1
	if svcs.Status != nil {
		if st, err := svcs.Status.Status(ctx); err == nil {
			total = st.TotalIndexed
		} else {
			log.Debug("could not read index size", "error", err)
		}
	}

	if searchJSON {
		return writeSearchJSON(cmd.OutOrStdout(), query, hits, total)
	}
	printSearchResults(cmd.OutOrStdout(), paletteFor(cmd.OutOrStdout()), query, hits, total, !searchNoScore)
	return nil
}

func writeSearchJSON(w io.Writer, query string, hits []domain.SearchHit, total int) error {
	doc := searchJSONDocument{Query: query, TotalIndexed: total, Results: make([]searchResultJSON, 0, len(hits))}
	for _, h := range hits {
		d := h.Document
		doc.Results = append(doc.Results, searchResultJSON{
			Text:        d.Text,
			ChannelID:   d.ChannelID,
			ChannelName: d.ChannelName,
			Date:        d.Date,
			User:        d.UserName,
			TS:          d.TS,
			ThreadTS:    d.ThreadTS,
			ReplyCount:  d.ReplyCount,
			Score:       h.Score,
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func printSearchResults(w io.Writer, p palette, query string, hits []domain.SearchHit, total int, showScore bool) {
	fmt.Fprintf(w, "Searching for: %q\n\n", query)
	if len(hits) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}

	for i, h := range hits {
		header := resultHeader(i+1, h.Document)
		line := p.heading.Render(header)
		if showScore {
			line += "  " + p.bar.Render(scoreBar(h.Score)) + "  " + fmt.Sprintf("%.3f", h.Score)
		}
		fmt.Fprintln(w, line)
		fmt.Fprintln(w, p.muted.Render(strings.Repeat("─", utf8.RuneCountInString(header))))
		fmt.Fprintln(w, indent(ansi.Wordwrap(h.Document.Text, wrapWidth, ""), "  "))
		fmt.Fprintln(w)
	}

	if total >= 0 {
		fmt.Fprintln(w, p.muted.Render(fmt.Sprintf("Top %d of %s indexed messages", len(hits), formatCount(total))))
	}
}

func resultHeader(rank int, d domain.Document) string {
	user := d.UserName
	if user == "" {
		user = d.UserID
	}
	header := fmt.Sprintf("#%d  #%s  %s  @%s", rank, d.ChannelName, d.Date, user)
	switch {
	case d.ReplyCount == 1:
		header += "  [1 reply]"
	case d.ReplyCount > 1:
		header += fmt.Sprintf("  [%d replies]", d.ReplyCount)
	}
	return header
}

// scoreBar renders score in [0,1] as a fixed-width bar.
func scoreBar(score float64) string {
	filled := int(score*barWidth + 0.5)
	filled = max(0, min(barWidth, filled))
	return strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
}

func indent(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = prefix + l
		}
	}
	return strings.Join(lines, "\n")
}
