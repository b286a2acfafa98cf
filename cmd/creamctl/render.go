package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/miko-factory/creamdash/internal/dashboard"
	"github.com/miko-factory/creamdash/internal/domain"
	"github.com/miko-factory/creamdash/internal/enrichment"
	"github.com/miko-factory/creamdash/internal/timeline"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	mutedStyle  = lipgloss.NewStyle().Faint(true)

	statusColors = map[domain.Status]lipgloss.Color{
		domain.StatusCompleted:  lipgloss.Color("42"),
		domain.StatusProcessing: lipgloss.Color("214"),
		domain.StatusPending:    lipgloss.Color("245"),
		domain.StatusFailed:     lipgloss.Color("196"),
	}
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func statusText(s domain.Status) string {
	if c, ok := statusColors[s]; ok {
		return lipgloss.NewStyle().Foreground(c).Render(string(s))
	}
	return string(s)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeEmpty(w io.Writer, message, hint string) {
	fmt.Fprintln(w, message)
	if hint != "" {
		fmt.Fprintln(w, mutedStyle.Render(hint))
	}
}

func renderTokens(w io.Writer, s *dashboard.Snapshot) {
	if len(s.Tokens) == 0 {
		writeEmpty(w, timeline.EmptyMessageNoTokens, timeline.EmptyHintNoTokens)
		return
	}

	t := newTable("Mint", "Name", "Collection", "Created")
	for _, tok := range s.Tokens {
		key, _ := tok.CollectionKey()
		t.Row(tok.ShortMint(), tok.Name, key, tok.CreatedAt.UTC().Format("2006-01-02 15:04"))
	}
	fmt.Fprintln(w, t.Render())
	fmt.Fprintf(w, "%d tokens, %d with collections, %d without\n",
		s.Stats.TotalTokens, s.Stats.WithCollections, s.Stats.WithoutCollections)
}

func renderBatches(w io.Writer, batches []enrichment.Batch, message, hint string) {
	if len(batches) == 0 {
		if message == "" {
			message = "No batches found"
		}
		writeEmpty(w, message, hint)
		return
	}

	t := newTable("Name", "Product", "Status", "Start", "Quantity", "Mint")
	for _, b := range batches {
		t.Row(b.Name, b.Product, statusText(b.Status), b.StartDate, b.Quantity, b.Token.ShortMint())
	}
	fmt.Fprintln(w, t.Render())
}

func renderTimeline(w io.Writer, view dashboard.TimelineView) {
	if len(view.Batches) == 0 {
		writeEmpty(w, view.Message, view.Hint)
		return
	}

	headers := []string{"Batch", "Product", "Status"}
	for _, spec := range timeline.Stations {
		headers = append(headers, spec.DisplayName)
	}
	t := newTable(headers...)
	for _, b := range view.Batches {
		row := []string{b.ID, b.Product, statusText(b.Status)}
		for _, spec := range timeline.Stations {
			var st timeline.Station
			if len(b.Lines) > 0 {
				st = b.Lines[0].Stations[spec.Name]
			}
			row = append(row, strconv.Itoa(st.Completed)+"/"+strconv.Itoa(st.Total))
		}
		t.Row(row...)
	}
	fmt.Fprintln(w, t.Render())
	fmt.Fprintf(w, "%d batches from %d tokens\n", view.Stats.Batches, view.Stats.WithCollections)
}

func renderUnit(w io.Writer, unit *timeline.UnitDetail) {
	fmt.Fprintf(w, "%s  %s #%d\n", unit.BatchID, unit.Station, unit.SquareIndex+1)

	t := newTable("Parameter", "Value", "Status")
	for _, m := range unit.Data {
		value := m.Value
		if m.Placeholder {
			value = mutedStyle.Render(value + " *")
		}
		t.Row(m.Parameter, value, m.Status)
	}
	fmt.Fprintln(w, t.Render())
	fmt.Fprintln(w, mutedStyle.Render("* illustrative value"))
}
