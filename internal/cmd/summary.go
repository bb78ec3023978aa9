package cmd

import (
	"fmt"
	"io"
	"sort"

	"github.com/charmbracelet/lipgloss"

	"github.com/AndresProano/CleaningDataIt/internal/aggregator"
	"github.com/AndresProano/CleaningDataIt/internal/extract"
	"github.com/AndresProano/CleaningDataIt/internal/model"
)

var (
	styleTitle = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	styleLabel = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	styleOK    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	styleWarn  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
)

// printFiles lists the per-file counters of a batch run.
func printFiles(w io.Writer, summaries []extract.Summary) {
	for _, s := range summaries {
		line := fmt.Sprintf("   • %s: %d found, %d emitted", s.Path, s.Found, s.Emitted)
		if s.Truncated > 0 {
			line += styleWarn.Render(fmt.Sprintf(", %d truncated", s.Truncated))
		}
		fmt.Fprintln(w, line)
	}
}

// printSummary writes the run statistics: record counts, populated fields,
// valid dates and classification counts.
func printSummary(w io.Writer, s aggregator.Stats, outputs []string) {
	fmt.Fprintln(w)
	for _, p := range outputs {
		fmt.Fprintf(w, "%s %s\n", styleOK.Render("✔ written"), p)
	}

	fmt.Fprintf(w, "\n%s\n", styleTitle.Render("Records"))
	fmt.Fprintf(w, "   %s %d\n", styleLabel.Render("found:    "), s.Found)
	fmt.Fprintf(w, "   %s %d\n", styleLabel.Render("emitted:  "), s.Emitted)
	if s.Missing() > 0 {
		fmt.Fprintf(w, "   %s %s\n", styleLabel.Render("missing:  "),
			styleWarn.Render(fmt.Sprintf("%d (%d truncated at end of input)", s.Missing(), s.Truncated)))
	}
	if s.Warnings > 0 {
		fmt.Fprintf(w, "   %s %s\n", styleLabel.Render("warnings: "), styleWarn.Render(fmt.Sprint(s.Warnings)))
	}
	if s.Emitted == 0 {
		return
	}

	fmt.Fprintf(w, "\n%s\n", styleTitle.Render("Populated fields"))
	for f := model.Field(0); f < model.NumFields; f++ {
		if f == model.FieldStage {
			continue
		}
		printRatio(w, f.Header(), s.Populated[f.String()], s.Emitted)
	}
	printRatio(w, "Valid dates", s.ValidDates, s.Emitted)

	printCounts(w, "Title classification", s.TitleClasses)
	printCounts(w, "Source classification", s.SourceClasses)
}

func printRatio(w io.Writer, label string, n, total int64) {
	fmt.Fprintf(w, "   %s %5d/%d (%5.1f%%)\n",
		styleLabel.Render(fmt.Sprintf("%-16s", label)), n, total, 100*float64(n)/float64(total))
}

// printCounts prints a class histogram, largest first.
func printCounts(w io.Writer, title string, counts map[string]int64) {
	if len(counts) == 0 {
		return
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})

	fmt.Fprintf(w, "\n%s\n", styleTitle.Render(title))
	for _, k := range keys {
		fmt.Fprintf(w, "   %s %d\n", styleLabel.Render(fmt.Sprintf("%-20s", k)), counts[k])
	}
}
