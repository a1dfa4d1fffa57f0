// Package report renders analysis results for the terminal.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/TofaJede/songscope/internal/types"
)

const barWidth = 24

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	headStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	barStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("13"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Render formats one analysis result as a styled multi-section report.
func Render(path string, res *types.AnalysisResult) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(path))
	b.WriteString("\n\n")

	writeRow(&b, "Duration", fmt.Sprintf("%.2f s", res.Duration))
	if res.Tempo > 0 {
		writeRow(&b, "Tempo", fmt.Sprintf("%.1f BPM", res.Tempo))
	} else {
		writeRow(&b, "Tempo", dimStyle.Render("none detected"))
	}
	writeRow(&b, "Dynamic range", fmt.Sprintf("%.1f dB", res.DynamicRange))
	b.WriteString("\n")

	b.WriteString(headStyle.Render("Band energy"))
	b.WriteString("\n")
	writeBands(&b, res.BandEnergy)
	b.WriteString("\n")

	b.WriteString(headStyle.Render("Key distribution"))
	b.WriteString("\n")
	writeKeyDistribution(&b, res.KeyDistribution)
	b.WriteString("\n")

	b.WriteString(headStyle.Render("Top notes"))
	b.WriteString("\n")
	writeTopNotes(&b, res.TopNotes)

	return b.String()
}

func writeRow(b *strings.Builder, label, value string) {
	fmt.Fprintf(b, "%s %s\n", labelStyle.Render(fmt.Sprintf("%-14s", label)), valueStyle.Render(value))
}

// writeBands prints the three bands in low/mid/high order, normalized to
// their combined power so the bars show relative balance.
func writeBands(b *strings.Builder, bands map[string]float64) {
	total := bands[types.BandLow] + bands[types.BandMid] + bands[types.BandHigh]
	for _, name := range []string{types.BandLow, types.BandMid, types.BandHigh} {
		frac := 0.0
		if total > 0 {
			frac = bands[name] / total
		}
		fmt.Fprintf(b, "  %s %s %s\n",
			labelStyle.Render(fmt.Sprintf("%-5s", name)),
			barStyle.Render(bar(frac)),
			dimStyle.Render(fmt.Sprintf("%5.1f%%", frac*100)))
	}
}

func writeKeyDistribution(b *strings.Builder, dist types.PitchClassDistribution) {
	// Strongest classes first; the full 12-row dump buries the signal.
	type classWeight struct {
		idx    int
		weight float64
	}
	classes := make([]classWeight, 0, 12)
	for i, w := range dist {
		classes = append(classes, classWeight{i, w})
	}
	sort.SliceStable(classes, func(i, j int) bool { return classes[i].weight > classes[j].weight })

	shown := 0
	for _, c := range classes {
		if c.weight == 0 || shown == 6 {
			break
		}
		fmt.Fprintf(b, "  %s %s %s\n",
			labelStyle.Render(fmt.Sprintf("%-2s", types.PitchClassNames[c.idx])),
			barStyle.Render(bar(c.weight)),
			dimStyle.Render(fmt.Sprintf("%5.1f%%", c.weight*100)))
		shown++
	}
	if shown == 0 {
		fmt.Fprintf(b, "  %s\n", dimStyle.Render("no chroma energy"))
	}
}

func writeTopNotes(b *strings.Builder, notes []types.NoteCount) {
	if len(notes) == 0 {
		fmt.Fprintf(b, "  %s\n", dimStyle.Render("no voiced frames"))
		return
	}
	for i, n := range notes {
		fmt.Fprintf(b, "  %s %s %s\n",
			dimStyle.Render(fmt.Sprintf("%2d.", i+1)),
			valueStyle.Render(fmt.Sprintf("%-4s", n.Label)),
			labelStyle.Render(fmt.Sprintf("%d frames", n.Count)))
	}
}

// bar renders a fraction in [0,1] as a fixed-width block bar.
func bar(frac float64) string {
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	filled := int(frac*float64(barWidth) + 0.5)
	return strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
}
