package output

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	dto "github.com/prometheus/client_model/go"
)

// ClassifySummary is one row of the classification table.
type ClassifySummary struct {
	Path      string
	Transpile bool
	ModuleID  string
	SkipsWrap bool
}

// EngineSummary contains data for the engine status table.
type EngineSummary struct {
	State   string // uninitialized, initializing, ready, disposed
	Builds  int64
	Bundles int64
	Timeout string
	Program string // artifact path
}

// Classifications prints which files are transpiled and under which module id.
func (p *Printer) Classifications(rows []ClassifySummary) {
	if len(rows) == 0 {
		return
	}

	p.Println()

	t := table.NewWriter()
	t.SetOutputMirror(p.out)
	t.SetStyle(p.tableStyle())

	t.AppendHeader(table.Row{"Path", "Transpile", "Module", "Wrap"})

	for _, r := range rows {
		transpile := "no"
		if r.Transpile {
			transpile = "yes"
		}
		wrap := "amd"
		if r.SkipsWrap {
			wrap = "skip"
		}
		if !r.Transpile {
			wrap = "-"
		}
		if p.isTTY {
			transpile = colorState(transpile)
		}
		t.AppendRow(table.Row{r.Path, transpile, r.ModuleID, wrap})
	}

	t.Render()
	p.Println()
}

// colorState applies color to state based on status.
func colorState(state string) string {
	var style lipgloss.Style
	switch state {
	case "ready", "yes", "ok":
		style = lipgloss.NewStyle().Foreground(ColorGreen)
	case "error", "init_error", "disposed":
		style = lipgloss.NewStyle().Foreground(ColorRed)
	case "initializing":
		style = lipgloss.NewStyle().Foreground(ColorAccent)
	case "uninitialized", "no":
		style = lipgloss.NewStyle().Foreground(ColorMuted)
	default:
		style = lipgloss.NewStyle().Foreground(ColorGray)
	}
	return style.Render(state)
}

// Engine prints the engine status table.
func (p *Printer) Engine(e EngineSummary) {
	p.Section("ENGINE")

	t := table.NewWriter()
	t.SetOutputMirror(p.out)
	t.SetStyle(p.tableStyle())

	state := e.State
	if p.isTTY {
		state = colorState(e.State)
	}

	t.AppendHeader(table.Row{"State", "Builds", "Bundles", "Timeout", "Program"})
	t.AppendRow(table.Row{state, e.Builds, e.Bundles, e.Timeout, e.Program})

	t.Render()
	p.Println()
}

// Metrics prints counters and histogram totals from gathered metric families.
func (p *Printer) Metrics(families []*dto.MetricFamily) {
	if len(families) == 0 {
		return
	}

	p.Section("METRICS")

	t := table.NewWriter()
	t.SetOutputMirror(p.out)
	t.SetStyle(p.tableStyle())

	t.AppendHeader(table.Row{"Metric", "Labels", "Value"})

	sorted := append([]*dto.MetricFamily(nil), families...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].GetName() < sorted[j].GetName() })

	for _, mf := range sorted {
		for _, m := range mf.GetMetric() {
			t.AppendRow(table.Row{mf.GetName(), formatLabels(m.GetLabel()), formatValue(mf.GetType(), m)})
		}
	}

	t.Render()
	p.Println()
}

func formatLabels(labels []*dto.LabelPair) string {
	parts := make([]string, 0, len(labels))
	for _, l := range labels {
		parts = append(parts, l.GetName()+"="+l.GetValue())
	}
	return strings.Join(parts, ",")
}

func formatValue(typ dto.MetricType, m *dto.Metric) string {
	switch typ {
	case dto.MetricType_COUNTER:
		return fmt.Sprintf("%g", m.GetCounter().GetValue())
	case dto.MetricType_GAUGE:
		return fmt.Sprintf("%g", m.GetGauge().GetValue())
	case dto.MetricType_HISTOGRAM:
		h := m.GetHistogram()
		return fmt.Sprintf("n=%d sum=%.3fs", h.GetSampleCount(), h.GetSampleSum())
	default:
		return "-"
	}
}

// tableStyle returns the table style shared by all status tables.
func (p *Printer) tableStyle() table.Style {
	style := table.StyleRounded
	if p.isTTY {
		style.Color.Header = text.Colors{text.FgHiYellow, text.Bold}
		style.Color.Border = text.Colors{text.FgHiBlack}
	}
	style.Options.SeparateRows = false
	return style
}

// Section prints a section header.
func (p *Printer) Section(title string) {
	if p.isTTY {
		style := lipgloss.NewStyle().Foreground(ColorAccent).Bold(true)
		p.Println(style.Render(title))
	} else {
		p.Println(title)
	}
}
