package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"gswitch.dev/cli/internal/core/domain"
)

var (
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	skipStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	labelStyle = lipgloss.NewStyle().Bold(true)
)

// renderStage formats one stage outcome as a single progress line.
func renderStage(o domain.StageOutcome) string {
	var mark string
	switch o.Status {
	case domain.StageCompleted:
		mark = okStyle.Render("✓")
	case domain.StageSkipped:
		mark = skipStyle.Render("-")
	case domain.StageFailed:
		mark = failStyle.Render("✗")
	default:
		mark = skipStyle.Render("·")
	}
	line := fmt.Sprintf("%s %s", mark, o.Stage)
	if o.Detail != "" {
		line += skipStyle.Render("  " + o.Detail)
	}
	return line
}

// renderResult summarizes a finished apply.
func renderResult(r *domain.ApplyResult) string {
	var b strings.Builder

	if r.Applied() {
		b.WriteString(okStyle.Render("applied") + " " + labelStyle.Render(r.Profile))
		b.WriteString(fmt.Sprintf(" (config %s, %s scope)", r.ConfigID, r.Scope))
	} else {
		b.WriteString(failStyle.Render("not applied") + " " + labelStyle.Render(r.Profile))
		if stage, ok := r.LastCompleted(); ok {
			b.WriteString(fmt.Sprintf(" (last completed stage: %s)", stage))
		}
	}

	if !r.Project.IsZero() {
		b.WriteString("\nproject: " + r.Project.String())
	}
	if r.Purge != nil {
		b.WriteString("\n" + renderPurgeReport(r.Purge))
	}
	if r.Propagation.Hint != "" {
		b.WriteString("\n" + skipStyle.Render(r.Propagation.Hint))
	}
	return b.String()
}

// renderPurgeReport formats a purge report, one target per line.
func renderPurgeReport(report *domain.PurgeReport) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s purge of %s: %d removed", report.Mode, report.ConfigID, report.Removed()))
	for _, t := range report.Targets {
		var mark string
		switch t.State {
		case domain.TargetRemoved:
			mark = okStyle.Render("✓")
		case domain.TargetAbsent:
			mark = skipStyle.Render("-")
		default:
			mark = failStyle.Render("✗")
		}
		b.WriteString(fmt.Sprintf("\n  %s %s", mark, t.Path))
		if t.Detail != "" {
			b.WriteString(skipStyle.Render("  " + t.Detail))
		}
	}
	return b.String()
}

// redact hides a secret value while leaving enough to recognize it.
// Operates on runes so multibyte values are never cut mid-character.
func redact(v string) string {
	if v == "" {
		return ""
	}
	runes := []rune(v)
	if len(runes) <= 8 {
		return "****"
	}
	return string(runes[:4]) + "…" + string(runes[len(runes)-2:])
}
