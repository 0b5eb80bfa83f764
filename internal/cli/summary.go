package cli

import (
	"fmt"
	"strings"

	"dealhound/internal/engine"
	"dealhound/internal/model"
)

// RenderRunSummary formats one user's matching run for terminal display.
func RenderRunSummary(summary *engine.RunSummary) string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render(fmt.Sprintf("Matches for %s", summary.UserID)))
	b.WriteString("\n")

	source := "fresh extraction"
	if summary.CacheHit {
		source = "cached snapshot"
	}
	b.WriteString(SubtleStyle.Render(fmt.Sprintf(
		"%d deals from %s (snapshot %d)", summary.TotalDeals, source, summary.SnapshotID)))
	b.WriteString("\n\n")

	if len(summary.Matches) == 0 {
		b.WriteString(WarningStyle.Render("No deals matched this user's preferences."))
		b.WriteString("\n")
		return b.String()
	}

	for _, match := range summary.Matches {
		b.WriteString(BoxStyle.Render(renderMatch(match)))
		b.WriteString("\n")
	}

	status := fmt.Sprintf("%d match", len(summary.Matches))
	if len(summary.Matches) != 1 {
		status += "es"
	}
	if summary.Notified {
		status += ", digest sent"
	}
	b.WriteString(SuccessStyle.Render(status))
	b.WriteString("\n")
	return b.String()
}

func renderMatch(match model.MatchResult) string {
	var b strings.Builder

	b.WriteString(BoldStyle.Render(match.Deal.Name))
	if match.Deal.Category != "" {
		b.WriteString(SubtleStyle.Render(" · " + match.Deal.Category))
	}
	b.WriteString("\n")

	if match.Deal.SalePrice > 0 {
		b.WriteString(PriceStyle.Render(fmt.Sprintf("$%.2f", match.Deal.SalePrice)))
		if match.Deal.RegularPrice > match.Deal.SalePrice {
			b.WriteString(" ")
			b.WriteString(StrikeStyle.Render(fmt.Sprintf("$%.2f", match.Deal.RegularPrice)))
		}
		b.WriteString("\n")
	}

	b.WriteString(match.Explanation)
	b.WriteString(SubtleStyle.Render(fmt.Sprintf(" (%d%%)", match.Confidence)))
	return b.String()
}
