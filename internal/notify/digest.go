// Package notify delivers match digests to users by email.
package notify

import (
	"fmt"
	"html/template"
	"strings"

	"dealhound/internal/model"
)

// digestTemplate renders the matched deals as a simple HTML email.
var digestTemplate = template.Must(template.New("digest").Parse(`<html>
<body style="font-family: sans-serif; color: #222;">
	<h2>{{len .Matches}} deal{{if ne (len .Matches) 1}}s{{end}} matched your preferences</h2>
	{{range .Matches}}
	<div style="margin-bottom: 16px; padding: 12px; border: 1px solid #ddd; border-radius: 6px;">
		<strong>{{.Deal.Name}}</strong>
		{{if .Deal.Category}}<span style="color: #888;"> · {{.Deal.Category}}</span>{{end}}<br>
		{{if gt .Deal.SalePrice 0.0}}
		<span style="color: #0a7d36; font-weight: bold;">${{printf "%.2f" .Deal.SalePrice}}</span>
		{{if gt .Deal.RegularPrice .Deal.SalePrice}}
		<span style="text-decoration: line-through; color: #888;">${{printf "%.2f" .Deal.RegularPrice}}</span>
		{{end}}
		<br>
		{{end}}
		<em>{{.Explanation}}</em>
		<span style="color: #888;"> ({{.Confidence}}% confidence)</span>
		{{if .Deal.ProductURL}}<br><a href="{{.Deal.ProductURL}}">View deal</a>{{end}}
	</div>
	{{end}}
	<p style="color: #888; font-size: 12px;">
		Matched against your preferences: {{.PreferenceList}}
	</p>
</body>
</html>`))

type digestData struct {
	PreferenceList string
	Matches        []model.MatchResult
}

// BuildDigest renders the digest subject and HTML body for one user's matches.
func BuildDigest(matches []model.MatchResult, preferences []string) (subject, html string, err error) {
	subject = fmt.Sprintf("%d deals match your grocery preferences", len(matches))
	if len(matches) == 1 {
		subject = "1 deal matches your grocery preferences"
	}

	var buf strings.Builder
	data := digestData{
		Matches:        matches,
		PreferenceList: strings.Join(preferences, ", "),
	}
	if err := digestTemplate.Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("failed to render digest: %w", err)
	}
	return subject, buf.String(), nil
}
