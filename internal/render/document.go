package render

import (
	"fmt"
	"html/template"
	"io"

	"github.com/yegors/co-wx/internal/locale"
	"github.com/yegors/co-wx/internal/session"
)

var documentTemplate = template.Must(template.New("document").Parse(`<!DOCTYPE html>
<html lang="{{.Lang}}">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
{{- if .Assets}}
<link rel="stylesheet" href="/styles/style.css">
{{- end}}
</head>
<body>
<main id="app" data-socket="{{.SocketPath}}">{{.Body}}</main>
{{- if .Assets}}
<script src="/scripts/app.js" defer></script>
{{- end}}
</body>
</html>
`))

// DocumentOptions controls the page shell around the display tree
type DocumentOptions struct {
	Title      string
	SocketPath string
	Assets     bool // link stylesheet and script from the static directory
}

// Document writes a complete HTML page for the state
func Document(w io.Writer, s session.State, loc *locale.Locale, opts DocumentOptions) error {
	if loc == nil {
		loc = locale.DefaultLocale()
	}
	body, err := Markup(Page(s, loc))
	if err != nil {
		return fmt.Errorf("failed to render page: %w", err)
	}

	title := opts.Title
	if title == "" {
		title = CityLabel(s, loc)
	}

	return documentTemplate.Execute(w, struct {
		Lang       string
		Title      string
		SocketPath string
		Assets     bool
		Body       template.HTML
	}{
		Lang:       loc.Language(),
		Title:      title,
		SocketPath: opts.SocketPath,
		Assets:     opts.Assets,
		Body:       body,
	})
}
