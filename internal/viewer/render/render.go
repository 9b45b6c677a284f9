// Package render строит HTML-страницу из коллекции заметок.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"notesync/internal/viewer/model"
	"notesync/pkg/naming"
)

const (
	untitled  = "Untitled"
	noContent = "No content available"
	unknown   = "Unknown time"
)

var embedPattern = regexp.MustCompile(`!\[\[(.*?)\]\]`)

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>My Notes</title>
<style>
body { font-family: sans-serif; padding: 20px; }
.note { border: 1px solid #ddd; border-radius: 5px; padding: 15px; margin: 10px 0; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
.note img { max-width: 100%; margin-top: 10px; }
.content { color: #555; padding-bottom: 30px; }
.time { font-size: 12px; color: #888; padding-top: 30px; }
</style>
</head>
<body>
<h1>My Notes</h1>
{{- if not .Notes}}
<p>No notes found.</p>
{{- end}}
{{- range .Notes}}
<div class="note" id="note-{{.ID}}">
<h3>{{.Title}}</h3>
<div class="content">{{.Body}}</div>
<p class="time">{{.When}}</p>
</div>
{{- end}}
</body>
</html>
`))

type pageNote struct {
	ID    string
	Title string
	Body  template.HTML
	When  string
}

// Renderer превращает коллекцию заметок в HTML.
type Renderer struct {
	imagesURL string
	markdown  goldmark.Markdown
	now       func() time.Time
}

// New создает Renderer. Встроенные изображения ссылаются на imagesURL/<очищенное имя>.
func New(imagesURL string) *Renderer {
	return &Renderer{
		imagesURL: strings.TrimRight(imagesURL, "/"),
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithHardWraps()),
		),
		now: time.Now,
	}
}

// WithClock подменяет источник текущего времени для относительных отметок.
func (r *Renderer) WithClock(now func() time.Time) *Renderer {
	r.now = now
	return r
}

// Render записывает в w страницу со всеми заметками снимка.
func (r *Renderer) Render(w io.Writer, snapshot model.Snapshot) error {
	now := r.now()

	notes := make([]pageNote, 0, len(snapshot))
	for _, n := range snapshot {
		body, err := r.Body(n.Content)
		if err != nil {
			return fmt.Errorf("render note %q: %w", n.Name, err)
		}

		title := naming.Title(n.Name)
		if title == "" {
			title = untitled
		}

		when := unknown
		if ts := n.Timestamp(); !ts.IsZero() {
			when = Relative(ts, now)
		}

		notes = append(notes, pageNote{ID: n.ID, Title: title, Body: body, When: when})
	}

	if err := pageTemplate.Execute(w, struct{ Notes []pageNote }{Notes: notes}); err != nil {
		return fmt.Errorf("render page: %w", err)
	}
	return nil
}

// Body переводит текст заметки в HTML. Ссылки ![[ref]] становятся изображениями
// с адресом <imagesURL>/<Sanitize(Base(ref))>, под которым изображение хранится на сервере.
func (r *Renderer) Body(content string) (template.HTML, error) {
	if content == "" {
		content = noContent
	}

	source := embedPattern.ReplaceAllStringFunc(content, func(match string) string {
		ref := strings.TrimSpace(embedPattern.FindStringSubmatch(match)[1])
		if i := strings.IndexByte(ref, '|'); i >= 0 {
			ref = strings.TrimSpace(ref[:i])
		}
		name := naming.Sanitize(naming.Base(ref))
		return fmt.Sprintf("![%s](<%s/%s>)", name, r.imagesURL, name)
	})

	var buf bytes.Buffer
	if err := r.markdown.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("markdown convert: %w", err)
	}
	//nolint:gosec // вывод goldmark без WithUnsafe не содержит сырого HTML
	return template.HTML(buf.String()), nil
}

// Relative форматирует момент t относительно now: "5 minutes ago", "in 2 hours".
func Relative(t, now time.Time) string {
	d := now.Sub(t)
	future := d < 0
	if future {
		d = -d
	}

	var phrase string
	switch {
	case d < 45*time.Second:
		phrase = "a few seconds"
	case d < 90*time.Second:
		phrase = "a minute"
	case d < 45*time.Minute:
		phrase = plural(int((d+30*time.Second)/time.Minute), "minute")
	case d < 90*time.Minute:
		phrase = "an hour"
	case d < 22*time.Hour:
		phrase = plural(int((d+30*time.Minute)/time.Hour), "hour")
	case d < 36*time.Hour:
		phrase = "a day"
	case d < 26*24*time.Hour:
		phrase = plural(int((d+12*time.Hour)/(24*time.Hour)), "day")
	case d < 45*24*time.Hour:
		phrase = "a month"
	case d < 320*24*time.Hour:
		phrase = plural(int((d+15*24*time.Hour)/(30*24*time.Hour)), "month")
	case d < 548*24*time.Hour:
		phrase = "a year"
	default:
		phrase = plural(int((d+182*24*time.Hour)/(365*24*time.Hour)), "year")
	}

	if future {
		return "in " + phrase
	}
	return phrase + " ago"
}

func plural(n int, unit string) string {
	return fmt.Sprintf("%d %ss", n, unit)
}
