package mailapi

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/r3-fresh/tickets-management-sub000/internal/notification"
)

const layout = `<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #222;">
  <p>{{ .Headline }}</p>
  <table cellpadding="4" style="border-collapse: collapse;">
    <tr><td><strong>Ticket</strong></td><td>#{{ .Ticket.Code }} {{ .Ticket.Title }}</td></tr>
    <tr><td><strong>Status</strong></td><td>{{ .Ticket.Status }}</td></tr>
    <tr><td><strong>Priority</strong></td><td>{{ .Ticket.Priority }}</td></tr>
    <tr><td><strong>Area</strong></td><td>{{ .Area }}</td></tr>
    {{- if .Category }}
    <tr><td><strong>Category</strong></td><td>{{ .Category }}</td></tr>
    {{- end }}
    {{- if .Campus }}
    <tr><td><strong>Campus</strong></td><td>{{ .Campus }}</td></tr>
    {{- end }}
    <tr><td><strong>Requested by</strong></td><td>{{ .Creator }}</td></tr>
    {{- if .Assignee }}
    <tr><td><strong>Assigned to</strong></td><td>{{ .Assignee }}</td></tr>
    {{- end }}
  </table>
  {{- if .Body }}
  <div style="margin-top: 12px;">{{ .Body }}</div>
  {{- end }}
  <p><a href="{{ .URL }}">Open ticket</a></p>
</body>
</html>`

type view struct {
	Headline string
	Ticket   struct{ Code, Title, Status, Priority string }
	Area     string
	Category string
	Campus   string
	Creator  string
	Assignee string
	Body     template.HTML
	URL      string
}

// Renderer turns a composed message into HTML and plain text bodies.
type Renderer struct {
	tmpl *template.Template
	md   goldmark.Markdown
}

// NewRenderer parses the layout. Raw HTML inside markdown is escaped.
func NewRenderer() *Renderer {
	return &Renderer{
		tmpl: template.Must(template.New("ticket").Parse(layout)),
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithHardWraps()),
		),
	}
}

// HTML renders the message body.
func (r *Renderer) HTML(msg notification.Message) (string, error) {
	snap := msg.Snapshot
	v := view{
		Headline: msg.Headline,
		Area:     snap.AttentionArea.Name,
		Creator:  snap.Creator.Name,
		URL:      msg.TicketURL,
	}
	v.Ticket.Code = snap.Ticket.Code
	v.Ticket.Title = snap.Ticket.Title
	v.Ticket.Status = string(snap.Ticket.Status)
	v.Ticket.Priority = string(snap.Ticket.Priority)
	if snap.Category != nil {
		v.Category = snap.Category.Name
		if snap.Subcategory != nil {
			v.Category += " / " + snap.Subcategory.Name
		}
	}
	if snap.Campus != nil {
		v.Campus = snap.Campus.Name
	}
	if snap.Assignee != nil {
		v.Assignee = snap.Assignee.Name
	}

	if strings.TrimSpace(msg.Body) != "" {
		var body bytes.Buffer
		if err := r.md.Convert([]byte(msg.Body), &body); err != nil {
			return "", fmt.Errorf("render markdown: %w", err)
		}
		// goldmark output is safe: unsafe raw HTML is disabled by default.
		v.Body = template.HTML(body.String())
	}

	var out bytes.Buffer
	if err := r.tmpl.Execute(&out, v); err != nil {
		return "", fmt.Errorf("render template: %w", err)
	}
	return out.String(), nil
}

// Text renders a plain text alternative.
func (r *Renderer) Text(msg notification.Message) string {
	var b strings.Builder
	b.WriteString(msg.Headline)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "#%s %s\n", msg.Snapshot.Ticket.Code, msg.Snapshot.Ticket.Title)
	if strings.TrimSpace(msg.Body) != "" {
		b.WriteString("\n")
		b.WriteString(msg.Body)
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\n%s\n", msg.TicketURL)
	return b.String()
}
