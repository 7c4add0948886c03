package delivery

import (
	"bytes"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
)

// BodyData is the input of both body renderers.
type BodyData struct {
	Links          []DownloadLink
	HasAttachments bool
}

const htmlBody = `<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; line-height: 1.5;">
<p>Hello,</p>
{{- if .HasAttachments}}
<p>Your files are attached to this email.</p>
{{- else if .Links}}
<p>Your files are ready to download:</p>
<ul>
{{- range .Links}}
<li>{{.Label}} &mdash; {{.Filename}}: <a href="{{.URL}}">{{.URL}}</a></li>
{{- end}}
</ul>
<p>These links expire after a limited time. If a link has expired, please request the files again.</p>
{{- end}}
<p>Thank you.</p>
</body>
</html>
`

const textBody = `Hello,
{{if .HasAttachments}}
Your files are attached to this email.
{{else if .Links}}
Your files are ready to download:
{{range .Links}}
{{.Label}} — {{.Filename}}: {{.URL}}
{{- end}}

These links expire after a limited time. If a link has expired, please request the files again.
{{end}}
Thank you.
`

var (
	htmlTemplate = htmltemplate.Must(htmltemplate.New("html").Parse(htmlBody))
	textTemplate = texttemplate.Must(texttemplate.New("text").Parse(textBody))
)

// RenderHTML renders the HTML body. Every interpolated value is escaped.
func RenderHTML(data BodyData) (string, error) {
	var buf bytes.Buffer
	if err := htmlTemplate.Execute(&buf, bodyView(data)); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderText renders the plain text body.
func RenderText(data BodyData) (string, error) {
	var buf strings.Builder
	if err := textTemplate.Execute(&buf, bodyView(data)); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// bodyView drops links when attaching so neither template can list them.
func bodyView(data BodyData) BodyData {
	if data.HasAttachments {
		return BodyData{HasAttachments: true}
	}
	return data
}
