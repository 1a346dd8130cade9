package notify

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// TemplateData holds what a transition notification template can see.
type TemplateData struct {
	Target     string
	Mode       string
	Previous   string
	Current    string
	Pass       int
	Total      int
	Failures   []string
	StatusIcon string
}

// DefaultTemplate is used when the config does not set one.
const DefaultTemplate = `{{ .StatusIcon }} {{ .Target }} ({{ .Mode }}): {{ .Previous }} -> {{ .Current }} [{{ .Pass }}/{{ .Total }} checks passing]`

// StatusIcon maps a status word to a marker for chat notifications.
func StatusIcon(status string) string {
	switch status {
	case "healthy":
		return "\U0001f7e2" // 🟢
	case "warning":
		return "\U0001f7e1" // 🟡
	case "unhealthy":
		return "\U0001f534" // 🔴
	default:
		return "\u2753" // ❓
	}
}

// Render executes a Go text/template string with Sprig functions.
func Render(tmplStr string, data TemplateData) (string, error) {
	if tmplStr == "" {
		tmplStr = DefaultTemplate
	}
	t, err := template.New("notify").Funcs(sprig.TxtFuncMap()).Parse(tmplStr)
	if err != nil {
		return "", fmt.Errorf("parsing template: %w", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing template: %w", err)
	}
	return buf.String(), nil
}
