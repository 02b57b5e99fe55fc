package logging

import (
	"embed"
	"fmt"
)

//go:embed templates/report.html.tmpl
var templateFS embed.FS

// htmlTemplateContent returns the embedded HTML report template.
func htmlTemplateContent() (string, error) {
	data, err := templateFS.ReadFile("templates/report.html.tmpl")
	if err != nil {
		return "", fmt.Errorf("failed to read embedded HTML template: %w", err)
	}
	return string(data), nil
}
