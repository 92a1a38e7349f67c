package mail

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var (
	htmlTemplates = htmltemplate.Must(htmltemplate.ParseFS(templateFS, "templates/*.html.tmpl"))
	textTemplates = texttemplate.Must(texttemplate.ParseFS(templateFS, "templates/*.txt.tmpl"))
)

const (
	templateVerification  = "verification_code"
	templatePasswordReset = "reset_password"
)

// templateData is what every template renders from.
type templateData struct {
	FirstName string
	Subject   string
	URL       string
	Product   string
}

type rendered struct {
	Subject string
	Text    string
	HTML    string
}

func render(name string, data templateData) (rendered, error) {
	var text, html bytes.Buffer
	if err := textTemplates.ExecuteTemplate(&text, name+".txt.tmpl", data); err != nil {
		return rendered{}, fmt.Errorf("mail: render %s text: %w", name, err)
	}
	if err := htmlTemplates.ExecuteTemplate(&html, name+".html.tmpl", data); err != nil {
		return rendered{}, fmt.Errorf("mail: render %s html: %w", name, err)
	}
	return rendered{Subject: data.Subject, Text: text.String(), HTML: html.String()}, nil
}
