package template

import (
	"bytes"
	"fmt"
	"strings"
	texttmpl "text/template"
)

// TemplateService renders channel-specific message bodies. Templates are
// compiled once at construction; the emergency-contact texts deliberately
// never interpolate the user's original alert content.
type TemplateService struct {
	templates map[string]*texttmpl.Template // "<channel>/<kind>" -> template
}

var sources = map[string]string{
	"sms/emergency_contact": "This is the MindHaven support line. {{.UserName}} may need support right now. " +
		"Please check on your loved one when you can. If you believe they are in immediate danger, " +
		"call {{.Hotline}} or local emergency services.",

	"email/emergency_contact": "Hello {{.ContactName}},\n\n" +
		"You are listed as an emergency contact{{if .Relationship}} ({{.Relationship}}){{end}} for {{.UserName}}. " +
		"Our monitoring suggests they may need support right now.\n\n" +
		"Please reach out and check on your loved one when you can. " +
		"If you believe they are in immediate danger, call {{.Hotline}} or local emergency services.\n\n" +
		"- The MindHaven care team",

	"email/alert": "{{.Title}}\n\n{{.Message}}\n{{range .Actions}}\n* {{.Label}}{{if .Target}}: {{.Target}}{{end}}{{end}}\n",
}

func NewTemplateService() *TemplateService {
	ts := &TemplateService{templates: make(map[string]*texttmpl.Template, len(sources))}
	for name, src := range sources {
		ts.templates[name] = texttmpl.Must(texttmpl.New(name).Parse(src))
	}
	return ts
}

// Render executes the template for the given channel and kind.
func (t *TemplateService) Render(channel, kind string, data any) (string, error) {
	name := channel + "/" + strings.ToLower(kind)
	tmpl, ok := t.templates[name]
	if !ok {
		return "", fmt.Errorf("no template for %s", name)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute %s template: %w", name, err)
	}
	return buf.String(), nil
}
