// Package prompts holds the quiz generation prompt templates.
package prompts

import (
	"bytes"
	"embed"
	"fmt"
	"sync"
	"text/template"
)

//go:embed templates/*.txt
var templateFS embed.FS

// Variant selects the generation prompt language.
type Variant string

const (
	// VariantFR generates French quizzes (the product default).
	VariantFR Variant = "fr"
	// VariantEN generates English quizzes.
	VariantEN Variant = "en"
)

var validVariants = map[Variant]bool{
	VariantFR: true,
	VariantEN: true,
}

// IsValidVariant checks if a prompt variant name is valid.
func IsValidVariant(v string) bool {
	return validVariants[Variant(v)]
}

// GenData holds template data for the generation prompt.
type GenData struct {
	Source       string
	NumQuestions int
}

var (
	loadOnce  sync.Once
	loadErr   error
	templates map[Variant]*template.Template
)

func load() error {
	loadOnce.Do(func() {
		templates = make(map[Variant]*template.Template)
		for v := range validVariants {
			name := "templates/generate_" + string(v) + ".txt"
			content, err := templateFS.ReadFile(name)
			if err != nil {
				loadErr = fmt.Errorf("read prompt file %s: %w", name, err)
				return
			}
			tmpl, err := template.New(string(v)).Parse(string(content))
			if err != nil {
				loadErr = fmt.Errorf("parse prompt template %s: %w", name, err)
				return
			}
			templates[v] = tmpl
		}
	})
	return loadErr
}

// Generation renders the quiz generation prompt for the given variant.
func Generation(v Variant, data GenData) (string, error) {
	if err := load(); err != nil {
		return "", err
	}
	tmpl, ok := templates[v]
	if !ok {
		return "", fmt.Errorf("unknown prompt variant %q", v)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute prompt template: %w", err)
	}
	return buf.String(), nil
}
