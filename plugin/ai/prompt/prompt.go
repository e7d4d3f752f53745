// Package prompt loads keyed prompt templates from embedded YAML files.
// Each file maps prompt names to template text; templates use {key}
// placeholders substituted at load time.
package prompt

import (
	"embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed templates/*.yaml
var templates embed.FS

// Load returns the named prompt from the given template file, with every
// {key} placeholder replaced by the corresponding value.
func Load(file, name string, vars map[string]string) (string, error) {
	data, err := templates.ReadFile("templates/" + file)
	if err != nil {
		return "", fmt.Errorf("failed to read prompt file %s: %w", file, err)
	}

	prompts := map[string]string{}
	if err := yaml.Unmarshal(data, &prompts); err != nil {
		return "", fmt.Errorf("failed to parse prompt file %s: %w", file, err)
	}

	text, ok := prompts[name]
	if !ok {
		return "", fmt.Errorf("prompt %q not found in %s", name, file)
	}

	for key, value := range vars {
		text = strings.ReplaceAll(text, "{"+key+"}", value)
	}
	return text, nil
}

// MustLoad is Load for prompts known to exist at compile time; it panics on
// failure, which only happens when an embedded template is broken.
func MustLoad(file, name string, vars map[string]string) string {
	text, err := Load(file, name, vars)
	if err != nil {
		panic(err)
	}
	return text
}
