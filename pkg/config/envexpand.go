package config

import (
	"bytes"
	"os"
	"strings"
	"text/template"
)

// ExpandEnv expands environment variables in YAML content using Go templates
// with {{.VAR_NAME}} syntax. Literal $ characters (regex patterns, passwords)
// pass through untouched, which a shell-style expansion would mangle.
//
// Examples:
//   - {{.N8N_WEBHOOK_URL}} → value of N8N_WEBHOOK_URL
//   - {{.REDIS_HOST}}:{{.REDIS_PORT}} → both variables expanded
//
// Missing variables expand to an empty string; validation catches required
// fields left empty. Malformed templates return the input unchanged so YAML
// without any template syntax always passes through.
func ExpandEnv(data []byte) []byte {
	tmpl, err := template.New("config").Option("missingkey=zero").Parse(string(data))
	if err != nil {
		return data
	}

	envMap := make(map[string]string)
	for _, env := range os.Environ() {
		if idx := strings.IndexByte(env, '='); idx > 0 {
			envMap[env[:idx]] = env[idx+1:]
		}
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, envMap); err != nil {
		return data
	}
	return buf.Bytes()
}
