// Package template renders string and structure templates against the
// per-node execution context. Rendering is sandboxed: only a closed function
// map is reachable from template syntax and referencing a missing context key
// is an error, never a silent empty string.
package template

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"text/template"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/chatbtn/chatflow/pkg/models"
)

// Context is the namespace map templates are rendered against.
type Context map[string]any

// ContextParams collects the inputs of BuildContext. Response and Extracted
// are only populated by the HTTP adapter after a request completed.
type ContextParams struct {
	Action    map[string]any
	Button    map[string]any
	Menu      map[string]any
	Runtime   *models.RuntimeContext
	Response  map[string]any
	Extracted any
	Variables map[string]any
}

// Engine wraps a restricted text/template environment shared by all
// adapters.
type Engine struct {
	logger *slog.Logger
	funcs  template.FuncMap
}

func NewEngine(logger *slog.Logger) *Engine {
	return &Engine{
		logger: logger.With("module", "template"),
		funcs: template.FuncMap{
			"tojson": func(value any) (string, error) {
				encoded, err := json.Marshal(value)
				if err != nil {
					return "", fmt.Errorf("tojson: %w", err)
				}

				return string(encoded), nil
			},
			"urlencode": func(value any) string {
				return url.QueryEscape(fmt.Sprintf("%v", value))
			},
			"upper": strings.ToUpper,
			"lower": strings.ToLower,
			"trim":  strings.TrimSpace,
			"now": func() string {
				return time.Now().UTC().Format(time.RFC3339)
			},
			"default": func(fallback, value any) any {
				if value == nil || value == "" {
					return fallback
				}

				return value
			},
		},
	}
}

// BuildContext creates the standard templating context shared across
// adapters: action, button, menu, runtime, response, extracted and
// variables namespaces.
func (e *Engine) BuildContext(params ContextParams) Context {
	runtime := map[string]any{}
	variables := params.Variables

	if params.Runtime != nil {
		if variables == nil {
			variables = params.Runtime.Variables
		}

		runtime = params.Runtime.WithVariables(variables).AsMap()
	}

	if variables == nil {
		variables = map[string]any{}
	}

	response := params.Response
	if response == nil {
		response = map[string]any{}
	}

	return Context{
		"action":    orEmpty(params.Action),
		"button":    orEmpty(params.Button),
		"menu":      orEmpty(params.Menu),
		"runtime":   runtime,
		"response":  response,
		"extracted": params.Extracted,
		"variables": variables,
	}
}

// RenderString renders one template string against the context. Malformed
// templates and missing key references fail with a descriptive error.
func (e *Engine) RenderString(templateStr string, renderCtx Context) (string, error) {
	if templateStr == "" {
		return "", nil
	}

	tmpl, err := template.New("render").
		Option("missingkey=error").
		Funcs(e.funcs).
		Parse(templateStr)
	if err != nil {
		return "", fmt.Errorf("failed to parse template '%s': %w", templateStr, err)
	}

	var buf strings.Builder
	if err := tmpl.Execute(&buf, map[string]any(renderCtx)); err != nil {
		return "", fmt.Errorf("failed to execute template '%s': %w", templateStr, err)
	}

	return buf.String(), nil
}

// RenderStructure recursively renders a templated structure. Strings are
// rendered, maps and lists are walked (independent entries render
// concurrently), any other type passes through unchanged.
func (e *Engine) RenderStructure(ctx context.Context, value any, renderCtx Context) (any, error) {
	switch typed := value.(type) {
	case string:
		return e.RenderString(typed, renderCtx)
	case []any:
		rendered := make([]any, len(typed))
		group, groupCtx := errgroup.WithContext(ctx)

		for i, item := range typed {
			i, item := i, item
			group.Go(func() error {
				result, err := e.RenderStructure(groupCtx, item, renderCtx)
				if err != nil {
					return err
				}

				rendered[i] = result

				return nil
			})
		}

		if err := group.Wait(); err != nil {
			return nil, err
		}

		return rendered, nil
	case map[string]any:
		keys := make([]string, 0, len(typed))
		for key := range typed {
			keys = append(keys, key)
		}

		values := make([]any, len(keys))
		group, groupCtx := errgroup.WithContext(ctx)

		for i, key := range keys {
			i, key := i, key
			group.Go(func() error {
				result, err := e.RenderStructure(groupCtx, typed[key], renderCtx)
				if err != nil {
					return err
				}

				values[i] = result

				return nil
			})
		}

		if err := group.Wait(); err != nil {
			return nil, err
		}

		rendered := make(map[string]any, len(keys))
		for i, key := range keys {
			rendered[key] = values[i]
		}

		return rendered, nil
	default:
		return value, nil
	}
}

func orEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}

	return m
}
