package httpcall

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatbtn/chatflow/pkg/models"
	"github.com/chatbtn/chatflow/pkg/template"
)

type capturedRequest struct {
	method      string
	path        string
	query       string
	headers     http.Header
	body        string
	contentType string
}

func newCapturingServer(t *testing.T, status int, responseBody string) (*httptest.Server, *capturedRequest) {
	t.Helper()

	captured := &capturedRequest{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)

		captured.method = r.Method
		captured.path = r.URL.Path
		captured.query = r.URL.RawQuery
		captured.headers = r.Header.Clone()
		captured.body = string(body)
		captured.contentType = r.Header.Get("Content-Type")

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(responseBody))
	}))
	t.Cleanup(server.Close)

	return server, captured
}

func newHTTPExecutor() *Executor {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	return NewExecutor(logger, template.NewEngine(logger), &http.Client{})
}

func httpAction(config map[string]any) *models.ActionDefinition {
	return &models.ActionDefinition{ID: "a1", Kind: "http", Config: config}
}

func httpRuntime(variables map[string]any) *models.RuntimeContext {
	if variables == nil {
		variables = map[string]any{}
	}

	return &models.RuntimeContext{ChatID: "chat-1", Variables: variables}
}

func TestExecute_RequestTemplating(t *testing.T) {
	server, captured := newCapturingServer(t, http.StatusOK, `{"ok":true}`)
	executor := newHTTPExecutor()

	action := httpAction(map[string]any{
		"request": map[string]any{
			"method": "post",
			"url":    server.URL + "/users/{{.variables.user}}",
			"headers": map[string]any{
				"Authorization": "Bearer {{.variables.token}}",
			},
		},
	})

	result := executor.Execute(context.Background(), action, nil, nil,
		httpRuntime(map[string]any{"user": "ada", "token": "secret"}), false)

	require.True(t, result.Success, result.Error)
	assert.Equal(t, http.MethodPost, captured.method)
	assert.Equal(t, "/users/ada", captured.path)
	assert.Equal(t, "Bearer secret", captured.headers.Get("Authorization"))
}

func TestExecute_LegacyFlatConfig(t *testing.T) {
	server, captured := newCapturingServer(t, http.StatusOK, `{}`)
	executor := newHTTPExecutor()

	action := httpAction(map[string]any{
		"method": "GET",
		"url":    server.URL + "/ping",
	})

	result := executor.Execute(context.Background(), action, nil, nil, httpRuntime(nil), false)

	require.True(t, result.Success, result.Error)
	assert.Equal(t, "/ping", captured.path)
}

func TestExecute_BodyModes(t *testing.T) {
	executor := newHTTPExecutor()

	tests := []struct {
		name        string
		body        any
		wantType    string
		checkBody   func(t *testing.T, captured *capturedRequest)
	}{
		{
			name: "json mode",
			body: map[string]any{
				"mode": "json",
				"json": map[string]any{"name": "{{.variables.user}}"},
			},
			wantType: "application/json",
			checkBody: func(t *testing.T, captured *capturedRequest) {
				assert.JSONEq(t, `{"name":"ada"}`, captured.body)
			},
		},
		{
			name: "form mode",
			body: map[string]any{
				"mode": "form",
				"form": map[string]any{"name": "{{.variables.user}}"},
			},
			wantType: "application/x-www-form-urlencoded",
			checkBody: func(t *testing.T, captured *capturedRequest) {
				assert.Equal(t, "name=ada", captured.body)
			},
		},
		{
			name: "multipart mode",
			body: map[string]any{
				"mode": "multipart",
				"form": map[string]any{"name": "{{.variables.user}}"},
			},
			wantType: "multipart/form-data",
			checkBody: func(t *testing.T, captured *capturedRequest) {
				assert.Contains(t, captured.body, `name="name"`)
				assert.Contains(t, captured.body, "ada")
			},
		},
		{
			name:     "raw mode",
			body:     map[string]any{"mode": "raw", "raw": "user={{.variables.user}}"},
			wantType: "",
			checkBody: func(t *testing.T, captured *capturedRequest) {
				assert.Equal(t, "user=ada", captured.body)
			},
		},
		{
			name:     "legacy string body",
			body:     "plain {{.variables.user}}",
			wantType: "",
			checkBody: func(t *testing.T, captured *capturedRequest) {
				assert.Equal(t, "plain ada", captured.body)
			},
		},
		{
			name:     "legacy structure body",
			body:     map[string]any{"key": "{{.variables.user}}"},
			wantType: "application/json",
			checkBody: func(t *testing.T, captured *capturedRequest) {
				assert.JSONEq(t, `{"key":"ada"}`, captured.body)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, captured := newCapturingServer(t, http.StatusOK, `{}`)

			action := httpAction(map[string]any{
				"request": map[string]any{
					"method": "POST",
					"url":    server.URL,
					"body":   tt.body,
				},
			})

			result := executor.Execute(context.Background(), action, nil, nil,
				httpRuntime(map[string]any{"user": "ada"}), false)

			require.True(t, result.Success, result.Error)

			if tt.wantType != "" {
				assert.True(t, strings.HasPrefix(captured.contentType, tt.wantType),
					"content type %q", captured.contentType)
			}

			tt.checkBody(t, captured)
		})
	}
}

func TestExecute_MissingURL(t *testing.T) {
	executor := newHTTPExecutor()

	result := executor.Execute(context.Background(),
		httpAction(map[string]any{"request": map[string]any{"method": "GET"}}),
		nil, nil, httpRuntime(nil), false)

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "no URL")
}

func TestExecute_ExtractorsAndBindings(t *testing.T) {
	server, _ := newCapturingServer(t, http.StatusOK,
		`{"user":{"name":"Ada","roles":["admin","ops"]},"count":2}`)
	executor := newHTTPExecutor()

	action := httpAction(map[string]any{
		"request": map[string]any{"url": server.URL},
		"parse": map[string]any{
			"extractor": map[string]any{
				"type":       "jmespath",
				"expression": "user.name",
			},
			"variables": []any{
				map[string]any{"name": "greeting", "type": "template", "template": "hi {{.extracted}}"},
				map[string]any{"name": "role", "type": "jsonpath", "expression": "user.roles[0]"},
				map[string]any{"name": "fixed", "type": "static", "value": 7},
				map[string]any{"name": "echo", "type": "runtime", "key": "seed"},
				map[string]any{"name": "broken", "type": "template", "template": "{{.variables.nope}}"},
			},
		},
		"render": map[string]any{
			"message": map[string]any{
				"template": "{{.variables.greeting}} ({{.variables.role}})",
				"format":   "md",
			},
		},
	})

	result := executor.Execute(context.Background(), action, nil, nil,
		httpRuntime(map[string]any{"seed": "s1"}), false)

	require.True(t, result.Success, result.Error)
	assert.Equal(t, "hi Ada (admin)", result.Text())
	assert.Equal(t, "Markdown", result.ParseMode)
	assert.True(t, result.ShouldEditMessage)

	assert.Equal(t, "Ada", result.Data["extracted"])
	assert.Equal(t, http.StatusOK, result.Data["response_status"])

	variables, ok := result.Variables()
	require.True(t, ok)
	assert.Equal(t, "hi Ada", variables["greeting"])
	assert.Equal(t, "admin", variables["role"])
	assert.Equal(t, 7, variables["fixed"])
	assert.Equal(t, "s1", variables["echo"])
	// A failed binding is skipped without failing the action.
	assert.NotContains(t, variables, "broken")
}

func TestExecute_TemplateExtractor(t *testing.T) {
	server, _ := newCapturingServer(t, http.StatusOK, `{"status":"ready"}`)
	executor := newHTTPExecutor()

	action := httpAction(map[string]any{
		"request": map[string]any{"url": server.URL},
		"parse": map[string]any{
			"extractor": map[string]any{
				"type":       "template",
				"expression": "{{.response.json.status}}/{{.response.status_code}}",
			},
		},
		"render": map[string]any{
			"template": "{{.extracted}}",
		},
	})

	result := executor.Execute(context.Background(), action, nil, nil, httpRuntime(nil), false)

	require.True(t, result.Success, result.Error)
	assert.Equal(t, "ready/200", result.Text())
}

func TestExecute_JSONPathUnmatchedIsNil(t *testing.T) {
	server, _ := newCapturingServer(t, http.StatusOK, `{"a":1}`)
	executor := newHTTPExecutor()

	action := httpAction(map[string]any{
		"request": map[string]any{"url": server.URL},
		"parse": map[string]any{
			"extractor": map[string]any{
				"type":       "jsonpath",
				"expression": "missing.path",
			},
		},
	})

	result := executor.Execute(context.Background(), action, nil, nil, httpRuntime(nil), false)

	require.True(t, result.Success, result.Error)
	assert.Nil(t, result.Data["extracted"])
}

func TestExecute_UpdateMessageFalse(t *testing.T) {
	server, _ := newCapturingServer(t, http.StatusOK, `{}`)
	executor := newHTTPExecutor()

	action := httpAction(map[string]any{
		"request": map[string]any{"url": server.URL},
		"render": map[string]any{
			"message": map[string]any{
				"template":       "static text",
				"update_message": false,
			},
		},
	})

	result := executor.Execute(context.Background(), action, nil, nil, httpRuntime(nil), false)

	require.True(t, result.Success, result.Error)
	assert.Equal(t, "static text", result.Text())
	assert.False(t, result.ShouldEditMessage)
}

func TestExecute_ButtonTitleTemplate(t *testing.T) {
	server, _ := newCapturingServer(t, http.StatusOK, `{}`)
	executor := newHTTPExecutor()

	action := httpAction(map[string]any{
		"request": map[string]any{"url": server.URL},
		"render": map[string]any{
			"button_title_template": "Done {{.variables.n}}",
		},
	})

	result := executor.Execute(context.Background(), action, nil, nil,
		httpRuntime(map[string]any{"n": "1"}), false)

	require.True(t, result.Success, result.Error)
	assert.Equal(t, "Done 1", result.ButtonTitle)

	require.Len(t, result.ButtonOverrides, 1)
	assert.Equal(t, "self", result.ButtonOverrides[0]["target"])
	assert.Equal(t, "Done 1", result.ButtonOverrides[0]["text"])
}

func TestExecute_PreviewSkipsRequest(t *testing.T) {
	requestCount := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requestCount++

		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	executor := newHTTPExecutor()

	action := httpAction(map[string]any{
		"request": map[string]any{"url": server.URL},
		"render": map[string]any{
			"template": "would call {{.variables.target}}",
		},
	})

	result := executor.Execute(context.Background(), action, nil, nil,
		httpRuntime(map[string]any{"target": "api"}), true)

	require.True(t, result.Success, result.Error)
	assert.Zero(t, requestCount)
	assert.Equal(t, "would call api", result.Text())
	assert.Nil(t, result.Data["response_status"])
}
