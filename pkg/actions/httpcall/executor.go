// Package httpcall executes HTTP-based actions: request templating, response
// parsing/extraction and variable binding.
package httpcall

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/chatbtn/chatflow/pkg/models"
	"github.com/chatbtn/chatflow/pkg/template"
)

const defaultTimeoutSeconds = 10

// Executor executes HTTP actions through a shared client.
type Executor struct {
	logger *slog.Logger
	engine *template.Engine
	client *http.Client
}

func NewExecutor(logger *slog.Logger, engine *template.Engine, client *http.Client) *Executor {
	if client == nil {
		client = &http.Client{}
	}

	return &Executor{
		logger: logger.With("module", "http_executor"),
		engine: engine,
		client: client,
	}
}

// Execute renders the configured request, performs it (unless previewing),
// extracts and binds response variables and renders the configured message.
func (e *Executor) Execute(
	ctx context.Context,
	action *models.ActionDefinition,
	button, menu map[string]any,
	runtime *models.RuntimeContext,
	preview bool,
) *models.ActionExecutionResult {
	config := action.Config
	if config == nil {
		config = map[string]any{}
	}

	requestCfg := getMap(config, "request")
	if requestCfg == nil {
		// Legacy flat config: method/url/headers/body at the top level.
		requestCfg = map[string]any{
			"method":  config["method"],
			"url":     config["url"],
			"headers": config["headers"],
			"body":    config["body"],
			"timeout": config["timeout"],
		}
	}

	baseContext := e.engine.BuildContext(template.ContextParams{
		Action:    action.AsMap(),
		Button:    button,
		Menu:      menu,
		Runtime:   runtime,
		Variables: runtime.Variables,
	})

	request, err := e.buildRequest(ctx, config, requestCfg, baseContext)
	if err != nil {
		return models.Failure(fmt.Sprintf("failed to render HTTP request: %v", err))
	}

	var response *responsePayload

	if !preview {
		response, err = e.perform(ctx, request)
		if err != nil {
			return models.Failure(fmt.Sprintf("HTTP request failed: %v", err))
		}
	}

	parseCfg := getMap(config, "parse")

	extracted, err := e.extract(config, parseCfg, response, preview)
	if err != nil {
		return models.Failure(fmt.Sprintf("failed to parse response body: %v", err))
	}

	combinedVariables := make(map[string]any, len(runtime.Variables))
	maps.Copy(combinedVariables, runtime.Variables)

	e.bindVariables(parseCfg, action, button, menu, runtime, response, extracted, combinedVariables, preview)

	renderContext := e.engine.BuildContext(template.ContextParams{
		Action:    action.AsMap(),
		Button:    button,
		Menu:      menu,
		Runtime:   runtime,
		Response:  responseMap(response),
		Extracted: extracted,
		Variables: combinedVariables,
	})

	return e.renderResult(config, button, renderContext, response, extracted, combinedVariables)
}

// renderedRequest carries a fully rendered request ready to perform.
type renderedRequest struct {
	method      string
	url         string
	headers     map[string]string
	body        []byte
	contentType string
	timeout     time.Duration
}

func (e *Executor) buildRequest(
	ctx context.Context,
	config, requestCfg map[string]any,
	baseContext template.Context,
) (*renderedRequest, error) {
	urlTemplate := getString(requestCfg, "url")
	if urlTemplate == "" {
		return nil, fmt.Errorf("HTTP action config has no URL")
	}

	renderedURL, err := e.engine.RenderString(urlTemplate, baseContext)
	if err != nil {
		return nil, err
	}

	method := strings.ToUpper(getString(requestCfg, "method"))
	if method == "" {
		method = http.MethodGet
	}

	headers := map[string]string{}

	for name, valueTemplate := range headerTemplates(requestCfg["headers"]) {
		rendered, err := e.engine.RenderString(valueTemplate, baseContext)
		if err != nil {
			return nil, fmt.Errorf("header '%s': %w", name, err)
		}

		headers[name] = rendered
	}

	timeout := getFloat(requestCfg, "timeout", getFloat(config, "timeout", defaultTimeoutSeconds))
	if timeout <= 0 {
		timeout = defaultTimeoutSeconds
	}

	request := &renderedRequest{
		method:  method,
		url:     renderedURL,
		headers: headers,
		timeout: time.Duration(timeout * float64(time.Second)),
	}

	if bodyCfg, ok := requestCfg["body"]; ok && bodyCfg != nil {
		if err := e.renderBody(ctx, request, bodyCfg, baseContext); err != nil {
			return nil, err
		}
	}

	return request, nil
}

// renderBody fills the request body according to the configured mode: json,
// form/urlencoded, multipart, raw, or the legacy untagged shapes.
func (e *Executor) renderBody(ctx context.Context, request *renderedRequest, bodyCfg any, baseContext template.Context) error {
	bodyMap, isMap := bodyCfg.(map[string]any)
	if isMap && getString(bodyMap, "mode") != "" {
		mode := strings.ToLower(getString(bodyMap, "mode"))

		switch mode {
		case "json":
			rendered, err := e.engine.RenderStructure(ctx, valueOr(bodyMap["json"], map[string]any{}), baseContext)
			if err != nil {
				return err
			}

			return request.setJSON(rendered)
		case "form", "urlencoded":
			rendered, err := e.engine.RenderStructure(ctx, valueOr(bodyMap["form"], map[string]any{}), baseContext)
			if err != nil {
				return err
			}

			if form, ok := rendered.(map[string]any); ok {
				request.setForm(form)
			}

			return nil
		case "multipart":
			rendered, err := e.engine.RenderStructure(ctx, valueOr(bodyMap["form"], map[string]any{}), baseContext)
			if err != nil {
				return err
			}

			if form, ok := rendered.(map[string]any); ok {
				return request.setMultipart(form)
			}

			return nil
		default:
			raw := getString(bodyMap, "text")
			if raw == "" {
				raw = getString(bodyMap, "raw")
			}

			rendered, err := e.engine.RenderString(raw, baseContext)
			if err != nil {
				return err
			}

			request.body = []byte(rendered)

			return nil
		}
	}

	if text, ok := bodyCfg.(string); ok {
		rendered, err := e.engine.RenderString(text, baseContext)
		if err != nil {
			return err
		}

		request.body = []byte(rendered)

		return nil
	}

	rendered, err := e.engine.RenderStructure(ctx, bodyCfg, baseContext)
	if err != nil {
		return err
	}

	switch rendered.(type) {
	case map[string]any, []any:
		return request.setJSON(rendered)
	default:
		request.body = []byte(fmt.Sprintf("%v", rendered))

		return nil
	}
}

func (r *renderedRequest) setJSON(payload any) error {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode JSON body: %w", err)
	}

	r.body = encoded
	r.contentType = "application/json"

	return nil
}

func (r *renderedRequest) setForm(form map[string]any) {
	values := url.Values{}

	for key, value := range form {
		if value == nil {
			values.Set(key, "")

			continue
		}

		values.Set(key, fmt.Sprintf("%v", value))
	}

	r.body = []byte(values.Encode())
	r.contentType = "application/x-www-form-urlencoded"
}

func (r *renderedRequest) setMultipart(form map[string]any) error {
	var buf bytes.Buffer

	writer := multipart.NewWriter(&buf)

	for key, value := range form {
		text := ""
		if value != nil {
			text = fmt.Sprintf("%v", value)
		}

		if err := writer.WriteField(key, text); err != nil {
			return fmt.Errorf("failed to write multipart field '%s': %w", key, err)
		}
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	r.body = buf.Bytes()
	r.contentType = writer.FormDataContentType()

	return nil
}

func (e *Executor) perform(ctx context.Context, rendered *renderedRequest) (*responsePayload, error) {
	requestCtx, cancel := context.WithTimeout(ctx, rendered.timeout)
	defer cancel()

	var body *bytes.Reader
	if rendered.body != nil {
		body = bytes.NewReader(rendered.body)
	} else {
		body = bytes.NewReader(nil)
	}

	request, err := http.NewRequestWithContext(requestCtx, rendered.method, rendered.url, body)
	if err != nil {
		return nil, err
	}

	for name, value := range rendered.headers {
		request.Header.Set(name, value)
	}

	if rendered.contentType != "" && request.Header.Get("Content-Type") == "" {
		request.Header.Set("Content-Type", rendered.contentType)
	}

	e.logger.Debug("Performing HTTP request", "method", rendered.method, "url", rendered.url)

	response, err := e.client.Do(request)
	if err != nil {
		return nil, err
	}

	return newResponsePayload(response)
}

func (e *Executor) extract(config, parseCfg map[string]any, response *responsePayload, preview bool) (any, error) {
	extractorCfg := getMap(parseCfg, "extractor")
	if extractorCfg == nil {
		extractorCfg = getMap(config, "extractor")
	}

	extractorType := strings.ToLower(getString(extractorCfg, "type"))
	expression := getString(extractorCfg, "expression")

	if extractorType == "" || extractorType == extractorNone || expression == "" {
		return nil, nil
	}

	return e.applyExtractor(extractorType, expression, response, preview)
}

func responseMap(response *responsePayload) map[string]any {
	if response == nil {
		return nil
	}

	return response.AsMap()
}

func valueOr(value, fallback any) any {
	if value == nil {
		return fallback
	}

	return value
}
