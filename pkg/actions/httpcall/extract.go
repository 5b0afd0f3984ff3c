package httpcall

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/jmespath/go-jmespath"

	"github.com/chatbtn/chatflow/pkg/template"
)

const (
	extractorNone     = "none"
	extractorTemplate = "template"
	extractorJMESPath = "jmespath"
	extractorJSONPath = "jsonpath"
)

var errNoResponse = errors.New("extractor requires an actual response")

// applyExtractor evaluates one extraction expression against the response.
// The template extractor sees only the response namespace; the path
// extractors operate on the decoded JSON body.
func (e *Executor) applyExtractor(extractorType, expression string, response *responsePayload, preview bool) (any, error) {
	if extractorType == extractorTemplate {
		renderCtx := template.Context{"response": nil}
		if response != nil {
			renderCtx["response"] = response.AsMap()
		}

		return e.engine.RenderString(expression, renderCtx)
	}

	if response == nil {
		if preview {
			return nil, fmt.Errorf("%w (unavailable in preview mode)", errNoResponse)
		}

		return nil, errNoResponse
	}

	payload, err := response.JSON()
	if err != nil {
		return nil, fmt.Errorf("response is not JSON: %w", err)
	}

	switch extractorType {
	case extractorJMESPath:
		result, err := jmespath.Search(expression, payload)
		if err != nil {
			return nil, fmt.Errorf("jmespath '%s': %w", expression, err)
		}

		return result, nil
	case extractorJSONPath:
		expr := expression
		if !strings.HasPrefix(expr, "$") {
			expr = "$." + expr
		}

		result, err := jsonpath.Get(expr, payload)
		if err != nil {
			// An unmatched path yields nil, mirroring the lenient
			// first-match-or-none lookup callers expect.
			return nil, nil //nolint:nilerr
		}

		if items, ok := result.([]any); ok {
			if len(items) == 0 {
				return nil, nil
			}

			return items[0], nil
		}

		return result, nil
	default:
		return nil, fmt.Errorf("unsupported extractor type '%s'", extractorType)
	}
}
