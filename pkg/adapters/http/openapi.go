package http

import (
	_ "embed"
	"errors"
	"fmt"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	legacyrouter "github.com/getkin/kin-openapi/routers/legacy"
)

//go:embed openapi.yaml
var rawOpenAPI []byte

// rawSpec returns the embedded OpenAPI document.
func rawSpec() []byte {
	return rawOpenAPI
}

// GetSwagger parses and validates the embedded OpenAPI document.
func GetSwagger() (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(rawOpenAPI)
	if err != nil {
		return nil, fmt.Errorf("failed to load openapi document: %w", err)
	}
	if err := doc.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("invalid openapi document: %w", err)
	}
	return doc, nil
}

// requestValidator rejects requests that do not match the OpenAPI document.
// Routes the document does not describe pass through untouched.
func requestValidator(doc *openapi3.T) (func(http.Handler) http.Handler, error) {
	router, err := legacyrouter.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to build openapi router: %w", err)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route, pathParams, err := router.FindRoute(r)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			input := &openapi3filter.RequestValidationInput{
				Request:    r,
				PathParams: pathParams,
				Route:      route,
			}
			if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
					return
				}
				writeError(w, http.StatusBadRequest, validationDetail(err))
				return
			}

			next.ServeHTTP(w, r)
		})
	}, nil
}

func validationDetail(err error) string {
	var reqErr *openapi3filter.RequestError
	if errors.As(err, &reqErr) {
		var schemaErr *openapi3.SchemaError
		if errors.As(reqErr.Err, &schemaErr) {
			return fmt.Sprintf("Invalid request body: %s", schemaErr.Reason)
		}
		if reqErr.Reason != "" {
			return fmt.Sprintf("Invalid request: %s", reqErr.Reason)
		}
	}
	return fmt.Sprintf("Invalid request: %v", err)
}
