package httpadapter

import (
	_ "embed"
	"net/http"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed openapi.json
var openapiSpec []byte

var validateSpecOnce sync.Once
var specErr error

// openapi serves the API contract. The document is validated once on
// first request so a malformed spec fails loudly instead of shipping.
func (rt *Router) openapi(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	validateSpecOnce.Do(func() {
		loader := openapi3.NewLoader()
		doc, err := loader.LoadFromData(openapiSpec)
		if err != nil {
			specErr = err
			return
		}
		specErr = doc.Validate(loader.Context)
	})
	if specErr != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "openapi spec is invalid"})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(openapiSpec)
}
