// Package graphql serves a graphql-go schema over HTTP.
//
//	schema, err := graphql.NewSchema(rootQuery)
//	router.Post("/api/graphql", "graphql", graphql.Handler(schema))
package graphql

import (
	"encoding/json"
	"net/http"

	"github.com/graphql-go/graphql"

	"github.com/perennia/storefront/pkg/response"
)

const maxBody = 64 * 1024

// NewSchema creates a read-only schema from query.
func NewSchema(query *graphql.Object) (graphql.Schema, error) {
	return graphql.NewSchema(graphql.SchemaConfig{
		Query: query,
	})
}

// Request is the standard GraphQL-over-HTTP body.
type Request struct {
	Query         string                 `json:"query"`
	Variables     map[string]interface{} `json:"variables"`
	OperationName string                 `json:"operationName"`
}

// Handler executes POSTed queries, and GET ?query=, against schema. Query
// errors are reported in the result body with 200, the GraphQL convention.
func Handler(schema graphql.Schema) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req Request
		if r.Method == http.MethodGet {
			req.Query = r.URL.Query().Get("query")
			req.OperationName = r.URL.Query().Get("operationName")
		} else if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}
		if req.Query == "" {
			response.Error(w, http.StatusBadRequest, "Missing query")
			return
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        r.Context(),
		})
		response.OK(w, result)
	}
}
