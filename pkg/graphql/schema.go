// Package graphql serves a graphql-go schema over HTTP.
package graphql

import (
	"encoding/json"
	"net/http"

	"github.com/graphql-go/graphql"

	"github.com/multidelivery/painel/pkg/bind"
	"github.com/multidelivery/painel/pkg/logger"
	"github.com/multidelivery/painel/pkg/response"
)

// NewSchema creates a new GraphQL schema from a provided RootQuery
func NewSchema(query *graphql.Object) (graphql.Schema, error) {
	return graphql.NewSchema(graphql.SchemaConfig{
		Query: query,
	})
}

// Request is the standard GraphQL-over-HTTP POST body.
type Request struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
}

// Handler executes POSTed queries against schema. Resolver errors are
// reported in the "errors" member with a 200, as GraphQL clients expect.
func Handler(schema graphql.Schema) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req Request
		if _, err := bind.JSON(r, &req); err != nil {
			response.Error(w, http.StatusBadRequest, "Corpo da requisição inválido")
			return
		}
		if req.Query == "" {
			response.Error(w, http.StatusBadRequest, "query é obrigatória")
			return
		}

		res := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			OperationName:  req.OperationName,
			VariableValues: req.Variables,
			Context:        r.Context(),
		})
		if res.HasErrors() {
			logger.WithCtx(r.Context()).Debug("graphql: query errors", "errors", len(res.Errors))
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(res)
	}
}
