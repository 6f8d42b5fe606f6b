package zurich

import (
	"context"
	"net/url"
)

const sparqlAccept = "application/sparql-results+json, application/json"

// SPARQLTerm is one bound value of a result row.
type SPARQLTerm struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Lang     string `json:"xml:lang,omitempty"`
	Datatype string `json:"datatype,omitempty"`
}

// SPARQLResult is a SPARQL 1.1 JSON results document.
type SPARQLResult struct {
	Head struct {
		Vars []string `json:"vars"`
	} `json:"head"`
	Results struct {
		Bindings []map[string]SPARQLTerm `json:"bindings"`
	} `json:"results"`
}

// SPARQL runs a query against the linked data endpoint.
func (c *Client) SPARQL(ctx context.Context, query string) (*SPARQLResult, error) {
	var out SPARQLResult
	err := c.fetchJSON(ctx, request{
		service: ServiceSPARQL,
		url:     c.endpoints.SPARQL,
		params:  url.Values{"query": {query}},
		accept:  sparqlAccept,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
