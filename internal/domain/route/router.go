// Package route classifies a question into an answer mode.
package route

import "strings"

// Mode selects which partition and prompt the ask path uses.
type Mode string

const (
	// ModePrices answers from structured daily price documents.
	ModePrices Mode = "prices"
	// ModeDocs answers from unstructured news documents with citations.
	ModeDocs Mode = "docs"
)

// Rule is one (pattern, mode) entry. Patterns are lowercase substrings.
type Rule struct {
	Pattern string
	Mode    Mode
}

// docRules are checked first: when a question carries both document and price
// intent, the richer document-grounded answer wins.
var docRules = []Rule{
	{"noticia", ModeDocs}, {"news", ModeDocs},
	{"titular", ModeDocs}, {"headline", ModeDocs},
	{"filing", ModeDocs}, {"comunicado", ModeDocs},
	{"earnings", ModeDocs}, {"resultados", ModeDocs},
	{"por qué", ModeDocs}, {"porque", ModeDocs}, {"why", ModeDocs},
	{"razón", ModeDocs}, {"razon", ModeDocs}, {"reason", ModeDocs},
	{"riesgo", ModeDocs}, {"risk", ModeDocs},
	{"rumor", ModeDocs},
}

var priceRules = []Rule{
	{"precio", ModePrices}, {"price", ModePrices},
	{"cierre", ModePrices}, {"close", ModePrices},
	{"apertura", ModePrices}, {"open", ModePrices},
	{"máximo", ModePrices}, {"maximo", ModePrices}, {"high", ModePrices},
	{"mínimo", ModePrices}, {"minimo", ModePrices}, {"low", ModePrices},
	{"volumen", ModePrices}, {"volume", ModePrices},
	{"cambio", ModePrices}, {"change", ModePrices},
	{"hoy", ModePrices}, {"today", ModePrices},
	{"ayer", ModePrices}, {"yesterday", ModePrices},
	{"sesión", ModePrices}, {"sesion", ModePrices}, {"session", ModePrices},
	{"%", ModePrices},
}

// Router classifies questions against the ordered rule tables.
type Router struct {
	docs   []Rule
	prices []Rule
}

// NewRouter creates a router over the default rule tables.
func NewRouter() *Router {
	return &Router{docs: docRules, prices: priceRules}
}

// Route returns the mode for a question. Document rules are evaluated before
// price rules; a question matching neither defaults to ModeDocs.
func (r *Router) Route(question string) Mode {
	ql := strings.ToLower(question)

	for _, rule := range r.docs {
		if strings.Contains(ql, rule.Pattern) {
			return rule.Mode
		}
	}
	for _, rule := range r.prices {
		if strings.Contains(ql, rule.Pattern) {
			return rule.Mode
		}
	}
	return ModeDocs
}
