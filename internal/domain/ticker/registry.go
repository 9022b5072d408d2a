// Package ticker holds the Dow Jones member registry, the company-name alias
// table, and the question resolver built on top of them.
package ticker

// Symbol is a short uppercase ticker symbol from the registry.
type Symbol = string

// djia is the member set of the Dow Jones Industrial Average as ingested.
var djia = []Symbol{
	"AAPL", "AMGN", "AMZN", "AXP", "BA", "CAT", "CRM", "CSCO", "CVX", "DIS",
	"DOW", "GS", "HD", "HON", "IBM", "INTC", "JNJ", "JPM", "KO", "MCD",
	"MMM", "MRK", "MSFT", "NKE", "PG", "TRV", "UNH", "V", "VZ", "WMT",
}

// Alias maps a lowercase company-name fragment to its symbol. Order matters:
// the resolver honors table order when two aliases start at the same position
// in the question.
type Alias struct {
	Name   string
	Symbol Symbol
}

// aliases is the ordered name→symbol table. Longer variants of the same name
// come before shorter ones so "coca cola" wins over a hypothetical "cola".
var aliases = []Alias{
	{"apple", "AAPL"}, {"manzana", "AAPL"},
	{"microsoft", "MSFT"},
	{"boeing", "BA"},
	{"coca-cola", "KO"}, {"coca cola", "KO"},
	{"visa", "V"},
	{"nike", "NKE"},
	{"ibm", "IBM"},
	{"intel", "INTC"},
	{"walmart", "WMT"},
	{"mcdonald's", "MCD"}, {"mcdonalds", "MCD"}, {"mcdonald", "MCD"}, {"macdonald", "MCD"},
	{"disney", "DIS"},
	{"chevron", "CVX"},
	{"salesforce", "CRM"},
	{"jp morgan", "JPM"}, {"jpmorgan", "JPM"},
	{"goldman", "GS"},
	{"johnson & johnson", "JNJ"}, {"johnson", "JNJ"},
	{"merck", "MRK"},
	{"3m", "MMM"},
	{"procter & gamble", "PG"}, {"procter", "PG"},
	{"travelers", "TRV"},
	{"unitedhealth", "UNH"},
	{"amgen", "AMGN"},
	{"american express", "AXP"}, {"amex", "AXP"},
	{"caterpillar", "CAT"},
	{"home depot", "HD"},
	{"honeywell", "HON"},
	{"dow", "DOW"},
	{"verizon", "VZ"},
	{"amazon", "AMZN"},
}

// Registry is the static set of valid symbols plus the alias table.
type Registry struct {
	members map[Symbol]struct{}
	ordered []Symbol
	aliases []Alias
}

// NewRegistry creates the default DJIA registry.
func NewRegistry() *Registry {
	return NewRegistryWith(djia, aliases)
}

// NewRegistryWith creates a registry over explicit members and aliases.
// Membership is the union of members and alias targets.
func NewRegistryWith(members []Symbol, aliasTable []Alias) *Registry {
	r := &Registry{
		members: make(map[Symbol]struct{}, len(members)+len(aliasTable)),
		ordered: append([]Symbol(nil), members...),
		aliases: aliasTable,
	}
	for _, s := range members {
		r.members[s] = struct{}{}
	}
	for _, a := range aliasTable {
		if _, ok := r.members[a.Symbol]; !ok {
			r.members[a.Symbol] = struct{}{}
			r.ordered = append(r.ordered, a.Symbol)
		}
	}
	return r
}

// Contains reports whether s is a registered symbol.
func (r *Registry) Contains(s Symbol) bool {
	_, ok := r.members[s]
	return ok
}

// Symbols returns all registered symbols in registration order.
func (r *Registry) Symbols() []Symbol {
	return append([]Symbol(nil), r.ordered...)
}

// Aliases returns the ordered alias table.
func (r *Registry) Aliases() []Alias {
	return r.aliases
}
