package search

import (
	"fmt"
	"strings"
)

// Filters is the raw filter set accepted by the search endpoint.
type Filters struct {
	SearchTerm string   `json:"q"`
	Category   string   `json:"category,omitempty"`
	MinPrice   *float64 `json:"minPrice,omitempty"`
	MaxPrice   *float64 `json:"maxPrice,omitempty"`
	Retailer   string   `json:"retailer,omitempty"`
	SortBy     string   `json:"sortBy"`
	Limit      int      `json:"limit"`
	Offset     int      `json:"offset"`
}

// Query is the interpreted form of a search request: the corrected term plus
// the brand and category tags detected from it.
type Query struct {
	Filters
	CorrectedTerm      string
	DetectedBrands     []string
	DetectedCategories []string
}

// Args accumulates ordered query parameters while a clause tree is lowered.
type Args struct {
	values []any
}

// Next registers a value and returns its positional placeholder.
func (a *Args) Next(v any) string {
	a.values = append(a.values, v)
	return fmt.Sprintf("$%d", len(a.values))
}

// Values returns the accumulated parameters in placeholder order.
func (a *Args) Values() []any {
	return a.values
}

// Clause is one node of the boolean filter tree. Lowering produces SQL
// against the shared retailer-table columns (aliased p).
type Clause interface {
	SQL(a *Args) string
}

// Raw is a fixed SQL fragment with no parameters.
type Raw string

func (r Raw) SQL(*Args) string { return string(r) }

// Cmp compares a column against a parameterized value.
type Cmp struct {
	Column string
	Op     string
	Value  any
}

func (c Cmp) SQL(a *Args) string {
	return fmt.Sprintf("p.%s %s %s", c.Column, c.Op, a.Next(c.Value))
}

// Contains is a case-insensitive substring match on a column.
type Contains struct {
	Column string
	Term   string
}

func (c Contains) SQL(a *Args) string {
	return fmt.Sprintf("p.%s ILIKE %s", c.Column, a.Next("%"+c.Term+"%"))
}

// And joins child clauses with AND.
type And []Clause

func (g And) SQL(a *Args) string { return joinGroup(g, " AND ", a) }

// Or joins child clauses with OR.
type Or []Clause

func (g Or) SQL(a *Args) string { return joinGroup(g, " OR ", a) }

func joinGroup(cs []Clause, sep string, a *Args) string {
	if len(cs) == 1 {
		return cs[0].SQL(a)
	}
	parts := make([]string, 0, len(cs))
	for _, c := range cs {
		parts = append(parts, c.SQL(a))
	}
	return "(" + strings.Join(parts, sep) + ")"
}

// BuildPredicate constructs the filter tree applied identically to every
// retailer table:
//
//   - soft-deleted and out-of-stock rows are always excluded
//   - detected categories form an OR group with name/description fallback;
//     detected brands, when present, are ANDed on top of that group
//   - without detected categories the term matches name OR brand OR description
//   - explicit category, min price and max price are ANDed last
func BuildPredicate(q *Query) Clause {
	pred := And{
		Raw("p.is_deleted = FALSE"),
		Raw("p.availability_status = 'in_stock'"),
	}

	if q.SearchTerm != "" {
		if len(q.DetectedCategories) > 0 {
			catGroup := make(Or, 0, len(q.DetectedCategories))
			for _, cat := range q.DetectedCategories {
				catGroup = append(catGroup, Contains{Column: "category", Term: cat})
			}
			termGroup := Or{
				catGroup,
				Contains{Column: "product_name", Term: q.CorrectedTerm},
				Contains{Column: "description", Term: q.CorrectedTerm},
			}
			if len(q.DetectedBrands) > 0 {
				pred = append(pred, And{termGroup, brandGroup(q.DetectedBrands)})
			} else {
				pred = append(pred, termGroup)
			}
		} else {
			termGroup := Or{Contains{Column: "product_name", Term: q.CorrectedTerm}}
			if len(q.DetectedBrands) > 0 {
				termGroup = append(termGroup, brandGroup(q.DetectedBrands))
			}
			termGroup = append(termGroup, Contains{Column: "description", Term: q.CorrectedTerm})
			pred = append(pred, termGroup)
		}
	}

	if q.Category != "" {
		pred = append(pred, Cmp{Column: "category", Op: "=", Value: q.Category})
	}
	if q.MinPrice != nil {
		pred = append(pred, Cmp{Column: "price_inr", Op: ">=", Value: *q.MinPrice})
	}
	if q.MaxPrice != nil {
		pred = append(pred, Cmp{Column: "price_inr", Op: "<=", Value: *q.MaxPrice})
	}
	return pred
}

func brandGroup(brands []string) Or {
	g := make(Or, 0, len(brands))
	for _, b := range brands {
		g = append(g, Contains{Column: "brand", Term: b})
	}
	return g
}

// Lower renders a clause tree to a WHERE body and its ordered parameters.
func Lower(c Clause) (string, []any) {
	var a Args
	sql := c.SQL(&a)
	return sql, a.Values()
}
