// Package query evaluates composable filter predicates over products
// entirely in memory. It is the reference code path for the store's
// native filter queries: both must agree on inclusion for the same
// logical criteria.
package query

import (
	"time"

	"github.com/pricetrack/pricetrack/internal/domain"
)

// Criterion is a single composable filter predicate over a product.
type Criterion interface {
	Matches(p *domain.Product) bool
}

// CategoryCriterion matches on the product's effective category. An
// empty category value means no constraint. A product without a
// category is treated as carrying the sentinel label.
type CategoryCriterion struct {
	Category string
	Sentinel string
}

func (c CategoryCriterion) Matches(p *domain.Product) bool {
	if c.Category == "" {
		return true
	}
	effective := p.Category
	if effective == "" {
		effective = c.Sentinel
	}
	return effective == c.Category
}

// PlaceCriterion matches on an exact place of purchase. An empty place
// means no constraint.
type PlaceCriterion struct {
	Place string
}

func (c PlaceCriterion) Matches(p *domain.Product) bool {
	return c.Place == "" || p.PlaceOfPurchase == c.Place
}

// DateCriterion matches products updated on the given calendar day,
// compared in local time. A nil date means no constraint.
type DateCriterion struct {
	Date *time.Time
}

const dayLayout = "2006-01-02"

func (c DateCriterion) Matches(p *domain.Product) bool {
	if c.Date == nil {
		return true
	}
	return c.Date.In(time.Local).Format(dayLayout) == p.UpdateDate.In(time.Local).Format(dayLayout)
}

// AndCriterion is the logical AND of two criteria. Either child can be
// replaced at runtime when a single filter value changes, without
// rebuilding the whole predicate tree.
type AndCriterion struct {
	left  Criterion
	right Criterion
}

func NewAnd(left, right Criterion) *AndCriterion {
	return &AndCriterion{left: left, right: right}
}

func (c *AndCriterion) ReplaceLeft(left Criterion) {
	c.left = left
}

func (c *AndCriterion) ReplaceRight(right Criterion) {
	c.right = right
}

func (c *AndCriterion) Matches(p *domain.Product) bool {
	return c.left.Matches(p) && c.right.Matches(p)
}

// Filter returns the products matching the criterion, preserving order.
func Filter(products []domain.Product, c Criterion) []domain.Product {
	out := make([]domain.Product, 0, len(products))
	for i := range products {
		if c.Matches(&products[i]) {
			out = append(out, products[i])
		}
	}
	return out
}
