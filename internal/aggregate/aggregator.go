// Package aggregate merges per-tile and per-page partial extractions into a
// single document-level result, fuzzy-deduplicating line items that appear in
// more than one overlapping tile.
package aggregate

import (
	"strings"

	"github.com/agext/levenshtein"

	"takeoff/internal/domain"
)

// DefaultDedupThreshold is the similarity above which two line items are
// treated as the same logical item.
const DefaultDedupThreshold = 0.85

// Aggregator pools partial canonical documents and deduplicates them.
type Aggregator struct {
	threshold float64
}

// New creates an Aggregator with the given similarity threshold. A threshold
// outside (0,1] falls back to the default.
func New(threshold float64) *Aggregator {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultDedupThreshold
	}
	return &Aggregator{threshold: threshold}
}

// Merge pools all partial results into one deduplicated document. On return,
// no two line items have fuzzy similarity above the threshold. Merge is
// idempotent: feeding its output back in yields the same document.
func (a *Aggregator) Merge(partials []*domain.CanonicalDocument) *domain.CanonicalDocument {
	out := &domain.CanonicalDocument{
		LineItems:      []domain.LineItem{},
		Specifications: []domain.Specification{},
		Materials:      []domain.Material{},
	}

	for _, p := range partials {
		if p == nil {
			continue
		}
		for _, item := range p.LineItems {
			a.addLineItem(out, item)
		}
		for _, spec := range p.Specifications {
			addSpecification(out, spec)
		}
		for _, mat := range p.Materials {
			a.addMaterial(out, mat)
		}
		mergeProjectInfo(&out.ProjectInfo, p.ProjectInfo)
	}

	return out
}

func (a *Aggregator) addLineItem(doc *domain.CanonicalDocument, item domain.LineItem) {
	key := lineItemKey(item)
	for i := range doc.LineItems {
		if levenshtein.Similarity(key, lineItemKey(doc.LineItems[i]), nil) >= a.threshold {
			merged := mergeLineItems(doc.LineItems[i], item)
			// Merging can lengthen the kept description and push it over the
			// threshold against another retained item, so pull the merged
			// item out and re-add it until no pair collides.
			doc.LineItems = append(doc.LineItems[:i], doc.LineItems[i+1:]...)
			a.addLineItem(doc, merged)
			return
		}
	}
	doc.LineItems = append(doc.LineItems, item)
}

// lineItemKey concatenates the identity fields used for fuzzy comparison.
func lineItemKey(item domain.LineItem) string {
	return normalize(item.ItemNumber + " " + item.Description)
}

// mergeLineItems keeps the more complete value of each field.
func mergeLineItems(existing, candidate domain.LineItem) domain.LineItem {
	out := existing
	if out.ItemNumber == "" {
		out.ItemNumber = candidate.ItemNumber
	}
	if len(candidate.Description) > len(out.Description) {
		out.Description = candidate.Description
	}
	if out.Quantity == 0 {
		out.Quantity = candidate.Quantity
	}
	if out.Unit == "" {
		out.Unit = candidate.Unit
	}
	if out.UnitPrice == nil {
		out.UnitPrice = candidate.UnitPrice
	}
	return out
}

func addSpecification(doc *domain.CanonicalDocument, spec domain.Specification) {
	key := normalize(spec.Code)
	for i := range doc.Specifications {
		if normalize(doc.Specifications[i].Code) == key {
			if len(spec.Description) > len(doc.Specifications[i].Description) {
				doc.Specifications[i].Description = spec.Description
			}
			return
		}
	}
	doc.Specifications = append(doc.Specifications, spec)
}

func (a *Aggregator) addMaterial(doc *domain.CanonicalDocument, mat domain.Material) {
	key := normalize(mat.Name)
	for i := range doc.Materials {
		if levenshtein.Similarity(key, normalize(doc.Materials[i].Name), nil) >= a.threshold {
			if doc.Materials[i].Quantity == 0 {
				doc.Materials[i].Quantity = mat.Quantity
			}
			if doc.Materials[i].Unit == "" {
				doc.Materials[i].Unit = mat.Unit
			}
			if doc.Materials[i].Specification == "" {
				doc.Materials[i].Specification = mat.Specification
			}
			return
		}
	}
	doc.Materials = append(doc.Materials, mat)
}

func mergeProjectInfo(dst *domain.ProjectInfo, src domain.ProjectInfo) {
	if dst.Name == "" {
		dst.Name = src.Name
	}
	if dst.Location == "" {
		dst.Location = src.Location
	}
	if dst.BidDate == "" {
		dst.BidDate = src.BidDate
	}
}

// normalize lowercases and collapses runs of whitespace so that formatting
// differences between tiles do not defeat the similarity comparison.
func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
