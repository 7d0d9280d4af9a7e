package reporting

import (
	"math"
	"slices"
	"strings"
	"time"

	"vetreport/backend/internal/domain"
)

// Candidate is a catalog entry that is eligible to be reported as a slow mover.
type Candidate struct {
	Kind     domain.LineKind
	Name     string
	Category string
}

func ProductScope(items []domain.InventoryItem, category string) []Candidate {
	category = strings.TrimSpace(category)
	out := make([]Candidate, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		name := lookupKey(item.Name)
		if name == "" {
			continue
		}
		if category != "" && strings.TrimSpace(item.Category) != category {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, Candidate{Kind: domain.LineKindProduct, Name: name, Category: categoryLabel(item.Category)})
	}
	return out
}

func ServiceScope(entries []domain.ServiceCatalogEntry, lookup ServiceLookup, category string) []Candidate {
	out := make([]Candidate, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		meta, ok := lookup.Find(entry.Name)
		if !ok || !meta.MatchesCategory(category) {
			continue
		}
		if _, dup := seen[meta.Name]; dup {
			continue
		}
		seen[meta.Name] = struct{}{}
		out = append(out, Candidate{Kind: domain.LineKindService, Name: meta.Name, Category: categoryLabel(meta.CategoryName)})
	}
	return out
}

// SlowMoverCandidates keeps the scope entries that did not sell.
func SlowMoverCandidates(scope []Candidate, sold map[string]struct{}) []Candidate {
	out := make([]Candidate, 0, len(scope))
	for _, c := range scope {
		if _, ok := sold[c.Name]; ok {
			continue
		}
		out = append(out, c)
	}
	return out
}

func CandidateNames(cands []Candidate) []string {
	names := make([]string, 0, len(cands))
	for _, c := range cands {
		names = append(names, c.Name)
	}
	return names
}

// AnnotateSlowMovers attaches the last sale before periodEnd. Never-sold
// entries come first by name, then the stalest sales.
func AnnotateSlowMovers(cands []Candidate, lastSold map[string]time.Time, periodEnd time.Time) []domain.SlowMover {
	out := make([]domain.SlowMover, 0, len(cands))
	for _, c := range cands {
		mover := domain.SlowMover{Kind: c.Kind, Name: c.Name, Category: c.Category, NeverSold: true}
		if at, ok := lastSold[c.Name]; ok && !at.IsZero() {
			last := at
			days := int(math.Round(periodEnd.Sub(last).Hours() / 24))
			mover.LastSoldAt = &last
			mover.DaysSince = &days
			mover.NeverSold = false
		}
		out = append(out, mover)
	}

	slices.SortStableFunc(out, func(a, b domain.SlowMover) int {
		switch {
		case a.NeverSold && !b.NeverSold:
			return -1
		case !a.NeverSold && b.NeverSold:
			return 1
		case !a.NeverSold:
			if c := a.LastSoldAt.Compare(*b.LastSoldAt); c != 0 {
				return c
			}
		}
		return strings.Compare(a.Name, b.Name)
	})
	return out
}
