package reporting

import (
	"strings"

	"github.com/shopspring/decimal"

	"vetreport/backend/internal/domain"
)

// UncategorizedLabel names the bucket for lines without a known category.
const UncategorizedLabel = "Uncategorized"

type ProductMeta struct {
	Name      string
	Category  string
	Price     decimal.Decimal
	BasePrice decimal.Decimal
	Markup    decimal.Decimal
}

// ProductLookup resolves sold line names against the inventory catalog.
type ProductLookup struct {
	byName map[string]ProductMeta
}

func NewProductLookup(items []domain.InventoryItem) ProductLookup {
	byName := make(map[string]ProductMeta, len(items))
	for _, item := range items {
		key := lookupKey(item.Name)
		if key == "" {
			continue
		}
		if _, exists := byName[key]; exists {
			continue
		}
		byName[key] = ProductMeta{
			Name:      key,
			Category:  strings.TrimSpace(item.Category),
			Price:     item.Price,
			BasePrice: item.BasePrice,
			Markup:    item.EffectiveMarkup(),
		}
	}
	return ProductLookup{byName: byName}
}

func (l ProductLookup) Find(name string) (ProductMeta, bool) {
	meta, ok := l.byName[lookupKey(name)]
	return meta, ok
}

type ServiceMeta struct {
	Name         string
	CategoryID   string
	CategoryName string
	Price        decimal.Decimal
}

// MatchesCategory accepts either the category id or its display name.
func (m ServiceMeta) MatchesCategory(filter string) bool {
	filter = strings.TrimSpace(filter)
	if filter == "" {
		return true
	}
	return filter == m.CategoryID || filter == m.CategoryName
}

type ServiceLookup struct {
	byName map[string]ServiceMeta
}

func NewServiceLookup(entries []domain.ServiceCatalogEntry, categories []domain.ServiceCategory) ServiceLookup {
	names := make(map[string]string, len(categories))
	for _, category := range categories {
		names[category.ID] = strings.TrimSpace(category.Name)
	}

	byName := make(map[string]ServiceMeta, len(entries))
	for _, entry := range entries {
		key := lookupKey(entry.Name)
		if key == "" {
			continue
		}
		if _, exists := byName[key]; exists {
			continue
		}
		byName[key] = ServiceMeta{
			Name:         key,
			CategoryID:   entry.CategoryID,
			CategoryName: names[entry.CategoryID],
			Price:        entry.Price,
		}
	}
	return ServiceLookup{byName: byName}
}

func (l ServiceLookup) Find(name string) (ServiceMeta, bool) {
	meta, ok := l.byName[lookupKey(name)]
	return meta, ok
}

func categoryLabel(category string) string {
	category = strings.TrimSpace(category)
	if category == "" {
		return UncategorizedLabel
	}
	return category
}

func lookupKey(name string) string {
	return strings.TrimSpace(name)
}
