package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	RoleAdmin    = "admin"
	RoleDoctor   = "doctor"
	RoleHR       = "hr"
	RoleCustomer = "customer"
)

type LineKind string

const (
	LineKindProduct LineKind = "product"
	LineKindService LineKind = "service"
)

// Mode selects which side of the business a report covers.
type Mode string

const (
	ModeProducts Mode = "products"
	ModeServices Mode = "services"
	ModeBoth     Mode = "both"
)

func (m Mode) IncludesProducts() bool { return m == ModeProducts || m == ModeBoth }
func (m Mode) IncludesServices() bool { return m == ModeServices || m == ModeBoth }

type CompareMode string

const (
	CompareNone CompareMode = "none"
	ComparePrev CompareMode = "prev"
	CompareYoY  CompareMode = "yoy"
)

// LineItem is one product or service entry of a transaction. Name is the join
// key against the catalog; it is not a foreign key.
type LineItem struct {
	Name      string              `json:"name"`
	Quantity  int                 `json:"quantity"`
	UnitPrice decimal.NullDecimal `json:"unit_price"`
	LineTotal decimal.NullDecimal `json:"line_total"`
}

// Units returns the sold quantity, defaulting to 1 when it was never recorded.
func (l LineItem) Units() int {
	if l.Quantity <= 0 {
		return 1
	}
	return l.Quantity
}

type Transaction struct {
	ID        string          `json:"id"`
	PaidAt    *time.Time      `json:"paid_at,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	PayerID   string          `json:"payer_id,omitempty"`
	PayerName string          `json:"payer_name"`
	StaffID   string          `json:"staff_id"`
	Amount    decimal.Decimal `json:"amount"`
	Products  []LineItem      `json:"products"`
	Services  []LineItem      `json:"services"`
}

// OccurredAt is the paid-at timestamp, falling back to created-at.
func (t Transaction) OccurredAt() time.Time {
	if t.PaidAt != nil && !t.PaidAt.IsZero() {
		return *t.PaidAt
	}
	return t.CreatedAt
}

// InRange matches when either paid-at or created-at falls inside [from, to].
func (t Transaction) InRange(from, to time.Time) bool {
	if t.PaidAt != nil && within(*t.PaidAt, from, to) {
		return true
	}
	return within(t.CreatedAt, from, to)
}

func (t Transaction) Lines(kind LineKind) []LineItem {
	if kind == LineKindService {
		return t.Services
	}
	return t.Products
}

type InventoryItem struct {
	ID              string              `json:"id"`
	Name            string              `json:"name"`
	Category        string              `json:"category"`
	Price           decimal.Decimal     `json:"price"`
	BasePrice       decimal.Decimal     `json:"base_price"`
	Markup          decimal.NullDecimal `json:"markup"`
	Quantity        int                 `json:"quantity"`
	ExpirationDates []time.Time         `json:"expiration_dates"`
}

// EffectiveMarkup returns the stored markup, or price minus base price floored
// at zero when none is stored. A stored negative markup is returned as-is.
func (i InventoryItem) EffectiveMarkup() decimal.Decimal {
	if i.Markup.Valid {
		return i.Markup.Decimal
	}
	derived := i.Price.Sub(i.BasePrice)
	if derived.IsNegative() {
		return decimal.Zero
	}
	return derived
}

type ServiceCategory struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type ServiceCatalogEntry struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	CategoryID string          `json:"category_id"`
	Price      decimal.Decimal `json:"price"`
}

type Actor struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type UserAccount struct {
	Username  string    `json:"username"`
	Password  string    `json:"-"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

func within(t, from, to time.Time) bool {
	return !t.Before(from) && !t.After(to)
}
