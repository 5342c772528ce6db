// Package pricing converts a cart of laundry services into a priced order
// and validates promotional voucher codes.
package pricing

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/launderlink/api/internal/enum"
	"github.com/shopspring/decimal"
)

// Errors returned by voucher validation.
var (
	ErrVoucherNotFound      = errors.New("voucher code not found")
	ErrVoucherInactive      = errors.New("voucher is not active")
	ErrVoucherQuotaExceeded = errors.New("voucher quota exceeded")
)

// Errors returned by the Discount factory.
var (
	ErrEmptyCode         = errors.New("voucher code is required")
	ErrInvalidType       = errors.New("invalid discount type")
	ErrPercentOutOfRange = errors.New("percentage value must be between 0 and 100")
	ErrNegativeValue     = errors.New("discount value must not be negative")
	ErrNegativeQuota     = errors.New("quota must not be negative")
)

// CartLine is a single (service, quantity) selection. Quantities are
// decimal because laundry is sold by weight (1.5 kg is a valid quantity).
type CartLine struct {
	ServiceID uuid.UUID
	Quantity  decimal.Decimal
}

// CatalogEntry is the live service record a cart line prices against.
type CatalogEntry struct {
	Name          string
	Price         decimal.Decimal
	Unit          string
	DurationHours int32
}

// Catalog indexes service records by ID.
type Catalog map[uuid.UUID]CatalogEntry

// Discount is a voucher rule. Quota of zero means unlimited redemptions.
type Discount struct {
	Code      string
	Type      string
	Value     decimal.Decimal
	Quota     int32
	UsedCount int32
	Active    bool
}

// NewDiscount validates voucher parameters at creation time. Percentage
// values outside 0-100 and negative amounts are rejected here rather than
// trusted from callers.
func NewDiscount(code, discountType string, value decimal.Decimal, quota int32, active bool) (Discount, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return Discount{}, ErrEmptyCode
	}
	switch discountType {
	case enum.DiscountTypePercentage:
		if value.IsNegative() || value.GreaterThan(decimal.NewFromInt(100)) {
			return Discount{}, ErrPercentOutOfRange
		}
	case enum.DiscountTypeFixed:
		if value.IsNegative() {
			return Discount{}, ErrNegativeValue
		}
	default:
		return Discount{}, ErrInvalidType
	}
	if quota < 0 {
		return Discount{}, ErrNegativeQuota
	}
	return Discount{
		Code:   code,
		Type:   discountType,
		Value:  value,
		Quota:  quota,
		Active: active,
	}, nil
}

// Subtotal sums price * quantity over the cart. A line whose service is
// missing from the catalog contributes zero; stale carts are tolerated and
// the order simply prices what it can resolve.
func Subtotal(lines []CartLine, catalog Catalog) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		entry, ok := catalog[line.ServiceID]
		if !ok {
			continue
		}
		total = total.Add(entry.Price.Mul(line.Quantity))
	}
	return total
}

// ValidateVoucher resolves a code against the known discounts. Lookup is
// case-insensitive; codes are stored uppercase. Validation never mutates
// the discount record; only redemption increments the usage counter.
func ValidateVoucher(code string, discounts []Discount) (Discount, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	for _, d := range discounts {
		if d.Code != normalized {
			continue
		}
		if !d.Active {
			return Discount{}, ErrVoucherInactive
		}
		if d.Quota > 0 && d.UsedCount >= d.Quota {
			return Discount{}, ErrVoucherQuotaExceeded
		}
		return d, nil
	}
	return Discount{}, ErrVoucherNotFound
}

// DiscountAmount computes the rupiah value a voucher takes off a subtotal.
// Percentages round half-up to the whole rupiah (IDR has no minor units).
// The result is clamped to the subtotal so a voucher can never drive the
// total negative; an oversized voucher is capped, not rejected.
func DiscountAmount(subtotal decimal.Decimal, d Discount) decimal.Decimal {
	var amount decimal.Decimal
	if d.Type == enum.DiscountTypePercentage {
		amount = subtotal.Mul(d.Value).Div(decimal.NewFromInt(100)).Round(0)
	} else {
		amount = d.Value
	}
	if amount.GreaterThan(subtotal) {
		return subtotal
	}
	return amount
}

// Total derives the final order amount. Non-negative by construction given
// a clamped discount amount.
func Total(subtotal, discountAmount decimal.Decimal) decimal.Decimal {
	total := subtotal.Sub(discountAmount)
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}
