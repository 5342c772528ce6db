// Package notify composes customer-facing WhatsApp messages. Delivery is a
// wa.me deep link the operator's device opens; the server only formats the
// message body and destination and makes no delivery guarantee.
package notify

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const defaultDurationHours = 48

// Message is an outbound WhatsApp hand-off: a normalized destination phone
// number and a composed body.
type Message struct {
	Phone string
	Body  string
}

// Link renders the wa.me deep link for this message.
func (m Message) Link() string {
	return "https://wa.me/" + m.Phone + "?text=" + url.QueryEscape(m.Body)
}

// FormatPhone normalizes an Indonesian phone number for wa.me: digits only,
// leading 0 replaced with the 62 country code.
func FormatPhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if strings.HasPrefix(digits, "0") {
		return "62" + digits[1:]
	}
	if !strings.HasPrefix(digits, "62") {
		return "62" + digits
	}
	return digits
}

// ReceiptLine is one order item on the electronic receipt.
type ReceiptLine struct {
	ServiceName string
	Quantity    decimal.Decimal
	Unit        string
	UnitPrice   decimal.Decimal
	Subtotal    decimal.Decimal
}

// ReceiptData carries everything the electronic receipt needs. Shop fields
// come from the order's location; amounts are the order's snapshots.
type ReceiptData struct {
	OrderNumber    string
	ShopName       string
	ShopAddress    string
	ShopPhone      string
	CustomerName   string
	CustomerPhone  string
	Lines          []ReceiptLine
	DiscountCode   string
	DiscountAmount decimal.Decimal
	TotalAmount    decimal.Decimal
	Perfume        string
	IsPaid         bool
	CreatedAt      time.Time
	// MaxDurationHours is the longest turnaround among the ordered
	// services; zero falls back to the 48h default.
	MaxDurationHours int32
	TrackingURL      string
}

// Receipt composes the "nota elektronik" sent right after order intake.
func Receipt(d ReceiptData) Message {
	duration := d.MaxDurationHours
	if duration <= 0 {
		duration = defaultDurationHours
	}
	estimate := d.CreatedAt.Add(time.Duration(duration) * time.Hour)

	var b strings.Builder
	b.WriteString("NOTA ELEKTRONIK\n\n")
	b.WriteString(d.ShopName + "\n")
	if d.ShopAddress != "" {
		b.WriteString(d.ShopAddress + "\n")
	}
	if d.ShopPhone != "" {
		b.WriteString("HP : " + d.ShopPhone + "\n")
	}
	b.WriteString("\n=======================\n")
	fmt.Fprintf(&b, "No Nota : %s\n", d.OrderNumber)
	fmt.Fprintf(&b, "Pelanggan : %s\n", d.CustomerName)
	fmt.Fprintf(&b, "Masuk    : %s\n", d.CreatedAt.Format("02/01/2006 15:04"))
	fmt.Fprintf(&b, "Estimasi : %s\n", estimate.Format("02/01/2006 15:04"))
	b.WriteString("\n=======================\n")
	for _, line := range d.Lines {
		fmt.Fprintf(&b, "- %s\n%s %s x %s = Rp %s\n\n",
			line.ServiceName,
			line.Quantity.String(),
			line.Unit,
			formatRupiah(line.UnitPrice),
			formatRupiah(line.Subtotal),
		)
	}
	b.WriteString("=======================\n")
	if d.DiscountAmount.IsPositive() {
		code := d.DiscountCode
		if code == "" {
			code = "Promo"
		}
		fmt.Fprintf(&b, "Diskon (%s) : - Rp %s\n", code, formatRupiah(d.DiscountAmount))
	}
	fmt.Fprintf(&b, "Total        =  Rp %s\n", formatRupiah(d.TotalAmount))
	perfume := d.Perfume
	if perfume == "" {
		perfume = "Standard"
	}
	fmt.Fprintf(&b, "Parfum  : %s\n", perfume)
	if d.IsPaid {
		b.WriteString("Status  : LUNAS\n")
	} else {
		b.WriteString("Status  : BELUM BAYAR\n")
	}
	b.WriteString("=======================\n")
	if d.TrackingURL != "" {
		b.WriteString("\n" + d.TrackingURL + "\n")
	}
	b.WriteString("\nTerima Kasih")

	return Message{Phone: FormatPhone(d.CustomerPhone), Body: b.String()}
}

// PickupReadyData carries the fields of the "ready for pickup" message sent
// when an order finishes washing.
type PickupReadyData struct {
	OrderNumber   string
	ShopName      string
	CustomerName  string
	CustomerPhone string
	TotalAmount   decimal.Decimal
	IsPaid        bool
	TrackingURL   string
}

// PickupReady composes the notification for the PROCESSING to READY
// transition.
func PickupReady(d PickupReadyData) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Halo %s,\n\n", d.CustomerName)
	fmt.Fprintf(&b, "Cucian Anda dengan nota %s di %s sudah SELESAI dan siap diambil.\n\n", d.OrderNumber, d.ShopName)
	fmt.Fprintf(&b, "Total: Rp %s", formatRupiah(d.TotalAmount))
	if d.IsPaid {
		b.WriteString(" (LUNAS)")
	}
	b.WriteString("\n")
	if d.TrackingURL != "" {
		b.WriteString("\nLacak pesanan: " + d.TrackingURL + "\n")
	}
	b.WriteString("\nTerima Kasih")

	return Message{Phone: FormatPhone(d.CustomerPhone), Body: b.String()}
}

// formatRupiah renders a whole-rupiah amount with dot thousand separators,
// e.g. 15000 -> "15.000".
func formatRupiah(amount decimal.Decimal) string {
	s := amount.Round(0).String()
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	out := strings.Join(parts, ".")
	if neg {
		return "-" + out
	}
	return out
}
