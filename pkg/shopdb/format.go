package shopdb

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

const dateLayout = "2006-01-02"

// FormatOrder renders one order with its items.
func FormatOrder(o *Order) string {
	if o == nil {
		return "Order information could not be found."
	}

	var b strings.Builder
	b.WriteString("Order details\n")
	fmt.Fprintf(&b, "- Order number: %s\n", o.OrderID)
	fmt.Fprintf(&b, "- Order date: %s\n", formatDate(o))
	fmt.Fprintf(&b, "- Status: %s\n", o.Status)
	fmt.Fprintf(&b, "- Total: %s\n", FormatWon(o.TotalAmount))
	if o.TrackingNumber != "" {
		fmt.Fprintf(&b, "- Tracking number: %s\n", o.TrackingNumber)
		fmt.Fprintf(&b, "- Carrier: %s\n", o.DeliveryCompany)
	}
	fmt.Fprintf(&b, "- Shipping address: %s\n", o.ShippingAddress)

	if len(o.Items) > 0 {
		b.WriteString("\nItems\n")
		for _, it := range o.Items {
			fmt.Fprintf(&b, "- %s x %d - %s\n", it.ProductName, it.Quantity, FormatWon(it.Price))
		}
	}
	return b.String()
}

// FormatOrderList renders a short list; at most two item names are shown per order.
func FormatOrderList(orders []Order) string {
	if len(orders) == 0 {
		return "There are no orders."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Recent orders (%d total)\n\n", len(orders))
	for i, o := range orders {
		fmt.Fprintf(&b, "%d. %s (%s)\n", i+1, o.OrderID, formatDate(&o))
		fmt.Fprintf(&b, "   Status: %s | Total: %s\n", o.Status, FormatWon(o.TotalAmount))
		if len(o.Items) > 0 {
			names := make([]string, 0, 3)
			for _, it := range o.Items[:min(2, len(o.Items))] {
				names = append(names, it.ProductName)
			}
			if len(o.Items) > 2 {
				names = append(names, fmt.Sprintf("and %d more", len(o.Items)-2))
			}
			fmt.Fprintf(&b, "   Items: %s\n", strings.Join(names, ", "))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func FormatUser(u *User) string {
	if u == nil {
		return "User information could not be found."
	}

	var b strings.Builder
	b.WriteString("Customer profile\n")
	fmt.Fprintf(&b, "- Name: %s\n", u.Username)
	fmt.Fprintf(&b, "- Email: %s\n", u.Email)
	fmt.Fprintf(&b, "- Phone: %s\n", u.Phone)
	fmt.Fprintf(&b, "- Address: %s\n", u.Address)
	fmt.Fprintf(&b, "- Membership grade: %s\n", u.MemberGrade)
	if !u.JoinDate.IsZero() {
		fmt.Fprintf(&b, "- Joined: %s\n", u.JoinDate.Format(dateLayout))
	}
	fmt.Fprintf(&b, "- Total orders: %d\n", u.TotalOrders)
	fmt.Fprintf(&b, "- Total spent: %s\n", FormatWon(u.TotalAmount))
	return b.String()
}

// FormatProducts renders search results. Specifications and features are decoded from their JSON
// text when possible and printed raw otherwise.
func FormatProducts(products []Product) string {
	if len(products) == 0 {
		return "No products were found."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Product search results (%d)\n\n", len(products))
	for i, p := range products {
		fmt.Fprintf(&b, "%d. %s\n", i+1, p.Name)
		fmt.Fprintf(&b, "   Price: %s\n", FormatWon(p.Price))
		if p.Description != "" {
			fmt.Fprintf(&b, "   Description: %s\n", p.Description)
		}
		if specs := renderSpecifications(p.Specifications); specs != "" {
			fmt.Fprintf(&b, "   Specs: %s\n", specs)
		}
		if features := renderFeatures(p.Features); features != "" {
			fmt.Fprintf(&b, "   Features: %s\n", features)
		}
		fmt.Fprintf(&b, "   Stock: %d\n\n", p.Stock)
	}
	return b.String()
}

// FormatPurchasedItems lists every item the user bought across orders.
func FormatPurchasedItems(orders []Order) string {
	var b strings.Builder
	b.WriteString("Products you purchased:\n")
	n := 0
	for _, o := range orders {
		for _, it := range o.Items {
			fmt.Fprintf(&b, "- %s (qty %d)\n", it.ProductName, it.Quantity)
			n++
		}
	}
	if n == 0 {
		return "You have not purchased any products yet."
	}
	return b.String()
}

// FormatWon renders an amount with thousands separators.
func FormatWon(amount int64) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}
	digits := strconv.FormatInt(amount, 10)

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	lead := len(digits) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(digits[:lead])
	for i := lead; i < len(digits); i += 3 {
		b.WriteByte(',')
		b.WriteString(digits[i : i+3])
	}
	b.WriteString(" won")
	return b.String()
}

func formatDate(o *Order) string {
	if o.OrderDate.IsZero() {
		return "unknown"
	}
	return o.OrderDate.Format(dateLayout)
}

func renderSpecifications(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	parsed := gjson.Parse(raw)
	if !gjson.Valid(raw) || !parsed.IsObject() {
		return raw
	}

	parts := make([]string, 0, 4)
	parsed.ForEach(func(key, value gjson.Result) bool {
		parts = append(parts, key.String()+": "+value.String())
		return true
	})
	return strings.Join(parts, ", ")
}

func renderFeatures(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	parsed := gjson.Parse(raw)
	if !gjson.Valid(raw) || !parsed.IsArray() {
		return raw
	}

	parts := make([]string, 0, 4)
	for _, v := range parsed.Array() {
		parts = append(parts, v.String())
	}
	return strings.Join(parts, ", ")
}
