package shopdb

import (
	"strings"
	"testing"
	"time"
)

func TestFormatWon(t *testing.T) {
	t.Parallel()

	cases := map[int64]string{
		0:        "0 won",
		999:      "999 won",
		1000:     "1,000 won",
		45000:    "45,000 won",
		1234567:  "1,234,567 won",
		-2500:    "-2,500 won",
		10000000: "10,000,000 won",
	}
	for in, want := range cases {
		if got := FormatWon(in); got != want {
			t.Fatalf("FormatWon(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatOrderIncludesTrackingAndItems(t *testing.T) {
	t.Parallel()

	out := FormatOrder(&Order{
		OrderID:         "ORD20241201001",
		OrderDate:       time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC),
		Status:          StatusShipping,
		TrackingNumber:  "123456789012",
		DeliveryCompany: "Hanjin",
		TotalAmount:     89000,
		ShippingAddress: "Seoul",
		Items: []OrderItem{
			{ProductName: "Wireless earbuds", Quantity: 1, Price: 89000},
		},
	})

	for _, want := range []string{"ORD20241201001", "2024-12-01", "123456789012", "Hanjin", "Wireless earbuds x 1", "89,000 won"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in %q", want, out)
		}
	}
}

func TestFormatOrderListTruncatesItemNames(t *testing.T) {
	t.Parallel()

	out := FormatOrderList([]Order{{
		OrderID: "ORD1",
		Status:  StatusDelivered,
		Items: []OrderItem{
			{ProductName: "A"}, {ProductName: "B"}, {ProductName: "C"}, {ProductName: "D"},
		},
	}})
	if !strings.Contains(out, "Items: A, B, and 2 more") {
		t.Fatalf("unexpected list: %q", out)
	}
	if strings.Contains(out, ", C") {
		t.Fatalf("third item must be hidden: %q", out)
	}
}

func TestFormatProductsDecodesJSONFields(t *testing.T) {
	t.Parallel()

	out := FormatProducts([]Product{{
		Name:           "Knit sweater",
		Price:          39000,
		Specifications: `{"material":"wool"}`,
		Features:       `["warm","soft"]`,
		Stock:          4,
	}})
	if !strings.Contains(out, "Specs: material: wool") {
		t.Fatalf("specs not decoded: %q", out)
	}
	if !strings.Contains(out, "Features: warm, soft") {
		t.Fatalf("features not decoded: %q", out)
	}

	raw := FormatProducts([]Product{{Name: "Plain", Specifications: "cotton 100%"}})
	if !strings.Contains(raw, "Specs: cotton 100%") {
		t.Fatalf("raw specs must be kept: %q", raw)
	}
}

func TestFormatPurchasedItemsEmpty(t *testing.T) {
	t.Parallel()

	if got := FormatPurchasedItems(nil); got != "You have not purchased any products yet." {
		t.Fatalf("unexpected output: %q", got)
	}
	got := FormatPurchasedItems([]Order{{Items: []OrderItem{{ProductName: "Mug", Quantity: 2}}}})
	if !strings.Contains(got, "Mug (qty 2)") {
		t.Fatalf("unexpected output: %q", got)
	}
}

func TestOrderIsInTransit(t *testing.T) {
	t.Parallel()

	if !(Order{Status: StatusShipping}).IsInTransit() || !(Order{Status: StatusPreparing}).IsInTransit() {
		t.Fatal("shipping and preparing orders are in transit")
	}
	if (Order{Status: StatusDelivered}).IsInTransit() {
		t.Fatal("delivered order is not in transit")
	}
}
