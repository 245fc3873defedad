package tool

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/tanpawarit/Chative-Shop-Assistant/pkg/carrier"
	"github.com/tanpawarit/Chative-Shop-Assistant/pkg/shopdb"
)

const (
	productSearchOrders = 10
	inTransitOrders     = 3
)

type deliveryTrackingArgs struct {
	TrackingNumber looseString `json:"tracking_number"`
	OrderID        string      `json:"order_id"`
	Carrier        string      `json:"carrier"`
	ProductName    string      `json:"product_name"`
}

type deliveryTracking struct {
	shop    ShopData
	tracker DeliveryTracker
	userID  string
}

func (c *deliveryTracking) Info() *schema.ToolInfo {
	return &schema.ToolInfo{
		Name: NameDeliveryTracking,
		Desc: "Track deliveries by tracking number, order number, or product name within the signed-in customer's orders (\"where is my sweater?\"). Call it without arguments to check the customer's recent shipments.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"tracking_number": {Type: schema.String, Desc: "Parcel tracking number"},
			"order_id":        {Type: schema.String, Desc: "Order number"},
			"carrier":         {Type: schema.String, Desc: "Carrier name, e.g. CJ대한통운 or Hanjin"},
			"product_name":    {Type: schema.String, Desc: "Product name to find in the customer's orders"},
		}),
	}
}

func (c *deliveryTracking) Invoke(ctx context.Context, argsJSON string) (string, error) {
	args, err := decodeArgs[deliveryTrackingArgs](argsJSON)
	if err != nil {
		return "", err
	}
	if c.tracker == nil {
		return "", capabilityError(NameDeliveryTracking, errors.New("delivery tracker is not configured"))
	}

	trackingNumber := strings.TrimSpace(string(args.TrackingNumber))
	if trackingNumber != "" {
		return c.byTrackingNumber(ctx, trackingNumber, args.Carrier)
	}

	if c.shop == nil {
		return "", capabilityError(NameDeliveryTracking, errors.New("shop database is not configured"))
	}
	if orderID := strings.TrimSpace(args.OrderID); orderID != "" {
		return c.byOrderID(ctx, orderID)
	}

	userID, bound := parseUserID(c.userID)
	if product := strings.TrimSpace(args.ProductName); product != "" && bound {
		return c.byProductName(ctx, userID, product)
	}
	if bound {
		return c.recentShipments(ctx, userID)
	}
	return "To track a delivery I need a tracking number, an order number or a product name.", nil
}

func (c *deliveryTracking) byTrackingNumber(ctx context.Context, trackingNumber, carrierName string) (string, error) {
	carrierName = strings.TrimSpace(carrierName)
	if carrierName == "" {
		carrierName = carrier.DefaultCarrier
	}

	d, err := c.tracker.Track(ctx, trackingNumber, carrierName)
	switch {
	case errors.Is(err, carrier.ErrNotFound):
		return fmt.Sprintf("No delivery information was found for tracking number %s.", trackingNumber), nil
	case errors.Is(err, carrier.ErrUnsupportedCarrier):
		return fmt.Sprintf("The carrier %q is not supported for tracking.", carrierName), nil
	case err != nil:
		return "", capabilityError(NameDeliveryTracking, err)
	}
	return carrier.FormatDelivery(d), nil
}

func (c *deliveryTracking) byOrderID(ctx context.Context, orderID string) (string, error) {
	order, err := c.shop.OrderByID(ctx, orderID)
	if errors.Is(err, shopdb.ErrNotFound) {
		return fmt.Sprintf("No order was found for order number %s.", orderID), nil
	}
	if err != nil {
		return "", capabilityError(NameDeliveryTracking, err)
	}
	return carrier.FormatDelivery(c.tracker.TrackOrder(ctx, order.TrackingNumber, order.DeliveryCompany)), nil
}

func (c *deliveryTracking) byProductName(ctx context.Context, userID int64, product string) (string, error) {
	orders, err := c.shop.UserOrders(ctx, userID, productSearchOrders)
	if err != nil {
		return "", capabilityError(NameDeliveryTracking, err)
	}

	needle := strings.ToLower(product)
	for _, o := range orders {
		for _, it := range o.Items {
			if strings.Contains(strings.ToLower(it.ProductName), needle) {
				d := c.tracker.TrackOrder(ctx, o.TrackingNumber, o.DeliveryCompany)
				return fmt.Sprintf("Delivery status for '%s':\n\n%s", product, carrier.FormatDelivery(d)), nil
			}
		}
	}
	return fmt.Sprintf("No order containing '%s' was found.", product), nil
}

// recentShipments reports every order among the user's latest ones that is still shipping or
// being prepared.
func (c *deliveryTracking) recentShipments(ctx context.Context, userID int64) (string, error) {
	orders, err := c.shop.UserOrders(ctx, userID, inTransitOrders)
	if err != nil {
		return "", capabilityError(NameDeliveryTracking, err)
	}

	var b strings.Builder
	for _, o := range orders {
		if !o.IsInTransit() {
			continue
		}
		label := o.OrderID
		if len(o.Items) > 0 {
			label = o.Items[0].ProductName + " (" + o.OrderID + ")"
		}
		d := c.tracker.TrackOrder(ctx, o.TrackingNumber, o.DeliveryCompany)
		fmt.Fprintf(&b, "%s\n%s\n", label, carrier.FormatDelivery(d))
	}
	if b.Len() == 0 {
		return "There are no orders currently being shipped.", nil
	}
	return strings.TrimSpace(b.String()), nil
}
