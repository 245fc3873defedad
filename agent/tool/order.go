package tool

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/tanpawarit/Chative-Shop-Assistant/pkg/shopdb"
)

const (
	profileRecentOrders = 3
	phoneRecentOrders   = 5
)

type orderLookupArgs struct {
	OrderID string      `json:"order_id"`
	Phone   string      `json:"phone"`
	UserID  looseString `json:"user_id"`
}

// orderLookup answers order and profile questions. Without arguments it falls back to the user
// bound at build time.
type orderLookup struct {
	shop   ShopData
	userID string
}

func (c *orderLookup) Info() *schema.ToolInfo {
	return &schema.ToolInfo{
		Name: NameOrderLookup,
		Desc: "Look up orders, order status, order history and customer profile information (\"who am I\", \"my info\", \"my orders\"). Call it without arguments to use the signed-in customer.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"order_id": {Type: schema.String, Desc: "Order number, e.g. ORD20241201001"},
			"phone":    {Type: schema.String, Desc: "Phone number, e.g. 010-1234-5678"},
			"user_id":  {Type: schema.String, Desc: "Customer id; omit for the signed-in customer"},
		}),
	}
}

func (c *orderLookup) Invoke(ctx context.Context, argsJSON string) (string, error) {
	args, err := decodeArgs[orderLookupArgs](argsJSON)
	if err != nil {
		return "", err
	}
	if c.shop == nil {
		return "", capabilityError(NameOrderLookup, errors.New("shop database is not configured"))
	}

	orderID := strings.TrimSpace(args.OrderID)
	phone := strings.TrimSpace(args.Phone)
	switch {
	case orderID != "":
		order, err := c.shop.OrderByID(ctx, orderID)
		if errors.Is(err, shopdb.ErrNotFound) {
			return fmt.Sprintf("No order was found for order number %s.", orderID), nil
		}
		if err != nil {
			return "", capabilityError(NameOrderLookup, err)
		}
		return shopdb.FormatOrder(order), nil

	case phone != "":
		orders, err := c.shop.RecentOrdersByPhone(ctx, phone, phoneRecentOrders)
		if errors.Is(err, shopdb.ErrNotFound) || (err == nil && len(orders) == 0) {
			return fmt.Sprintf("No orders are registered for phone number %s.", phone), nil
		}
		if err != nil {
			return "", capabilityError(NameOrderLookup, err)
		}
		return shopdb.FormatOrderList(orders), nil

	case args.UserID != "":
		id, ok := parseUserID(string(args.UserID))
		if !ok {
			return fmt.Sprintf("No customer was found for id %s.", args.UserID), nil
		}
		user, err := c.shop.UserByID(ctx, id)
		if errors.Is(err, shopdb.ErrNotFound) {
			return fmt.Sprintf("No customer was found for id %s.", args.UserID), nil
		}
		if err != nil {
			return "", capabilityError(NameOrderLookup, err)
		}
		return shopdb.FormatUser(user), nil
	}

	id, ok := parseUserID(c.userID)
	if !ok {
		return "To look up an order I need an order number, a phone number or a customer id. If you are signed in, ask for \"my info\" or \"my orders\".", nil
	}
	return c.profileWithRecentOrders(ctx, id)
}

func (c *orderLookup) profileWithRecentOrders(ctx context.Context, userID int64) (string, error) {
	user, err := c.shop.UserByID(ctx, userID)
	if errors.Is(err, shopdb.ErrNotFound) {
		return "Customer information could not be found.", nil
	}
	if err != nil {
		return "", capabilityError(NameOrderLookup, err)
	}

	orders, err := c.shop.UserOrders(ctx, userID, profileRecentOrders)
	if err != nil {
		return "", capabilityError(NameOrderLookup, err)
	}

	var b strings.Builder
	b.WriteString(shopdb.FormatUser(user))
	if len(orders) == 0 {
		b.WriteString("\nOrders: no orders yet.\n")
		return b.String(), nil
	}
	fmt.Fprintf(&b, "\nRecent orders (last %d)\n", len(orders))
	for i, o := range orders {
		date := "unknown"
		if !o.OrderDate.IsZero() {
			date = o.OrderDate.Format("2006-01-02")
		}
		fmt.Fprintf(&b, "%d. %s - %s (%s)\n", i+1, o.OrderID, o.Status, date)
	}
	return b.String(), nil
}
