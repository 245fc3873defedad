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
	defaultProductLimit = 5
	maxProductLimit     = 20
	purchaseHistorySize = 5
)

type productSearchArgs struct {
	Keyword string `json:"keyword"`
	Limit   int    `json:"limit"`
}

type productSearch struct {
	shop   ShopData
	userID string
}

func (c *productSearch) Info() *schema.ToolInfo {
	return &schema.ToolInfo{
		Name: NameProductSearch,
		Desc: "Search the product catalogue by name or keyword and report price, stock and specifications. Without a keyword, lists the signed-in customer's purchased products.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"keyword": {Type: schema.String, Desc: "Product name or keyword"},
			"limit":   {Type: schema.Integer, Desc: "Maximum number of results (default 5)"},
		}),
	}
}

func (c *productSearch) Invoke(ctx context.Context, argsJSON string) (string, error) {
	args, err := decodeArgs[productSearchArgs](argsJSON)
	if err != nil {
		return "", err
	}
	if c.shop == nil {
		return "", capabilityError(NameProductSearch, errors.New("shop database is not configured"))
	}

	keyword := strings.TrimSpace(args.Keyword)
	if keyword == "" {
		userID, ok := parseUserID(c.userID)
		if !ok {
			return "Please tell me which product you are looking for.", nil
		}
		orders, err := c.shop.UserOrders(ctx, userID, purchaseHistorySize)
		if err != nil {
			return "", capabilityError(NameProductSearch, err)
		}
		return shopdb.FormatPurchasedItems(orders), nil
	}

	limit := args.Limit
	if limit <= 0 {
		limit = defaultProductLimit
	}
	limit = min(limit, maxProductLimit)

	products, err := c.shop.SearchProducts(ctx, keyword, limit)
	if err != nil {
		return "", capabilityError(NameProductSearch, err)
	}
	if len(products) == 0 {
		return fmt.Sprintf("No products related to '%s' were found.", keyword), nil
	}
	return shopdb.FormatProducts(products), nil
}
