package tool

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/Chative-Shop-Assistant/agent/contract"
	"github.com/tanpawarit/Chative-Shop-Assistant/pkg/carrier"
	"github.com/tanpawarit/Chative-Shop-Assistant/pkg/shopdb"
)

const (
	NameRAGSearch        = "rag_search"
	NameOrderLookup      = "order_lookup"
	NameDeliveryTracking = "delivery_tracking"
	NameProductSearch    = "product_search"
	NameGeneralResponse  = "general_response"
)

// ShopData is the read side of the shop database used by the capabilities.
type ShopData interface {
	UserByID(ctx context.Context, userID int64) (*shopdb.User, error)
	OrderByID(ctx context.Context, orderID string) (*shopdb.Order, error)
	UserOrders(ctx context.Context, userID int64, limit int) ([]shopdb.Order, error)
	RecentOrdersByPhone(ctx context.Context, phone string, limit int) ([]shopdb.Order, error)
	SearchProducts(ctx context.Context, keyword string, limit int) ([]shopdb.Product, error)
}

type DeliveryTracker interface {
	Track(ctx context.Context, trackingNumber, carrierName string) (*carrier.Delivery, error)
	TrackOrder(ctx context.Context, trackingNumber, carrierName string) *carrier.Delivery
}

// KnowledgeBase answers policy and FAQ questions from the document store.
type KnowledgeBase interface {
	Answer(ctx context.Context, query string) (string, error)
}

// Registry holds the shared backends and builds per-user catalogs from them.
type Registry struct {
	shop    ShopData
	tracker DeliveryTracker
	kb      KnowledgeBase
}

func NewRegistry(shop ShopData, tracker DeliveryTracker, kb KnowledgeBase) *Registry {
	return &Registry{shop: shop, tracker: tracker, kb: kb}
}

// Build allocates a fresh catalog bound to userID. It performs no I/O.
func (r *Registry) Build(userID string) *Catalog {
	userID = strings.TrimSpace(userID)
	return NewCatalog(userID,
		&ragSearch{kb: r.kb},
		&orderLookup{shop: r.shop, userID: userID},
		&deliveryTracking{shop: r.shop, tracker: r.tracker, userID: userID},
		&productSearch{shop: r.shop, userID: userID},
		&generalResponse{},
	)
}

type Descriptor struct {
	Name        string
	Description string
}

// Catalog is an ordered, name-keyed set of capabilities.
type Catalog struct {
	userID string
	order  []contractx.Capability
	byName map[string]contractx.Capability
}

var _ contractx.CapabilitySet = (*Catalog)(nil)

// NewCatalog keeps the first capability registered under each name.
func NewCatalog(userID string, caps ...contractx.Capability) *Catalog {
	c := &Catalog{
		userID: userID,
		order:  make([]contractx.Capability, 0, len(caps)),
		byName: make(map[string]contractx.Capability, len(caps)),
	}
	for _, capability := range caps {
		if capability == nil {
			continue
		}
		info := capability.Info()
		if info == nil || strings.TrimSpace(info.Name) == "" {
			continue
		}
		if _, dup := c.byName[info.Name]; dup {
			continue
		}
		c.byName[info.Name] = capability
		c.order = append(c.order, capability)
	}
	return c
}

func (c *Catalog) UserID() string {
	return c.userID
}

func (c *Catalog) Infos() []*schema.ToolInfo {
	infos := make([]*schema.ToolInfo, 0, len(c.order))
	for _, capability := range c.order {
		infos = append(infos, capability.Info())
	}
	return infos
}

func (c *Catalog) Lookup(name string) (contractx.Capability, bool) {
	capability, ok := c.byName[strings.TrimSpace(name)]
	return capability, ok
}

func (c *Catalog) Describe() []Descriptor {
	out := make([]Descriptor, 0, len(c.order))
	for _, capability := range c.order {
		info := capability.Info()
		out = append(out, Descriptor{Name: info.Name, Description: info.Desc})
	}
	return out
}
