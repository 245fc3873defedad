package carrier

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"
)

var (
	ErrNotFound           = errors.New("delivery not found")
	ErrUnsupportedCarrier = errors.New("unsupported carrier")
	ErrRateLimited        = errors.New("carrier api rate limit exceeded")
)

// DefaultCarrier is used when neither the caller nor the order names a carrier.
const DefaultCarrier = "한진택배"

//go:embed mock_deliveries.json
var embeddedMockData []byte

type Config struct {
	BaseURL           string        `split_words:"true" default:"https://info.sweettracker.co.kr"`
	APIKey            string        `split_words:"true"`
	Timeout           time.Duration `split_words:"true" default:"10s"`
	RequestsPerMinute int           `split_words:"true" default:"30"`
	CacheSize         int           `split_words:"true" default:"256"`
	CacheTTL          time.Duration `split_words:"true" default:"5m"`
	MockDataPath      string        `split_words:"true"`
}

type TrackingEvent struct {
	Time        string `json:"date"`
	Status      string `json:"status"`
	Location    string `json:"location"`
	Description string `json:"description"`
}

type Delivery struct {
	TrackingNumber    string          `json:"tracking_number"`
	Carrier           string          `json:"delivery_company"`
	Status            string          `json:"status"`
	CurrentLocation   string          `json:"current_location,omitempty"`
	DeliveredAt       string          `json:"delivery_date,omitempty"`
	EstimatedDelivery string          `json:"estimated_delivery,omitempty"`
	Recipient         string          `json:"recipient,omitempty"`
	Message           string          `json:"message,omitempty"`
	History           []TrackingEvent `json:"tracking_history,omitempty"`
}

// Client tracks parcels through the SweetTracker API. Without an API key, when rate limited, or
// when the API fails, lookups are answered from the mock dataset instead.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      *expirable.LRU[string, Delivery]

	mockPath string
	mockOnce sync.Once
	mockData map[string]Delivery
	mockErr  error
}

func NewClient(cfg Config) (*Client, error) {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		return nil, errors.New("carrier base url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 30
	}
	cacheSize := cfg.CacheSize
	if cacheSize <= 0 {
		cacheSize = 256
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  strings.TrimSpace(cfg.APIKey),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter:  rate.NewLimiter(rate.Limit(float64(rpm)/60.0), max(1, rpm/10)),
		cache:    expirable.NewLRU[string, Delivery](cacheSize, nil, ttl),
		mockPath: strings.TrimSpace(cfg.MockDataPath),
	}, nil
}

func MustNew(cfg Config) *Client {
	client, err := NewClient(cfg)
	if err != nil {
		panic(err)
	}
	return client
}

var carrierCodes = map[string]string{
	"CJ대한통운": "04",
	"대한통운":   "04",
	"CJ":     "04",
	"로젠택배":   "06",
	"로젠":     "06",
	"한진택배":   "05",
	"한진":     "05",
	"우체국택배":  "01",
	"우체국":    "01",
	"롯데택배":   "08",
	"롯데":     "08",
	"cj":     "04",
	"logen":  "06",
	"hanjin": "05",
	"epost":  "01",
	"lotte":  "08",
}

// CarrierCode maps a carrier name (Korean or English) to its SweetTracker code.
func CarrierCode(name string) (string, bool) {
	name = strings.TrimSpace(name)
	if code, ok := carrierCodes[name]; ok {
		return code, true
	}
	code, ok := carrierCodes[strings.ToLower(name)]
	return code, ok
}

var statusDescriptions = map[string]string{
	"상품접수":  "parcel registered",
	"집화완료":  "parcel picked up",
	"간선상차":  "line-haul transport started",
	"간선하차":  "line-haul transport finished",
	"배송출발":  "out for delivery",
	"배송중":   "in transit",
	"배송완료":  "delivered",
	"배송준비중": "preparing for shipment",
}

// DescribeStatus returns an English description for a carrier status, or the status itself.
func DescribeStatus(status string) string {
	if d, ok := statusDescriptions[status]; ok {
		return d
	}
	return status
}

func cacheKey(carrierName, trackingNumber string) string {
	return strings.ToLower(strings.TrimSpace(carrierName)) + "|" + strings.TrimSpace(trackingNumber)
}

func (c *Client) loadMock() (map[string]Delivery, error) {
	c.mockOnce.Do(func() {
		raw := embeddedMockData
		if c.mockPath != "" {
			b, err := os.ReadFile(c.mockPath)
			if err != nil {
				c.mockErr = fmt.Errorf("read mock deliveries %s: %w", c.mockPath, err)
				return
			}
			raw = b
		}

		var items []Delivery
		if err := json.Unmarshal(raw, &items); err != nil {
			c.mockErr = fmt.Errorf("decode mock deliveries: %w", err)
			return
		}
		c.mockData = make(map[string]Delivery, len(items))
		for _, d := range items {
			c.mockData[d.TrackingNumber] = d
		}
	})
	return c.mockData, c.mockErr
}

func (c *Client) trackMock(trackingNumber string) (*Delivery, error) {
	data, err := c.loadMock()
	if err != nil {
		return nil, err
	}
	d, ok := data[strings.TrimSpace(trackingNumber)]
	if !ok {
		return nil, fmt.Errorf("%w: tracking number %s", ErrNotFound, trackingNumber)
	}
	return &d, nil
}

// FormatDelivery renders a delivery with at most the five newest history events.
func FormatDelivery(d *Delivery) string {
	if d == nil {
		return "Delivery information could not be found."
	}

	var b strings.Builder
	b.WriteString("Delivery status\n")
	fmt.Fprintf(&b, "- Tracking number: %s\n", orNA(d.TrackingNumber))
	fmt.Fprintf(&b, "- Carrier: %s\n", orNA(d.Carrier))
	fmt.Fprintf(&b, "- Current status: %s\n", orNA(d.Status))
	if d.Message != "" {
		fmt.Fprintf(&b, "- Note: %s\n", d.Message)
	}
	if d.CurrentLocation != "" {
		fmt.Fprintf(&b, "- Current location: %s\n", d.CurrentLocation)
	}
	if d.Recipient != "" {
		fmt.Fprintf(&b, "- Recipient: %s\n", d.Recipient)
	}
	switch {
	case d.DeliveredAt != "":
		fmt.Fprintf(&b, "- Delivered at: %s\n", d.DeliveredAt)
	case d.EstimatedDelivery != "":
		fmt.Fprintf(&b, "- Estimated delivery: %s\n", d.EstimatedDelivery)
	}

	if len(d.History) > 0 {
		events := append([]TrackingEvent(nil), d.History...)
		sort.SliceStable(events, func(i, j int) bool { return events[i].Time > events[j].Time })
		if len(events) > 5 {
			events = events[:5]
		}

		b.WriteString("\nTracking history\n")
		for _, ev := range events {
			fmt.Fprintf(&b, "- %s - %s", ev.Time, DescribeStatus(ev.Status))
			if ev.Location != "" {
				fmt.Fprintf(&b, " (%s)", ev.Location)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}
