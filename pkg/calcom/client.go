// Package calcom is a minimal Cal.com v2 API client covering the two calls the
// booking tools need: slot queries and booking creation.
package calcom

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://api.cal.com/v2"

	// Cal.com requires a protocol-version header per endpoint family.
	slotsAPIVersion   = "2024-09-04"
	bookingAPIVersion = "2024-08-13"
)

// Client talks to the Cal.com API with bearer-token authorization.
type Client struct {
	apiKey      string
	eventTypeID string
	baseURL     string
	httpClient  *http.Client
}

// NewClient creates a Cal.com client. A nil httpClient gets a 15 second
// timeout default; calendar calls are bounded, never open-ended.
func NewClient(apiKey, eventTypeID, baseURL string, httpClient *http.Client) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		apiKey:      strings.TrimSpace(apiKey),
		eventTypeID: strings.TrimSpace(eventTypeID),
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  httpClient,
	}
}

// Configured reports whether the client has the credentials it needs.
func (c *Client) Configured() bool {
	return c != nil && c.apiKey != "" && c.eventTypeID != ""
}

// Slot is one available start instant returned by the slots API.
type Slot struct {
	Start time.Time
}

// AvailableSlots queries available slots for the inclusive date range
// [startDate, endDate], both YYYY-MM-DD. The result maps each date key to its
// slot start instants as returned by Cal.com (UTC).
func (c *Client) AvailableSlots(ctx context.Context, startDate, endDate string) (map[string][]Slot, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("cal.com is not configured: set the API key and event type ID")
	}

	query := url.Values{}
	query.Set("eventTypeId", c.eventTypeID)
	query.Set("start", strings.TrimSpace(startDate)+"T00:00:00")
	query.Set("end", strings.TrimSpace(endDate)+"T23:59:59")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/slots?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("cal-api-version", slotsAPIVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("slots request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("slots query failed: %s", readAPIError(resp))
	}

	var decoded struct {
		Status string `json:"status"`
		Data   map[string][]struct {
			Start string `json:"start"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode slots response: %w", err)
	}
	if decoded.Status != "success" {
		return nil, fmt.Errorf("slots query returned unexpected status %q", decoded.Status)
	}

	out := make(map[string][]Slot, len(decoded.Data))
	for date, slots := range decoded.Data {
		for _, s := range slots {
			start, err := parseSlotStart(s.Start)
			if err != nil {
				continue
			}
			out[date] = append(out[date], Slot{Start: start})
		}
	}
	return out, nil
}

// BookingRequest is one booking creation call. Start must be an absolute UTC
// instant; the attendee timezone is informational for the invite.
type BookingRequest struct {
	AttendeeName  string
	AttendeeEmail string
	Timezone      string
	Start         time.Time
	Notes         string
}

// Booking is the created booking record.
type Booking struct {
	StartTime time.Time
}

// CreateBooking creates a booking via POST /bookings. Cal.com event types with
// a single fixed duration reject lengthInMinutes, so it is never sent.
func (c *Client) CreateBooking(ctx context.Context, booking BookingRequest) (*Booking, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("cal.com is not configured: set the API key and event type ID")
	}

	eventTypeID, err := strconv.Atoi(c.eventTypeID)
	if err != nil {
		return nil, fmt.Errorf("event type ID must be numeric: %w", err)
	}

	payload := map[string]any{
		"eventTypeId": eventTypeID,
		"start":       booking.Start.UTC().Format("2006-01-02T15:04:05Z"),
		"attendee": map[string]any{
			"name":     booking.AttendeeName,
			"email":    booking.AttendeeEmail,
			"timeZone": booking.Timezone,
			"language": "en",
		},
	}
	if strings.TrimSpace(booking.Notes) != "" {
		payload["metadata"] = map[string]any{"notes": booking.Notes}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal booking payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/bookings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("cal-api-version", bookingAPIVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("booking request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("booking failed: %s", readAPIError(resp))
	}

	var decoded struct {
		Data struct {
			StartTime string `json:"startTime"`
			Start     string `json:"start"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode booking response: %w", err)
	}

	created := &Booking{StartTime: booking.Start.UTC()}
	raw := decoded.Data.StartTime
	if raw == "" {
		raw = decoded.Data.Start
	}
	if raw != "" {
		if start, err := parseSlotStart(raw); err == nil {
			created.StartTime = start
		}
	}
	return created, nil
}

// readAPIError extracts a human-readable message from a non-2xx response body.
// Cal.com errors carry "message" or "error"; anything else falls back to the
// raw body.
func readAPIError(resp *http.Response) string {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 8192))
	var decoded struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &decoded); err == nil {
		if decoded.Message != "" {
			return decoded.Message
		}
		if decoded.Error != "" {
			return decoded.Error
		}
	}
	msg := strings.TrimSpace(string(raw))
	if msg == "" {
		msg = fmt.Sprintf("status %d", resp.StatusCode)
	}
	return msg
}

// parseSlotStart accepts RFC 3339 instants and Cal.com's zone-less
// YYYY-MM-DDTHH:MM:SS form, which is interpreted as UTC.
func parseSlotStart(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.ParseInLocation("2006-01-02T15:04:05", raw, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse slot start %q: %w", raw, err)
	}
	return t, nil
}
