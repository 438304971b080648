// Package gcal reads events and free/busy data from Google Calendar.
package gcal

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/pearcec/calagent/internal/config"
	"github.com/pearcec/calagent/internal/normalize"
)

// Client is a read-only view of one Google calendar.
type Client struct {
	srv        *calendar.Service
	calendarID string
	log        *zap.Logger
	closer     io.Closer
}

// New wraps an already-authorized HTTP client. Extra options are passed to
// the calendar service, which lets tests point it at a local endpoint.
func New(ctx context.Context, httpClient *http.Client, calendarID string, logger *zap.Logger, opts ...option.ClientOption) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)
	srv, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create Calendar service: %w", err)
	}
	return &Client{
		srv:        srv,
		calendarID: calendarID,
		log:        logger.With(zap.String("component", "gcal"), zap.String("calendarID", calendarID)),
	}, nil
}

// OpenStore returns the token store selected by cfg.
func OpenStore(cfg config.GoogleConfig) (TokenStore, error) {
	switch cfg.TokenStore {
	case "sqlite":
		return OpenSQLiteStore(config.ExpandPath(cfg.TokenDB), cfg.Account)
	case "", "file":
		return NewFileStore(config.ExpandPath(cfg.TokenFile)), nil
	default:
		return nil, fmt.Errorf("unknown token store %q", cfg.TokenStore)
	}
}

// Open builds a Client from configuration. See HTTPClient for interactive.
func Open(ctx context.Context, cfg *config.Config, interactive bool, out io.Writer, logger *zap.Logger) (*Client, error) {
	oauthCfg, err := LoadOAuthConfig(config.ExpandPath(cfg.Google.CredentialsFile), cfg.Google.CallbackPort)
	if err != nil {
		return nil, err
	}
	store, err := OpenStore(cfg.Google)
	if err != nil {
		return nil, err
	}

	httpClient, err := HTTPClient(ctx, oauthCfg, store, interactive, out, logger)
	if err != nil {
		closeStore(store)
		return nil, err
	}

	c, err := New(ctx, httpClient, cfg.CalendarID, logger)
	if err != nil {
		closeStore(store)
		return nil, err
	}
	if closer, ok := store.(io.Closer); ok {
		c.closer = closer
	}
	return c, nil
}

// Close releases the token store.
func (c *Client) Close() error {
	if c.closer != nil {
		return c.closer.Close()
	}
	return nil
}

// ListEvents returns single (expanded) events ordered by start time. A zero
// timeMax leaves the window open-ended; limit <= 0 reads every page.
// An item with neither a dateTime nor a date fails the whole call.
func (c *Client) ListEvents(ctx context.Context, timeMin, timeMax time.Time, limit int) ([]normalize.RawEvent, error) {
	call := c.srv.Events.List(c.calendarID).
		Context(ctx).
		ShowDeleted(false).
		SingleEvents(true).
		OrderBy("startTime").
		TimeMin(timeMin.UTC().Format(time.RFC3339))
	if !timeMax.IsZero() {
		call = call.TimeMax(timeMax.UTC().Format(time.RFC3339))
	}

	var items []*calendar.Event
	if limit > 0 {
		resp, err := call.MaxResults(int64(limit)).Do()
		if err != nil {
			c.log.Error("failed to list events", zap.Error(err))
			return nil, fmt.Errorf("unable to retrieve events: %w", err)
		}
		items = resp.Items
	} else {
		err := call.Pages(ctx, func(page *calendar.Events) error {
			items = append(items, page.Items...)
			return nil
		})
		if err != nil {
			c.log.Error("failed to list events", zap.Error(err))
			return nil, fmt.Errorf("unable to retrieve events: %w", err)
		}
	}

	events := make([]normalize.RawEvent, 0, len(items))
	for _, item := range items {
		raw, err := toRawEvent(item)
		if err != nil {
			c.log.Error("malformed event", zap.String("eventID", item.Id), zap.Error(err))
			return nil, fmt.Errorf("event %s: %w", item.Id, err)
		}
		events = append(events, raw)
	}

	c.log.Debug("listed events", zap.Int("eventCount", len(events)))
	return events, nil
}

// FreeBusy returns the busy intervals of the calendar between timeMin and timeMax.
func (c *Client) FreeBusy(ctx context.Context, timeMin, timeMax time.Time) ([]normalize.BusyInterval, error) {
	req := &calendar.FreeBusyRequest{
		TimeMin: timeMin.UTC().Format(time.RFC3339),
		TimeMax: timeMax.UTC().Format(time.RFC3339),
		Items:   []*calendar.FreeBusyRequestItem{{Id: c.calendarID}},
	}

	resp, err := c.srv.Freebusy.Query(req).Context(ctx).Do()
	if err != nil {
		c.log.Error("failed to query free/busy", zap.Error(err))
		return nil, fmt.Errorf("unable to query free/busy: %w", err)
	}

	cal, ok := resp.Calendars[c.calendarID]
	if !ok {
		return []normalize.BusyInterval{}, nil
	}
	if len(cal.Errors) > 0 {
		return nil, fmt.Errorf("free/busy for %s: %s", c.calendarID, cal.Errors[0].Reason)
	}

	intervals := make([]normalize.BusyInterval, 0, len(cal.Busy))
	for _, p := range cal.Busy {
		intervals = append(intervals, normalize.BusyInterval{Start: p.Start, End: p.End})
	}
	return intervals, nil
}

func toRawEvent(item *calendar.Event) (normalize.RawEvent, error) {
	if item.Start == nil || item.End == nil {
		return normalize.RawEvent{}, normalize.ErrMissingTime
	}
	start, err := normalize.FromFields(item.Start.DateTime, item.Start.Date)
	if err != nil {
		return normalize.RawEvent{}, fmt.Errorf("start: %w", err)
	}
	end, err := normalize.FromFields(item.End.DateTime, item.End.Date)
	if err != nil {
		return normalize.RawEvent{}, fmt.Errorf("end: %w", err)
	}
	return normalize.RawEvent{
		ID:          item.Id,
		Summary:     item.Summary,
		Description: item.Description,
		Location:    item.Location,
		Start:       start,
		End:         end,
	}, nil
}

func closeStore(store TokenStore) {
	if closer, ok := store.(io.Closer); ok {
		closer.Close()
	}
}
