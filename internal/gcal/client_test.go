package gcal

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/pearcec/calagent/internal/normalize"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	c, err := New(context.Background(), ts.Client(), "primary", nil, option.WithEndpoint(ts.URL+"/"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func TestListEvents(t *testing.T) {
	var query map[string]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/calendars/primary/events" {
			http.NotFound(w, r)
			return
		}
		q := r.URL.Query()
		query = map[string]string{
			"timeMin":      q.Get("timeMin"),
			"timeMax":      q.Get("timeMax"),
			"maxResults":   q.Get("maxResults"),
			"singleEvents": q.Get("singleEvents"),
			"orderBy":      q.Get("orderBy"),
		}
		json.NewEncoder(w).Encode(calendar.Events{Items: []*calendar.Event{
			{
				Id:      "1",
				Summary: "Standup",
				Start:   &calendar.EventDateTime{DateTime: "2024-06-01T10:00:00Z"},
				End:     &calendar.EventDateTime{DateTime: "2024-06-01T10:15:00Z"},
			},
			{
				Id:    "2",
				Start: &calendar.EventDateTime{Date: "2024-06-02"},
				End:   &calendar.EventDateTime{Date: "2024-06-03"},
			},
		}})
	})

	from := time.Date(2024, 6, 1, 7, 0, 0, 0, time.FixedZone("ICT", 7*3600))
	events, err := c.ListEvents(context.Background(), from, time.Time{}, 10)
	if err != nil {
		t.Fatalf("ListEvents() error = %v", err)
	}

	if query["timeMin"] != "2024-06-01T00:00:00Z" {
		t.Errorf("timeMin = %q, want UTC RFC3339", query["timeMin"])
	}
	if query["timeMax"] != "" {
		t.Errorf("timeMax should be omitted, got %q", query["timeMax"])
	}
	if query["maxResults"] != "10" || query["singleEvents"] != "true" || query["orderBy"] != "startTime" {
		t.Errorf("unexpected query %v", query)
	}

	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if !events[0].Start.Timed() || events[0].Summary != "Standup" {
		t.Errorf("events[0] = %+v", events[0])
	}
	if events[1].Start.Timed() || events[1].Start.String() != "2024-06-02" || !events[1].AllDay() {
		t.Errorf("events[1] = %+v", events[1])
	}
}

func TestListEventsFollowsPages(t *testing.T) {
	var tokens []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("pageToken")
		tokens = append(tokens, token)

		page := calendar.Events{}
		switch token {
		case "":
			page.Items = []*calendar.Event{
				{Id: "a", Start: &calendar.EventDateTime{Date: "2024-06-01"}, End: &calendar.EventDateTime{Date: "2024-06-02"}},
				{Id: "b", Start: &calendar.EventDateTime{Date: "2024-06-02"}, End: &calendar.EventDateTime{Date: "2024-06-03"}},
			}
			page.NextPageToken = "page2"
		case "page2":
			page.Items = []*calendar.Event{
				{Id: "c", Start: &calendar.EventDateTime{Date: "2024-06-03"}, End: &calendar.EventDateTime{Date: "2024-06-04"}},
			}
		}
		json.NewEncoder(w).Encode(page)
	})

	events, err := c.ListEvents(context.Background(), time.Now(), time.Time{}, 0)
	if err != nil {
		t.Fatalf("ListEvents() error = %v", err)
	}
	if len(events) != 3 || events[2].ID != "c" {
		t.Errorf("events = %+v, want a, b, c", events)
	}
	if len(tokens) != 2 || tokens[1] != "page2" {
		t.Errorf("page tokens requested = %q", tokens)
	}
}

func TestListEventsMalformedItem(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(calendar.Events{Items: []*calendar.Event{
			{Id: "ok", Start: &calendar.EventDateTime{Date: "2024-06-02"}, End: &calendar.EventDateTime{Date: "2024-06-03"}},
			{Id: "broken", Start: &calendar.EventDateTime{}, End: &calendar.EventDateTime{}},
		}})
	})

	_, err := c.ListEvents(context.Background(), time.Now(), time.Time{}, 0)
	if !errors.Is(err, normalize.ErrMissingTime) {
		t.Fatalf("ListEvents() error = %v, want ErrMissingTime", err)
	}
}

func TestListEventsAPIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":403,"message":"denied"}}`, http.StatusForbidden)
	})

	if _, err := c.ListEvents(context.Background(), time.Now(), time.Time{}, 0); err == nil {
		t.Fatal("expected error")
	}
}

func TestFreeBusy(t *testing.T) {
	var req calendar.FreeBusyRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/freeBusy" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		json.NewDecoder(r.Body).Decode(&req)
		json.NewEncoder(w).Encode(calendar.FreeBusyResponse{
			Calendars: map[string]calendar.FreeBusyCalendar{
				"primary": {Busy: []*calendar.TimePeriod{
					{Start: "2024-06-01T03:00:00Z", End: "2024-06-01T04:00:00Z"},
					{Start: "2024-06-01T06:00:00Z", End: "2024-06-01T07:30:00Z"},
				}},
			},
		})
	})

	from := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	intervals, err := c.FreeBusy(context.Background(), from, from.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("FreeBusy() error = %v", err)
	}

	if req.TimeMin != "2024-06-01T00:00:00Z" || req.TimeMax != "2024-06-02T00:00:00Z" {
		t.Errorf("request window = %s..%s", req.TimeMin, req.TimeMax)
	}
	if len(req.Items) != 1 || req.Items[0].Id != "primary" {
		t.Errorf("request items = %+v", req.Items)
	}
	if len(intervals) != 2 || intervals[1].End != "2024-06-01T07:30:00Z" {
		t.Errorf("intervals = %+v", intervals)
	}
}

func TestFreeBusyCalendarError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(calendar.FreeBusyResponse{
			Calendars: map[string]calendar.FreeBusyCalendar{
				"primary": {Errors: []*calendar.Error{{Domain: "global", Reason: "notFound"}}},
			},
		})
	})

	from := time.Now()
	if _, err := c.FreeBusy(context.Background(), from, from.Add(time.Hour)); err == nil {
		t.Fatal("expected error for calendar-level failure")
	}
}

func TestToRawEvent(t *testing.T) {
	raw, err := toRawEvent(&calendar.Event{
		Id:          "x",
		Summary:     "Lunch",
		Description: "tacos",
		Location:    "Cafe",
		Start:       &calendar.EventDateTime{DateTime: "2024-06-01T12:00:00+07:00", Date: "2024-06-01"},
		End:         &calendar.EventDateTime{DateTime: "2024-06-01T13:00:00+07:00"},
	})
	if err != nil {
		t.Fatalf("toRawEvent() error = %v", err)
	}
	if raw.Start.String() != "2024-06-01T12:00:00+07:00" {
		t.Errorf("timed field should win, got %q", raw.Start.String())
	}
	if raw.Description != "tacos" || raw.Location != "Cafe" {
		t.Errorf("raw = %+v", raw)
	}

	if _, err := toRawEvent(&calendar.Event{Id: "y"}); err == nil {
		t.Error("expected error when start and end are missing")
	}
}
