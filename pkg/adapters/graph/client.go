// Package graph is a small Microsoft Graph client covering the calls the
// calendar bot makes: the signed-in user's profile and mailbox settings,
// the calendar view and event creation.
package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/aretw0/calendarbot/internal/logging"
	"github.com/aretw0/calendarbot/pkg/domain"
	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"
)

const (
	DefaultBaseURL = "https://graph.microsoft.com/v1.0"
	DefaultTimeout = 30 * time.Second

	// wallClock is the Graph dateTime layout without zone.
	wallClock = "2006-01-02T15:04:05"
)

// Client implements ports.Calendar against Microsoft Graph.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

type Option func(*Client)

// WithBaseURL points the client at another Graph deployment or a test server.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient sets the transport used beneath the bearer token.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a Graph client.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		http:    &http.Client{Timeout: DefaultTimeout},
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Profile returns the user's name, address and mailbox formatting settings.
func (c *Client) Profile(ctx context.Context, token string) (domain.Profile, error) {
	q := url.Values{}
	q.Set("$select", "displayName,mail,userPrincipalName,mailboxSettings")

	body, err := c.do(ctx, token, http.MethodGet, "/me?"+q.Encode(), nil, nil)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("get profile: %w", err)
	}

	r := gjson.ParseBytes(body)
	return domain.Profile{
		DisplayName:       r.Get("displayName").String(),
		Mail:              r.Get("mail").String(),
		UserPrincipalName: r.Get("userPrincipalName").String(),
		TimeZone:          r.Get("mailboxSettings.timeZone").String(),
		DateFormat:        r.Get("mailboxSettings.dateFormat").String(),
		TimeFormat:        r.Get("mailboxSettings.timeFormat").String(),
	}, nil
}

// UpcomingEvents reads the calendar view between start and end. Times are
// requested in UTC and returned in start's location.
func (c *Client) UpcomingEvents(ctx context.Context, token string, start, end time.Time, max int) ([]domain.Event, error) {
	q := url.Values{}
	q.Set("startDateTime", start.UTC().Format(time.RFC3339))
	q.Set("endDateTime", end.UTC().Format(time.RFC3339))
	q.Set("$select", "subject,organizer,location,start,end,webLink")
	q.Set("$orderby", "start/dateTime")
	if max > 0 {
		q.Set("$top", strconv.Itoa(max))
	}

	headers := map[string]string{"Prefer": `outlook.timezone="UTC"`}
	body, err := c.do(ctx, token, http.MethodGet, "/me/calendarview?"+q.Encode(), nil, headers)
	if err != nil {
		return nil, fmt.Errorf("get calendar view: %w", err)
	}

	loc := start.Location()
	var events []domain.Event
	var parseErr error
	gjson.GetBytes(body, "value").ForEach(func(_, v gjson.Result) bool {
		e, err := parseEvent(v, loc)
		if err != nil {
			parseErr = err
			return false
		}
		events = append(events, e)
		return max <= 0 || len(events) < max
	})
	if parseErr != nil {
		return nil, parseErr
	}
	return events, nil
}

// CreateEvent adds the draft to the user's default calendar. The draft's
// wall clock times are interpreted in the mailbox time zone.
func (c *Client) CreateEvent(ctx context.Context, token string, draft domain.EventDraft) (domain.Event, error) {
	profile, err := c.Profile(ctx, token)
	if err != nil {
		return domain.Event{}, err
	}
	zone := profile.TimeZone
	if zone == "" {
		zone = "UTC"
	}

	payload := newEventPayload(draft, zone)
	raw, err := json.Marshal(payload)
	if err != nil {
		return domain.Event{}, fmt.Errorf("encode event: %w", err)
	}

	headers := map[string]string{
		"Content-Type": "application/json",
		"Prefer":       `outlook.timezone="UTC"`,
	}
	body, err := c.do(ctx, token, http.MethodPost, "/me/events", bytes.NewReader(raw), headers)
	if err != nil {
		return domain.Event{}, fmt.Errorf("create event: %w", err)
	}

	c.logger.Debug("event created", "subject", draft.Subject, "attendees", len(draft.Attendees))
	return parseEvent(gjson.ParseBytes(body), draft.Start.Location())
}

func (c *Client) do(ctx context.Context, token, method, path string, body io.Reader, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.http)
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}))

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newAPIError(resp.StatusCode, data)
	}
	return data, nil
}

type dateTimeZone struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

type emailAddress struct {
	Address string `json:"address"`
}

type attendee struct {
	Type         string       `json:"type"`
	EmailAddress emailAddress `json:"emailAddress"`
}

type eventPayload struct {
	Subject   string       `json:"subject"`
	Start     dateTimeZone `json:"start"`
	End       dateTimeZone `json:"end"`
	Attendees []attendee   `json:"attendees,omitempty"`
}

func newEventPayload(draft domain.EventDraft, zone string) eventPayload {
	p := eventPayload{
		Subject: draft.Subject,
		Start:   dateTimeZone{DateTime: draft.Start.Format(wallClock), TimeZone: zone},
		End:     dateTimeZone{DateTime: draft.End.Format(wallClock), TimeZone: zone},
	}
	for _, a := range draft.Attendees {
		if a == "" {
			continue
		}
		p.Attendees = append(p.Attendees, attendee{Type: "required", EmailAddress: emailAddress{Address: a}})
	}
	return p
}

func parseEvent(v gjson.Result, loc *time.Location) (domain.Event, error) {
	start, err := parseDateTime(v.Get("start"))
	if err != nil {
		return domain.Event{}, fmt.Errorf("event %q start: %w", v.Get("id").String(), err)
	}
	end, err := parseDateTime(v.Get("end"))
	if err != nil {
		return domain.Event{}, fmt.Errorf("event %q end: %w", v.Get("id").String(), err)
	}
	if loc != nil {
		start, end = start.In(loc), end.In(loc)
	}
	return domain.Event{
		ID:        v.Get("id").String(),
		Subject:   v.Get("subject").String(),
		Organizer: v.Get("organizer.emailAddress.name").String(),
		Location:  v.Get("location.displayName").String(),
		Start:     start,
		End:       end,
		WebLink:   v.Get("webLink").String(),
	}, nil
}

// parseDateTime reads a Graph dateTimeTimeZone, which carries up to seven
// fractional digits and an IANA or "UTC" zone name.
func parseDateTime(v gjson.Result) (time.Time, error) {
	loc := time.UTC
	if name := v.Get("timeZone").String(); name != "" && name != "UTC" {
		if l, err := time.LoadLocation(name); err == nil {
			loc = l
		}
	}
	return time.ParseInLocation("2006-01-02T15:04:05.9999999", v.Get("dateTime").String(), loc)
}
