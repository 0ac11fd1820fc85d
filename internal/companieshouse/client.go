package companieshouse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/ccod-search/internal/observability"
)

// DefaultBaseURL is the Companies House public data API.
const DefaultBaseURL = "https://api.company-information.service.gov.uk"

var (
	ErrNoAPIKey     = errors.New("companieshouse: API key not configured")
	ErrUnauthorized = errors.New("companieshouse: invalid API key")
	ErrRateLimited  = errors.New("companieshouse: rate limit exceeded")
)

// Officer is one officer hit from the search endpoint.
type Officer struct {
	Name             string `json:"name"`
	AppointmentCount int    `json:"appointment_count"`
	AppointmentsLink string `json:"appointments_link"`
	Description      string `json:"description"`
	IsIndividual     bool   `json:"is_individual"`
}

// Appointment is one company appointment held by an officer.
type Appointment struct {
	CompanyNumber string `json:"company_number"`
	CompanyName   string `json:"company_name"`
	OfficerRole   string `json:"officer_role"`
	AppointedOn   string `json:"appointed_on"`
	ResignedOn    string `json:"resigned_on"`
	CompanyStatus string `json:"company_status"`
}

// Client calls the Companies House API with Basic auth (the API key is
// the username), client-side rate limiting and retry on 429/5xx.
type Client struct {
	base string
	key  string
	hc   *http.Client
	rl   *rate.Limiter
}

// New returns a client, or ErrNoAPIKey when key is empty.
func New(base, key string, rps int) (*Client, error) {
	if key == "" {
		return nil, ErrNoAPIKey
	}
	if base == "" {
		base = DefaultBaseURL
	}
	if rps <= 0 {
		rps = 2
	}
	return &Client{
		base: base,
		key:  key,
		hc:   &http.Client{Timeout: 15 * time.Second},
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

// SearchIndividualOfficers searches officers by name, filtering out
// corporate officers so that only individual people remain.
func (c *Client) SearchIndividualOfficers(ctx context.Context, name string, itemsPerPage int) ([]Officer, error) {
	if itemsPerPage <= 0 {
		itemsPerPage = 50
	}

	var payload struct {
		Items []struct {
			Title                  string   `json:"title"`
			AppointmentCount       int      `json:"appointment_count"`
			Description            string   `json:"description"`
			DescriptionIdentifiers []string `json:"description_identifiers"`
			DateOfBirth            *struct {
				Month int `json:"month"`
				Year  int `json:"year"`
			} `json:"date_of_birth"`
			Links struct {
				Self string `json:"self"`
			} `json:"links"`
		} `json:"items"`
	}

	endpoint := fmt.Sprintf("%s/search/officers?q=%s&items_per_page=%d",
		c.base, url.QueryEscape(strings.TrimSpace(name)), itemsPerPage)
	if err := c.get(ctx, "/search/officers", endpoint, &payload); err != nil {
		return nil, err
	}

	var officers []Officer
	for _, item := range payload.Items {
		if IsCorporateOfficer(item.Title) {
			continue
		}
		hasBornOn := false
		for _, id := range item.DescriptionIdentifiers {
			if id == "born-on" {
				hasBornOn = true
				break
			}
		}
		officers = append(officers, Officer{
			Name:             item.Title,
			AppointmentCount: item.AppointmentCount,
			AppointmentsLink: item.Links.Self,
			Description:      item.Description,
			IsIndividual:     item.DateOfBirth != nil || hasBornOn,
		})
	}
	return officers, nil
}

// Appointments fetches the company appointments for an officer. The
// appointments link from search results is already the full API path.
func (c *Client) Appointments(ctx context.Context, appointmentsLink string) ([]Appointment, error) {
	if appointmentsLink == "" {
		return nil, nil
	}

	var payload struct {
		Items []struct {
			OfficerRole string `json:"officer_role"`
			AppointedOn string `json:"appointed_on"`
			ResignedOn  string `json:"resigned_on"`
			AppointedTo struct {
				CompanyNumber string `json:"company_number"`
				CompanyName   string `json:"company_name"`
				CompanyStatus string `json:"company_status"`
			} `json:"appointed_to"`
		} `json:"items"`
	}

	if err := c.get(ctx, "/officers/appointments", c.base+appointmentsLink, &payload); err != nil {
		return nil, err
	}

	var appointments []Appointment
	for _, item := range payload.Items {
		if item.AppointedTo.CompanyNumber == "" {
			continue
		}
		appointments = append(appointments, Appointment{
			CompanyNumber: item.AppointedTo.CompanyNumber,
			CompanyName:   item.AppointedTo.CompanyName,
			OfficerRole:   item.OfficerRole,
			AppointedOn:   item.AppointedOn,
			ResignedOn:    item.ResignedOn,
			CompanyStatus: item.AppointedTo.CompanyStatus,
		})
	}
	return appointments, nil
}

// get performs a GET with rate limiting and retry on 429/5xx, decoding
// the JSON body into out.
func (c *Client) get(ctx context.Context, endpointLabel, endpoint string, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}
		// API key as Basic auth username, empty password.
		req.SetBasicAuth(c.key, "")
		req.Header.Set("Accept", "application/json")

		resp, err := c.hc.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			if attempt < 2 && sleepCtx(ctx, backoff(attempt)) {
				continue
			}
			return lastErr
		}

		observability.ObserveExternal("companies_house", endpointLabel, resp.StatusCode)

		switch resp.StatusCode {
		case http.StatusOK:
			err := json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			return err

		case http.StatusUnauthorized:
			resp.Body.Close()
			return ErrUnauthorized

		case http.StatusTooManyRequests:
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(attempt)
			}
			lastErr = ErrRateLimited
			if attempt < 2 && sleepCtx(ctx, wait) {
				continue
			}
			return lastErr

		case http.StatusInternalServerError, http.StatusBadGateway,
			http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			resp.Body.Close()
			lastErr = fmt.Errorf("companieshouse: remote %d", resp.StatusCode)
			if attempt < 2 && sleepCtx(ctx, backoff(attempt)) {
				continue
			}
			return lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return fmt.Errorf("companieshouse: status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}

	return lastErr
}

// IsCorporateOfficer reports whether an officer name looks like a
// corporate entity rather than an individual person.
func IsCorporateOfficer(name string) bool {
	if name == "" {
		return false
	}
	upper := strings.ToUpper(name)
	indicators := []string{
		"LTD", "LIMITED", "LLP", "PLC", "INC", "INCORPORATED",
		"CORP", "CORPORATION", "LLC", "CO.", "& CO", "PARTNERS",
		"TRUSTEES", "TRUST", "SECRETARIAL", "SERVICES", "NOMINEES",
	}
	for _, ind := range indicators {
		if strings.Contains(upper, ind) {
			return true
		}
	}
	return false
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses the Retry-After header in seconds form.
func retryAfter(resp *http.Response) time.Duration {
	h := strings.TrimSpace(resp.Header.Get("Retry-After"))
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(h); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	return 0
}

func backoff(attempt int) time.Duration {
	return time.Duration(1<<attempt) * 500 * time.Millisecond
}
