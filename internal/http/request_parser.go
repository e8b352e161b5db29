package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"mstore/internal/core"
	"mstore/internal/report"
)

// maxBodyBytes bounds record bodies; a record is a handful of short strings.
const maxBodyBytes = 64 << 10

// RequestBodyParser reads a JSON object or a form-encoded body once.
type RequestBodyParser struct {
	body     []byte
	jsonData map[string]any
	formData url.Values
	parsed   bool
	err      error
}

func NewRequestBodyParser(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{}
	p.body, p.err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return p
}

// Parse decodes the body as JSON when it starts with '{', as a form otherwise.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true
	if p.err != nil {
		return p.err
	}

	body := strings.TrimSpace(string(p.body))
	if body == "" {
		p.formData = url.Values{}
		return nil
	}
	if body[0] == '{' {
		// Numbers stay json.Number so the digits are stored as typed.
		dec := json.NewDecoder(strings.NewReader(body))
		dec.UseNumber()
		p.jsonData = make(map[string]any)
		if err := dec.Decode(&p.jsonData); err != nil {
			p.err = fmt.Errorf("invalid JSON body: %w", err)
		} else if _, err := dec.Token(); err != io.EOF {
			p.err = errors.New("invalid JSON body: trailing data after object")
		}
		return p.err
	}
	p.formData, p.err = url.ParseQuery(body)
	return p.err
}

// Get returns the sanitized value of key, or "".
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// stringValue keeps numbers as typed so "150.50" and 150.50 both reach the ledger as "150.50".
func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// RecordFields extracts the add-record input. The counterparty may be sent
// under its generic name or the kind-specific one.
func (p *RequestBodyParser) RecordFields(kind core.Kind) core.Fields {
	cp := p.Get("counterparty")
	if cp == "" {
		if kind == core.Sale {
			cp = p.Get("soldTo")
		} else {
			cp = p.Get("purchasedFrom")
		}
	}
	f := core.Fields{
		ItemName:     p.Get("itemName"),
		Quantity:     p.Get("quantity"),
		Price:        p.Get("price"),
		Counterparty: cp,
	}
	if kind == core.Sale {
		f.Recovery = p.Get("recovery")
	}
	return f
}

// pathKind parses the {kind} path value.
func pathKind(r *http.Request) (core.Kind, error) {
	return core.ParseKind(r.PathValue("kind"))
}

// queryKind parses ?kind=, which is required.
func queryKind(r *http.Request) (core.Kind, error) {
	v := r.URL.Query().Get("kind")
	if v == "" {
		return "", fmt.Errorf("%w: missing kind parameter", core.ErrUnknownKind)
	}
	return core.ParseKind(v)
}

// queryPeriod parses ?period=; an absent period means daily and an unknown
// one is rejected rather than widened to overall.
func queryPeriod(r *http.Request) (report.Period, error) {
	v := strings.TrimSpace(r.URL.Query().Get("period"))
	if v == "" {
		return report.Daily, nil
	}
	return report.ParsePeriod(v)
}

// pathDateKey parses {date}; "today" resolves with today.
func pathDateKey(r *http.Request, today func() string) (string, error) {
	v := r.PathValue("date")
	if v == "" || strings.EqualFold(v, "today") {
		return today(), nil
	}
	if _, err := core.ParseDateKey(v); err != nil {
		return "", err
	}
	return v, nil
}

// pathIndex parses {index} as a non-negative integer.
func pathIndex(r *http.Request) (int, error) {
	v := r.PathValue("index")
	i, err := strconv.Atoi(v)
	if err != nil || i < 0 {
		return 0, fmt.Errorf("invalid record index %q", v)
	}
	return i, nil
}

// pathYearMonth parses {year}/{month} of the month breakdown route.
func pathYearMonth(r *http.Request) (int, time.Month, error) {
	year, err := strconv.Atoi(r.PathValue("year"))
	if err != nil || year < 1 || year > 9999 {
		return 0, 0, fmt.Errorf("invalid year %q", r.PathValue("year"))
	}
	month, err := strconv.Atoi(r.PathValue("month"))
	if err != nil || month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("invalid month %q", r.PathValue("month"))
	}
	return year, time.Month(month), nil
}
