package domain

import (
	"encoding/json"
	"strings"
	"time"
)

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseTime returns the zero time for anything it cannot read.
func parseTime(raw json.RawMessage) time.Time {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return time.Time{}
	}
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func (p *PromotionWindow) UnmarshalJSON(b []byte) error {
	var aux struct {
		Active     bool            `json:"active"`
		StartDate  json.RawMessage `json:"startDate"`
		EndDate    json.RawMessage `json:"endDate"`
		Percentage Amount          `json:"percentage"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		*p = PromotionWindow{}
		return nil
	}
	*p = PromotionWindow{
		Active:     aux.Active,
		StartDate:  parseTime(aux.StartDate),
		EndDate:    parseTime(aux.EndDate),
		Percentage: aux.Percentage,
	}
	return nil
}

func (p *PromoBar) UnmarshalJSON(b []byte) error {
	var aux struct {
		Message string          `json:"message"`
		Link    string          `json:"link"`
		Active  bool            `json:"active"`
		EndsAt  json.RawMessage `json:"endsAt"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*p = PromoBar{Message: aux.Message, Link: aux.Link, Active: aux.Active, EndsAt: parseTime(aux.EndsAt)}
	return nil
}

// Time is a backend timestamp. Unreadable or missing values decode to the
// zero time instead of failing the document.
type Time struct {
	time.Time
}

func (t *Time) UnmarshalJSON(b []byte) error {
	t.Time = parseTime(b)
	return nil
}

func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time)
}
