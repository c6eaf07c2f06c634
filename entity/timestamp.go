package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Timestamp decodes both RFC 3339 strings and the civil-time objects
// ({"year":2025,"month":10,...}) some of the backend services emit.
// Civil times and zone-less strings are read as UTC, so rendered dates do
// not depend on the host's time zone.
type Timestamp struct {
	time.Time
}

func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

type civilTime struct {
	Year   int     `json:"year"`
	Month  int     `json:"month"`
	Day    int     `json:"day"`
	Hour   int     `json:"hour"`
	Minute int     `json:"minute"`
	Second float64 `json:"second"`
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}

	if data[0] == '{' {
		var civil civilTime
		if err := json.Unmarshal(data, &civil); err != nil {
			return fmt.Errorf("invalid civil time: %w", err)
		}
		if civil.Year == 0 || civil.Month == 0 || civil.Day == 0 {
			return fmt.Errorf("invalid civil time: %s", data)
		}

		seconds := int(civil.Second)
		nanos := int((civil.Second - float64(seconds)) * float64(time.Second))
		t.Time = time.Date(civil.Year, time.Month(civil.Month), civil.Day, civil.Hour, civil.Minute, seconds, nanos, time.UTC)
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("invalid timestamp: %w", err)
	}
	if raw == "" {
		t.Time = time.Time{}
		return nil
	}

	for _, layout := range timestampLayouts {
		parsed, err := time.Parse(layout, raw)
		if err == nil {
			t.Time = parsed
			return nil
		}
	}

	return fmt.Errorf("invalid timestamp %q", raw)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}

	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}
