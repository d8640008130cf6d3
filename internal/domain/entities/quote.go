package entities

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Quote request defaults applied when the form omits a field
const (
	DefaultVoltage = "220"
	DefaultPhase   = 1
)

// QuoteRequest asks the partner for PV kits matching an installation.
// Surface and City are sent as null when unknown.
type QuoteRequest struct {
	Power   float64 `json:"power"`
	Voltage string  `json:"voltage"`
	Phase   float64 `json:"phase"`
	Surface *string `json:"surface"`
	City    *string `json:"city"`
}

// NewQuoteRequest returns a request populated with defaults
func NewQuoteRequest() QuoteRequest {
	return QuoteRequest{Voltage: DefaultVoltage, Phase: DefaultPhase}
}

// UnmarshalJSON applies defaults for absent or null fields. Voltage may be sent
// as a number by older forms and is normalized to a string.
func (q *QuoteRequest) UnmarshalJSON(data []byte) error {
	var raw struct {
		Power   *float64        `json:"power"`
		Voltage json.RawMessage `json:"voltage"`
		Phase   *float64        `json:"phase"`
		Surface *string         `json:"surface"`
		City    *string         `json:"city"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := NewQuoteRequest()
	if raw.Power != nil {
		out.Power = *raw.Power
	}
	if raw.Phase != nil {
		out.Phase = *raw.Phase
	}
	out.Surface = raw.Surface
	out.City = raw.City

	voltage := bytes.TrimSpace(raw.Voltage)
	if len(voltage) > 0 && !bytes.Equal(voltage, []byte("null")) {
		var s string
		if err := json.Unmarshal(voltage, &s); err == nil {
			out.Voltage = s
		} else {
			var f float64
			if err := json.Unmarshal(voltage, &f); err != nil {
				return fmt.Errorf("voltage must be a string or number")
			}
			out.Voltage = strconv.FormatFloat(f, 'f', -1, 64)
		}
	}

	*q = out
	return nil
}

// QuoteResult is the partner quote answer reshaped for the site
type QuoteResult struct {
	StatusCode int               `json:"-"`
	Raw        json.RawMessage   `json:"raw"`
	PVKits     []json.RawMessage `json:"pv_kits"`
}
