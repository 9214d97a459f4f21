package diasend

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Diasend deviates from ISO 8601 by dropping the timezone.
const TimestampLayout = "2006-01-02T15:04:05"

var ErrUnknownKind = errors.New("unknown record type")

type deviceData struct {
	Data   []json.RawMessage `json:"data"`
	Device Device            `json:"device"`
}

type wireRecord struct {
	Type                   Kind            `json:"type"`
	CreatedAt              string          `json:"created_at"`
	Value                  json.RawMessage `json:"value"`
	Unit                   string          `json:"unit"`
	Flags                  []Flag          `json:"flags"`
	TotalValue             float64         `json:"total_value"`
	SpikeValue             float64         `json:"spike_value"`
	Suggested              float64         `json:"suggested"`
	SuggestionOverridden   string          `json:"suggestion_overridden"`
	SuggestionBasedOnBG    string          `json:"suggestion_based_on_bg"`
	SuggestionBasedOnCarb  string          `json:"suggestion_based_on_carb"`
	ProgrammedMeal         *float64        `json:"programmed_meal"`
	ProgrammedBGCorrection *float64        `json:"programmed_bg_correction"`
}

// DecodePatientData decodes a /patient/data response. Records that cannot be
// decoded are reported in invalid and left out; err is only set when the
// response as a whole is unreadable.
func DecodePatientData(body []byte, loc *time.Location) (records []Record, invalid []error, err error) {
	var devices []deviceData
	if err := json.Unmarshal(body, &devices); err != nil {
		return nil, nil, fmt.Errorf("unable to decode patient data: %w", err)
	}

	for _, d := range devices {
		for i, raw := range d.Data {
			record, err := decodeRecord(raw, d.Device, loc)
			if err != nil {
				invalid = append(invalid, fmt.Errorf("record %d of device %s: %w", i, d.Device.Label(), err))
				continue
			}
			records = append(records, record)
		}
	}

	return records, invalid, nil
}

func decodeRecord(raw json.RawMessage, device Device, loc *time.Location) (Record, error) {
	var w wireRecord
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, err
	}

	createdAt, err := time.ParseInLocation(TimestampLayout, w.CreatedAt, loc)
	if err != nil {
		return nil, fmt.Errorf("invalid created_at %q: %w", w.CreatedAt, err)
	}

	base := BaseRecord{
		CreatedAt: createdAt,
		Flags:     w.Flags,
		Device:    device,
	}

	switch w.Type {
	case KindGlucose:
		value, err := numericValue(w.Value)
		if err != nil {
			return nil, err
		}
		return GlucoseRecord{BaseRecord: base, Value: value, Unit: w.Unit}, nil
	case KindInsulinBasal:
		value, err := numericValue(w.Value)
		if err != nil {
			return nil, err
		}
		return BasalRecord{BaseRecord: base, Value: value}, nil
	case KindCarb:
		return CarbRecord{BaseRecord: base, Value: textValue(w.Value)}, nil
	case KindInsulinBolus:
		return BolusRecord{
			BaseRecord:             base,
			TotalValue:             w.TotalValue,
			SpikeValue:             w.SpikeValue,
			Suggested:              w.Suggested,
			SuggestionOverridden:   w.SuggestionOverridden == "yes",
			SuggestionBasedOnBG:    w.SuggestionBasedOnBG == "yes",
			SuggestionBasedOnCarb:  w.SuggestionBasedOnCarb == "yes",
			ProgrammedMeal:         w.ProgrammedMeal,
			ProgrammedBGCorrection: w.ProgrammedBGCorrection,
		}, nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownKind, w.Type)
	}
}

func numericValue(raw json.RawMessage) (float64, error) {
	var value float64
	if err := json.Unmarshal(raw, &value); err != nil {
		return 0, fmt.Errorf("invalid value %s: %w", string(raw), err)
	}
	return value, nil
}

// textValue keeps the value verbatim so that parsing problems surface where the value is interpreted.
func textValue(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}

// FormatNumber renders a number the way diasend and Nightscout clients print them (shortest representation).
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
