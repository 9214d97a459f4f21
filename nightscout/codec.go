package nightscout

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/fatih/structs"
	"github.com/mitchellh/mapstructure"
)

// Documents use the json field names, in the API and in the database.
const tagName = "json"

// Nightscout stores timestamps as ISO 8601 strings in UTC with millisecond precision.
const TimeLayout = "2006-01-02T15:04:05.000Z"

var ErrUnsupportedEntryType = errors.New("unsupported entry type")

func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Document returns the treatment as Nightscout stores it.
func Document(t Treatment) map[string]interface{} {
	s := structs.New(t)
	s.TagName = tagName
	doc := s.Map()
	doc["eventType"] = string(t.EventType())
	doc["created_at"] = FormatTime(t.Time())
	return doc
}

func EntryDocument(e Entry) map[string]interface{} {
	s := structs.New(e)
	s.TagName = tagName
	doc := s.Map()
	doc["type"] = string(e.EntryType())
	return doc
}

func ProfileDocument(p Profile) map[string]interface{} {
	s := structs.New(p)
	s.TagName = tagName
	return s.Map()
}

// DecodeTreatment builds the treatment variant matching the document's event type.
// Unknown event types decode to OtherTreatment.
func DecodeTreatment(doc map[string]interface{}) (Treatment, error) {
	eventType, _ := doc["eventType"].(string)

	switch EventType(eventType) {
	case EventTypeMealBolus:
		if carbs, ok := doc["carbs"]; ok && carbs != nil {
			var t ResolvedMealBolus
			err := decodeInto(doc, &t)
			return t, err
		}
		var t MealBolus
		err := decodeInto(doc, &t)
		return t, err
	case EventTypeCorrectionBolus:
		var t CorrectionBolus
		err := decodeInto(doc, &t)
		return t, err
	case EventTypeCarbCorrection:
		var t CarbCorrection
		err := decodeInto(doc, &t)
		return t, err
	case EventTypeTempBasal:
		var t TempBasal
		err := decodeInto(doc, &t)
		return t, err
	default:
		t := OtherTreatment{Event: EventType(eventType)}
		err := decodeInto(doc, &t.Base)
		return t, err
	}
}

func DecodeEntry(doc map[string]interface{}) (Entry, error) {
	entryType, _ := doc["type"].(string)

	switch EntryType(entryType) {
	case EntryTypeSensorGlucose:
		var e SensorGlucose
		err := decodeInto(doc, &e)
		return e, err
	case EntryTypeManualGlucose:
		var e ManualGlucose
		err := decodeInto(doc, &e)
		return e, err
	default:
		return nil, fmt.Errorf("%w %q", ErrUnsupportedEntryType, entryType)
	}
}

func DecodeProfile(doc map[string]interface{}) (*Profile, error) {
	var p Profile
	if err := decodeInto(doc, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func decodeInto(doc map[string]interface{}, result interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       timeHook,
		Result:           result,
		Squash:           true,
		TagName:          tagName,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(doc); err != nil {
		return fmt.Errorf("unable to decode document: %w", err)
	}
	return nil
}

var timeType = reflect.TypeOf(time.Time{})

// timeHook accepts ISO 8601 strings and epoch milliseconds for time fields.
func timeHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if to != timeType {
		return data, nil
	}

	switch v := data.(type) {
	case string:
		if v == "" {
			return time.Time{}, nil
		}
		return time.Parse(time.RFC3339, v)
	case float64:
		return time.UnixMilli(int64(v)).UTC(), nil
	case int64:
		return time.UnixMilli(v).UTC(), nil
	case int32:
		return time.UnixMilli(int64(v)).UTC(), nil
	case time.Time:
		return v.UTC(), nil
	}

	return data, nil
}
