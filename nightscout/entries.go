package nightscout

import "time"

type EntryType string

const (
	EntryTypeSensorGlucose EntryType = "sgv"
	EntryTypeManualGlucose EntryType = "mbg"
)

type EntryBase struct {
	ID string `json:"_id,omitempty"`
	// Epoch milliseconds.
	Date       int64  `json:"date"`
	DateString string `json:"dateString"`
	Device     string `json:"device,omitempty"`
	App        string `json:"app,omitempty"`
}

func NewEntryBase(t time.Time, device, app string) EntryBase {
	return EntryBase{
		Date:       t.UnixMilli(),
		DateString: FormatTime(t),
		Device:     device,
		App:        app,
	}
}

func (e EntryBase) Time() time.Time {
	return time.UnixMilli(e.Date).UTC()
}

func (e EntryBase) BaseEntry() EntryBase {
	return e
}

// Entry is implemented by SensorGlucose and ManualGlucose.
type Entry interface {
	EntryType() EntryType
	Time() time.Time
	BaseEntry() EntryBase
}

type SensorGlucose struct {
	EntryBase `json:",flatten"`
	SGV       float64 `json:"sgv"`
	// Diasend does not report the trend, it stays empty for bridged entries.
	Direction string `json:"direction,omitempty"`
}

func (SensorGlucose) EntryType() EntryType {
	return EntryTypeSensorGlucose
}

type ManualGlucose struct {
	EntryBase `json:",flatten"`
	MBG       float64 `json:"mbg"`
}

func (ManualGlucose) EntryType() EntryType {
	return EntryTypeManualGlucose
}
