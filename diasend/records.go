package diasend

import (
	"fmt"
	"time"
)

type Kind string

const (
	KindGlucose      Kind = "glucose"
	KindInsulinBolus Kind = "insulin_bolus"
	KindInsulinBasal Kind = "insulin_basal"
	KindCarb         Kind = "carb"
)

// FlagDescriptionManual marks a glucose reading that was entered by hand instead of read from a sensor.
const FlagDescriptionManual = "Manual"

type Device struct {
	Serial       string `json:"serial"`
	Manufacturer string `json:"manufacturer"`
	Model        string `json:"model"`
}

// Label is how the device is named on records published to the destination.
func (d Device) Label() string {
	return fmt.Sprintf("%s (%s)", d.Model, d.Serial)
}

type Flag struct {
	Flag        int    `json:"flag"`
	Description string `json:"description"`
}

// Record is one telemetry event as reported by diasend. It is implemented by
// GlucoseRecord, BolusRecord, BasalRecord and CarbRecord only.
type Record interface {
	Kind() Kind
	Time() time.Time
	DeviceData() Device
	isRecord()
}

type BaseRecord struct {
	// Diasend reports naive local times. They are interpreted in the configured location.
	CreatedAt time.Time
	Flags     []Flag
	Device    Device
}

func (b BaseRecord) Time() time.Time {
	return b.CreatedAt
}

func (b BaseRecord) DeviceData() Device {
	return b.Device
}

func (b BaseRecord) HasFlag(description string) bool {
	for _, f := range b.Flags {
		if f.Description == description {
			return true
		}
	}
	return false
}

func (BaseRecord) isRecord() {}

type GlucoseRecord struct {
	BaseRecord
	Value float64
	Unit  string
}

func (GlucoseRecord) Kind() Kind {
	return KindGlucose
}

// IsManual reports whether the reading was entered by hand (finger prick) rather than by a CGM.
func (g GlucoseRecord) IsManual() bool {
	return g.HasFlag(FlagDescriptionManual)
}

type BolusRecord struct {
	BaseRecord
	TotalValue            float64
	SpikeValue            float64
	Suggested             float64
	SuggestionOverridden  bool
	SuggestionBasedOnBG   bool
	SuggestionBasedOnCarb bool
	// Set when the bolus was programmed for a meal. Presence, not the amount, makes it a meal bolus.
	ProgrammedMeal *float64
	// Set when the bolus includes a correction for high (or low) blood glucose.
	ProgrammedBGCorrection *float64
}

func (BolusRecord) Kind() Kind {
	return KindInsulinBolus
}

func (b BolusRecord) IsMealBolus() bool {
	return b.ProgrammedMeal != nil
}

// BasalRecord is a momentary basal rate observation in U/h.
type BasalRecord struct {
	BaseRecord
	Value float64
}

func (BasalRecord) Kind() Kind {
	return KindInsulinBasal
}

// CarbRecord holds the carbohydrate amount verbatim. Diasend sends it as text.
type CarbRecord struct {
	BaseRecord
	Value string
}

func (CarbRecord) Kind() Kind {
	return KindCarb
}
