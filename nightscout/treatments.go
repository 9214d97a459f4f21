package nightscout

import (
	"fmt"
	"time"
)

type EventType string

const (
	EventTypeMealBolus       EventType = "Meal Bolus"
	EventTypeCorrectionBolus EventType = "Correction Bolus"
	EventTypeCarbCorrection  EventType = "Carb Correction"
	EventTypeTempBasal       EventType = "Temp Basal"
)

// HandledEventTypes are the treatment types the bridge publishes.
var HandledEventTypes = []EventType{
	EventTypeMealBolus,
	EventTypeCorrectionBolus,
	EventTypeCarbCorrection,
	EventTypeTempBasal,
}

// Base holds the fields shared by all treatments.
type Base struct {
	// Assigned by Nightscout. Empty until the treatment is persisted.
	ID        string    `json:"_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Device    string    `json:"device,omitempty"`
	App       string    `json:"app,omitempty"`
	Notes     string    `json:"notes,omitempty"`
}

func (b Base) Time() time.Time {
	return b.CreatedAt
}

func (b Base) TreatmentBase() Base {
	return b
}

// Treatment is implemented by MealBolus, ResolvedMealBolus, CorrectionBolus,
// CarbCorrection, TempBasal and OtherTreatment.
type Treatment interface {
	EventType() EventType
	Time() time.Time
	TreatmentBase() Base
}

// MealBolus is a meal bolus whose carbohydrates are not known yet.
type MealBolus struct {
	Base    `json:",flatten"`
	Insulin float64 `json:"insulin"`
}

func (MealBolus) EventType() EventType {
	return EventTypeMealBolus
}

// Resolve attaches the carbohydrates of the carb correction identified by reference.
func (m MealBolus) Resolve(carbs float64, reference string) ResolvedMealBolus {
	return ResolvedMealBolus{
		Base:           m.Base,
		Insulin:        m.Insulin,
		Carbs:          carbs,
		CarbsReference: reference,
	}
}

type ResolvedMealBolus struct {
	Base    `json:",flatten"`
	Insulin float64 `json:"insulin"`
	Carbs   float64 `json:"carbs"`
	// Reference of the carb correction the carbs were taken from.
	// Empty for meal boli that were entered with their carbs.
	CarbsReference string `json:"carbsReference,omitempty"`
}

func (ResolvedMealBolus) EventType() EventType {
	return EventTypeMealBolus
}

type CorrectionBolus struct {
	Base    `json:",flatten"`
	Insulin float64 `json:"insulin"`
}

func (CorrectionBolus) EventType() EventType {
	return EventTypeCorrectionBolus
}

type CarbCorrection struct {
	Base  `json:",flatten"`
	Carbs float64 `json:"carbs"`
}

func (CarbCorrection) EventType() EventType {
	return EventTypeCarbCorrection
}

type TempBasal struct {
	Base `json:",flatten"`
	// Rate in U/h.
	Absolute float64 `json:"absolute"`
	// Duration in minutes.
	Duration int `json:"duration"`
}

func (TempBasal) EventType() EventType {
	return EventTypeTempBasal
}

// OtherTreatment is a treatment of a type the bridge does not publish, e.g. a BG Check entered in Nightscout.
type OtherTreatment struct {
	Base  `json:",flatten"`
	Event EventType `json:"-"`
}

func (o OtherTreatment) EventType() EventType {
	return o.Event
}

// Reference identifies a treatment across runs. It is built from the treatment's
// content only and therefore stable before and after the treatment is persisted.
func Reference(t Treatment) string {
	createdAt := FormatTime(t.Time())
	switch v := t.(type) {
	case MealBolus:
		return fmt.Sprintf("%s ?g %sU", createdAt, formatNumber(v.Insulin))
	case ResolvedMealBolus:
		return fmt.Sprintf("%s %sg %sU", createdAt, formatNumber(v.Carbs), formatNumber(v.Insulin))
	case CarbCorrection:
		return fmt.Sprintf("%s %sg", createdAt, formatNumber(v.Carbs))
	case CorrectionBolus:
		return fmt.Sprintf("%s %sU", createdAt, formatNumber(v.Insulin))
	case TempBasal:
		return fmt.Sprintf("%s %sU %dmin", createdAt, formatNumber(v.Absolute), v.Duration)
	default:
		return fmt.Sprintf("%s %s", createdAt, t.EventType())
	}
}

// CarbsReference identifies the carb correction a meal bolus took its carbs from. Carbs logged at the
// same time with the same amount by different devices are told apart by the device.
func CarbsReference(c CarbCorrection) string {
	if c.Device == "" {
		return Reference(c)
	}
	return fmt.Sprintf("%s %s", Reference(c), c.Device)
}
