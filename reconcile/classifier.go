package reconcile

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/burnedikt/diasend-nightscout-bridge/diasend"
	"github.com/burnedikt/diasend-nightscout-bridge/nightscout"
	"github.com/burnedikt/diasend-nightscout-bridge/pointer"
)

var errNotANonNegativeNumber = errors.New("not a non-negative number")

// Classification is the result of classifying one record. Exactly one of Treatment and Entry is set.
type Classification struct {
	Treatment nightscout.Treatment
	Entry     nightscout.Entry
}

type Classifier struct {
	app string
	// Minutes. Diasend does not report for how long a basal rate applies.
	tempBasalDuration int
}

func NewClassifier(app string, tempBasalDuration int) *Classifier {
	return &Classifier{
		app:               app,
		tempBasalDuration: tempBasalDuration,
	}
}

// Classify maps a source record to the treatment or entry it represents.
// A carb record with an unusable amount fails with a *MalformedValueError.
func (c *Classifier) Classify(record diasend.Record) (Classification, error) {
	switch r := record.(type) {
	case diasend.GlucoseRecord:
		return Classification{Entry: c.entry(r)}, nil
	case diasend.BasalRecord:
		return Classification{Treatment: nightscout.TempBasal{
			Base:     c.base(r.BaseRecord),
			Absolute: r.Value,
			Duration: c.tempBasalDuration,
		}}, nil
	case diasend.CarbRecord:
		carbs, err := parseCarbs(r.Value)
		if err != nil {
			return Classification{}, &MalformedValueError{Kind: r.Kind(), Value: r.Value, Time: r.Time(), Err: err}
		}
		return Classification{Treatment: nightscout.CarbCorrection{
			Base:  c.base(r.BaseRecord),
			Carbs: carbs,
		}}, nil
	case diasend.BolusRecord:
		return Classification{Treatment: c.bolus(r)}, nil
	default:
		return Classification{}, fmt.Errorf("unsupported record %T", record)
	}
}

// bolus uses the total delivered amount for both variants. The programmed components do not
// add up to it when the suggestion was overridden.
func (c *Classifier) bolus(r diasend.BolusRecord) nightscout.Treatment {
	base := c.base(r.BaseRecord)
	if !r.IsMealBolus() {
		return nightscout.CorrectionBolus{Base: base, Insulin: r.TotalValue}
	}

	if correction := pointer.Default(r.ProgrammedBGCorrection, 0); correction != 0 {
		base.Notes = "Correction: " + diasend.FormatNumber(correction)
	}
	return nightscout.MealBolus{Base: base, Insulin: r.TotalValue}
}

func (c *Classifier) entry(r diasend.GlucoseRecord) nightscout.Entry {
	base := nightscout.NewEntryBase(r.Time(), r.Device.Label(), c.app)
	if r.IsManual() {
		return nightscout.ManualGlucose{EntryBase: base, MBG: r.Value}
	}
	return nightscout.SensorGlucose{EntryBase: base, SGV: r.Value}
}

func (c *Classifier) base(r diasend.BaseRecord) nightscout.Base {
	return nightscout.Base{
		CreatedAt: r.Time().UTC(),
		Device:    r.Device.Label(),
		App:       c.app,
	}
}

func parseCarbs(value string) (float64, error) {
	carbs, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(carbs) || math.IsInf(carbs, 0) || carbs < 0 {
		return 0, errNotANonNegativeNumber
	}
	return carbs, nil
}
