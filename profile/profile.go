package profile

import (
	"fmt"

	"github.com/mohae/deepcopy"

	"github.com/burnedikt/diasend-nightscout-bridge/diasend"
	"github.com/burnedikt/diasend-nightscout-bridge/nightscout"
	"github.com/burnedikt/diasend-nightscout-bridge/pointer"
)

// ToProfileConfig converts the pump's therapy settings to a Nightscout profile.
func ToProfileConfig(settings *diasend.PumpSettings, timezone string) (nightscout.ProfileConfig, error) {
	basal, err := schedule(settings.BasalProfile)
	if err != nil {
		return nightscout.ProfileConfig{}, fmt.Errorf("invalid basal profile: %w", err)
	}
	carbRatio, err := schedule(settings.InsulinCarbRatioProfile)
	if err != nil {
		return nightscout.ProfileConfig{}, fmt.Errorf("invalid insulin to carb ratio profile: %w", err)
	}
	sens, err := schedule(settings.InsulinSensitivityProfile)
	if err != nil {
		return nightscout.ProfileConfig{}, fmt.Errorf("invalid insulin sensitivity profile: %w", err)
	}

	config := nightscout.ProfileConfig{
		Basal:      basal,
		CarbRatio:  carbRatio,
		Sens:       sens,
		TargetLow:  constant(settings.BloodGlucoseTargetLow),
		TargetHigh: constant(settings.BloodGlucoseTargetHigh),
		Units:      settings.Units,
		Timezone:   timezone,
		DIA:        pointer.Default(settings.InsulinOnBoardDurationHours, 0),
	}
	return config, nil
}

// Apply returns a copy of existing in which the basal schedule of the profile called name follows the
// pump. Everything else is kept as configured in Nightscout. A profile that does not exist yet is
// created from all pump settings.
func Apply(existing *nightscout.Profile, settings *diasend.PumpSettings, name string, timezone string) (*nightscout.Profile, error) {
	converted, err := ToProfileConfig(settings, timezone)
	if err != nil {
		return nil, err
	}

	updated := deepcopy.Copy(*existing).(nightscout.Profile)
	if updated.Store == nil {
		updated.Store = map[string]nightscout.ProfileConfig{}
	}
	if updated.DefaultProfile == "" {
		updated.DefaultProfile = name
	}

	if config, ok := updated.Store[name]; ok {
		config.Basal = converted.Basal
		updated.Store[name] = config
	} else {
		updated.Store[name] = converted
	}

	return &updated, nil
}

func schedule(entries []diasend.ScheduleEntry) ([]nightscout.TimeBasedValue, error) {
	values := make([]nightscout.TimeBasedValue, 0, len(entries))
	for _, e := range entries {
		value, err := nightscout.NewTimeBasedValue(e.Start, e.Value)
		if err != nil {
			return nil, err
		}
		values = append(values, value)
	}
	return values, nil
}

// constant is a schedule with a single value for the whole day.
func constant(value *float64) []nightscout.TimeBasedValue {
	if value == nil {
		return []nightscout.TimeBasedValue{}
	}
	return []nightscout.TimeBasedValue{{Time: "00:00", TimeAsSeconds: 0, Value: *value}}
}
