package nightscout

import (
	"fmt"
	"strconv"
	"strings"
)

type TimeBasedValue struct {
	// HH:MM
	Time          string  `json:"time"`
	TimeAsSeconds int     `json:"timeAsSeconds"`
	Value         float64 `json:"value"`
}

// NewTimeBasedValue creates a schedule value starting at clock, given as HH:MM or HH:MM:SS.
func NewTimeBasedValue(clock string, value float64) (TimeBasedValue, error) {
	parts := strings.Split(strings.TrimSpace(clock), ":")
	if len(parts) < 2 {
		return TimeBasedValue{}, fmt.Errorf("invalid time of day %q", clock)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 || hours > 23 {
		return TimeBasedValue{}, fmt.Errorf("invalid time of day %q", clock)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return TimeBasedValue{}, fmt.Errorf("invalid time of day %q", clock)
	}

	return TimeBasedValue{
		Time:          fmt.Sprintf("%02d:%02d", hours, minutes),
		TimeAsSeconds: hours*3600 + minutes*60,
		Value:         value,
	}, nil
}

type ProfileConfig struct {
	// Duration of insulin action in hours.
	DIA        float64          `json:"dia,omitempty"`
	CarbRatio  []TimeBasedValue `json:"carbratio"`
	CarbsHr    float64          `json:"carbs_hr,omitempty"`
	Delay      float64          `json:"delay,omitempty"`
	Sens       []TimeBasedValue `json:"sens"`
	Basal      []TimeBasedValue `json:"basal"`
	TargetLow  []TimeBasedValue `json:"target_low"`
	TargetHigh []TimeBasedValue `json:"target_high"`
	StartDate  string           `json:"startDate,omitempty"`
	Timezone   string           `json:"timezone,omitempty"`
	Units      string           `json:"units,omitempty"`
}

type Profile struct {
	ID             string                   `json:"_id,omitempty"`
	DefaultProfile string                   `json:"defaultProfile"`
	StartDate      string                   `json:"startDate,omitempty"`
	Mills          int64                    `json:"mills,omitempty"`
	Units          string                   `json:"units,omitempty"`
	CreatedAt      string                   `json:"created_at,omitempty"`
	Store          map[string]ProfileConfig `json:"store"`
}
