package weather

import "errors"

// Condition is the sky/precipitation tag that drives icon selection
type Condition string

const (
	ConditionSunny        Condition = "sunny"
	ConditionPartlyCloudy Condition = "partly-cloudy"
	ConditionCloudy       Condition = "cloudy"
	ConditionRainy        Condition = "rainy"
	ConditionSnowy        Condition = "snowy"
	ConditionStormy       Condition = "stormy"
)

// Conditions lists every known condition tag
var Conditions = []Condition{
	ConditionSunny,
	ConditionPartlyCloudy,
	ConditionCloudy,
	ConditionRainy,
	ConditionSnowy,
	ConditionStormy,
}

// Valid reports whether c is one of the known condition tags
func (c Condition) Valid() bool {
	for _, known := range Conditions {
		if c == known {
			return true
		}
	}
	return false
}

// ErrLocationTooLong is returned when a lookup location exceeds the configured limit
var ErrLocationTooLong = errors.New("location too long")

// HourlyForecast is a single tile of the hourly strip
type HourlyForecast struct {
	Time      string    `json:"time"`
	Temp      int       `json:"temp"`
	Condition Condition `json:"condition"`
}

// Snapshot represents the complete weather record for one location at one point in time
type Snapshot struct {
	Location       string           `json:"location"`
	Temperature    int              `json:"temperature"`
	Condition      Condition        `json:"condition"`
	Description    string           `json:"description"`
	Humidity       int              `json:"humidity"`   // percent
	WindSpeed      int              `json:"windSpeed"`  // km/h
	Visibility     int              `json:"visibility"` // km
	Pressure       int              `json:"pressure"`   // mb
	FeelsLike      int              `json:"feelsLike"`
	UVIndex        int              `json:"uvIndex"`
	HourlyForecast []HourlyForecast `json:"hourlyForecast"`
}

// Clone returns a deep copy of the snapshot
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	c := *s
	c.HourlyForecast = make([]HourlyForecast, len(s.HourlyForecast))
	copy(c.HourlyForecast, s.HourlyForecast)
	return &c
}

// WithLocation returns a copy of the snapshot relabelled to location
func (s *Snapshot) WithLocation(location string) *Snapshot {
	c := s.Clone()
	c.Location = location
	return c
}

// DefaultLocation is the location of the built-in snapshot
const DefaultLocation = "San Francisco, CA"

// DefaultSnapshot returns a fresh copy of the built-in mock snapshot
func DefaultSnapshot() *Snapshot {
	return &Snapshot{
		Location:    DefaultLocation,
		Temperature: 22,
		Condition:   ConditionPartlyCloudy,
		Description: "Partly Cloudy",
		Humidity:    65,
		WindSpeed:   12,
		Visibility:  10,
		Pressure:    1013,
		FeelsLike:   24,
		UVIndex:     6,
		HourlyForecast: []HourlyForecast{
			{Time: "12 PM", Temp: 22, Condition: ConditionSunny},
			{Time: "1 PM", Temp: 23, Condition: ConditionPartlyCloudy},
			{Time: "2 PM", Temp: 24, Condition: ConditionPartlyCloudy},
			{Time: "3 PM", Temp: 25, Condition: ConditionCloudy},
			{Time: "4 PM", Temp: 24, Condition: ConditionCloudy},
			{Time: "5 PM", Temp: 23, Condition: ConditionRainy},
		},
	}
}
