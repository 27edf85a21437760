package game

type Season string

const (
	SeasonSpring Season = "Spring"
	SeasonSummer Season = "Summer"
	SeasonAutumn Season = "Autumn"
	SeasonWinter Season = "Winter"
)

func (s Season) Valid() bool {
	switch s {
	case SeasonSpring, SeasonSummer, SeasonAutumn, SeasonWinter:
		return true
	}
	return false
}

type Weather string

const (
	WeatherClear Weather = "Clear"
	WeatherRain  Weather = "Rain"
	WeatherStorm Weather = "Storm"
)

func (w Weather) Valid() bool {
	switch w {
	case WeatherClear, WeatherRain, WeatherStorm:
		return true
	}
	return false
}

// WorldState is the shared calendar and weather of a room. It is advanced by the
// time/weather simulation and only ever merged into client caches.
type WorldState struct {
	Season  Season  `json:"season" jsonschema:"enum=Spring,enum=Summer,enum=Autumn,enum=Winter"`
	Day     int     `json:"day"`
	Weather Weather `json:"weather" jsonschema:"enum=Clear,enum=Rain,enum=Storm"`
}

// DefaultWorldState is the state of a room nobody has advanced yet.
func DefaultWorldState() WorldState {
	return WorldState{
		Season:  SeasonSpring,
		Day:     1,
		Weather: WeatherClear,
	}
}

// WorldPatch is a partial WorldState; nil fields are left untouched by Merge.
type WorldPatch struct {
	Season  *Season  `json:"season,omitempty"`
	Day     *int     `json:"day,omitempty"`
	Weather *Weather `json:"weather,omitempty"`
}

// Merge returns w with every field set in p applied. Invalid values in p are ignored.
func (w WorldState) Merge(p WorldPatch) WorldState {
	if p.Season != nil && p.Season.Valid() {
		w.Season = *p.Season
	}
	if p.Day != nil && *p.Day >= 0 {
		w.Day = *p.Day
	}
	if p.Weather != nil && p.Weather.Valid() {
		w.Weather = *p.Weather
	}
	return w
}

// Patch returns a WorldPatch that sets every field of w.
func (w WorldState) Patch() WorldPatch {
	s, d, wt := w.Season, w.Day, w.Weather
	return WorldPatch{Season: &s, Day: &d, Weather: &wt}
}
