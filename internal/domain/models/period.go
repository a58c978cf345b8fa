package models

// PeriodProfile binds an inbound period to how history is fetched and which
// engine forecasts it.
type PeriodProfile struct {
	Name        string
	Granularity Granularity
	Limit       int
	Engine      string
}

// PeriodTable resolves inbound period values; the empty value maps to Default.
type PeriodTable struct {
	Default  string
	Profiles map[string]PeriodProfile
}

// Resolve returns the profile for period or ErrInvalidPeriod.
func (t PeriodTable) Resolve(period string) (PeriodProfile, error) {
	if period == "" {
		period = t.Default
	}
	p, ok := t.Profiles[period]
	if !ok {
		return PeriodProfile{}, ErrInvalidPeriod
	}
	if p.Name == "" {
		p.Name = period
	}
	return p, nil
}
