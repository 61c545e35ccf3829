package dto

import "time"

// PeriodItem describes one configured lesson period.
type PeriodItem struct {
	Number int    `json:"number"`
	Start  string `json:"start"`
	End    string `json:"end"`
}

// ResolvePeriodResponse reports which period a timestamp falls onto.
// Custom is true when the timestamp does not match any period start.
type ResolvePeriodResponse struct {
	Period *int `json:"period,omitempty"`
	Custom bool `json:"custom"`
}

// MaterializePeriodResponse returns concrete bounds for a period on a date.
type MaterializePeriodResponse struct {
	Period int       `json:"period"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
}
