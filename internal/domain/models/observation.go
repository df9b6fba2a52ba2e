package models

import (
	"encoding/json"
	"time"

	"github.com/yudhaislamisulistya/rpl-sc-06-01/pkg/util"
)

// DateLayout is the calendar-date form used on the wire and at rest.
const DateLayout = util.DateLayout

// Observation is one row of the lagged price table. Date is a UTC midnight.
type Observation struct {
	Date       time.Time
	PriceLag1  float64
	PriceLag2  float64
	PriceToday float64
}

// DateString formats the row date as YYYY-MM-DD.
func (o Observation) DateString() string { return o.Date.Format(DateLayout) }

func (o Observation) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Date       string  `json:"date"`
		PriceLag1  float64 `json:"price_lag1"`
		PriceLag2  float64 `json:"price_lag2"`
		PriceToday float64 `json:"price_today"`
	}{o.DateString(), o.PriceLag1, o.PriceLag2, o.PriceToday})
}

// ObservationEntry is what an upsert hands back: the stored date and actual.
type ObservationEntry struct {
	Date       time.Time
	PriceToday float64
	Inserted   bool // false when an existing date was replaced
}

func (e ObservationEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Date       string  `json:"date"`
		PriceToday float64 `json:"price_today"`
	}{e.Date.Format(DateLayout), e.PriceToday})
}
