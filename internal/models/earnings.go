package models

// EarningsTotals sums the earnings components of delivered deliveries over a
// window. Field names line up with the aggregation stage that produces them.
type EarningsTotals struct {
	BaseFees         float64 `json:"base_fees" bson:"base_fees"`
	DistanceBonuses  float64 `json:"distance_bonuses" bson:"distance_bonuses"`
	WaitTimeBonuses  float64 `json:"wait_time_bonuses" bson:"wait_time_bonuses"`
	PeakHourBonuses  float64 `json:"peak_hour_bonuses" bson:"peak_hour_bonuses"`
	Tips             float64 `json:"tips" bson:"tips"`
	AdjustmentsTotal float64 `json:"adjustments_total" bson:"adjustments_total"`
	Total            float64 `json:"total" bson:"total"`
	DeliveryCount    int64   `json:"delivery_count" bson:"delivery_count"`
}

// DailyEarnings is one bucket of the per-day breakdown.
type DailyEarnings struct {
	Date          string  `json:"date" bson:"_id"`
	Total         float64 `json:"total" bson:"total"`
	Tips          float64 `json:"tips" bson:"tips"`
	DeliveryCount int64   `json:"delivery_count" bson:"delivery_count"`
}
