package config

import (
	"time"
)

// DeliveryConfig tunes tracking freshness, proof-of-delivery policy and the
// payout schedule.
type DeliveryConfig struct {
	// Live tracking TTLs
	LocationTTL     time.Duration `yaml:"location_ttl"`
	TrackingTTL     time.Duration `yaml:"tracking_ttl"`
	AssignmentTTL   time.Duration `yaml:"assignment_ttl"`
	DefaultSpeedKMH float64       `yaml:"default_speed_kmh"`

	// Proof of delivery
	OTPExpiry             time.Duration `yaml:"otp_expiry"`
	OTPMaxAttempts        int           `yaml:"otp_max_attempts"`
	HighValueOTPThreshold float64       `yaml:"high_value_otp_threshold"`
	MaxProofFileSizeMB    int64         `yaml:"max_proof_file_size_mb"`

	// Earnings finalized at completion
	PeakHourBonus   float64  `yaml:"peak_hour_bonus"`
	PeakHourWindows []string `yaml:"peak_hour_windows"` // "HH:MM-HH:MM"

	// Payouts
	MinInstantPayoutAmount float64 `yaml:"min_instant_payout_amount"`
	InstantPayoutFee       float64 `yaml:"instant_payout_fee"`
	MaxPayoutRetries       int     `yaml:"max_payout_retries"`
	WeeklyPayoutSchedule   string  `yaml:"weekly_payout_schedule"` // cron spec
}

func loadDeliveryConfig() *DeliveryConfig {
	return &DeliveryConfig{
		LocationTTL:     getEnvAsDuration("DELIVERY_LOCATION_TTL", 90*time.Second),
		TrackingTTL:     getEnvAsDuration("DELIVERY_TRACKING_TTL", 30*time.Minute),
		AssignmentTTL:   getEnvAsDuration("DELIVERY_ASSIGNMENT_TTL", 4*time.Hour),
		DefaultSpeedKMH: getEnvAsFloat64("DELIVERY_DEFAULT_SPEED_KMH", 30),

		OTPExpiry:             getEnvAsDuration("DELIVERY_OTP_EXPIRY", 10*time.Minute),
		OTPMaxAttempts:        getEnvAsInt("DELIVERY_OTP_MAX_ATTEMPTS", 3),
		HighValueOTPThreshold: getEnvAsFloat64("DELIVERY_HIGH_VALUE_OTP_THRESHOLD", 50),
		MaxProofFileSizeMB:    int64(getEnvAsInt("DELIVERY_MAX_PROOF_FILE_SIZE_MB", 10)),

		PeakHourBonus:   getEnvAsFloat64("DELIVERY_PEAK_HOUR_BONUS", 1.50),
		PeakHourWindows: getEnvAsSlice("DELIVERY_PEAK_HOUR_WINDOWS", []string{"11:30-13:30", "18:00-21:00"}),

		MinInstantPayoutAmount: getEnvAsFloat64("PAYOUT_MIN_INSTANT_AMOUNT", 10),
		InstantPayoutFee:       getEnvAsFloat64("PAYOUT_INSTANT_FEE", 0.99),
		MaxPayoutRetries:       getEnvAsInt("PAYOUT_MAX_RETRIES", 3),
		WeeklyPayoutSchedule:   getEnv("PAYOUT_WEEKLY_SCHEDULE", "0 6 * * 1"),
	}
}
