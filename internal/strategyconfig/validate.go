package strategyconfig

import (
	"fmt"
	"math"
	"time"
)

// ValidationError is a configuration problem that stops the program
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning is a questionable but usable setting
type Warning struct {
	Code    string
	Message string
}

// Validate checks all required constraints
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.StrategyID == "" {
		return ValidationError{"meta.strategy_id", "required"}
	}

	// === Sell ===
	switch cfg.Sell.Strategy {
	case SellImperfect, SellFlagged:
	default:
		return ValidationError{"sell.strategy", fmt.Sprintf("must be one of %q, %q", SellImperfect, SellFlagged)}
	}
	if cfg.Sell.Markup <= 0 {
		return ValidationError{"sell.markup", "must be > 0"}
	}
	if err := validateUnitRange(cfg.Sell.Fraction, "sell.fraction"); err != nil {
		return err
	}

	// === Pricing ===
	if err := validateUnitRange(cfg.Pricing.Confidence, "pricing.confidence"); err != nil {
		return err
	}
	if cfg.Pricing.MinMarkup <= 0 {
		return ValidationError{"pricing.min_markup", "must be > 0"}
	}
	if cfg.Pricing.MinMarkup > cfg.Pricing.MaxMarkup {
		return ValidationError{"pricing", "min_markup must be <= max_markup"}
	}
	if cfg.Pricing.Step <= 0 {
		return ValidationError{"pricing.step", "must be > 0"}
	}

	// === Buy ===
	if cfg.Buy.Strategy != BuyConservative {
		return ValidationError{"buy.strategy", fmt.Sprintf("must be %q", BuyConservative)}
	}
	switch cfg.Buy.SortBy {
	case SortByMarkup, SortByRate, SortByPrice:
	default:
		return ValidationError{"buy.sort_by", fmt.Sprintf("must be one of %q, %q, %q", SortByMarkup, SortByRate, SortByPrice)}
	}
	if cfg.Buy.ReserveCash < 0 {
		return ValidationError{"buy.reserve_cash", "must be >= 0"}
	}
	if cfg.Buy.MaxMarkup <= 0 {
		return ValidationError{"buy.max_markup", "must be > 0"}
	}
	if cfg.Buy.MaxPrice < 0 {
		return ValidationError{"buy.max_price", "must be >= 0"}
	}
	if err := validateUnitRange(cfg.Buy.FromRate, "buy.from_rate"); err != nil {
		return err
	}
	if cfg.Buy.ToRate != 0 && cfg.Buy.ToRate <= cfg.Buy.FromRate {
		return ValidationError{"buy.to_rate", "must be > from_rate (or 0 for no limit)"}
	}
	if cfg.Buy.MaxDaysSinceLastPayment < 0 {
		return ValidationError{"buy.max_days_since_last_payment", "must be >= 0"}
	}
	if cfg.Buy.MinPaymentsReceived < 0 {
		return ValidationError{"buy.min_payments_received", "must be >= 0"}
	}
	if cfg.Buy.PaymentWindowDays < 0 {
		return ValidationError{"buy.payment_window_days", "must be >= 0"}
	}
	if cfg.Buy.Search.MaxRate != 0 && cfg.Buy.Search.MaxRate < cfg.Buy.Search.MinRate {
		return ValidationError{"buy.search", "max_rate must be >= min_rate"}
	}

	// === Pacing ===
	if cfg.Pacing.RequestDelay < 0 {
		return ValidationError{"pacing.request_delay", "must be >= 0"}
	}
	if cfg.Pacing.DetailMaxAge < 0 {
		return ValidationError{"pacing.detail_max_age", "must be >= 0"}
	}

	return nil
}

// Warn checks recommended constraints (non-fatal)
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	if cfg.Buy.MaxMarkup > 1.05 {
		warnings = append(warnings, Warning{
			Code:    "HIGH_BUY_MARKUP",
			Message: "buying above 105% of par rarely pays off",
		})
	}

	if cfg.Pricing.MinMarkup < 0.9 {
		warnings = append(warnings, Warning{
			Code:    "DEEP_DISCOUNT",
			Message: "price search may sell below 90% of par",
		})
	}

	if cfg.Pacing.RequestDelay < 500*time.Millisecond {
		warnings = append(warnings, Warning{
			Code:    "AGGRESSIVE_PACING",
			Message: "request_delay < 500ms may trip the service's throttling",
		})
	}

	if cfg.Sell.Fraction == 0 {
		warnings = append(warnings, Warning{
			Code:    "SELL_DISABLED",
			Message: "sell.fraction is 0: no notes will be examined",
		})
	}

	return warnings
}

func validateUnitRange(v float64, field string) error {
	if math.IsNaN(v) || v < 0 || v > 1 {
		return ValidationError{field, "must be in range [0, 1]"}
	}
	return nil
}
