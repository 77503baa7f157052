package strategyconfig

import "time"

// Config is the full trading strategy configuration
type Config struct {
	Meta    Meta    `yaml:"meta" json:"meta"`
	Sell    Sell    `yaml:"sell" json:"sell"`
	Pricing Pricing `yaml:"pricing" json:"pricing"`
	Buy     Buy     `yaml:"buy" json:"buy"`
	Pacing  Pacing  `yaml:"pacing" json:"pacing"`
}

// Meta identifies the configuration
type Meta struct {
	StrategyID string `yaml:"strategy_id" json:"strategy_id"`
	Version    string `yaml:"version" json:"version"`
}

// Sell configures the sell run
type Sell struct {
	Strategy string  `yaml:"strategy" json:"strategy"` // imperfect | flagged
	Markup   float64 `yaml:"markup" json:"markup"`     // fixed markup when no model is loaded
	Fraction float64 `yaml:"fraction" json:"fraction"` // share of sellable notes examined per run
}

// Pricing configures the sale price search
type Pricing struct {
	Confidence float64 `yaml:"confidence" json:"confidence"`
	MinMarkup  float64 `yaml:"min_markup" json:"min_markup"`
	MaxMarkup  float64 `yaml:"max_markup" json:"max_markup"`
	Step       float64 `yaml:"step" json:"step"`
}

// Buy configures the buy run
type Buy struct {
	Strategy    string  `yaml:"strategy" json:"strategy"` // conservative
	ReserveCash float64 `yaml:"reserve_cash" json:"reserve_cash"`
	SortBy      string  `yaml:"sort_by" json:"sort_by"` // markup | rate | price

	MaxMarkup               float64 `yaml:"max_markup" json:"max_markup"`
	MaxPrice                float64 `yaml:"max_price" json:"max_price"` // 0 = no limit
	FromRate                float64 `yaml:"from_rate" json:"from_rate"`
	ToRate                  float64 `yaml:"to_rate" json:"to_rate"` // 0 = no limit
	MaxDaysSinceLastPayment int     `yaml:"max_days_since_last_payment" json:"max_days_since_last_payment"`
	MinPaymentsReceived     int     `yaml:"min_payments_received" json:"min_payments_received"`
	MinCreditDelta          int     `yaml:"min_credit_delta" json:"min_credit_delta"`
	PaymentWindowDays       int     `yaml:"payment_window_days" json:"payment_window_days"`

	Search Search `yaml:"search" json:"search"`
}

// Search narrows the inventory download
type Search struct {
	MinRate     float64  `yaml:"min_rate" json:"min_rate"`
	MaxRate     float64  `yaml:"max_rate" json:"max_rate"`
	MaxMarkup   float64  `yaml:"max_markup" json:"max_markup"`
	NeverLate   bool     `yaml:"never_late" json:"never_late"`
	Statuses    []string `yaml:"statuses" json:"statuses"`
	MaxAskPrice float64  `yaml:"max_ask_price" json:"max_ask_price"`
}

// Pacing bounds the load put on the note service
type Pacing struct {
	RequestDelay time.Duration `yaml:"request_delay" json:"request_delay"`
	DetailMaxAge time.Duration `yaml:"detail_max_age" json:"detail_max_age"`
}

// Strategy names
const (
	SellImperfect   = "imperfect"
	SellFlagged     = "flagged"
	BuyConservative = "conservative"

	SortByMarkup = "markup"
	SortByRate   = "rate"
	SortByPrice  = "price"
)

// Default returns the built-in configuration used when no file is given
func Default() *Config {
	return &Config{
		Meta: Meta{StrategyID: "default", Version: "1"},
		Sell: Sell{
			Strategy: SellImperfect,
			Markup:   1.0,
			Fraction: 1.0,
		},
		Pricing: Pricing{
			Confidence: 0.4,
			MinMarkup:  0.98,
			MaxMarkup:  1.25,
			Step:       0.01,
		},
		Buy: Buy{
			Strategy:                BuyConservative,
			SortBy:                  SortByMarkup,
			MaxMarkup:               1.001,
			FromRate:                0.10,
			MaxDaysSinceLastPayment: 25,
			MinPaymentsReceived:     3,
			MinCreditDelta:          -40,
			PaymentWindowDays:       5,
			Search: Search{
				MaxMarkup: 1.001,
				NeverLate: true,
				Statuses:  []string{"Current"},
			},
		},
		Pacing: Pacing{
			RequestDelay: time.Second,
			DetailMaxAge: 14 * 24 * time.Hour,
		},
	}
}

// RunSnapshot ties a decision run to the exact configuration it used
type RunSnapshot struct {
	ConfigHash string    `json:"config_hash"`
	ConfigYAML string    `json:"config_yaml"`
	StrategyID string    `json:"strategy_id"`
	CreatedAt  time.Time `json:"created_at"`
}
