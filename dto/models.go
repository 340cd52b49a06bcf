package dto

// StrategyTag identifies which stage of the amount cascade produced a
// value. It is recorded for logging and tests, never shown to the user.
type StrategyTag string

const (
	StrategyContextCurrency StrategyTag = "context_currency"
	StrategyContextBare     StrategyTag = "context_bare"
	StrategyCurrencyMax     StrategyTag = "currency_max"
	StrategyStandaloneMax   StrategyTag = "standalone_max"
	StrategyEmbedded        StrategyTag = "embedded"
	StrategyDigitRepair     StrategyTag = "digit_repair"
	StrategyDecimalSweep    StrategyTag = "decimal_sweep"
	StrategySpelledOut      StrategyTag = "spelled_out"
	StrategyOCRQuirk        StrategyTag = "ocr_quirk"
	StrategyNone            StrategyTag = ""
)

// ReceiptFields is the structured result of one extraction call. A nil
// Amount or empty Date means the cascade found no usable candidate; that
// is an expected outcome, not an error. AmountLine is the zero-based input
// line the amount was read from, kept for logging and tests.
type ReceiptFields struct {
	Amount         *Money      `json:"amount,omitempty"`
	AmountStrategy StrategyTag `json:"-"`
	AmountLine     int         `json:"-"`
	Date           string      `json:"date,omitempty"`
}
