package utils

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/expenseocr/receipt-extraction/dto"
)

// Valid amounts are [10, 10000] currency units inclusive. Below that the
// number is assumed to be a quantity or item count; above it, concatenated
// OCR noise. Both bounds are policy, not measurement.
const (
	minAmountMinor = 10 * 100
	maxAmountMinor = 10000 * 100
)

// contextKeywords raise confidence that a number on the same line is the
// receipt total rather than an item price or reference number.
var contextKeywords = []string{
	"total", "amount", "paid", "completed", "fare", "price",
	"grand", "final", "net", "received", "charged", "payment",
}

// vehicleTokens are noise-word fragments that OCR fuses onto the fare on
// auto/cab receipts, e.g. "40710BajajRE" for a 407.10 Bajaj RE ride. "RE"
// is handled separately in repairRe: it is a prefix of too many ordinary
// words ("received", "refund") to match without a word boundary.
var vehicleTokens = []string{
	"bajaj", "tvs", "hero", "honda", "maruti", "suzuki", "auto", "ola", "uber",
}

var (
	currencyNumberRe = regexp.MustCompile(`(?i)(?:₹|\$|€|£|\b(?:rs\.?|inr|usd|eur))\s*([0-9]+(?:\.[0-9]{1,2})?)`)
	bareNumberRe     = regexp.MustCompile(`[0-9]+(?:\.[0-9]{1,2})?`)
	standaloneRe     = regexp.MustCompile(`^[0-9]+(?:\.[0-9]{1,2})?$`)
	decimalNumberRe  = regexp.MustCompile(`[0-9]+\.[0-9]{1,2}`)
	longDigitRunRe   = regexp.MustCompile(`[0-9]{10,}`)
	clockTimeRe      = regexp.MustCompile(`\b[0-9]{1,2}:[0-9]{2}\b`)
	digitGroupRe     = regexp.MustCompile(`([0-9]),([0-9])`)
	// The leading guard keeps a fragment of a longer digit run (an ID or
	// phone number) from qualifying as a repairable fare.
	repairRe     = regexp.MustCompile(`(?i)(?:^|[^0-9])([0-9]{4,6})(?:` + strings.Join(vehicleTokens, "|") + `|re\b)`)
	spelledRe    = regexp.MustCompile(`(?i)(?:rupees|rs)[ ]*([a-z ]+?)[ ]*only`)
	quirkTokenRe = regexp.MustCompile(`^[^0-9\s]([0-9]{2,5})$`)
)

// line is one OCR text line. excluded marks ID-shaped (>=10 consecutive
// digits) and clock-time lines, which strategies 4 onward must ignore.
type line struct {
	text     string
	index    int
	excluded bool
}

// candidate is a provisional amount considered during extraction.
type candidate struct {
	money dto.Money
	line  int
}

// amountStrategies is the cascade, in precedence order. The first strategy
// to yield a candidate wins; later strategies are never consulted.
var amountStrategies = []struct {
	tag dto.StrategyTag
	fn  func([]line) *candidate
}{
	{dto.StrategyContextCurrency, contextCurrencyAmount},
	{dto.StrategyContextBare, contextBareAmount},
	{dto.StrategyCurrencyMax, currencyMaxAmount},
	{dto.StrategyStandaloneMax, standaloneMaxAmount},
	{dto.StrategyEmbedded, embeddedAmount},
	{dto.StrategyDigitRepair, digitRepairAmount},
	{dto.StrategyDecimalSweep, decimalSweepAmount},
	{dto.StrategySpelledOut, spelledOutAmount},
	{dto.StrategyOCRQuirk, ocrQuirkAmount},
}

// ExtractFields extracts the best-guess amount and transaction date from
// raw OCR text. The input is never mutated and the call is stateless, so
// identical text always yields an identical result.
func ExtractFields(text string) dto.ReceiptFields {
	lines := splitLines(text)

	result := dto.ReceiptFields{}
	for _, strategy := range amountStrategies {
		if c := strategy.fn(lines); c != nil {
			m := c.money
			result.Amount = &m
			result.AmountStrategy = strategy.tag
			result.AmountLine = c.line
			break
		}
	}
	result.Date = extractDate(lines)
	return result
}

// splitLines cleans OCR output into trimmed, non-empty lines, keeping the
// original reading order indexes.
func splitLines(text string) []line {
	text = strings.ReplaceAll(text, "\r", "")
	raw := strings.Split(text, "\n")

	lines := make([]line, 0, len(raw))
	for i, l := range raw {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		// Collapse digit-group commas so "1,450.00" parses as one number
		// instead of leaking an in-range fragment like 450.00. This runs
		// before the ID check so "1,234,567,890" is still excluded.
		l = digitGroupRe.ReplaceAllString(l, "$1$2")
		lines = append(lines, line{
			text:     l,
			index:    i,
			excluded: longDigitRunRe.MatchString(l) || clockTimeRe.MatchString(l),
		})
	}
	return lines
}

func hasContextKeyword(s string) bool {
	lower := strings.ToLower(s)
	for _, kw := range contextKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// contextMask marks every line that carries a context keyword, plus its
// immediate neighbours: receipt totals often sit on the line after the
// "Total" label.
func contextMask(lines []line) []bool {
	mask := make([]bool, len(lines))
	for i, l := range lines {
		if !hasContextKeyword(l.text) {
			continue
		}
		mask[i] = true
		if i > 0 {
			mask[i-1] = true
		}
		if i+1 < len(lines) {
			mask[i+1] = true
		}
	}
	return mask
}

// parseMoney parses a plain decimal token with at most two fractional
// digits into minor units.
func parseMoney(tok string) (dto.Money, bool) {
	parts := strings.SplitN(tok, ".", 2)
	if parts[0] == "" {
		return dto.Money{}, false
	}
	units, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return dto.Money{}, false
	}

	m := dto.Money{MinorUnits: units * 100}
	if len(parts) == 2 {
		frac := parts[1]
		if len(frac) == 0 || len(frac) > 2 {
			return dto.Money{}, false
		}
		v, err := strconv.Atoi(frac)
		if err != nil {
			return dto.Money{}, false
		}
		if len(frac) == 1 {
			v *= 10
		}
		m.MinorUnits += int64(v)
		m.FracDigits = len(frac)
	}
	return m, true
}

func inAmountRange(m dto.Money) bool {
	return m.MinorUnits >= minAmountMinor && m.MinorUnits <= maxAmountMinor
}

// better keeps the numerically largest valid candidate; on a tie, the
// first one seen.
func better(best *candidate, lineIndex int, tok string) *candidate {
	m, ok := parseMoney(tok)
	if !ok || !inAmountRange(m) {
		return best
	}
	if best != nil && best.money.MinorUnits >= m.MinorUnits {
		return best
	}
	return &candidate{money: m, line: lineIndex}
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// tokenBoundaryOK rejects matches that are fragments of a longer number or
// glued into a date or time shape (24/05/2025, 24-05-2025, 14:30). A label
// separator like "Total:450" is fine; ":"/"/"/"-" only disqualify when the
// far side is another digit.
func tokenBoundaryOK(s string, start, end int) bool {
	if start > 0 {
		switch p := s[start-1]; {
		case isDigit(p) || p == '.':
			return false
		case (p == ':' || p == '/' || p == '-') && start > 1 && isDigit(s[start-2]):
			return false
		}
	}
	if end < len(s) {
		switch n := s[end]; {
		case isDigit(n):
			return false
		case (n == ':' || n == '/' || n == '-' || n == '.') && end+1 < len(s) && isDigit(s[end+1]):
			return false
		}
	}
	return true
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// letterGlued reports whether a match is fused directly into a word, like
// the digits in "40710BajajRE" or "I450". Those are left for the repair
// and quirk strategies instead.
func letterGlued(s string, start, end int) bool {
	if start > 0 && isLetter(s[start-1]) {
		return true
	}
	return end < len(s) && isLetter(s[end])
}

// numberTokens returns the free-standing numeric substrings of a line,
// skipping fragments of IDs, dates and times. With rejectGlued set it also
// skips numbers fused into words.
func numberTokens(re *regexp.Regexp, s string, rejectGlued bool) []string {
	var toks []string
	for _, loc := range re.FindAllStringIndex(s, -1) {
		if !tokenBoundaryOK(s, loc[0], loc[1]) {
			continue
		}
		if rejectGlued && letterGlued(s, loc[0], loc[1]) {
			continue
		}
		toks = append(toks, s[loc[0]:loc[1]])
	}
	return toks
}

// Strategy 1: context keyword with a currency-marked number on the same or
// an adjacent line. Explicit semantic context is the strongest signal.
func contextCurrencyAmount(lines []line) *candidate {
	mask := contextMask(lines)
	var best *candidate
	for i, l := range lines {
		if !mask[i] {
			continue
		}
		for _, m := range currencyNumberRe.FindAllStringSubmatch(l.text, -1) {
			best = better(best, l.index, m[1])
		}
	}
	return best
}

// Strategy 2: bare number on a line that itself carries a context keyword.
func contextBareAmount(lines []line) *candidate {
	var best *candidate
	for _, l := range lines {
		if !hasContextKeyword(l.text) {
			continue
		}
		for _, tok := range numberTokens(bareNumberRe, l.text, false) {
			best = better(best, l.index, tok)
		}
	}
	return best
}

// Strategy 3: largest currency-marked number anywhere in the text.
func currencyMaxAmount(lines []line) *candidate {
	var best *candidate
	for _, l := range lines {
		for _, m := range currencyNumberRe.FindAllStringSubmatch(l.text, -1) {
			best = better(best, l.index, m[1])
		}
	}
	return best
}

// Strategy 4: largest line that is nothing but a number. ID-shaped and
// clock-time lines are out from here on.
func standaloneMaxAmount(lines []line) *candidate {
	var best *candidate
	for _, l := range lines {
		if l.excluded || !standaloneRe.MatchString(l.text) {
			continue
		}
		best = better(best, l.index, l.text)
	}
	return best
}

// Strategy 5: any embedded numeric substring, preferring ones that already
// carry a decimal point over integer-only matches.
func embeddedAmount(lines []line) *candidate {
	var bestDecimal, bestInteger *candidate
	for _, l := range lines {
		if l.excluded {
			continue
		}
		for _, tok := range numberTokens(bareNumberRe, l.text, true) {
			if strings.Contains(tok, ".") {
				bestDecimal = better(bestDecimal, l.index, tok)
			} else {
				bestInteger = better(bestInteger, l.index, tok)
			}
		}
	}
	if bestDecimal != nil {
		return bestDecimal
	}
	return bestInteger
}

// Strategy 6: a 4-6 digit run fused onto a vehicle token is a fare whose
// decimal point the OCR dropped; reinsert it two digits from the right.
func digitRepairAmount(lines []line) *candidate {
	var best *candidate
	for _, l := range lines {
		if l.excluded {
			continue
		}
		for _, m := range repairRe.FindAllStringSubmatch(l.text, -1) {
			run, err := strconv.ParseInt(m[1], 10, 64)
			if err != nil {
				continue
			}
			repaired := dto.Money{MinorUnits: run, FracDigits: 2}
			if !inAmountRange(repaired) {
				continue
			}
			if best == nil || repaired.MinorUnits > best.money.MinorUnits {
				best = &candidate{money: repaired, line: l.index}
			}
		}
	}
	return best
}

// Strategy 7: final numeric sweep for any NN.NN-shaped substring.
func decimalSweepAmount(lines []line) *candidate {
	var best *candidate
	for _, l := range lines {
		if l.excluded {
			continue
		}
		for _, tok := range numberTokens(decimalNumberRe, l.text, false) {
			best = better(best, l.index, tok)
		}
	}
	return best
}

// Strategy 8: a spelled-out amount like "RupeesFiftyOnly", split on case
// boundaries and resolved through the number-word table.
func spelledOutAmount(lines []line) *candidate {
	var best *candidate
	for _, l := range lines {
		if l.excluded {
			continue
		}
		m := spelledRe.FindStringSubmatch(l.text)
		if m == nil {
			continue
		}
		n, ok := wordsToNumber(splitCaseWords(m[1]))
		if !ok {
			continue
		}
		spelled := dto.Money{MinorUnits: n * 100}
		if !inAmountRange(spelled) {
			continue
		}
		if best == nil || spelled.MinorUnits > best.money.MinorUnits {
			best = &candidate{money: spelled, line: l.index}
		}
	}
	return best
}

// Strategy 9: last resort for currency glyphs misread as letters, e.g.
// "I450" where the rupee sign became a capital I. A single leading
// non-digit followed by 2-5 digits is treated as the number.
func ocrQuirkAmount(lines []line) *candidate {
	var best *candidate
	for _, l := range lines {
		if l.excluded {
			continue
		}
		for _, field := range strings.Fields(l.text) {
			if m := quirkTokenRe.FindStringSubmatch(field); m != nil {
				best = better(best, l.index, m[1])
			}
		}
	}
	return best
}

// splitCaseWords splits a fused word run on whitespace and on lower-to-upper
// case boundaries: "FiftyTwo" -> ["Fifty", "Two"].
func splitCaseWords(s string) []string {
	var words []string
	for _, field := range strings.Fields(s) {
		runes := []rune(field)
		start := 0
		for i := 1; i < len(runes); i++ {
			if unicode.IsUpper(runes[i]) && unicode.IsLower(runes[i-1]) {
				words = append(words, string(runes[start:i]))
				start = i
			}
		}
		words = append(words, string(runes[start:]))
	}
	return words
}

var numberWords = map[string]int64{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
	"eleven": 11, "twelve": 12, "thirteen": 13, "fourteen": 14, "fifteen": 15,
	"sixteen": 16, "seventeen": 17, "eighteen": 18, "nineteen": 19,
	"twenty": 20, "thirty": 30, "forty": 40, "fifty": 50,
	"sixty": 60, "seventy": 70, "eighty": 80, "ninety": 90,
}

// wordsToNumber resolves a token run like ["Two","Hundred","Fifty"] to 250.
// "hundred" and "thousand" act as multipliers; any unknown token fails the
// whole run rather than guessing.
func wordsToNumber(words []string) (int64, bool) {
	var total, current int64
	seen := false
	for _, w := range words {
		switch w = strings.ToLower(w); w {
		case "and":
			continue
		case "hundred":
			if current == 0 {
				return 0, false
			}
			current *= 100
		case "thousand":
			if current == 0 {
				return 0, false
			}
			total += current * 1000
			current = 0
		default:
			n, ok := numberWords[w]
			if !ok {
				return 0, false
			}
			current += n
			seen = true
		}
	}
	if !seen {
		return 0, false
	}
	return total + current, true
}

// datePatterns are tried in this fixed order on every line; the first match
// across the whole text wins. Dates get no range validation on purpose:
// date tokens are far less ambiguous in shape than bare numbers.
var datePatterns = []*regexp.Regexp{
	// 24 May 2025, 24-May-2025, 3rd Jan 24
	regexp.MustCompile(`(?i)\b[0-9]{1,2}(?:st|nd|rd|th)?[\s\-/.,]*(?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*[\s\-/.,]*[0-9]{2,4}\b`),
	// 24/05/2025, 24-5-25
	regexp.MustCompile(`\b[0-9]{1,2}[/-][0-9]{1,2}[/-][0-9]{2,4}\b`),
	// 2025/05/24
	regexp.MustCompile(`\b[0-9]{4}[/-][0-9]{1,2}[/-][0-9]{1,2}\b`),
}

func extractDate(lines []line) string {
	for _, l := range lines {
		for _, re := range datePatterns {
			if m := re.FindString(l.text); m != "" {
				return strings.TrimSpace(m)
			}
		}
	}
	return ""
}
