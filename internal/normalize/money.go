// Package normalize converts provider responses into the canonical
// ExtractionResult shape: decimal amounts become integer minor currency
// units, dates become calendar dates.
package normalize

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/text/currency"
)

// MinorUnits parses a decimal amount string ("85.60") into integer minor
// units (8560) for the given ISO 4217 currency code. The fraction digit
// count comes from the currency definition, so zero-decimal currencies like
// JPY round to whole units.
func MinorUnits(amount, currencyCode string) (int64, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return 0, eris.New("normalize: empty amount")
	}

	digits := fractionDigits(currencyCode)

	neg := false
	if strings.HasPrefix(amount, "-") {
		neg = true
		amount = amount[1:]
	}

	whole, frac := amount, ""
	if i := strings.IndexByte(amount, '.'); i >= 0 {
		whole, frac = amount[:i], amount[i+1:]
	}
	if whole == "" {
		whole = "0"
	}

	// Pad or truncate the fraction to the currency's digit count.
	if len(frac) < digits {
		frac += strings.Repeat("0", digits-len(frac))
	} else {
		frac = frac[:digits]
	}

	var minor int64
	for _, r := range whole + frac {
		if r < '0' || r > '9' {
			return 0, eris.Errorf("normalize: invalid amount %q", amount)
		}
		minor = minor*10 + int64(r-'0')
	}
	if neg {
		minor = -minor
	}
	return minor, nil
}

// fractionDigits returns the minor-unit digit count for a currency code,
// defaulting to 2 when the code is unknown.
func fractionDigits(code string) int {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return 2
	}
	scale, _ := currency.Standard.Rounding(unit)
	return scale
}

// Date parses a provider-reported issue date. Providers are prompted for
// ISO 8601 but occasionally return other common layouts.
func Date(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{"2006-01-02", "02.01.2006", "01/02/2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, eris.Errorf("normalize: unparseable date %q", s)
}
