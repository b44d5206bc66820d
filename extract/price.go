package extract

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	// "current price $5.97" — screen-reader phrasing some sites use for the
	// buy-now price, distinguishing it from struck-through list prices.
	reCurrentPrice = regexp.MustCompile(`(?i)current\s+price\s*\$(\d+(?:,\d{3})*)(?:\.(\d{1,2}))?`)

	// Generic "$12.99" / "$1,234" / "$5.5".
	reDollarPrice = regexp.MustCompile(`\$(\d+(?:,\d{3})*)(?:\.(\d{1,2}))?`)

	reNonDigit = regexp.MustCompile(`\D+`)
)

// ParsePriceText parses a price in currency units out of free text.
//
// Text containing the phrase "current price" is matched against the
// current-price pattern first, so a nearby struck-through "was" price cannot
// shadow the live one. Otherwise the generic dollar pattern applies.
//
// Cents right-pad rule: a single captured cents digit is interpreted as
// tens-of-cents, so "$5.5" parses as 5.50, not 5.05. Unusual, but it matches
// the screen-reader phrasing the pattern targets ("5 dollars 50 cents" is
// rendered "current price $5.5" in some markup generations).
func ParsePriceText(text string) (float64, bool) {
	if text == "" {
		return 0, false
	}
	if strings.Contains(strings.ToLower(text), "current price") {
		if v, ok := matchPrice(reCurrentPrice, text); ok {
			return v, true
		}
	}
	return matchPrice(reDollarPrice, text)
}

func matchPrice(re *regexp.Regexp, text string) (float64, bool) {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	dollars, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", ""))
	if err != nil {
		return 0, false
	}
	return float64(dollars) + float64(padCents(m[2]))/100, true
}

// padCents interprets a captured cents fragment as a two-digit value,
// right-padding a lone digit: "5" means 50 cents.
func padCents(frag string) int {
	switch len(frag) {
	case 0:
		return 0
	case 1:
		frag += "0"
	}
	c, err := strconv.Atoi(frag)
	if err != nil {
		return 0
	}
	return c
}

// CombineSplitPrice joins separately rendered whole-dollar and cents nodes
// ("12" and "99" → 12.99). Non-digit characters are stripped from both parts
// before concatenating as dollars.cents.
func CombineSplitPrice(whole, cents string) (float64, bool) {
	w := reNonDigit.ReplaceAllString(whole, "")
	if w == "" {
		return 0, false
	}
	c := reNonDigit.ReplaceAllString(cents, "")
	if c == "" {
		c = "00"
	}
	v, err := strconv.ParseFloat(w+"."+c, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
