package tailwind

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// rgba is a colour with 8-bit channels.
type rgba [4]uint8

// parseHex parses #RRGGBB or #RRGGBBAA (case-insensitive).
func parseHex(s string) (rgba, bool) {
	var c rgba
	if !strings.HasPrefix(s, "#") {
		return c, false
	}
	s = s[1:]
	if len(s) != 6 && len(s) != 8 {
		return c, false
	}
	c[3] = 0xFF
	for i := 0; i < len(s)/2; i++ {
		v, err := strconv.ParseUint(s[i*2:i*2+2], 16, 8)
		if err != nil {
			return c, false
		}
		c[i] = uint8(v)
	}
	return c, true
}

// withOpacity scales the alpha channel by pct percent (0-100).
func (c rgba) withOpacity(pct int) rgba {
	c[3] = uint8(math.Round(float64(c[3]) * float64(pct) / 100))
	return c
}

// literal renders the colour as #RRGGBBAA in upper case.
func (c rgba) literal() string {
	return fmt.Sprintf("#%02X%02X%02X%02X", c[0], c[1], c[2], c[3])
}

// opacityModifier parses the "/NN" part of a colour utility.
func opacityModifier(mod string) (int, bool) {
	if !isDigits(mod) || len(mod) > 3 {
		return 0, false
	}
	n, err := strconv.Atoi(mod)
	if err != nil || n > 100 {
		return 0, false
	}
	return n, true
}

var fractionDenominators = map[int]bool{2: true, 3: true, 4: true, 5: true, 6: true, 12: true}

// fractionPercent converts "n/d" into a percentage string such as "33.333333%".
func fractionPercent(key string) (string, bool) {
	num, den, ok := strings.Cut(key, "/")
	if !ok || !isDigits(num) || !isDigits(den) {
		return "", false
	}
	n, _ := strconv.Atoi(num)
	d, _ := strconv.Atoi(den)
	if !fractionDenominators[d] || n <= 0 || n >= d {
		return "", false
	}
	pct := strconv.FormatFloat(float64(n)*100/float64(d), 'f', 6, 64)
	pct = strings.TrimRight(pct, "0")
	pct = strings.TrimSuffix(pct, ".")
	return pct + "%", true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
