package model

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Amount is a permissive numeric field. Decoding never fails: numbers,
// numeric strings ("1,250,000"), null and garbage all decode, the
// unparseable ones to zero.
type Amount float64

// Float returns a as a plain float64.
func (a Amount) Float() float64 { return float64(a) }

// UnmarshalJSON implements json.Unmarshaler.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*a = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*a = 0
			return nil
		}
		*a = ParseAmount(s)
		return nil
	}
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		*a = 0
		return nil
	}
	*a = Amount(f)
	return nil
}

// ParseAmount parses a user-entered number. Thousands separators, spaces
// and a trailing percent sign are ignored; anything else unparseable is 0.
func ParseAmount(s string) Amount {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "%")
	s = strings.NewReplacer(",", "", " ", "", "_", "").Replace(s)
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return Amount(f)
}

// SumAmounts adds every value in m. Iteration order does not matter for
// the result beyond float rounding.
func SumAmounts(m map[string]Amount) float64 {
	var total float64
	for _, v := range m {
		total += float64(v)
	}
	return total
}
