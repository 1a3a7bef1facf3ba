package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

var errAmountType = errors.New("amount must be a number or a numeric string")

// Amount is an amount field that accepts either a JSON number or a string, the
// way the investment form posts what the user typed.
type Amount struct {
	Raw string
	Set bool
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*a = Amount{}
		return nil
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = Amount{Raw: s, Set: true}
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return errAmountType
	}
	*a = Amount{Raw: n.String(), Set: true}
	return nil
}

func (a Amount) MarshalJSON() ([]byte, error) {
	if !a.Set {
		return []byte("null"), nil
	}
	return json.Marshal(a.Raw)
}

// Float parses the amount; ok is false when it is missing or not numeric.
func (a Amount) Float() (v float64, ok bool) {
	if !a.Set {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(a.Raw), 64)
	return v, err == nil
}
