package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// floatArray is stored as a JSON array. Finite values are JSON numbers;
// NaN and the infinities, which JSON cannot represent, are written as the
// strings "NaN", "+Inf" and "-Inf".
type floatArray []float64

func (a floatArray) MarshalJSON() ([]byte, error) {
	buf := make([]byte, 0, 2+len(a)*12)
	buf = append(buf, '[')
	for i, v := range a {
		if i > 0 {
			buf = append(buf, ',')
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			buf = strconv.AppendQuote(buf, strconv.FormatFloat(v, 'g', -1, 64))
			continue
		}
		buf = strconv.AppendFloat(buf, v, 'g', -1, 64)
	}
	return append(buf, ']'), nil
}

func (a *floatArray) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(floatArray, len(raw))
	for i, r := range raw {
		if bytes.HasPrefix(r, []byte{'"'}) {
			var s string
			if err := json.Unmarshal(r, &s); err != nil {
				return err
			}
			v, err := strconv.ParseFloat(s, 64)
			if err != nil || !(math.IsNaN(v) || math.IsInf(v, 0)) {
				return fmt.Errorf("element %d: unexpected string %q", i, s)
			}
			out[i] = v
			continue
		}
		if err := json.Unmarshal(r, &out[i]); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	*a = out
	return nil
}
