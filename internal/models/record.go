package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// SalesRecord is one row of an uploaded sales dataset. Every field is
// optional; absent and malformed values fall back to the defaults applied by
// the aggregation pipeline.
type SalesRecord struct {
	TransactionNo Text   `json:"TransactionNo,omitempty"`
	Date          Text   `json:"Date,omitempty"`
	ProductNo     Text   `json:"ProductNo,omitempty"`
	ProductName   Text   `json:"ProductName,omitempty"`
	Price         Number `json:"Price,omitzero"`
	Quantity      Number `json:"Quantity,omitzero"`
	CustomerNo    Text   `json:"CustomerNo,omitempty"`
	Country       Text   `json:"Country,omitempty"`
}

// HasAmount reports whether the row carries a Price or Quantity key, even a
// null one. Rows without either are not sales rows.
func (r *SalesRecord) HasAmount() bool {
	return r != nil && (r.Price.Present || r.Quantity.Present)
}

// UnmarshalJSON looks keys up by exact name; "price" is not "Price".
func (r *SalesRecord) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	*r = SalesRecord{}
	texts := []struct {
		key string
		dst *Text
	}{
		{"TransactionNo", &r.TransactionNo},
		{"Date", &r.Date},
		{"ProductNo", &r.ProductNo},
		{"ProductName", &r.ProductName},
		{"CustomerNo", &r.CustomerNo},
		{"Country", &r.Country},
	}
	for _, f := range texts {
		if raw, ok := fields[f.key]; ok {
			if err := f.dst.UnmarshalJSON(raw); err != nil {
				return err
			}
		}
	}
	if raw, ok := fields["Price"]; ok {
		if err := r.Price.UnmarshalJSON(raw); err != nil {
			return err
		}
	}
	if raw, ok := fields["Quantity"]; ok {
		if err := r.Quantity.UnmarshalJSON(raw); err != nil {
			return err
		}
	}
	return nil
}

// Revenue is Price*Quantity with missing or invalid operands counted as 0.
func (r *SalesRecord) Revenue() float64 {
	if r == nil {
		return 0
	}
	return r.Price.Float() * r.Quantity.Float()
}

// Number is a loosely typed numeric cell. Present records that the key
// existed in the source row; Valid that it held a usable finite number.
type Number struct {
	Value   float64
	Valid   bool
	Present bool
}

func NewNumber(v float64) Number {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Number{Present: true}
	}
	return Number{Value: v, Valid: true, Present: true}
}

// ParseNumber interprets a raw text cell from a Price or Quantity column.
// Blank cells read as null; NaN, infinities and non-numeric text are present
// but invalid.
func ParseNumber(s string) Number {
	s = strings.TrimSpace(s)
	if s == "" {
		return Number{Present: true}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Number{Present: true}
	}
	return NewNumber(v)
}

// Float returns the value, or 0 when the cell is missing or invalid.
func (n Number) Float() float64 {
	if !n.Valid {
		return 0
	}
	return n.Value
}

func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*n = Number{Present: true}
	if len(data) == 0 {
		return nil
	}

	switch data[0] {
	case 'n':
		return nil
	case 't':
		*n = NewNumber(1)
	case 'f':
		*n = NewNumber(0)
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		*n = ParseNumber(s)
	case '{', '[':
		return nil
	default:
		v, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			return nil
		}
		*n = NewNumber(v)
	}
	return nil
}

// Text is a loosely typed label or identifier. The empty string is the
// falsy value: missing keys, null, false, numeric 0 and "" all decode to it.
type Text string

// Empty reports whether the value is falsy.
func (t Text) Empty() bool { return t == "" }

func (t Text) String() string { return string(t) }

// Or returns t, or fallback when t is falsy.
func (t Text) Or(fallback string) string {
	if t == "" {
		return fallback
	}
	return string(t)
}

// NewText trims a raw text cell.
func NewText(s string) Text {
	return Text(strings.TrimSpace(s))
}

// NewIdentifier canonicalises an identifier cell the way a spreadsheet reader
// would type it: numeric cells lose trailing zeros ("12346.0" -> "12346") and
// a numeric zero is falsy.
func NewIdentifier(s string) Text {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
		return formatNumber(v)
	}
	return Text(s)
}

func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*t = ""
	if len(data) == 0 {
		return nil
	}

	switch data[0] {
	case 'n', 'f', '{', '[':
		return nil
	case 't':
		*t = "true"
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		*t = Text(s)
	default:
		v, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			return nil
		}
		*t = formatNumber(v)
	}
	return nil
}

func formatNumber(v float64) Text {
	if v == 0 || math.IsNaN(v) {
		return ""
	}
	return Text(strconv.FormatFloat(v, 'f', -1, 64))
}
