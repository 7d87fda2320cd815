package census

import (
	"fmt"
	"strconv"
	"strings"
)

// Year identifies a dataset vintage, coerced from integer-like input. A Year
// that failed coercion is undefined: it still resolves to a filename (the NA
// placeholder) so the failure surfaces at read time, not before.
type Year struct {
	Raw   string
	Value int
	Valid bool
}

// YearOf returns a defined Year for an integer vintage.
func YearOf(v int) Year {
	return Year{Raw: strconv.Itoa(v), Value: v, Valid: true}
}

// ParseYear coerces an integer-like string to a Year. Coercion failure is
// not an error here; the result is an undefined Year carrying the original
// input for later warnings.
func ParseYear(raw string) Year {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return Year{Raw: raw}
	}
	return Year{Raw: raw, Value: v, Valid: true}
}

// ParseYears coerces a list of year inputs, preserving order and duplicates.
func ParseYears(raw []string) []Year {
	years := make([]Year, len(raw))
	for i, r := range raw {
		years[i] = ParseYear(r)
	}
	return years
}

// Filename resolves the canonical vintage filename, accident_<year>.csv.bz2,
// or accident_NA.csv.bz2 for an undefined year.
func (y Year) Filename() string {
	if !y.Valid {
		return "accident_NA.csv.bz2"
	}
	return fmt.Sprintf("accident_%d.csv.bz2", y.Value)
}

// String renders the numeric value for a defined year and the original input
// otherwise, so warnings name what the caller actually asked for.
func (y Year) String() string {
	if !y.Valid {
		if y.Raw == "" {
			return "NA"
		}
		return y.Raw
	}
	return strconv.Itoa(y.Value)
}

// StateCode identifies a state by its GSA geographic code, coerced from
// integer-like input the same way Year is.
type StateCode struct {
	Raw   string
	Value int
	Valid bool
}

// StateOf returns a defined StateCode for an integer code.
func StateOf(v int) StateCode {
	return StateCode{Raw: strconv.Itoa(v), Value: v, Valid: true}
}

// ParseState coerces an integer-like string to a StateCode.
func ParseState(raw string) StateCode {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return StateCode{Raw: raw}
	}
	return StateCode{Raw: raw, Value: v, Valid: true}
}

func (s StateCode) String() string {
	if !s.Valid {
		if s.Raw == "" {
			return "NA"
		}
		return s.Raw
	}
	return strconv.Itoa(s.Value)
}

// InvalidStateError reports a state code absent from a dataset's STATE
// domain, or one that never coerced to an integer at all.
type InvalidStateError struct {
	Code StateCode
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("invalid STATE number: %s", e.Code)
}
