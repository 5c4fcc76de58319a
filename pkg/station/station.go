// Package station formats and parses chainage values.
//
// A chainage (station) is a distance along the route in metres, written in
// the highway convention K<km>+<m>: 12345.678 m is "K12+345.678". Negative
// chainages occur before the project start and are written with a leading
// minus sign ("-K0+012").
package station

import (
	"math"
	"strconv"
	"strings"

	"github.com/highwaype/highwaype/pkg/errors"
)

// Format renders v metres as a chainage string with the given number of
// decimal places for the metre part. Rounding is applied to the whole value
// first, so 1999.9996 with 3 decimals becomes "K2+000.000", never "K1+1000.000".
func Format(v float64, decimals int) string {
	if decimals < 0 {
		decimals = 0
	}
	scale := math.Pow(10, float64(decimals))
	scaled := int64(math.Round(math.Abs(v) * scale))
	perKm := int64(1000 * scale)

	km := scaled / perKm
	rem := scaled % perKm

	var b strings.Builder
	if v < 0 && scaled != 0 {
		b.WriteByte('-')
	}
	b.WriteByte('K')
	b.WriteString(strconv.FormatInt(km, 10))
	b.WriteByte('+')

	whole := rem / int64(scale)
	m := strconv.FormatInt(whole, 10)
	for len(m) < 3 {
		m = "0" + m
	}
	b.WriteString(m)
	if decimals > 0 {
		frac := strconv.FormatInt(rem%int64(scale), 10)
		for len(frac) < decimals {
			frac = "0" + frac
		}
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return b.String()
}

// Parse reads a chainage in any of the accepted spellings:
//
//	K12+345.6    k12 + 345.6    12+345    12345.6    -K0+012
//
// The metre part after '+' must be below 1000.
func Parse(s string) (float64, error) {
	clean := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
	if clean == "" {
		return 0, errors.New(errors.ErrCodeInvalidStation, "empty station")
	}

	sign := 1.0
	if strings.HasPrefix(clean, "-") {
		sign = -1
		clean = clean[1:]
	}
	clean = strings.TrimPrefix(clean, "K")

	kmPart, mPart, found := strings.Cut(clean, "+")
	if !found {
		v, err := strconv.ParseFloat(clean, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, errors.New(errors.ErrCodeInvalidStation, "invalid station %q", s)
		}
		return sign * v, nil
	}

	km, err := strconv.ParseUint(kmPart, 10, 32)
	if err != nil {
		return 0, errors.New(errors.ErrCodeInvalidStation, "invalid kilometre part in %q", s)
	}
	m, err := strconv.ParseFloat(mPart, 64)
	if err != nil || m < 0 || m >= 1000 || math.IsNaN(m) {
		return 0, errors.New(errors.ErrCodeInvalidStation, "invalid metre part in %q", s)
	}
	return sign * (float64(km)*1000 + m), nil
}

// MustParse is like Parse but panics on error. It is meant for constants in
// tests and examples.
func MustParse(s string) float64 {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}
