// Package mains works out the local electrical mains frequency from the
// system timezone, and the sampling intervals that stay in phase with it.
package mains

import (
	"strings"
	"time"

	tz "github.com/medama-io/go-timezone-country"
	"github.com/thlib/go-timezone-local/tzlocal"
)

// DefaultFrequency is used whenever detection fails. Most of the world runs
// on 50 Hz.
const DefaultFrequency = 50

// Info describes how the mains frequency was determined.
type Info struct {
	Hz       int
	Timezone string
	Country  string // empty when the timezone has no country
}

// Detect looks up the local timezone and maps it to a mains frequency.
func Detect() Info {
	timezone, err := tzlocal.RuntimeTZ()
	if err != nil {
		return Info{Hz: DefaultFrequency}
	}
	hz, country := lookup(timezone)
	return Info{Hz: hz, Timezone: timezone, Country: country}
}

// Frequency returns the local mains frequency in Hz (50 or 60).
func Frequency() int {
	return Detect().Hz
}

// FrequencyForTimezone returns the mains frequency for a given IANA timezone.
func FrequencyForTimezone(timezone string) int {
	hz, _ := lookup(timezone)
	return hz
}

func lookup(timezone string) (int, string) {
	// UTC/GMT have no country
	if timezone == "UTC" || timezone == "GMT" || strings.HasPrefix(timezone, "Etc/") {
		return DefaultFrequency, ""
	}

	tzMap, err := tz.NewTimezoneCountryMap()
	if err != nil {
		return DefaultFrequency, ""
	}

	country, err := tzMap.GetCountry(timezone)
	if err != nil {
		return DefaultFrequency, ""
	}

	return frequencyForCountry(country), country
}

// Period returns the duration of one mains cycle. Non-positive frequencies
// fall back to DefaultFrequency.
func Period(hz int) time.Duration {
	if hz <= 0 {
		hz = DefaultFrequency
	}
	return time.Second / time.Duration(hz)
}

// CalibrationInterval returns the smallest whole number of mains cycles that
// lasts at least minimum. Readings taken this far apart sample the hum at the
// same phase, so it cancels out of a baseline average instead of biasing it.
func CalibrationInterval(hz int, minimum time.Duration) time.Duration {
	if hz <= 0 {
		hz = DefaultFrequency
	}
	// Whole-second arithmetic keeps 60 Hz periods exact.
	cycles := (int64(minimum)*int64(hz) + int64(time.Second) - 1) / int64(time.Second)
	if cycles < 1 {
		cycles = 1
	}
	return time.Duration(cycles) * time.Second / time.Duration(hz)
}

// frequencyForCountry returns the mains frequency for a country name.
// Returns 50Hz for unknown countries (more common globally).
func frequencyForCountry(country string) int {
	// Japan special case: split 50/60Hz by region
	// Default to 50Hz (Tokyo region is most populous)
	if country == "Japan" {
		return DefaultFrequency
	}

	if hz60Countries[country] {
		return 60
	}
	return DefaultFrequency
}

// hz60Countries lists countries using 60Hz mains power.
// All other countries use 50Hz.
// Source: https://en.wikipedia.org/wiki/Mains_electricity_by_country
var hz60Countries = map[string]bool{
	// North America
	"United States": true,
	"Canada":        true,
	"Mexico":        true,

	// Central America
	"Belize":      true,
	"Costa Rica":  true,
	"El Salvador": true,
	"Guatemala":   true,
	"Honduras":    true,
	"Nicaragua":   true,
	"Panama":      true,

	// Caribbean
	"Bahamas":             true,
	"Barbados":            true,
	"Cayman Islands":      true,
	"Cuba":                true,
	"Dominican Republic":  true,
	"Haiti":               true,
	"Jamaica":             true,
	"Puerto Rico":         true,
	"Trinidad and Tobago": true,
	"U.S. Virgin Islands": true,

	// South America (partial; most use 50Hz)
	"Brazil":    true, // Note: Brazil has both 50Hz and 60Hz regions; 60Hz predominant
	"Colombia":  true,
	"Ecuador":   true,
	"Guyana":    true,
	"Peru":      true,
	"Suriname":  true,
	"Venezuela": true,

	// Asia (partial)
	"South Korea":  true,
	"Taiwan":       true,
	"Philippines":  true,
	"Saudi Arabia": true,

	// Pacific
	"Guam":             true,
	"American Samoa":   true,
	"Marshall Islands": true,
	"Micronesia":       true,
	"Palau":            true,
}
