package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var (
	isoDatePattern     = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	jpFullDatePattern  = regexp.MustCompile(`(\d{4})年\s*(\d{1,2})月\s*(\d{1,2})日`)
	jpShortDatePattern = regexp.MustCompile(`^(\d{1,2})月\s*(\d{1,2})日\s*(?:[(（][^)）]*[)）])?$`)
	yearPattern        = regexp.MustCompile(`^\d{4}$`)
)

// Date layouts seen in Airbnb emails, tried in order.
var dateLayouts = []string{
	"02/01/2006",      // 15/04/2023
	"01/02/2006",      // 04/15/2023
	"2 January 2006",  // 15 April 2023
	"January 2, 2006", // April 15, 2023
	"January 2 2006",  // April 15 2023
	"2 Jan 2006",      // 15 Apr 2023
	"Jan 2, 2006",     // Apr 15, 2023
}

// NormalizeDate converts a date string to YYYY-MM-DD. Year-less Japanese
// dates (e.g. "4月28日(月)") are completed with receivedYear; when no year
// is available that rule does not fire. Unrecognized input is returned
// verbatim so callers can detect non-ISO values. Never errors.
func NormalizeDate(dateStr, receivedYear string) string {
	if isoDatePattern.MatchString(dateStr) {
		return dateStr
	}

	if m := jpFullDatePattern.FindStringSubmatch(dateStr); m != nil {
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		return fmt.Sprintf("%s-%02d-%02d", m[1], month, day)
	}

	if receivedYear != "" && yearPattern.MatchString(receivedYear) {
		if m := jpShortDatePattern.FindStringSubmatch(dateStr); m != nil {
			month, _ := strconv.Atoi(m[1])
			day, _ := strconv.Atoi(m[2])
			return fmt.Sprintf("%s-%02d-%02d", receivedYear, month, day)
		}
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, dateStr); err == nil {
			return t.Format("2006-01-02")
		}
	}

	return dateStr
}

// ValidateDatePair ensures check-out falls after check-in, swapping the pair
// when the extractor returned them reversed. Unparsable inputs pass through
// unchanged; callers must treat the results as possibly invalid strings.
func ValidateDatePair(checkIn, checkOut string) (string, string) {
	in, errIn := time.Parse("2006-01-02", checkIn)
	out, errOut := time.Parse("2006-01-02", checkOut)
	if errIn != nil || errOut != nil {
		return checkIn, checkOut
	}

	if !out.After(in) {
		return checkOut, checkIn
	}
	return checkIn, checkOut
}
