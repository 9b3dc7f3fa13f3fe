package importer

import (
	"encoding/csv"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cleared-dev/tally/internal/calendar"
)

// DetectDelimiter picks ';' when it splits line into more fields than ',', else ','.
func DetectDelimiter(line string) rune {
	if len(SplitFields(line, ';')) > len(SplitFields(line, ',')) {
		return ';'
	}
	return ','
}

// SplitFields tokenizes one delimited line with encoding/csv. Double quotes group a field
// and "" inside a quoted field is a literal quote. Stray quotes in unquoted fields are kept.
// Every field is trimmed.
func SplitFields(line string, delim rune) []string {
	r := csv.NewReader(strings.NewReader(line))
	r.Comma = delim
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1
	record, err := r.Read()
	if err != nil {
		return []string{strings.TrimSpace(line)}
	}
	for i := range record {
		record[i] = strings.TrimSpace(record[i])
	}
	return record
}

var dateRe = regexp.MustCompile(`^(\d{1,4})[/-](\d{1,2})[/-](\d{2,4})$`)

// NormalizeDate rewrites a statement date to ISO YYYY-MM-DD. A leading 4-digit group is read
// as year-month-day, anything else as day/month/year with 2-digit years promoted to 20YY.
// A trailing time of day ("05/03/2026 10:15") is ignored.
func NormalizeDate(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if i := strings.IndexAny(s, " T"); i > 0 {
		s = s[:i]
	}
	m := dateRe.FindStringSubmatch(s)
	if m == nil {
		return "", fmt.Errorf("unrecognised date %q", raw)
	}
	var y, mo, d string
	if len(m[1]) == 4 {
		y, mo, d = m[1], m[2], m[3]
	} else {
		d, mo, y = m[1], m[2], m[3]
		if len(y) == 2 {
			y = "20" + y
		}
	}
	if len(y) != 4 || len(d) > 2 {
		return "", fmt.Errorf("unrecognised date %q", raw)
	}
	year, _ := strconv.Atoi(y)
	month, _ := strconv.Atoi(mo)
	day, _ := strconv.Atoi(d)
	if month < 1 || month > 12 || day < 1 || day > calendar.DaysInMonth(year, time.Month(month)) {
		return "", fmt.Errorf("invalid date %q", raw)
	}
	return calendar.Date(year, time.Month(month), day).Format(calendar.ISODate), nil
}
