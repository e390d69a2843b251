package reports

import (
	"fmt"
	"time"
)

// Age computes exact age in whole years at the reference date.
func Age(birth, ref time.Time) int {
	years := ref.Year() - birth.Year()
	if ref.Month() < birth.Month() || (ref.Month() == birth.Month() && ref.Day() < birth.Day()) {
		years--
	}
	return years
}

// ageBracket places an age into the fixed roster bins.
func ageBracket(age int) string {
	switch {
	case age < 30:
		return "under 30"
	case age < 45:
		return "30-44"
	case age < 60:
		return "45-59"
	default:
		return "60+"
	}
}

func groupKey(district, bracket string) string {
	return fmt.Sprintf("%s / %s", district, bracket)
}
