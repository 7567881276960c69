package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Academic year math follows a June-May cycle: June 2025 - May 2026 is the
// academic year "2025-2026". Months June through November are semester "I",
// December through May are semester "II".

// AcademicYearFor returns the academic year label for a date.
func AcademicYearFor(date time.Time) string {
	year := date.Year()
	if int(date.Month()) >= 6 {
		return fmt.Sprintf("%d-%d", year, year+1)
	}
	return fmt.Sprintf("%d-%d", year-1, year)
}

// CurrentAcademicYear returns the academic year label for today.
func CurrentAcademicYear() string {
	return AcademicYearFor(time.Now())
}

// SemesterFor returns "I" or "II" for a date.
func SemesterFor(date time.Time) string {
	month := int(date.Month())
	if month >= 6 && month <= 11 {
		return "I"
	}
	return "II"
}

// CurrentSemester returns the semester label for today.
func CurrentSemester() string {
	return SemesterFor(time.Now())
}

// AcademicYearRange returns yearsBack+yearsForward+1 consecutive academic year
// labels centered on the current one, for history filter dropdowns.
func AcademicYearRange(yearsBack, yearsForward int) []string {
	current := CurrentAcademicYear()
	startYear, _ := strconv.Atoi(strings.SplitN(current, "-", 2)[0])

	years := make([]string, 0, yearsBack+yearsForward+1)
	for i := -yearsBack; i <= yearsForward; i++ {
		years = append(years, fmt.Sprintf("%d-%d", startYear+i, startYear+i+1))
	}
	return years
}

// IsValidAcademicYear reports whether s is a well-formed academic year label
// like "2025-2026" with a start year in a sane range.
func IsValidAcademicYear(s string) bool {
	parts := strings.Split(s, "-")
	if len(parts) != 2 {
		return false
	}

	startYear, err := strconv.Atoi(parts[0])
	if err != nil {
		return false
	}
	endYear, err := strconv.Atoi(parts[1])
	if err != nil {
		return false
	}

	if endYear != startYear+1 {
		return false
	}
	return startYear >= 2000 && startYear <= 2100
}
