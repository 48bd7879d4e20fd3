package catalog

import (
	"fmt"
	"strings"
)

var weekdayNames = map[string]struct{}{
	"lundi": {}, "mardi": {}, "mercredi": {}, "jeudi": {}, "vendredi": {}, "samedi": {}, "dimanche": {},
	"monday": {}, "tuesday": {}, "wednesday": {}, "thursday": {}, "friday": {}, "saturday": {}, "sunday": {},
}

func normalizeWeekdays(days []string) ([]string, error) {
	normalized := make([]string, 0, len(days))
	seen := make(map[string]struct{}, len(days))
	for _, day := range days {
		value := strings.ToLower(strings.TrimSpace(day))
		if _, known := weekdayNames[value]; !known {
			return nil, fmt.Errorf("%w: unknown weekday %q", ErrInvalidPrestation, day)
		}
		if _, duplicate := seen[value]; duplicate {
			continue
		}
		seen[value] = struct{}{}
		normalized = append(normalized, value)
	}
	return normalized, nil
}
