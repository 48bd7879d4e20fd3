package booking

import (
	"fmt"
	"strings"
)

// EncodeReservationIDs joins reservation ids into the checkout metadata value.
func EncodeReservationIDs(ids []ReservationID) string {
	values := make([]string, 0, len(ids))
	for _, id := range ids {
		values = append(values, id.String())
	}
	return strings.Join(values, metadataDelimiter)
}

// DecodeReservationIDs parses a metadata value back into a deduplicated id set.
func DecodeReservationIDs(raw string) ([]ReservationID, error) {
	var ids []ReservationID
	seen := make(map[ReservationID]struct{})
	for _, part := range strings.Split(raw, metadataDelimiter) {
		id, err := NewReservationID(part)
		if err != nil {
			continue
		}
		if _, duplicate := seen[id]; duplicate {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: %s carries no reservation ids", ErrMalformedMetadata, MetadataKeyReservationIDs)
	}
	return ids, nil
}

func uniqueReservationIDs(ids []ReservationID) []ReservationID {
	unique := make([]ReservationID, 0, len(ids))
	seen := make(map[ReservationID]struct{}, len(ids))
	for _, id := range ids {
		if _, duplicate := seen[id]; duplicate {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	return unique
}
