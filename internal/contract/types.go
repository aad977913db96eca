package contract

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/roach88/flynet/internal/canonical"
)

// DocTypeFlight discriminates flight records within the flat namespace,
// enabling future polymorphic scans.
const DocTypeFlight = "flight"

// ReservationState is the seat-reservation state machine:
//
//	PENDING --settle, capacity sufficient--> CONFIRMED
//	PENDING --settle, capacity insufficient--> REJECTED
//
// CONFIRMED and REJECTED are terminal; settlement only ever considers
// PENDING entries, which makes re-settling a no-op.
type ReservationState string

const (
	ReservationPending   ReservationState = "PENDING"
	ReservationConfirmed ReservationState = "CONFIRMED"
	ReservationRejected  ReservationState = "REJECTED"
)

// Reservation is a travel agency's request for seats on a flight. It is
// exclusively owned by its parent FlightRecord and is only ever created,
// mutated, and persisted as part of a rewrite of that record.
type Reservation struct {
	ReservationID string           `json:"reservationId"`
	NumberOfSeats int              `json:"numberOfSeats"`
	State         ReservationState `json:"state"`

	// Passengers holds opaque passport tokens attached at check-in.
	// The contract never interprets them.
	Passengers []string `json:"passengers,omitempty"`
}

// FlightRecord is the unit of world-state storage: one key per flight
// number, value embedding all reservations.
//
// availableSeats always equals totalSeats minus the seats of CONFIRMED
// reservations. totalSeats is capacity and is never decremented by
// bookings.
type FlightRecord struct {
	DocType        string                  `json:"docType"`
	FlightNumber   string                  `json:"flightNumber"`
	Origin         string                  `json:"origin"`
	Destination    string                  `json:"destination"`
	DepartureTime  string                  `json:"departureTime"`
	TotalSeats     int                     `json:"totalSeats"`
	AvailableSeats int                     `json:"availableSeats"`
	Reservations   map[string]*Reservation `json:"reservations"`
}

// ConfirmedSeats sums the seats of all CONFIRMED reservations.
func (f *FlightRecord) ConfirmedSeats() int {
	total := 0
	for _, r := range f.Reservations {
		if r.State == ReservationConfirmed {
			total += r.NumberOfSeats
		}
	}
	return total
}

// sortedReservationIDs returns reservation ids in ascending order.
// Ids are zero-padded, so lexicographic order equals numeric order;
// this is the fixed settlement order.
func (f *FlightRecord) sortedReservationIDs() []string {
	ids := make([]string, 0, len(f.Reservations))
	for id := range f.Reservations {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// canonical converts the record to a canonical value tree.
func (f *FlightRecord) canonical() canonical.Object {
	reservations := make(canonical.Object, len(f.Reservations))
	for id, r := range f.Reservations {
		reservations[id] = r.canonical()
	}
	return canonical.Object{
		"docType":        canonical.String(f.DocType),
		"flightNumber":   canonical.String(f.FlightNumber),
		"origin":         canonical.String(f.Origin),
		"destination":    canonical.String(f.Destination),
		"departureTime":  canonical.String(f.DepartureTime),
		"totalSeats":     canonical.Int(f.TotalSeats),
		"availableSeats": canonical.Int(f.AvailableSeats),
		"reservations":   reservations,
	}
}

func (r *Reservation) canonical() canonical.Object {
	obj := canonical.Object{
		"reservationId": canonical.String(r.ReservationID),
		"numberOfSeats": canonical.Int(r.NumberOfSeats),
		"state":         canonical.String(r.State),
	}
	if len(r.Passengers) > 0 {
		passengers := make(canonical.Array, len(r.Passengers))
		for i, p := range r.Passengers {
			passengers[i] = canonical.String(p)
		}
		obj["passengers"] = passengers
	}
	return obj
}

// encodeFlight produces the canonical bytes persisted to the world state
// and returned to callers. All writes MUST go through this.
func encodeFlight(f *FlightRecord) ([]byte, error) {
	return canonical.Marshal(f.canonical())
}

func encodeReservation(r *Reservation) ([]byte, error) {
	return canonical.Marshal(r.canonical())
}

// decodeFlight parses stored bytes back into a record.
func decodeFlight(data []byte) (*FlightRecord, error) {
	var f FlightRecord
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode flight record: %w", err)
	}
	if f.Reservations == nil {
		f.Reservations = make(map[string]*Reservation)
	}
	return &f, nil
}
