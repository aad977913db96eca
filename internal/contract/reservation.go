package contract

import (
	"fmt"

	"github.com/roach88/flynet/internal/identity"
)

// maxReservationProbes bounds reservation-id generation per flight.
const maxReservationProbes = 999

// ReserveSeats appends a PENDING reservation to a flight. Travel agency
// only. Capacity is deliberately NOT checked here: requesting and
// allocating are split, and only settlement decides against capacity.
//
// The reservation id is <flightNumber>-NNN where NNN is the zero-padded
// running count of reservations on the flight - derived entirely from
// already-agreed state, never from randomness, so replicas produce the
// same id for the same transaction.
func (c *Contract) ReserveSeats(tc *TransactionContext, flightNumber string, numberOfSeats int) (*Reservation, error) {
	if err := tc.requireRole(identity.RoleTravelAgency); err != nil {
		return nil, err
	}
	if numberOfSeats <= 0 {
		return nil, errInvalidArgumentf("numberOfSeats must be > 0, got %d", numberOfSeats)
	}

	flight, err := c.getFlight(tc, flightNumber)
	if err != nil {
		return nil, err
	}

	reservationID, err := nextReservationID(flight)
	if err != nil {
		return nil, err
	}

	reservation := &Reservation{
		ReservationID: reservationID,
		NumberOfSeats: numberOfSeats,
		State:         ReservationPending,
	}
	flight.Reservations[reservationID] = reservation

	if err := c.putFlight(tc, flight); err != nil {
		return nil, err
	}
	return reservation, nil
}

// SettleReservations processes all PENDING reservations of a flight in
// ascending reservation-id order. Airline only. Each pending entry is
// CONFIRMED if availableSeats covers it (decrementing availableSeats) or
// REJECTED otherwise. Terminal entries are never revisited, so settling
// twice without new reservations in between is a no-op.
//
// The record is rewritten once, after all pending entries are processed.
func (c *Contract) SettleReservations(tc *TransactionContext, flightNumber string) (*FlightRecord, error) {
	if err := tc.requireRole(identity.RoleAirline); err != nil {
		return nil, err
	}

	flight, err := c.getFlight(tc, flightNumber)
	if err != nil {
		return nil, err
	}

	for _, id := range flight.sortedReservationIDs() {
		r := flight.Reservations[id]
		if r.State != ReservationPending {
			continue
		}
		if flight.AvailableSeats >= r.NumberOfSeats {
			r.State = ReservationConfirmed
			flight.AvailableSeats -= r.NumberOfSeats
		} else {
			r.State = ReservationRejected
		}
	}

	if err := c.putFlight(tc, flight); err != nil {
		return nil, err
	}
	return flight, nil
}

// CheckIn attaches opaque passport tokens to a confirmed reservation.
// Travel agency only. One token per booked seat; the tokens are stored
// verbatim and never interpreted.
func (c *Contract) CheckIn(tc *TransactionContext, flightNumber, reservationID string, passportIDs []string) (*Reservation, error) {
	if err := tc.requireRole(identity.RoleTravelAgency); err != nil {
		return nil, err
	}

	flight, err := c.getFlight(tc, flightNumber)
	if err != nil {
		return nil, err
	}

	reservation, ok := flight.Reservations[reservationID]
	if !ok {
		return nil, &Error{
			Code:    CodeNotFound,
			Message: "the reservation does not exist",
			Key:     reservationID,
		}
	}
	if reservation.State != ReservationConfirmed {
		return nil, errInvalidArgumentf(
			"reservation %s is %s, only confirmed reservations can check in",
			reservationID, reservation.State,
		)
	}
	if len(reservation.Passengers) > 0 {
		return nil, &Error{
			Code:    CodeAlreadyExists,
			Message: "the reservation is already checked in",
			Key:     reservationID,
		}
	}
	if len(passportIDs) != reservation.NumberOfSeats {
		return nil, errInvalidArgumentf(
			"expected %d passport ids for reservation %s, got %d",
			reservation.NumberOfSeats, reservationID, len(passportIDs),
		)
	}

	reservation.Passengers = append([]string(nil), passportIDs...)

	if err := c.putFlight(tc, flight); err != nil {
		return nil, err
	}
	return reservation, nil
}

// nextReservationID probes <flightNumber>-NNN starting at the current
// reservation count. Reservations are never deleted, so the count alone
// is already unique; the probe loop is a guard, not a lottery.
func nextReservationID(flight *FlightRecord) (string, error) {
	for n := len(flight.Reservations); n <= maxReservationProbes; n++ {
		candidate := fmt.Sprintf("%s-%03d", flight.FlightNumber, n)
		if _, taken := flight.Reservations[candidate]; !taken {
			return candidate, nil
		}
	}
	return "", &Error{
		Code:    CodeResourceExhausted,
		Message: fmt.Sprintf("no free reservation ids left on flight %s", flight.FlightNumber),
	}
}
