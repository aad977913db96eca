package contract

import (
	"fmt"

	"github.com/roach88/flynet/internal/identity"
)

// maxFlightNumberProbes bounds flight-number generation. Sequences are
// 3 digits, so a carrier can hold at most 999 flights.
const maxFlightNumberProbes = 999

// Contract implements the ledger's state-transition operations.
// It is stateless between invocations; every operation works purely
// through the TransactionContext it is handed.
type Contract struct {
	network *identity.Network
}

// New creates a contract bound to a network membership config.
func New(network *identity.Network) *Contract {
	return &Contract{network: network}
}

// seedFlight describes one record written by InitLedger.
type seedFlight struct {
	flightNumber  string
	origin        string
	destination   string
	departureTime string
	totalSeats    int
}

var ledgerSeeds = []seedFlight{
	{"EC001", "BUD", "TXL", "05032021-1034", 100},
	{"BS015", "MUC", "LIS", "10042021-2157", 150},
}

// InitLedger writes the seed flight records. Open to any caller;
// re-running it resets the seeds to their initial contents.
func (c *Contract) InitLedger(tc *TransactionContext) error {
	for _, seed := range ledgerSeeds {
		flight := &FlightRecord{
			DocType:        DocTypeFlight,
			FlightNumber:   seed.flightNumber,
			Origin:         seed.origin,
			Destination:    seed.destination,
			DepartureTime:  seed.departureTime,
			TotalSeats:     seed.totalSeats,
			AvailableSeats: seed.totalSeats,
			Reservations:   make(map[string]*Reservation),
		}
		if err := c.putFlight(tc, flight); err != nil {
			return err
		}
	}
	return nil
}

// CreateFlight issues a new flight record with a generated flight
// number. Airline only. The number is the caller's carrier prefix plus
// the first free zero-padded sequence, probed deterministically from 001
// upward so every replica generates the same number.
func (c *Contract) CreateFlight(tc *TransactionContext, origin, destination, departureTime string, totalSeats int) (*FlightRecord, error) {
	if err := tc.requireRole(identity.RoleAirline); err != nil {
		return nil, err
	}
	if origin == "" || destination == "" {
		return nil, errInvalidArgumentf("origin and destination must be non-empty")
	}
	if totalSeats < 0 {
		return nil, errInvalidArgumentf("totalSeats must be >= 0, got %d", totalSeats)
	}

	flightNumber, err := c.nextFlightNumber(tc)
	if err != nil {
		return nil, err
	}

	flight := &FlightRecord{
		DocType:        DocTypeFlight,
		FlightNumber:   flightNumber,
		Origin:         origin,
		Destination:    destination,
		DepartureTime:  departureTime,
		TotalSeats:     totalSeats,
		AvailableSeats: totalSeats,
		Reservations:   make(map[string]*Reservation),
	}
	if err := c.putFlight(tc, flight); err != nil {
		return nil, err
	}
	return flight, nil
}

// ReadFlight returns the flight stored under the given number.
func (c *Contract) ReadFlight(tc *TransactionContext, flightNumber string) (*FlightRecord, error) {
	return c.getFlight(tc, flightNumber)
}

// UpdateFlight overwrites a flight's route, departure, and capacity.
// Airline only. Existing reservations are preserved and availableSeats
// is recomputed against the new capacity; capacity cannot drop below
// already-confirmed bookings.
func (c *Contract) UpdateFlight(tc *TransactionContext, flightNumber, origin, destination, departureTime string, totalSeats int) (*FlightRecord, error) {
	if err := tc.requireRole(identity.RoleAirline); err != nil {
		return nil, err
	}
	if origin == "" || destination == "" {
		return nil, errInvalidArgumentf("origin and destination must be non-empty")
	}
	if totalSeats < 0 {
		return nil, errInvalidArgumentf("totalSeats must be >= 0, got %d", totalSeats)
	}

	flight, err := c.getFlight(tc, flightNumber)
	if err != nil {
		return nil, err
	}

	confirmed := flight.ConfirmedSeats()
	if totalSeats < confirmed {
		return nil, errInvalidArgumentf(
			"totalSeats %d is below %d already-confirmed seats on %s",
			totalSeats, confirmed, flightNumber,
		)
	}

	flight.Origin = origin
	flight.Destination = destination
	flight.DepartureTime = departureTime
	flight.TotalSeats = totalSeats
	flight.AvailableSeats = totalSeats - confirmed

	if err := c.putFlight(tc, flight); err != nil {
		return nil, err
	}
	return flight, nil
}

// DeleteFlight removes a flight record. Airline only. The delete is
// unconditional: outstanding pending reservations do not block it.
func (c *Contract) DeleteFlight(tc *TransactionContext, flightNumber string) error {
	if err := tc.requireRole(identity.RoleAirline); err != nil {
		return err
	}

	exists, err := c.flightExists(tc, flightNumber)
	if err != nil {
		return err
	}
	if !exists {
		return errNotFound(flightNumber)
	}
	return tc.State().DelState(flightNumber)
}

// ListEntry is one result of ListFlights. Malformed stored values are
// forwarded as Raw instead of failing the whole scan.
type ListEntry struct {
	Flight *FlightRecord
	Raw    []byte
}

// ListFlights scans the whole namespace in key order.
func (c *Contract) ListFlights(tc *TransactionContext) ([]ListEntry, error) {
	it, err := tc.State().GetStateByRange("", "")
	if err != nil {
		return nil, fmt.Errorf("list flights: %w", err)
	}
	defer it.Close()

	var entries []ListEntry
	for {
		kv, err := it.Next()
		if err != nil {
			return nil, fmt.Errorf("list flights: %w", err)
		}
		if kv == nil {
			break
		}

		flight, err := decodeFlight(kv.Value)
		if err != nil {
			entries = append(entries, ListEntry{Raw: kv.Value})
			continue
		}
		entries = append(entries, ListEntry{Flight: flight})
	}
	return entries, nil
}

// nextFlightNumber probes <carrier><NNN> from 001 upward until a free
// key is found. Purely a function of committed state, so replicas agree.
func (c *Contract) nextFlightNumber(tc *TransactionContext) (string, error) {
	if tc.carrier == "" {
		return "", errUnauthorizedf("organization %q has no carrier code", tc.mspID)
	}

	for n := 1; n <= maxFlightNumberProbes; n++ {
		candidate := fmt.Sprintf("%s%03d", tc.carrier, n)
		exists, err := c.flightExists(tc, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", &Error{
		Code:    CodeResourceExhausted,
		Message: fmt.Sprintf("no free flight numbers left for carrier %q", tc.carrier),
	}
}

func (c *Contract) flightExists(tc *TransactionContext, flightNumber string) (bool, error) {
	data, err := tc.State().GetState(flightNumber)
	if err != nil {
		return false, fmt.Errorf("flight exists %q: %w", flightNumber, err)
	}
	return len(data) > 0, nil
}

func (c *Contract) getFlight(tc *TransactionContext, flightNumber string) (*FlightRecord, error) {
	data, err := tc.State().GetState(flightNumber)
	if err != nil {
		return nil, fmt.Errorf("get flight %q: %w", flightNumber, err)
	}
	if len(data) == 0 {
		return nil, errNotFound(flightNumber)
	}
	return decodeFlight(data)
}

// putFlight persists a record through the canonical encoder. Every
// write in the contract funnels through here.
func (c *Contract) putFlight(tc *TransactionContext, flight *FlightRecord) error {
	data, err := encodeFlight(flight)
	if err != nil {
		return fmt.Errorf("put flight %q: %w", flight.FlightNumber, err)
	}
	return tc.State().PutState(flight.FlightNumber, data)
}
