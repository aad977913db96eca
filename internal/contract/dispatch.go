package contract

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/flynet/internal/canonical"
	"github.com/roach88/flynet/internal/identity"
)

// handlerFunc executes one operation against positional string args and
// returns the canonical success payload (nil for void operations).
type handlerFunc func(c *Contract, tc *TransactionContext, args []string) ([]byte, error)

type operation struct {
	// roles lists the roles permitted to invoke the operation.
	// nil means any caller, including unrecognized organizations.
	roles   []identity.Role
	arity   int
	handler handlerFunc
}

// operations is the dispatch table. Authorization is validated here,
// before any world-state access, in addition to the per-operation role
// checks that guard direct library use.
var operations = map[string]operation{
	"InitLedger": {
		arity: 0,
		handler: func(c *Contract, tc *TransactionContext, _ []string) ([]byte, error) {
			return nil, c.InitLedger(tc)
		},
	},
	"CreateFlight": {
		roles: []identity.Role{identity.RoleAirline},
		arity: 4,
		handler: func(c *Contract, tc *TransactionContext, args []string) ([]byte, error) {
			seats, err := parseSeats(args[3])
			if err != nil {
				return nil, err
			}
			flight, err := c.CreateFlight(tc, args[0], args[1], args[2], seats)
			if err != nil {
				return nil, err
			}
			return encodeFlight(flight)
		},
	},
	"ReadFlight": {
		arity: 1,
		handler: func(c *Contract, tc *TransactionContext, args []string) ([]byte, error) {
			flight, err := c.ReadFlight(tc, args[0])
			if err != nil {
				return nil, err
			}
			return encodeFlight(flight)
		},
	},
	"UpdateFlight": {
		roles: []identity.Role{identity.RoleAirline},
		arity: 5,
		handler: func(c *Contract, tc *TransactionContext, args []string) ([]byte, error) {
			seats, err := parseSeats(args[4])
			if err != nil {
				return nil, err
			}
			flight, err := c.UpdateFlight(tc, args[0], args[1], args[2], args[3], seats)
			if err != nil {
				return nil, err
			}
			return encodeFlight(flight)
		},
	},
	"DeleteFlight": {
		roles: []identity.Role{identity.RoleAirline},
		arity: 1,
		handler: func(c *Contract, tc *TransactionContext, args []string) ([]byte, error) {
			return nil, c.DeleteFlight(tc, args[0])
		},
	},
	"ListFlights": {
		arity: 0,
		handler: func(c *Contract, tc *TransactionContext, _ []string) ([]byte, error) {
			entries, err := c.ListFlights(tc)
			if err != nil {
				return nil, err
			}
			return encodeListEntries(entries)
		},
	},
	"ReserveSeats": {
		roles: []identity.Role{identity.RoleTravelAgency},
		arity: 2,
		handler: func(c *Contract, tc *TransactionContext, args []string) ([]byte, error) {
			seats, err := parseSeats(args[1])
			if err != nil {
				return nil, err
			}
			reservation, err := c.ReserveSeats(tc, args[0], seats)
			if err != nil {
				return nil, err
			}
			return encodeReservation(reservation)
		},
	},
	"SettleReservations": {
		roles: []identity.Role{identity.RoleAirline},
		arity: 1,
		handler: func(c *Contract, tc *TransactionContext, args []string) ([]byte, error) {
			flight, err := c.SettleReservations(tc, args[0])
			if err != nil {
				return nil, err
			}
			return encodeFlight(flight)
		},
	},
	"CheckIn": {
		roles: []identity.Role{identity.RoleTravelAgency},
		arity: 3,
		handler: func(c *Contract, tc *TransactionContext, args []string) ([]byte, error) {
			reservation, err := c.CheckIn(tc, args[0], args[1], splitCSV(args[2]))
			if err != nil {
				return nil, err
			}
			return encodeReservation(reservation)
		},
	},
}

// Invoke routes an invocation to its operation. Authorization fails fast
// before the handler touches world state; unknown names fail with
// NOT_IMPLEMENTED and wrong argument counts with INVALID_ARGUMENT.
func (c *Contract) Invoke(tc *TransactionContext, name string, args []string) ([]byte, error) {
	op, ok := operations[name]
	if !ok {
		return nil, &Error{
			Code:    CodeNotImplemented,
			Message: fmt.Sprintf("unknown operation %q", name),
		}
	}

	if op.roles != nil {
		if err := tc.requireRole(op.roles...); err != nil {
			return nil, err
		}
	}

	if len(args) != op.arity {
		return nil, errInvalidArgumentf("%s expects %d argument(s), got %d", name, op.arity, len(args))
	}

	return op.handler(c, tc, args)
}

// Operations returns the recognized operation names in no particular
// order. Used by the CLI for help output.
func Operations() []string {
	names := make([]string, 0, len(operations))
	for name := range operations {
		names = append(names, name)
	}
	return names
}

func parseSeats(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, errInvalidArgumentf("seat count %q is not an integer", s)
	}
	return n, nil
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// encodeListEntries produces the ListFlights payload: a canonical array
// holding each parsed record, or the raw stored text for entries that
// failed to parse.
func encodeListEntries(entries []ListEntry) ([]byte, error) {
	arr := make(canonical.Array, len(entries))
	for i, e := range entries {
		if e.Flight != nil {
			arr[i] = e.Flight.canonical()
		} else {
			arr[i] = canonical.String(e.Raw)
		}
	}
	return canonical.Marshal(arr)
}
