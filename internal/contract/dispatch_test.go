package contract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvokeUnknownOperation(t *testing.T) {
	c, ws := newTestContract(t)

	_, err := c.Invoke(ctxFor(ws, "Org1MSP"), "TransferFlight", []string{"EC001"})
	assert.Equal(t, CodeNotImplemented, CodeOf(err))
}

func TestInvokeArity(t *testing.T) {
	c, ws := newTestContract(t)
	tc := ctxFor(ws, "Org1MSP")

	_, err := c.Invoke(tc, "CreateFlight", []string{"BUD", "TXL"})
	assert.Equal(t, CodeInvalidArgument, CodeOf(err))

	_, err = c.Invoke(tc, "ReadFlight", nil)
	assert.Equal(t, CodeInvalidArgument, CodeOf(err))
}

func TestInvokeAuthorizationBeforeArity(t *testing.T) {
	c, ws := newTestContract(t)

	// Role is checked before anything else, so a wrong-arity call from
	// an unauthorized caller still reports UNAUTHORIZED.
	_, err := c.Invoke(ctxFor(ws, "Org3MSP"), "CreateFlight", nil)
	assert.True(t, IsUnauthorized(err))

	_, err = c.Invoke(ctxFor(ws, "UnknownMSP"), "DeleteFlight", nil)
	assert.True(t, IsUnauthorized(err))
}

func TestInvokeSeatParsing(t *testing.T) {
	c, ws := newTestContract(t)
	tc := ctxFor(ws, "Org1MSP")

	_, err := c.Invoke(tc, "CreateFlight", []string{"BUD", "TXL", "d", "many"})
	assert.Equal(t, CodeInvalidArgument, CodeOf(err))

	// Surrounding whitespace is tolerated.
	payload, err := c.Invoke(tc, "CreateFlight", []string{"BUD", "TXL", "d", " 100 "})
	require.NoError(t, err)
	assert.Contains(t, string(payload), `"totalSeats":100`)
}

func TestInvokeRoundTrip(t *testing.T) {
	c, ws := newTestContract(t)
	airline := ctxFor(ws, "Org1MSP")
	agency := ctxFor(ws, "Org3MSP")

	created, err := c.Invoke(airline, "CreateFlight", []string{"BUD", "TXL", "05032021-1034", "100"})
	require.NoError(t, err)

	read, err := c.Invoke(agency, "ReadFlight", []string{"EC001"})
	require.NoError(t, err)
	assert.Equal(t, created, read, "create payload and stored bytes must be identical")

	reserved, err := c.Invoke(agency, "ReserveSeats", []string{"EC001", "60"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"numberOfSeats":60,"reservationId":"EC001-000","state":"PENDING"}`, string(reserved))

	settled, err := c.Invoke(airline, "SettleReservations", []string{"EC001"})
	require.NoError(t, err)
	assert.Contains(t, string(settled), `"availableSeats":40`)
	assert.Contains(t, string(settled), `"state":"CONFIRMED"`)
}

func TestInvokeVoidOperations(t *testing.T) {
	c, ws := newTestContract(t)
	tc := ctxFor(ws, "Org1MSP")

	payload, err := c.Invoke(tc, "InitLedger", nil)
	require.NoError(t, err)
	assert.Nil(t, payload)

	payload, err = c.Invoke(tc, "DeleteFlight", []string{"EC001"})
	require.NoError(t, err)
	assert.Nil(t, payload)
}

func TestInvokeCheckInCSV(t *testing.T) {
	c, ws := newTestContract(t)
	airline := ctxFor(ws, "Org1MSP")
	agency := ctxFor(ws, "Org3MSP")

	_, err := c.Invoke(airline, "CreateFlight", []string{"BUD", "TXL", "d", "10"})
	require.NoError(t, err)
	_, err = c.Invoke(agency, "ReserveSeats", []string{"EC001", "2"})
	require.NoError(t, err)
	_, err = c.Invoke(airline, "SettleReservations", []string{"EC001"})
	require.NoError(t, err)

	payload, err := c.Invoke(agency, "CheckIn", []string{"EC001", "EC001-000", "P1234, P5678"})
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"numberOfSeats": 2,
		"reservationId": "EC001-000",
		"state": "CONFIRMED",
		"passengers": ["P1234", "P5678"]
	}`, string(payload))
}

func TestInvokeListFlightsPayload(t *testing.T) {
	c, ws := newTestContract(t)
	tc := ctxFor(ws, "Org1MSP")

	require.NoError(t, ws.PutState("AA001", []byte("not json")))
	_, err := c.Invoke(tc, "InitLedger", nil)
	require.NoError(t, err)

	payload, err := c.Invoke(tc, "ListFlights", nil)
	require.NoError(t, err)

	// Malformed entries are forwarded as raw strings, well-formed ones
	// as objects, all in key order.
	assert.Contains(t, string(payload), `"not json"`)
	assert.Contains(t, string(payload), `"flightNumber":"BS015"`)
	assert.Contains(t, string(payload), `"flightNumber":"EC001"`)
}

func TestOperations(t *testing.T) {
	names := Operations()
	assert.ElementsMatch(t, []string{
		"InitLedger",
		"CreateFlight",
		"ReadFlight",
		"UpdateFlight",
		"DeleteFlight",
		"ListFlights",
		"ReserveSeats",
		"SettleReservations",
		"CheckIn",
	}, names)
}

func TestSplitCSV(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"a,b,c", []string{"a", "b", "c"}},
		{"a, b , c", []string{"a", "b", "c"}},
		{"a,,b", []string{"a", "b"}},
		{"", nil},
		{" , ", nil},
	}

	for _, tt := range tests {
		got := splitCSV(tt.input)
		if tt.expected == nil {
			assert.Empty(t, got, "input %q", tt.input)
		} else {
			assert.Equal(t, tt.expected, got, "input %q", tt.input)
		}
	}
}
