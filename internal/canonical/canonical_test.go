package canonical

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalBasic(t *testing.T) {
	tests := []struct {
		name     string
		input    Value
		expected string
	}{
		{"string", String("hello"), `"hello"`},
		{"empty string", String(""), `""`},
		{"int", Int(42), "42"},
		{"negative int", Int(-100), "-100"},
		{"zero", Int(0), "0"},
		{"max int64", Int(9223372036854775807), "9223372036854775807"},
		{"bool true", Bool(true), "true"},
		{"bool false", Bool(false), "false"},
		{"empty array", Array{}, "[]"},
		{"empty object", Object{}, "{}"},
		{"array of ints", Array{Int(1), Int(2), Int(3)}, "[1,2,3]"},
		{"simple object", Object{"a": Int(1)}, `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Marshal(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalSortedKeys(t *testing.T) {
	obj := Object{
		"zebra": Int(1),
		"alpha": Int(2),
		"beta":  Int(3),
	}

	result, err := Marshal(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"alpha":2,"beta":3,"zebra":1}`, string(result))
}

func TestMarshalNestedSortedKeys(t *testing.T) {
	obj := Object{
		"z": Object{
			"b": Int(1),
			"a": Int(2),
		},
		"a": Int(3),
	}

	result, err := Marshal(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"a":3,"z":{"a":2,"b":1}}`, string(result))
}

func TestMarshalUTF16Ordering(t *testing.T) {
	// U+E000 vs U+10000: in UTF-8 the supplementary character sorts
	// after, but its UTF-16 surrogate pair starts at 0xD800 which is
	// below 0xE000, so it sorts first.
	obj := Object{
		"\uE000":     Int(1),
		"\U00010000": Int(2),
	}

	result, err := Marshal(obj)
	require.NoError(t, err)

	expected := `{"` + "\U00010000" + `":2,"` + "\uE000" + `":1}`
	assert.Equal(t, expected, string(result))
}

func TestMarshalNoHTMLEscape(t *testing.T) {
	result, err := Marshal(String("<script>a & b</script>"))
	require.NoError(t, err)
	assert.Equal(t, `"<script>a & b</script>"`, string(result))
}

func TestMarshalStringEscapes(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"quote", `say "hi"`, `"say \"hi\""`},
		{"backslash", `a\b`, `"a\\b"`},
		{"newline", "a\nb", `"a\nb"`},
		{"tab", "a\tb", `"a\tb"`},
		{"carriage return", "a\rb", `"a\rb"`},
		{"backspace", "a\bb", `"a\bb"`},
		{"form feed", "a\fb", `"a\fb"`},
		{"control char", "a\x01b", `"a\u0001b"`},
		{"line separator passes through", "a b", `"a` + " " + `b"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Marshal(String(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalNFCNormalization(t *testing.T) {
	// "e" + combining acute accent normalizes to precomposed U+00E9.
	decomposed := String("cafe\u0301")
	precomposed := String("caf\u00E9")

	a, err := Marshal(decomposed)
	require.NoError(t, err)
	b, err := Marshal(precomposed)
	require.NoError(t, err)
	assert.Equal(t, string(b), string(a))
}

func TestMarshalDeterministic(t *testing.T) {
	obj := Object{
		"flightNumber":   String("EC001"),
		"origin":         String("BUD"),
		"destination":    String("TXL"),
		"totalSeats":     Int(100),
		"availableSeats": Int(100),
		"reservations":   Object{},
		"docType":        String("flight"),
		"departureTime":  String("05032021-1034"),
	}

	first, err := Marshal(obj)
	require.NoError(t, err)
	for i := 0; i < 50; i++ {
		again, err := Marshal(obj)
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
}

func TestMarshalRejectsNil(t *testing.T) {
	_, err := Marshal(nil)
	require.Error(t, err)
}

func TestFromGo(t *testing.T) {
	v, err := FromGo(map[string]any{
		"name":  "EC001",
		"seats": 100,
		"open":  true,
		"tags":  []any{"a", "b"},
	})
	require.NoError(t, err)

	result, err := Marshal(v)
	require.NoError(t, err)
	assert.Equal(t, `{"name":"EC001","open":true,"seats":100,"tags":["a","b"]}`, string(result))
}

func TestFromGoRejectsFloatsAndNulls(t *testing.T) {
	_, err := FromGo(3.14)
	require.Error(t, err)

	_, err = FromGo(map[string]any{"x": nil})
	require.Error(t, err)
}
