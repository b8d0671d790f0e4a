package tools

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStringArg(t *testing.T) {
	args := map[string]any{
		"present": "  value  ",
		"number":  42,
	}

	require.Equal(t, "value", stringArg(args, "present"))
	require.Empty(t, stringArg(args, "absent"))
	require.Empty(t, stringArg(args, "number"))
	require.Empty(t, stringArg(nil, "present"))
	require.Empty(t, stringArg("not a map", "present"))
}

func TestIntArg(t *testing.T) {
	args := map[string]any{
		"int":     7,
		"float":   float64(9),
		"int64":   int64(11),
		"string":  "13",
		"untyped": nil,
	}

	value, ok := intArg(args, "int")
	require.True(t, ok)
	require.Equal(t, 7, value)

	value, ok = intArg(args, "float")
	require.True(t, ok)
	require.Equal(t, 9, value)

	value, ok = intArg(args, "int64")
	require.True(t, ok)
	require.Equal(t, 11, value)

	_, ok = intArg(args, "string")
	require.False(t, ok)

	_, ok = intArg(args, "absent")
	require.False(t, ok)

	_, ok = intArg(nil, "int")
	require.False(t, ok)
}
