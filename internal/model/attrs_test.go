package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAttrs_Normalize(t *testing.T) {
	attrs := Attrs{
		"str":    "value",
		"int":    7,
		"uint":   uint(3),
		"float":  1.5,
		"bool":   true,
		"nested": map[string]any{"inner": 2},
		"weird":  []int{1, 2, 3}, // unsupported, rendered as string
	}

	n := attrs.Normalize()
	require.Equal(t, "value", n["str"])
	require.Equal(t, float64(7), n["int"])
	require.Equal(t, float64(3), n["uint"])
	require.Equal(t, 1.5, n["float"])
	require.Equal(t, true, n["bool"])
	require.Equal(t, Attrs{"inner": float64(2)}, n["nested"])
	require.Equal(t, "[1 2 3]", n["weird"])
}

func TestAttrs_ValueScanRoundTrip(t *testing.T) {
	attrs := Attrs{"a": "x", "n": 42, "ok": true}

	value, err := attrs.Value()
	require.NoError(t, err)

	var scanned Attrs
	require.NoError(t, scanned.Scan(value))
	require.Equal(t, "x", scanned["a"])
	require.Equal(t, float64(42), scanned["n"])
	require.Equal(t, true, scanned["ok"])
}

func TestCallEvents_ScanNil(t *testing.T) {
	var events CallEvents
	require.NoError(t, events.Scan(nil))
	require.Nil(t, events)
}

func TestCall_CachedTranscript(t *testing.T) {
	call := &Call{}
	segments, err := call.CachedTranscript()
	require.NoError(t, err)
	require.Nil(t, segments)

	call.Transcript = `[{"speaker":"caller","text":"hi","timestamp":"2026-01-01T00:00:00Z"}]`
	segments, err = call.CachedTranscript()
	require.NoError(t, err)
	require.Len(t, segments, 1)
	require.Equal(t, "caller", segments[0].Speaker)

	call.Transcript = "{corrupt"
	_, err = call.CachedTranscript()
	require.Error(t, err)
}

func TestValidSubdomain(t *testing.T) {
	require.True(t, ValidSubdomain("acme"))
	require.True(t, ValidSubdomain("acme-2"))
	require.False(t, ValidSubdomain(""))
	require.False(t, ValidSubdomain("www"))
	require.False(t, ValidSubdomain("localhost"))
	require.False(t, ValidSubdomain("Acme"))
	require.False(t, ValidSubdomain("ac me"))
}
