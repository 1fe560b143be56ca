package utils

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprint_Deterministic(t *testing.T) {
	d := Device{UserAgent: "livevote/1.0", Screen: "1920x1080", Timezone: "Europe/Berlin"}

	assert.Equal(t, Fingerprint(d), Fingerprint(d))
	assert.NotEqual(t, Fingerprint(d), Fingerprint(Device{UserAgent: "other", Screen: "1920x1080", Timezone: "Europe/Berlin"}))
}

func TestFingerprint_KnownValues(t *testing.T) {
	// "a-b-c": h = 31*h + c over the UTF-16 units.
	var want int64
	for _, c := range "a-b-c" {
		want = want*31 + int64(c)
	}
	assert.Equal(t, strconv.FormatInt(want, 36), Fingerprint(Device{UserAgent: "a", Screen: "b", Timezone: "c"}))
}

func TestFingerprint_NeverNegative(t *testing.T) {
	long := strings.Repeat("Mozilla/5.0 (X11; Linux x86_64) ", 20)
	fp := Fingerprint(Device{UserAgent: long, Screen: "3840x2160", Timezone: "UTC"})
	assert.NotContains(t, fp, "-")
}

func TestNewClientID_Format(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	d := Device{UserAgent: "ua", Screen: "0x0", Timezone: "UTC"}

	id := NewClientID(now, d)

	parts := strings.Split(id, "-")
	require.Len(t, parts, 3)
	assert.Equal(t, "1700000000123", parts[0])
	assert.NotEmpty(t, parts[1])
	assert.LessOrEqual(t, len(parts[1]), 13)
	assert.Equal(t, Fingerprint(d), parts[2])
	assert.NotEqual(t, id, NewClientID(now, d))
}

func TestGenerateID_Prefix(t *testing.T) {
	assert.True(t, strings.HasPrefix(GenerateID("cand"), "cand-"))
}
