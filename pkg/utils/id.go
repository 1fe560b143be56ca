package utils

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf16"

	"github.com/google/uuid"
)

// GenerateID returns a prefixed random identifier, e.g. "cand-6f1c...".
func GenerateID(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, uuid.NewString())
}

// Device describes the environment a client id fingerprint is derived from.
type Device struct {
	UserAgent string
	Screen    string // "WxH"
	Timezone  string
}

// NewClientID builds "<unix-millis>-<random base36>-<fingerprint>".
func NewClientID(now time.Time, device Device) string {
	return fmt.Sprintf("%d-%s-%s", now.UnixMilli(), randomBase36(), Fingerprint(device))
}

// Fingerprint is a non-cryptographic 32-bit string hash of the device
// description, rendered in base 36.
func Fingerprint(device Device) string {
	s := fmt.Sprintf("%s-%s-%s", device.UserAgent, device.Screen, device.Timezone)

	var hash int32
	for _, unit := range utf16.Encode([]rune(s)) {
		hash = (hash << 5) - hash + int32(unit)
	}

	abs := int64(hash)
	if abs < 0 {
		abs = -abs
	}
	return strconv.FormatInt(abs, 36)
}

func randomBase36() string {
	u := uuid.New()
	s := strconv.FormatUint(binary.BigEndian.Uint64(u[:8]), 36)
	if len(s) > 13 {
		s = s[:13]
	}
	return strings.ToLower(s)
}
