package normalize

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"profile_sync/internal/model"
)

// decodeRecords accepts a JSON array only when every element is an object
// carrying a name. Field values are read leniently: numbers, booleans and
// numeric strings are coerced rather than rejected, so a record with an
// odd field type is still passed through.
func decodeRecords(raw string) ([]model.Cookie, bool) {
	var items []map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, false
	}
	for _, item := range items {
		if item == nil {
			return nil, false
		}
		if _, ok := item["name"]; !ok {
			return nil, false
		}
	}

	out := make([]model.Cookie, 0, len(items))
	for _, item := range items {
		out = append(out, model.Cookie{
			Name:           looseString(item["name"]),
			Value:          looseString(item["value"]),
			Domain:         looseString(item["domain"]),
			Path:           looseString(item["path"]),
			Secure:         looseBool(item["secure"]),
			HttpOnly:       looseBool(item["httpOnly"]),
			SameSite:       looseString(item["sameSite"]),
			Session:        looseBool(item["session"]),
			HostOnly:       looseBool(item["hostOnly"]),
			ExpirationDate: looseFloat(item["expirationDate"]),
		})
	}
	return out, true
}

func isNull(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}

// looseString returns a JSON string as is and any other scalar as its
// literal text. Objects and arrays become "".
func looseString(raw json.RawMessage) string {
	if isNull(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	t := string(bytes.TrimSpace(raw))
	if strings.HasPrefix(t, "{") || strings.HasPrefix(t, "[") {
		return ""
	}
	return t
}

func looseBool(raw json.RawMessage) bool {
	if isNull(raw) {
		return false
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b
	}
	if f := looseFloat(raw); f != nil {
		return *f != 0
	}
	b, _ = strconv.ParseBool(strings.TrimSpace(looseString(raw)))
	return b
}

// looseFloat reads a number or a numeric string; anything else is nil.
func looseFloat(raw json.RawMessage) *float64 {
	if isNull(raw) {
		return nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return &f
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil
	}
	return &f
}
