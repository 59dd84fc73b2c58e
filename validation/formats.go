package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"time"

	"github.com/glimte/contractgate/schema"
	"github.com/google/uuid"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ISO 8601 layouts accepted for date-time values, most common first
var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04:05.999999999",
}

// checkFormat validates a string against the field format
func checkFormat(spec schema.FieldSpec, value string, strictUUIDVersion bool) (bool, string) {
	switch spec.Format.Canonical() {
	case schema.FormatUUID:
		return checkUUID(value, spec.UUIDVersion, strictUUIDVersion)
	case schema.FormatURI:
		return checkURL(value)
	case schema.FormatDateTime:
		return checkDateTime(value)
	case schema.FormatDate:
		if _, err := time.Parse(time.DateOnly, value); err != nil {
			return false, "invalid date format (expected YYYY-MM-DD)"
		}
		return true, ""
	case schema.FormatEmail:
		if !emailRegex.MatchString(value) {
			return false, "invalid email format"
		}
		return true, ""
	default:
		return true, ""
	}
}

// checkUUID accepts only the canonical 8-4-4-4-12 form; the version nibble is checked in strict mode
func checkUUID(value string, version int, strict bool) (bool, string) {
	if len(value) != 36 {
		return false, "invalid UUID format"
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return false, "invalid UUID format"
	}
	if strict && version != 0 && int(id.Version()) != version {
		return false, fmt.Sprintf("expected UUID version %d, got version %d", version, id.Version())
	}
	return true, ""
}

func checkURL(value string) (bool, string) {
	u, err := url.Parse(value)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return false, "invalid URL format (expected absolute URL)"
	}
	return true, ""
}

func checkDateTime(value string) (bool, string) {
	for _, layout := range dateTimeLayouts {
		if _, err := time.Parse(layout, value); err == nil {
			return true, ""
		}
	}
	return false, "invalid date-time format (expected ISO 8601)"
}
