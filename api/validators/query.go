package validators

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

func query(r *http.Request, key string) string {
	return strings.TrimSpace(r.URL.Query().Get(key))
}

func invalidParam(key, problem string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "invalid query parameter "+key).
		WithDetails(map[string]string{key: problem})
}

// ParseQueryInt returns def when key is absent and rejects values outside [lo, hi].
func ParseQueryInt(r *http.Request, key string, def, lo, hi int) (int, error) {
	raw := query(r, key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, invalidParam(key, "must be an integer")
	}
	if n < lo || n > hi {
		return 0, invalidParam(key, "must be between "+strconv.Itoa(lo)+" and "+strconv.Itoa(hi))
	}
	return n, nil
}

// ParseQueryUUID reads an optional uuid filter from the query string.
func ParseQueryUUID(r *http.Request, key string) (*uuid.UUID, error) {
	raw := query(r, key)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, invalidParam(key, "must be a uuid")
	}
	return &id, nil
}

// ParseQueryBool treats "true" and "1" as set; anything else is false.
func ParseQueryBool(r *http.Request, key string) bool {
	set, err := strconv.ParseBool(query(r, key))
	return err == nil && set
}

// SanitizeString trims input and cuts it to at most maxLen runes.
func SanitizeString(input string, maxLen int) string {
	trimmed := strings.TrimSpace(input)
	if maxLen <= 0 {
		return trimmed
	}
	runes := []rune(trimmed)
	if len(runes) <= maxLen {
		return trimmed
	}
	return strings.TrimSpace(string(runes[:maxLen]))
}
