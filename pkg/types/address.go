package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// Address is a point-in-time snapshot stored as JSON next to the order.
// Later edits to a customer's saved address never rewrite it.
type Address struct {
	Line1      string  `json:"line1" validate:"required"`
	Line2      *string `json:"line2,omitempty"`
	City       string  `json:"city" validate:"required"`
	State      string  `json:"state,omitempty"`
	PostalCode string  `json:"postal_code" validate:"required"`
	Country    string  `json:"country,omitempty"`
}

// Normalized trims every field and defaults the country to US.
func (a Address) Normalized() Address {
	out := Address{
		Line1:      strings.TrimSpace(a.Line1),
		City:       strings.TrimSpace(a.City),
		State:      strings.TrimSpace(a.State),
		PostalCode: strings.TrimSpace(a.PostalCode),
		Country:    strings.ToUpper(strings.TrimSpace(a.Country)),
	}
	if a.Line2 != nil {
		if line2 := strings.TrimSpace(*a.Line2); line2 != "" {
			out.Line2 = &line2
		}
	}
	if out.Country == "" {
		out.Country = "US"
	}
	return out
}

// Value marshals Address into its JSON snapshot.
func (a Address) Value() (driver.Value, error) {
	if strings.TrimSpace(a.Line1) == "" {
		return nil, fmt.Errorf("address: missing line1")
	}
	raw, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("address: marshal %w", err)
	}
	return string(raw), nil
}

// Scan decodes the JSON snapshot.
func (a *Address) Scan(value any) error {
	if value == nil {
		*a = Address{}
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("address: unsupported scan type %T", value)
	}

	if err := json.Unmarshal(raw, a); err != nil {
		return fmt.Errorf("address: unmarshal %w", err)
	}
	return nil
}
