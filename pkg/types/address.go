package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// Address is the shipping address snapshot stored as jsonb on carts and orders.
type Address struct {
	Name       string  `json:"name"`
	Line1      string  `json:"line1"`
	Line2      *string `json:"line2,omitempty"`
	City       string  `json:"city"`
	State      string  `json:"state"`
	PostalCode string  `json:"postal_code"`
	Country    string  `json:"country"`
	Phone      string  `json:"phone"`
}

// Validate reports whether the address carries the minimum shippable fields.
func (a Address) Validate() error {
	if strings.TrimSpace(a.Line1) == "" {
		return fmt.Errorf("address: missing line1")
	}
	if strings.TrimSpace(a.City) == "" {
		return fmt.Errorf("address: missing city")
	}
	if strings.TrimSpace(a.State) == "" {
		return fmt.Errorf("address: missing state")
	}
	if strings.TrimSpace(a.PostalCode) == "" {
		return fmt.Errorf("address: missing postal_code")
	}
	return nil
}

// Value marshals Address into a jsonb column value.
func (a Address) Value() (driver.Value, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(a)
}

// Scan decodes the jsonb column value.
func (a *Address) Scan(value interface{}) error {
	if value == nil {
		*a = Address{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, a)
	case string:
		return json.Unmarshal([]byte(v), a)
	default:
		return fmt.Errorf("address: unsupported scan type %T", value)
	}
}
