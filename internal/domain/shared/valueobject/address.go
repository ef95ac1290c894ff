package valueobject

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var (
	pincodePattern = regexp.MustCompile(`^[1-9][0-9]{5}$`)
	phonePattern   = regexp.MustCompile(`^(\+91)?[6-9][0-9]{9}$`)
)

// ShippingAddress is the delivery address captured on an order.
// It is immutable once constructed.
type ShippingAddress struct {
	street       string
	city         string
	state        string
	pincode      string
	phone        string
	instructions string
}

// NewShippingAddress validates and builds a shipping address.
// Street, city, state, pincode and phone are required; instructions are optional.
func NewShippingAddress(street, city, state, pincode, phone, instructions string) (ShippingAddress, error) {
	addr := ShippingAddress{
		street:       strings.TrimSpace(street),
		city:         strings.TrimSpace(city),
		state:        strings.TrimSpace(state),
		pincode:      strings.TrimSpace(pincode),
		phone:        normalizePhone(phone),
		instructions: strings.TrimSpace(instructions),
	}
	if err := addr.validate(); err != nil {
		return ShippingAddress{}, err
	}
	return addr, nil
}

func (a ShippingAddress) validate() error {
	required := []struct {
		name  string
		value string
		max   int
	}{
		{"street", a.street, 300},
		{"city", a.city, 100},
		{"state", a.state, 100},
	}
	for _, f := range required {
		if f.value == "" {
			return fmt.Errorf("%s is required", f.name)
		}
		if len([]rune(f.value)) > f.max {
			return fmt.Errorf("%s cannot exceed %d characters", f.name, f.max)
		}
	}
	if !pincodePattern.MatchString(a.pincode) {
		return fmt.Errorf("pincode must be 6 digits")
	}
	if !phonePattern.MatchString(a.phone) {
		return fmt.Errorf("phone must be a valid 10 digit mobile number")
	}
	if len([]rune(a.instructions)) > 500 {
		return fmt.Errorf("instructions cannot exceed 500 characters")
	}
	return nil
}

// IsValidPincode reports whether s is a well-formed postal index number
func IsValidPincode(s string) bool {
	return pincodePattern.MatchString(strings.TrimSpace(s))
}

func normalizePhone(phone string) string {
	replacer := strings.NewReplacer(" ", "", "-", "")
	return replacer.Replace(strings.TrimSpace(phone))
}

func (a ShippingAddress) Street() string       { return a.street }
func (a ShippingAddress) City() string         { return a.city }
func (a ShippingAddress) State() string        { return a.state }
func (a ShippingAddress) Pincode() string      { return a.pincode }
func (a ShippingAddress) Phone() string        { return a.phone }
func (a ShippingAddress) Instructions() string { return a.instructions }

// IsEmpty reports whether the address was never set
func (a ShippingAddress) IsEmpty() bool {
	return a.street == "" && a.city == "" && a.pincode == ""
}

// String returns a single-line rendering for logs and labels
func (a ShippingAddress) String() string {
	return fmt.Sprintf("%s, %s, %s - %s", a.street, a.city, a.state, a.pincode)
}

// RestoreShippingAddress rebuilds an address from persisted columns without validation
func RestoreShippingAddress(street, city, state, pincode, phone, instructions string) ShippingAddress {
	return ShippingAddress{
		street:       street,
		city:         city,
		state:        state,
		pincode:      pincode,
		phone:        phone,
		instructions: instructions,
	}
}

type shippingAddressJSON struct {
	Street       string `json:"street"`
	City         string `json:"city"`
	State        string `json:"state"`
	Pincode      string `json:"pincode"`
	Phone        string `json:"phone"`
	Instructions string `json:"instructions,omitempty"`
}

// MarshalJSON implements json.Marshaler
func (a ShippingAddress) MarshalJSON() ([]byte, error) {
	return json.Marshal(shippingAddressJSON{
		Street:       a.street,
		City:         a.city,
		State:        a.state,
		Pincode:      a.pincode,
		Phone:        a.phone,
		Instructions: a.instructions,
	})
}

// UnmarshalJSON implements json.Unmarshaler and validates the payload
func (a *ShippingAddress) UnmarshalJSON(data []byte) error {
	var v shippingAddressJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	addr, err := NewShippingAddress(v.Street, v.City, v.State, v.Pincode, v.Phone, v.Instructions)
	if err != nil {
		return err
	}
	*a = addr
	return nil
}
