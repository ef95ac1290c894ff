package valueobject

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewShippingAddress(t *testing.T) {
	tests := []struct {
		name    string
		street  string
		city    string
		state   string
		pincode string
		phone   string
		wantErr string
	}{
		{"valid", "12 MG Road", "Bengaluru", "Karnataka", "560001", "9876543210", ""},
		{"valid with country code and spaces", "12 MG Road", "Bengaluru", "Karnataka", "560001", "+91 98765 43210", ""},
		{"missing street", "  ", "Bengaluru", "Karnataka", "560001", "9876543210", "street is required"},
		{"missing city", "12 MG Road", "", "Karnataka", "560001", "9876543210", "city is required"},
		{"missing state", "12 MG Road", "Bengaluru", "", "560001", "9876543210", "state is required"},
		{"short pincode", "12 MG Road", "Bengaluru", "Karnataka", "56001", "9876543210", "pincode"},
		{"pincode leading zero", "12 MG Road", "Bengaluru", "Karnataka", "060001", "9876543210", "pincode"},
		{"bad phone", "12 MG Road", "Bengaluru", "Karnataka", "560001", "12345", "phone"},
		{"street too long", strings.Repeat("a", 301), "Bengaluru", "Karnataka", "560001", "9876543210", "street cannot exceed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, err := NewShippingAddress(tt.street, tt.city, tt.state, tt.pincode, tt.phone, "")
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.city, addr.City())
			assert.False(t, addr.IsEmpty())
		})
	}
}

func TestShippingAddress_PhoneNormalized(t *testing.T) {
	addr, err := NewShippingAddress("1 Park St", "Kolkata", "West Bengal", "700016", "98765-43210", "Ring twice")
	require.NoError(t, err)
	assert.Equal(t, "9876543210", addr.Phone())
	assert.Equal(t, "Ring twice", addr.Instructions())
}

func TestShippingAddress_JSON(t *testing.T) {
	addr, err := NewShippingAddress("1 Park St", "Kolkata", "West Bengal", "700016", "9876543210", "")
	require.NoError(t, err)

	data, err := json.Marshal(addr)
	require.NoError(t, err)

	var decoded ShippingAddress
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, addr, decoded)

	err = json.Unmarshal([]byte(`{"street":"x","city":"y","state":"z","pincode":"1","phone":"9876543210"}`), &decoded)
	assert.Error(t, err)
}

func TestIsValidPincode(t *testing.T) {
	assert.True(t, IsValidPincode("110001"))
	assert.False(t, IsValidPincode("11000"))
	assert.False(t, IsValidPincode("abcdef"))
}

func TestShippingAddress_String(t *testing.T) {
	addr := RestoreShippingAddress("1 Park St", "Kolkata", "West Bengal", "700016", "9876543210", "")
	assert.Equal(t, "1 Park St, Kolkata, West Bengal - 700016", addr.String())
	assert.True(t, ShippingAddress{}.IsEmpty())
}
