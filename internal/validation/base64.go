package validation

import (
	"encoding/base64"

	validation "github.com/jellydator/validation"
)

// Base64 accepts standard, padded base64. Empty strings pass so Required decides.
var Base64 = validation.By(func(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_base64_type", "must be a string")
	}
	if s == "" {
		return nil
	}
	if _, err := base64.StdEncoding.DecodeString(s); err != nil {
		return validation.NewError("validation_base64", "must be valid base64-encoded data")
	}
	return nil
})

// Base64MaxBytes limits the decoded size of a base64 string. Invalid input is left to
// Base64.
func Base64MaxBytes(limit int) validation.Rule {
	return validation.By(func(value interface{}) error {
		s, ok := value.(string)
		if !ok || s == "" {
			return nil
		}
		decoded, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil
		}
		if len(decoded) > limit {
			return validation.NewError("validation_base64_max_bytes", "decoded data is too large").
				SetParams(map[string]interface{}{"max": limit})
		}
		return nil
	})
}
