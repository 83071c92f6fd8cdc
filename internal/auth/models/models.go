package models

// Profile is the subset of provider attributes the gateway keeps for a session.
// Each attribute is optional; a nil pointer is rendered as JSON null.
type Profile struct {
	Name    *string `json:"name"`
	Email   *string `json:"email"`
	Picture *string `json:"picture"`
}

// UserInfo represents the answer of the provider's userinfo endpoint
type UserInfo struct {
	Subject string
	Profile Profile
}

// StringPtr is a helper for building profiles in code and tests
func StringPtr(s string) *string {
	return &s
}
