package constants

const (
	// TokenType for Bearer authentication
	TokenType = "Bearer"

	// CodeQueryParam carries the authorization code on the callback
	CodeQueryParam = "code"

	// ErrorQueryParam is set by the provider when the user denied consent
	ErrorQueryParam = "error"
)

// Route paths of the auth controller
const (
	LoginPath    = "/auth/login"
	CallbackPath = "/auth/callback"
	UserInfoPath = "/auth/userinfo"
	LogoutPath   = "/auth/logout"
)

// Messages returned by the session guard
const (
	NotLoggedInMessage  = "Not logged in"
	UnauthorizedMessage = "Unauthorized"
)

// DefaultScopes are requested when the configuration names none
var DefaultScopes = []string{"openid", "email", "profile"}
