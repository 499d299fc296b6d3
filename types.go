package goGallery

import "github.com/MrEthical07/goGallery/identity"

// Route names of the gallery route table.
const (
	RouteHome     = "Home"
	RouteImages   = "Images"
	RouteLogin    = "Login"
	RouteSignup   = "Signup"
	RouteNotFound = "NotFound"
)

// Visitor is the HTTP-side identity of one browser: the session it belongs
// to and the credentials forwarded to the identity service on its behalf.
type Visitor struct {
	SessionID   string
	Credentials identity.Credentials
}

// ViewModel is what a completed page navigation renders.
type ViewModel struct {
	Route string               `json:"route"`
	Path  string               `json:"path"`
	User  *identity.UserRecord `json:"user,omitempty"`
	// RedirectedFrom is set when a guard redirected the navigation here.
	RedirectedFrom string `json:"redirected_from,omitempty"`
}
