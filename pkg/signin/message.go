package signin

import "time"

// Message describes an in-progress sign-in. It is written once by Begin and
// never modified afterwards.
type Message struct {
	ID        string    `json:"id"`
	ReturnURL string    `json:"return_url"`
	ClientID  string    `json:"client_id,omitempty"`
	IdP       string    `json:"idp,omitempty"`
	LoginHint string    `json:"login_hint,omitempty"`
	Tenant    string    `json:"tenant,omitempty"`
	AcrValues []string  `json:"acr_values,omitempty"`
	UILocales string    `json:"ui_locales,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// SignOutMessage carries the client context of a logout request.
type SignOutMessage struct {
	ID        string    `json:"id"`
	ClientID  string    `json:"client_id,omitempty"`
	ReturnURL string    `json:"return_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ValidID reports whether id can be used as a correlation id.
// Ids end up in cookie names, so only [A-Za-z0-9_-] is allowed.
func ValidID(id string) bool {
	if id == "" || len(id) > maxIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}
