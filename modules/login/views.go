package login

import (
	"errors"

	"github.com/a-h/templ"
)

// Views renders the pages of the sign-in flow. Every field is required.
type Views struct {
	Login        func(LoginPageParams) templ.Component
	Error        func(ErrorPageParams) templ.Component
	LogoutPrompt func(LogoutPromptParams) templ.Component
	LoggedOut    func(LoggedOutParams) templ.Component
}

func (v *Views) validate() error {
	if v == nil || v.Login == nil || v.Error == nil || v.LogoutPrompt == nil || v.LoggedOut == nil {
		return errors.Join(ErrMissingDependency, errors.New("incomplete views"))
	}
	return nil
}

// CSRFField is the hidden anti-forgery input every form must render.
type CSRFField struct {
	Name  string
	Value string
}

// ProviderLink is an external identity provider the user may choose.
type ProviderLink struct {
	Name    string
	Caption string
	URL     string
}

// LoginPageParams contains data for rendering the login page.
type LoginPageParams struct {
	SiteName string
	// Lang is the negotiated page language; empty without a translator.
	Lang       string
	ClientName string
	// FormAction is empty when the local form must not be rendered.
	FormAction      string
	Username        string
	ErrorMessage    string
	AllowRememberMe bool
	RememberMe      bool
	Providers       []ProviderLink
	CSRF            CSRFField
}

// ErrorPageParams contains data for rendering the standalone error page.
type ErrorPageParams struct {
	SiteName   string
	Lang       string
	Message    string
	StatusCode int
	RequestID  string
}

// LogoutPromptParams contains data for rendering the logout confirmation.
type LogoutPromptParams struct {
	SiteName   string
	ClientName string
	FormAction string
	CSRF       CSRFField
}

// LoggedOutParams contains data for rendering the page shown after logout.
type LoggedOutParams struct {
	SiteName   string
	ClientName string
	// ReturnURL is empty when no client asked to be returned to.
	ReturnURL string
	// IFrameURLs are front-channel logout targets loaded in hidden iframes.
	IFrameURLs []string
}
