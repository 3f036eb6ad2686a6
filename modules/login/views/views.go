// Package views contains plain HTML renditions of the sign-in pages. They
// are meant as a working default; applications usually pass their own
// templ components to login.New.
package views

import (
	"context"
	"html"
	"io"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"github.com/dmitrymomot/idsrv/modules/login"
)

// Default returns the built-in views.
func Default() *login.Views {
	return &login.Views{
		Login:        LoginPage,
		Error:        ErrorPage,
		LogoutPrompt: LogoutPrompt,
		LoggedOut:    LoggedOut,
	}
}

// LoginPage renders the local form (when FormAction is set) and the
// external provider links.
func LoginPage(p login.LoginPageParams) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		var b page
		b.open(p.SiteName, "Sign in", p.Lang)
		b.raw(`<main id="login">`)
		b.heading("Sign in", p.ClientName)
		b.alert(p.ErrorMessage)

		if p.FormAction != "" {
			b.raw(`<form method="post" action="` + attr(p.FormAction) + `">`)
			b.csrf(p.CSRF)
			b.raw(`<label for="username">Username</label>`)
			b.raw(`<input id="username" name="username" type="text" autocomplete="username" autofocus value="` + attr(p.Username) + `">`)
			b.raw(`<label for="password">Password</label>`)
			b.raw(`<input id="password" name="password" type="password" autocomplete="current-password">`)
			if p.AllowRememberMe {
				checked := ""
				if p.RememberMe {
					checked = " checked"
				}
				// Browsers omit unchecked boxes; the trailing hidden field
				// makes an unchecked box an explicit "false". Checked boxes
				// come first in the form data and win.
				b.raw(`<label><input name="rememberMe" type="checkbox" value="true"` + checked + `> Remember me</label>`)
				b.raw(`<input type="hidden" name="rememberMe" value="false">`)
			}
			b.raw(`<button type="submit">Sign in</button></form>`)
		}

		if len(p.Providers) > 0 {
			b.raw(`<ul class="providers">`)
			for _, pr := range p.Providers {
				caption := pr.Caption
				if caption == "" {
					caption = pr.Name
				}
				b.raw(`<li><a href="` + attr(string(templ.URL(pr.URL))) + `">` + html.EscapeString(caption) + `</a></li>`)
			}
			b.raw(`</ul>`)
		}

		b.raw(`</main>`)
		b.close()
		return b.flush(w)
	})
}

// ErrorPage renders a terminal error of the sign-in flow.
func ErrorPage(p login.ErrorPageParams) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		var b page
		b.open(p.SiteName, "Error", p.Lang)
		b.raw(`<main id="error"><h1>Error</h1>`)
		b.alert(p.Message)
		if p.RequestID != "" {
			b.raw(`<p class="request-id">Request ID: <code>` + html.EscapeString(p.RequestID) + `</code></p>`)
		}
		b.raw(`</main>`)
		b.close()
		return b.flush(w)
	})
}

// LogoutPrompt asks for confirmation before signing out.
func LogoutPrompt(p login.LogoutPromptParams) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		var b page
		b.open(p.SiteName, "Sign out", "")
		b.raw(`<main id="logout">`)
		b.heading("Sign out", p.ClientName)
		b.raw(`<p>Would you like to sign out?</p>`)
		b.raw(`<form method="post" action="` + attr(p.FormAction) + `">`)
		b.csrf(p.CSRF)
		b.raw(`<button type="submit">Yes, sign out</button></form></main>`)
		b.close()
		return b.flush(w)
	})
}

// LoggedOut confirms the logout and loads every front-channel logout URL in
// a hidden iframe.
func LoggedOut(p login.LoggedOutParams) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		var b page
		b.open(p.SiteName, "Signed out", "")
		b.raw(`<main id="logout"><h1>You are now signed out</h1>`)
		if p.ReturnURL != "" {
			name := p.ClientName
			if name == "" {
				name = "the application"
			}
			b.raw(`<p><a href="` + attr(string(templ.URL(p.ReturnURL))) + `">Return to ` + html.EscapeString(name) + `</a></p>`)
		}
		for i, u := range p.IFrameURLs {
			b.raw(`<iframe class="signout" title="signout-` + strconv.Itoa(i) + `" hidden src="` + attr(string(templ.URL(u))) + `"></iframe>`)
		}
		b.raw(`</main>`)
		b.close()
		return b.flush(w)
	})
}

type page struct {
	strings.Builder
}

func (b *page) raw(s string) { b.WriteString(s) }

func (b *page) open(site, title, lang string) {
	if site == "" {
		site = "idsrv"
	}
	if lang == "" {
		lang = "en"
	}
	b.raw(`<!doctype html><html lang="` + attr(lang) + `"><head><meta charset="utf-8">`)
	b.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
	b.raw(`<title>` + html.EscapeString(title+" | "+site) + `</title></head><body>`)
}

func (b *page) close() { b.raw(`</body></html>`) }

func (b *page) heading(title, client string) {
	b.raw(`<h1>` + html.EscapeString(title) + `</h1>`)
	if client != "" {
		b.raw(`<p class="client">to continue to <strong>` + html.EscapeString(client) + `</strong></p>`)
	}
}

func (b *page) alert(msg string) {
	if msg != "" {
		b.raw(`<p class="alert" role="alert">` + html.EscapeString(msg) + `</p>`)
	}
}

func (b *page) csrf(f login.CSRFField) {
	b.raw(`<input type="hidden" name="` + attr(f.Name) + `" value="` + attr(f.Value) + `">`)
}

func (b *page) flush(w io.Writer) error {
	_, err := io.WriteString(w, b.String())
	return err
}

func attr(s string) string { return html.EscapeString(s) }
