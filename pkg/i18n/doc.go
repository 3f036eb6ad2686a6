// Package i18n translates user-facing messages and negotiates the language
// of a request.
//
// Translations are nested maps keyed by language code, usually loaded from a
// YAML file:
//
//	en:
//	  login:
//	    invalid_credentials: Invalid username or password.
//	de:
//	  login:
//	    invalid_credentials: Benutzername oder Passwort ist falsch.
//
// Keys are dot-separated paths ("login.invalid_credentials"). Values may
// contain %{name} placeholders filled from name, value argument pairs.
//
//	tr, err := i18n.LoadFile("config/messages.yaml")
//	if err != nil {
//		return err
//	}
//	lang := tr.Match(msg.UILocales, r.Header.Get("Accept-Language"))
//	text := tr.Td(lang, "login.invalid_credentials", "Invalid username or password.")
//
// Match accepts both Accept-Language headers and the space-separated tag
// lists OpenID Connect sends as ui_locales, and uses golang.org/x/text/language
// for matching, so "de-AT" resolves to "de" when only "de" is available.
package i18n
