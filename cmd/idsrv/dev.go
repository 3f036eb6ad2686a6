package main

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/idsrv/pkg/logger"
	"github.com/dmitrymomot/idsrv/pkg/signin"
)

// devRoutes stand in for the protocol layer when running the binary on its
// own: they store a sign-in or sign-out message and redirect to the pages
// that consume it. They must not be enabled in production, as any caller can
// start a flow for any client.
//
//	GET /dev/signin?client_id=&return_url=&idp=&login_hint=&ui_locales=&acr_values=
//	GET /dev/signout?client_id=&return_url=
func devRoutes(signins *signin.Store, basePath string, log *slog.Logger) http.Handler {
	basePath = strings.TrimRight(basePath, "/")
	r := chi.NewRouter()

	r.Get("/signin", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		msg := signin.Message{
			ReturnURL: localPath(q.Get("return_url")),
			ClientID:  q.Get("client_id"),
			IdP:       q.Get("idp"),
			LoginHint: q.Get("login_hint"),
			Tenant:    q.Get("tenant"),
			AcrValues: strings.Fields(q.Get("acr_values")),
			UILocales: q.Get("ui_locales"),
		}
		id, err := signins.Begin(w, r, msg)
		if err != nil {
			log.ErrorContext(r.Context(), "dev sign-in start failed", logger.Error(err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		http.Redirect(w, r, basePath+"/login?"+url.Values{"signin": {id}}.Encode(), http.StatusFound)
	})

	r.Get("/signout", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		msg := signin.SignOutMessage{ClientID: q.Get("client_id")}
		if raw := q.Get("return_url"); raw != "" {
			msg.ReturnURL = localPath(raw)
		}
		id, err := signins.BeginSignOut(w, msg)
		if err != nil {
			log.ErrorContext(r.Context(), "dev sign-out start failed", logger.Error(err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		http.Redirect(w, r, basePath+"/logout?"+url.Values{"id": {id}}.Encode(), http.StatusFound)
	})

	return r
}

// localPath keeps return URLs on this host; anything else becomes "/".
func localPath(raw string) string {
	if !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return "/"
	}
	return raw
}
