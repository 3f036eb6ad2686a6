package handler

import (
	"net/http"

	"github.com/a-h/templ"
	"github.com/starfederation/datastar-go/datastar"
)

// TemplOption configures how a component is patched into the page for
// DataStar requests.
type TemplOption = datastar.PatchElementOption

// WithTarget sets the CSS selector the component is patched into.
func WithTarget(selector string) TemplOption {
	return datastar.WithSelector(selector)
}

// WithPatchMode sets how the component is merged into the DOM.
func WithPatchMode(mode datastar.ElementPatchMode) TemplOption {
	return datastar.WithMode(mode)
}

type templResponse struct {
	component templ.Component
	status    int
	options   []datastar.PatchElementOption
}

func (t templResponse) Render(w http.ResponseWriter, r *http.Request) error {
	if IsDataStar(r) {
		return datastar.NewSSE(w, r).PatchElementTempl(t.component, t.options...)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if t.status != 0 && t.status != http.StatusOK {
		w.WriteHeader(t.status)
	}
	return t.component.Render(r.Context(), w)
}

// Templ renders a component with status 200. DataStar requests receive
// the component as an element patch.
func Templ(component templ.Component, opts ...TemplOption) Response {
	return templResponse{component: component, options: opts}
}

// TemplWithStatus renders a component with the given status code.
// The status is ignored for DataStar requests, which always stream.
func TemplWithStatus(status int, component templ.Component, opts ...TemplOption) Response {
	return templResponse{component: component, status: status, options: opts}
}

type redirectResponse struct {
	url  string
	code int
}

func (rr redirectResponse) Render(w http.ResponseWriter, r *http.Request) error {
	if IsDataStar(r) {
		return datastar.NewSSE(w, r).Redirect(rr.url)
	}
	http.Redirect(w, r, rr.url, rr.code)
	return nil
}

// Redirect responds with 302 Found. DataStar requests are redirected
// client side through an SSE script.
func Redirect(url string) Response {
	return redirectResponse{url: url, code: http.StatusFound}
}

// RedirectWithCode responds with the given 3xx status code.
func RedirectWithCode(url string, code int) Response {
	return redirectResponse{url: url, code: code}
}

type statusResponse struct {
	status int
}

func (s statusResponse) Render(w http.ResponseWriter, _ *http.Request) error {
	w.WriteHeader(s.status)
	return nil
}

// Empty responds with 204 No Content.
func Empty() Response {
	return statusResponse{status: http.StatusNoContent}
}

// Status responds with the status code and no body.
func Status(code int) Response {
	return statusResponse{status: code}
}
