package handler

import (
	"net/http"
	"strings"

	"github.com/starfederation/datastar-go/datastar"
)

const (
	// DataStarAcceptHeader is the Accept value sent by DataStar fetches.
	DataStarAcceptHeader = "text/event-stream"
	// DataStarQueryParam carries DataStar signals on GET requests.
	DataStarQueryParam = "datastar"
)

const (
	PatchOuter   = datastar.ElementPatchModeOuter
	PatchInner   = datastar.ElementPatchModeInner
	PatchReplace = datastar.ElementPatchModeReplace
	PatchPrepend = datastar.ElementPatchModePrepend
	PatchAppend  = datastar.ElementPatchModeAppend
)

// IsDataStar reports whether the request was issued by DataStar and
// expects a server-sent event stream instead of a document.
func IsDataStar(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), DataStarAcceptHeader) {
		return true
	}
	if r.URL.Query().Has(DataStarQueryParam) {
		return true
	}
	return strings.Contains(r.Header.Get("Content-Type"), "application/x-datastar")
}
