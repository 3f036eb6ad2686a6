package login

import (
	"crypto/subtle"
	"net/http"

	"github.com/dmitrymomot/idsrv/handler"
	"github.com/dmitrymomot/idsrv/pkg/authn"
	"github.com/dmitrymomot/idsrv/pkg/logger"
	"github.com/dmitrymomot/idsrv/pkg/metrics"
)

// ResumeRequest carries the resume id appended to a partial login's
// resume URL.
type ResumeRequest struct {
	Resume string `query:"resume"`
}

// resume promotes the partial ticket to a full one and returns the user to
// the return URL captured when the partial login started. The ticket is
// single use.
func (s *Service) resume(ctx handler.Context, req ResumeRequest) handler.Response {
	w, r := ctx.ResponseWriter(), ctx.Request()

	var t authn.PartialTicket
	if _, err := s.cookies.GetProtected(r, s.cfg.PartialCookie, authn.PurposePartial, &t); err != nil {
		s.metrics.IncLogin(metrics.FlowResume, metrics.OutcomeInvalid)
		s.logger.InfoContext(ctx, "no partial login to resume", logger.Error(err))
		return s.errorPage(ctx, http.StatusBadRequest, MsgNoPartialLoginFound)
	}
	if req.Resume != "" && subtle.ConstantTimeCompare([]byte(req.Resume), []byte(t.ResumeID)) != 1 {
		s.metrics.IncLogin(metrics.FlowResume, metrics.OutcomeInvalid)
		s.logger.WarnContext(ctx, "resume id mismatch", logger.SignInID(t.SignInID))
		return s.errorPage(ctx, http.StatusBadRequest, MsgResumeMismatch)
	}

	full := t.Promote()
	if err := s.issueFull(w, full, s.cfg.Cookie.Decide(nil)); err != nil {
		return s.fail(ctx, err)
	}
	s.cookies.Delete(w, s.cfg.PartialCookie)
	s.signins.Clear(w, t.SignInID)

	s.metrics.IncLogin(metrics.FlowResume, full.Kind())
	s.logger.InfoContext(ctx, "partial login resumed",
		logger.Subject(full.Subject),
		logger.SignInID(t.SignInID),
		logger.Provider(full.IdentityProvider),
	)
	return handler.Redirect(t.ReturnURL)
}
