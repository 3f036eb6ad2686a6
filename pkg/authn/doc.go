// Package authn holds the vocabulary shared by the sign-in flow: the
// authentication result returned by a user service, the normalized external
// identity, the tickets stored in cookies, the persistence policy for the
// primary cookie and the collaborator contracts (UserService, ClientStore).
//
// Result is a closed sum type. A user service answers with exactly one of
// None, Error, Partial or Full:
//
//	func (s *users) AuthenticateLocal(ctx context.Context, in authn.LocalContext) (authn.Result, error) {
//		u, ok := s.find(in.Username)
//		if !ok || !u.check(in.Password) {
//			return authn.None{}, nil
//		}
//		if u.Locked {
//			return authn.Error{Message: "account locked"}, nil
//		}
//		return authn.Full{Subject: u.ID, DisplayName: u.Name, AuthenticationMethod: authn.MethodPassword}, nil
//	}
//
// Callers switch on the concrete type; Validate rejects values that cannot be
// acted upon, such as a Full without a subject.
package authn
