// Package localusers is a reference authn.UserService backed by a static
// user list, typically loaded from YAML.
//
// Passwords are stored as bcrypt hashes. Usernames are compared after
// Unicode NFKC normalization and case folding, so "ALICE" and "alice" name
// the same account. External logins are linked to users by provider name
// and provider subject.
//
//	users, err := localusers.LoadFile("users.yaml", localusers.WithLogger(log))
//
// A user with a pending_action URL is signed in partially: the login flow
// redirects to that URL and the application later resumes the login.
package localusers
