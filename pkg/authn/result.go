package authn

import "fmt"

// Authentication methods recorded in full tickets.
const (
	MethodPassword = "password"
	MethodExternal = "external"
)

// Result is the answer of a user service. Only the types in this package
// implement it.
type Result interface {
	// Kind names the variant: none, error, partial or full.
	Kind() string
	result()
}

// None means the user service has no opinion.
type None struct{}

// Error rejects the attempt with a message shown to the user verbatim.
type Error struct {
	Message string
}

// Partial establishes an identity that must be confirmed at ResumeURL before
// it is trusted.
type Partial struct {
	ResumeURL            string
	TempSubject          string
	Name                 string
	AuthenticationMethod string
	IdentityProvider     string
}

// Full establishes a trusted identity.
type Full struct {
	Subject              string
	DisplayName          string
	AuthenticationMethod string
	IdentityProvider     string
}

func (None) Kind() string    { return "none" }
func (Error) Kind() string   { return "error" }
func (Partial) Kind() string { return "partial" }
func (Full) Kind() string    { return "full" }

func (None) result()    {}
func (Error) result()   {}
func (Partial) result() {}
func (Full) result()    {}

// Validate reports results that cannot be acted upon. A nil result is
// treated as None by callers and is valid.
func Validate(r Result) error {
	switch v := r.(type) {
	case nil, None, Error:
		return nil
	case Partial:
		if v.ResumeURL == "" {
			return fmt.Errorf("%w: partial result without resume url", ErrInvalidResult)
		}
		if v.TempSubject == "" {
			return fmt.Errorf("%w: partial result without subject", ErrInvalidResult)
		}
	case Full:
		if v.Subject == "" {
			return fmt.Errorf("%w: full result without subject", ErrInvalidResult)
		}
	default:
		return fmt.Errorf("%w: unknown result %T", ErrInvalidResult, r)
	}
	return nil
}
