package authn_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/idsrv/pkg/authn"
)

func TestCookiePolicy_Decide(t *testing.T) {
	t.Parallel()

	yes, no := true, false

	tests := []struct {
		allowRememberMe bool
		isPersistent    bool
		rememberMe      *bool
		want            authn.Persistence
	}{
		{allowRememberMe: false, isPersistent: false, rememberMe: nil, want: authn.SessionOnly},
		{allowRememberMe: false, isPersistent: false, rememberMe: &yes, want: authn.SessionOnly},
		{allowRememberMe: false, isPersistent: true, rememberMe: nil, want: authn.Persistent},
		{allowRememberMe: false, isPersistent: true, rememberMe: &no, want: authn.Persistent},
		{allowRememberMe: true, isPersistent: true, rememberMe: &no, want: authn.SessionOnly},
		{allowRememberMe: true, isPersistent: true, rememberMe: &yes, want: authn.Persistent},
		{allowRememberMe: true, isPersistent: false, rememberMe: &yes, want: authn.Persistent},
		{allowRememberMe: true, isPersistent: false, rememberMe: nil, want: authn.SessionOnly},
		{allowRememberMe: true, isPersistent: true, rememberMe: nil, want: authn.Persistent},
	}

	for _, tt := range tests {
		name := fmt.Sprintf("allow=%v persistent=%v remember=%v", tt.allowRememberMe, tt.isPersistent, ptrString(tt.rememberMe))
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			p := authn.CookiePolicy{AllowRememberMe: tt.allowRememberMe, IsPersistent: tt.isPersistent, Lifetime: time.Hour}
			assert.Equal(t, tt.want, p.Decide(tt.rememberMe))
		})
	}
}

func ptrString(b *bool) string {
	if b == nil {
		return "unset"
	}
	return fmt.Sprint(*b)
}

func TestPersistence_String(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "persistent", authn.Persistent.String())
	assert.Equal(t, "session", authn.SessionOnly.String())
}
