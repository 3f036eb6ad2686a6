package authn_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/idsrv/pkg/authn"
)

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		result  authn.Result
		wantErr bool
	}{
		{name: "nil", result: nil},
		{name: "none", result: authn.None{}},
		{name: "error", result: authn.Error{Message: "locked"}},
		{name: "error without message", result: authn.Error{}},
		{name: "partial", result: authn.Partial{ResumeURL: "/2fa", TempSubject: "42"}},
		{name: "partial without resume url", result: authn.Partial{TempSubject: "42"}, wantErr: true},
		{name: "partial without subject", result: authn.Partial{ResumeURL: "/2fa"}, wantErr: true},
		{name: "full", result: authn.Full{Subject: "42"}},
		{name: "full without subject", result: authn.Full{DisplayName: "Bob"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := authn.Validate(tt.result)
			if tt.wantErr {
				assert.ErrorIs(t, err, authn.ErrInvalidResult)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestResultKind(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "none", authn.None{}.Kind())
	assert.Equal(t, "error", authn.Error{}.Kind())
	assert.Equal(t, "partial", authn.Partial{}.Kind())
	assert.Equal(t, "full", authn.Full{}.Kind())
}
