package auth_test

import (
	"strings"
	"testing"

	"github.com/jrsteele09/smartbill-auth/auth"
	"github.com/jrsteele09/smartbill-auth/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestExchangeRequest_Validate(t *testing.T) {
	valid := auth.ExchangeRequest{
		Code:        "4/0AX4XfWh",
		State:       "state",
		Verifier:    testCodeVerifier,
		RedirectURI: testRedirectURI,
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		modify func(r *auth.ExchangeRequest)
	}{
		{"missing code", func(r *auth.ExchangeRequest) { r.Code = " " }},
		{"missing verifier", func(r *auth.ExchangeRequest) { r.Verifier = "" }},
		{"short verifier", func(r *auth.ExchangeRequest) { r.Verifier = "abc" }},
		{"long verifier", func(r *auth.ExchangeRequest) { r.Verifier = strings.Repeat("a", 129) }},
		{"verifier with invalid characters", func(r *auth.ExchangeRequest) { r.Verifier = strings.Repeat("a", 42) + "+" }},
		{"oversized state", func(r *auth.ExchangeRequest) { r.State = strings.Repeat("s", 513) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid
			tt.modify(&r)
			require.ErrorIs(t, r.Validate(), errors.ErrInvalidRequest)
		})
	}
}
