package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github/chapool/jetton-signer/internal/auth"
)

func TestGuardVerify(t *testing.T) {
	g := auth.NewGuard("s3cret")

	tests := []struct {
		name      string
		presented string
		present   bool
		want      auth.Result
	}{
		{"absent", "", false, auth.Missing},
		{"empty", "", true, auth.Missing},
		{"exact", "s3cret", true, auth.Authorized},
		{"prefix", "s3cre", true, auth.Invalid},
		{"longer", "s3cret!", true, auth.Invalid},
		{"case", "S3CRET", true, auth.Invalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, g.Verify(tt.presented, tt.present))
		})
	}
}

func TestGuardWithoutSecret(t *testing.T) {
	g := auth.NewGuard("")

	assert.Equal(t, auth.Invalid, g.Verify("anything", true))
	assert.Equal(t, auth.Missing, g.Verify("", false))
	assert.Equal(t, "invalid", auth.Invalid.String())
}
