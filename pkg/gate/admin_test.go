package gate_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/quotekit/pkg/gate"
)

func TestAdminGuards(t *testing.T) {
	t.Parallel()

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	guards := map[string]func(string) func(http.Handler) http.Handler{
		"plain":  gate.AdminToken,
		"bcrypt": func(string) func(http.Handler) http.Handler { return gate.AdminTokenHash(string(hash)) },
	}

	for name, guard := range guards {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			h := guard("s3cret")(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			}))

			tests := []struct {
				auth string
				want int
			}{
				{auth: "Bearer s3cret", want: http.StatusNoContent},
				{auth: "Bearer wrong", want: http.StatusUnauthorized},
				{auth: "s3cret", want: http.StatusUnauthorized},
				{auth: "Bearer ", want: http.StatusUnauthorized},
				{auth: "", want: http.StatusUnauthorized},
			}
			for _, tt := range tests {
				req := httptest.NewRequest(http.MethodPost, "/admin/features/validate", nil)
				if tt.auth != "" {
					req.Header.Set("Authorization", tt.auth)
				}
				rec := httptest.NewRecorder()
				h.ServeHTTP(rec, req)
				assert.Equal(t, tt.want, rec.Code, "auth=%q", tt.auth)
			}
		})
	}

	t.Run("disabled without a secret", func(t *testing.T) {
		t.Parallel()

		for _, mw := range []func(http.Handler) http.Handler{gate.AdminToken(""), gate.AdminTokenHash("")} {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/admin/features/validate", nil)
			req.Header.Set("Authorization", "Bearer anything")
			mw(okHandler(http.StatusOK)).ServeHTTP(rec, req)
			assert.Equal(t, http.StatusNotFound, rec.Code)
		}
	})
}
