package enrich

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/leadboost/leadboost/internal/domain"
)

func TestResult_Merge(t *testing.T) {
	t.Run("fills only the blanks", func(t *testing.T) {
		result := &Result{
			Company:      "Acme",
			Position:     "CTO",
			Verification: domain.VerificationValid,
			Sources:      []string{"hunter.io"},
		}

		params := domain.IngestParams{
			Email:   "jane@acme.io",
			Company: "Acme Holdings", // caller value wins
			Sources: []string{"csv"},
		}
		result.Merge(&params)

		assert.Equal(t, "Acme Holdings", params.Company)
		assert.Equal(t, "CTO", params.Position)
		assert.Equal(t, domain.VerificationValid, params.Verified)
		assert.Equal(t, []string{"csv"}, params.Sources)
	})

	t.Run("unknown verification is upgraded", func(t *testing.T) {
		result := &Result{Verification: domain.VerificationInvalid}

		params := domain.IngestParams{Email: "x@y.co", Verified: domain.VerificationUnknown}
		result.Merge(&params)

		assert.Equal(t, domain.VerificationInvalid, params.Verified)
	})

	t.Run("caller verification is kept", func(t *testing.T) {
		result := &Result{Verification: domain.VerificationInvalid}

		params := domain.IngestParams{Email: "x@y.co", Verified: domain.VerificationValid}
		result.Merge(&params)

		assert.Equal(t, domain.VerificationValid, params.Verified)
	})

	t.Run("nil result is a no-op", func(t *testing.T) {
		var result *Result

		params := domain.IngestParams{Email: "x@y.co"}
		result.Merge(&params)

		assert.Equal(t, domain.IngestParams{Email: "x@y.co"}, params)
	})

	t.Run("sources copied when the caller has none", func(t *testing.T) {
		result := &Result{Sources: []string{"hunter.io"}}

		params := domain.IngestParams{Email: "x@y.co"}
		result.Merge(&params)

		assert.Equal(t, []string{"hunter.io"}, params.Sources)
	})
}
