package orchestrator

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"github.com/runforge/arc/internal/models"
)

const runTokenIssuer = "arc-orchestrator"

// RunClaims identifies a run for a client presenting a run_token back to
// the API surface (not part of spec.md's core contract; an ambient
// affordance carried from the teacher's credential package, simplified
// from its EdDSA keypair scheme to HMAC since this module has no
// certificate/keypair infrastructure to issue asymmetric keys from).
type RunClaims struct {
	RunID string `json:"run_id"`
	jwt.RegisteredClaims
}

// issueRunToken signs a short-lived token binding a bearer to this run_id,
// grounded on the teacher's credential.CreateIdentityJWT shape
// (registered claims + subject), minus the asymmetric signing key.
func issueRunToken(signingKey []byte, runID models.RunID) (string, error) {
	if len(signingKey) == 0 {
		return "", nil
	}
	now := time.Now()
	claims := &RunClaims{
		RunID: string(runID),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(24 * time.Hour)),
			Issuer:    runTokenIssuer,
			Subject:   string(runID),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(signingKey)
}
