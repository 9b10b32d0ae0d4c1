// Package token issues and validates the bearer tokens accepted by the API:
// guardian tokens for the dashboard and device tokens for location ingestion.
package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"roadwatch/internal/platform/middleware"
	id "roadwatch/pkg/domain"
	dErrors "roadwatch/pkg/domain-errors"
)

// Claims carries the roadwatch-specific JWT claims.
type Claims struct {
	GuardianID string `json:"guardian_id"`
	SubjectID  string `json:"subject_id,omitempty"`
	jwt.RegisteredClaims
}

// Service handles JWT creation and validation.
type Service struct {
	signingKey []byte
	issuer     string
}

func NewService(signingKey, issuer string) *Service {
	return &Service{signingKey: []byte(signingKey), issuer: issuer}
}

// GenerateGuardianToken mints a dashboard token for a guardian account.
func (s *Service) GenerateGuardianToken(guardianID id.GuardianID, expiresIn time.Duration) (string, error) {
	return s.sign(Claims{
		GuardianID: guardianID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    s.issuer,
			Audience:  []string{middleware.AudienceGuardian},
			ID:        uuid.NewString(),
		},
	})
}

// GenerateDeviceToken mints an ingestion token bound to one subject.
func (s *Service) GenerateDeviceToken(guardianID id.GuardianID, subjectID id.SubjectID, expiresIn time.Duration) (string, error) {
	return s.sign(Claims{
		GuardianID: guardianID.String(),
		SubjectID:  subjectID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    s.issuer,
			Audience:  []string{middleware.AudienceDevice},
			ID:        uuid.NewString(),
		},
	})
}

func (s *Service) sign(claims Claims) (string, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		return "", dErrors.Wrap(dErrors.CodeInternal, "failed to sign token", err)
	}
	return signed, nil
}

// ValidateToken parses and verifies a token, returning middleware claims.
func (s *Service) ValidateToken(tokenString string) (*middleware.TokenClaims, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "unexpected signing method")
		}
		return s.signingKey, nil
	}, jwt.WithIssuer(s.issuer))
	if err != nil || !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid or expired token")
	}

	guardianID, err := id.ParseGuardianID(claims.GuardianID)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "malformed token claims")
	}
	out := &middleware.TokenClaims{GuardianID: guardianID}
	if claims.SubjectID != "" {
		subjectID, err := id.ParseSubjectID(claims.SubjectID)
		if err != nil {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "malformed token claims")
		}
		out.SubjectID = subjectID
	}
	if aud, _ := claims.GetAudience(); len(aud) > 0 {
		out.Audience = aud[0]
	}
	return out, nil
}
