package service

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/email-management-platform/backend/gateway/internal/auth/domain"
	apperrors "github.com/email-management-platform/backend/gateway/internal/errors"
)

// tokenClaims is the wire shape parsed out of a bearer token. Roles and
// Permissions are pointers so a token that omits either claim entirely can be
// told apart from one carrying an empty list; only the former is malformed.
type tokenClaims struct {
	jwt.RegisteredClaims
	Roles       *[]string `json:"roles"`
	Permissions *[]string `json:"permissions"`
}

// tokenValidator implements TokenValidator using RS256 signature checks
// against keys from a KeySetProvider.
type tokenValidator struct {
	keys    KeySetProvider
	parser  *jwt.Parser
	timeout time.Duration
}

// NewTokenValidator creates a TokenValidator that accepts RS256 tokens issued
// by issuer for audience. leeway absorbs clock skew between the token issuer
// and the gateway on lifetime checks; timeout bounds a single validation,
// including any signing key fetch it triggers.
func NewTokenValidator(keys KeySetProvider, issuer, audience string, leeway, timeout time.Duration) TokenValidator {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(leeway),
		jwt.WithIssuer(issuer),
		jwt.WithAudience(audience),
	)

	return &tokenValidator{
		keys:    keys,
		parser:  parser,
		timeout: timeout,
	}
}

// Validate checks the raw token shape, signature, issuer, audience, lifetime,
// and required claims, and returns the verified claims.
func (v *tokenValidator) Validate(ctx context.Context, rawToken string) (*domain.Claims, error) {
	// Cheap structural check before any key fetch or signature work.
	if err := domain.ValidateTokenShape(rawToken); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	keyfunc := func(token *jwt.Token) (any, error) {
		keyID, _ := token.Header["kid"].(string)
		return v.keys.SigningKey(ctx, keyID)
	}

	claims := &tokenClaims{}
	if _, err := v.parser.ParseWithClaims(rawToken, claims, keyfunc); err != nil {
		return nil, classifyTokenError(err)
	}

	if claims.Subject == "" {
		return nil, apperrors.Wrap(domain.ErrMalformedToken, "missing subject claim")
	}
	if claims.Roles == nil || claims.Permissions == nil {
		return nil, apperrors.Wrap(domain.ErrMalformedToken, "missing roles or permissions claim")
	}

	verified := &domain.Claims{
		Subject:     claims.Subject,
		Issuer:      claims.Issuer,
		Audience:    []string(claims.Audience),
		Roles:       *claims.Roles,
		Permissions: *claims.Permissions,
	}
	if claims.IssuedAt != nil {
		verified.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		verified.ExpiresAt = claims.ExpiresAt.Time
	}

	return verified, nil
}

// classifyTokenError maps parser failures onto the domain authentication
// errors. Key provider errors already carry a domain error and pass through;
// anything unrecognized is treated as malformed so validation fails closed.
func classifyTokenError(err error) error {
	switch {
	case apperrors.Is(err, apperrors.ErrUnauthorized):
		return err
	case apperrors.Is(err, jwt.ErrTokenExpired):
		return apperrors.Wrap(domain.ErrExpiredToken, err.Error())
	case apperrors.Is(err, jwt.ErrTokenInvalidIssuer):
		return domain.ErrIssuerMismatch
	case apperrors.Is(err, jwt.ErrTokenInvalidAudience):
		return domain.ErrAudienceMismatch
	case apperrors.Is(err, jwt.ErrTokenSignatureInvalid):
		return domain.ErrSignatureInvalid
	default:
		return apperrors.Wrap(domain.ErrMalformedToken, err.Error())
	}
}
