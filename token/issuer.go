package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/smartbill-auth/internal/errors"
	"github.com/jrsteele09/smartbill-auth/internal/ids"
	"github.com/jrsteele09/smartbill-auth/users"
)

const (
	DefaultAccessTokenExpiry  = 15 * time.Minute
	DefaultRefreshTokenExpiry = 7 * 24 * time.Hour
)

// Issuer mints and verifies first-party access and refresh tokens. The two token
// kinds are signed with different keys.
type Issuer struct {
	accessSigner       Signer
	refreshSigner      Signer
	issuer             string
	audience           string
	accessTokenExpiry  time.Duration
	refreshTokenExpiry time.Duration
	nowFunc            func() time.Time
}

type IssuerOption func(*Issuer)

func WithTokenExpiry(accessTokenExpiry, refreshTokenExpiry time.Duration) IssuerOption {
	return func(i *Issuer) {
		i.accessTokenExpiry = accessTokenExpiry
		i.refreshTokenExpiry = refreshTokenExpiry
	}
}

func WithNowFunc(now func() time.Time) IssuerOption {
	return func(i *Issuer) {
		i.nowFunc = now
	}
}

func WithIssuer(issuer string) IssuerOption {
	return func(i *Issuer) {
		i.issuer = issuer
	}
}

func WithAudience(audience string) IssuerOption {
	return func(i *Issuer) {
		i.audience = audience
	}
}

func NewIssuer(accessSigner, refreshSigner Signer, options ...IssuerOption) (*Issuer, error) {
	if accessSigner == nil || refreshSigner == nil {
		return nil, fmt.Errorf("[token NewIssuer] both access and refresh signers are required")
	}
	if accessSigner == refreshSigner {
		return nil, fmt.Errorf("[token NewIssuer] access and refresh signers must differ")
	}

	i := &Issuer{
		accessSigner:  accessSigner,
		refreshSigner: refreshSigner,
	}
	for _, opt := range options {
		opt(i)
	}

	if i.accessTokenExpiry <= 0 {
		i.accessTokenExpiry = DefaultAccessTokenExpiry
	}
	if i.refreshTokenExpiry <= 0 {
		i.refreshTokenExpiry = DefaultRefreshTokenExpiry
	}
	if i.nowFunc == nil {
		i.nowFunc = time.Now
	}
	return i, nil
}

// NewIssuerFromSecrets builds both signers from raw secrets
func NewIssuerFromSecrets(accessSecret, refreshSecret string, options ...IssuerOption) (*Issuer, error) {
	accessSigner, err := NewHMACSigner(accessSecret, PurposeAccess)
	if err != nil {
		return nil, err
	}
	refreshSigner, err := NewHMACSigner(refreshSecret, PurposeRefresh)
	if err != nil {
		return nil, err
	}
	return NewIssuer(accessSigner, refreshSigner, options...)
}

func (i *Issuer) AccessTokenExpiry() time.Duration  { return i.accessTokenExpiry }
func (i *Issuer) RefreshTokenExpiry() time.Duration { return i.refreshTokenExpiry }

// CreateAccessToken mints an access token for user
func (i *Issuer) CreateAccessToken(user *users.User) (string, *AccessClaims, error) {
	if user == nil || user.ID == "" {
		return "", nil, fmt.Errorf("[Issuer CreateAccessToken] user id is required")
	}

	now := i.nowFunc()
	claims := &AccessClaims{
		RegisteredClaims: i.registeredClaims(user.ID, uuid.NewString(), now, i.accessTokenExpiry),
		Email:            user.Email,
		Role:             string(user.Role),
		Type:             TypeAccess,
	}

	signed, err := i.accessSigner.Sign(claims)
	if err != nil {
		return "", nil, fmt.Errorf("[Issuer CreateAccessToken] %w", err)
	}
	return signed, claims, nil
}

// CreateRefreshToken mints a refresh token in familyID. An empty familyID starts a
// new family.
func (i *Issuer) CreateRefreshToken(userID, familyID string) (string, *RefreshClaims, error) {
	if userID == "" {
		return "", nil, fmt.Errorf("[Issuer CreateRefreshToken] user id is required")
	}
	if familyID == "" {
		familyID = ids.New()
	}

	now := i.nowFunc()
	claims := &RefreshClaims{
		RegisteredClaims: i.registeredClaims(userID, ids.New(), now, i.refreshTokenExpiry),
		FamilyID:         familyID,
		Type:             TypeRefresh,
	}

	signed, err := i.refreshSigner.Sign(claims)
	if err != nil {
		return "", nil, fmt.Errorf("[Issuer CreateRefreshToken] %w", err)
	}
	return signed, claims, nil
}

// ParseAccessToken verifies rawToken with the access key. Refresh tokens, expired
// tokens and tokens for another issuer or audience fail with errors.ErrInvalidToken.
func (i *Issuer) ParseAccessToken(rawToken string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := i.parse(rawToken, claims, i.accessSigner); err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidToken, "[Issuer ParseAccessToken] %v", err)
	}
	if claims.Type != TypeAccess {
		return nil, errors.Wrapf(errors.ErrInvalidToken, "[Issuer ParseAccessToken] unexpected token type %q", claims.Type)
	}
	if claims.ID == "" {
		return nil, errors.Wrapf(errors.ErrInvalidToken, "[Issuer ParseAccessToken] missing jti")
	}
	return claims, nil
}

// ParseRefreshToken verifies rawToken with the refresh key. Any failure is reported
// as errors.ErrRefreshExpiredOrInvalid.
func (i *Issuer) ParseRefreshToken(rawToken string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := i.parse(rawToken, claims, i.refreshSigner); err != nil {
		return nil, errors.Wrapf(errors.ErrRefreshExpiredOrInvalid, "[Issuer ParseRefreshToken] %v", err)
	}
	if claims.Type != TypeRefresh {
		return nil, errors.Wrapf(errors.ErrRefreshExpiredOrInvalid, "[Issuer ParseRefreshToken] unexpected token type %q", claims.Type)
	}
	if claims.ID == "" || claims.FamilyID == "" {
		return nil, errors.Wrapf(errors.ErrRefreshExpiredOrInvalid, "[Issuer ParseRefreshToken] missing jti or family")
	}
	return claims, nil
}

func (i *Issuer) parse(rawToken string, claims jwt.Claims, signer Signer) error {
	if rawToken == "" {
		return fmt.Errorf("empty token")
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{signer.GetSigningMethod().Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(i.nowFunc),
	}
	if i.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(i.issuer))
	}
	if i.audience != "" {
		parserOpts = append(parserOpts, jwt.WithAudience(i.audience))
	}

	_, err := jwt.ParseWithClaims(rawToken, claims, signer.GetVerificationKey, parserOpts...)
	return err
}

func (i *Issuer) registeredClaims(subject, id string, now time.Time, ttl time.Duration) jwt.RegisteredClaims {
	rc := jwt.RegisteredClaims{
		Issuer:    i.issuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        id,
	}
	if i.audience != "" {
		rc.Audience = jwt.ClaimStrings{i.audience}
	}
	return rc
}
