package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jrsteele09/smartbill-auth/cache"
	"github.com/jrsteele09/smartbill-auth/identity"
	"github.com/jrsteele09/smartbill-auth/internal/errors"
	"github.com/jrsteele09/smartbill-auth/token"
	"github.com/jrsteele09/smartbill-auth/token/refresh"
	"github.com/jrsteele09/smartbill-auth/users"
	"github.com/rs/zerolog"
)

const defaultAuthCodeTimeout = 10 * time.Minute

// Repos holds all repository dependencies for the AuthorizationService
type Repos struct {
	Users         users.UserRepo  // User records keyed by provider subject
	RefreshTokens refresh.Repo    // Refresh token records (hashes only)
	Marks         cache.MarkStore // Redeemed authorization codes and revoked access tokens
}

// AuthorizationService exchanges provider authorization codes for first-party
// sessions and keeps those sessions alive through refresh token rotation.
type AuthorizationService struct {
	repos           Repos
	provider        identity.Provider
	issuer          *token.Issuer
	refreshTokens   *refresh.Manager
	revoked         token.RevokedTokenCache
	redirectURI     string
	authCodeTimeout time.Duration
	logger          zerolog.Logger
	nowTime         func() time.Time
}

// AuthorizationServiceOption defines a function type to modify the AuthorizationService instance.
type AuthorizationServiceOption func(*AuthorizationService)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) AuthorizationServiceOption {
	return func(as *AuthorizationService) {
		as.nowTime = nowFunc
	}
}

// WithRedirectURI restricts exchanges to the given redirect URI. It is also used
// when a request omits redirect_uri.
func WithRedirectURI(redirectURI string) AuthorizationServiceOption {
	return func(as *AuthorizationService) {
		as.redirectURI = redirectURI
	}
}

// WithAuthCodeTimeout sets how long a redeemed code is remembered
func WithAuthCodeTimeout(d time.Duration) AuthorizationServiceOption {
	return func(as *AuthorizationService) {
		as.authCodeTimeout = d
	}
}

func WithLogger(logger zerolog.Logger) AuthorizationServiceOption {
	return func(as *AuthorizationService) {
		as.logger = logger
	}
}

// NewAuthorizationService initializes a new AuthorizationService with required dependencies.
func NewAuthorizationService(
	repos Repos,
	provider identity.Provider,
	issuer *token.Issuer,
	options ...AuthorizationServiceOption,
) (*AuthorizationService, error) {
	if repos.Users == nil {
		return nil, errors.New("[NewAuthorizationService] Users repo is required")
	}
	if repos.RefreshTokens == nil {
		return nil, errors.New("[NewAuthorizationService] RefreshTokens repo is required")
	}
	if repos.Marks == nil {
		return nil, errors.New("[NewAuthorizationService] Marks store is required")
	}
	if provider == nil {
		return nil, errors.New("[NewAuthorizationService] identity provider is required")
	}
	if issuer == nil {
		return nil, errors.New("[NewAuthorizationService] token issuer is required")
	}

	as := &AuthorizationService{
		repos:           repos,
		provider:        provider,
		issuer:          issuer,
		refreshTokens:   refresh.NewManager(repos.RefreshTokens),
		authCodeTimeout: defaultAuthCodeTimeout,
		logger:          zerolog.Nop(),
		nowTime:         time.Now,
	}

	for _, opt := range options {
		opt(as)
	}

	as.revoked = token.NewRevokedTokenCache(repos.Marks, as.nowTime)
	return as, nil
}

// ExchangeCode redeems an authorization code and starts a new session.
//
// The code is claimed before the provider is contacted, so presenting the same
// code twice fails with errors.ErrCodeAlreadyUsed even while the first exchange is
// still in flight.
func (as *AuthorizationService) ExchangeCode(ctx context.Context, req ExchangeRequest) (*Session, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	redirectURI := strings.TrimSpace(req.RedirectURI)
	if redirectURI == "" {
		redirectURI = as.redirectURI
	}
	if redirectURI == "" {
		return nil, fmt.Errorf("%w: redirect_uri is required", errors.ErrInvalidRequest)
	}
	if as.redirectURI != "" && redirectURI != as.redirectURI {
		return nil, fmt.Errorf("%w: redirect_uri does not match", errors.ErrInvalidRequest)
	}

	first, err := as.repos.Marks.Mark(ctx, codeKey(req.Code), as.authCodeTimeout)
	if err != nil {
		return nil, fmt.Errorf("[AuthorizationService ExchangeCode] claim code: %w", err)
	}
	if !first {
		as.logger.Warn().Msg("authorization code presented twice")
		return nil, errors.ErrCodeAlreadyUsed
	}

	profile, err := as.provider.Exchange(ctx, req.Code, req.Verifier, redirectURI)
	if err != nil {
		return nil, fmt.Errorf("[AuthorizationService ExchangeCode] %w", err)
	}

	user, err := as.upsertUser(ctx, profile)
	if err != nil {
		return nil, err
	}

	session, err := as.newSession(ctx, user)
	if err != nil {
		return nil, err
	}

	as.logger.Info().Str("user_id", user.ID).Msg("user logged in")
	return session, nil
}

// Refresh exchanges a refresh token for a new access token and a rotated refresh
// token in the same family. Any failure wraps errors.ErrRefreshExpiredOrInvalid
// unless storage itself failed.
func (as *AuthorizationService) Refresh(ctx context.Context, rawRefreshToken string) (*Session, error) {
	claims, err := as.issuer.ParseRefreshToken(rawRefreshToken)
	if err != nil {
		return nil, err
	}

	current, err := as.refreshTokens.Validate(ctx, claims.ID, rawRefreshToken)
	if err != nil {
		if errors.Is(err, errors.ErrRefreshExpiredOrInvalid) {
			as.logger.Info().Str("family_id", claims.FamilyID).Err(err).Msg("refresh rejected")
		}
		return nil, err
	}
	if current.UserID != claims.Subject || current.FamilyID != claims.FamilyID {
		return nil, errors.Wrapf(errors.ErrRefreshExpiredOrInvalid, "[AuthorizationService Refresh] claims do not match record")
	}

	user, err := as.repos.Users.GetByID(ctx, current.UserID)
	if err != nil {
		if errors.Is(err, errors.ErrUserNotFound) {
			return nil, errors.Wrapf(errors.ErrRefreshExpiredOrInvalid, "[AuthorizationService Refresh] user %s", current.UserID)
		}
		return nil, fmt.Errorf("[AuthorizationService Refresh] %w", err)
	}

	rawRefresh, refreshClaims, err := as.issuer.CreateRefreshToken(user.ID, current.FamilyID)
	if err != nil {
		return nil, fmt.Errorf("[AuthorizationService Refresh] %w", err)
	}
	if err := as.refreshTokens.Rotate(ctx, current, issuedFrom(rawRefresh, refreshClaims)); err != nil {
		return nil, err
	}

	rawAccess, _, err := as.issuer.CreateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("[AuthorizationService Refresh] %w", err)
	}

	return &Session{
		User:             user,
		AccessToken:      rawAccess,
		RefreshToken:     rawRefresh,
		ExpiresIn:        as.issuer.AccessTokenExpiry(),
		RefreshExpiresIn: as.issuer.RefreshTokenExpiry(),
		TokenType:        TokenType,
	}, nil
}

// Logout revokes the refresh token family and the access token. Either token may be
// empty or already invalid; only storage failures are returned.
func (as *AuthorizationService) Logout(ctx context.Context, rawRefreshToken, rawAccessToken string) error {
	if rawRefreshToken != "" {
		if claims, err := as.issuer.ParseRefreshToken(rawRefreshToken); err == nil {
			if err := as.refreshTokens.RevokeFamily(ctx, claims.FamilyID); err != nil {
				return fmt.Errorf("[AuthorizationService Logout] %w", err)
			}
		}
	}

	if rawAccessToken != "" {
		if claims, err := as.issuer.ParseAccessToken(rawAccessToken); err == nil {
			if err := as.revoked.Add(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
				return fmt.Errorf("[AuthorizationService Logout] %w", err)
			}
		}
	}
	return nil
}

// Authenticate verifies an access token for a protected request
func (as *AuthorizationService) Authenticate(ctx context.Context, rawAccessToken string) (*token.AccessClaims, error) {
	claims, err := as.issuer.ParseAccessToken(rawAccessToken)
	if err != nil {
		return nil, err
	}

	revoked, err := as.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("[AuthorizationService Authenticate] %w", err)
	}
	if revoked {
		return nil, fmt.Errorf("%w: %w", errors.ErrInvalidToken, errors.ErrTokenRevoked)
	}
	return claims, nil
}

// Me returns the current user record
func (as *AuthorizationService) Me(ctx context.Context, userID string) (*users.User, error) {
	user, err := as.repos.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("[AuthorizationService Me] %w", err)
	}
	return user, nil
}

// ChangeRole sets the user's role. Only the canonical role names are accepted.
func (as *AuthorizationService) ChangeRole(ctx context.Context, userID, role string) (*users.User, error) {
	parsed, err := users.ParseRole(role)
	if err != nil {
		return nil, err
	}
	if err := as.repos.Users.SetRole(ctx, userID, parsed); err != nil {
		return nil, fmt.Errorf("[AuthorizationService ChangeRole] %w", err)
	}
	return as.Me(ctx, userID)
}

// SetCompany links the user to a company record
func (as *AuthorizationService) SetCompany(ctx context.Context, userID, companyID string) (*users.User, error) {
	companyID = strings.TrimSpace(companyID)
	if companyID == "" {
		return nil, fmt.Errorf("%w: companyId is required", errors.ErrInvalidRequest)
	}
	if err := as.repos.Users.SetCompany(ctx, userID, companyID); err != nil {
		return nil, fmt.Errorf("[AuthorizationService SetCompany] %w", err)
	}
	return as.Me(ctx, userID)
}

// CleanupExpired removes expired refresh token records
func (as *AuthorizationService) CleanupExpired(ctx context.Context) (int, error) {
	return as.refreshTokens.Cleanup(ctx)
}

// AccessTokenExpiry is exposed for cookie lifetimes
func (as *AuthorizationService) AccessTokenExpiry() time.Duration {
	return as.issuer.AccessTokenExpiry()
}

// RefreshTokenExpiry is exposed for cookie lifetimes
func (as *AuthorizationService) RefreshTokenExpiry() time.Duration {
	return as.issuer.RefreshTokenExpiry()
}

func (as *AuthorizationService) upsertUser(ctx context.Context, profile *identity.Profile) (*users.User, error) {
	now := as.nowTime()

	user, err := as.repos.Users.GetBySubject(ctx, profile.Subject)
	switch {
	case errors.Is(err, errors.ErrUserNotFound):
		user = &users.User{
			Subject:   profile.Subject,
			Email:     profile.Email,
			CreatedAt: now,
		}
	case err != nil:
		return nil, fmt.Errorf("[AuthorizationService upsertUser] %w", err)
	}

	user.Email = profile.Email
	user.ApplyProfile(profile.Name, profile.Picture, profile.EmailVerified, now)
	if err := as.repos.Users.Upsert(ctx, user); err != nil {
		return nil, fmt.Errorf("[AuthorizationService upsertUser] %w", err)
	}
	return user, nil
}

func (as *AuthorizationService) newSession(ctx context.Context, user *users.User) (*Session, error) {
	rawAccess, _, err := as.issuer.CreateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("[AuthorizationService newSession] %w", err)
	}
	rawRefresh, refreshClaims, err := as.issuer.CreateRefreshToken(user.ID, "")
	if err != nil {
		return nil, fmt.Errorf("[AuthorizationService newSession] %w", err)
	}
	if err := as.refreshTokens.Store(ctx, issuedFrom(rawRefresh, refreshClaims)); err != nil {
		return nil, fmt.Errorf("[AuthorizationService newSession] %w", err)
	}

	return &Session{
		User:             user,
		AccessToken:      rawAccess,
		RefreshToken:     rawRefresh,
		ExpiresIn:        as.issuer.AccessTokenExpiry(),
		RefreshExpiresIn: as.issuer.RefreshTokenExpiry(),
		TokenType:        TokenType,
	}, nil
}

func issuedFrom(raw string, claims *token.RefreshClaims) refresh.Issued {
	return refresh.Issued{
		ID:        claims.ID,
		FamilyID:  claims.FamilyID,
		UserID:    claims.Subject,
		Token:     raw,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}
}

func codeKey(code string) string {
	return "code:" + cache.HashToken(code)
}
