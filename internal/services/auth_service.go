package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/estatehub/marketplace-backend/internal/config"
	"github.com/estatehub/marketplace-backend/internal/database"
	"github.com/estatehub/marketplace-backend/internal/models"
	"github.com/estatehub/marketplace-backend/internal/realtime"
	"github.com/estatehub/marketplace-backend/pkg/jwt"
	"github.com/estatehub/marketplace-backend/pkg/validator"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrEmailTaken          = errors.New("email is already registered")
	ErrAccountSuspended    = errors.New("account is suspended")
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")
	ErrNotFound            = errors.New("not found")
)

// AuthService handles sign-up, sign-in and token rotation for every role
type AuthService struct {
	accounts       *database.AccountRepository
	providers      *database.ProviderRepository
	tokens         *database.RefreshTokenRepository
	jwtService     *jwt.Service
	notifications  *NotificationService
	publisher      realtime.Publisher
	bcryptCost     int
	requireConfirm bool
	profileTimeout time.Duration
	limiter        *RateLimitService
	confirmations  *ConfirmationService
	mailer         Mailer
	logger         *logrus.Logger
}

// NewAuthService creates a new auth service. publisher may be nil.
func NewAuthService(
	accounts *database.AccountRepository,
	providers *database.ProviderRepository,
	tokens *database.RefreshTokenRepository,
	jwtService *jwt.Service,
	notifications *NotificationService,
	publisher realtime.Publisher,
	cfg config.SecurityConfig,
	logger *logrus.Logger,
) *AuthService {
	cost := cfg.BcryptCost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	timeout := cfg.ProfileFetchTimeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &AuthService{
		accounts:       accounts,
		providers:      providers,
		tokens:         tokens,
		jwtService:     jwtService,
		notifications:  notifications,
		publisher:      publisher,
		bcryptCost:     cost,
		requireConfirm: cfg.RequireEmailConfirmation,
		profileTimeout: timeout,
		logger:         logger,
	}
}

// WithRateLimiter throttles sign-in attempts per email and per IP
func (s *AuthService) WithRateLimiter(limiter *RateLimitService) *AuthService {
	s.limiter = limiter
	return s
}

// WithConfirmations e-mails confirmation codes to accounts that start
// email_unconfirmed. mailer may be nil, in which case codes are only logged
// at debug level.
func (s *AuthService) WithConfirmations(confirmations *ConfirmationService, mailer Mailer) *AuthService {
	s.confirmations = confirmations
	s.mailer = mailer
	return s
}

// SignUp registers an account. Providers start pending until an admin approves them.
func (s *AuthService) SignUp(ctx context.Context, req models.SignUpRequest, client Actor) (*models.AuthSession, error) {
	if err := validator.Struct(req); err != nil {
		return nil, err
	}
	email := normalizeEmail(req.Email)

	existing, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account := &models.Account{
		Email:        email,
		PasswordHash: string(hash),
		DisplayName:  strings.TrimSpace(req.DisplayName),
		Role:         req.Role,
		Status:       s.initialStatus(req.Role),
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, err
	}

	if req.Role == models.RoleProvider {
		if err := s.createProvider(ctx, account, req); err != nil {
			return nil, err
		}
	}

	s.logger.WithFields(logrus.Fields{"account_id": account.ID, "role": account.Role}).Info("Account registered")
	if account.Status == models.AccountEmailUnconfirmed {
		if err := s.sendConfirmation(ctx, account, client); err != nil {
			s.logger.WithError(err).WithField("account_id", account.ID).Warn("Failed to send confirmation code")
		}
	}
	return s.issueSession(ctx, account, client)
}

// ConfirmEmail redeems a confirmation code. Users become approved and
// providers move on to pending admin review.
func (s *AuthService) ConfirmEmail(ctx context.Context, req models.ConfirmEmailRequest) (*models.Account, error) {
	if err := validator.Struct(req); err != nil {
		return nil, err
	}
	if s.confirmations == nil {
		return nil, ErrInvalidState
	}

	account, err := s.accounts.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrNoCodeFound
	}
	if account.Status != models.AccountEmailUnconfirmed {
		return nil, ErrInvalidState
	}
	if err := s.confirmations.Verify(ctx, account.ID, req.Code); err != nil {
		return nil, err
	}

	next := models.AccountApproved
	if account.Role == models.RoleProvider {
		next = models.AccountPending
	}
	if err := s.accounts.ConfirmEmail(ctx, account.ID, next); err != nil {
		return nil, err
	}
	account.Status = next

	s.logger.WithFields(logrus.Fields{"account_id": account.ID, "status": next}).Info("Email confirmed")
	return account, nil
}

// ResendConfirmation issues a new code. Unknown or already confirmed
// addresses succeed silently.
func (s *AuthService) ResendConfirmation(ctx context.Context, req models.ResendConfirmationRequest, client Actor) error {
	if err := validator.Struct(req); err != nil {
		return err
	}
	if s.confirmations == nil {
		return ErrInvalidState
	}

	email := normalizeEmail(req.Email)
	if s.limiter != nil {
		attempt := map[string]string{"email": email, "ip": client.IPAddress}
		if err := s.limiter.Check(ctx, RateActionConfirmation, attempt); err != nil {
			return err
		}
		if err := s.limiter.Record(ctx, RateActionConfirmation, attempt); err != nil {
			s.logger.WithError(err).Warn("Failed to record confirmation resend")
		}
	}

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if account == nil || account.Status != models.AccountEmailUnconfirmed {
		return nil
	}
	return s.sendConfirmation(ctx, account, client)
}

func (s *AuthService) sendConfirmation(ctx context.Context, account *models.Account, client Actor) error {
	if s.confirmations == nil {
		return nil
	}
	code, err := s.confirmations.Issue(ctx, account.ID, client)
	if err != nil {
		return err
	}
	if s.mailer == nil {
		s.logger.WithField("account_id", account.ID).Debugf("Confirmation code %s (no mailer configured)", code)
		return nil
	}
	body := fmt.Sprintf("Your EstateHub confirmation code is %s. It expires in %d minutes.", code, int(ConfirmationExpiry.Minutes()))
	return s.mailer.Send(ctx, account.Email, account.DisplayName, "Confirm your e-mail address", body)
}

func (s *AuthService) initialStatus(role models.AccountRole) models.AccountStatus {
	if s.requireConfirm {
		return models.AccountEmailUnconfirmed
	}
	if role == models.RoleProvider {
		return models.AccountPending
	}
	return models.AccountApproved
}

func (s *AuthService) createProvider(ctx context.Context, account *models.Account, req models.SignUpRequest) error {
	businessEmail := req.BusinessEmail
	if businessEmail == "" {
		businessEmail = account.Email
	}
	provider := &models.Provider{
		AccountID:     account.ID,
		BusinessName:  strings.TrimSpace(req.BusinessName),
		BusinessEmail: normalizeEmail(businessEmail),
		BusinessPhone: models.StringPtr(req.BusinessPhone),
		City:          models.StringPtr(strings.TrimSpace(req.City)),
	}
	if req.BusinessPhone != "" {
		if normalized, err := validator.ValidatePhone(req.BusinessPhone); err == nil {
			provider.BusinessPhone = &normalized
		}
	}
	if err := s.providers.Create(ctx, provider); err != nil {
		s.logger.WithError(err).WithField("account_id", account.ID).Error("Provider profile creation failed after account insert")
		return err
	}

	err := s.notifications.NotifyAdmins(ctx, AdminNotice{
		Type:       models.NotificationNewRegistration,
		Title:      "New provider registration",
		Message:    fmt.Sprintf("%s (%s) is waiting for approval.", provider.BusinessName, account.Email),
		Severity:   models.SeverityInfo,
		TargetType: models.TargetProvider,
		TargetID:   provider.ID,
	})
	if err != nil {
		s.logger.WithError(err).Warn("Failed to notify admins of provider registration")
		return nil
	}
	publishChange(ctx, s.publisher, realtime.ChannelSystemNotifications, provider.ID, s.logger.WithField("account_id", account.ID))
	return nil
}

// SignIn checks the password and issues a session. Suspended and deleted accounts cannot sign in.
func (s *AuthService) SignIn(ctx context.Context, req models.SignInRequest, client Actor) (*models.AuthSession, error) {
	if err := validator.Struct(req); err != nil {
		return nil, err
	}

	email := normalizeEmail(req.Email)
	attempt := map[string]string{"email": email, "ip": client.IPAddress}
	if s.limiter != nil {
		if err := s.limiter.Check(ctx, RateActionSignIn, attempt); err != nil {
			return nil, err
		}
	}

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if account == nil || bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)) != nil {
		s.recordFailedSignIn(ctx, attempt)
		return nil, ErrInvalidCredentials
	}
	if account.Status == models.AccountSuspended {
		return nil, ErrAccountSuspended
	}

	if err := s.accounts.RecordLogin(ctx, account.ID); err != nil {
		s.logger.WithError(err).WithField("account_id", account.ID).Warn("Failed to record login")
	}
	if s.limiter != nil {
		if err := s.limiter.Reset(ctx, RateActionSignIn, email, "email"); err != nil {
			s.logger.WithError(err).Warn("Failed to reset sign-in attempts")
		}
	}

	return s.issueSession(ctx, account, client)
}

func (s *AuthService) recordFailedSignIn(ctx context.Context, attempt map[string]string) {
	if s.limiter == nil {
		return
	}
	if err := s.limiter.Record(ctx, RateActionSignIn, attempt); err != nil {
		s.logger.WithError(err).Warn("Failed to record sign-in attempt")
	}
}

// Refresh rotates a refresh token: the old one is revoked and a new pair issued
func (s *AuthService) Refresh(ctx context.Context, refreshToken string, client Actor) (*models.AuthSession, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	usable, err := s.tokens.IsUsable(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if !usable {
		return nil, ErrInvalidRefreshToken
	}

	account, err := s.accounts.GetByID(ctx, claims.AccountID)
	if err != nil {
		return nil, err
	}
	if account == nil || account.IsDeleted() {
		return nil, ErrInvalidRefreshToken
	}
	if account.Status == models.AccountSuspended {
		return nil, ErrAccountSuspended
	}

	if err := s.tokens.Revoke(ctx, refreshToken); err != nil {
		return nil, err
	}
	return s.issueSession(ctx, account, client)
}

// SignOut revokes one refresh token. Unknown tokens are ignored.
func (s *AuthService) SignOut(ctx context.Context, refreshToken string) error {
	return s.tokens.Revoke(ctx, refreshToken)
}

// SignOutEverywhere revokes every refresh token of an account
func (s *AuthService) SignOutEverywhere(ctx context.Context, accountID uuid.UUID) error {
	return s.tokens.RevokeAll(ctx, accountID)
}

// CurrentProfile loads the account behind a token. The lookup is bounded by
// the profile timeout; on timeout or failure the token's own metadata is
// returned. A deleted account is ErrNotFound.
func (s *AuthService) CurrentProfile(ctx context.Context, identity jwt.Identity) (models.Profile, error) {
	lookupCtx, cancel := context.WithTimeout(ctx, s.profileTimeout)
	defer cancel()

	profile, err := s.loadProfile(lookupCtx, identity.AccountID)
	switch {
	case err == nil:
		return profile, nil
	case errors.Is(err, ErrNotFound):
		return models.Profile{}, ErrNotFound
	default:
		s.logger.WithError(err).WithField("account_id", identity.AccountID).Warn("Profile lookup failed, using token metadata")
		return profileFromToken(identity), nil
	}
}

func (s *AuthService) loadProfile(ctx context.Context, accountID uuid.UUID) (models.Profile, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return models.Profile{}, err
	}
	if account == nil || account.IsDeleted() {
		return models.Profile{}, fmt.Errorf("account %s: %w", accountID, ErrNotFound)
	}

	profile := models.Profile{
		ID:          account.ID,
		Email:       account.Email,
		DisplayName: account.DisplayName,
		Role:        account.Role,
		Status:      account.Status,
		LastLoginAt: account.LastLoginAt,
		Source:      "profile",
	}
	if account.Role == models.RoleProvider {
		provider, err := s.providers.GetByAccountID(ctx, account.ID)
		if err != nil {
			return models.Profile{}, err
		}
		profile.Provider = provider
	}
	return profile, nil
}

func profileFromToken(identity jwt.Identity) models.Profile {
	return models.Profile{
		ID:          identity.AccountID,
		Email:       identity.Email,
		DisplayName: identity.DisplayName,
		Role:        models.AccountRole(identity.Role),
		Status:      models.AccountStatus(identity.Status),
		Source:      "token",
	}
}

func (s *AuthService) issueSession(ctx context.Context, account *models.Account, client Actor) (*models.AuthSession, error) {
	accessToken, err := s.jwtService.GenerateAccessToken(jwt.Identity{
		AccountID:   account.ID,
		Email:       account.Email,
		DisplayName: account.DisplayName,
		Role:        string(account.Role),
		Status:      string(account.Status),
	})
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.jwtService.GenerateRefreshToken(account.ID, account.Email)
	if err != nil {
		return nil, err
	}

	expiresAt := time.Now().Add(s.jwtService.RefreshTokenExpiry())
	if err := s.tokens.Store(ctx, account.ID, refreshToken, client.IPAddress, client.UserAgent, expiresAt); err != nil {
		return nil, err
	}

	return &models.AuthSession{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.jwtService.AccessTokenExpiry().Seconds()),
		Account:      account,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
