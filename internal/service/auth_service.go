package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fjod/bookstore/internal/cache"
	"github.com/fjod/bookstore/internal/domain"
	"github.com/fjod/bookstore/internal/metrics"
	"github.com/fjod/bookstore/pkg/logger"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

const tokenIssuer = "bookstore"

type RegisterInput struct {
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name"  validate:"required,max=100"`
	Address   string `json:"address"    validate:"required,max=255"`
	City      string `json:"city"       validate:"required,max=100"`
	Zip       string `json:"zip"        validate:"required,numeric,max=9"`
	Phone     string `json:"phone"      validate:"required,max=30"`
	Email     string `json:"email"      validate:"required,email,max=255"`
	Password  string `json:"password"   validate:"required,min=6,max=72"`
}

func (in *RegisterInput) normalize() {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Address = strings.TrimSpace(in.Address)
	in.City = strings.TrimSpace(in.City)
	in.Zip = strings.TrimSpace(in.Zip)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Email = normalizeEmail(in.Email)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidationError lists the offending fields of a rejected request.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		names = append(names, f)
	}
	return "invalid fields: " + strings.Join(names, ", ")
}

func (e *ValidationError) Unwrap() error {
	return domain.ErrInvalidInput
}

type tokenClaims struct {
	jwt.RegisteredClaims
}

type AuthService struct {
	members  MemberStore
	denylist cache.TokenDenylist
	secret   []byte
	ttl      time.Duration
	validate *validator.Validate
	log      zerolog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewAuthService(members MemberStore, denylist cache.TokenDenylist, secret string, ttl time.Duration, log zerolog.Logger, m *metrics.Metrics) *AuthService {
	return &AuthService{
		members:  members,
		denylist: denylist,
		secret:   []byte(secret),
		ttl:      ttl,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		log:      log,
		metrics:  m,
		now:      time.Now,
	}
}

// Register creates a member account. A taken email fails with
// domain.ErrConstraintViolation.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.Member, error) {
	in.normalize()
	if err := s.validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				fields[jsonFieldName(fe.Field())] = fe.Tag()
			}
			return nil, &ValidationError{Fields: fields}
		}
		return nil, fmt.Errorf("validate registration: %w", domain.ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	m := &domain.Member{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Address:      in.Address,
		City:         in.City,
		Zip:          in.Zip,
		Phone:        in.Phone,
		Email:        in.Email,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC().Truncate(time.Microsecond),
	}
	if err := s.members.CreateMember(ctx, m); err != nil {
		if errors.Is(err, domain.ErrConstraintViolation) {
			return nil, fmt.Errorf("email already registered: %w", err)
		}
		storeFailed(ctx, s.log, s.metrics, "create_member", err)
		return nil, err
	}

	logger.WithTrace(ctx, s.log).Info().Int64("user_id", m.UserID).Msg("member registered")
	return m, nil
}

var registerFieldNames = map[string]string{
	"FirstName": "first_name",
	"LastName":  "last_name",
	"Address":   "address",
	"City":      "city",
	"Zip":       "zip",
	"Phone":     "phone",
	"Email":     "email",
	"Password":  "password",
}

func jsonFieldName(field string) string {
	if n, ok := registerFieldNames[field]; ok {
		return n
	}
	return strings.ToLower(field)
}

// Login checks the credentials and issues a signed token. Unknown email and
// wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.Member, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return "", nil, fmt.Errorf("email and password are required: %w", domain.ErrInvalidInput)
	}

	m, err := s.members.GetMemberByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return "", nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		storeFailed(ctx, s.log, s.metrics, "get_member", err)
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(m.PasswordHash), []byte(password)); err != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.issueToken(m.UserID)
	if err != nil {
		return "", nil, err
	}
	return token, m, nil
}

func (s *AuthService) issueToken(userID int64) (string, error) {
	now := s.now()
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(userID, 10),
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (s *AuthService) parse(token string) (*tokenClaims, error) {
	claims := &tokenClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}
	return claims, nil
}

// Authenticate resolves a bearer token to the caller's identity. Expired,
// tampered and revoked tokens all fail with domain.ErrUnauthenticated.
func (s *AuthService) Authenticate(ctx context.Context, token string) (domain.Identity, error) {
	claims, err := s.parse(token)
	if err != nil {
		return domain.Identity{}, err
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return domain.Identity{}, fmt.Errorf("bad token subject: %w", domain.ErrUnauthenticated)
	}

	if s.denylist != nil {
		revoked, err := s.denylist.IsRevoked(ctx, claims.ID)
		if err != nil {
			logger.WithTrace(ctx, s.log).Error().Err(err).Msg("token denylist lookup failed")
			return domain.Identity{}, fmt.Errorf("token denylist: %w", domain.ErrStoreUnavailable)
		}
		if revoked {
			return domain.Identity{}, fmt.Errorf("token revoked: %w", domain.ErrUnauthenticated)
		}
	}

	return domain.Identity{UserID: userID, Token: token}, nil
}

// Logout revokes the token for the rest of its lifetime.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	claims, err := s.parse(token)
	if err != nil {
		return err
	}
	if s.denylist == nil {
		return nil
	}

	ttl := claims.ExpiresAt.Time.Sub(s.now())
	if err := s.denylist.Revoke(ctx, claims.ID, ttl); err != nil {
		logger.WithTrace(ctx, s.log).Error().Err(err).Msg("token revoke failed")
		return fmt.Errorf("revoke token: %w", domain.ErrStoreUnavailable)
	}
	return nil
}

// Profile returns the member record used as the shipping snapshot.
func (s *AuthService) Profile(ctx context.Context, userID int64) (*domain.Member, error) {
	m, err := s.members.GetMember(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("member %d: %w", userID, domain.ErrUnauthenticated)
	}
	if err != nil {
		storeFailed(ctx, s.log, s.metrics, "get_member", err)
		return nil, err
	}
	return m, nil
}
