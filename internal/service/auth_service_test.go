package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fjod/bookstore/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func validRegistration() RegisterInput {
	return RegisterInput{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Address:   "12 Analytical Way",
		City:      "London",
		Zip:       "10001",
		Phone:     "555-0100",
		Email:     "Ada@Example.com ",
		Password:  "difference-engine",
	}
}

func newAuthService() (*AuthService, *MockMemberStore, *MockDenylist) {
	members := NewMockMemberStore()
	deny := &MockDenylist{}
	return NewAuthService(members, deny, testSecret, time.Hour, zerolog.Nop(), nil), members, deny
}

func TestRegister_Success(t *testing.T) {
	svc, members, _ := newAuthService()

	m, err := svc.Register(context.Background(), validRegistration())

	require.NoError(t, err)
	assert.Positive(t, m.UserID)
	assert.Equal(t, "ada@example.com", m.Email)
	assert.NotEqual(t, "difference-engine", m.PasswordHash)

	stored, err := members.GetMemberByEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, m.UserID, stored.UserID)
}

func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RegisterInput)
		field  string
	}{
		{"missing first name", func(in *RegisterInput) { in.FirstName = " " }, "first_name"},
		{"bad email", func(in *RegisterInput) { in.Email = "not-an-email" }, "email"},
		{"zip not numeric", func(in *RegisterInput) { in.Zip = "12a45" }, "zip"},
		{"zip too long", func(in *RegisterInput) { in.Zip = "1234567890" }, "zip"},
		{"short password", func(in *RegisterInput) { in.Password = "abc" }, "password"},
		{"missing phone", func(in *RegisterInput) { in.Phone = "" }, "phone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newAuthService()
			in := validRegistration()
			tt.mutate(&in)

			_, err := svc.Register(context.Background(), in)

			require.ErrorIs(t, err, domain.ErrInvalidInput)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Contains(t, verr.Fields, tt.field)
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _, _ := newAuthService()

	_, err := svc.Register(context.Background(), validRegistration())
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), validRegistration())
	assert.ErrorIs(t, err, domain.ErrConstraintViolation)
	assert.ErrorContains(t, err, "already registered")
}

func TestLogin(t *testing.T) {
	svc, _, _ := newAuthService()
	_, err := svc.Register(context.Background(), validRegistration())
	require.NoError(t, err)

	token, m, err := svc.Login(context.Background(), "ADA@example.com", "difference-engine")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "Ada", m.FirstName)

	id, err := svc.Authenticate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, m.UserID, id.UserID)
	assert.True(t, id.IsAuthenticated())
}

func TestLogin_BadCredentialsLookTheSame(t *testing.T) {
	svc, _, _ := newAuthService()
	_, err := svc.Register(context.Background(), validRegistration())
	require.NoError(t, err)

	_, _, errWrongPass := svc.Login(context.Background(), "ada@example.com", "wrong")
	_, _, errUnknown := svc.Login(context.Background(), "nobody@example.com", "wrong")

	assert.ErrorIs(t, errWrongPass, domain.ErrInvalidCredentials)
	assert.ErrorIs(t, errUnknown, domain.ErrInvalidCredentials)
	assert.Equal(t, errWrongPass.Error(), errUnknown.Error())
}

func TestLogin_MissingFields(t *testing.T) {
	svc, _, _ := newAuthService()

	_, _, err := svc.Login(context.Background(), "", "x")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAuthenticate_RejectsBadTokens(t *testing.T) {
	svc, _, _ := newAuthService()

	expired, err := NewAuthService(NewMockMemberStore(), nil, testSecret, -time.Minute, zerolog.Nop(), nil).issueToken(7)
	require.NoError(t, err)
	forged, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "7",
		Issuer:    tokenIssuer,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("other-secret"))

	for name, token := range map[string]string{
		"garbage": "not.a.token",
		"empty":   "",
		"expired": expired,
		"forged":  forged,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Authenticate(context.Background(), token)
			assert.ErrorIs(t, err, domain.ErrUnauthenticated)
		})
	}
}

func TestLogout_RevokesToken(t *testing.T) {
	svc, _, deny := newAuthService()
	_, err := svc.Register(context.Background(), validRegistration())
	require.NoError(t, err)
	token, _, err := svc.Login(context.Background(), "ada@example.com", "difference-engine")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), token))

	_, err = svc.Authenticate(context.Background(), token)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	require.Len(t, deny.revoked, 1)
	for _, ttl := range deny.revoked {
		assert.InDelta(t, time.Hour.Seconds(), ttl.Seconds(), 5)
	}
}

func TestAuthenticate_DenylistDown(t *testing.T) {
	svc, _, deny := newAuthService()
	token, err := svc.issueToken(7)
	require.NoError(t, err)
	deny.Err = errors.New("redis down")

	_, err = svc.Authenticate(context.Background(), token)

	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestProfile(t *testing.T) {
	svc, _, _ := newAuthService()
	m, err := svc.Register(context.Background(), validRegistration())
	require.NoError(t, err)

	p, err := svc.Profile(context.Background(), m.UserID)
	require.NoError(t, err)
	assert.Equal(t, "London", p.ShippingAddress().City)

	_, err = svc.Profile(context.Background(), 999)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}
