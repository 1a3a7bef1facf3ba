package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"

	"greenbonds/internal/domain/session"
	"greenbonds/internal/domain/user"
)

type Usecase struct {
	users    user.Repository
	sessions session.Store
	tokens   *TokenIssuer
	validate *validator.Validate
	cost     int
	log      *zap.Logger
	now      func() time.Time
}

type Option func(*Usecase)

// WithBcryptCost lowers the hashing cost, mostly for tests.
func WithBcryptCost(cost int) Option { return func(u *Usecase) { u.cost = cost } }

func NewUsecase(users user.Repository, sessions session.Store, tokens *TokenIssuer, log *zap.Logger, opts ...Option) *Usecase {
	if log == nil {
		log = zap.NewNop()
	}
	u := &Usecase{
		users:    users,
		sessions: sessions,
		tokens:   tokens,
		validate: validator.New(),
		cost:     bcrypt.DefaultCost,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(u)
	}
	return u
}

func checkPassword(p string) error {
	if len(p) < minPasswordLen {
		return invalid(fmt.Sprintf("Password must be at least %d characters long", minPasswordLen))
	}
	return nil
}

func (u *Usecase) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	required := []struct{ name, val string }{
		{"email", in.Email},
		{"password", in.Password},
		{"firstName", in.FirstName},
		{"lastName", in.LastName},
		{"userType", string(in.UserType)},
	}
	for _, f := range required {
		if strings.TrimSpace(f.val) == "" {
			return nil, invalid(f.name + " is required")
		}
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if err := u.validate.Var(email, "email"); err != nil {
		return nil, invalid("Invalid email format")
	}
	if err := checkPassword(in.Password); err != nil {
		return nil, err
	}
	if !in.UserType.Valid() {
		return nil, invalid("Invalid user type")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), u.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	usr := &user.User{
		UserID:       uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		UserType:     in.UserType,
		CompanyName:  strings.TrimSpace(in.CompanyName),
		KYCStatus:    user.KYCPending,
		IsActive:     true,
		Preferences:  datatypes.NewJSONType(user.DefaultPreferences()),
	}
	if err := u.users.Create(ctx, usr); err != nil {
		return nil, err
	}
	u.log.Info("user registered", zap.String("user_id", usr.UserID), zap.String("user_type", string(usr.UserType)))

	tok, err := u.startSession(ctx, usr)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Message: MsgRegistered, AccessToken: tok, User: usr}, nil
}

func (u *Usecase) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	if in.Email == "" || in.Password == "" {
		return nil, invalid("Email and password are required")
	}
	usr, err := u.users.GetByEmail(ctx, in.Email)
	switch {
	case errors.Is(err, user.ErrNotFound):
		return nil, ErrInvalidCredentials
	case err != nil:
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(usr.PasswordHash), []byte(in.Password)) != nil {
		return nil, ErrInvalidCredentials
	}
	if !usr.IsActive {
		return nil, ErrDeactivated
	}

	now := u.now()
	usr.LastLogin = &now
	if err := u.users.Save(ctx, usr); err != nil {
		return nil, err
	}
	tok, err := u.startSession(ctx, usr)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Message: MsgLoggedIn, AccessToken: tok, User: usr}, nil
}

func (u *Usecase) startSession(ctx context.Context, usr *user.User) (string, error) {
	tok, claims, err := u.tokens.Issue(usr)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	if err := u.sessions.Bind(ctx, claims.ID, usr.UserID, u.tokens.TTL()); err != nil {
		return "", fmt.Errorf("bind session: %w", err)
	}
	return tok, nil
}

// Authenticate resolves a bearer token to its user. Revoked tokens are invalid.
func (u *Usecase) Authenticate(ctx context.Context, raw string) (*user.User, *Claims, error) {
	claims, err := u.tokens.Parse(raw)
	if err != nil {
		return nil, nil, err
	}
	userID, err := u.sessions.Resolve(ctx, claims.ID)
	switch {
	case errors.Is(err, session.ErrNotFound):
		return nil, nil, ErrInvalidToken
	case err != nil:
		return nil, nil, err
	}
	if userID != claims.Subject {
		return nil, nil, ErrInvalidToken
	}
	usr, err := u.users.GetByUserID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return usr, claims, nil
}

func (u *Usecase) Logout(ctx context.Context, claims *Claims) error {
	return u.sessions.Revoke(ctx, claims.ID)
}

func (u *Usecase) Profile(ctx context.Context, userID string) (*user.User, error) {
	return u.users.GetByUserID(ctx, userID)
}

func (u *Usecase) UpdateProfile(ctx context.Context, userID string, in ProfileUpdate) (*user.User, error) {
	usr, err := u.users.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if in.FirstName != nil {
		usr.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		usr.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.CompanyName != nil {
		usr.CompanyName = strings.TrimSpace(*in.CompanyName)
	}
	if in.Preferences != nil {
		usr.Preferences = datatypes.NewJSONType(*in.Preferences)
	}
	if err := u.users.Save(ctx, usr); err != nil {
		return nil, err
	}
	return usr, nil
}

func (u *Usecase) ChangePassword(ctx context.Context, userID string, in ChangePasswordInput) error {
	if in.CurrentPassword == "" || in.NewPassword == "" {
		return invalid("Current password and new password are required")
	}
	usr, err := u.users.GetByUserID(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(usr.PasswordHash), []byte(in.CurrentPassword)) != nil {
		return invalid("Current password is incorrect")
	}
	if err := checkPassword(in.NewPassword); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), u.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	usr.PasswordHash = string(hash)
	return u.users.Save(ctx, usr)
}
