package api

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shaj13/go-guardian/auth"
	"github.com/shaj13/go-guardian/auth/strategies/basic"
	"github.com/shaj13/go-guardian/auth/strategies/bearer"
	"github.com/shaj13/go-guardian/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/linesmerrill/secure-evidence-api/config"
	"github.com/linesmerrill/secure-evidence-api/databases"
	"github.com/linesmerrill/secure-evidence-api/models"
)

// tokenCacheTTL bounds how long a verified bearer token is trusted without re-parsing it.
// Only the token to user id mapping is cached; the user record is loaded on every request.
const tokenCacheTTL = 5 * time.Minute

// ErrInvalidToken is returned when a bearer token fails verification
var ErrInvalidToken = errors.New("invalid or expired token")

// Auth authenticates requests with signed bearer tokens or basic credentials
type Auth struct {
	DB     databases.UserDatabase
	Secret []byte
	TTL    time.Duration

	authenticator auth.Authenticator
}

// NewAuth builds an Auth and sets up its go-guardian strategies. An empty secret is replaced
// with a random one, so tokens do not survive a restart.
func NewAuth(db databases.UserDatabase, secret string, ttl time.Duration) *Auth {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			panic(fmt.Sprintf("failed to generate token secret: %v", err))
		}
		zap.S().Warn("JWT_SECRET is not set, using a random per-process secret")
	}
	a := &Auth{DB: db, Secret: key, TTL: ttl}
	a.SetupGoGuardian()
	return a
}

// SetupGoGuardian sets up the go-guardian strategies
func (a *Auth) SetupGoGuardian() {
	a.authenticator = auth.New()
	cache := store.NewFIFO(context.Background(), tokenCacheTTL)
	basicStrategy := basic.New(a.ValidateUser, cache)
	tokenStrategy := bearer.New(a.verifyToken, cache)

	a.authenticator.EnableStrategy(basic.StrategyKey, basicStrategy)
	a.authenticator.EnableStrategy(bearer.CachedStrategyKey, tokenStrategy)
}

// Middleware authenticates the request and puts the caller's current user record on the context
func (a *Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info, err := a.authenticator.Authenticate(r)
		if err != nil {
			zap.S().Infow("unauthorized",
				"url", r.URL.Path,
				"error", err)
			config.ErrorStatus("not authorized", http.StatusUnauthorized, w, err)
			return
		}

		user, err := a.loadUser(r.Context(), info.ID())
		if err != nil {
			config.ErrorStatus("not authorized", http.StatusUnauthorized, w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

func (a *Auth) loadUser(ctx context.Context, id string) (*models.User, error) {
	uID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("token subject is not a user id: %w", err)
	}
	ctx, cancel := WithQueryTimeout(ctx)
	defer cancel()
	user, err := a.DB.FindOne(ctx, bson.M{"_id": uID})
	if err != nil {
		return nil, fmt.Errorf("failed to load user %s: %w", id, err)
	}
	return user, nil
}

// IssueToken signs a token for the user that expires after the configured TTL
func (a *Auth) IssueToken(u *models.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"id":  u.ID.Hex(),
		"iat": now.Unix(),
		"exp": now.Add(a.TTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.Secret)
}

// ParseToken verifies a token and returns the user id it was issued for
func (a *Auth) ParseToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		return a.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	id, _ := claims["id"].(string)
	if id == "" {
		return "", ErrInvalidToken
	}
	return id, nil
}

func (a *Auth) verifyToken(ctx context.Context, r *http.Request, token string) (auth.Info, error) {
	id, err := a.ParseToken(token)
	if err != nil {
		return nil, err
	}
	return auth.NewDefaultUser(id, id, nil, nil), nil
}

// ValidateUser checks basic credentials against the stored bcrypt hash
func (a *Auth) ValidateUser(ctx context.Context, r *http.Request, email, password string) (auth.Info, error) {
	user, err := a.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return auth.NewDefaultUser(user.Email, user.ID.Hex(), []string{string(user.Role)}, nil), nil
}

// Authenticate returns the user with the given e-mail when the password matches
func (a *Auth) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	usernameHash := sha256.Sum256([]byte(email))

	ctx, cancel := WithQueryTimeout(ctx)
	defer cancel()
	user, err := a.DB.FindOne(ctx, bson.M{"email": email})
	if err != nil {
		return nil, fmt.Errorf("invalid credentials")
	}

	expectedUsernameHash := sha256.Sum256([]byte(user.Email))
	usernameMatch := subtle.ConstantTimeCompare(usernameHash[:], expectedUsernameHash[:]) == 1

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, fmt.Errorf("invalid credentials")
	}
	if !usernameMatch {
		return nil, fmt.Errorf("invalid credentials")
	}
	return user, nil
}
