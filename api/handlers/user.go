package handlers

import (
	"encoding/json"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/linesmerrill/secure-evidence-api/api"
	"github.com/linesmerrill/secure-evidence-api/config"
	"github.com/linesmerrill/secure-evidence-api/databases"
	"github.com/linesmerrill/secure-evidence-api/models"
)

// MinPasswordLength is the shortest password accepted at registration
const MinPasswordLength = 6

// User exported for testing purposes
type User struct {
	DB   databases.UserDatabase
	Auth *api.Auth
}

type registerRequest struct {
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     models.Role `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterHandler creates an investigator or analyst account and returns it with a token.
// Admin accounts are only created by the seeder.
func (u User) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request", http.StatusBadRequest, w, err)
		return
	}

	name := api.Sanitize(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if name == "" || email == "" || req.Password == "" {
		config.ErrorStatus("name, email and password are required", http.StatusBadRequest, w, nil)
		return
	}
	if _, err := mail.ParseAddress(email); err != nil {
		config.ErrorStatus("invalid email", http.StatusBadRequest, w, err)
		return
	}
	if len(req.Password) < MinPasswordLength {
		config.ErrorStatus("password is too short", http.StatusBadRequest, w, nil)
		return
	}
	role := req.Role
	if role == "" {
		role = models.RoleInvestigator
	}
	if role != models.RoleInvestigator && role != models.RoleAnalyst {
		config.ErrorStatus("invalid role", http.StatusBadRequest, w, nil)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	count, err := u.DB.CountDocuments(ctx, bson.M{"email": email})
	if err != nil {
		config.ErrorStatus("failed to check user", http.StatusInternalServerError, w, err)
		return
	}
	if count > 0 {
		config.ErrorStatus("user already exists", http.StatusBadRequest, w, nil)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		config.ErrorStatus("failed to hash password", http.StatusInternalServerError, w, err)
		return
	}

	user := &models.User{
		Name:      name,
		Email:     email,
		Password:  string(hash),
		Role:      role,
		CreatedAt: time.Now(),
	}
	if err := u.DB.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			config.ErrorStatus("user already exists", http.StatusBadRequest, w, nil)
			return
		}
		config.ErrorStatus("failed to create user", http.StatusInternalServerError, w, err)
		return
	}
	zap.S().Infow("user registered", "userId", user.ID.Hex(), "role", user.Role)

	u.respondWithToken(w, http.StatusCreated, user)
}

// LoginHandler exchanges an e-mail and password for a signed token
func (u User) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request", http.StatusBadRequest, w, err)
		return
	}

	user, err := u.Auth.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		config.ErrorStatus("invalid credentials", http.StatusUnauthorized, w, nil)
		return
	}
	u.respondWithToken(w, http.StatusOK, user)
}

// MeHandler returns the caller's own record
func (u User) MeHandler(w http.ResponseWriter, r *http.Request) {
	api.WriteJSON(w, http.StatusOK, api.UserFromContext(r.Context()))
}

// UsersHandler returns every user sorted by name, without password hashes
func (u User) UsersHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	opts := options.Find().
		SetProjection(bson.M{"password": 0}).
		SetSort(bson.D{{Key: "name", Value: 1}})

	users, err := u.DB.Find(ctx, bson.M{}, opts)
	if err != nil {
		config.ErrorStatus("failed to get users", http.StatusInternalServerError, w, err)
		return
	}
	if users == nil {
		users = []models.User{}
	}
	api.WriteJSON(w, http.StatusOK, users)
}

func (u User) respondWithToken(w http.ResponseWriter, status int, user *models.User) {
	token, err := u.Auth.IssueToken(user)
	if err != nil {
		config.ErrorStatus("failed to issue token", http.StatusInternalServerError, w, err)
		return
	}
	api.WriteJSON(w, status, models.AuthResponse{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
		Token: token,
	})
}
