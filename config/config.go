package config

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/linesmerrill/secure-evidence-api/logging"
	"github.com/linesmerrill/secure-evidence-api/models"
)

// Config holds the project config values
type Config struct {
	URL          string
	DatabaseName string
	BaseURL      string
	Port         string
	Environment  string

	JWTSecret string
	TokenTTL  time.Duration

	UploadDir      string
	MaxUploadBytes int64

	AllowedOrigins   []string
	AccessPolicyFile string

	SendGridAPIKey string
	MailFrom       string
	NotifyEmail    bool

	OrphanSweepSchedule string
	OrphanGracePeriod   time.Duration

	ArchiveBucket          string
	ArchiveRegion          string
	ArchiveEndpoint        string
	ArchiveAccessKeyID     string
	ArchiveSecretAccessKey string
}

// defaultOrigins are the local frontend dev servers
var defaultOrigins = []string{
	"http://localhost:5173",
	"http://localhost:5174",
	"http://localhost:5175",
	"http://localhost:5176",
}

// New sets up all config related services
func New() *Config {
	// a missing .env is fine, the process env is used as is
	_ = godotenv.Load()

	environment := getEnv("ENVIRONMENT", "local")

	//setup zap logger and replace default logger
	logger, err := logging.New(environment)
	if err != nil {
		logger = zap.NewExample()
	}
	defer logger.Sync()
	_ = zap.ReplaceGlobals(logger)

	return &Config{
		URL:                    getEnv("DB_URI", "mongodb://127.0.0.1:27017"),
		DatabaseName:           getEnv("DB_NAME", "secure_evidence"),
		BaseURL:                os.Getenv("BASE_URL"),
		Port:                   getEnv("PORT", "5000"),
		Environment:            environment,
		JWTSecret:              os.Getenv("JWT_SECRET"),
		TokenTTL:               getEnvDuration("TOKEN_TTL", 30*24*time.Hour),
		UploadDir:              getEnv("UPLOAD_DIR", "uploads"),
		MaxUploadBytes:         getEnvInt64("MAX_UPLOAD_BYTES", 50*1024*1024),
		AllowedOrigins:         allowedOrigins(os.Getenv("ALLOWED_ORIGINS"), os.Getenv("FRONTEND_URL")),
		AccessPolicyFile:       os.Getenv("ACCESS_POLICY_FILE"),
		SendGridAPIKey:         os.Getenv("SENDGRID_API_KEY"),
		MailFrom:               getEnv("MAIL_FROM", "no-reply@secureevidence.com"),
		NotifyEmail:            getEnvBool("NOTIFY_EMAIL", false),
		OrphanSweepSchedule:    getEnv("ORPHAN_SWEEP_SCHEDULE", "@hourly"),
		OrphanGracePeriod:      getEnvDuration("ORPHAN_GRACE_PERIOD", time.Hour),
		ArchiveBucket:          os.Getenv("ARCHIVE_BUCKET"),
		ArchiveRegion:          getEnv("ARCHIVE_REGION", "us-east-1"),
		ArchiveEndpoint:        os.Getenv("ARCHIVE_ENDPOINT"),
		ArchiveAccessKeyID:     os.Getenv("ARCHIVE_ACCESS_KEY_ID"),
		ArchiveSecretAccessKey: os.Getenv("ARCHIVE_SECRET_ACCESS_KEY"),
	}
}

// Validate reports configuration that would make the server unsafe to start
func (c *Config) Validate() error {
	if c.Environment == "production" && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive, got %d", c.MaxUploadBytes)
	}
	return nil
}

// IsProduction reports whether the server runs in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// ArchiveEnabled reports whether ingested evidence is copied to object storage
func (c *Config) ArchiveEnabled() bool {
	return c.ArchiveBucket != ""
}

// hideInternalErrors is flipped by SetProduction so 5xx bodies never carry internal detail
var hideInternalErrors bool

// SetProduction toggles production error output for ErrorStatus
func SetProduction(production bool) {
	hideInternalErrors = production
}

// ErrorStatus is a useful function that will log, write http headers and body for a
// give message, status code and err
func ErrorStatus(message string, httpStatusCode int, w http.ResponseWriter, err error) {
	if httpStatusCode >= http.StatusInternalServerError {
		zap.S().Errorw(message, "status", httpStatusCode, "error", err)
	} else {
		zap.S().Infow(message, "status", httpStatusCode, "error", err)
	}

	errText := ""
	if err != nil {
		errText = err.Error()
	}
	if hideInternalErrors && httpStatusCode >= http.StatusInternalServerError {
		errText = ""
	}

	b, _ := json.Marshal(models.ErrorMessageResponse{
		Response: models.MessageError{Message: message, Error: errText},
	})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatusCode)
	_, _ = w.Write(b)
}

func allowedOrigins(list, frontendURL string) []string {
	var origins []string
	if strings.TrimSpace(list) != "" {
		for _, o := range strings.Split(list, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
	} else {
		origins = append(origins, defaultOrigins...)
	}

	// trimmed, stray newlines in the env var break origin matching
	frontendURL = strings.TrimSpace(frontendURL)
	if frontendURL != "" {
		origins = append(origins, frontendURL)
		if strings.Contains(frontendURL, "www.") {
			origins = append(origins, strings.Replace(frontendURL, "www.", "", 1))
		}
	}
	return origins
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		return defaultValue
	}
}

func getEnvInt64(key string, defaultValue int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		zap.S().Warnw("invalid integer in environment, using default", "key", key, "value", value)
		return defaultValue
	}
	return n
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		zap.S().Warnw("invalid duration in environment, using default", "key", key, "value", value)
		return defaultValue
	}
	return d
}
