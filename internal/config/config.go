package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-passwordless-api/internal/domain"
)

// Config holds all runtime configuration loaded from environment variables.
// It is built once at startup and passed into constructors; nothing reads
// the environment after Load returns.
type Config struct {
	AppPort string
	AppEnv  string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables

	// TokenStoreBackend selects where callback tokens live: "dynamo" or "redis".
	TokenStoreBackend string
	RedisAddr         string
	RedisPassword     string

	// Passwordless tunables.
	TokenTTL                time.Duration // how long a callback token stays redeemable
	TokenKeyLength          int
	TokenGenerationAttempts int
	AllowedAliasTypes       []domain.AliasType
	RegisterNewUsers        bool
	MarkEmailVerified       bool // auto-verify email on successful AUTH redemption
	MarkMobileVerified      bool // auto-verify mobile on successful AUTH redemption
	TestSuppression         bool // log deliveries instead of sending them
	DemoUsers               map[string]string // alias -> static key, bypasses generation and expiry

	// Message templates forwarded opaquely to the delivery sinks.
	EmailNoreplyAddress       string
	EmailSubject              string
	EmailPlaintextMessage     string
	EmailVerifySubject        string
	EmailVerifyPlaintext      string
	MobileNoreplyNumber       string
	MobileMessage             string
	MobileVerificationMessage string

	EmailProvider string // "smtp" | "resend"
	SMTPHost      string
	SMTPPort      string
	SMTPUsername  string
	SMTPPassword  string
	ResendAPIKey  string

	SNSRegion string

	JWTPrivateKeyPath string
	JWTPublicKeyPath  string
	JWTExpiry         time.Duration
	RefreshTokenDur   time.Duration

	AllowedOrigins []string // CORS allowed origins
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Users          string
	Sessions       string
	CallbackTokens string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort: getEnv("APP_PORT", "3000"),
		AppEnv:  getEnv("APP_ENV", "development"),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Users:          getEnv("DYNAMO_TABLE_USERS", "users"),
			Sessions:       getEnv("DYNAMO_TABLE_SESSIONS", "sessions"),
			CallbackTokens: getEnv("DYNAMO_TABLE_CALLBACK_TOKENS", "callback_tokens"),
		},

		TokenStoreBackend: getEnv("TOKEN_STORE_BACKEND", "dynamo"),
		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),

		TokenTTL:                time.Duration(getEnvInt("TOKEN_EXPIRE_SECONDS", 15*60)) * time.Second,
		TokenKeyLength:          getEnvInt("TOKEN_KEY_LENGTH", 6),
		TokenGenerationAttempts: getEnvInt("TOKEN_GENERATION_ATTEMPTS", 3),
		AllowedAliasTypes:       parseAliasTypes(getEnv("AUTH_ALIAS_TYPES", "email")),
		RegisterNewUsers:        getEnvBool("REGISTER_NEW_USERS", true),
		MarkEmailVerified:       getEnvBool("MARK_EMAIL_VERIFIED", false),
		MarkMobileVerified:      getEnvBool("MARK_MOBILE_VERIFIED", false),
		TestSuppression:         getEnvBool("TEST_SUPPRESSION", false),
		DemoUsers:               parseDemoUsers(getEnv("DEMO_USERS", "")),

		EmailNoreplyAddress:       getEnv("EMAIL_NOREPLY_ADDRESS", "noreply@example.com"),
		EmailSubject:              getEnv("EMAIL_SUBJECT", "Your Login Token"),
		EmailPlaintextMessage:     getEnv("EMAIL_PLAINTEXT_MESSAGE", "Enter this token to sign in: %s"),
		EmailVerifySubject:        getEnv("EMAIL_VERIFICATION_SUBJECT", "Your Verification Token"),
		EmailVerifyPlaintext:      getEnv("EMAIL_VERIFICATION_PLAINTEXT_MESSAGE", "Enter this verification code: %s"),
		MobileNoreplyNumber:       getEnv("MOBILE_NOREPLY_NUMBER", ""),
		MobileMessage:             getEnv("MOBILE_MESSAGE", "Use this code to log in: %s"),
		MobileVerificationMessage: getEnv("MOBILE_VERIFICATION_MESSAGE", "Enter this verification code: %s"),

		EmailProvider: getEnv("EMAIL_PROVIDER", "smtp"),
		SMTPHost:      getEnv("SMTP_HOST", "localhost"),
		SMTPPort:      getEnv("SMTP_PORT", "1025"),
		SMTPUsername:  getEnv("SMTP_USERNAME", ""),
		SMTPPassword:  getEnv("SMTP_PASSWORD", ""),
		ResendAPIKey:  getEnv("RESEND_API_KEY", ""),

		SNSRegion: getEnv("SNS_REGION", "us-east-1"),

		JWTPrivateKeyPath: getEnv("JWT_PRIVATE_KEY_PATH", "./private_key.pem"),
		JWTPublicKeyPath:  getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		JWTExpiry:         time.Duration(getEnvInt("JWT_EXPIRY_DAYS", 7)) * 24 * time.Hour,
		RefreshTokenDur:   time.Duration(getEnvInt("REFRESH_TOKEN_EXPIRY_DAYS", 30)) * 24 * time.Hour,

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}
}

// AliasAllowed reports whether requests may obtain AUTH tokens for the
// given alias type.
func (c *Config) AliasAllowed(at domain.AliasType) bool {
	for _, allowed := range c.AllowedAliasTypes {
		if allowed == at {
			return true
		}
	}
	return false
}

func parseAliasTypes(s string) []domain.AliasType {
	var out []domain.AliasType
	for _, part := range strings.Split(s, ",") {
		if at, err := domain.ParseAliasType(strings.TrimSpace(part)); err == nil {
			out = append(out, at)
		}
	}
	return out
}

// parseDemoUsers parses "alias:key,alias:key" pairs.
func parseDemoUsers(s string) map[string]string {
	out := map[string]string{}
	if s == "" {
		return out
	}
	for _, pair := range strings.Split(s, ",") {
		alias, key, ok := strings.Cut(pair, ":")
		if !ok {
			continue
		}
		out[strings.ToLower(strings.TrimSpace(alias))] = strings.TrimSpace(key)
	}
	return out
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
