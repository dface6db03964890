package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Config holds all configuration for the application
type Config struct {
	Port        string
	DatabaseURL string
	Version     string
	LogLevel    string

	// Mailbox (IMAP)
	IMAPHost     string
	IMAPPort     int
	IMAPUsername string
	IMAPPassword string
	IMAPMailbox  string

	// AI providers
	OpenAIKey      string
	OpenAITimeout  int    // OpenAI API timeout in seconds
	GPTModel       string // Chat model for classification and drafting
	EmbeddingModel string

	// Knowledge base (Qdrant)
	QdrantHost       string
	QdrantPort       int
	QdrantAPIKey     string
	QdrantCollection string
	QdrantUseTLS     bool

	// Outbound mail (SendGrid)
	SendGridAPIKey string
	FromEmail      string // Address replies and forwards are sent from
	FromName       string

	// Pipeline behavior
	PollIntervalSeconds int      // How often the mailbox is polled
	ConfidenceThreshold int      // Drafts at/above this confidence are auto-answered
	CallTimeoutSeconds  int      // Bounded wait for each collaborator call
	UrgentSubjectMarker string   // Prefix on urgent forwards to department heads
	FallbackDepartment  string   // Routing target when no department matches
	SeedDepartments     []string // Departments created when the table is empty
}

// Load initializes and returns application configuration
func Load() *Config {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		Version:     getEnv("VERSION", "1.0.0"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		IMAPHost:     os.Getenv("IMAP_HOST"),
		IMAPPort:     getEnvInt("IMAP_PORT", 993),
		IMAPUsername: os.Getenv("IMAP_USERNAME"),
		IMAPPassword: os.Getenv("IMAP_PASSWORD"),
		IMAPMailbox:  getEnv("IMAP_MAILBOX", "INBOX"),

		OpenAIKey:      os.Getenv("OPENAI_API_KEY"),
		OpenAITimeout:  getEnvInt("OPENAI_TIMEOUT", 60),
		GPTModel:       getEnv("GPT_MODEL", ""),
		EmbeddingModel: getEnv("EMBEDDING_MODEL", ""),

		QdrantHost:       getEnv("QDRANT_HOST", "localhost"),
		QdrantPort:       getEnvInt("QDRANT_PORT", 6334),
		QdrantAPIKey:     os.Getenv("QDRANT_API_KEY"),
		QdrantCollection: getEnv("QDRANT_COLLECTION", "knowledge_chunks"),
		QdrantUseTLS:     getEnvBool("QDRANT_USE_TLS", false),

		SendGridAPIKey: os.Getenv("SENDGRID_API_KEY"),
		FromEmail:      getEnv("FROM_EMAIL", "agent@maildesk.local"),
		FromName:       getEnv("FROM_NAME", "Maildesk Agent"),

		PollIntervalSeconds: getEnvInt("POLL_INTERVAL_SECONDS", 60),
		ConfidenceThreshold: getEnvInt("CONFIDENCE_THRESHOLD", 50),
		CallTimeoutSeconds:  getEnvInt("CALL_TIMEOUT_SECONDS", 30),
		UrgentSubjectMarker: getEnv("URGENT_SUBJECT_MARKER", "[URGENT] Forwarded:"),
		FallbackDepartment:  getEnv("FALLBACK_DEPARTMENT", "Other"),
		SeedDepartments:     getEnvList("SEED_DEPARTMENTS", []string{"Sales", "Finance", "HR", "Support", "Other"}),
	}

	return config
}

// getEnv gets an environment variable with a default fallback
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an environment variable as integer with a default fallback
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvList gets a comma-separated environment variable with a default fallback
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var list []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	if len(list) == 0 {
		return defaultValue
	}
	return list
}

// getEnvBool gets an environment variable as boolean with a default fallback
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// SetupLogger configures zerolog with JSON output and single-line format
func (c *Config) SetupLogger() zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	logger := zerolog.New(os.Stdout).With().
		Timestamp().
		Str("service", "maildesk").
		Str("version", c.Version).
		Logger()

	level, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger = logger.Level(level)

	return logger
}
