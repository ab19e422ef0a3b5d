package config

import (
	"errors"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	TargetURL string

	GeoLatitude  float64
	GeoLongitude float64

	// Exactly one of the two selects the appointment type: by stable id, or
	// by matching the option's visible text.
	AppointmentTypeID   string
	AppointmentTypeText string

	ResponseTimeoutMs int
	NavTimeoutMs      int
	RateLimitMs       int
	MaxRetries        int
	MaxSlotSample     int

	Headless bool
	SlowMoMs int

	ScreenshotDir string
	DumpResponses bool
	CSVOutputPath string

	CheckIntervalMinutes int

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	ChromeBin string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		TargetURL: getEnv("TARGET_URL", "https://termine.example.gov/booking"),

		GeoLatitude:  getEnvFloat("GEO_LAT", 52.52),
		GeoLongitude: getEnvFloat("GEO_LNG", 13.405),

		AppointmentTypeID:   getEnv("APPOINTMENT_TYPE_ID", ""),
		AppointmentTypeText: getEnv("APPOINTMENT_TYPE_TEXT", ""),

		ResponseTimeoutMs: getEnvInt("RESPONSE_TIMEOUT_MS", 10000),
		NavTimeoutMs:      getEnvInt("NAV_TIMEOUT_MS", 60000),
		RateLimitMs:       getEnvInt("RATE_LIMIT_MS", 1500),
		MaxRetries:        getEnvInt("MAX_RETRIES", 3),
		MaxSlotSample:     getEnvInt("MAX_SLOT_SAMPLE", 5),

		Headless: getEnvBool("HEADLESS", true),
		SlowMoMs: getEnvInt("SLOWMO_MS", 0),

		ScreenshotDir: getEnv("SCREENSHOT_DIR", "./output/screenshots"),
		DumpResponses: getEnvBool("DUMP_RESPONSES", false),
		CSVOutputPath: getEnv("CSV_OUTPUT_PATH", "./output/results.csv"),

		CheckIntervalMinutes: getEnvInt("CHECK_INTERVAL_MINUTES", 0),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "checker"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "checker123"),
		PostgresDB:       getEnv("POSTGRES_DB", "appointments_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		ChromeBin: getEnv("CHROME_BIN", ""),
	}
}

// Validate rejects configurations that cannot produce a meaningful run.
// Supplying neither appointment-type selector (or both) is a fatal
// configuration error, caught before any browser work starts.
func (c *Config) Validate() error {
	if c.AppointmentTypeID == "" && c.AppointmentTypeText == "" {
		return errors.New("config: one of APPOINTMENT_TYPE_ID or APPOINTMENT_TYPE_TEXT is required")
	}
	if c.AppointmentTypeID != "" && c.AppointmentTypeText != "" {
		return errors.New("config: APPOINTMENT_TYPE_ID and APPOINTMENT_TYPE_TEXT are mutually exclusive")
	}
	if c.TargetURL == "" {
		return errors.New("config: TARGET_URL must not be empty")
	}
	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}
