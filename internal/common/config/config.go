package config

import (
	"os"
	"strconv"
	"strings"
)

// ============================================================
// Configuration
// ============================================================

type Config struct {
	Port         string
	Environment  string
	ReadTimeout  int
	WriteTimeout int
	BodyLimitMB  int

	LogLevel  string
	LogFormat string

	Store      Store
	S3         S3
	Tolerances Tolerances

	ImporterURL       string
	SessionTTLMinutes int
}

type Store struct {
	Driver      string // memory, sqlite or postgres
	SQLitePath  string
	PostgresDSN string
}

type S3 struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// Tolerances carries normalization settings, all in millimeters except
// the angles.
type Tolerances struct {
	MinSegmentMM     float64
	DuplicateTolMM   float64
	FuseTolMM        float64
	FuseAngleDeg     float64
	SnapTolMM        float64
	CollinearDeg     float64
	SplitContacts    bool
	FingerprintPosMM float64
	FingerprintLenMM float64
	FingerprintAngle float64
	ApplyCorrections bool
}

// Load reads the configuration from environment variables.
func Load() *Config {
	return &Config{
		Port:         getEnv("PORT", "3000"),
		Environment:  getEnv("ENV", "development"),
		ReadTimeout:  getEnvAsInt("READ_TIMEOUT", 10),
		WriteTimeout: getEnvAsInt("WRITE_TIMEOUT", 10),
		BodyLimitMB:  getEnvAsInt("BODY_LIMIT_MB", 32),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		Store: Store{
			Driver:      strings.ToLower(getEnv("STORE_DRIVER", "sqlite")),
			SQLitePath:  getEnv("SQLITE_PATH", "data/db/wallgraph.db"),
			PostgresDSN: getEnv("POSTGRES_DSN", ""),
		},
		S3: S3{
			Endpoint:        getEnv("S3_ENDPOINT", ""),
			Region:          getEnv("S3_REGION", "us-east-1"),
			AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
		},
		Tolerances: Tolerances{
			MinSegmentMM:     getEnvAsFloat("MIN_SEGMENT_MM", 50),
			DuplicateTolMM:   getEnvAsFloat("DUPLICATE_TOL_MM", 2),
			FuseTolMM:        getEnvAsFloat("FUSE_TOL_MM", 5),
			FuseAngleDeg:     getEnvAsFloat("FUSE_ANGLE_DEG", 2),
			SnapTolMM:        getEnvAsFloat("SNAP_TOL_MM", 10),
			CollinearDeg:     getEnvAsFloat("COLLINEAR_DEG", 2),
			SplitContacts:    getEnvAsBool("SPLIT_CONTACTS", true),
			FingerprintPosMM: getEnvAsFloat("FINGERPRINT_POS_MM", 250),
			FingerprintLenMM: getEnvAsFloat("FINGERPRINT_LEN_MM", 300),
			FingerprintAngle: getEnvAsFloat("FINGERPRINT_ANGLE_RAD", 0.15),
			ApplyCorrections: getEnvAsBool("APPLY_CORRECTIONS", true),
		},

		ImporterURL:       getEnv("IMPORTER_URL", "http://localhost:3001"),
		SessionTTLMinutes: getEnvAsInt("SESSION_TTL_MINUTES", 30),
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsFloat(key string, defaultVal float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultVal
}
