package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var AppEnv Config

type Config struct {
	MongoURI          string
	DBName            string
	JWTSecret         string
	ZoneServiceURL    string
	PaymentGatewayURL string
	DefaultCountry    string
	AddressQuiet      time.Duration
	AddressMinLength  int
	SessionTTL        time.Duration
}

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println(".env not loaded:", err)
	}
	AppEnv = Config{
		MongoURI:          getEnvOrDefault("MONGO_URI", ""),
		DBName:            getEnvOrDefault("DB_NAME", "fioreria"),
		JWTSecret:         getEnvOrDefault("JWT_SECRET", ""),
		ZoneServiceURL:    getEnvOrDefault("ZONE_SERVICE_URL", ""),
		PaymentGatewayURL: getEnvOrDefault("PAYMENT_GATEWAY_URL", ""),
		DefaultCountry:    getEnvOrDefault("DEFAULT_COUNTRY", "Italy"),
		AddressQuiet:      getDurationEnv("ADDRESS_QUIET_MS", 1000, time.Millisecond),
		AddressMinLength:  getIntEnv("ADDRESS_MIN_LEN", 10),
		SessionTTL:        getDurationEnv("SESSION_TTL_MINUTES", 30, time.Minute),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue int, unit time.Duration) time.Duration {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return time.Duration(parsed) * unit
		}
	}
	return time.Duration(defaultValue) * unit
}
