package configs

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	Port                 string
	MongoURI             string
	DBName               string
	JWTSecret            string
	JWTExpiryMinutes     int
	GoogleBooksURL       string
	LookupTimeoutSeconds int
}

func LoadConfig() Config {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found, using environment variables")
	}

	jwtExpiryMinutes := 60
	if val := os.Getenv("JWT_EXPIRY_MINUTES"); val != "" {
		if _, err := fmt.Sscanf(val, "%d", &jwtExpiryMinutes); err != nil {
			log.Fatalf("Invalid JWT_EXPIRY_MINUTES: %v", err)
		}
	}

	lookupTimeoutSeconds := 5
	if val := os.Getenv("LOOKUP_TIMEOUT_SECONDS"); val != "" {
		if _, err := fmt.Sscanf(val, "%d", &lookupTimeoutSeconds); err != nil {
			log.Fatalf("Invalid LOOKUP_TIMEOUT_SECONDS: %v", err)
		}
	}

	dbName := os.Getenv("DB_NAME")
	if dbName == "" {
		dbName = "library"
	}

	return Config{
		Port:                 os.Getenv("PORT"),
		MongoURI:             os.Getenv("MONGO_URI"),
		DBName:               dbName,
		JWTSecret:            os.Getenv("JWT_SECRET"),
		JWTExpiryMinutes:     jwtExpiryMinutes,
		GoogleBooksURL:       os.Getenv("GOOGLE_BOOKS_URL"),
		LookupTimeoutSeconds: lookupTimeoutSeconds,
	}
}
