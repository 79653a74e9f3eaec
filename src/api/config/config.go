package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	JWTSecret      string
	BoltPath       string
	MySQLDSN       string
	RedisURL       string
	RPCURL         string
	ContractAddr   string
	KeyringService string
	PollInterval   int
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		if def == "" {
			log.Fatalf("missing env %s", key)
		}
		return def
	}
	return v
}

// Load reads configuration from the environment. MYSQL_DSN selects the
// MySQL backend over bolt; RPC_URL enables chain mode; REDIS_URL moves
// sessions out of process memory.
func Load() Config {
	_ = godotenv.Load()

	pi, _ := strconv.Atoi(getenv("POLL_INTERVAL", "60"))
	return Config{
		Port:           getenv("PORT", "8080"),
		JWTSecret:      getenv("JWT_SECRET", "dev-only-fundguard-secret"),
		BoltPath:       getenv("BOLT_PATH", "fundguard.db"),
		MySQLDSN:       os.Getenv("MYSQL_DSN"),
		RedisURL:       os.Getenv("REDIS_URL"),
		RPCURL:         os.Getenv("RPC_URL"),
		ContractAddr:   os.Getenv("CONTRACT_ADDRESS"),
		KeyringService: getenv("KEYRING_SERVICE", "fundguard"),
		PollInterval:   pi,
	}
}
