package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	MySQLDSN       string
	RedisURL       string
	SuiRPCURL      string
	PackageID      string
	DaoModule      string
	ProposalModule string
	Port           string
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

func Load() Config {
	// Optional .env for local development
	_ = godotenv.Load()

	pi, err := strconv.Atoi(getenv("POLL_INTERVAL", "30"))
	if err != nil || pi <= 0 {
		pi = 30
	}

	return Config{
		MySQLDSN:       getenv("MYSQL_DSN", "suidao:suidao@tcp(localhost:3306)/suidao"),
		RedisURL:       getenv("REDIS_URL", "redis://localhost:6379/0"),
		SuiRPCURL:      getenv("SUI_RPC_URL", "https://fullnode.testnet.sui.io:443"),
		PackageID:      getenv("PACKAGE_ID", "0x452132cebeab22eb484ea649bf5f2145b1eb5d49a1bf5993ed6a3bfe2e741d24"),
		DaoModule:      getenv("DAO_MODULE", "dao"),
		ProposalModule: getenv("PROPOSAL_MODULE", "proposal"),
		Port:           getenv("PORT", "3001"),
		PollInterval:   pi,
	}
}
