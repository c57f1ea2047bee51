package params

import (
	"os"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

type Exchange struct {
	// QuoteTicker is the designated pricing currency. It is registered like
	// any other token but can never be the traded side of an order.
	QuoteTicker string

	// Owner is the only address allowed to register new tokens.
	Owner common.Address

	// Custody is the address holding deposited tokens on the external ledger.
	Custody common.Address

	// TradeHistoryLimit caps how many trades a history query returns.
	TradeHistoryLimit int
}

type Node struct {
	DataDir string
	APIAddr string
	LogFile string

	// Seed registers the four mock tokens and places sample liquidity on
	// startup. Devnet only.
	Seed bool
}

type Config struct {
	Exchange Exchange
	Node     Node
}

func Default() Config {
	return Config{
		Exchange: Exchange{
			QuoteTicker:       "DAI",
			Owner:             common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"),
			Custody:           common.HexToAddress("0xDe71C867E1b9eE2a180aB08C6dF78Dca04D3C2A7"),
			TradeHistoryLimit: 100,
		},
		Node: Node{
			DataDir: "./data",
			APIAddr: ":8080",
			LogFile: "data/node.log",
			Seed:    false,
		},
	}
}

// LoadFromEnv loads configuration from a .env file (if present) and
// environment variables. Priority: ENV > .env file > defaults.
func LoadFromEnv(envPath string) (Config, error) {
	cfg := Default()

	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	cfg.Exchange.QuoteTicker = getEnv("QUOTE_TICKER", cfg.Exchange.QuoteTicker)
	cfg.Node.DataDir = getEnv("DATA_DIR", cfg.Node.DataDir)
	cfg.Node.APIAddr = getEnv("API_ADDR", cfg.Node.APIAddr)
	cfg.Node.LogFile = getEnv("LOG_FILE", cfg.Node.LogFile)

	if owner := os.Getenv("OWNER_ADDR"); owner != "" {
		if !common.IsHexAddress(owner) {
			return Config{}, errors.Errorf("invalid OWNER_ADDR: %s", owner)
		}
		cfg.Exchange.Owner = common.HexToAddress(owner)
	}

	if custody := os.Getenv("CUSTODY_ADDR"); custody != "" {
		if !common.IsHexAddress(custody) {
			return Config{}, errors.Errorf("invalid CUSTODY_ADDR: %s", custody)
		}
		cfg.Exchange.Custody = common.HexToAddress(custody)
	}

	if limit := os.Getenv("TRADE_HISTORY_LIMIT"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n <= 0 {
			return Config{}, errors.Errorf("invalid TRADE_HISTORY_LIMIT: %s", limit)
		}
		cfg.Exchange.TradeHistoryLimit = n
	}

	if seed := os.Getenv("SEED"); seed != "" {
		cfg.Node.Seed = seed == "true"
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
