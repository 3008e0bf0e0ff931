package params

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"stocksim/pkg/exchange"
)

type Market struct {
	TickInterval time.Duration // price process tick
	Seed         int64         // RNG seed for reproducible runs
	Listings     []exchange.Company
}

type Trader struct {
	Count        int
	StartingCash int64 // cents
	SleepMin     time.Duration
	SleepJitter  time.Duration
	ReportEvery  time.Duration
}

type API struct {
	Addr string
}

type Journal struct {
	Path string // empty disables the trade journal
}

type Kafka struct {
	Brokers []string // empty disables the trade feed
	Topic   string
}

type Config struct {
	Market  Market
	Trader  Trader
	API     API
	Journal Journal
	Kafka   Kafka
	LogFile string
}

func Default() Config {
	return Config{
		Market: Market{
			TickInterval: 200 * time.Millisecond, // 5 ticks per second
			Seed:         42,
			Listings: []exchange.Company{
				{Name: "Acme Robotics", Ticker: "ACME", InitialPrice: 10000, AnnualVolatility: 0.25},
				{Name: "Nimbus Cloud", Ticker: "NIMB", InitialPrice: 5550, AnnualVolatility: 0.30},
				{Name: "Solaris Energy", Ticker: "SOLR", InitialPrice: 2215, AnnualVolatility: 0.40},
			},
		},
		Trader: Trader{
			Count:        4,
			StartingCash: 10_000_000, // $100,000.00
			SleepMin:     200 * time.Millisecond,
			SleepJitter:  400 * time.Millisecond,
			ReportEvery:  time.Second,
		},
		API:     API{Addr: ":8080"},
		Journal: Journal{Path: "data/trades.db"},
		Kafka:   Kafka{Topic: "trades"},
	}
}

// LoadFromEnv loads configuration from a .env file (if present) and
// environment variables. Priority: ENV > .env file > defaults.
func LoadFromEnv(envPath string) Config {
	cfg := Default()

	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	if ms, ok := envInt("SIM_TICK_MS"); ok && ms > 0 {
		cfg.Market.TickInterval = time.Duration(ms) * time.Millisecond
	}
	if seed, ok := envInt("SIM_SEED"); ok {
		cfg.Market.Seed = seed
	}
	if n, ok := envInt("SIM_TRADERS"); ok && n > 0 {
		cfg.Trader.Count = int(n)
	}
	if cash, ok := envInt("SIM_STARTING_CASH_CENTS"); ok && cash > 0 {
		cfg.Trader.StartingCash = cash
	}
	if ms, ok := envInt("TRADER_SLEEP_MS"); ok && ms > 0 {
		cfg.Trader.SleepMin = time.Duration(ms) * time.Millisecond
	}
	if ms, ok := envInt("TRADER_JITTER_MS"); ok && ms > 0 {
		cfg.Trader.SleepJitter = time.Duration(ms) * time.Millisecond
	}
	if ms, ok := envInt("TRADER_REPORT_MS"); ok && ms > 0 {
		cfg.Trader.ReportEvery = time.Duration(ms) * time.Millisecond
	}
	if addr := os.Getenv("API_ADDR"); addr != "" {
		cfg.API.Addr = addr
	}
	if path, ok := envSet("JOURNAL_PATH"); ok {
		cfg.Journal.Path = path // set empty to disable
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.Kafka.Brokers = strings.Split(brokers, ",")
	}
	if topic := os.Getenv("KAFKA_TOPIC"); topic != "" {
		cfg.Kafka.Topic = topic
	}
	if logFile := os.Getenv("LOG_FILE"); logFile != "" {
		cfg.LogFile = logFile
	}

	return cfg
}

func envInt(key string) (int64, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// envSet distinguishes "unset" from "set to empty".
func envSet(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	return v, ok
}
