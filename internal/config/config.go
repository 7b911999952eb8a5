package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port                int
	NatsURL             string
	NatsToken           string
	DatabaseURL         string
	LogLevel            string
	OpenAIAPIKey        string
	EmbeddingModel      string
	EmbeddingDimensions int
	StoreDialect        string
	BackfillBatchSize   int
	BackfillDelayMs     int
}

func Load() Config {
	return Config{
		Port:                envInt("MNEMOSYNE_PORT", 8760),
		NatsURL:             envStr("NATS_URL", "nats://hermes:4222"),
		NatsToken:           envStr("NATS_TOKEN", ""),
		DatabaseURL:         envStr("DATABASE_URL", ""),
		LogLevel:            envStr("LOG_LEVEL", "info"),
		OpenAIAPIKey:        envStr("OPENAI_API_KEY", ""),
		EmbeddingModel:      envStr("MNEMOSYNE_EMBEDDING_MODEL", "text-embedding-3-small"),
		EmbeddingDimensions: envInt("MNEMOSYNE_EMBEDDING_DIMENSIONS", 256),
		StoreDialect:        envStr("MNEMOSYNE_STORE_DIALECT", "postgres"),
		BackfillBatchSize:   envInt("MNEMOSYNE_BACKFILL_BATCH_SIZE", 20),
		BackfillDelayMs:     envInt("MNEMOSYNE_BACKFILL_DELAY_MS", 500),
	}
}

// VectorCapable reports whether the configured store dialect supports vector
// similarity search.
func (c Config) VectorCapable() bool {
	return c.StoreDialect == "postgres"
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
