package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	Env  string
	Port string

	// Chain access
	RPCURL          string
	WsRPCURL        string
	ContractAddress string

	// Entity store
	RedisURL  string
	RedisPass string
	RedisDB   int

	// Admin API
	JWTSecret string
	AdminKey  string
}

func Load() (*Config, error) {
	cfg := &Config{
		Env:             getEnv("ENV", "development"),
		Port:            getEnv("PORT", "8080"),
		RPCURL:          os.Getenv("RPC_URL"),
		WsRPCURL:        os.Getenv("WS_RPC_URL"),
		ContractAddress: os.Getenv("CONTRACT_ADDRESS"),
		RedisURL:        getEnv("REDIS_URL", "localhost:6379"),
		RedisPass:       os.Getenv("REDIS_PASSWORD"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		AdminKey:        os.Getenv("ADMIN_KEY"),
	}

	db, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %v", err)
	}
	cfg.RedisDB = db

	if cfg.RPCURL == "" {
		return nil, fmt.Errorf("RPC_URL is required")
	}
	if cfg.WsRPCURL == "" {
		return nil, fmt.Errorf("WS_RPC_URL is required")
	}
	if cfg.ContractAddress == "" {
		return nil, fmt.Errorf("CONTRACT_ADDRESS is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.AdminKey == "" {
		return nil, fmt.Errorf("ADMIN_KEY is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
