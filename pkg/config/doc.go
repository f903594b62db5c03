// Package config loads typed configuration from environment variables.
//
// Structs are described with caarlos0/env tags. Before parsing, Load reads
// .env files through godotenv; values already present in the process
// environment are never overwritten by a file.
//
//	type Config struct {
//		Addr        string `env:"HTTP_ADDR" envDefault:":8080"`
//		DatabaseURL string `env:"DATABASE_URL,required"`
//	}
//
//	cfg, err := config.Load[Config]()
//
// Types implementing Validator are validated after parsing.
package config
