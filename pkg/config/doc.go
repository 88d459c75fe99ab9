// Package config loads typed configuration from the process environment.
//
// A .env file in the working directory is read once (if present) before the
// first struct is parsed. Structs declare their variables with caarlos0/env tags:
//
//	type Config struct {
//		Addr string `env:"HTTP_ADDR" envDefault:":8080"`
//	}
//
//	var cfg Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
package config
