package jwt

import "time"

// Config holds the token verification settings.
type Config struct {
	Secret   string        `env:"JWT_SECRET,required"`
	Issuer   string        `env:"JWT_ISSUER"`
	Audience string        `env:"JWT_AUDIENCE"`
	Leeway   time.Duration `env:"JWT_LEEWAY" envDefault:"30s"`
}
