package config

import (
	"log/slog"

	"github.com/urfave/cli/v3"
)

// Server holds server configuration
type Server struct {
	Addr         string
	MaxBodySize  int64
	CookieSecret string `masq:"secret"`
	SecureCookie bool
}

// Flags returns CLI flags for server configuration
func (c *Server) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "Server address",
			Value:       "localhost:8080",
			Destination: &c.Addr,
			Sources:     cli.EnvVars("SNIPZIP_ADDR"),
		},
		&cli.Int64Flag{
			Name:        "max-body-size",
			Usage:       "Maximum request body size in bytes",
			Value:       4 << 20,
			Destination: &c.MaxBodySize,
			Sources:     cli.EnvVars("SNIPZIP_MAX_BODY_SIZE"),
		},
		&cli.StringFlag{
			Name:        "cookie-secret",
			Usage:       "HMAC key signing session cookies (random per process if empty)",
			Destination: &c.CookieSecret,
			Sources:     cli.EnvVars("SNIPZIP_COOKIE_SECRET"),
		},
		&cli.BoolFlag{
			Name:        "secure-cookie",
			Usage:       "Send session cookies over HTTPS only",
			Destination: &c.SecureCookie,
			Sources:     cli.EnvVars("SNIPZIP_SECURE_COOKIE"),
		},
	}
}

// LogValue implements slog.LogValuer
func (c Server) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("addr", c.Addr),
		slog.Int64("max_body_size", c.MaxBodySize),
		slog.Bool("cookie_secret_set", c.CookieSecret != ""),
		slog.Bool("secure_cookie", c.SecureCookie),
	)
}
