package config

import (
	"flag"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/flagx"
)

var allowedFlags = []string{"-a", "-w", "-m", "-d", "-s", "-k", "-t", "-l", "-q", "-r", "-p", "-v", "-f"}

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   gRPC bind address (e.g., ":50051")
//	-w string   HTTP bind address (e.g., ":8080")
//	-m string   user store: postgres or memory
//	-d string   PostgreSQL DSN
//	-s string   secret key
//	-k          accept API keys (bare, or -k=false)
//	-t string   session storage: token, memory, sqlite, redis
//	-l int      session lifetime, minutes (0 never expires)
//	-q string   SQLite session database path
//	-r string   Redis address
//	-p string   comma-separated extra provider names
//	-v string   log level
//	-f string   log format: text or json
//
// Only the flags above are taken from os.Args, so other components can
// define their own.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], allowedFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "address and port to run the gRPC server")
	fs.StringVar(&config.EndpointAddrHTTP, "w", config.EndpointAddrHTTP, "address and port to run the HTTP server")
	fs.StringVar(&config.UserStore, "m", config.UserStore, "user store (postgres, memory)")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.BoolVar(&config.APIKeyEnabled, "k", config.APIKeyEnabled, "accept API keys")
	fs.StringVar(&config.SessionStorage, "t", config.SessionStorage, "session storage (token, memory, sqlite, redis)")
	sessionTTL := fs.Int("l", int(config.SessionTTL.Minutes()), "session lifetime (in minutes)")
	fs.StringVar(&config.SQLitePath, "q", config.SQLitePath, "sqlite session database")
	fs.StringVar(&config.RedisAddr, "r", config.RedisAddr, "redis address")
	extra := fs.String("p", strings.Join(config.ExtraProviders, ","), "extra provider names, comma separated")
	fs.StringVar(&config.LogLevel, "v", config.LogLevel, "log level")
	fs.StringVar(&config.LogFormat, "f", config.LogFormat, "log format (text, json)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.SessionTTL = time.Duration(*sessionTTL) * time.Minute
	config.ExtraProviders = splitList(*extra)
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
