package config

import (
	"flag"
	"net"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

type Config struct {
	Addr        string
	DBUrl       string
	TokenSecret string
	TokenTTL    time.Duration
	RefreshTTL  time.Duration
	Debug       bool

	EnvFile       string
	SubmitTimeout time.Duration
	LocalBuffer   int
	SessionTTL    time.Duration
	AdminEmail    string
	AdminPassword string

	StoreParams StoreParams
}

// ParseFlags reads the command line (without the program name), then the
// env file if there is one, then the store parameters from the
// environment. Variables already set win over the env file.
func ParseFlags(args []string) (cfg Config, err error) {
	fs := flag.NewFlagSet("qsurvey", flag.ContinueOnError)

	var host string
	fs.StringVar(&host, "host", "0.0.0.0", "listen host name (default 0.0.0.0)")
	var port uint
	fs.UintVar(&port, "port", 80, "listen port number (default 80)")
	fs.StringVar(&cfg.DBUrl, "db-url", "qsurvey.sqlite", "path to SQLite3 DB file (default qsurvey.sqlite)")
	fs.StringVar(&cfg.TokenSecret, "token-secret", "", "secret key for token encryption and decryption")
	var ttl uint
	fs.UintVar(&ttl, "token-ttl", 120, "token TTL in seconds (default 120)")
	var refreshTTL uint
	fs.UintVar(&refreshTTL, "refresh-ttl", 8760, "refresh token TTL in hours (default 8760)")
	fs.BoolVar(&cfg.Debug, "debug", false, "log at DEBUG level")

	fs.StringVar(&cfg.EnvFile, "env-file", ".env", "file with QSURVEY_* variables, ignored if missing (default .env)")
	var submitTimeout uint
	fs.UintVar(&submitTimeout, "submit-timeout", 10, "store write timeout for submissions in seconds (default 10)")
	fs.IntVar(&cfg.LocalBuffer, "local-buffer", 1000, "submissions kept locally when the store fails, 0 for no limit (default 1000)")
	var sessionTTL uint
	fs.UintVar(&sessionTTL, "session-ttl", 3600, "idle survey session lifetime in seconds (default 3600)")
	fs.StringVar(&cfg.AdminEmail, "admin-email", "", "create or update this admin account at startup")
	fs.StringVar(&cfg.AdminPassword, "admin-password", "", "password for -admin-email")

	if err = fs.Parse(args); err != nil {
		return
	}

	cfg.Addr = net.JoinHostPort(host, strconv.Itoa(int(port)))
	cfg.TokenTTL = time.Duration(ttl) * time.Second
	cfg.RefreshTTL = time.Duration(refreshTTL) * time.Hour
	cfg.SubmitTimeout = time.Duration(submitTimeout) * time.Second
	cfg.SessionTTL = time.Duration(sessionTTL) * time.Second

	if cfg.TokenSecret == "" {
		err = errors.New("missing parameter -token-secret")
		return
	}
	if cfg.AdminEmail != "" && cfg.AdminPassword == "" {
		err = errors.New("missing parameter -admin-password for -admin-email")
		return
	}

	if cfg.EnvFile != "" {
		err = godotenv.Load(cfg.EnvFile)
		if errors.Is(err, os.ErrNotExist) {
			err = nil
		}
		if err != nil {
			err = errors.Wrap(err, "config.env_file")
			return
		}
	}
	cfg.StoreParams = LoadStoreParams(os.Getenv)

	return
}

func (cfg Config) Url() (url string) {
	url = cfg.Addr
	url = regexp.MustCompile(`^0.0.0.0`).ReplaceAllString(url, "localhost")
	url = "http://" + url
	return
}
