package container

import "fmt"

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
	StorageSQLite   = "sqlite"
	StorageRedis    = "redis"

	CacheNone  = "none"
	CacheLocal = "local"
	CacheRedis = "redis"

	BrokerMemory = "memory"
	BrokerRedis  = "redis"
)

// Options is the server configuration, read by humacli from flags and SERVICE_* variables.
type Options struct {
	Port         int    `default:"8888"                                help:"Port to listen on"                                                short:"p"`
	BaseURL      string `default:""                                    help:"Public base URL for short links, default http://localhost:<port>"`
	CodeLength   int    `default:"7"                                   help:"Length of generated short codes"                                  short:"c"`
	MaxURLLength int    `default:"2048"                                help:"Longest URL accepted for shortening"`
	Storage      string `default:"memory"                              help:"Storage backend: memory, postgres, sqlite or redis"               short:"s"`
	DatabaseURL  string `default:"postgres://localhost:5432/shortener" help:"Postgres connection string"`
	SQLitePath   string `default:"shortener.db"                        help:"SQLite database file"`
	RedisAddr    string `default:"localhost:6379"                      help:"Redis server address"                                             short:"r"`
	Cache        string `default:"none"                                help:"Lookup cache in front of storage: none, local or redis"`
	CacheTTL     int    `default:"300"                                 help:"Cache entry lifetime in seconds"`
	LocalCacheMB int    `default:"64"                                  help:"Upper bound of the local cache in megabytes"`
	Broker       string `default:"memory"                              help:"Event broker: memory or redis"`
	RateLimit    string `default:"memory"                              help:"Rate limit counter store: memory or redis"`
	JWTSecret    string `default:""                                    help:"HS256 key for bearer tokens"`
	TokenTTL     int    `default:"86400"                               help:"Bearer token lifetime in seconds"`
	LogFormat    string `default:"console"                             help:"Log format: console or json"`
	LogLevel     string `default:"info"                                help:"Log level"`
	LogFile      string `default:""                                    help:"Also write JSON logs to this rotated file"`
	SentryDSN    string `default:""                                    help:"Sentry DSN, empty disables error reporting"`
	Environment  string `default:"development"                         help:"Environment reported to Sentry"`
}

// PublicBaseURL returns the base URL short links are built on.
func (o *Options) PublicBaseURL() string {
	if o.BaseURL != "" {
		return o.BaseURL
	}

	return fmt.Sprintf("http://localhost:%d", o.Port)
}

// UsesRedis reports whether any component is configured to talk to Redis.
func (o *Options) UsesRedis() bool {
	return o.Storage == StorageRedis || o.Cache == CacheRedis || o.Broker == BrokerRedis || o.RateLimit == StorageRedis
}
