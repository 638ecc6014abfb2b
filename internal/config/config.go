package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type AppConfig struct {
	Env                 string `mapstructure:"env"`
	Port                string `mapstructure:"port"`
	ShutdownTimeoutSecs int    `mapstructure:"shutdown_timeout_seconds"`
	RequestTimeoutSecs  int    `mapstructure:"request_timeout_seconds"`
	// Storage selects the persistence backend: "mongo" or "memory".
	Storage string `mapstructure:"storage"`
	// SeedUsers populates the users collection in memory mode.
	SeedUsers []SeedUser `mapstructure:"seed_users"`
}

type SeedUser struct {
	ID       string `mapstructure:"id"`
	Username string `mapstructure:"username"`
	Name     string `mapstructure:"name"`
	Email    string `mapstructure:"email"`
	Role     string `mapstructure:"role"`
}

type MongoConfig struct {
	URI     string `mapstructure:"uri"`
	DB      string `mapstructure:"db"`
	Timeout int    `mapstructure:"connect_timeout_seconds"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type KafkaConfig struct {
	Enabled        bool     `mapstructure:"enabled"`
	Brokers        []string `mapstructure:"brokers"`
	TopicEvents    string   `mapstructure:"topic_events"`
	TopicActivity  string   `mapstructure:"topic_activity"`
	TopicDLQ       string   `mapstructure:"topic_dlq"`
	GroupID        string   `mapstructure:"group_id"`
	MaxRetries     int      `mapstructure:"max_retries"`
	RetryBackoffMs int      `mapstructure:"retry_backoff_ms"`
}

type JWTConfig struct {
	PublicKeyPath string `mapstructure:"public_key_path"`
}

type ChatConfig struct {
	RateLimitPerMin int `mapstructure:"rate_limit_per_min"`
}

// PollerConfig holds client poll intervals in seconds.
type PollerConfig struct {
	ConversationSecs  int `mapstructure:"conversation_seconds"`
	ThreadListSecs    int `mapstructure:"thread_list_seconds"`
	NotificationsSecs int `mapstructure:"notifications_seconds"`
	UnreadCountSecs   int `mapstructure:"unread_count_seconds"`
}

type Config struct {
	App    AppConfig    `mapstructure:"app"`
	Mongo  MongoConfig  `mapstructure:"mongodb"`
	Redis  RedisConfig  `mapstructure:"redis"`
	Kafka  KafkaConfig  `mapstructure:"kafka"`
	JWT    JWTConfig    `mapstructure:"jwt"`
	Chat   ChatConfig   `mapstructure:"chat"`
	Poller PollerConfig `mapstructure:"poller"`
	Log    struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`

	// derived values
	ShutdownTimeout time.Duration `mapstructure:"-"`
	RequestTimeout  time.Duration `mapstructure:"-"`
	ConnectTimeout  time.Duration `mapstructure:"-"`
}

// Dev reports whether the service runs with development logging.
func (c *Config) Dev() bool {
	return c.App.Env == "" || c.App.Env == "dev" || c.App.Env == "development"
}

// Load reads the yaml file at path (if non-empty) and lets environment
// variables override it, e.g. MONGODB_URI overrides mongodb.uri.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnv(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// bindEnv registers keys so AutomaticEnv can resolve them during Unmarshal
// even when no config file mentions them.
func bindEnv(v *viper.Viper) {
	for _, k := range []string{
		"app.env", "app.port", "app.shutdown_timeout_seconds", "app.request_timeout_seconds", "app.storage",
		"mongodb.uri", "mongodb.db", "mongodb.connect_timeout_seconds",
		"redis.enabled", "redis.addr", "redis.password", "redis.db",
		"kafka.enabled", "kafka.brokers", "kafka.topic_events", "kafka.topic_activity", "kafka.topic_dlq", "kafka.group_id",
		"kafka.max_retries", "kafka.retry_backoff_ms",
		"jwt.public_key_path",
		"chat.rate_limit_per_min",
		"poller.conversation_seconds", "poller.thread_list_seconds",
		"poller.notifications_seconds", "poller.unread_count_seconds",
		"log.level",
	} {
		_ = v.BindEnv(k)
	}
}

func applyDefaults(cfg *Config) {
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.App.Storage == "" {
		cfg.App.Storage = "mongo"
	}
	if cfg.App.ShutdownTimeoutSecs == 0 {
		cfg.App.ShutdownTimeoutSecs = 15
	}
	if cfg.App.RequestTimeoutSecs == 0 {
		cfg.App.RequestTimeoutSecs = 5
	}
	if cfg.Mongo.DB == "" {
		cfg.Mongo.DB = "campus"
	}
	if cfg.Mongo.Timeout == 0 {
		cfg.Mongo.Timeout = 10
	}
	if cfg.Kafka.TopicEvents == "" {
		cfg.Kafka.TopicEvents = "campus.chat.events"
	}
	if cfg.Kafka.TopicActivity == "" {
		cfg.Kafka.TopicActivity = "campus.activity"
	}
	if cfg.Kafka.TopicDLQ == "" {
		cfg.Kafka.TopicDLQ = cfg.Kafka.TopicActivity + ".dlq"
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = "campus-notifications"
	}
	if cfg.Kafka.MaxRetries == 0 {
		cfg.Kafka.MaxRetries = 5
	}
	if cfg.Kafka.RetryBackoffMs == 0 {
		cfg.Kafka.RetryBackoffMs = 500
	}
	if cfg.Chat.RateLimitPerMin == 0 {
		cfg.Chat.RateLimitPerMin = 60
	}
	cfg.Poller.applyDefaults()
	cfg.ShutdownTimeout = time.Duration(cfg.App.ShutdownTimeoutSecs) * time.Second
	cfg.RequestTimeout = time.Duration(cfg.App.RequestTimeoutSecs) * time.Second
	cfg.ConnectTimeout = time.Duration(cfg.Mongo.Timeout) * time.Second
}

func (p *PollerConfig) applyDefaults() {
	if p.ConversationSecs == 0 {
		p.ConversationSecs = 3
	}
	if p.ThreadListSecs == 0 {
		p.ThreadListSecs = 5
	}
	if p.NotificationsSecs == 0 {
		p.NotificationsSecs = 30
	}
	if p.UnreadCountSecs == 0 {
		p.UnreadCountSecs = 60
	}
}

// LoadPoller reads only the poller section, for client tools that have no
// server settings. A missing path yields the defaults.
func LoadPoller(path string) (PollerConfig, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, k := range []string{
		"poller.conversation_seconds", "poller.thread_list_seconds",
		"poller.notifications_seconds", "poller.unread_count_seconds",
	} {
		_ = v.BindEnv(k)
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return PollerConfig{}, err
		}
	}
	var cfg struct {
		Poller PollerConfig `mapstructure:"poller"`
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return PollerConfig{}, err
	}
	cfg.Poller.applyDefaults()
	return cfg.Poller, nil
}

func validate(cfg *Config) error {
	switch cfg.App.Storage {
	case "mongo":
		if cfg.Mongo.URI == "" {
			return errors.New("mongodb.uri missing")
		}
	case "memory":
	default:
		return errors.New("invalid app.storage (use mongo or memory)")
	}
	if cfg.Redis.Enabled && cfg.Redis.Addr == "" {
		return errors.New("redis.addr missing")
	}
	if cfg.Kafka.Enabled && len(cfg.Kafka.Brokers) == 0 {
		return errors.New("kafka.brokers missing")
	}
	for _, u := range cfg.App.SeedUsers {
		if u.ID == "" {
			return errors.New("app.seed_users entries need an id")
		}
	}
	if cfg.JWT.PublicKeyPath == "" {
		return errors.New("jwt.public_key_path missing")
	}
	return nil
}
