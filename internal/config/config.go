package config

import (
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	pkgconfig "github.com/weiawesome/disfake/pkg/config"
	"github.com/weiawesome/disfake/pkg/pubsub"
	"github.com/weiawesome/disfake/pkg/storage"
)

type Config struct {
	Server    ServerConfig
	Snowflake SnowflakeConfig
	Generator GeneratorConfig
	Gateway   GatewayConfig
	Tokens    TokensConfig
	Storage   storage.Config
	PubSub    pubsub.Config `mapstructure:"pubsub"`
	Log       LogConfig
}

type ServerConfig struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type SnowflakeConfig struct {
	Worker  int64 `mapstructure:"worker"`
	Process int64 `mapstructure:"process"`
}

type GeneratorConfig struct {
	// Seed feeds the engine's random source; 0 picks a random seed.
	Seed          int64  `mapstructure:"seed"`
	DefaultPolicy string `mapstructure:"default_policy"`
	MaxMembers    int    `mapstructure:"max_members"`
}

type GatewayConfig struct {
	HeartbeatInterval int           `mapstructure:"heartbeat_interval"`
	ResumeURL         string        `mapstructure:"resume_url"`
	ChannelOffset     time.Duration `mapstructure:"channel_offset"`
	JoinDelay         time.Duration `mapstructure:"join_delay"`
}

type TokensConfig struct {
	SessionKind    string        `mapstructure:"session_kind"`
	NanoIDSize     int           `mapstructure:"nanoid_size"`
	NanoIDAlphabet string        `mapstructure:"nanoid_alphabet"`
	CUID2Length    int           `mapstructure:"cuid2_length"`
	URLExpiry      time.Duration `mapstructure:"url_expiry"`
}

type LogConfig struct {
	Level  string
	Pretty bool
}

// Load reads ./config/config.yaml (if any) and the environment.
func Load() (*Config, error) {
	return LoadFrom(pkgconfig.GetEnv("DISFAKE_CONFIG_PATH", "./config"), "config")
}

// LoadFrom reads configName from configPath and the environment.
func LoadFrom(configPath, configName string) (*Config, error) {
	_, cfg, err := load(configPath, configName)
	return cfg, err
}

// LoadAndWatch is LoadFrom plus a watch on the config file: every change is decoded
// again and handed to onChange. Without a config file nothing is watched.
func LoadAndWatch(configPath, configName string, onChange func(*Config, error)) (*Config, error) {
	v, cfg, err := load(configPath, configName)
	if err != nil {
		return nil, err
	}
	pkgconfig.Watch(v, func(fsnotify.Event) {
		onChange(decode(v))
	})
	return cfg, nil
}

func load(configPath, configName string) (*viper.Viper, *Config, error) {
	v, err := pkgconfig.Load(configPath, configName, "DISFAKE")
	if err != nil {
		return nil, nil, err
	}

	// Set defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8095)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("snowflake.worker", 0)
	v.SetDefault("snowflake.process", 0)
	v.SetDefault("generator.seed", 0)
	v.SetDefault("generator.default_policy", "sparse")
	v.SetDefault("generator.max_members", 1000)
	v.SetDefault("gateway.heartbeat_interval", 1000)
	v.SetDefault("gateway.resume_url", "wss://gateway.discord.gg")
	v.SetDefault("gateway.channel_offset", 10*time.Second)
	v.SetDefault("gateway.join_delay", 24*time.Hour)
	v.SetDefault("tokens.session_kind", "uuid")
	v.SetDefault("tokens.nanoid_size", 21)
	v.SetDefault("tokens.nanoid_alphabet", "_-0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ")
	v.SetDefault("tokens.cuid2_length", 24)
	v.SetDefault("tokens.url_expiry", time.Hour)
	v.SetDefault("storage.driver", "local")
	v.SetDefault("storage.local.base_path", "./exports")
	v.SetDefault("storage.s3.region", "us-east-1")
	v.SetDefault("storage.s3.bucket", "disfake")
	v.SetDefault("storage.s3.use_path_style", true)
	v.SetDefault("pubsub.driver", "none")
	v.SetDefault("pubsub.redis.address", "localhost:6379")
	v.SetDefault("pubsub.redis.pool_size", 10)
	v.SetDefault("pubsub.redis.read_timeout", 3*time.Second)
	v.SetDefault("pubsub.redis.write_timeout", 3*time.Second)
	v.SetDefault("pubsub.kafka.brokers", "localhost:9092")
	v.SetDefault("pubsub.kafka.partitions", 4)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	// Bind environment variables
	v.BindEnv("server.port", "PORT")
	v.BindEnv("snowflake.worker", "SNOWFLAKE_WORKER")
	v.BindEnv("snowflake.process", "SNOWFLAKE_PROCESS")
	v.BindEnv("generator.seed", "GENERATOR_SEED")
	v.BindEnv("generator.default_policy", "GENERATOR_POLICY")
	v.BindEnv("gateway.heartbeat_interval", "HEARTBEAT_INTERVAL")
	v.BindEnv("tokens.session_kind", "SESSION_ID_KIND")
	v.BindEnv("storage.driver", "STORAGE_DRIVER")
	v.BindEnv("storage.local.base_path", "STORAGE_PATH")
	v.BindEnv("storage.s3.endpoint", "S3_ENDPOINT")
	v.BindEnv("storage.s3.bucket", "S3_BUCKET")
	v.BindEnv("storage.s3.access_key_id", "S3_ACCESS_KEY_ID")
	v.BindEnv("storage.s3.secret_access_key", "S3_SECRET_ACCESS_KEY")
	v.BindEnv("pubsub.driver", "PUBSUB_DRIVER")
	v.BindEnv("pubsub.redis.address", "REDIS_ADDRESS")
	v.BindEnv("pubsub.redis.password", "REDIS_PASSWORD")
	v.BindEnv("pubsub.kafka.brokers", "KAFKA_BROKERS")
	v.BindEnv("log.level", "LOG_LEVEL")

	cfg, err := decode(v)
	if err != nil {
		return nil, nil, err
	}
	return v, cfg, nil
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
