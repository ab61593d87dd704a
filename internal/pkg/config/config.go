// internal/pkg/config/config.go
package config

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration 让 yaml 里可以直接写 "5s"、"30s" 这样的时长。
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config 汇总了服务启动所需的全部配置。
// 读取顺序：yaml 文件 -> 环境变量覆盖。
type Config struct {
	Service struct {
		Name string `yaml:"name"`
		Port int    `yaml:"port"`
	} `yaml:"service"`

	MySQL struct {
		DSN string `yaml:"dsn"`
	} `yaml:"mysql"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Kafka struct {
		Brokers []string `yaml:"brokers"`
		Topic   string   `yaml:"topic"`
	} `yaml:"kafka"`

	Lock struct {
		// Backend 可选 "redis" 或 "zookeeper"。
		Backend string   `yaml:"backend"`
		ZkHosts []string `yaml:"zk_hosts"`
		Wait    Duration `yaml:"wait"`
		TTL     Duration `yaml:"ttl"`
	} `yaml:"lock"`

	Jaeger struct {
		Endpoint string `yaml:"endpoint"`
	} `yaml:"jaeger"`

	Nacos struct {
		ServerAddrs string `yaml:"server_addrs"`
		Namespace   string `yaml:"namespace"`
		Group       string `yaml:"group"`
	} `yaml:"nacos"`
}

// Load 从 path 读取配置文件；path 为空时只使用默认值和环境变量。
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

func defaults() *Config {
	cfg := &Config{}
	cfg.Service.Name = "commerce-service"
	cfg.Service.Port = 8080
	cfg.MySQL.DSN = "root:root@tcp(localhost:3306)/vernont?charset=utf8mb4&parseTime=True&loc=Local"
	cfg.Redis.Addr = "localhost:6379"
	cfg.Kafka.Brokers = []string{"localhost:9092"}
	cfg.Kafka.Topic = "commerce.events"
	cfg.Lock.Backend = "redis"
	cfg.Lock.Wait = Duration(5 * time.Second)
	cfg.Lock.TTL = Duration(30 * time.Second)
	cfg.Jaeger.Endpoint = "http://localhost:14268/api/traces"
	cfg.Nacos.Group = "DEFAULT_GROUP"
	return cfg
}

func applyEnvOverrides(cfg *Config) {
	cfg.MySQL.DSN = getEnv("MYSQL_DSN", cfg.MySQL.DSN)
	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Jaeger.Endpoint = getEnv("JAEGER_ENDPOINT", cfg.Jaeger.Endpoint)
	cfg.Nacos.ServerAddrs = getEnv("NACOS_SERVER_ADDRS", cfg.Nacos.ServerAddrs)
	cfg.Nacos.Namespace = getEnv("NACOS_NAMESPACE", cfg.Nacos.Namespace)
	cfg.Nacos.Group = getEnv("NACOS_GROUP", cfg.Nacos.Group)
	if port, err := strconv.Atoi(getEnv("SERVICE_PORT", "")); err == nil && port > 0 {
		cfg.Service.Port = port
	}
}

// getEnv 从环境变量中读取配置，不存在时返回 fallback。
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
