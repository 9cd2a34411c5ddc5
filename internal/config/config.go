package config

import (
	"github.com/spf13/viper"
)

type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Analysis      AnalysisConfig      `mapstructure:"analysis"`
	VirusTotal    VirusTotalConfig    `mapstructure:"virustotal"`
	MalwareBazaar MalwareBazaarConfig `mapstructure:"malwarebazaar"`
	Classifier    ClassifierConfig    `mapstructure:"classifier"`
	RabbitMQ      RabbitMQConfig      `mapstructure:"rabbitmq"`
	Worker        WorkerConfig        `mapstructure:"worker"`
	Log           LogConfig           `mapstructure:"log"`
}

type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release
}

// AnalysisConfig 静态分析配置
type AnalysisConfig struct {
	TrustDataFile string `mapstructure:"trust_data_file"` // 信任库 JSON 文档
	InboundDir    string `mapstructure:"inbound_dir"`     // fsnotify 监听目录
	ResultDir     string `mapstructure:"result_dir"`      // 报告落盘目录
	MaxAPKSizeMB  int    `mapstructure:"max_apk_size_mb"` // 上传大小上限
}

// VirusTotalConfig VirusTotal 查询配置
type VirusTotalConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Timeout int    `mapstructure:"timeout"` // seconds
}

// MalwareBazaarConfig MalwareBazaar 查询配置
type MalwareBazaarConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
	APIURL  string `mapstructure:"api_url"`
	Timeout int    `mapstructure:"timeout"` // seconds
}

// ClassifierConfig 外部分类器配置
type ClassifierConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	ServerURL string `mapstructure:"server_url"`
	Timeout   int    `mapstructure:"timeout"` // seconds
}

type RabbitMQConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	VHost    string `mapstructure:"vhost"`
	Queue    string `mapstructure:"queue"`
}

type WorkerConfig struct {
	Concurrency int `mapstructure:"concurrency"` // Worker 数量
	QueueSize   int `mapstructure:"queue_size"`  // 任务队列大小
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, text
}

func Load(path string) (*Config, error) {
	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")

	// 环境变量覆盖（支持嵌套配置）
	viper.AutomaticEnv()

	// 绑定环境变量到嵌套配置路径
	viper.BindEnv("virustotal.api_key", "VT_API_KEY")
	viper.BindEnv("malwarebazaar.api_key", "MB_API_KEY")
	viper.BindEnv("classifier.server_url", "CLASSIFIER_URL")

	viper.BindEnv("rabbitmq.host", "RABBITMQ_HOST")
	viper.BindEnv("rabbitmq.port", "RABBITMQ_PORT")
	viper.BindEnv("rabbitmq.user", "RABBITMQ_USER")
	viper.BindEnv("rabbitmq.password", "RABBITMQ_PASS")

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// applyDefaults 补齐未配置项的缺省值
func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Analysis.MaxAPKSizeMB <= 0 {
		cfg.Analysis.MaxAPKSizeMB = 200
	}
	if cfg.VirusTotal.BaseURL == "" {
		cfg.VirusTotal.BaseURL = "https://www.virustotal.com/api/v3/files/"
	}
	if cfg.VirusTotal.Timeout <= 0 {
		cfg.VirusTotal.Timeout = 15
	}
	if cfg.MalwareBazaar.APIURL == "" {
		cfg.MalwareBazaar.APIURL = "https://mb-api.abuse.ch/api/v1/"
	}
	if cfg.MalwareBazaar.Timeout <= 0 {
		cfg.MalwareBazaar.Timeout = 15
	}
	if cfg.Classifier.Timeout <= 0 {
		cfg.Classifier.Timeout = 30
	}
	if cfg.Worker.Concurrency <= 0 {
		cfg.Worker.Concurrency = 4
	}
	if cfg.Worker.QueueSize <= 0 {
		cfg.Worker.QueueSize = 64
	}
}
