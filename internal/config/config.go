package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server ServerConfig
	AI     AIConfig
	Speech SpeechConfig
	Data   DataConfig
	Fraud  FraudDBConfig
	Redis  RedisConfig
	Log    LogConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	fraud, err := loadFraudDBConfig()
	if err != nil {
		return nil, err
	}

	redis, err := loadRedisConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server: server,
		AI:     ai,
		Speech: loadSpeechConfig(),
		Data:   loadDataConfig(),
		Fraud:  fraud,
		Redis:  redis,
		Log: LogConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "text"),
		},
	}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr string
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// LLM providers understood by AIConfig.
const (
	ProviderArk    = "ark"
	ProviderGemini = "gemini"
)

// AIConfig 描述大模型相关配置。
type AIConfig struct {
	Provider      string
	APIKey        string
	AccessKey     string
	SecretKey     string
	Model         string
	BaseURL       string
	Region        string
	Temperature   *float64
	TopP          *float64
	MaxTokens     *int
	GeminiAPIKey  string
	GeminiModel   string
	MaxToolRounds int
}

// Enabled 表示是否提供了必需的密钥。
func (c AIConfig) Enabled() bool {
	switch c.Provider {
	case ProviderGemini:
		return c.GeminiAPIKey != "" && c.GeminiModel != ""
	default:
		return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
	}
}

// ArkChatModelConfig 把配置转换成 Ark 模型参数。
func (c AIConfig) ArkChatModelConfig() (*ark.ChatModelConfig, error) {
	if c.Model == "" || (c.APIKey == "" && (c.AccessKey == "" || c.SecretKey == "")) {
		return nil, fmt.Errorf("ark credentials or model missing: provide ARK_API_KEY + Model or an AK/SK pair")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	var maxTokens *int
	if c.MaxTokens != nil {
		val := *c.MaxTokens
		maxTokens = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	return cfg, nil
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("ARK_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	rounds := 4
	if override, err := parseOptionalIntEnv("MAX_TOOL_ROUNDS"); err != nil {
		return AIConfig{}, err
	} else if override != nil {
		if *override < 1 {
			rounds = 1
		} else {
			rounds = *override
		}
	}

	geminiKey := strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	provider := strings.ToLower(strings.TrimSpace(os.Getenv("LLM_PROVIDER")))
	switch provider {
	case "":
		// 未显式指定时，仅配置了 Gemini 密钥则走 Gemini。
		provider = ProviderArk
		if geminiKey != "" && strings.TrimSpace(os.Getenv("ARK_API_KEY")) == "" {
			provider = ProviderGemini
		}
	case ProviderArk, ProviderGemini:
	default:
		return AIConfig{}, fmt.Errorf("invalid LLM_PROVIDER value %q: must be %q or %q", provider, ProviderArk, ProviderGemini)
	}

	return AIConfig{
		Provider:      provider,
		APIKey:        strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:     strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:     strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:         strings.TrimSpace(os.Getenv("Model")),
		BaseURL:       getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:        getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature:   temperature,
		TopP:          topP,
		MaxTokens:     maxTokens,
		GeminiAPIKey:  geminiKey,
		GeminiModel:   getEnvOrDefault("GEMINI_MODEL", "gemini-2.5-flash"),
		MaxToolRounds: rounds,
	}, nil
}

// SpeechConfig names the hosted speech models the external pipeline should
// use. The backend never touches audio; these values are handed to clients.
type SpeechConfig struct {
	STTModel string
	TTSVoice string
	TTSStyle string
	Language string
}

func loadSpeechConfig() SpeechConfig {
	return SpeechConfig{
		STTModel: getEnvOrDefault("STT_MODEL", "nova-3"),
		TTSVoice: getEnvOrDefault("TTS_VOICE", "en-US-matthew"),
		TTSStyle: getEnvOrDefault("TTS_STYLE", "Conversation"),
		Language: getEnvOrDefault("SPEECH_LANGUAGE", "en-US"),
	}
}

// DataConfig 描述参考数据与落盘记录的位置。
type DataConfig struct {
	CatalogPath      string
	TutorContentPath string
	FAQPath          string
	OrdersDir        string
	LeadsDir         string
	GameSessionsDir  string
	WellnessLogPath  string
}

func loadDataConfig() DataConfig {
	base := getEnvOrDefault("DATA_DIR", ".")
	return DataConfig{
		CatalogPath:      getEnvOrDefault("CATALOG_PATH", filepath.Join(base, "sharedData", "catalog.json")),
		TutorContentPath: getEnvOrDefault("TUTOR_CONTENT_PATH", filepath.Join(base, "shared-data", "day4_tutor_content.json")),
		FAQPath:          getEnvOrDefault("FAQ_PATH", filepath.Join(base, "shared-data", "company_faq.json")),
		OrdersDir:        getEnvOrDefault("ORDERS_DIR", filepath.Join(base, "orders")),
		LeadsDir:         getEnvOrDefault("LEADS_DIR", filepath.Join(base, "leads")),
		GameSessionsDir:  getEnvOrDefault("GAME_SESSIONS_DIR", filepath.Join(base, "game_sessions")),
		WellnessLogPath:  getEnvOrDefault("WELLNESS_LOG_PATH", filepath.Join(base, "wellness_log.json")),
	}
}

// FraudDBConfig 描述欺诈案件库的连接信息。Driver 为空时使用内存存储。
type FraudDBConfig struct {
	Driver      string
	Host        string
	Port        int
	User        string
	Password    string
	Name        string
	AutoMigrate bool
}

// Enabled reports whether a relational store has been configured.
func (c FraudDBConfig) Enabled() bool {
	return c.Driver != ""
}

// DSN builds the driver specific connection string.
func (c FraudDBConfig) DSN() string {
	switch c.Driver {
	case "postgres":
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
			c.Host, c.User, c.Password, c.Name, c.Port)
	default:
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=true",
			c.User, c.Password, c.Host, c.Port, c.Name)
	}
}

func loadFraudDBConfig() (FraudDBConfig, error) {
	driver := strings.ToLower(strings.TrimSpace(os.Getenv("FRAUD_DB_DRIVER")))
	switch driver {
	case "", "mysql", "postgres":
	default:
		return FraudDBConfig{}, fmt.Errorf("invalid FRAUD_DB_DRIVER value %q", driver)
	}

	defaultPort := 3306
	if driver == "postgres" {
		defaultPort = 5432
	}
	port, err := parseOptionalIntEnv("MYSQL_PORT")
	if err != nil {
		return FraudDBConfig{}, err
	}
	if port == nil {
		port = &defaultPort
	}

	migrate, err := parseBoolEnv("FRAUD_DB_AUTOMIGRATE", false)
	if err != nil {
		return FraudDBConfig{}, err
	}

	return FraudDBConfig{
		Driver:      driver,
		Host:        getEnvOrDefault("MYSQL_HOST", "localhost"),
		Port:        *port,
		User:        strings.TrimSpace(os.Getenv("MYSQL_USER")),
		Password:    os.Getenv("MYSQL_PASS"),
		Name:        strings.TrimSpace(os.Getenv("MYSQL_NAME")),
		AutoMigrate: migrate,
	}, nil
}

// RedisConfig 描述可选的会话镜像存储。
type RedisConfig struct {
	Addr       string
	Password   string
	SessionTTL time.Duration
}

// Enabled reports whether a redis address has been configured.
func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

func loadRedisConfig() (RedisConfig, error) {
	ttl := 30 * time.Minute
	minutes, err := parseOptionalIntEnv("SESSION_TTL_MINUTES")
	if err != nil {
		return RedisConfig{}, err
	}
	if minutes != nil && *minutes > 0 {
		ttl = time.Duration(*minutes) * time.Minute
	}

	return RedisConfig{
		Addr:       strings.TrimSpace(os.Getenv("REDIS_URL")),
		Password:   os.Getenv("REDIS_PASSWORD"),
		SessionTTL: ttl,
	}, nil
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string
	Format string
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
