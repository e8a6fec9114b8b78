// =============================================================================
// 📦 eventually 配置加载器
// =============================================================================
// 统一配置加载，支持分层 env 文件 + 密钥 + 环境变量覆盖
//
// 使用方法:
//
//	cfg, err := config.NewLoader().
//	    WithEnvDir("env_files").
//	    WithConfigPath("config.yaml").
//	    Load()
//
// 配置优先级（高 → 低）:
// 环境变量 → 密钥文件 → env_files/.env_{env} → env_files/.env_base → YAML 文件 → 默认值
// =============================================================================
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/BaSui01/eventually/types"
	gomysql "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// 🎯 核心配置结构
// =============================================================================

// Config 是 eventually 的完整配置结构
type Config struct {
	// Env 部署环境
	Env Environment `yaml:"env" env:"ENV"`

	// Debug 调试模式（生产环境禁止开启）
	Debug bool `yaml:"debug" env:"DEBUG"`

	// Server 服务器配置
	Server ServerConfig `yaml:"server" env:"SERVER"`

	// Database 数据库配置
	Database DatabaseConfig `yaml:"database" env:"DATABASE"`

	// HTTPClient 出站 HTTP 客户端池配置
	HTTPClient HTTPClientConfig `yaml:"http_client" env:"HTTP_CLIENT"`

	// CORS 跨域配置
	CORS CORSConfig `yaml:"cors" env:"CORS"`

	// Log 日志配置
	Log LogConfig `yaml:"log" env:"LOG"`

	// Telemetry 遥测配置
	Telemetry TelemetryConfig `yaml:"telemetry" env:"TELEMETRY"`

	// Secrets 密钥加载配置
	Secrets SecretsConfig `yaml:"secrets" env:"SECRETS"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	// 监听地址
	Host string `yaml:"host" env:"HOST"`
	// HTTP 端口
	Port int `yaml:"port" env:"PORT"`
	// Metrics 端口（0 表示不启动）
	MetricsPort int `yaml:"metrics_port" env:"METRICS_PORT"`
	// 读取超时
	ReadTimeout time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	// 写入超时
	WriteTimeout time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	// 优雅关闭超时
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
	// 每个 IP 每秒请求数
	RateLimitRPS int `yaml:"rate_limit_rps" env:"RATE_LIMIT_RPS"`
	// 令牌桶突发容量
	RateLimitBurst int `yaml:"rate_limit_burst" env:"RATE_LIMIT_BURST"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	// 驱动类型: postgres, mysql, sqlite
	Driver string `yaml:"driver" env:"DRIVER"`
	// 主机
	Host string `yaml:"host" env:"HOST"`
	// 端口
	Port int `yaml:"port" env:"PORT"`
	// 用户名
	User string `yaml:"user" env:"USER"`
	// 密码
	Password string `yaml:"password" env:"PASSWORD"`
	// 数据库名（sqlite 下为文件路径）
	Name string `yaml:"name" env:"NAME"`
	// SSL 模式
	SSLMode string `yaml:"ssl_mode" env:"SSL_MODE"`
	// 常驻连接数
	PoolSize int `yaml:"pool_size" env:"POOL_SIZE"`
	// 超出 PoolSize 的额外连接数
	MaxOverflow int `yaml:"max_overflow" env:"MAX_OVERFLOW"`
	// 获取连接的等待超时
	PoolTimeout time.Duration `yaml:"pool_timeout" env:"POOL_TIMEOUT"`
	// 连接回收周期（最大生命周期）
	PoolRecycle time.Duration `yaml:"pool_recycle" env:"POOL_RECYCLE"`
	// 使用前探活
	PoolPrePing bool `yaml:"pool_pre_ping" env:"POOL_PRE_PING"`
	// 输出 SQL 日志
	Echo bool `yaml:"echo" env:"ECHO"`
	// 释放时等待进行中会话的宽限期
	DisposeGrace time.Duration `yaml:"dispose_grace" env:"DISPOSE_GRACE"`
	// 后台健康检查间隔（0 表示关闭）
	HealthCheckInterval time.Duration `yaml:"health_check_interval" env:"HEALTH_CHECK_INTERVAL"`
}

// HTTPClientConfig 出站 HTTP 客户端池配置
type HTTPClientConfig struct {
	// 建连超时
	ConnectTimeout time.Duration `yaml:"connect_timeout" env:"CONNECT_TIMEOUT"`
	// 读取响应超时（响应头 + 响应体）
	ReadTimeout time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	// 写入请求超时
	WriteTimeout time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	// 等待空闲连接超时
	PoolTimeout time.Duration `yaml:"pool_timeout" env:"POOL_TIMEOUT"`
	// 最大连接数
	MaxConnections int `yaml:"max_connections" env:"MAX_CONNECTIONS"`
	// 最大空闲（keep-alive）连接数
	MaxKeepalive int `yaml:"max_keepalive" env:"MAX_KEEPALIVE"`
	// keep-alive 过期时间
	KeepaliveExpiry time.Duration `yaml:"keepalive_expiry" env:"KEEPALIVE_EXPIRY"`
	// 最大重试次数
	MaxRetries int `yaml:"max_retries" env:"MAX_RETRIES"`
	// 启用 HTTP/2
	HTTP2 bool `yaml:"http2" env:"HTTP2"`
	// 校验 TLS 证书
	VerifySSL bool `yaml:"verify_ssl" env:"VERIFY_SSL"`
	// 跟随重定向
	FollowRedirects bool `yaml:"follow_redirects" env:"FOLLOW_REDIRECTS"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	// 允许的来源
	AllowOrigins []string `yaml:"allow_origins" env:"ALLOW_ORIGINS"`
	// 是否允许携带凭证
	AllowCredentials bool `yaml:"allow_credentials" env:"ALLOW_CREDENTIALS"`
	// 允许的方法（* 表示全部）
	AllowMethods []string `yaml:"allow_methods" env:"ALLOW_METHODS"`
	// 允许的请求头（* 表示全部）
	AllowHeaders []string `yaml:"allow_headers" env:"ALLOW_HEADERS"`
}

// LogConfig 日志配置
type LogConfig struct {
	// 日志级别: debug, info, warn, error
	Level string `yaml:"level" env:"LEVEL"`
	// 输出格式: json, console
	Format string `yaml:"format" env:"FORMAT"`
	// 输出路径
	OutputPaths []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
	// 是否启用调用者信息
	EnableCaller bool `yaml:"enable_caller" env:"ENABLE_CALLER"`
	// 是否启用堆栈跟踪
	EnableStacktrace bool `yaml:"enable_stacktrace" env:"ENABLE_STACKTRACE"`
}

// TelemetryConfig 遥测配置
type TelemetryConfig struct {
	// 是否启用
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// OTLP 端点
	OTLPEndpoint string `yaml:"otlp_endpoint" env:"OTLP_ENDPOINT"`
	// 服务名称
	ServiceName string `yaml:"service_name" env:"SERVICE_NAME"`
	// 采样率
	SampleRate float64 `yaml:"sample_rate" env:"SAMPLE_RATE"`
}

// SecretsConfig 密钥加载配置
type SecretsConfig struct {
	// 模式: file, env
	Mode string `yaml:"mode" env:"MODE"`
	// 密钥文件目录（为空时按环境推导）
	BasePath string `yaml:"base_path" env:"BASE_PATH"`
	// 项目名，用于 /etc/{project} 与 {PROJECT}_ 前缀
	ProjectName string `yaml:"project_name" env:"PROJECT_NAME"`
}

// =============================================================================
// 🔧 配置加载器
// =============================================================================

// lookupFunc 按键查找配置值
type lookupFunc func(key string) (string, bool)

// Loader 配置加载器（Builder 模式）
type Loader struct {
	configPath string
	envPrefix  string
	envDir     string
	env        Environment
	secrets    SecretsProvider
	validators []func(*Config) error
}

// NewLoader 创建新的配置加载器
func NewLoader() *Loader {
	return &Loader{
		envDir:     "env_files",
		validators: make([]func(*Config) error, 0),
	}
}

// WithConfigPath 设置 YAML 配置文件路径
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvPrefix 设置环境变量前缀（默认无前缀，例如 DATABASE_HOST）
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// WithEnvDir 设置 env 文件目录
func (l *Loader) WithEnvDir(dir string) *Loader {
	l.envDir = dir
	return l
}

// WithEnvironment 强制指定环境，忽略 ENV 变量
func (l *Loader) WithEnvironment(env Environment) *Loader {
	l.env = env
	return l
}

// WithSecrets 注入自定义密钥来源
func (l *Loader) WithSecrets(p SecretsProvider) *Loader {
	l.secrets = p
	return l
}

// WithValidator 添加配置验证器
func (l *Loader) WithValidator(v func(*Config) error) *Loader {
	l.validators = append(l.validators, v)
	return l
}

// Load 加载配置并执行校验，任何失败都包装为 types.ErrConfiguration
func (l *Loader) Load() (*Config, error) {
	cfg, err := l.load()
	if err != nil {
		return nil, types.NewConfigurationError("failed to load configuration").WithCause(err)
	}
	return cfg, nil
}

func (l *Loader) load() (*Config, error) {
	// 1. 从默认值开始
	cfg := DefaultConfig()

	// 2. YAML 覆盖默认值
	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// 3. 读取 env 文件
	base, err := readEnvFile(filepath.Join(l.envDir, ".env_base"))
	if err != nil {
		return nil, err
	}

	env, err := l.resolveEnvironment(cfg, base)
	if err != nil {
		return nil, err
	}

	specific, err := readEnvFile(filepath.Join(l.envDir, ".env_"+env.String()))
	if err != nil {
		return nil, err
	}

	// 4. 密钥来源（模式本身也可以来自 env 文件）
	files := chain(mapLookup(specific), mapLookup(base))
	secrets := l.secrets
	if secrets == nil {
		secretsCfg := cfg.Secrets
		if err := l.setFieldsFromEnv(reflect.ValueOf(&secretsCfg).Elem(), l.key("SECRETS"), chain(os.LookupEnv, files)); err != nil {
			return nil, fmt.Errorf("failed to load secrets config: %w", err)
		}
		secrets, err = NewSecretsProvider(secretsCfg, env, l.envDir)
		if err != nil {
			return nil, err
		}
	}

	// 5. 按优先级覆盖
	lookup := chain(os.LookupEnv, secrets.Lookup, files)
	if err := l.setFieldsFromEnv(reflect.ValueOf(cfg).Elem(), l.envPrefix, lookup); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}
	cfg.Env = env

	// 6. 校验
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	for _, v := range l.validators {
		if err := v(cfg); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}
	}

	return cfg, nil
}

// resolveEnvironment 确定当前环境: 显式指定 → ENV → .env_base → YAML/默认值
func (l *Loader) resolveEnvironment(cfg *Config, base map[string]string) (Environment, error) {
	if l.env != "" {
		return ParseEnvironment(string(l.env))
	}

	key := l.key("ENV")
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		raw, ok = base[key]
	}
	if !ok || raw == "" {
		raw = string(cfg.Env)
	}

	env, err := ParseEnvironment(raw)
	if err != nil {
		return "", fmt.Errorf("invalid %s: %w", key, err)
	}
	return env, nil
}

// loadFromFile 从 YAML 文件加载配置
func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// 文件不存在，使用默认值
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// key 拼接环境变量键
func (l *Loader) key(tag string) string {
	return joinKey(l.envPrefix, tag)
}

func joinKey(prefix, tag string) string {
	if prefix == "" {
		return tag
	}
	return prefix + "_" + tag
}

// setFieldsFromEnv 递归设置结构体字段
func (l *Loader) setFieldsFromEnv(v reflect.Value, prefix string, lookup lookupFunc) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		// 获取 env tag
		envTag := fieldType.Tag.Get("env")
		if envTag == "" || envTag == "-" {
			continue
		}

		envKey := joinKey(prefix, envTag)

		// 如果是结构体，递归处理
		if field.Kind() == reflect.Struct {
			if err := l.setFieldsFromEnv(field, envKey, lookup); err != nil {
				return err
			}
			continue
		}

		envValue, ok := lookup(envKey)
		if !ok || envValue == "" {
			continue
		}

		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("failed to set %s: %w", envKey, err)
		}
	}

	return nil
}

// setFieldValue 设置字段值
func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		// time.Duration 支持 "15s" 与纯数字秒
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := parseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return err
			}
			field.SetInt(i)
		}

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetUint(u)

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)

	case reflect.Slice:
		// 支持逗号分隔与 JSON 风格 ["a","b"] 的字符串切片
		if field.Type().Elem().Kind() == reflect.String {
			field.Set(reflect.ValueOf(splitList(value)))
		}
	}

	return nil
}

func parseDuration(value string) (time.Duration, error) {
	if secs, err := strconv.ParseFloat(value, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	return time.ParseDuration(value)
}

func splitList(value string) []string {
	value = strings.TrimSpace(value)
	value = strings.TrimPrefix(value, "[")
	value = strings.TrimSuffix(value, "]")

	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Trim(strings.TrimSpace(p), `"'`)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// readEnvFile 读取 KEY=VALUE 文件；文件不存在视为空
func readEnvFile(path string) (map[string]string, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("failed to read env file %s: %w", path, err)
	}
	return values, nil
}

func mapLookup(m map[string]string) lookupFunc {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

// chain 按顺序查找，返回第一个非空值
func chain(sources ...lookupFunc) lookupFunc {
	return func(key string) (string, bool) {
		for _, src := range sources {
			if v, ok := src(key); ok && v != "" {
				return v, true
			}
		}
		return "", false
	}
}

// =============================================================================
// 🔍 辅助函数
// =============================================================================

// MustLoad 加载配置，失败时 panic
func MustLoad(path string) *Config {
	cfg, err := NewLoader().WithConfigPath(path).Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

// LoadFromEnv 仅从环境变量与默认 env 文件目录加载配置
func LoadFromEnv() (*Config, error) {
	return NewLoader().Load()
}

// Validate 验证配置
func (c *Config) Validate() error {
	var errs []error

	if !c.Env.Valid() {
		errs = append(errs, fmt.Errorf("unknown environment %q", c.Env))
	}
	if c.Env.IsProd() && c.Debug {
		errs = append(errs, errors.New("debug cannot be enabled in production"))
	}

	// 验证服务器配置
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, errors.New("invalid server port"))
	}
	if c.Server.MetricsPort < 0 || c.Server.MetricsPort > 65535 {
		errs = append(errs, errors.New("invalid metrics port"))
	}

	errs = append(errs, c.Database.validate(c.Env)...)
	errs = append(errs, c.HTTPClient.validate()...)

	switch c.Log.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("unsupported log format %q", c.Log.Format))
	}

	if len(errs) > 0 {
		return &ValidationError{Errs: errs}
	}
	return nil
}

func (d *DatabaseConfig) validate(env Environment) []error {
	var errs []error

	switch d.Driver {
	case "postgres", "mysql":
		if d.Host == "" {
			errs = append(errs, errors.New("database host is required"))
		}
		if d.User == "" {
			errs = append(errs, errors.New("database user is required"))
		}
		if d.Password == "" && !env.IsLocal() {
			errs = append(errs, errors.New("database password is required outside local environments"))
		}
		if d.Name == "" {
			errs = append(errs, errors.New("database name is required"))
		}
	case "sqlite":
		if d.Name == "" {
			errs = append(errs, errors.New("sqlite database path is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported database driver %q (supported: postgres, mysql, sqlite)", d.Driver))
	}

	if d.PoolSize <= 0 {
		errs = append(errs, errors.New("database pool_size must be positive"))
	}
	if d.MaxOverflow < 0 {
		errs = append(errs, errors.New("database max_overflow must not be negative"))
	}
	if d.PoolTimeout <= 0 {
		errs = append(errs, errors.New("database pool_timeout must be positive"))
	}
	if d.PoolRecycle < 0 {
		errs = append(errs, errors.New("database pool_recycle must not be negative"))
	}
	return errs
}

// Validate 单独校验 HTTP 客户端配置
func (h *HTTPClientConfig) Validate() error {
	if errs := h.validate(); len(errs) > 0 {
		return &ValidationError{Errs: errs}
	}
	return nil
}

func (h *HTTPClientConfig) validate() []error {
	var errs []error
	if h.MaxConnections <= 0 {
		errs = append(errs, errors.New("http client max_connections must be positive"))
	}
	if h.MaxKeepalive < 0 || h.MaxKeepalive > h.MaxConnections {
		errs = append(errs, errors.New("http client max_keepalive must be within [0, max_connections]"))
	}
	if h.MaxRetries < 0 {
		errs = append(errs, errors.New("http client max_retries must not be negative"))
	}
	if h.ConnectTimeout <= 0 || h.ReadTimeout <= 0 || h.WriteTimeout <= 0 || h.PoolTimeout <= 0 {
		errs = append(errs, errors.New("http client timeouts must be positive"))
	}
	return errs
}

// ValidationError 汇总的配置校验错误
type ValidationError struct {
	Errs []error
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Errs))
	for i, err := range e.Errs {
		msgs[i] = err.Error()
	}
	return "config validation errors: " + strings.Join(msgs, "; ")
}

// Unwrap 支持 errors.Is 遍历
func (e *ValidationError) Unwrap() []error { return e.Errs }

// DSN 返回数据库连接字符串；凭据中的特殊字符经过转义
func (d *DatabaseConfig) DSN() string {
	switch d.Driver {
	case "postgres":
		return PostgresURL(d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
	case "mysql":
		return MySQLDSN(d.Host, d.Port, d.User, d.Password, d.Name, false)
	case "sqlite":
		return d.Name
	default:
		return ""
	}
}

// PostgresURL 构建 postgres:// 连接串；sslMode 为空时省略
func PostgresURL(host string, port int, user, password, name, sslMode string) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(user, password),
		Host:   net.JoinHostPort(host, strconv.Itoa(port)),
		Path:   "/" + name,
	}
	if sslMode != "" {
		u.RawQuery = url.Values{"sslmode": []string{sslMode}}.Encode()
	}
	return u.String()
}

// MySQLDSN 构建 go-sql-driver 格式的连接串，始终开启 parseTime
func MySQLDSN(host string, port int, user, password, name string, multiStatements bool) string {
	c := gomysql.NewConfig()
	c.User = user
	c.Passwd = password
	c.Net = "tcp"
	c.Addr = net.JoinHostPort(host, strconv.Itoa(port))
	c.DBName = name
	c.ParseTime = true
	c.MultiStatements = multiStatements
	return c.FormatDSN()
}
