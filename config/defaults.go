// =============================================================================
// 📦 eventually 默认配置
// =============================================================================
// 提供所有配置项的合理默认值
// =============================================================================
package config

import "time"

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Env:        EnvLocal,
		Debug:      false,
		Server:     DefaultServerConfig(),
		Database:   DefaultDatabaseConfig(),
		HTTPClient: DefaultHTTPClientConfig(),
		CORS:       DefaultCORSConfig(),
		Log:        DefaultLogConfig(),
		Telemetry:  DefaultTelemetryConfig(),
		Secrets:    DefaultSecretsConfig(),
	}
}

// DefaultServerConfig 返回默认服务器配置
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:            "127.0.0.1",
		Port:            8000,
		MetricsPort:     9091,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		ShutdownTimeout: 15 * time.Second,
		RateLimitRPS:    100,
		RateLimitBurst:  200,
	}
}

// DefaultDatabaseConfig 返回默认数据库配置
func DefaultDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Driver:              "postgres",
		Host:                "localhost",
		Port:                5432,
		User:                "postgres",
		Password:            "",
		Name:                "eventually",
		SSLMode:             "disable",
		PoolSize:            5,
		MaxOverflow:         10,
		PoolTimeout:         15 * time.Second,
		PoolRecycle:         900 * time.Second,
		PoolPrePing:         true,
		Echo:                false,
		DisposeGrace:        10 * time.Second,
		HealthCheckInterval: 30 * time.Second,
	}
}

// DefaultHTTPClientConfig 返回默认出站 HTTP 客户端配置
func DefaultHTTPClientConfig() HTTPClientConfig {
	return HTTPClientConfig{
		ConnectTimeout:  5 * time.Second,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		PoolTimeout:     30 * time.Second,
		MaxConnections:  100,
		MaxKeepalive:    20,
		KeepaliveExpiry: 30 * time.Second,
		MaxRetries:      3,
		HTTP2:           true,
		VerifySSL:       true,
		FollowRedirects: true,
	}
}

// DefaultCORSConfig 返回默认跨域配置
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowOrigins:     []string{"http://localhost:5173", "http://localhost:3000"},
		AllowCredentials: true,
		AllowMethods:     []string{"*"},
		AllowHeaders:     []string{"*"},
	}
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:            "info",
		Format:           "json",
		OutputPaths:      []string{"stdout"},
		EnableCaller:     true,
		EnableStacktrace: false,
	}
}

// DefaultTelemetryConfig 返回默认遥测配置
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:      false,
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "eventually",
		SampleRate:   0.1,
	}
}

// DefaultSecretsConfig 返回默认密钥配置
func DefaultSecretsConfig() SecretsConfig {
	return SecretsConfig{
		Mode:        string(SecretsModeFile),
		ProjectName: "eventually",
	}
}
