package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// =============================================================================
// 🔐 密钥加载
// =============================================================================
// 密钥优先级位于进程环境变量之后、环境配置文件之前。
// 自定义实现（Vault、云厂商密钥服务）只需满足 SecretsProvider 接口，
// 通过 Loader.WithSecrets 注入。
// =============================================================================

// SecretsMode 密钥加载模式
type SecretsMode string

const (
	// SecretsModeFile 从 {base_path}/.secrets_{env} 读取 KEY=VALUE
	SecretsModeFile SecretsMode = "file"
	// SecretsModeEnv 从 {PROJECT}_{NAME} 环境变量读取
	SecretsModeEnv SecretsMode = "env"
)

// SecretsProvider 密钥来源
type SecretsProvider interface {
	// Lookup 返回密钥值；不存在时 ok=false
	Lookup(name string) (string, bool)
}

// SecretsProviderFunc 函数适配器
type SecretsProviderFunc func(name string) (string, bool)

// Lookup 实现 SecretsProvider
func (f SecretsProviderFunc) Lookup(name string) (string, bool) { return f(name) }

// FileSecrets 基于密钥文件的实现，文件在构造时一次性读取
type FileSecrets struct {
	path   string
	values map[string]string
}

// NewFileSecrets 读取密钥文件；文件不存在视为空集合
func NewFileSecrets(path string) (*FileSecrets, error) {
	fs := &FileSecrets{path: path, values: map[string]string{}}

	values, err := godotenv.Read(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fs, nil
		}
		return nil, fmt.Errorf("failed to read secrets file %s: %w", path, err)
	}
	fs.values = values
	return fs, nil
}

// Path 返回密钥文件路径
func (f *FileSecrets) Path() string { return f.path }

// Lookup 实现 SecretsProvider
func (f *FileSecrets) Lookup(name string) (string, bool) {
	v, ok := f.values[name]
	return v, ok
}

// EnvSecrets 基于带项目前缀环境变量的实现
type EnvSecrets struct {
	project string
}

// NewEnvSecrets 创建环境变量密钥来源，例如 project=eventually 时
// DATABASE_PASSWORD 读取 EVENTUALLY_DATABASE_PASSWORD
func NewEnvSecrets(project string) *EnvSecrets {
	return &EnvSecrets{project: strings.ToUpper(project)}
}

// Lookup 实现 SecretsProvider
func (e *EnvSecrets) Lookup(name string) (string, bool) {
	v, ok := os.LookupEnv(e.project + "_" + name)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// SecretsFilePath 计算密钥文件路径。
// local/dev 默认使用 envDir，其余环境默认 /etc/{project}。
func SecretsFilePath(cfg SecretsConfig, env Environment, envDir string) string {
	base := cfg.BasePath
	if base == "" {
		if env.IsLocal() {
			base = envDir
		} else {
			base = filepath.Join("/etc", cfg.ProjectName)
		}
	}
	return filepath.Join(base, ".secrets_"+env.String())
}

// NewSecretsProvider 按配置模式构建密钥来源
func NewSecretsProvider(cfg SecretsConfig, env Environment, envDir string) (SecretsProvider, error) {
	switch SecretsMode(strings.ToLower(cfg.Mode)) {
	case SecretsModeFile, "":
		return NewFileSecrets(SecretsFilePath(cfg, env, envDir))
	case SecretsModeEnv:
		return NewEnvSecrets(cfg.ProjectName), nil
	default:
		return nil, fmt.Errorf("unsupported secrets mode %q (supported: file, env)", cfg.Mode)
	}
}
