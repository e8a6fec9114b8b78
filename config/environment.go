package config

import (
	"fmt"
	"strings"
)

// Environment 部署环境标识
type Environment string

const (
	EnvLocal   Environment = "local"
	EnvDev     Environment = "dev"
	EnvUAT     Environment = "uat"
	EnvUATBiz  Environment = "uatbiz"
	EnvPreprod Environment = "preprod"
	EnvSanity  Environment = "sanity"
	EnvProd    Environment = "prod"
)

// Environments 返回全部合法环境（按发布流水线顺序）
func Environments() []Environment {
	return []Environment{EnvLocal, EnvDev, EnvUAT, EnvUATBiz, EnvPreprod, EnvSanity, EnvProd}
}

// ParseEnvironment 解析环境名，大小写不敏感
func ParseEnvironment(s string) (Environment, error) {
	env := Environment(strings.ToLower(strings.TrimSpace(s)))
	if !env.Valid() {
		return "", fmt.Errorf("unknown environment %q", s)
	}
	return env, nil
}

// Valid 判断是否为已知环境
func (e Environment) Valid() bool {
	for _, known := range Environments() {
		if e == known {
			return true
		}
	}
	return false
}

// IsProd 是否为生产环境
func (e Environment) IsProd() bool { return e == EnvProd }

// IsLocal 是否为本地或开发环境（允许宽松配置）
func (e Environment) IsLocal() bool { return e == EnvLocal || e == EnvDev }

func (e Environment) String() string { return string(e) }
