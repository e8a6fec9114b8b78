// Package tlsutil 提供出站 HTTP 客户端池使用的 TLS 默认配置
// （TLS 1.2+，仅 AEAD 密码套件），并支持按配置关闭证书校验。
package tlsutil
