package tlsutil

import "crypto/tls"

// aeadCipherSuites TLS 1.2 下允许的 AEAD 密码套件（TLS 1.3 套件不可配置）
var aeadCipherSuites = []uint16{
	tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
	tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
	tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
	tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
	tls.TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305,
	tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305,
}

// DefaultTLSConfig returns a hardened TLS configuration.
// MinVersion TLS 1.2, AEAD-only cipher suites.
func DefaultTLSConfig() *tls.Config {
	suites := make([]uint16, len(aeadCipherSuites))
	copy(suites, aeadCipherSuites)
	return &tls.Config{
		MinVersion:   tls.VersionTLS12,
		CipherSuites: suites,
	}
}

// ClientTLSConfig 出站客户端 TLS 配置。verify=false 时跳过证书校验，
// 仅用于本地自签名证书的联调环境。
func ClientTLSConfig(verify bool) *tls.Config {
	cfg := DefaultTLSConfig()
	cfg.InsecureSkipVerify = !verify //nolint:gosec // 由 HTTP_CLIENT_VERIFY_SSL 显式关闭
	return cfg
}
