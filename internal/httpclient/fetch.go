package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// maxResponseBody FetchURL 默认的响应体上限
const maxResponseBody = 10 << 20

// ErrBodyTooLarge 响应体超过 FetchOptions.MaxBody
var ErrBodyTooLarge = errors.New("response body exceeds limit")

// FetchOptions FetchURL 请求参数
type FetchOptions struct {
	// Method 默认 GET
	Method string
	Header http.Header
	// JSON 非 nil 时序列化为请求体并设置 Content-Type
	JSON any
	// AllowErrorStatus 为 true 时非 2xx 不返回 StatusError
	AllowErrorStatus bool
	// Out 非 nil 时将响应体按 JSON 解码到 Out
	Out any
	// MaxBody 响应体上限字节数，0 取默认 10 MB；超出时返回 ErrBodyTooLarge
	MaxBody int64
}

// Response 已读取完毕的响应
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// DecodeJSON 将响应体解码到 v
func (r *Response) DecodeJSON(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response body: %w", err)
	}
	return nil
}

// StatusError 非 2xx 响应
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d %s", e.Method, e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// FetchURL 通过共享客户端发起请求并读取完整响应体
func (p *Pool) FetchURL(ctx context.Context, url string, opts FetchOptions) (*Response, error) {
	client, err := p.Client(ctx)
	if err != nil {
		return nil, err
	}

	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if opts.JSON != nil {
		data, err := json.Marshal(opts.JSON)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	for k, vs := range opts.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if opts.JSON != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if opts.Out != nil && req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	limit := opts.MaxBody
	if limit <= 0 {
		limit = maxResponseBody
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%s %s: %w (%d bytes)", method, url, ErrBodyTooLarge, limit)
	}
	out := &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: data}

	if !opts.AllowErrorStatus && (resp.StatusCode < 200 || resp.StatusCode > 299) {
		return out, &StatusError{Method: method, URL: url, StatusCode: resp.StatusCode, Body: data}
	}
	if opts.Out != nil {
		if err := out.DecodeJSON(opts.Out); err != nil {
			return out, err
		}
	}
	return out, nil
}
