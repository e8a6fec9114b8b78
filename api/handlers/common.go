package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/BaSui01/eventually/api"
	"github.com/BaSui01/eventually/internal/ctxkeys"
	"github.com/BaSui01/eventually/types"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const (
	// maxBodyBytes 请求体上限
	maxBodyBytes = 1 << 20

	// DefaultLimit 与 MaxLimit 为列表接口的分页边界
	DefaultLimit = 100
	MaxLimit     = 1000
)

// =============================================================================
// 📦 响应辅助函数
// =============================================================================

// WriteJSON 写入 JSON 响应
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	// 状态码已写出，编码失败只能放弃
	_ = json.NewEncoder(w).Encode(data)
}

// ErrorWriter 统一的错误输出路径；Debug 为 true 时未知错误附带原始信息
type ErrorWriter struct {
	Logger *zap.Logger
	Debug  bool
}

// Write 将 err 转换为错误响应。*types.Error 按其错误码映射状态码，
// 其余错误一律为 500 INTERNAL_ERROR。
func (ew ErrorWriter) Write(w http.ResponseWriter, r *http.Request, err error) {
	logger := ew.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	resp := api.ErrorResponse{Success: false}
	if r != nil {
		resp.Path = r.URL.Path
	}

	var appErr *types.Error
	var status int
	if errors.As(err, &appErr) {
		status = appErr.Status()
		resp.ErrorCode = string(appErr.Code)
		resp.Message = appErr.Message
		if len(appErr.Detail) > 0 {
			resp.Detail = appErr.Detail
		}
	} else {
		status = http.StatusInternalServerError
		resp.ErrorCode = string(types.ErrInternalError)
		resp.Message = "An unexpected error occurred"
		if ew.Debug && err != nil {
			resp.Detail = map[string]any{"error": err.Error()}
		}
	}

	fields := []zap.Field{
		zap.String("code", resp.ErrorCode),
		zap.Int("status", status),
		zap.String("path", resp.Path),
		zap.Error(err),
	}
	if r != nil {
		if id, ok := ctxkeys.RequestID(r.Context()); ok {
			fields = append(fields, zap.String("request_id", id))
		}
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", fields...)
	} else {
		logger.Debug("request rejected", fields...)
	}

	WriteJSON(w, status, resp)
}

// NotFound chi 未匹配路由的处理器
func (ew ErrorWriter) NotFound(w http.ResponseWriter, r *http.Request) {
	ew.Write(w, r, types.NewNotFoundError("Not Found"))
}

// MethodNotAllowed chi 方法不匹配的处理器
func (ew ErrorWriter) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	ew.Write(w, r, types.NewError(types.ErrBadRequest, "Method Not Allowed").
		WithHTTPStatus(http.StatusMethodNotAllowed))
}

// =============================================================================
// 🛡️ 请求解析
// =============================================================================

// DecodeJSONBody 严格解码 JSON 请求体：拒绝未知字段与多余内容
func DecodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return types.NewError(types.ErrBadRequest, "request body is empty")
	}

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return types.NewError(types.ErrBadRequest, "request body too large").
				WithHTTPStatus(http.StatusRequestEntityTooLarge)
		}
		if errors.Is(err, io.EOF) {
			return types.NewError(types.ErrBadRequest, "request body is empty")
		}
		return types.NewValidationError("invalid JSON body").
			WithDetail("error", err.Error()).
			WithCause(err)
	}
	if dec.More() {
		return types.NewValidationError("request body must contain a single JSON object")
	}
	return nil
}

// PathID 解析路径参数 {name} 为正整数主键
func PathID(r *http.Request, name string) (uint, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, types.NewValidationError("invalid path parameter").
			WithDetail(name, fmt.Sprintf("%q is not a positive integer", raw))
	}
	return uint(id), nil
}

// Page 列表分页参数
type Page struct {
	Limit  int
	Offset int
}

// ParsePage 读取 limit（1..MaxLimit，缺省 DefaultLimit）与 offset（>=0，缺省 0）
func ParsePage(r *http.Request) (Page, error) {
	limit, err := QueryInt(r, "limit", DefaultLimit, 1, MaxLimit)
	if err != nil {
		return Page{}, err
	}
	offset, err := QueryInt(r, "offset", 0, 0, -1)
	if err != nil {
		return Page{}, err
	}
	return Page{Limit: limit, Offset: offset}, nil
}

// QueryInt 读取整数查询参数；maxVal 小于 0 表示无上限
func QueryInt(r *http.Request, name string, def, minVal, maxVal int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, types.NewValidationError("invalid query parameter").
			WithDetail(name, "must be an integer")
	}
	if v < minVal || (maxVal >= 0 && v > maxVal) {
		msg := fmt.Sprintf("must be >= %d", minVal)
		if maxVal >= 0 {
			msg = fmt.Sprintf("must be between %d and %d", minVal, maxVal)
		}
		return 0, types.NewValidationError("invalid query parameter").WithDetail(name, msg)
	}
	return v, nil
}

// QueryFloat 读取可选的非负浮点查询参数，缺省时返回 nil
func QueryFloat(r *http.Request, name string) (*float64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, types.NewValidationError("invalid query parameter").
			WithDetail(name, "must be a number")
	}
	if v < 0 {
		return nil, types.NewValidationError("invalid query parameter").
			WithDetail(name, "must be >= 0")
	}
	return &v, nil
}

// =============================================================================
// 📊 响应包装器
// =============================================================================

// ResponseWriter 包装 http.ResponseWriter 以捕获状态码与写出字节数
type ResponseWriter struct {
	http.ResponseWriter
	StatusCode int
	Bytes      int
	Written    bool
}

// NewResponseWriter 创建新的 ResponseWriter
func NewResponseWriter(w http.ResponseWriter) *ResponseWriter {
	return &ResponseWriter{ResponseWriter: w, StatusCode: http.StatusOK}
}

// WriteHeader 只记录第一次写入的状态码
func (rw *ResponseWriter) WriteHeader(code int) {
	if rw.Written {
		return
	}
	rw.StatusCode = code
	rw.Written = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *ResponseWriter) Write(b []byte) (int, error) {
	if !rw.Written {
		rw.WriteHeader(http.StatusOK)
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.Bytes += n
	return n, err
}

// Unwrap 供 http.ResponseController 访问底层连接
func (rw *ResponseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
