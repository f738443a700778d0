package errors

import (
	stderrors "errors"
	"fmt"
	"runtime"
	"strings"
	"time"
)

// ErrorCode 错误码类型
type ErrorCode int

// 错误码定义（按模块分组）
const (
	// 通用错误 (1000-1999)
	ErrUnknown          ErrorCode = 1000
	ErrInvalidParam     ErrorCode = 1001
	ErrNotFound         ErrorCode = 1002
	ErrAlreadyExists    ErrorCode = 1003
	ErrPermissionDenied ErrorCode = 1004
	ErrTimeout          ErrorCode = 1005
	ErrCanceled         ErrorCode = 1006
	ErrNotImplemented   ErrorCode = 1007

	// 游戏状态错误 (2000-2499)
	ErrGameNotActive        ErrorCode = 2000
	ErrGameAlreadyStarted   ErrorCode = 2001
	ErrGameFinished         ErrorCode = 2002
	ErrGameStateError       ErrorCode = 2003
	ErrNotYourTurn          ErrorCode = 2004
	ErrAlreadyParticipant   ErrorCode = 2005
	ErrNotParticipant       ErrorCode = 2006
	ErrNotHost              ErrorCode = 2007
	ErrPropertyOwned        ErrorCode = 2008
	ErrPropertyMortgaged    ErrorCode = 2009
	ErrPropertyNotMortgaged ErrorCode = 2010
	ErrHasBuildings         ErrorCode = 2011
	ErrNoMonopoly           ErrorCode = 2012
	ErrBuildingLimit        ErrorCode = 2013
	ErrNoBuildings          ErrorCode = 2014
	ErrNotBuildable         ErrorCode = 2015
	ErrAuctionInProgress    ErrorCode = 2016
	ErrAuctionNotActive     ErrorCode = 2017
	ErrBidTooLow            ErrorCode = 2018
	ErrTradeNotPending      ErrorCode = 2019
	ErrPassiveCard          ErrorCode = 2020
	ErrInvalidAmount        ErrorCode = 2021
	ErrNotOwner             ErrorCode = 2022

	// 资源不足 (2500-2999)
	ErrInsufficientFunds ErrorCode = 2500
	ErrJackpotEmpty      ErrorCode = 2501
	ErrDeckEmpty         ErrorCode = 2502
	ErrMarketSlotEmpty   ErrorCode = 2503

	// 并发与完整性冲突 (3000-3999)
	ErrConflict      ErrorCode = 3000
	ErrCardClaimed   ErrorCode = 3001
	ErrCodeCollision ErrorCode = 3002

	// 通信错误 (4000-4999)
	ErrWebSocketConnect ErrorCode = 4000
	ErrWebSocketSend    ErrorCode = 4001
	ErrWebSocketReceive ErrorCode = 4002
	ErrWebSocketClosed  ErrorCode = 4003
	ErrBrokerConnect    ErrorCode = 4004
	ErrBrokerPublish    ErrorCode = 4005
	ErrMessageFormat    ErrorCode = 4006

	// 数据库错误 (5000-5999)
	ErrDatabaseConnect ErrorCode = 5000
	ErrDatabaseQuery   ErrorCode = 5001
	ErrDatabaseInsert  ErrorCode = 5002
	ErrDatabaseUpdate  ErrorCode = 5003
	ErrDatabaseDelete  ErrorCode = 5004
	ErrTransaction     ErrorCode = 5005
	ErrDataIntegrity   ErrorCode = 5006

	// 配置错误 (6000-6999)
	ErrConfigLoad     ErrorCode = 6000
	ErrConfigParse    ErrorCode = 6001
	ErrConfigValidate ErrorCode = 6002
	ErrConfigMissing  ErrorCode = 6003

	// 安全错误 (7000-7999)
	ErrAuthentication    ErrorCode = 7000
	ErrAuthorization     ErrorCode = 7001
	ErrTokenExpired      ErrorCode = 7002
	ErrTokenInvalid      ErrorCode = 7003
	ErrRateLimitExceeded ErrorCode = 7004
	ErrEncryption        ErrorCode = 7005
	ErrDecryption        ErrorCode = 7006
)

// 错误码消息映射
var errorMessages = map[ErrorCode]string{
	// 通用错误
	ErrUnknown:          "未知错误",
	ErrInvalidParam:     "无效的参数",
	ErrNotFound:         "资源未找到",
	ErrAlreadyExists:    "资源已存在",
	ErrPermissionDenied: "权限不足",
	ErrTimeout:          "操作超时",
	ErrCanceled:         "操作已取消",
	ErrNotImplemented:   "功能未实现",

	// 游戏状态错误
	ErrGameNotActive:        "游戏未进行中",
	ErrGameAlreadyStarted:   "游戏已经开始",
	ErrGameFinished:         "游戏已结束",
	ErrGameStateError:       "游戏状态错误",
	ErrNotYourTurn:          "不是你的回合",
	ErrAlreadyParticipant:   "已经加入该游戏",
	ErrNotParticipant:       "不是该游戏的玩家",
	ErrNotHost:              "只有房主可以执行该操作",
	ErrPropertyOwned:        "地产已有主人",
	ErrPropertyMortgaged:    "地产已抵押",
	ErrPropertyNotMortgaged: "地产未抵押",
	ErrHasBuildings:         "地产上还有建筑",
	ErrNoMonopoly:           "未拥有完整色组",
	ErrBuildingLimit:        "建筑已达上限",
	ErrNoBuildings:          "没有可出售的建筑",
	ErrNotBuildable:         "该地产不可建造",
	ErrAuctionInProgress:    "已有进行中的拍卖",
	ErrAuctionNotActive:     "拍卖未进行中",
	ErrBidTooLow:            "出价过低",
	ErrTradeNotPending:      "交易已处理",
	ErrPassiveCard:          "被动卡牌不能手动使用",
	ErrInvalidAmount:        "无效的金额",
	ErrNotOwner:             "不是该资产的持有者",

	// 资源不足
	ErrInsufficientFunds: "余额不足",
	ErrJackpotEmpty:      "奖池为空",
	ErrDeckEmpty:         "牌堆为空",
	ErrMarketSlotEmpty:   "市场槽位为空",

	// 冲突
	ErrConflict:      "并发冲突",
	ErrCardClaimed:   "卡牌已被占用",
	ErrCodeCollision: "房间码冲突",

	// 通信错误
	ErrWebSocketConnect: "WebSocket连接失败",
	ErrWebSocketSend:    "WebSocket发送失败",
	ErrWebSocketReceive: "WebSocket接收失败",
	ErrWebSocketClosed:  "WebSocket连接已关闭",
	ErrBrokerConnect:    "消息代理连接失败",
	ErrBrokerPublish:    "消息发布失败",
	ErrMessageFormat:    "消息格式错误",

	// 数据库错误
	ErrDatabaseConnect: "数据库连接失败",
	ErrDatabaseQuery:   "数据库查询失败",
	ErrDatabaseInsert:  "数据库插入失败",
	ErrDatabaseUpdate:  "数据库更新失败",
	ErrDatabaseDelete:  "数据库删除失败",
	ErrTransaction:     "事务处理失败",
	ErrDataIntegrity:   "数据完整性错误",

	// 配置错误
	ErrConfigLoad:     "配置加载失败",
	ErrConfigParse:    "配置解析失败",
	ErrConfigValidate: "配置验证失败",
	ErrConfigMissing:  "配置项缺失",

	// 安全错误
	ErrAuthentication:    "认证失败",
	ErrAuthorization:     "授权失败",
	ErrTokenExpired:      "令牌已过期",
	ErrTokenInvalid:      "无效的令牌",
	ErrRateLimitExceeded: "请求频率超限",
	ErrEncryption:        "加密失败",
	ErrDecryption:        "解密失败",
}

// Kind 错误分类
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindInvalidState
	KindInsufficientResource
	KindConflict
	KindInfrastructure
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindInvalidState:
		return "invalid_state"
	case KindInsufficientResource:
		return "insufficient_resource"
	case KindConflict:
		return "conflict"
	case KindInfrastructure:
		return "infrastructure"
	default:
		return "unknown"
	}
}

// Kind 返回错误码所属分类
func (c ErrorCode) Kind() Kind {
	switch {
	case c == ErrNotFound:
		return KindNotFound
	case c >= 1001 && c <= 1004:
		return KindInvalidState
	case c >= 2000 && c <= 2499:
		return KindInvalidState
	case c >= 2500 && c <= 2999:
		return KindInsufficientResource
	case c >= 3000 && c <= 3999:
		return KindConflict
	case c >= 4000 && c <= 6999:
		return KindInfrastructure
	case c >= 7000 && c <= 7999:
		return KindInvalidState
	default:
		return KindUnknown
	}
}

// AppError 应用错误结构
type AppError struct {
	Code    ErrorCode    `json:"code"`            // 错误码
	Message string       `json:"message"`         // 错误消息
	Details string       `json:"details"`         // 详细信息
	Cause   error        `json:"-"`               // 原始错误
	Stack   []StackFrame `json:"stack,omitempty"` // 调用栈
}

// StackFrame 调用栈帧
type StackFrame struct {
	Function string `json:"function"`
	File     string `json:"file"`
	Line     int    `json:"line"`
}

// Error 实现error接口
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%d] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 返回原始错误
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetails 添加详细信息
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// WithCause 添加原因错误
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	if cause != nil && e.Details == "" {
		e.Details = cause.Error()
	}
	return e
}

// New 创建新的应用错误
func New(code ErrorCode, details ...string) *AppError {
	message, ok := errorMessages[code]
	if !ok {
		message = errorMessages[ErrUnknown]
	}

	err := &AppError{
		Code:    code,
		Message: message,
	}

	if len(details) > 0 {
		err.Details = strings.Join(details, "; ")
	}

	// 捕获调用栈
	err.captureStack(2)

	return err
}

// Newf 创建格式化的应用错误
func Newf(code ErrorCode, format string, args ...interface{}) *AppError {
	details := fmt.Sprintf(format, args...)
	return New(code, details)
}

// Wrap 包装错误
func Wrap(err error, code ErrorCode, details ...string) *AppError {
	if err == nil {
		return nil
	}

	// 如果已经是AppError，保留原始错误码
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		if len(details) > 0 {
			appErr.Details = strings.Join(details, "; ") + "; " + appErr.Details
		}
		return appErr
	}

	appErr = New(code, details...)
	appErr.Cause = err
	if appErr.Details == "" {
		appErr.Details = err.Error()
	}

	return appErr
}

// Wrapf 包装格式化错误
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *AppError {
	details := fmt.Sprintf(format, args...)
	return Wrap(err, code, details)
}

// As 提取错误链中的AppError
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Is 判断错误是否为指定错误码
func Is(err error, code ErrorCode) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == code
}

// GetCode 获取错误码
func GetCode(err error) ErrorCode {
	if err == nil {
		return 0
	}

	if appErr, ok := As(err); ok {
		return appErr.Code
	}

	return ErrUnknown
}

// KindOf 获取错误分类，非AppError视为基础设施错误
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	if appErr, ok := As(err); ok {
		return appErr.Code.Kind()
	}
	return KindInfrastructure
}

// captureStack 捕获调用栈
func (e *AppError) captureStack(skip int) {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(skip+1, pcs)

	if n > 0 {
		frames := runtime.CallersFrames(pcs[:n])
		for {
			frame, more := frames.Next()

			// 跳过runtime和本包的调用
			if strings.Contains(frame.Function, "runtime.") ||
				strings.Contains(frame.Function, "github.com/wfunc/monopoly-game/internal/errors") {
				if !more {
					break
				}
				continue
			}

			e.Stack = append(e.Stack, StackFrame{
				Function: frame.Function,
				File:     frame.File,
				Line:     frame.Line,
			})

			if !more {
				break
			}

			// 只保留前10个栈帧
			if len(e.Stack) >= 10 {
				break
			}
		}
	}
}

// GetStack 获取格式化的调用栈
func (e *AppError) GetStack() string {
	if len(e.Stack) == 0 {
		return ""
	}

	var builder strings.Builder
	for i, frame := range e.Stack {
		builder.WriteString(fmt.Sprintf("%d. %s\n   %s:%d\n",
			i+1, frame.Function, frame.File, frame.Line))
	}

	return builder.String()
}

// HTTPStatus 返回对应的HTTP状态码
func (e *AppError) HTTPStatus() int {
	switch {
	case e.Code == ErrInvalidParam:
		return 400 // Bad Request
	case e.Code == ErrNotFound:
		return 404 // Not Found
	case e.Code == ErrAlreadyExists:
		return 409 // Conflict
	case e.Code == ErrPermissionDenied, e.Code == ErrNotHost, e.Code == ErrNotParticipant, e.Code == ErrNotOwner:
		return 403 // Forbidden
	case e.Code == ErrTimeout:
		return 408 // Request Timeout
	case e.Code >= 2000 && e.Code <= 2499:
		return 409 // Conflict
	case e.Code >= 2500 && e.Code <= 2999:
		return 422 // Unprocessable Entity
	case e.Code >= 3000 && e.Code <= 3999:
		return 409 // Conflict
	case e.Code >= 7000 && e.Code <= 7003:
		return 401 // Unauthorized
	case e.Code == ErrRateLimitExceeded:
		return 429 // Too Many Requests
	case e.Code >= 4000 && e.Code <= 5999:
		return 503 // Service Unavailable
	default:
		return 500 // Internal Server Error
	}
}

// IsRetryable 判断错误是否可重试
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	code := GetCode(err)
	if code.Kind() == KindConflict {
		return true
	}
	switch code {
	case ErrTimeout,
		ErrWebSocketConnect,
		ErrBrokerConnect,
		ErrDatabaseConnect:
		return true
	default:
		return false
	}
}

// IsCritical 判断是否为严重错误
func IsCritical(err error) bool {
	if err == nil {
		return false
	}

	code := GetCode(err)
	switch code {
	case ErrDatabaseConnect,
		ErrConfigLoad,
		ErrConfigMissing,
		ErrDataIntegrity:
		return true
	default:
		return false
	}
}

// ErrorResponse API错误响应结构
type ErrorResponse struct {
	Success   bool      `json:"success"`
	Error     *AppError `json:"error,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	Timestamp int64     `json:"timestamp"`
}

// NewErrorResponse 创建错误响应
func NewErrorResponse(err *AppError, requestID string) *ErrorResponse {
	return &ErrorResponse{
		Success:   false,
		Error:     err,
		RequestID: requestID,
		Timestamp: time.Now().Unix(),
	}
}
