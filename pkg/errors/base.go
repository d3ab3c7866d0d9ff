package errors

import (
	"net/http"

	"google.golang.org/grpc/codes"
)

// OK represents a successful operation.
var OK = Register(&Errno{
	Code:      0,
	HTTP:      http.StatusOK,
	GRPCCode:  codes.OK,
	MessageEN: "Success",
	MessageZH: "成功",
})

// Common errors shared by every module.
var (
	// ErrBadRequest indicates a malformed request.
	ErrBadRequest = Register(&Errno{
		Code:      MakeCode(ModuleCommon, CategoryRequest, 0),
		HTTP:      http.StatusBadRequest,
		GRPCCode:  codes.InvalidArgument,
		MessageEN: "Bad request",
		MessageZH: "请求错误",
	})

	// ErrInvalidParam indicates an invalid parameter.
	ErrInvalidParam = Register(&Errno{
		Code:      MakeCode(ModuleCommon, CategoryRequest, 1),
		HTTP:      http.StatusBadRequest,
		GRPCCode:  codes.InvalidArgument,
		MessageEN: "Invalid parameter",
		MessageZH: "参数无效",
	})

	// ErrValidationFailed indicates validation failure.
	ErrValidationFailed = Register(&Errno{
		Code:      MakeCode(ModuleCommon, CategoryRequest, 2),
		HTTP:      http.StatusBadRequest,
		GRPCCode:  codes.InvalidArgument,
		MessageEN: "Validation failed",
		MessageZH: "验证失败",
	})

	// ErrUnauthorized indicates the request is not authenticated.
	ErrUnauthorized = Register(&Errno{
		Code:      MakeCode(ModuleCommon, CategoryAuth, 0),
		HTTP:      http.StatusUnauthorized,
		GRPCCode:  codes.Unauthenticated,
		MessageEN: "Unauthorized",
		MessageZH: "未认证",
	})

	// ErrInvalidToken indicates the token is invalid.
	ErrInvalidToken = Register(&Errno{
		Code:      MakeCode(ModuleCommon, CategoryAuth, 1),
		HTTP:      http.StatusUnauthorized,
		GRPCCode:  codes.Unauthenticated,
		MessageEN: "Invalid token",
		MessageZH: "令牌无效",
	})

	// ErrTokenExpired indicates the token has expired.
	ErrTokenExpired = Register(&Errno{
		Code:      MakeCode(ModuleCommon, CategoryAuth, 2),
		HTTP:      http.StatusUnauthorized,
		GRPCCode:  codes.Unauthenticated,
		MessageEN: "Token expired",
		MessageZH: "令牌已过期",
	})

	// ErrPermissionDenied indicates the principal may not perform the action.
	ErrPermissionDenied = Register(&Errno{
		Code:      MakeCode(ModuleCommon, CategoryPermission, 0),
		HTTP:      http.StatusForbidden,
		GRPCCode:  codes.PermissionDenied,
		MessageEN: "Permission denied",
		MessageZH: "权限不足",
	})

	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = Register(&Errno{
		Code:      MakeCode(ModuleCommon, CategoryResource, 0),
		HTTP:      http.StatusNotFound,
		GRPCCode:  codes.NotFound,
		MessageEN: "Resource not found",
		MessageZH: "资源不存在",
	})

	// ErrInternal indicates an unexpected internal failure.
	ErrInternal = Register(&Errno{
		Code:      MakeCode(ModuleCommon, CategoryInternal, 0),
		HTTP:      http.StatusInternalServerError,
		GRPCCode:  codes.Internal,
		MessageEN: "Internal server error",
		MessageZH: "服务器内部错误",
	})

	// ErrTimeout indicates the operation timed out.
	ErrTimeout = Register(&Errno{
		Code:      MakeCode(ModuleCommon, CategoryTimeout, 0),
		HTTP:      http.StatusGatewayTimeout,
		GRPCCode:  codes.DeadlineExceeded,
		MessageEN: "Operation timed out",
		MessageZH: "操作超时",
	})

	// ErrConfig indicates invalid configuration.
	ErrConfig = Register(&Errno{
		Code:      MakeCode(ModuleCommon, CategoryConfig, 0),
		HTTP:      http.StatusInternalServerError,
		GRPCCode:  codes.Internal,
		MessageEN: "Invalid configuration",
		MessageZH: "配置无效",
	})
)

// Decision engine errors.
var (
	// ErrInvalidStrategy indicates a strategy that cannot render decisions,
	// such as a nil strategy or one with missing predicate functions.
	ErrInvalidStrategy = NewRequestErr(ModuleEngine, 0,
		"Invalid decision strategy", "决策策略无效")

	// ErrInvalidQuery indicates a decision query missing required fields.
	ErrInvalidQuery = NewRequestErr(ModuleEngine, 1,
		"Invalid decision query", "决策查询无效")
)

// Policy store errors.
var (
	// ErrStoreUnavailable indicates the policy store cannot be reached.
	ErrStoreUnavailable = NewDatabaseErr(ModuleStore, 0,
		"Policy store unavailable", "策略存储不可用")

	// ErrStoreReadOnly indicates a write against a read-only store.
	ErrStoreReadOnly = NewRequestErr(ModuleStore, 0,
		"Policy store is read-only", "策略存储为只读")

	// ErrRecordNotFound indicates the policy record does not exist.
	ErrRecordNotFound = NewNotFoundErr(ModuleStore, 0,
		"Policy record not found", "策略记录不存在")

	// ErrRecordInvalid indicates a policy record that cannot be applied,
	// such as one with an unknown effect.
	ErrRecordInvalid = NewRequestErr(ModuleStore, 1,
		"Invalid policy record", "策略记录无效")

	// ErrRecordConflict indicates a conflicting policy record already exists.
	ErrRecordConflict = NewConflictErr(ModuleStore, 0,
		"Policy record conflict", "策略记录冲突")
)

// Watcher errors.
var (
	// ErrWatcherClosed indicates use of a watcher after Close.
	ErrWatcherClosed = NewInternalErr(ModuleWatcher, 0,
		"Watcher is closed", "监听器已关闭")
)
