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

// ErrInternal indicates an unclassified internal error.
var ErrInternal = Register(&Errno{
	Code:      MakeCode(ServiceCommon, CategoryInternal, 0),
	HTTP:      http.StatusInternalServerError,
	GRPCCode:  codes.Internal,
	MessageEN: "Internal error",
	MessageZH: "内部错误",
})

// ErrInvalidParam indicates an invalid command-line or option value.
var ErrInvalidParam = Register(&Errno{
	Code:      MakeCode(ServiceCommon, CategoryRequest, 1),
	HTTP:      http.StatusBadRequest,
	GRPCCode:  codes.InvalidArgument,
	MessageEN: "Invalid parameter",
	MessageZH: "参数无效",
})

// ============================================================================
// Configuration Errors (Category: 12)
// ============================================================================

var (
	// ErrConfigSourceUnavailable indicates the configuration file is missing or unreadable.
	ErrConfigSourceUnavailable = NewConfigError(ServiceBootstrap, 1).
					Message("Configuration source unavailable", "配置源不可用").
					MustBuild()

	// ErrConfigParse indicates the configuration file is syntactically malformed.
	ErrConfigParse = NewConfigError(ServiceBootstrap, 2).
			Message("Configuration parse error", "配置解析失败").
			MustBuild()

	// ErrConfigMissingField indicates a required key is absent from every source.
	ErrConfigMissingField = NewConfigError(ServiceBootstrap, 3).
				Message("Configuration missing required field", "缺少必需的配置项").
				MustBuild()

	// ErrConfigTypeMismatch indicates a value cannot be decoded into the field type.
	ErrConfigTypeMismatch = NewConfigError(ServiceBootstrap, 4).
				Message("Configuration type mismatch", "配置类型不匹配").
				MustBuild()
)

// ============================================================================
// Supervision Errors (Category: 07, 05, 11)
// ============================================================================

var (
	// ErrSubsystemStartup indicates a subsystem failed to start.
	ErrSubsystemStartup = NewInternalError(ServiceBootstrap, 1).
				Message("Subsystem failed to start", "子系统启动失败").
				MustBuild()

	// ErrSubsystemExited indicates a launched subsystem stopped unexpectedly.
	ErrSubsystemExited = NewInternalError(ServiceBootstrap, 2).
				Message("Subsystem exited unexpectedly", "子系统意外退出").
				MustBuild()

	// ErrSubsystemDuplicate indicates two descriptors share a name.
	ErrSubsystemDuplicate = NewBuilder(ServiceBootstrap, CategoryConflict, 1).
				HTTP(http.StatusConflict).
				GRPC(codes.AlreadyExists).
				Message("Subsystem already registered", "子系统重复注册").
				MustBuild()

	// ErrSubsystemReadyTimeout indicates a subsystem did not report readiness in time.
	ErrSubsystemReadyTimeout = NewTimeoutError(ServiceBootstrap, 1).
					Message("Subsystem readiness timed out", "子系统就绪超时").
					MustBuild()

	// ErrBootstrapState indicates an operation was attempted in the wrong bootstrap state.
	ErrBootstrapState = NewInternalError(ServiceBootstrap, 3).
				Message("Invalid bootstrap state", "启动状态无效").
				MustBuild()
)
