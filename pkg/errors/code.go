package errors

// Module codes (AA).
const (
	// ModuleCommon is for base errors shared by every module.
	ModuleCommon = 0

	// ModuleEngine is for the decision engine (acl, authz).
	ModuleEngine = 1

	// ModuleStore is for policy persistence backends.
	ModuleStore = 10

	// ModuleWatcher is for change notification transports.
	ModuleWatcher = 12

	// ModuleServer is for the guardd server surface.
	ModuleServer = 4
)

// Category codes (BB).
const (
	// CategorySuccess indicates a successful operation.
	CategorySuccess = 0

	// CategoryRequest indicates request/validation errors (400).
	CategoryRequest = 1

	// CategoryAuth indicates authentication errors (401).
	CategoryAuth = 2

	// CategoryPermission indicates authorization errors (403).
	CategoryPermission = 3

	// CategoryResource indicates resource not found errors (404).
	CategoryResource = 4

	// CategoryConflict indicates conflict errors (409).
	CategoryConflict = 5

	// CategoryRateLimit indicates rate limiting errors (429).
	CategoryRateLimit = 6

	// CategoryInternal indicates internal errors (500).
	CategoryInternal = 7

	// CategoryDatabase indicates storage errors (500).
	CategoryDatabase = 8

	// CategoryNetwork indicates network errors (503).
	CategoryNetwork = 10

	// CategoryTimeout indicates timeout errors (504).
	CategoryTimeout = 11

	// CategoryConfig indicates configuration errors (500).
	CategoryConfig = 12
)

// MakeCode builds an error code from module, category, and sequence.
// Format: AABBCCC where AA=module, BB=category, CCC=sequence.
func MakeCode(module, category, sequence int) int {
	return module*100000 + category*1000 + sequence
}

// ParseCode splits an error code into module, category, and sequence.
func ParseCode(code int) (module, category, sequence int) {
	module = code / 100000
	category = (code % 100000) / 1000
	sequence = code % 1000
	return
}

// IsClientError reports whether the code maps to a 4xx class failure.
func IsClientError(code int) bool {
	_, category, _ := ParseCode(code)
	return category >= CategoryRequest && category <= CategoryRateLimit
}

// IsServerError reports whether the code maps to a 5xx class failure.
func IsServerError(code int) bool {
	_, category, _ := ParseCode(code)
	return category >= CategoryInternal && category <= CategoryConfig
}
