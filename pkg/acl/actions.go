package acl

// Conventional action names. Actions are opaque values throughout the
// engine; these constants are a shared vocabulary for common operations,
// not an enum. Any value, including application-defined ones, works as an
// action.
const (
	// ActionCreate creates a new resource.
	ActionCreate = "create"

	// ActionReference links to or names a resource without reading it.
	ActionReference = "reference"

	// ActionRead reads a resource.
	ActionRead = "read"

	// ActionUpdate modifies a resource.
	ActionUpdate = "update"

	// ActionDelete removes a resource.
	ActionDelete = "delete"

	// ActionSecure changes the access control list of a resource.
	ActionSecure = "secure"
)
