package usercontext

// Shared Locals keys used across controllers and middlewares
const (
	KeyUserContext = "USER_CONTEXT"
	KeyUserUUID    = "user_uuid"
	KeyIsAdmin     = "isAdmin"
)
