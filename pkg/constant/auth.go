package constant

const (
	ALREADY_EXISTS       = "%s already exists"
	CREATED              = "%s created successfully"
	INVALID_REQUEST      = "Invalid request payload"
	CANT_FIND            = "%s not found"
	INVALID_CREDENTIALS  = "invalid email or password"
	SOMETHING_WENT_WRONG = "something went wrong"
	INVALID_TOKEN        = "Invalid or expired token"
	TOKEN_EXPIRED        = "Token has expired"
	UNAUTHORIZED_ACCESS  = "unauthorized access"
)
