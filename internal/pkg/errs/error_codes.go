/*
Package errs provides custom error types and application-level error code constants.

The codes identify specific business or system failures both internally and in
communication with clients.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates that the request Content-Type is not supported.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates that the request body JSON is malformed.
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates trailing content after valid JSON data.
	ErrExtraContentInBody = 1004

	// ErrRateLimitExceeded indicates the caller exhausted its request window.
	ErrRateLimitExceeded = 1005
)

// 2xxx: Room and Message Business Logic Errors
const (
	// ErrRoomNotFound indicates the referenced room does not exist.
	ErrRoomNotFound = 2101

	// ErrRoomTypeInvalid indicates an unsupported room visibility value.
	ErrRoomTypeInvalid = 2102

	// ErrNotRoomMember indicates the caller is not a member of the room.
	ErrNotRoomMember = 2103

	// ErrMessageNotFound indicates the referenced message does not exist.
	ErrMessageNotFound = 2201

	// ErrMessageContentTooLong indicates the message content exceeded the length limit.
	ErrMessageContentTooLong = 2202

	// ErrMessageKindInvalid indicates an unsupported message kind.
	ErrMessageKindInvalid = 2203

	// ErrAttachmentInvalid indicates a rejected attachment name, type, or key.
	ErrAttachmentInvalid = 2204

	// ErrFileSizeTooLarge indicates the attachment exceeded the size limit.
	ErrFileSizeTooLarge = 2205

	// ErrFileNotFound indicates the referenced file key has no stored object.
	ErrFileNotFound = 2206
)

// 3xxx: User, Session, and Security Errors
const (
	// ErrInvalidCredentials indicates an unknown username or wrong password.
	// The message is deliberately generic to avoid account enumeration.
	ErrInvalidCredentials = 3001

	// ErrAccountLocked indicates the account is locked after repeated failures.
	ErrAccountLocked = 3002

	// ErrWeakPassword indicates the password failed the strength policy.
	ErrWeakPassword = 3003

	// ErrUserAlreadyExists indicates the username is already taken.
	ErrUserAlreadyExists = 3004

	// ErrInvalidUsername indicates a malformed username.
	ErrInvalidUsername = 3005

	// ErrUnauthorized indicates a missing or unusable bearer token.
	ErrUnauthorized = 3100

	// ErrTokenExpired indicates the presented token's lifetime has elapsed.
	ErrTokenExpired = 3101

	// ErrTokenInvalid indicates a token that fails signature or format checks.
	ErrTokenInvalid = 3102

	// ErrUserNotFound indicates the token's subject no longer exists.
	ErrUserNotFound = 3103
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified internal server error.
	ErrUnknown = 5000

	// ErrStorageTimeout indicates a storage operation exceeded its deadline.
	ErrStorageTimeout = 5001

	// ErrFileStorageFailed indicates the object storage backend rejected an operation.
	ErrFileStorageFailed = 5002

	// ErrFileStorageUnavailable indicates attachment storage is not configured.
	ErrFileStorageUnavailable = 5003
)
