/*
Package errs provides custom error types and application-level error code constants.

This file maps every error code to its CustomError template, standardizing the
message and HTTP status used in responses.
*/
package errs

import "net/http"

// errorMap stores the CustomError template for every application error code.
var errorMap = map[int]CustomError{
	// 1xxx: General Request Handling Errors
	ErrInvalidParams:        {Code: ErrInvalidParams, Message: "Invalid request parameters.", Status: http.StatusBadRequest},
	ErrUnsupportedMediaType: {Code: ErrUnsupportedMediaType, Message: "Unsupported request format.", Status: http.StatusBadRequest},
	ErrInvalidJSONFormat:    {Code: ErrInvalidJSONFormat, Message: "Unsupported request format.", Status: http.StatusBadRequest},
	ErrExtraContentInBody:   {Code: ErrExtraContentInBody, Message: "Request contains unexpected data.", Status: http.StatusBadRequest},
	ErrRateLimitExceeded:    {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},

	// 2xxx: Room and Message Business Logic Errors
	ErrRoomNotFound:          {Code: ErrRoomNotFound, Message: "Chat room not found.", Status: http.StatusNotFound},
	ErrRoomTypeInvalid:       {Code: ErrRoomTypeInvalid, Message: "Invalid room type.", Status: http.StatusBadRequest},
	ErrNotRoomMember:         {Code: ErrNotRoomMember, Message: "You are not a member of this room.", Status: http.StatusForbidden},
	ErrMessageNotFound:       {Code: ErrMessageNotFound, Message: "Message not found.", Status: http.StatusNotFound},
	ErrMessageContentTooLong: {Code: ErrMessageContentTooLong, Message: "Message is too long.", Status: http.StatusBadRequest},
	ErrMessageKindInvalid:    {Code: ErrMessageKindInvalid, Message: "Invalid message type.", Status: http.StatusBadRequest},
	ErrAttachmentInvalid:     {Code: ErrAttachmentInvalid, Message: "Invalid attachment.", Status: http.StatusBadRequest},
	ErrFileSizeTooLarge:      {Code: ErrFileSizeTooLarge, Message: "File is too large.", Status: http.StatusBadRequest},
	ErrFileNotFound:          {Code: ErrFileNotFound, Message: "File not found.", Status: http.StatusNotFound},

	// 3xxx: User, Session, and Security Errors
	ErrInvalidCredentials: {Code: ErrInvalidCredentials, Message: "Invalid credentials", Status: http.StatusBadRequest},
	ErrAccountLocked:      {Code: ErrAccountLocked, Message: "Account is temporarily locked due to too many failed attempts. Try again in %d minutes", Status: http.StatusForbidden},
	ErrWeakPassword:       {Code: ErrWeakPassword, Message: "Password must be at least 8 characters and include uppercase, lowercase, number, and special character", Status: http.StatusBadRequest},
	ErrUserAlreadyExists:  {Code: ErrUserAlreadyExists, Message: "Username is already taken", Status: http.StatusBadRequest},
	ErrInvalidUsername:    {Code: ErrInvalidUsername, Message: "Invalid username.", Status: http.StatusBadRequest},
	ErrUnauthorized:       {Code: ErrUnauthorized, Message: "Please sign in to continue.", Status: http.StatusUnauthorized},
	ErrTokenExpired:       {Code: ErrTokenExpired, Message: "Token has expired, please login again", Status: http.StatusUnauthorized},
	ErrTokenInvalid:       {Code: ErrTokenInvalid, Message: "Invalid token", Status: http.StatusUnauthorized},
	ErrUserNotFound:       {Code: ErrUserNotFound, Message: "User not found", Status: http.StatusNotFound},

	// 5xxx: Internal System Errors
	ErrUnknown:                {Code: ErrUnknown, Message: "Internal server error", Status: http.StatusInternalServerError},
	ErrStorageTimeout:         {Code: ErrStorageTimeout, Message: "The operation timed out. Please try again.", Status: http.StatusInternalServerError},
	ErrFileStorageFailed:      {Code: ErrFileStorageFailed, Message: "File operation failed. Please try again.", Status: http.StatusInternalServerError},
	ErrFileStorageUnavailable: {Code: ErrFileStorageUnavailable, Message: "File storage is not available.", Status: http.StatusServiceUnavailable},
}
