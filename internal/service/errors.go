package service

import "errors"

// ErrEmailTaken is returned when registering with an email that already has an account.
var ErrEmailTaken = errors.New("e-mail is already being used")

// ErrInvalidCredentials is returned both for an unknown email and for a wrong
// password, so a caller cannot tell which accounts exist.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrAccessDenied is returned when a bookmark to update or delete is missing
// or belongs to another user. The two cases are not distinguished.
var ErrAccessDenied = errors.New("access to resources denied")

// ErrPasswordTooLong is returned when the password exceeds the 72 bytes
// bcrypt can hash. Multibyte characters count by their encoded size.
var ErrPasswordTooLong = errors.New("password must not exceed 72 bytes")
