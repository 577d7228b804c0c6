// Package usersvc runs the account use cases: user management, login sessions, OTP mail and
// authentication.
package usersvc
