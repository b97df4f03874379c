// Package errors provides the structured error taxonomy used across glmkit.
//
// Every failure that leaves a component is an *AppError carrying a
// machine-readable code, so callers can tell a transport failure from a
// malformed response or an expired poll without parsing messages.
package errors
