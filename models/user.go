package models

const (
	// DefaultUserID is the single-profile fallback used when a request does
	// not identify a user explicitly.
	DefaultUserID = "default"
)
