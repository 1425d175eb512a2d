package api

// apiVersion is the version reported in the OpenAPI document.
const apiVersion = "1.0.0"

// Cache-Control header values.
const (
	CacheOneDayPrivate = "private, max-age=86400"
	CacheNoStore       = "no-cache"
)
