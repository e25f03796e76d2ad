// Package autolint holds shared metadata for the autolint tool.
package autolint

// Version is the current autolint release version.
const Version = "0.4.0"
