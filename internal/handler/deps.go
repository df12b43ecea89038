package handler

import (
	"io"

	"oasip/internal/app/api"
	"oasip/internal/app/session"
	"oasip/internal/app/storage"
)

// AppDeps carries everything a command needs.
type AppDeps struct {
	Client   *api.Client
	Session  *session.Provider
	Registry *session.Registry

	// StorageService is nil when the attachment mirror is not configured.
	StorageService storage.StorageService

	Stdout io.Writer
	Stderr io.Writer
}
