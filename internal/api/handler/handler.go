package handler

import (
	"anonchat/backend/internal/chathub"
	"anonchat/backend/internal/storage"
)

// Handler carries the dependencies of the HTTP surface: the realtime hub,
// the storage service and the JWT signing secret.
type Handler struct {
	Hub       *chathub.Hub
	Storage   storage.Storage
	JWTSecret []byte
}

func NewHandler(hub *chathub.Hub, s storage.Storage, jwtSecret []byte) *Handler {
	return &Handler{Hub: hub, Storage: s, JWTSecret: jwtSecret}
}
