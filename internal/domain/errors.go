package domain

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrBadSnapshot  = errors.New("malformed book snapshot")
	ErrWSDisconnect = errors.New("websocket disconnected")
)
