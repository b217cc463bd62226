package game

import "errors"

var (
	ErrRoomNotFound     = errors.New("room not found")
	ErrGameInProgress   = errors.New("game already in progress")
	ErrRoomFull         = errors.New("room is full")
	ErrDuplicateName    = errors.New("username already taken in this room")
	ErrNotEnoughPlayers = errors.New("not enough players to start")
	ErrNoUsesLeft       = errors.New("no secret uses left")
	ErrInvalidSystem    = errors.New("invalid system")
	ErrInvalidTarget    = errors.New("invalid vote target")
)
