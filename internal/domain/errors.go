package domain

import "errors"

var (
	ErrNotFound          = errors.New("record not found")
	ErrProfileIncomplete = errors.New("name and email are required to create a profile")
)
