package repository

import "errors"

var (
	ErrNotFound     = errors.New("задача не найдена")
	ErrInvalidQuery = errors.New("неверный запрос")
)
