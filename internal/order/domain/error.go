package domain

import "errors"

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrInvalidTonnes     = errors.New("tonnes out of range")
	ErrInvalidEthAddress = errors.New("invalid ethereum address")
	ErrInvalidTransition = errors.New("invalid order status transition")
)
