package domain

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicateOrder = errors.New("order already processed")
	ErrUnknownTheme   = errors.New("unknown theme")
	ErrPreviewExpired = errors.New("preview expired")
	ErrNotPurchasable = errors.New("preview not purchasable")
)
