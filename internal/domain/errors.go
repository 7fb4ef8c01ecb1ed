package domain

import "errors"

var (
	ErrFetchStatus        = errors.New("attachment download failed")
	ErrAttachmentTooLarge = errors.New("attachment too large")
	ErrImageDecode        = errors.New("cannot decode image")
	ErrPDFDecode          = errors.New("cannot read pdf")
	ErrEmptyCompletion    = errors.New("completion returned no text")
	ErrRateLimited        = errors.New("rate limited by provider")
	ErrProviderDown       = errors.New("provider unavailable")
)
