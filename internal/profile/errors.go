package profile

import "errors"

var (
	// ErrInvalidTheme indicates an unknown theme preset.
	ErrInvalidTheme = errors.New("invalid theme")
	// ErrAvatarNotFound signals that the user has not uploaded an avatar.
	ErrAvatarNotFound = errors.New("avatar not found")
	// ErrAvatarTooLarge signals that the upload exceeds the size limit.
	ErrAvatarTooLarge = errors.New("avatar too large")
	// ErrUnsupportedMediaType signals an avatar that is not a supported image.
	ErrUnsupportedMediaType = errors.New("unsupported media type")
)
