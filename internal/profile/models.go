package profile

import "time"

// Theme is one of the presets offered by the frontend theme selector.
type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"

	// DefaultTheme applies until the user stores a preference.
	DefaultTheme = ThemeLight
)

// ParseTheme validates a theme preset name.
func ParseTheme(value string) (Theme, error) {
	switch theme := Theme(value); theme {
	case ThemeLight, ThemeDark, ThemeSystem:
		return theme, nil
	default:
		return "", ErrInvalidTheme
	}
}

// Preferences holds the per-user display settings.
type Preferences struct {
	Theme     Theme
	UpdatedAt time.Time
}

// Avatar describes a stored profile image.
type Avatar struct {
	ContentType  string
	Size         int64
	ETag         string
	LastModified time.Time
}
