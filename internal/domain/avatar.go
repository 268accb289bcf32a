package domain

import "strings"

var avatarExt = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// AvatarExt returns the object extension for an accepted avatar content type.
// Media type parameters are ignored.
func AvatarExt(contentType string) (string, bool) {
	mt := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	ext, ok := avatarExt[mt]
	return ext, ok
}
