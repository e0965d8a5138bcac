package indexing

import (
	"crypto/md5" //nolint:gosec // gravatar addresses avatars by md5 of the email
	"encoding/hex"
	"net/url"
	"strconv"
	"strings"

	"github.com/kailas-cloud/geodex/internal/domain"
)

// DefaultAvatarSize is the pixel size requested for indexed avatars.
const DefaultAvatarSize = 240

const gravatarBase = "https://www.gravatar.com/avatar/"

// Gravatar resolves uploaded avatars under MediaURL and falls back to
// gravatar for profiles without an upload.
type Gravatar struct {
	MediaURL string
	Size     int
}

// URL returns the avatar image address at the configured size.
func (g Gravatar) URL(p *domain.Profile) string {
	size := g.Size
	if size <= 0 {
		size = DefaultAvatarSize
	}
	if p.AvatarPath != "" {
		return strings.TrimSuffix(g.MediaURL, "/") + "/" + strings.TrimPrefix(p.AvatarPath, "/")
	}

	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(p.Email)))) //nolint:gosec // see import
	q := url.Values{}
	q.Set("s", strconv.Itoa(size))
	q.Set("d", "identicon")
	return gravatarBase + hex.EncodeToString(sum[:]) + "?" + q.Encode()
}
