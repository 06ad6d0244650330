package identity

import (
	"strings"

	hashid "github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// UUID derives a deterministic UUID from a stable key using go-hashid.
//
// Callers must ensure key construction prevents cross-entity collisions (prefix by domain/type).
func UUID(key string) uuid.UUID {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return uuid.Nil
	}
	uid, err := hashid.NewUUID(trimmed, hashid.WithHashAlgorithm(hashid.SHA256), hashid.WithNormalization(true))
	if err != nil || uid == uuid.Nil {
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(trimmed))
	}
	return uid
}

// HeadingKey returns a short stable token for heading text that has no
// usable slug, such as CJK or emoji-only titles.
func HeadingKey(text string) string {
	uid := UUID("blogfront:heading:" + text)
	if uid == uuid.Nil {
		return ""
	}
	return strings.ReplaceAll(uid.String(), "-", "")[:8]
}

// ArticleDraftID returns the id used for a locally composed article before
// the backend assigns one, keyed by author and slug.
func ArticleDraftID(author, slug string) uuid.UUID {
	return UUID("blogfront:draft:" + strings.ToLower(strings.TrimSpace(author)) + ":" + strings.ToLower(strings.TrimSpace(slug)))
}
