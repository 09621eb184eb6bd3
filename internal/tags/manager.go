package tags

import (
	"context"
	"regexp"
	"strings"

	"transfercode/internal/logger"
)

var replaygainRe = regexp.MustCompile(`(?i)replaygain`)

// Manager bundles the tag operations the transfer pipeline needs:
// blacklist-filtered tag copying and checksum tag bookkeeping.
type Manager struct {
	raw      Editor
	filtered *Filtered
	log      logger.Logger
}

// NewManager creates a Manager over the given editor
func NewManager(raw Editor, log logger.Logger) *Manager {
	if log == nil {
		log = logger.Nop()
	}
	return &Manager{
		raw:      raw,
		filtered: NewFiltered(raw, nil),
		log:      log,
	}
}

// CopyTags replaces the tags of dest with those of src, excluding
// blacklisted keys on both sides, and strips any gain-normalization
// metadata the transcoding engine may have written to dest.
func (m *Manager) CopyTags(ctx context.Context, src, dest string) error {
	srcTags, err := m.filtered.Read(ctx, src)
	if err != nil {
		return err
	}

	destTags, err := m.raw.Read(ctx, dest)
	if err != nil {
		return err
	}

	var del []string
	for k := range destTags {
		switch {
		case replaygainRe.MatchString(k):
			// Gain values computed for the source encoding are
			// meaningless after transcoding
			del = append(del, k)
		case m.filtered.Blacklisted(k):
			// Other format-internal tags stay untouched
		default:
			if _, present := srcTags[k]; !present {
				del = append(del, k)
			}
		}
	}

	m.log.Debug("copying tags", "src", src, "dest", dest, "tags", len(srcTags))
	return m.raw.Rewrite(ctx, dest, srcTags, del)
}

// ReadChecksum returns the checksum tag of path, or "" if the file
// lacks the tag. A file that cannot be read as media also yields "".
func (m *Manager) ReadChecksum(ctx context.Context, path string) string {
	all, err := m.raw.Read(ctx, path)
	if err != nil {
		m.log.Debug("could not read checksum tag", "path", path, "error", err)
		return ""
	}
	for k, v := range all {
		if strings.EqualFold(k, ChecksumKey) {
			return v
		}
	}
	return ""
}

// WriteChecksum saves the checksum tag into path. Failure to write is
// reported to the caller but is expected to be treated as non-fatal.
func (m *Manager) WriteChecksum(ctx context.Context, path, sum string) error {
	return m.raw.Rewrite(ctx, path, map[string]string{ChecksumKey: sum}, nil)
}
