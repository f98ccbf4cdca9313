package session

import (
	"github.com/bmatcuk/doublestar/v4"
	"gitlab.com/tozd/go/errors"

	"github.com/caltus/ggpk-explorer-sub001/pkg/operation"
)

// 🗺️ Region is a named byte range within the archive. Regions come from
// configuration; the core never derives them from archive content.
type Region struct {
	Name   string
	Offset int64
	Length int64
}

// Regions returns the session's configured regions.
func (s *Session) Regions() []Region {
	return s.regions
}

// RegionsMatching returns the regions whose names match the doublestar glob
// pattern. Region names use "/" as a hierarchy separator, so patterns like
// "data/**" work the way they do for file paths.
func (s *Session) RegionsMatching(pattern string) ([]Region, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, errors.Errorf("invalid region pattern %q", pattern)
	}
	var out []Region
	for _, r := range s.regions {
		ok, err := doublestar.Match(pattern, r.Name)
		if err != nil {
			return nil, errors.Errorf("matching region %q: %w", r.Name, err)
		}
		if ok {
			out = append(out, r)
		}
	}
	return out, nil
}

// 📖 ReadRegionAsync queues a read of the named region.
func (s *Session) ReadRegionAsync(name string) (*operation.Handle[[]byte], error) {
	for _, r := range s.regions {
		if r.Name == name {
			return s.ReadAsync(r.Offset, r.Length), nil
		}
	}
	return nil, errors.Errorf("region %q not configured", name)
}
