package directory

import (
	"strings"

	"github.com/spec-kit/complaint-service/internal/config"
	"github.com/spec-kit/complaint-service/internal/domain"
)

// NewStaticFromConfig builds a Static directory from the seed in cfg.
// Call cfg.Validate first; entries are taken as given.
func NewStaticFromConfig(cfg config.DirectoryConfig) *Static {
	dir := NewStatic()
	for _, s := range cfg.Staff {
		dir.PutStaff(domain.StaffMember{
			ID:     s.ID,
			Name:   s.Name,
			Role:   domain.ActorRole(strings.ToUpper(s.Role)),
			Active: !s.Inactive,
		})
	}
	for _, p := range cfg.Projects {
		dir.AddMember(p.ID, p.Members...)
	}
	return dir
}
