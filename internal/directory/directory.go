// Package directory answers who may be assigned complaints for a project.
// Staff records and project membership are owned by user and team
// management; the lifecycle core only reads them.
package directory

import (
	"context"
	"sort"
	"sync"

	"github.com/spec-kit/complaint-service/internal/domain"
	apperrors "github.com/spec-kit/complaint-service/pkg/util/errorutil"
)

// Directory is the outbound staff and membership lookup.
type Directory interface {
	// GetStaff returns a NOT_FOUND DomainError for unknown ids.
	GetStaff(ctx context.Context, staffID string) (*domain.StaffMember, error)
	// ListStaff returns every assignable staff member ordered by id.
	ListStaff(ctx context.Context) ([]domain.StaffMember, error)
	// ListEligibleStaff returns the ids of assignable staff who are members
	// of the project, ordered lexicographically.
	ListEligibleStaff(ctx context.Context, projectID string) ([]string, error)
	IsEligible(ctx context.Context, staffID, projectID string) (bool, error)
	// ProjectExists reports whether complaints may be filed against the
	// project.
	ProjectExists(ctx context.Context, projectID string) (bool, error)
}

// Static is an in-process Directory for development and tests.
type Static struct {
	mu      sync.RWMutex
	staff    map[string]domain.StaffMember
	projects map[string]bool
	members  map[string]map[string]bool
}

// NewStatic builds an empty Static directory.
func NewStatic() *Static {
	return &Static{
		staff:    make(map[string]domain.StaffMember),
		projects: make(map[string]bool),
		members:  make(map[string]map[string]bool),
	}
}

// PutStaff adds or replaces a staff record.
func (s *Static) PutStaff(member domain.StaffMember) *Static {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.staff[member.ID] = member
	return s
}

// PutProject registers projects that have no staff yet.
func (s *Static) PutProject(projectIDs ...string) *Static {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range projectIDs {
		s.projects[id] = true
	}
	return s
}

// AddMember grants staffIDs membership of projectID, registering the
// project if needed.
func (s *Static) AddMember(projectID string, staffIDs ...string) *Static {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects[projectID] = true
	set, ok := s.members[projectID]
	if !ok {
		set = make(map[string]bool)
		s.members[projectID] = set
	}
	for _, id := range staffIDs {
		set[id] = true
	}
	return s
}

// RemoveMember revokes membership.
func (s *Static) RemoveMember(projectID, staffID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.members[projectID], staffID)
}

func (s *Static) GetStaff(_ context.Context, staffID string) (*domain.StaffMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	member, ok := s.staff[staffID]
	if !ok {
		return nil, apperrors.NewNotFound("staff member", map[string]any{"staff_id": staffID})
	}
	return &member, nil
}

func (s *Static) ListStaff(_ context.Context) ([]domain.StaffMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.StaffMember{}
	for _, member := range s.staff {
		if member.Assignable() {
			out = append(out, member)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Static) ListEligibleStaff(_ context.Context, projectID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []string{}
	for id := range s.members[projectID] {
		member, ok := s.staff[id]
		if ok && member.Assignable() {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *Static) IsEligible(_ context.Context, staffID, projectID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	member, ok := s.staff[staffID]
	if !ok || !member.Assignable() {
		return false, nil
	}
	return s.members[projectID][staffID], nil
}

func (s *Static) ProjectExists(_ context.Context, projectID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.projects[projectID], nil
}
