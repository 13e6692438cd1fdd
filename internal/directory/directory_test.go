package directory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/config"
	"github.com/spec-kit/complaint-service/internal/domain"
	apperrors "github.com/spec-kit/complaint-service/pkg/util/errorutil"
)

func seeded() *Static {
	return NewStatic().
		PutStaff(domain.StaffMember{ID: "s2", Role: domain.RoleSupport, Active: true}).
		PutStaff(domain.StaffMember{ID: "s1", Role: domain.RoleAdmin, Active: true}).
		PutStaff(domain.StaffMember{ID: "s3", Role: domain.RoleSupport, Active: false}).
		PutStaff(domain.StaffMember{ID: "c1", Role: domain.RoleClient, Active: true}).
		AddMember("p1", "s2", "s1", "s3", "c1")
}

func TestStaticListEligibleStaffFiltersAndSorts(t *testing.T) {
	ids, err := seeded().ListEligibleStaff(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, []string{"s1", "s2"}, ids)

	ids, err = seeded().ListEligibleStaff(context.Background(), "unknown")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestStaticIsEligible(t *testing.T) {
	dir := seeded()
	ctx := context.Background()

	ok, err := dir.IsEligible(ctx, "s1", "p1")
	require.NoError(t, err)
	assert.True(t, ok)

	for _, id := range []string{"s3", "c1", "nobody"} {
		ok, err = dir.IsEligible(ctx, id, "p1")
		require.NoError(t, err)
		assert.False(t, ok, id)
	}

	dir.RemoveMember("p1", "s1")
	ok, _ = dir.IsEligible(ctx, "s1", "p1")
	assert.False(t, ok)
}

func TestStaticGetStaffNotFound(t *testing.T) {
	_, err := seeded().GetStaff(context.Background(), "nobody")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestStaticListStaffSkipsUnassignable(t *testing.T) {
	members, err := seeded().ListStaff(context.Background())
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, "s1", members[0].ID)
	assert.Equal(t, "s2", members[1].ID)
}

func TestNewCachedWithoutClientReturnsNext(t *testing.T) {
	next := seeded()
	assert.Same(t, Directory(next), NewCached(next, nil, 0, zap.NewNop()))
}

func TestStaticProjectExists(t *testing.T) {
	dir := seeded().PutProject("p2")
	ctx := context.Background()

	for _, id := range []string{"p1", "p2"} {
		ok, err := dir.ProjectExists(ctx, id)
		require.NoError(t, err)
		assert.True(t, ok, id)
	}
	ok, err := dir.ProjectExists(ctx, "unknown")
	require.NoError(t, err)
	assert.False(t, ok)

	ids, err := dir.ListEligibleStaff(ctx, "p2")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestNewStaticFromConfig(t *testing.T) {
	dir := NewStaticFromConfig(config.DirectoryConfig{
		Staff: []config.StaffSeed{
			{ID: "s1", Name: "Sam", Role: "support"},
			{ID: "s2", Name: "Sky", Role: "SUPPORT", Inactive: true},
			{ID: "a1", Name: "Ada", Role: "ADMIN"},
		},
		Projects: []config.ProjectSeed{
			{ID: "p1", Members: []string{"s1", "s2", "a1"}},
			{ID: "p2"},
		},
	})
	ctx := context.Background()

	member, err := dir.GetStaff(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleSupport, member.Role)
	assert.True(t, member.Active)

	ids, err := dir.ListEligibleStaff(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "s1"}, ids)

	ok, err := dir.ProjectExists(ctx, "p2")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = dir.ProjectExists(ctx, "p3")
	require.NoError(t, err)
	assert.False(t, ok)
}
