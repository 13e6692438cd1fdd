package service

import (
	"context"
	"time"

	"github.com/spec-kit/complaint-service/internal/directory"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/repository"
	"github.com/spec-kit/complaint-service/internal/repository/memory"
)

var (
	client      = domain.Actor{ID: "c1", Role: domain.RoleClient}
	otherClient = domain.Actor{ID: "c2", Role: domain.RoleClient}
	support1    = domain.Actor{ID: "s1", Role: domain.RoleSupport}
	support2    = domain.Actor{ID: "s2", Role: domain.RoleSupport}
	admin       = domain.Actor{ID: "a1", Role: domain.RoleAdmin}
)

type fixture struct {
	store      *memory.Store
	dir        *directory.Static
	recorder   *events.Recorder
	workload   *WorkloadService
	assignment *AssignmentService
	complaints *ComplaintService
}

type fixtureOptions struct {
	strategy  Strategy
	autoRoute bool
	dir       *directory.Static
}

func steppingClock() func() time.Time {
	base := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	n := 0
	return func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
}

// defaultDirectory: s1 and s2 serve p1, s3 serves p2, s9 is inactive,
// x1 is a client wrongly listed as a member, a1 is an admin on no project.
// Project "empty" exists but has no staff.
func defaultDirectory() *directory.Static {
	return directory.NewStatic().
		PutStaff(domain.StaffMember{ID: "s1", Name: "Sam", Role: domain.RoleSupport, Active: true}).
		PutStaff(domain.StaffMember{ID: "s2", Name: "Sky", Role: domain.RoleSupport, Active: true}).
		PutStaff(domain.StaffMember{ID: "s3", Name: "Sol", Role: domain.RoleSupport, Active: true}).
		PutStaff(domain.StaffMember{ID: "s9", Name: "Sid", Role: domain.RoleSupport, Active: false}).
		PutStaff(domain.StaffMember{ID: "x1", Name: "Xan", Role: domain.RoleClient, Active: true}).
		PutStaff(domain.StaffMember{ID: "a1", Name: "Ada", Role: domain.RoleAdmin, Active: true}).
		AddMember("p1", "s1", "s2", "s9", "x1").
		AddMember("p2", "s3").
		PutProject("empty")
}

func newFixture(opts fixtureOptions) *fixture {
	if opts.dir == nil {
		opts.dir = defaultDirectory()
	}
	store := memory.New(memory.WithClock(steppingClock()))
	f := &fixture{store: store, dir: opts.dir, recorder: &events.Recorder{}}
	f.wire(store, opts)
	return f
}

func (f *fixture) wire(store repository.Store, opts fixtureOptions) {
	f.workload = NewWorkloadService(store, f.dir, false)
	f.assignment = NewAssignmentService(AssignmentDependencies{
		Store:      store,
		Directory:  f.dir,
		Workload:   f.workload,
		Dispatcher: f.recorder,
		Strategy:   opts.strategy,
	})
	f.complaints = NewComplaintService(ComplaintDependencies{
		Store:             store,
		Assignment:        f.assignment,
		Dispatcher:        f.recorder,
		AutoRouteOnCreate: opts.autoRoute,
	})
}

// seed stores a complaint directly, bypassing the lifecycle.
func (f *fixture) seed(projectID, assignee string, status domain.ComplaintStatus, priority domain.ComplaintPriority) *domain.Complaint {
	c := &domain.Complaint{
		ProjectID: projectID,
		ClientID:  client.ID,
		Title:     "seeded",
		Status:    status,
		Priority:  priority,
	}
	if assignee != "" {
		c.AssigneeID = &assignee
	}
	if status == domain.StatusResolved || status == domain.StatusClosed {
		comment := "seeded fix"
		c.ResolutionComment = &comment
	}
	if err := f.store.Complaints().Create(context.Background(), c); err != nil {
		panic(err)
	}
	return c
}

type failingHistory struct {
	repository.HistoryRepository
	err error
}

func (h failingHistory) Append(context.Context, *domain.HistoryEntry) error {
	return h.err
}

// failingHistoryStore fails every history append made inside a
// transaction.
type failingHistoryStore struct {
	repository.Store
	err error
}

func (s *failingHistoryStore) History() repository.HistoryRepository {
	return failingHistory{HistoryRepository: s.Store.History(), err: s.err}
}

func (s *failingHistoryStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Store) error) error {
	return s.Store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		return fn(ctx, &failingHistoryStore{Store: tx, err: s.err})
	})
}

func strPtr(s string) *string { return &s }

func repositoryFilterAll() repository.AssigneeFilter {
	return repository.AssigneeFilter{}
}
