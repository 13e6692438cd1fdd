package domain

// WorkloadSnapshot is the derived load of one staff member.
type WorkloadSnapshot struct {
	StaffID              string
	ActiveComplaintCount int
	WeightedLoad         int
	WorkloadPercentage   float64
}

// Reassignment describes one complaint moved by workload balancing.
type Reassignment struct {
	ComplaintID string
	FromStaffID string
	ToStaffID   string
}

// BalanceReport summarizes a balancing run.
type BalanceReport struct {
	Mean    float64
	Moved   []Reassignment
	Skipped int
	Before  []WorkloadSnapshot
}
