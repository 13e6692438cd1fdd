package repository

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/complaint-service/internal/domain"
	apperrors "github.com/spec-kit/complaint-service/pkg/util/errorutil"
)

const complaintColumns = `id, project_id, client_id, title, description, status, priority,
               assignee_id, resolution_comment, version, created_at, updated_at`

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type complaintRepository struct {
	q querier
}

func (r *complaintRepository) Create(ctx context.Context, complaint *domain.Complaint) error {
	if complaint.ID == "" {
		complaint.ID = uuid.NewString()
	}
	const query = `
        INSERT INTO complaints (id, project_id, client_id, title, description, status, priority, assignee_id, resolution_comment)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING version, created_at, updated_at`
	return r.q.QueryRow(ctx, query,
		complaint.ID,
		complaint.ProjectID,
		complaint.ClientID,
		complaint.Title,
		complaint.Description,
		complaint.Status,
		complaint.Priority,
		complaint.AssigneeID,
		complaint.ResolutionComment,
	).Scan(&complaint.Version, &complaint.CreatedAt, &complaint.UpdatedAt)
}

func (r *complaintRepository) GetByID(ctx context.Context, id string) (*domain.Complaint, error) {
	query := `SELECT ` + complaintColumns + ` FROM complaints WHERE id=$1`
	complaint, err := scanComplaint(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NewNotFound("complaint", map[string]any{"complaint_id": id})
	}
	return complaint, err
}

// CompareAndUpdate writes with a WHERE clause on both status and version,
// so a concurrent writer that slipped in after the read makes the UPDATE
// match zero rows.
func (r *complaintRepository) CompareAndUpdate(ctx context.Context, id string, expected domain.ComplaintStatus, mutate Mutator) (*domain.Complaint, error) {
	current, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status != expected {
		return nil, staleStatus(id, expected, current.Status)
	}
	next, err := ApplyMutator(current, mutate)
	if err != nil {
		return nil, err
	}

	const query = `
        UPDATE complaints SET title=$1, description=$2, status=$3, priority=$4, assignee_id=$5,
            resolution_comment=$6, version=version+1, updated_at=NOW()
        WHERE id=$7 AND status=$8 AND version=$9
        RETURNING version, updated_at`
	err = r.q.QueryRow(ctx, query,
		next.Title,
		next.Description,
		next.Status,
		next.Priority,
		next.AssigneeID,
		next.ResolutionComment,
		id,
		expected,
		current.Version,
	).Scan(&next.Version, &next.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, staleStatus(id, expected, "")
	}
	if err != nil {
		return nil, err
	}
	return next, nil
}

func (r *complaintRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.q.Exec(ctx, `DELETE FROM complaints WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return apperrors.NewNotFound("complaint", map[string]any{"complaint_id": id})
	}
	return nil
}

func (r *complaintRepository) ListByAssignees(ctx context.Context, filter AssigneeFilter) ([]domain.Complaint, error) {
	builder := psql.Select(complaintColumns).
		From("complaints").
		Where(sq.NotEq{"assignee_id": nil}).
		OrderBy("created_at ASC", "id ASC")
	if len(filter.AssigneeIDs) > 0 {
		builder = builder.Where(sq.Eq{"assignee_id": filter.AssigneeIDs})
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		builder = builder.Where(sq.Eq{"status": statuses})
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Complaint
	for rows.Next() {
		complaint, err := scanComplaint(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *complaint)
	}
	return result, rows.Err()
}

func scanComplaint(row pgx.Row) (*domain.Complaint, error) {
	var complaint domain.Complaint
	if err := row.Scan(
		&complaint.ID,
		&complaint.ProjectID,
		&complaint.ClientID,
		&complaint.Title,
		&complaint.Description,
		&complaint.Status,
		&complaint.Priority,
		&complaint.AssigneeID,
		&complaint.ResolutionComment,
		&complaint.Version,
		&complaint.CreatedAt,
		&complaint.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &complaint, nil
}

func staleStatus(id string, expected, actual domain.ComplaintStatus) error {
	details := map[string]any{
		"complaint_id": id,
		"expected":     string(expected),
	}
	if actual != "" {
		details["actual"] = string(actual)
	}
	return apperrors.NewConflict("complaint status changed concurrently", details)
}
