package directory

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/complaint-service/internal/domain"
	apperrors "github.com/spec-kit/complaint-service/pkg/util/errorutil"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type postgresDirectory struct {
	pool *pgxpool.Pool
}

// NewPostgres reads projects, staff_members and project_members.
func NewPostgres(pool *pgxpool.Pool) Directory {
	return &postgresDirectory{pool: pool}
}

func (d *postgresDirectory) GetStaff(ctx context.Context, staffID string) (*domain.StaffMember, error) {
	const query = `SELECT id, name, role, active_flag FROM staff_members WHERE id=$1`

	var member domain.StaffMember
	err := d.pool.QueryRow(ctx, query, staffID).Scan(&member.ID, &member.Name, &member.Role, &member.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NewNotFound("staff member", map[string]any{"staff_id": staffID})
	}
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (d *postgresDirectory) ListStaff(ctx context.Context) ([]domain.StaffMember, error) {
	query, args, err := psql.Select("id", "name", "role", "active_flag").
		From("staff_members").
		Where(sq.Eq{"active_flag": true, "role": []string{string(domain.RoleSupport), string(domain.RoleAdmin)}}).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := d.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.StaffMember{}
	for rows.Next() {
		var member domain.StaffMember
		if err := rows.Scan(&member.ID, &member.Name, &member.Role, &member.Active); err != nil {
			return nil, err
		}
		result = append(result, member)
	}
	return result, rows.Err()
}

func (d *postgresDirectory) eligibleQuery(projectID string) sq.SelectBuilder {
	return psql.Select("s.id").
		From("staff_members s").
		Join("project_members pm ON pm.staff_id = s.id").
		Where(sq.Eq{
			"pm.project_id": projectID,
			"s.active_flag": true,
			"s.role":        []string{string(domain.RoleSupport), string(domain.RoleAdmin)},
		})
}

func (d *postgresDirectory) ListEligibleStaff(ctx context.Context, projectID string) ([]string, error) {
	query, args, err := d.eligibleQuery(projectID).OrderBy("s.id ASC").ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := d.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		result = append(result, id)
	}
	return result, rows.Err()
}

func (d *postgresDirectory) IsEligible(ctx context.Context, staffID, projectID string) (bool, error) {
	inner, args, err := d.eligibleQuery(projectID).Where(sq.Eq{"s.id": staffID}).ToSql()
	if err != nil {
		return false, err
	}
	var exists bool
	if err := d.pool.QueryRow(ctx, "SELECT EXISTS ("+inner+")", args...).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (d *postgresDirectory) ProjectExists(ctx context.Context, projectID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM projects WHERE id=$1 AND is_active)`

	var exists bool
	if err := d.pool.QueryRow(ctx, query, projectID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}
