package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/inovix/booking-api/internal/model"
)

// ServiceRepo provides CRUD operations for marketplace services.
// Services are administered by admins and browsed publicly; the
// reservation workflow only verifies their existence.
type ServiceRepo struct {
	db *sql.DB
}

// NewServiceRepo returns a new ServiceRepo bound to the given database.
func NewServiceRepo(db *sql.DB) *ServiceRepo { return &ServiceRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions
// spanning multiple repositories.
func (r *ServiceRepo) DB() *sql.DB { return r.db }

const serviceColumns = "id, name, description, price_cents, category, is_active, image, created_at, updated_at"

func scanService(row interface{ Scan(...any) error }) (model.Service, error) {
	var s model.Service
	var image sql.NullString
	err := row.Scan(&s.ID, &s.Name, &s.Description, &s.PriceCents, &s.Category,
		&s.IsActive, &image, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return model.Service{}, err
	}
	if image.Valid {
		img := image.String
		s.Image = &img
	}
	return s, nil
}

// ServiceFilter narrows List results.  Zero values mean "no filter".
type ServiceFilter struct {
	Category string
	IsActive *bool
}

// List returns services matching the filter, newest first.
func (r *ServiceRepo) List(ctx context.Context, f ServiceFilter) ([]model.Service, error) {
	query := "SELECT " + serviceColumns + " FROM services"
	var conds []string
	var args []any
	if f.Category != "" {
		conds = append(conds, "category = ?")
		args = append(args, f.Category)
	}
	if f.IsActive != nil {
		conds = append(conds, "is_active = ?")
		args = append(args, *f.IsActive)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	services := make([]model.Service, 0)
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		services = append(services, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return services, nil
}

// GetByID returns a single service or ErrServiceNotFound.
func (r *ServiceRepo) GetByID(ctx context.Context, id uint64) (model.Service, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+serviceColumns+" FROM services WHERE id = ?", id)
	s, err := scanService(row)
	if err == sql.ErrNoRows {
		return model.Service{}, ErrServiceNotFound
	}
	return s, err
}

// ExistsTx reports whether a service row exists, within a transaction.
func (r *ServiceRepo) ExistsTx(ctx context.Context, tx *sql.Tx, id uint64) (bool, error) {
	var one int
	err := tx.QueryRowContext(ctx, "SELECT 1 FROM services WHERE id=? LIMIT 1", id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Create inserts a new service and populates the generated ID.
func (r *ServiceRepo) Create(ctx context.Context, s *model.Service) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO services (name, description, price_cents, category, is_active, image) VALUES (?,?,?,?,?,?)",
		s.Name, s.Description, s.PriceCents, s.Category, s.IsActive, s.Image)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}

// Update overwrites the mutable attributes of a service.  The image is
// only replaced when a non-nil value is supplied, so edits that do not
// re-upload a file keep the existing one.
func (r *ServiceRepo) Update(ctx context.Context, s *model.Service) error {
	var (
		res sql.Result
		err error
	)
	if s.Image != nil {
		res, err = r.db.ExecContext(ctx,
			"UPDATE services SET name=?, description=?, price_cents=?, category=?, is_active=?, image=? WHERE id=?",
			s.Name, s.Description, s.PriceCents, s.Category, s.IsActive, *s.Image, s.ID)
	} else {
		res, err = r.db.ExecContext(ctx,
			"UPDATE services SET name=?, description=?, price_cents=?, category=?, is_active=? WHERE id=?",
			s.Name, s.Description, s.PriceCents, s.Category, s.IsActive, s.ID)
	}
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Either the row is gone or nothing changed; disambiguate with a lookup.
		if _, err := r.GetByID(ctx, s.ID); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a service.  Slots referencing it are not touched (no
// cascade); they simply become orphans the admin is expected to clean up.
func (r *ServiceRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM services WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrServiceNotFound
	}
	return nil
}
