package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	domainErrors "github.com/drobyshev/leadmart/internal/domain/errors"
	"github.com/drobyshev/leadmart/internal/domain/model"
	"github.com/drobyshev/leadmart/internal/domain/repository"
)

// leadEventsChannel is the NOTIFY channel every mutating transaction signals.
const leadEventsChannel = "lead_events"

// PgxPool is the subset of pgxpool.Pool the storage relies on.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

// querier abstracts over pool and transaction for shared read helpers.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Storage acts as repository facade backed by PostgreSQL.
type Storage struct {
	pool   PgxPool
	logger *slog.Logger
}

type userRepository struct {
	storage *Storage
}

type leadRepository struct {
	storage *Storage
	now     func() time.Time
	newID   func() string
}

type deliveryRepository struct {
	storage *Storage
}

// New creates storage with schema initialization.
func New(ctx context.Context, dsn string, logger *slog.Logger) (*Storage, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	storage := &Storage{pool: pool, logger: logger}
	if err := storage.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return storage, nil
}

// Close releases database resources.
func (s *Storage) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Factory methods for domain repositories.
func (s *Storage) Users() repository.UserRepository {
	return &userRepository{storage: s}
}

func (s *Storage) Leads() repository.LeadRepository {
	return &leadRepository{storage: s, now: func() time.Time { return time.Now().UTC() }, newID: uuid.NewString}
}

func (s *Storage) Deliveries() repository.DeliveryRepository {
	return &deliveryRepository{storage: s}
}

func (s *Storage) initSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
            id SERIAL PRIMARY KEY,
            login TEXT UNIQUE NOT NULL,
            password_hash TEXT NOT NULL,
            role TEXT NOT NULL DEFAULT 'user',
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE TABLE IF NOT EXISTS leads (
            id TEXT PRIMARY KEY,
            category TEXT NOT NULL,
            equipment TEXT[] NOT NULL DEFAULT '{}',
            rental_duration TEXT NOT NULL DEFAULT '',
            start_date TEXT NOT NULL DEFAULT '',
            budget TEXT NOT NULL DEFAULT '',
            address TEXT NOT NULL DEFAULT '',
            city TEXT NOT NULL DEFAULT '',
            region TEXT NOT NULL DEFAULT '',
            postal_code TEXT NOT NULL DEFAULT '',
            contact_name TEXT NOT NULL,
            contact_phone TEXT NOT NULL DEFAULT '',
            contact_email TEXT NOT NULL DEFAULT '',
            details TEXT NOT NULL DEFAULT '',
            status TEXT NOT NULL DEFAULT 'new',
            label TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            label_updated_at TIMESTAMPTZ
        )`,
		`CREATE TABLE IF NOT EXISTS lead_buyers (
            lead_id TEXT NOT NULL REFERENCES leads(id),
            buyer_id BIGINT NOT NULL REFERENCES users(id),
            purchased_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            PRIMARY KEY (lead_id, buyer_id)
        )`,
		`CREATE TABLE IF NOT EXISTS lead_deliveries (
            id SERIAL PRIMARY KEY,
            lead_id TEXT NOT NULL REFERENCES leads(id),
            buyer_id BIGINT NOT NULL REFERENCES users(id),
            state TEXT NOT NULL DEFAULT 'pending',
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE INDEX IF NOT EXISTS idx_leads_status ON leads(status, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_lead_buyers_buyer ON lead_buyers(buyer_id)`,
		`CREATE INDEX IF NOT EXISTS idx_lead_deliveries_state ON lead_deliveries(state, created_at)`,
	}

	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}

	return nil
}

// --- UserRepository implementation ---

func (r *userRepository) Create(ctx context.Context, login, passwordHash string, role model.Role) (*model.User, error) {
	const query = `INSERT INTO users (login, password_hash, role) VALUES ($1, $2, $3) RETURNING id, created_at`
	var u model.User
	err := r.storage.pool.QueryRow(ctx, query, login, passwordHash, string(role)).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domainErrors.ErrAlreadyExists
		}
		return nil, err
	}
	u.Login = login
	u.PasswordHash = passwordHash
	u.Role = role
	return &u, nil
}

func (r *userRepository) GetByLogin(ctx context.Context, login string) (*model.User, error) {
	const query = `SELECT id, login, password_hash, role, created_at FROM users WHERE login=$1`
	return scanUser(r.storage.pool.QueryRow(ctx, query, login))
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	const query = `SELECT id, login, password_hash, role, created_at FROM users WHERE id=$1`
	return scanUser(r.storage.pool.QueryRow(ctx, query, id))
}

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	var role string
	err := row.Scan(&u.ID, &u.Login, &u.PasswordHash, &role, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	u.Role = model.Role(role)
	return &u, nil
}

// --- LeadRepository implementation ---

const leadColumns = `id, category, equipment, rental_duration, start_date, budget,
                     address, city, region, postal_code,
                     contact_name, contact_phone, contact_email, details,
                     status, label, created_at, label_updated_at`

func scanLead(row pgx.Row) (*model.Lead, error) {
	var l model.Lead
	var status string
	err := row.Scan(
		&l.ID, &l.Category, &l.Equipment, &l.RentalDuration, &l.StartDate, &l.Budget,
		&l.Address, &l.City, &l.Region, &l.PostalCode,
		&l.ContactName, &l.ContactPhone, &l.ContactEmail, &l.Details,
		&status, &l.Label, &l.CreatedAt, &l.LabelUpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	l.Status = model.LeadStatus(status)
	return &l, nil
}

func attachBuyers(ctx context.Context, q querier, lead *model.Lead) error {
	const query = `SELECT buyer_id, purchased_at FROM lead_buyers WHERE lead_id=$1 ORDER BY buyer_id`
	rows, err := q.Query(ctx, query, lead.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var buyerID int64
		var purchasedAt time.Time
		if err := rows.Scan(&buyerID, &purchasedAt); err != nil {
			return err
		}
		lead.PurchasedBy = append(lead.PurchasedBy, buyerID)
		if lead.PurchaseDates == nil {
			lead.PurchaseDates = make(map[int64]time.Time)
		}
		lead.PurchaseDates[buyerID] = purchasedAt
	}
	return rows.Err()
}

func notifyLeadChanged(ctx context.Context, q querier, leadID string) error {
	_, err := q.Exec(ctx, `SELECT pg_notify($1, $2)`, leadEventsChannel, leadID)
	return err
}

func (r *leadRepository) Create(ctx context.Context, draft model.LeadDraft) (*model.Lead, error) {
	id := r.newID()
	var lead *model.Lead
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		const query = `INSERT INTO leads
                       (id, category, equipment, rental_duration, start_date, budget,
                        address, city, region, postal_code,
                        contact_name, contact_phone, contact_email, details)
                       VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
                       RETURNING created_at`
		var createdAt time.Time
		err := tx.QueryRow(ctx, query,
			id, draft.Category, draft.Equipment, draft.RentalDuration, draft.StartDate, draft.Budget,
			draft.Address, draft.City, draft.Region, draft.PostalCode,
			draft.ContactName, draft.ContactPhone, draft.ContactEmail, draft.Details,
		).Scan(&createdAt)
		if err != nil {
			return err
		}

		if err := notifyLeadChanged(ctx, tx, id); err != nil {
			return err
		}

		lead = &model.Lead{
			ID:             id,
			Category:       draft.Category,
			Equipment:      draft.Equipment,
			RentalDuration: draft.RentalDuration,
			StartDate:      draft.StartDate,
			Budget:         draft.Budget,
			Address:        draft.Address,
			City:           draft.City,
			Region:         draft.Region,
			PostalCode:     draft.PostalCode,
			ContactName:    draft.ContactName,
			ContactPhone:   draft.ContactPhone,
			ContactEmail:   draft.ContactEmail,
			Details:        draft.Details,
			Status:         model.LeadStatusNew,
			CreatedAt:      createdAt,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return lead, nil
}

func (r *leadRepository) GetByID(ctx context.Context, id string) (*model.Lead, error) {
	const query = `SELECT ` + leadColumns + ` FROM leads WHERE id=$1`
	lead, err := scanLead(r.storage.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	if err := attachBuyers(ctx, r.storage.pool, lead); err != nil {
		return nil, err
	}
	return lead, nil
}

func (r *leadRepository) ListVisible(ctx context.Context, vis model.Visibility) ([]model.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads`
	var args []any
	switch vis.Scope {
	case model.VisibilityAll:
	case model.VisibilityNewOrOwned:
		query += ` WHERE status=$1 OR EXISTS
                   (SELECT 1 FROM lead_buyers b WHERE b.lead_id=leads.id AND b.buyer_id=$2)`
		args = append(args, string(model.LeadStatusNew), vis.OwnerID)
	default:
		query += ` WHERE status=$1`
		args = append(args, string(model.LeadStatusNew))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.storage.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, *lead)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range leads {
		if err := attachBuyers(ctx, r.storage.pool, &leads[i]); err != nil {
			return nil, err
		}
	}
	return leads, nil
}

// Purchase awards the lead to the buyer atomically. The row lock serializes
// concurrent attempts, so the precondition re-check below sees every committed
// purchase; the composite primary key on lead_buyers makes the buyer insert
// idempotent even if the lock were bypassed.
func (r *leadRepository) Purchase(ctx context.Context, leadID string, buyerID int64) (*model.Lead, error) {
	var lead *model.Lead
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		const lockQuery = `SELECT ` + leadColumns + ` FROM leads WHERE id=$1 FOR UPDATE`
		locked, err := scanLead(tx.QueryRow(ctx, lockQuery, leadID))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domainErrors.ErrNotFound
			}
			return err
		}

		if err := attachBuyers(ctx, tx, locked); err != nil {
			return err
		}
		if locked.HasBuyer(buyerID) {
			return domainErrors.ErrAlreadyPurchased
		}
		if len(locked.PurchasedBy) >= model.BuyerCap {
			return domainErrors.ErrCapReached
		}

		purchasedAt := r.now()
		const insertBuyer = `INSERT INTO lead_buyers (lead_id, buyer_id, purchased_at)
                             VALUES ($1, $2, $3)
                             ON CONFLICT DO NOTHING`
		if _, err := tx.Exec(ctx, insertBuyer, leadID, buyerID, purchasedAt); err != nil {
			return err
		}

		locked.AddBuyer(buyerID, purchasedAt)
		const updateStatus = `UPDATE leads SET status=$1 WHERE id=$2`
		if _, err := tx.Exec(ctx, updateStatus, string(locked.Status), leadID); err != nil {
			return err
		}

		const enqueueDelivery = `INSERT INTO lead_deliveries (lead_id, buyer_id) VALUES ($1, $2)`
		if _, err := tx.Exec(ctx, enqueueDelivery, leadID, buyerID); err != nil {
			return err
		}

		if err := notifyLeadChanged(ctx, tx, leadID); err != nil {
			return err
		}

		lead = locked
		return nil
	})
	if err != nil {
		return nil, err
	}
	return lead, nil
}

func (r *leadRepository) SetLabel(ctx context.Context, leadID, label string) error {
	return r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		const query = `UPDATE leads SET label=$1, label_updated_at=NOW() WHERE id=$2`
		tag, err := tx.Exec(ctx, query, label, leadID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return domainErrors.ErrNotFound
		}
		return notifyLeadChanged(ctx, tx, leadID)
	})
}

// --- DeliveryRepository implementation ---

func (r *deliveryRepository) SelectBatchForSending(ctx context.Context, limit int) ([]model.Delivery, error) {
	const selectQuery = `SELECT id, lead_id, buyer_id, state, created_at, updated_at
                         FROM lead_deliveries
                         WHERE state='pending'
                         ORDER BY created_at
                         LIMIT $1
                         FOR UPDATE SKIP LOCKED`

	var deliveries []model.Delivery
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, selectQuery, limit)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var d model.Delivery
			var state string
			if err := rows.Scan(&d.ID, &d.LeadID, &d.BuyerID, &state, &d.CreatedAt, &d.UpdatedAt); err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, `UPDATE lead_deliveries SET state='sending', updated_at=NOW() WHERE id=$1`, d.ID); err != nil {
				return err
			}
			d.State = model.DeliveryStateSending
			deliveries = append(deliveries, d)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return deliveries, nil
}

func (r *deliveryRepository) UpdateState(ctx context.Context, deliveryID int64, state model.DeliveryState) error {
	const query = `UPDATE lead_deliveries SET state=$1, updated_at=NOW() WHERE id=$2`
	tag, err := r.storage.pool.Exec(ctx, query, string(state), deliveryID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

// WithinTransaction executes function inside transaction boundary.
func (s *Storage) WithinTransaction(ctx context.Context, fn func(pgx.Tx) error) (err error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	err = fn(tx)
	return err
}

// HealthCheck verifies database connectivity.
func (s *Storage) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.pool.Ping(ctx)
}

// Pool exposes raw connection pool for advanced use.
func (s *Storage) Pool() PgxPool {
	return s.pool
}

// Logger returns storage logger.
func (s *Storage) Logger() *slog.Logger {
	return s.logger
}
