package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	"auction-platform/internal/domain"
	"auction-platform/pkg/utils"
)

// MySQLWindowRepository is the authoritative window and registration store.
type MySQLWindowRepository struct {
	db *sql.DB
}

func NewMySQLWindowRepository(db *sql.DB) *MySQLWindowRepository {
	return &MySQLWindowRepository{db: db}
}

func (r *MySQLWindowRepository) CreateWindow(ctx context.Context, window *domain.AuctionWindow) error {
	query := `
        INSERT IGNORE INTO auction_windows
            (id, start_time, status, max_buyers, max_sellers, buyers_count, sellers_count, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	_, err := r.db.ExecContext(ctx, query,
		window.ID, window.StartTime, int(window.Status),
		nullableInt(window.MaxBuyers), nullableInt(window.MaxSellers),
		window.BuyersCount, window.SellersCount,
		window.CreatedAt, window.UpdatedAt)
	return err
}

func (r *MySQLWindowRepository) GetWindow(ctx context.Context, auctionID string) (*domain.AuctionWindow, error) {
	query := `
        SELECT id, start_time, status, max_buyers, max_sellers, buyers_count, sellers_count, created_at, updated_at
        FROM auction_windows WHERE id = ?
    `
	return scanWindow(r.db.QueryRowContext(ctx, query, auctionID))
}

func (r *MySQLWindowRepository) ListWindows(ctx context.Context) ([]*domain.AuctionWindow, error) {
	query := `
        SELECT id, start_time, status, max_buyers, max_sellers, buyers_count, sellers_count, created_at, updated_at
        FROM auction_windows ORDER BY start_time DESC
    `
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var windows []*domain.AuctionWindow
	for rows.Next() {
		window, err := scanWindow(rows)
		if err != nil {
			return nil, err
		}
		windows = append(windows, window)
	}
	return windows, rows.Err()
}

func (r *MySQLWindowRepository) UpdateWindowStatus(ctx context.Context, auctionID string, status domain.WindowStatus) error {
	query := `UPDATE auction_windows SET status = ?, updated_at = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query, int(status), time.Now(), auctionID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrAuctionNotFound
	}
	return nil
}

// ClaimSeat registers the participant inside one transaction. The capacity
// check and counter increment are a single conditional UPDATE, so two
// concurrent claims for the last seat cannot both pass: the second one matches
// zero rows and maps to ErrCapacityExceeded.
func (r *MySQLWindowRepository) ClaimSeat(ctx context.Context, auctionID, participantID string, role domain.Role) (*domain.Registration, bool, error) {
	var counterCol, capCol string
	switch role {
	case domain.RoleBuyer:
		counterCol, capCol = "buyers_count", "max_buyers"
	case domain.RoleSeller:
		counterCol, capCol = "sellers_count", "max_sellers"
	default:
		return nil, false, domain.ErrInvalidRole
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback()

	update := fmt.Sprintf(`
        UPDATE auction_windows
        SET %s = %s + 1, updated_at = ?
        WHERE id = ? AND (%s IS NULL OR %s < %s)
    `, counterCol, counterCol, capCol, counterCol, capCol)

	res, err := tx.ExecContext(ctx, update, time.Now(), auctionID)
	if err != nil {
		return nil, false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, false, err
	}
	if affected == 0 {
		// Either the window does not exist or the role is at capacity;
		// a follow-up read disambiguates.
		if _, err := r.GetWindow(ctx, auctionID); err != nil {
			return nil, false, err
		}
		if existing, err := r.GetRegistration(ctx, auctionID, participantID); err == nil && existing != nil {
			return existing, true, nil
		}
		return nil, false, domain.ErrCapacityExceeded
	}

	reg := &domain.Registration{
		ID:            utils.GenerateID("reg"),
		AuctionID:     auctionID,
		ParticipantID: participantID,
		Role:          role,
		CreatedAt:     time.Now(),
	}
	insert := `
        INSERT INTO registrations (id, auction_id, participant_id, role, created_at)
        VALUES (?, ?, ?, ?, ?)
    `
	if _, err := tx.ExecContext(ctx, insert,
		reg.ID, reg.AuctionID, reg.ParticipantID, string(reg.Role), reg.CreatedAt); err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
			// Unique (auction_id, participant_id) hit: the participant is
			// already registered. Roll back the counter bump and return the
			// existing seat.
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				return nil, false, rbErr
			}
			existing, getErr := r.GetRegistration(ctx, auctionID, participantID)
			if getErr != nil {
				return nil, false, getErr
			}
			return existing, true, nil
		}
		return nil, false, err
	}

	if err := tx.Commit(); err != nil {
		return nil, false, err
	}
	return reg, false, nil
}

func (r *MySQLWindowRepository) GetRegistration(ctx context.Context, auctionID, participantID string) (*domain.Registration, error) {
	query := `
        SELECT id, auction_id, participant_id, role, created_at
        FROM registrations WHERE auction_id = ? AND participant_id = ?
    `
	var reg domain.Registration
	var role string
	err := r.db.QueryRowContext(ctx, query, auctionID, participantID).Scan(
		&reg.ID, &reg.AuctionID, &reg.ParticipantID, &role, &reg.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	reg.Role = domain.Role(role)
	return &reg, nil
}

// ListRegistrations returns the archived seats of a window, oldest first.
func (r *MySQLWindowRepository) ListRegistrations(ctx context.Context, auctionID string) ([]*domain.Registration, error) {
	query := `
        SELECT id, auction_id, participant_id, role, created_at
        FROM registrations WHERE auction_id = ? ORDER BY created_at
    `
	rows, err := r.db.QueryContext(ctx, query, auctionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var regs []*domain.Registration
	for rows.Next() {
		var reg domain.Registration
		var role string
		if err := rows.Scan(&reg.ID, &reg.AuctionID, &reg.ParticipantID, &role, &reg.CreatedAt); err != nil {
			return nil, err
		}
		reg.Role = domain.Role(role)
		regs = append(regs, &reg)
	}
	return regs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanWindow(row rowScanner) (*domain.AuctionWindow, error) {
	var window domain.AuctionWindow
	var status int
	var maxBuyers, maxSellers sql.NullInt64

	err := row.Scan(&window.ID, &window.StartTime, &status,
		&maxBuyers, &maxSellers,
		&window.BuyersCount, &window.SellersCount,
		&window.CreatedAt, &window.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAuctionNotFound
		}
		return nil, err
	}

	window.Status = domain.WindowStatus(status)
	if maxBuyers.Valid {
		v := int(maxBuyers.Int64)
		window.MaxBuyers = &v
	}
	if maxSellers.Valid {
		v := int(maxSellers.Int64)
		window.MaxSellers = &v
	}
	return &window, nil
}

func nullableInt(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
