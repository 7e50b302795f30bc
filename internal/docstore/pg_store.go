package docstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore implements Store on PostgreSQL. Mutations are single statements, so
// the uniqueness invariant per (owner, product) is enforced by the database
// and cart-line increments are atomic server-side. Change signals go through
// the injected Notifier after the write is accepted.
type PgStore struct {
	db       *pgxpool.Pool
	notifier Notifier
	logger   *slog.Logger
}

// NewPgStore creates a Store backed by a PostgreSQL connection pool.
func NewPgStore(db *pgxpool.Pool, notifier Notifier, logger *slog.Logger) *PgStore {
	return &PgStore{
		db:       db,
		notifier: notifier,
		logger:   logger.With("component", "pg_store"),
	}
}

func (s *PgStore) AddCartLine(ctx context.Context, ownerID, productID string, delta int32) (*CartLine, error) {
	const query = `
		INSERT INTO cart_lines (id, owner_id, product_id, quantity)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (owner_id, product_id)
		DO UPDATE SET quantity = cart_lines.quantity + EXCLUDED.quantity, updated_at = now()
		RETURNING id, owner_id, product_id, quantity, created_at, updated_at`

	var line CartLine
	err := s.db.QueryRow(ctx, query, uuid.New(), ownerID, productID, delta).
		Scan(&line.ID, &line.OwnerID, &line.ProductID, &line.Quantity, &line.CreatedAt, &line.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to add cart line: %w", err)
	}

	s.notify(ctx, CollectionCartLines, ownerID)
	return &line, nil
}

func (s *PgStore) SetCartLineQuantity(ctx context.Context, ownerID, productID string, quantity int32) (*CartLine, error) {
	const query = `
		UPDATE cart_lines
		SET quantity = $3, updated_at = now()
		WHERE owner_id = $1 AND product_id = $2
		RETURNING id, owner_id, product_id, quantity, created_at, updated_at`

	var line CartLine
	err := s.db.QueryRow(ctx, query, ownerID, productID, quantity).
		Scan(&line.ID, &line.OwnerID, &line.ProductID, &line.Quantity, &line.CreatedAt, &line.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to set cart line quantity: %w", err)
	}

	s.notify(ctx, CollectionCartLines, ownerID)
	return &line, nil
}

func (s *PgStore) DeleteCartLine(ctx context.Context, ownerID, productID string) error {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM cart_lines WHERE owner_id = $1 AND product_id = $2`, ownerID, productID)
	if err != nil {
		return fmt.Errorf("failed to delete cart line: %w", err)
	}
	if tag.RowsAffected() > 0 {
		s.notify(ctx, CollectionCartLines, ownerID)
	}
	return nil
}

// ClearCartLines removes all of the owner's lines in one statement, so the
// clear is all-or-nothing.
func (s *PgStore) ClearCartLines(ctx context.Context, ownerID string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM cart_lines WHERE owner_id = $1`, ownerID)
	if err != nil {
		return fmt.Errorf("failed to clear cart lines: %w", err)
	}
	if tag.RowsAffected() > 0 {
		s.notify(ctx, CollectionCartLines, ownerID)
	}
	return nil
}

func (s *PgStore) ListCartLines(ctx context.Context, ownerID string) ([]CartLine, error) {
	const query = `
		SELECT id, owner_id, product_id, quantity, created_at, updated_at
		FROM cart_lines
		WHERE owner_id = $1
		ORDER BY created_at`

	rows, err := s.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart lines: %w", err)
	}
	defer rows.Close()

	lines := make([]CartLine, 0)
	for rows.Next() {
		var line CartLine
		if err := rows.Scan(&line.ID, &line.OwnerID, &line.ProductID, &line.Quantity, &line.CreatedAt, &line.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan cart line: %w", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read cart lines: %w", err)
	}
	return lines, nil
}

func (s *PgStore) CreateFavoriteMark(ctx context.Context, ownerID, productID string) (*FavoriteMark, error) {
	const insert = `
		INSERT INTO favorite_marks (id, owner_id, product_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (owner_id, product_id) DO NOTHING
		RETURNING id, owner_id, product_id, created_at`

	var mark FavoriteMark
	err := s.db.QueryRow(ctx, insert, uuid.New(), ownerID, productID).
		Scan(&mark.ID, &mark.OwnerID, &mark.ProductID, &mark.CreatedAt)
	if err == nil {
		s.notify(ctx, CollectionFavoriteMarks, ownerID)
		return &mark, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to create favorite mark: %w", err)
	}

	// Conflict: the mark already exists, return it unchanged.
	const sel = `
		SELECT id, owner_id, product_id, created_at
		FROM favorite_marks
		WHERE owner_id = $1 AND product_id = $2`
	err = s.db.QueryRow(ctx, sel, ownerID, productID).
		Scan(&mark.ID, &mark.OwnerID, &mark.ProductID, &mark.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to load existing favorite mark: %w", err)
	}
	return &mark, nil
}

func (s *PgStore) DeleteFavoriteMark(ctx context.Context, ownerID, productID string) error {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM favorite_marks WHERE owner_id = $1 AND product_id = $2`, ownerID, productID)
	if err != nil {
		return fmt.Errorf("failed to delete favorite mark: %w", err)
	}
	if tag.RowsAffected() > 0 {
		s.notify(ctx, CollectionFavoriteMarks, ownerID)
	}
	return nil
}

func (s *PgStore) ListFavoriteMarks(ctx context.Context, ownerID string) ([]FavoriteMark, error) {
	const query = `
		SELECT id, owner_id, product_id, created_at
		FROM favorite_marks
		WHERE owner_id = $1
		ORDER BY created_at`

	rows, err := s.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorite marks: %w", err)
	}
	defer rows.Close()

	marks := make([]FavoriteMark, 0)
	for rows.Next() {
		var mark FavoriteMark
		if err := rows.Scan(&mark.ID, &mark.OwnerID, &mark.ProductID, &mark.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan favorite mark: %w", err)
		}
		marks = append(marks, mark)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read favorite marks: %w", err)
	}
	return marks, nil
}

func (s *PgStore) SubscribeCartLines(ctx context.Context, ownerID string, fn func([]CartLine)) (CancelFunc, error) {
	deliver := func() {
		lines, err := s.ListCartLines(ctx, ownerID)
		if err != nil {
			s.logger.Warn("failed to build cart snapshot", "owner_id", ownerID, "error", err)
			return
		}
		fn(lines)
	}
	cancel, err := s.notifier.Subscribe(CollectionCartLines, ownerID, deliver)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to cart lines: %w", err)
	}
	deliver()
	return cancel, nil
}

func (s *PgStore) SubscribeFavoriteMarks(ctx context.Context, ownerID string, fn func([]FavoriteMark)) (CancelFunc, error) {
	deliver := func() {
		marks, err := s.ListFavoriteMarks(ctx, ownerID)
		if err != nil {
			s.logger.Warn("failed to build favorites snapshot", "owner_id", ownerID, "error", err)
			return
		}
		fn(marks)
	}
	cancel, err := s.notifier.Subscribe(CollectionFavoriteMarks, ownerID, deliver)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to favorite marks: %w", err)
	}
	deliver()
	return cancel, nil
}

// notify publishes a change signal. Failures are logged, not returned: the
// write already committed, and subscribers self-heal on the next signal or
// resubscribe.
func (s *PgStore) notify(ctx context.Context, collection, ownerID string) {
	if err := s.notifier.Publish(ctx, Change{Collection: collection, OwnerID: ownerID}); err != nil {
		s.logger.Warn("failed to publish change signal",
			"collection", collection, "owner_id", ownerID, "error", err)
	}
}
