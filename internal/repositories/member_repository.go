package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"marketplace-service/internal/models"
)

var ErrMemberNotFound = errors.New("member not found")

// MemberRepository reads member display data. Profile management belongs to
// an external service; this side never writes.
type MemberRepository interface {
	Get(ctx context.Context, memberID int64) (models.Member, error)
	ListByIDs(ctx context.Context, memberIDs []int64) (map[int64]models.Member, error)
}

// MemberRepo is a sqlx implementation of MemberRepository.
type MemberRepo struct {
	db *sqlx.DB
}

// NewMemberRepo constructs a MemberRepo.
func NewMemberRepo(db *sqlx.DB) *MemberRepo {
	return &MemberRepo{db: db}
}

// Get fetches a live member by id.
func (r *MemberRepo) Get(ctx context.Context, memberID int64) (models.Member, error) {
	var member models.Member
	err := r.db.GetContext(ctx, &member,
		`SELECT id, nickname, island_name, created_at FROM members
         WHERE id=$1 AND deleted_at IS NULL`, memberID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Member{}, ErrMemberNotFound
	}
	return member, err
}

// ListByIDs fetches members for all given ids in one query.
func (r *MemberRepo) ListByIDs(ctx context.Context, memberIDs []int64) (map[int64]models.Member, error) {
	result := make(map[int64]models.Member, len(memberIDs))
	if len(memberIDs) == 0 {
		return result, nil
	}

	var members []models.Member
	err := r.db.SelectContext(ctx, &members,
		`SELECT id, nickname, island_name, created_at FROM members
         WHERE id = ANY($1) AND deleted_at IS NULL`, pq.Array(memberIDs))
	if err != nil {
		return nil, err
	}
	for _, m := range members {
		result[m.ID] = m
	}
	return result, nil
}
