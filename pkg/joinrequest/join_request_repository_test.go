package joinrequest

import (
	"context"
	"sync"
	"testing"
	"time"

	"Cooki-Backend/entities"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// sqlRecorder keeps every statement gorm builds. With DryRun nothing reaches
// the server, so the tests need no database.
type sqlRecorder struct {
	mu   sync.Mutex
	stmt []string
}

func (r *sqlRecorder) LogMode(logger.LogLevel) logger.Interface      { return r }
func (r *sqlRecorder) Info(context.Context, string, ...interface{})  {}
func (r *sqlRecorder) Warn(context.Context, string, ...interface{})  {}
func (r *sqlRecorder) Error(context.Context, string, ...interface{}) {}

func (r *sqlRecorder) Trace(_ context.Context, _ time.Time, fc func() (string, int64), _ error) {
	sql, _ := fc()
	r.mu.Lock()
	r.stmt = append(r.stmt, sql)
	r.mu.Unlock()
}

func (r *sqlRecorder) last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.stmt) == 0 {
		return ""
	}
	return r.stmt[len(r.stmt)-1]
}

func dryRunDB(t *testing.T) (*gorm.DB, *sqlRecorder) {
	t.Helper()
	rec := &sqlRecorder{}
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=localhost user=cooki dbname=cooki sslmode=disable",
	}), &gorm.Config{DryRun: true, DisableAutomaticPing: true, Logger: rec})
	require.NoError(t, err)
	return db, rec
}

func TestTransitionOnlyMatchesPendingRows(t *testing.T) {
	db, _ := dryRunDB(t)
	id := uuid.NewString()
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return transition(tx, id, uuid.New(), entities.JoinRequestApproved, at)
	})

	assert.Contains(t, sql, `UPDATE "join_requests" SET`)
	assert.Contains(t, sql, `"status"='approved'`)
	assert.Contains(t, sql, `"responded_at"=`)
	assert.Contains(t, sql, `"responded_by"=`)
	assert.Contains(t, sql, "WHERE id = '"+id+"' AND status = 'pending'")
}

func TestAddMemberIgnoresExistingMembership(t *testing.T) {
	db, _ := dryRunDB(t)
	member := &entities.PantryMember{PantryID: uuid.New(), UserID: uuid.New()}

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return addMember(tx, member)
	})

	assert.Contains(t, sql, `INSERT INTO "pantry_members"`)
	assert.Contains(t, sql, "ON CONFLICT DO NOTHING")
}

func TestSelectPantryKeepsExistingChoice(t *testing.T) {
	db, _ := dryRunDB(t)
	userID, pantryID := uuid.New(), uuid.New()

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return selectPantryIfNone(tx, userID, pantryID)
	})

	assert.Contains(t, sql, `"current_pantry_id"='`+pantryID.String()+`'`)
	assert.Contains(t, sql, "current_pantry_id IS NULL")
}

func TestPendingRequestIndexIsPartial(t *testing.T) {
	db, rec := dryRunDB(t)

	require.NoError(t, db.Migrator().CreateIndex(&entities.JoinRequest{}, "idx_join_requests_pending"))

	sql := rec.last()
	assert.Contains(t, sql, `CREATE UNIQUE INDEX IF NOT EXISTS "idx_join_requests_pending" ON "join_requests"`)
	assert.Contains(t, sql, `("pantry_id","requester_id")`)
	assert.Contains(t, sql, "WHERE status = 'pending'")
}
