// internal/workers/application/check-eligibility/handler_test.go
package checkeligibility

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"hrflow-workers/internal/common/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{CacheTTL: 5 * time.Minute}
}

type testLogger struct {
	t *testing.T
}

func (tl *testLogger) Debug(msg string, fields map[string]interface{}) {
	tl.t.Logf("DEBUG: %s %v", msg, fields)
}

func (tl *testLogger) Info(msg string, fields map[string]interface{}) {
	tl.t.Logf("INFO: %s %v", msg, fields)
}

func (tl *testLogger) Warn(msg string, fields map[string]interface{}) {
	tl.t.Logf("WARN: %s %v", msg, fields)
}

func (tl *testLogger) Error(msg string, fields map[string]interface{}) {
	tl.t.Logf("ERROR: %s %v", msg, fields)
}

func (tl *testLogger) WithFields(fields map[string]interface{}) logger.Logger {
	return tl
}

func (tl *testLogger) WithError(err error) logger.Logger {
	return tl.WithFields(map[string]interface{}{"error": err})
}

func (tl *testLogger) With(fields map[string]interface{}) logger.Logger {
	return tl
}

func newTestLogger(t *testing.T) logger.Logger {
	return &testLogger{t: t}
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr := miniredis.RunT(t)
	return mr, redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func expectEligibleCandidate(mock sqlmock.Sqlmock, candidateID string) {
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(candidateID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(`SELECT identity_doc_type`).
		WithArgs(candidateID).
		WillReturnRows(sqlmock.NewRows([]string{"identity_doc_type", "identity_doc_number"}).
			AddRow("PASSPORT", "19AB12345"))
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Eligible(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mr, rdb := newTestRedis(t)
	defer rdb.Close()

	expectEligibleCandidate(mock, "candidate-001")

	handler := NewHandler(createTestConfig(), db, rdb, newTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{CandidateID: "candidate-001"})

	assert.NoError(t, err)
	assert.NotNil(t, output)
	assert.True(t, output.Eligible)
	assert.Empty(t, output.Missing)
	assert.False(t, output.Cached)

	// Verdict is written through to the cache
	assert.True(t, mr.Exists("eligibility:candidate-001"))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_NotEligible(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	_, rdb := newTestRedis(t)
	defer rdb.Close()

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("candidate-002").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery(`SELECT identity_doc_type`).
		WithArgs("candidate-002").
		WillReturnRows(sqlmock.NewRows([]string{"identity_doc_type", "identity_doc_number"}).
			AddRow("CNI", nil))

	handler := NewHandler(createTestConfig(), db, rdb, newTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{CandidateID: "candidate-002"})

	assert.NoError(t, err)
	assert.False(t, output.Eligible)
	assert.Equal(t, []string{"active_cv", "identity_doc_number"}, output.Missing)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_CacheHit(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mr, rdb := newTestRedis(t)
	defer rdb.Close()

	cached, err := json.Marshal(cachedVerdict{
		Eligible:  false,
		Missing:   []string{"active_cv"},
		CheckedAt: time.Now().UTC().Format(time.RFC3339),
	})
	require.NoError(t, err)
	require.NoError(t, mr.Set("eligibility:candidate-003", string(cached)))

	handler := NewHandler(createTestConfig(), db, rdb, newTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{CandidateID: "candidate-003"})

	assert.NoError(t, err)
	assert.False(t, output.Eligible)
	assert.True(t, output.Cached)
	assert.Equal(t, []string{"active_cv"}, output.Missing)

	// No database queries were issued
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_ForceRefreshSkipsCache(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mr, rdb := newTestRedis(t)
	defer rdb.Close()

	stale, _ := json.Marshal(cachedVerdict{Eligible: false, Missing: []string{"active_cv"}})
	require.NoError(t, mr.Set("eligibility:candidate-004", string(stale)))

	expectEligibleCandidate(mock, "candidate-004")

	handler := NewHandler(createTestConfig(), db, rdb, newTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{
		CandidateID:  "candidate-004",
		ForceRefresh: true,
	})

	assert.NoError(t, err)
	assert.True(t, output.Eligible)
	assert.False(t, output.Cached)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_RedisDownFallsBackToDatabase(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mr, rdb := newTestRedis(t)
	defer rdb.Close()
	mr.Close() // simulate an unreachable cache

	expectEligibleCandidate(mock, "candidate-005")

	handler := NewHandler(createTestConfig(), db, rdb, newTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{CandidateID: "candidate-005"})

	assert.NoError(t, err)
	assert.True(t, output.Eligible)
	assert.False(t, output.Cached)

	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Edge Cases
// ==========================

func TestHandler_Execute_NoProfileRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	_, rdb := newTestRedis(t)
	defer rdb.Close()

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("candidate-006").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(`SELECT identity_doc_type`).
		WithArgs("candidate-006").
		WillReturnRows(sqlmock.NewRows([]string{"identity_doc_type", "identity_doc_number"}))

	handler := NewHandler(createTestConfig(), db, rdb, newTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{CandidateID: "candidate-006"})

	assert.NoError(t, err)
	assert.False(t, output.Eligible)
	assert.Equal(t, []string{"identity_doc_type", "identity_doc_number"}, output.Missing)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_DatabaseError(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	_, rdb := newTestRedis(t)
	defer rdb.Close()

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("candidate-007").
		WillReturnError(errors.New("database connection failed"))

	handler := NewHandler(createTestConfig(), db, rdb, newTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{CandidateID: "candidate-007"})

	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrDatabaseQueryFailed))
	assert.Nil(t, output)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_NilRedisClient(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	expectEligibleCandidate(mock, "candidate-008")

	handler := NewHandler(createTestConfig(), db, nil, newTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{CandidateID: "candidate-008"})

	assert.NoError(t, err)
	assert.True(t, output.Eligible)

	assert.NoError(t, mock.ExpectationsWereMet())
}
