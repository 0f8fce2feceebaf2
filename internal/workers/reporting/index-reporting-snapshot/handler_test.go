// internal/workers/reporting/index-reporting-snapshot/handler_test.go
package indexreportingsnapshot

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"hrflow-workers/internal/common/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{
		Timeout:       30 * time.Second,
		SnapshotIndex: "applications-reporting",
	}
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

// capturedIndexRequest records what the handler sent to Elasticsearch.
type capturedIndexRequest struct {
	path string
	body []byte
}

// newTestESClient spins up a stub Elasticsearch endpoint. The client
// library checks the product header on every response, so the stub must
// send it.
func newTestESClient(t *testing.T, status int, captured *capturedIndexRequest) (*elasticsearch.Client, *httptest.Server) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if captured != nil {
			captured.path = r.URL.Path
			captured.body, _ = io.ReadAll(r.Body)
		}
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(`{"result": "created"}`))
	}))
	t.Cleanup(server.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{server.URL},
	})
	require.NoError(t, err)
	return client, server
}

func expectApplicationRow(mock sqlmock.Sqlmock, appID string, status string, isDeleted bool) {
	mock.ExpectQuery(`SELECT a.id, a.candidate_id, a.offer_id`).
		WithArgs(appID).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "candidate_id", "offer_id", "status", "channel",
			"interview_round", "followup_count", "is_deleted",
			"created_at", "updated_at", "title", "candidate_name",
		}).AddRow(
			appID, "cand-001", "offer-001", status, "SITE",
			2, 1, isDeleted,
			time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
			time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC),
			"Backend Engineer", "Ada Lovelace",
		))
}

func expectAggregates(mock sqlmock.Sqlmock, appID string, interviews, evaluations, recommends int, avg interface{}) {
	mock.ExpectQuery(`SELECT COUNT\(i.id\),`).
		WithArgs(appID).
		WillReturnRows(sqlmock.NewRows([]string{
			"interviews", "evaluations", "recommends", "avg_score",
		}).AddRow(interviews, evaluations, recommends, avg))
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_IndexesSnapshot(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	expectApplicationRow(mock, "app-001", "INTERVIEW", false)
	expectAggregates(mock, "app-001", 2, 1, 1, 4.25)

	var captured capturedIndexRequest
	esClient, _ := newTestESClient(t, http.StatusCreated, &captured)

	handler := NewHandler(createTestConfig(), db, esClient, newTestLogger(t))
	output, err := handler.Execute(context.Background(), &Input{ApplicationID: "app-001"})

	assert.NoError(t, err)
	assert.Equal(t, "applications-reporting", output.Index)
	assert.Equal(t, "/applications-reporting/_doc/app-001", captured.path)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(captured.body, &doc))
	assert.Equal(t, "INTERVIEW", doc["status"])
	assert.Equal(t, "Ada Lovelace", doc["candidateName"])
	assert.Equal(t, "Backend Engineer", doc["offerTitle"])
	assert.InDelta(t, 4.25, doc["averageScore"], 0.001)
	assert.Equal(t, false, doc["isDeleted"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_SoftDeletedApplicationStillIndexed(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	expectApplicationRow(mock, "app-002", "WITHDRAWN", true)
	expectAggregates(mock, "app-002", 0, 0, 0, nil)

	var captured capturedIndexRequest
	esClient, _ := newTestESClient(t, http.StatusOK, &captured)

	handler := NewHandler(createTestConfig(), db, esClient, newTestLogger(t))
	_, err = handler.Execute(context.Background(), &Input{ApplicationID: "app-002"})

	assert.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(captured.body, &doc))
	assert.Equal(t, true, doc["isDeleted"])
	assert.Equal(t, "WITHDRAWN", doc["status"])
	assert.Equal(t, 0.0, doc["averageScore"])
}

// ==========================
// Guard Tests
// ==========================

func TestHandler_Execute_ApplicationNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT a.id, a.candidate_id, a.offer_id`).
		WithArgs("app-missing").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "candidate_id", "offer_id", "status", "channel",
			"interview_round", "followup_count", "is_deleted",
			"created_at", "updated_at", "title", "candidate_name",
		}))

	esClient, _ := newTestESClient(t, http.StatusOK, nil)

	handler := NewHandler(createTestConfig(), db, esClient, newTestLogger(t))
	_, err = handler.Execute(context.Background(), &Input{ApplicationID: "app-missing"})

	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrApplicationNotFound))
}

// ==========================
// Edge Cases
// ==========================

func TestHandler_Execute_DatabaseError(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT a.id, a.candidate_id, a.offer_id`).
		WithArgs("app-001").
		WillReturnError(errors.New("connection refused"))

	esClient, _ := newTestESClient(t, http.StatusOK, nil)

	handler := NewHandler(createTestConfig(), db, esClient, newTestLogger(t))
	_, err = handler.Execute(context.Background(), &Input{ApplicationID: "app-001"})

	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrDatabaseQueryFailed))
}

func TestHandler_Execute_ElasticsearchDown(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	expectApplicationRow(mock, "app-001", "INTERVIEW", false)
	expectAggregates(mock, "app-001", 1, 1, 0, 3.5)

	esClient, server := newTestESClient(t, http.StatusOK, nil)
	server.Close()

	handler := NewHandler(createTestConfig(), db, esClient, newTestLogger(t))
	_, err = handler.Execute(context.Background(), &Input{ApplicationID: "app-001"})

	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrElasticsearchConnectionFailed))
}

func TestHandler_Execute_IndexWriteRejected(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	expectApplicationRow(mock, "app-001", "INTERVIEW", false)
	expectAggregates(mock, "app-001", 1, 1, 0, 3.5)

	esClient, _ := newTestESClient(t, http.StatusServiceUnavailable, nil)

	handler := NewHandler(createTestConfig(), db, esClient, newTestLogger(t))
	_, err = handler.Execute(context.Background(), &Input{ApplicationID: "app-001"})

	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrIndexWriteFailed))
}
