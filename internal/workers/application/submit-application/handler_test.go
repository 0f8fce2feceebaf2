// internal/workers/application/submit-application/handler_test.go
package submitapplication

import (
	"context"
	"errors"
	"testing"
	"time"

	"hrflow-workers/internal/common/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{}
}

func createTestInput() *Input {
	return &Input{
		CandidateID: "candidate-001",
		OfferID:     "offer-001",
		Channel:     "LINKEDIN",
		Motivation:  "Excited about the role",
		ResumeID:    "doc-cv-001",
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

func expectEligible(mock sqlmock.Sqlmock, candidateID string) {
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(candidateID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(`SELECT identity_doc_type`).
		WithArgs(candidateID).
		WillReturnRows(sqlmock.NewRows([]string{"identity_doc_type", "identity_doc_number"}).
			AddRow("CNI", "123456789"))
}

func expectOpenOffer(mock sqlmock.Sqlmock, offerID string) {
	mock.ExpectQuery(`SELECT status, visible, deadline FROM job_offers`).
		WithArgs(offerID).
		WillReturnRows(sqlmock.NewRows([]string{"status", "visible", "deadline"}).
			AddRow("open", true, time.Now().UTC().Add(72*time.Hour)))
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	expectEligible(mock, "candidate-001")
	expectOpenOffer(mock, "offer-001")

	// No prior application
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("candidate-001", "offer-001").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	mock.ExpectExec(`INSERT INTO applications`).
		WithArgs(
			sqlmock.AnyArg(), // application ID (UUID)
			"candidate-001",
			"offer-001",
			"SUBMITTED",
			"LINKEDIN",
			"Excited about the role",
			"doc-cv-001",
			nil,              // cover letter omitted
			sqlmock.AnyArg(), // created_at
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	mock.ExpectExec(`INSERT INTO audit_log`).
		WithArgs(
			"application_submitted",
			"application",
			sqlmock.AnyArg(),
			sqlmock.AnyArg(),
			sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	config := createTestConfig()
	handler := NewHandler(config, db, newTestLogger(t))

	input := createTestInput()
	output, err := handler.Execute(context.Background(), input)

	assert.NoError(t, err)
	assert.NotNil(t, output)
	assert.NotEmpty(t, output.ApplicationID)
	assert.Equal(t, "SUBMITTED", output.ApplicationStatus)

	_, err = time.Parse(time.RFC3339, output.SubmittedAt)
	assert.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_EligibilityNotMet(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	// No active CV and a bare profile
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("candidate-001").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery(`SELECT identity_doc_type`).
		WithArgs("candidate-001").
		WillReturnRows(sqlmock.NewRows([]string{"identity_doc_type", "identity_doc_number"}).
			AddRow(nil, nil))

	config := createTestConfig()
	handler := NewHandler(config, db, newTestLogger(t))

	input := createTestInput()
	output, err := handler.Execute(context.Background(), input)

	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrEligibilityNotMet))
	assert.Contains(t, err.Error(), "active_cv")
	assert.Contains(t, err.Error(), "identity_doc_type")
	assert.Contains(t, err.Error(), "identity_doc_number")
	assert.Nil(t, output)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_MissingProfile(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	// CV exists but no candidate_profiles row at all
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("candidate-001").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(`SELECT identity_doc_type`).
		WithArgs("candidate-001").
		WillReturnRows(sqlmock.NewRows([]string{"identity_doc_type", "identity_doc_number"}))

	config := createTestConfig()
	handler := NewHandler(config, db, newTestLogger(t))

	output, err := handler.Execute(context.Background(), createTestInput())

	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrEligibilityNotMet))
	assert.NotContains(t, err.Error(), "active_cv")
	assert.Nil(t, output)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_OfferClosed(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	expectEligible(mock, "candidate-001")

	mock.ExpectQuery(`SELECT status, visible, deadline FROM job_offers`).
		WithArgs("offer-001").
		WillReturnRows(sqlmock.NewRows([]string{"status", "visible", "deadline"}).
			AddRow("expired", true, nil))

	config := createTestConfig()
	handler := NewHandler(config, db, newTestLogger(t))

	output, err := handler.Execute(context.Background(), createTestInput())

	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrOfferNotOpen))
	assert.Nil(t, output)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_OfferDeadlinePassed(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	expectEligible(mock, "candidate-001")

	mock.ExpectQuery(`SELECT status, visible, deadline FROM job_offers`).
		WithArgs("offer-001").
		WillReturnRows(sqlmock.NewRows([]string{"status", "visible", "deadline"}).
			AddRow("open", true, time.Now().UTC().Add(-time.Hour)))

	config := createTestConfig()
	handler := NewHandler(config, db, newTestLogger(t))

	output, err := handler.Execute(context.Background(), createTestInput())

	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrOfferNotOpen))
	assert.Contains(t, err.Error(), "deadline")
	assert.Nil(t, output)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_OfferNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	expectEligible(mock, "candidate-001")

	mock.ExpectQuery(`SELECT status, visible, deadline FROM job_offers`).
		WithArgs("offer-001").
		WillReturnRows(sqlmock.NewRows([]string{"status", "visible", "deadline"}))

	config := createTestConfig()
	handler := NewHandler(config, db, newTestLogger(t))

	output, err := handler.Execute(context.Background(), createTestInput())

	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrOfferNotOpen))
	assert.Nil(t, output)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_DuplicateApplication(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	expectEligible(mock, "candidate-001")
	expectOpenOffer(mock, "offer-001")

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("candidate-001", "offer-001").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	config := createTestConfig()
	handler := NewHandler(config, db, newTestLogger(t))

	output, err := handler.Execute(context.Background(), createTestInput())

	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateApplication))
	assert.Contains(t, err.Error(), "already applied")
	assert.Nil(t, output)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_InsertError(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	expectEligible(mock, "candidate-001")
	expectOpenOffer(mock, "offer-001")

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("candidate-001", "offer-001").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	mock.ExpectExec(`INSERT INTO applications`).
		WillReturnError(errors.New("insert failed"))

	config := createTestConfig()
	handler := NewHandler(config, db, newTestLogger(t))

	output, err := handler.Execute(context.Background(), createTestInput())

	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrDatabaseInsertFailed))
	assert.Nil(t, output)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_AuditLogError(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	expectEligible(mock, "candidate-001")
	expectOpenOffer(mock, "offer-001")

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("candidate-001", "offer-001").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	mock.ExpectExec(`INSERT INTO applications`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	mock.ExpectExec(`INSERT INTO audit_log`).
		WillReturnError(errors.New("audit log failed"))

	config := createTestConfig()
	handler := NewHandler(config, db, newTestLogger(t))

	output, err := handler.Execute(context.Background(), createTestInput())

	// Should still succeed even if audit log fails
	assert.NoError(t, err)
	assert.NotNil(t, output)
	assert.Equal(t, "SUBMITTED", output.ApplicationStatus)

	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Edge Cases
// ==========================

func TestHandler_Execute_DefaultChannel(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	expectEligible(mock, "candidate-002")
	expectOpenOffer(mock, "offer-002")

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("candidate-002", "offer-002").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	mock.ExpectExec(`INSERT INTO applications`).
		WithArgs(
			sqlmock.AnyArg(),
			"candidate-002",
			"offer-002",
			"SUBMITTED",
			"SITE", // defaulted when the channel is omitted
			"",
			nil,
			nil,
			sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	mock.ExpectExec(`INSERT INTO audit_log`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	config := createTestConfig()
	handler := NewHandler(config, db, newTestLogger(t))

	input := &Input{
		CandidateID: "candidate-002",
		OfferID:     "offer-002",
	}

	output, err := handler.Execute(context.Background(), input)

	assert.NoError(t, err)
	assert.NotNil(t, output)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_ContextTimeout(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("candidate-001").
		WillReturnError(context.DeadlineExceeded)

	config := createTestConfig()
	handler := NewHandler(config, db, newTestLogger(t))

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Millisecond)
	defer cancel()

	output, err := handler.Execute(ctx, createTestInput())

	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrDatabaseInsertFailed))
	assert.Nil(t, output)

	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Benchmark Tests
// ==========================

func BenchmarkHandler_Execute(b *testing.B) {
	db, mock, err := sqlmock.New()
	if err != nil {
		b.Fatal(err)
	}
	defer db.Close()

	config := createTestConfig()
	handler := NewHandler(config, db, newTestLogger(&testing.T{}))

	input := createTestInput()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		expectEligible(mock, "candidate-001")
		expectOpenOffer(mock, "offer-001")
		mock.ExpectQuery(`SELECT EXISTS`).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectExec(`INSERT INTO applications`).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec(`INSERT INTO audit_log`).
			WillReturnResult(sqlmock.NewResult(1, 1))

		handler.Execute(context.Background(), input)
	}
}
