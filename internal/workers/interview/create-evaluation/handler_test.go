// internal/workers/interview/create-evaluation/handler_test.go
package createevaluation

import (
	"context"
	"errors"
	"testing"

	"hrflow-workers/internal/common/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
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
		InterviewID:        "itv-001",
		TechnicalScore:     4,
		CommunicationScore: 5,
		CultureFitScore:    3,
		MotivationScore:    4,
		Recommend:          true,
		Urgency:            "high",
		Strengths:          "Strong on fundamentals, clear communicator",
		ImprovementAreas:   "Limited exposure to event-driven systems",
		Recommendation:     "Hire",
		EvaluatorID:        "user-rh-01",
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

func expectInterviewExists(mock sqlmock.Sqlmock, interviewID string, exists bool) {
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(interviewID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(exists))
}

func expectNoExistingEvaluation(mock sqlmock.Sqlmock, interviewID string) {
	mock.ExpectQuery(`SELECT id, technical_score`).
		WithArgs(interviewID).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "technical_score", "communication_score", "culture_fit_score", "motivation_score",
		}))
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	expectInterviewExists(mock, "itv-001", true)
	expectNoExistingEvaluation(mock, "itv-001")

	mock.ExpectExec(`INSERT INTO evaluations`).
		WithArgs(
			sqlmock.AnyArg(), // evaluation ID (UUID)
			"itv-001",
			"user-rh-01",
			4, 5, 3, 4,
			true,
			"high",
			"Strong on fundamentals, clear communicator",
			"Limited exposure to event-driven systems",
			"Hire",
			sqlmock.AnyArg(), // created_at
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	mock.ExpectExec(`INSERT INTO audit_log`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	handler := NewHandler(createTestConfig(), db, newTestLogger(t))

	output, err := handler.Execute(context.Background(), createTestInput())

	assert.NoError(t, err)
	assert.NotNil(t, output)
	assert.NotEmpty(t, output.EvaluationID)
	assert.False(t, output.AlreadyExists)
	assert.InDelta(t, 4.0, output.AverageScore, 0.001)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_ExistingEvaluationReturned(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	expectInterviewExists(mock, "itv-001", true)

	mock.ExpectQuery(`SELECT id, technical_score`).
		WithArgs("itv-001").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "technical_score", "communication_score", "culture_fit_score", "motivation_score",
		}).AddRow("eval-existing", 2, 2, 1, 2))

	handler := NewHandler(createTestConfig(), db, newTestLogger(t))

	output, err := handler.Execute(context.Background(), createTestInput())

	assert.NoError(t, err)
	assert.Equal(t, "eval-existing", output.EvaluationID)
	assert.True(t, output.AlreadyExists)
	assert.InDelta(t, 1.75, output.AverageScore, 0.001)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_InsertRaceReturnsWinner(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	expectInterviewExists(mock, "itv-001", true)
	expectNoExistingEvaluation(mock, "itv-001")

	mock.ExpectExec(`INSERT INTO evaluations`).
		WillReturnError(&pq.Error{Code: "23505"})

	mock.ExpectQuery(`SELECT id, technical_score`).
		WithArgs("itv-001").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "technical_score", "communication_score", "culture_fit_score", "motivation_score",
		}).AddRow("eval-winner", 3, 3, 3, 3))

	handler := NewHandler(createTestConfig(), db, newTestLogger(t))

	output, err := handler.Execute(context.Background(), createTestInput())

	assert.NoError(t, err)
	assert.Equal(t, "eval-winner", output.EvaluationID)
	assert.True(t, output.AlreadyExists)

	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Validation Tests
// ==========================

func TestHandler_Execute_ScoreOutOfRange(t *testing.T) {
	db, _, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	handler := NewHandler(createTestConfig(), db, newTestLogger(t))

	for _, mutate := range []func(*Input){
		func(in *Input) { in.TechnicalScore = 0 },
		func(in *Input) { in.CommunicationScore = 6 },
		func(in *Input) { in.CultureFitScore = -1 },
		func(in *Input) { in.MotivationScore = 11 },
	} {
		input := createTestInput()
		mutate(input)

		output, err := handler.Execute(context.Background(), input)

		assert.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidScore))
		assert.Nil(t, output)
	}
}

// ==========================
// Edge Cases
// ==========================

func TestHandler_Execute_InterviewNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	expectInterviewExists(mock, "itv-missing", false)

	handler := NewHandler(createTestConfig(), db, newTestLogger(t))

	input := createTestInput()
	input.InterviewID = "itv-missing"

	output, err := handler.Execute(context.Background(), input)

	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrInterviewNotFound))
	assert.Nil(t, output)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_InsertError(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	expectInterviewExists(mock, "itv-001", true)
	expectNoExistingEvaluation(mock, "itv-001")

	mock.ExpectExec(`INSERT INTO evaluations`).
		WillReturnError(errors.New("insert failed"))

	handler := NewHandler(createTestConfig(), db, newTestLogger(t))

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

	expectInterviewExists(mock, "itv-001", true)
	expectNoExistingEvaluation(mock, "itv-001")

	mock.ExpectExec(`INSERT INTO evaluations`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	mock.ExpectExec(`INSERT INTO audit_log`).
		WillReturnError(errors.New("audit log failed"))

	handler := NewHandler(createTestConfig(), db, newTestLogger(t))

	output, err := handler.Execute(context.Background(), createTestInput())

	// Should still succeed even if audit log fails
	assert.NoError(t, err)
	assert.NotNil(t, output)
	assert.False(t, output.AlreadyExists)

	assert.NoError(t, mock.ExpectationsWereMet())
}
