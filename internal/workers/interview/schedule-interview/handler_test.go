// internal/workers/interview/schedule-interview/handler_test.go
package scheduleinterview

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
		ApplicationID:   "app-001",
		InterviewType:   "VIDEO",
		ScheduledAt:     time.Now().UTC().Add(48 * time.Hour).Format(time.RFC3339),
		DurationMinutes: 45,
		VideoLink:       "https://meet.example.com/room-42",
		InterviewerID:   "user-rh-01",
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

func expectApplication(mock sqlmock.Sqlmock, appID, status string, round int) {
	mock.ExpectQuery(`SELECT a.status, a.interview_round`).
		WithArgs(appID).
		WillReturnRows(sqlmock.NewRows([]string{"status", "interview_round", "candidate", "title"}).
			AddRow(status, round, "Grace Hopper", "Backend Engineer"))
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_FirstRound(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	expectApplication(mock, "app-001", "FOLLOWED_UP", 0)

	mock.ExpectExec(`INSERT INTO interviews`).
		WithArgs(
			sqlmock.AnyArg(), // interview ID (UUID)
			"app-001",
			1,
			"VIDEO",
			"PLANNED",
			sqlmock.AnyArg(),
			45,
			"",
			"https://meet.example.com/room-42",
			"",
			"",
			"",
			"user-rh-01",
			"",
			sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	mock.ExpectExec(`UPDATE applications`).
		WithArgs("INTERVIEW", 1, sqlmock.AnyArg(), "app-001").
		WillReturnResult(sqlmock.NewResult(0, 1))

	mock.ExpectExec(`INSERT INTO audit_log`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	handler := NewHandler(createTestConfig(), db, newTestLogger(t))

	output, err := handler.Execute(context.Background(), createTestInput())

	assert.NoError(t, err)
	assert.NotNil(t, output)
	assert.NotEmpty(t, output.InterviewID)
	assert.Equal(t, "PLANNED", output.InterviewStatus)
	assert.Equal(t, 1, output.Round)
	assert.Equal(t, "INTERVIEW", output.ApplicationStatus)
	assert.NotEmpty(t, output.NoteSubject)
	assert.NotEmpty(t, output.NoteBody)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_NotePayloadForFanOut(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	expectApplication(mock, "app-001", "FOLLOWED_UP", 0)

	mock.ExpectExec(`INSERT INTO interviews`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`UPDATE applications`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO audit_log`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	handler := NewHandler(createTestConfig(), db, newTestLogger(t))

	output, err := handler.Execute(context.Background(), createTestInput())

	assert.NoError(t, err)
	assert.Equal(t, "Interview scheduled: Grace Hopper / Backend Engineer", output.NoteSubject)
	assert.Contains(t, output.NoteBody, "Round 1 VIDEO interview")
	assert.Contains(t, output.NoteBody, "Grace Hopper")
	assert.Contains(t, output.NoteBody, "Backend Engineer")
	assert.Contains(t, output.NoteBody, output.ScheduledAt)
	assert.Contains(t, output.NoteBody, "https://meet.example.com/room-42")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_SecondRoundKeepsInterviewStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	expectApplication(mock, "app-002", "INTERVIEW", 1)

	mock.ExpectExec(`INSERT INTO interviews`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	mock.ExpectExec(`UPDATE applications`).
		WithArgs("INTERVIEW", 2, sqlmock.AnyArg(), "app-002").
		WillReturnResult(sqlmock.NewResult(0, 1))

	mock.ExpectExec(`INSERT INTO audit_log`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	handler := NewHandler(createTestConfig(), db, newTestLogger(t))

	input := createTestInput()
	input.ApplicationID = "app-002"
	input.InterviewType = "TECHNICAL"

	output, err := handler.Execute(context.Background(), input)

	assert.NoError(t, err)
	assert.Equal(t, 2, output.Round)
	assert.Equal(t, "INTERVIEW", output.ApplicationStatus)

	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Guard Tests
// ==========================

func TestHandler_Execute_NotReadyForInterview(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	expectApplication(mock, "app-003", "SUBMITTED", 0)

	handler := NewHandler(createTestConfig(), db, newTestLogger(t))

	input := createTestInput()
	input.ApplicationID = "app-003"

	output, err := handler.Execute(context.Background(), input)

	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrIllegalStatusTransition))
	assert.Nil(t, output)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_MaxRoundsReached(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	expectApplication(mock, "app-004", "INTERVIEW", 3)

	handler := NewHandler(createTestConfig(), db, newTestLogger(t))

	input := createTestInput()
	input.ApplicationID = "app-004"

	output, err := handler.Execute(context.Background(), input)

	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrMaxRoundsReached))
	assert.Nil(t, output)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_PastDate(t *testing.T) {
	db, _, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	handler := NewHandler(createTestConfig(), db, newTestLogger(t))

	input := createTestInput()
	input.ScheduledAt = time.Now().UTC().Add(-time.Hour).Format(time.RFC3339)

	output, err := handler.Execute(context.Background(), input)

	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrPastInterviewDate))
	assert.Nil(t, output)
}

func TestHandler_Execute_InvalidType(t *testing.T) {
	db, _, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	handler := NewHandler(createTestConfig(), db, newTestLogger(t))

	input := createTestInput()
	input.InterviewType = "COFFEE_CHAT"

	output, err := handler.Execute(context.Background(), input)

	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidInput))
	assert.Nil(t, output)
}

func TestHandler_Execute_MalformedDate(t *testing.T) {
	db, _, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	handler := NewHandler(createTestConfig(), db, newTestLogger(t))

	input := createTestInput()
	input.ScheduledAt = "next tuesday"

	output, err := handler.Execute(context.Background(), input)

	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidInput))
	assert.Nil(t, output)
}

// ==========================
// Edge Cases
// ==========================

func TestHandler_Execute_ApplicationNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT a.status, a.interview_round`).
		WithArgs("app-missing").
		WillReturnRows(sqlmock.NewRows([]string{"status", "interview_round", "candidate", "title"}))

	handler := NewHandler(createTestConfig(), db, newTestLogger(t))

	input := createTestInput()
	input.ApplicationID = "app-missing"

	output, err := handler.Execute(context.Background(), input)

	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrApplicationNotFound))
	assert.Nil(t, output)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_InsertError(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	expectApplication(mock, "app-005", "FOLLOWED_UP", 0)

	mock.ExpectExec(`INSERT INTO interviews`).
		WillReturnError(errors.New("insert failed"))

	handler := NewHandler(createTestConfig(), db, newTestLogger(t))

	input := createTestInput()
	input.ApplicationID = "app-005"

	output, err := handler.Execute(context.Background(), input)

	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrDatabaseInsertFailed))
	assert.Nil(t, output)

	assert.NoError(t, mock.ExpectationsWereMet())
}
