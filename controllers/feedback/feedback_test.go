package feedbackController_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"pulse/config"
	feedbackController "pulse/controllers/feedback"
	"pulse/database"
	"pulse/middleware"
	"pulse/models"
	"pulse/repository"
	feedbackRoutes "pulse/routers/feedbackRoutes"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// captureNotifier records notifications and can be told to fail
type captureNotifier struct {
	messages chan string
	err      error
}

func newCaptureNotifier() *captureNotifier {
	return &captureNotifier{messages: make(chan string, 10)}
}

func (n *captureNotifier) Notify(ctx context.Context, message string) error {
	n.messages <- message
	return n.err
}

func waitForMessage(t *testing.T, n *captureNotifier) string {
	t.Helper()
	select {
	case msg := <-n.messages:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("expected a notification, got none")
		return ""
	}
}

func assertNoMessage(t *testing.T, n *captureNotifier) {
	t.Helper()
	select {
	case msg := <-n.messages:
		t.Fatalf("expected no notification, got %q", msg)
	case <-time.After(100 * time.Millisecond):
	}
}

func setupTestApp(t *testing.T) (*fiber.App, *gorm.DB, *captureNotifier) {
	t.Helper()

	config.LoadConfig()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	// One connection keeps every query on the same in-memory database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.RunMigrations(db))

	notif := newCaptureNotifier()
	controller := feedbackController.New(repository.NewFeedbackRepo(db), notif)

	app := fiber.New()
	feedbackRoutes.SetupFeedbackRoutes(app, controller)

	return app, db, notif
}

func createTestUser(t *testing.T, db *gorm.DB, username, role string) (*models.User, string) {
	t.Helper()

	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Role:     role,
	}
	require.NoError(t, db.Create(user).Error)

	token, err := middleware.GenerateJWT(user.ID, user.Username, user.Role, user.Email)
	require.NoError(t, err)

	return user, token
}

func sendJSON(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (*http.Response, string) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res, string(raw)
}

func TestSubmitFeedback_CreatesRecordAndNotifies(t *testing.T) {
	app, db, notif := setupTestApp(t)
	user, token := createTestUser(t, db, "alice", "USER")

	res, bodyStr := sendJSON(t, app, "POST", "/feedback", token, map[string]string{
		"content":    "Great app!",
		"evaluation": "positive",
	})

	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, bodyStr, `"id"`)
	assert.Contains(t, bodyStr, "Feedback submitted successfully!")

	var stored models.Feedback
	require.NoError(t, db.First(&stored).Error)
	assert.Equal(t, user.ID, stored.OwnerID)
	assert.Equal(t, "Great app!", stored.Content)
	assert.Equal(t, models.EvaluationPositive, stored.Evaluation)

	msg := waitForMessage(t, notif)
	assert.Contains(t, msg, "👍")
	assert.Contains(t, msg, "alice")
	assert.Contains(t, msg, "Great app!")
}

func TestSubmitFeedback_FormEncodedBody(t *testing.T) {
	app, db, notif := setupTestApp(t)
	_, token := createTestUser(t, db, "alice", "USER")

	form := url.Values{}
	form.Set("content", "Works with forms too")
	form.Set("evaluation", "negative")

	req, err := http.NewRequest("POST", "/feedback", strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+token)

	res, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	msg := waitForMessage(t, notif)
	assert.Contains(t, msg, "👎")
	assert.Contains(t, msg, "Works with forms too")
}

func TestSubmitFeedback_EmptyContentRejected(t *testing.T) {
	app, db, notif := setupTestApp(t)
	_, token := createTestUser(t, db, "alice", "USER")

	res, bodyStr := sendJSON(t, app, "POST", "/feedback", token, map[string]string{
		"content":    "",
		"evaluation": "positive",
	})

	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Contains(t, bodyStr, "content")

	var count int64
	db.Model(&models.Feedback{}).Count(&count)
	assert.Equal(t, int64(0), count)
	assertNoMessage(t, notif)
}

func TestSubmitFeedback_InvalidEvaluationRejected(t *testing.T) {
	app, db, _ := setupTestApp(t)
	_, token := createTestUser(t, db, "alice", "USER")

	res, bodyStr := sendJSON(t, app, "POST", "/feedback", token, map[string]string{
		"content":    "fine text",
		"evaluation": "true",
	})

	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Contains(t, bodyStr, "evaluation")

	var count int64
	db.Model(&models.Feedback{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestSubmitFeedback_ContentTooLongRejected(t *testing.T) {
	app, db, _ := setupTestApp(t)
	_, token := createTestUser(t, db, "alice", "USER")

	res, bodyStr := sendJSON(t, app, "POST", "/feedback", token, map[string]string{
		"content":    strings.Repeat("a", 10001),
		"evaluation": "positive",
	})

	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Contains(t, bodyStr, "content")
}

func TestSubmitFeedback_MaxLengthContentAccepted(t *testing.T) {
	app, db, _ := setupTestApp(t)
	_, token := createTestUser(t, db, "alice", "USER")

	res, _ := sendJSON(t, app, "POST", "/feedback", token, map[string]string{
		"content":    strings.Repeat("a", 10000),
		"evaluation": "positive",
	})

	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestSubmitFeedback_ForeignRecordReadsAsMissing(t *testing.T) {
	app, db, notif := setupTestApp(t)
	owner, _ := createTestUser(t, db, "alice", "USER")
	_, intruderToken := createTestUser(t, db, "mallory", "USER")

	feedback := &models.Feedback{OwnerID: owner.ID, Content: "mine", Evaluation: models.EvaluationPositive}
	require.NoError(t, db.Create(feedback).Error)

	res, bodyStr := sendJSON(t, app, "POST", "/feedback", intruderToken, map[string]string{
		"id":         feedback.ID,
		"content":    "edit",
		"evaluation": "negative",
	})

	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Contains(t, bodyStr, "Feedback not found!")

	// No write happened
	var stored models.Feedback
	require.NoError(t, db.Where("id = ?", feedback.ID).First(&stored).Error)
	assert.Equal(t, "mine", stored.Content)
	assert.Equal(t, owner.ID, stored.OwnerID)
	assertNoMessage(t, notif)
}

func TestSubmitFeedback_UnknownIDReadsAsMissing(t *testing.T) {
	app, db, _ := setupTestApp(t)
	_, token := createTestUser(t, db, "alice", "USER")

	res, bodyStr := sendJSON(t, app, "POST", "/feedback", token, map[string]string{
		"id":         "does-not-exist",
		"content":    "edit",
		"evaluation": "negative",
	})

	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Contains(t, bodyStr, "Feedback not found!")
}

func TestSubmitFeedback_UpdatesOwnRecord(t *testing.T) {
	app, db, notif := setupTestApp(t)
	user, token := createTestUser(t, db, "alice", "USER")

	res, bodyStr := sendJSON(t, app, "POST", "/feedback", token, map[string]string{
		"content":    "first impression",
		"evaluation": "positive",
	})
	require.Equal(t, http.StatusOK, res.StatusCode)
	_ = waitForMessage(t, notif)

	var created models.Feedback
	require.NoError(t, db.First(&created).Error)

	res, bodyStr = sendJSON(t, app, "POST", "/feedback", token, map[string]string{
		"id":         created.ID,
		"content":    "changed my mind",
		"evaluation": "negative",
	})

	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, bodyStr, created.ID)

	var updated models.Feedback
	require.NoError(t, db.Where("id = ?", created.ID).First(&updated).Error)
	assert.Equal(t, "changed my mind", updated.Content)
	assert.Equal(t, models.EvaluationNegative, updated.Evaluation)
	assert.Equal(t, user.ID, updated.OwnerID)

	// Update, not a second record
	var count int64
	db.Model(&models.Feedback{}).Count(&count)
	assert.Equal(t, int64(1), count)

	msg := waitForMessage(t, notif)
	assert.Contains(t, msg, "👎")
	assert.Contains(t, msg, "changed my mind")
}

func TestSubmitFeedback_NotifierFailureDoesNotFailRequest(t *testing.T) {
	app, db, notif := setupTestApp(t)
	_, token := createTestUser(t, db, "alice", "USER")
	notif.err = assert.AnError

	res, _ := sendJSON(t, app, "POST", "/feedback", token, map[string]string{
		"content":    "still works",
		"evaluation": "positive",
	})

	assert.Equal(t, http.StatusOK, res.StatusCode)

	var count int64
	db.Model(&models.Feedback{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestSubmitFeedback_RequiresAuthentication(t *testing.T) {
	app, _, _ := setupTestApp(t)

	res, _ := sendJSON(t, app, "POST", "/feedback", "", map[string]string{
		"content":    "anonymous",
		"evaluation": "positive",
	})

	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestGetMyFeedback_ReturnsOnlyOwnRecords(t *testing.T) {
	app, db, _ := setupTestApp(t)
	alice, aliceToken := createTestUser(t, db, "alice", "USER")
	bob, _ := createTestUser(t, db, "bob", "USER")

	require.NoError(t, db.Create(&models.Feedback{OwnerID: alice.ID, Content: "from alice", Evaluation: "positive"}).Error)
	require.NoError(t, db.Create(&models.Feedback{OwnerID: bob.ID, Content: "from bob", Evaluation: "negative"}).Error)

	res, bodyStr := sendJSON(t, app, "GET", "/feedback/my", aliceToken, nil)

	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, bodyStr, "from alice")
	assert.NotContains(t, bodyStr, "from bob")
}

func TestGetRecentFeedback_AdminOnly(t *testing.T) {
	app, db, _ := setupTestApp(t)
	alice, userToken := createTestUser(t, db, "alice", "USER")
	_, adminToken := createTestUser(t, db, "root", "ADMIN")

	require.NoError(t, db.Create(&models.Feedback{OwnerID: alice.ID, Content: "hello", Evaluation: "positive"}).Error)

	res, _ := sendJSON(t, app, "GET", "/feedback/admin/recent", userToken, nil)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)

	res, bodyStr := sendJSON(t, app, "GET", "/feedback/admin/recent", adminToken, nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, bodyStr, "hello")
	assert.Contains(t, bodyStr, "alice")
}
