// Package steps provides step definitions for BDD integration tests.
package steps

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"time"

	"github.com/cucumber/godog"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/todo-app/backend/config"
	"github.com/todo-app/backend/internal/infra/dependency"
	"github.com/todo-app/backend/internal/integration/persistence/model"
	"github.com/todo-app/backend/test/integration/mock"
)

// TestContext holds the test state for each scenario.
type TestContext struct {
	// HTTP
	server       *httptest.Server
	response     *http.Response
	responseBody []byte

	// Auth
	sessions  map[string]string
	userIDs   map[string]uuid.UUID
	sessionID string

	// Storage
	db *mock.Db

	// Config
	cfg *config.Config
}

// contextKey is used to store TestContext in context.Context.
type contextKey struct{}

var (
	suiteServer *httptest.Server
	suiteDB     *mock.Db
	suiteConfig *config.Config
)

// GetTestContext retrieves the TestContext from context.
func GetTestContext(ctx context.Context) *TestContext {
	if tc, ok := ctx.Value(contextKey{}).(*TestContext); ok {
		return tc
	}
	return nil
}

// SetTestContext stores the TestContext in context.
func SetTestContext(ctx context.Context, tc *TestContext) context.Context {
	return context.WithValue(ctx, contextKey{}, tc)
}

// InitializeTestSuite sets up resources before any scenarios run.
func InitializeTestSuite(ctx *godog.TestSuiteContext) {
	ctx.BeforeSuite(func() {
		gin.SetMode(gin.TestMode)

		cfg := config.Load()
		cfg.Server.Environment = "test"
		cfg.Database.Driver = "sqlite"
		cfg.RateLimit.SignInAttempts = 1000
		cfg.Session.Secure = false
		suiteConfig = cfg

		suiteDB = mock.NewDb(model.AllModels()...)
		injector := dependency.NewInjector(cfg, suiteDB.Database, mock.NewRedis(), dependency.Options{
			BcryptCost: bcrypt.MinCost,
		})
		suiteServer = httptest.NewServer(injector.Router.Setup(cfg.Server.Environment))
	})

	ctx.AfterSuite(func() {
		if suiteServer != nil {
			suiteServer.Close()
		}
	})
}

// InitializeScenario registers all step definitions.
func InitializeScenario(ctx *godog.ScenarioContext) {
	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		if err := suiteDB.ClearDB(); err != nil {
			return ctx, fmt.Errorf("failed to clear database: %w", err)
		}
		if err := mock.ClearRedis(mock.NewRedis()); err != nil {
			return ctx, fmt.Errorf("failed to clear redis: %w", err)
		}

		tc := &TestContext{
			server:   suiteServer,
			sessions: make(map[string]string),
			userIDs:  make(map[string]uuid.UUID),
			db:       suiteDB,
			cfg:      suiteConfig,
		}
		return SetTestContext(ctx, tc), nil
	})

	registerAPISteps(ctx)
	registerAuthSteps(ctx)
	registerTodoSteps(ctx)
	registerResponseSteps(ctx)
}

// registerAPISteps registers HTTP request steps.
func registerAPISteps(ctx *godog.ScenarioContext) {
	ctx.Step(`^the API server is running$`, theAPIServerIsRunning)
	ctx.Step(`^I send a "([^"]*)" request to "([^"]*)"$`, iSendARequestTo)
	ctx.Step(`^I send a "([^"]*)" request to "([^"]*)" with body:$`, iSendARequestToWithBody)
}

// registerAuthSteps registers session steps.
func registerAuthSteps(ctx *godog.ScenarioContext) {
	ctx.Step(`^a user "([^"]*)" with password "([^"]*)" exists$`, aUserWithPasswordExists)
	ctx.Step(`^I am signed in as "([^"]*)"$`, iAmSignedInAs)
	ctx.Step(`^I am not signed in$`, iAmNotSignedIn)
	ctx.Step(`^my session has expired$`, mySessionHasExpired)
}

// registerTodoSteps registers todo fixture and assertion steps.
func registerTodoSteps(ctx *godog.ScenarioContext) {
	ctx.Step(`^"([^"]*)" owns the following todos:$`, ownsTheFollowingTodos)
	ctx.Step(`^todo (\d+) should be completed$`, todoShouldBeCompleted)
	ctx.Step(`^todo (\d+) should not be completed$`, todoShouldNotBeCompleted)
	ctx.Step(`^todo (\d+) should exist$`, todoShouldExist)
	ctx.Step(`^todo (\d+) should not exist$`, todoShouldNotExist)
}

// registerResponseSteps registers response validation steps.
func registerResponseSteps(ctx *godog.ScenarioContext) {
	ctx.Step(`^the response status should be (\d+)$`, theResponseStatusShouldBe)
	ctx.Step(`^the response should be JSON$`, theResponseShouldBeJSON)
	ctx.Step(`^the response should contain "([^"]*)"$`, theResponseShouldContain)
	ctx.Step(`^the response should not contain "([^"]*)"$`, theResponseShouldNotContain)
	ctx.Step(`^the response field "([^"]*)" should be "([^"]*)"$`, theResponseFieldShouldBe)
	ctx.Step(`^the response should set the session cookie$`, theResponseShouldSetTheSessionCookie)
}

// Step implementations

func theAPIServerIsRunning(ctx context.Context) error {
	tc := GetTestContext(ctx)
	if tc == nil || tc.server == nil {
		return fmt.Errorf("test server is not running")
	}
	return nil
}

func iSendARequestTo(ctx context.Context, method, endpoint string) (context.Context, error) {
	return send(ctx, method, endpoint, nil)
}

func iSendARequestToWithBody(ctx context.Context, method, endpoint string, body *godog.DocString) (context.Context, error) {
	return send(ctx, method, endpoint, bytes.NewBufferString(body.Content))
}

func send(ctx context.Context, method, endpoint string, body io.Reader) (context.Context, error) {
	tc := GetTestContext(ctx)
	if tc == nil {
		return ctx, fmt.Errorf("test context not found")
	}

	req, err := http.NewRequest(method, tc.server.URL+endpoint, body)
	if err != nil {
		return ctx, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tc.sessionID != "" {
		req.AddCookie(&http.Cookie{Name: tc.cfg.Session.CookieName, Value: tc.sessionID})
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return ctx, fmt.Errorf("failed to send request: %w", err)
	}

	tc.response = resp
	tc.responseBody, err = io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return ctx, fmt.Errorf("failed to read response body: %w", err)
	}

	return SetTestContext(ctx, tc), nil
}

func aUserWithPasswordExists(ctx context.Context, username, password string) (context.Context, error) {
	tc := GetTestContext(ctx)
	if tc == nil {
		return ctx, fmt.Errorf("test context not found")
	}

	payload, _ := json.Marshal(map[string]string{
		"username":         username,
		"password":         password,
		"confirm_password": password,
	})
	resp, err := http.Post(tc.server.URL+"/api/v1/auth/sign-up", "application/json", bytes.NewReader(payload))
	if err != nil {
		return ctx, fmt.Errorf("failed to sign up: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return ctx, fmt.Errorf("sign up returned %d: %s", resp.StatusCode, string(body))
	}

	var user struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return ctx, fmt.Errorf("failed to decode sign up response: %w", err)
	}
	userID, err := uuid.Parse(user.ID)
	if err != nil {
		return ctx, fmt.Errorf("invalid user id %q: %w", user.ID, err)
	}
	tc.userIDs[username] = userID

	for _, cookie := range resp.Cookies() {
		if cookie.Name == tc.cfg.Session.CookieName {
			tc.sessions[username] = cookie.Value
		}
	}
	if tc.sessions[username] == "" {
		return ctx, fmt.Errorf("sign up did not set the session cookie")
	}

	return SetTestContext(ctx, tc), nil
}

func iAmSignedInAs(ctx context.Context, username string) (context.Context, error) {
	tc := GetTestContext(ctx)
	if tc == nil {
		return ctx, fmt.Errorf("test context not found")
	}
	sessionID, ok := tc.sessions[username]
	if !ok {
		return ctx, fmt.Errorf("user %q has no session", username)
	}
	tc.sessionID = sessionID
	return SetTestContext(ctx, tc), nil
}

func iAmNotSignedIn(ctx context.Context) (context.Context, error) {
	tc := GetTestContext(ctx)
	if tc == nil {
		return ctx, fmt.Errorf("test context not found")
	}
	tc.sessionID = ""
	return SetTestContext(ctx, tc), nil
}

func mySessionHasExpired(ctx context.Context) error {
	tc := GetTestContext(ctx)
	if tc == nil {
		return fmt.Errorf("test context not found")
	}
	mock.RedisServer().FastForward(tc.cfg.Session.Lifetime + time.Second)
	return nil
}

func ownsTheFollowingTodos(ctx context.Context, username string, table *godog.Table) error {
	tc := GetTestContext(ctx)
	if tc == nil {
		return fmt.Errorf("test context not found")
	}

	ownerID, ok := tc.userIDs[username]
	if !ok {
		// owners that never signed up still need a stable id
		ownerID = uuid.New()
		tc.userIDs[username] = ownerID
	}

	if len(table.Rows) < 2 {
		return fmt.Errorf("todo table needs a header and at least one row")
	}
	header := make(map[string]int)
	for i, cell := range table.Rows[0].Cells {
		header[cell.Value] = i
	}

	now := time.Now().UTC()
	for _, row := range table.Rows[1:] {
		id, err := strconv.ParseInt(row.Cells[header["id"]].Value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid todo id: %w", err)
		}
		completed, err := strconv.ParseBool(row.Cells[header["completed"]].Value)
		if err != nil {
			return fmt.Errorf("invalid completed flag: %w", err)
		}

		todo := &model.TodoModel{
			ID:        id,
			UserID:    ownerID,
			Content:   row.Cells[header["content"]].Value,
			Completed: completed,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tc.db.Conn().Create(todo).Error; err != nil {
			return fmt.Errorf("failed to insert todo %d: %w", id, err)
		}
	}
	return nil
}

func findTodo(ctx context.Context, id int64) (*model.TodoModel, error) {
	tc := GetTestContext(ctx)
	if tc == nil {
		return nil, fmt.Errorf("test context not found")
	}
	var todo model.TodoModel
	result := tc.db.Conn().Where("id = ?", id).Limit(1).Find(&todo)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return &todo, nil
}

func todoShouldBeCompleted(ctx context.Context, id int64) error {
	return expectCompleted(ctx, id, true)
}

func todoShouldNotBeCompleted(ctx context.Context, id int64) error {
	return expectCompleted(ctx, id, false)
}

func expectCompleted(ctx context.Context, id int64, want bool) error {
	todo, err := findTodo(ctx, id)
	if err != nil {
		return err
	}
	if todo == nil {
		return fmt.Errorf("todo %d does not exist", id)
	}
	if todo.Completed != want {
		return fmt.Errorf("todo %d completed = %t, want %t", id, todo.Completed, want)
	}
	return nil
}

func todoShouldExist(ctx context.Context, id int64) error {
	todo, err := findTodo(ctx, id)
	if err != nil {
		return err
	}
	if todo == nil {
		return fmt.Errorf("todo %d does not exist", id)
	}
	return nil
}

func todoShouldNotExist(ctx context.Context, id int64) error {
	todo, err := findTodo(ctx, id)
	if err != nil {
		return err
	}
	if todo != nil {
		return fmt.Errorf("todo %d still exists", id)
	}
	return nil
}

func theResponseStatusShouldBe(ctx context.Context, expectedStatus int) error {
	tc := GetTestContext(ctx)
	if tc == nil {
		return fmt.Errorf("test context not found")
	}
	if tc.response == nil {
		return fmt.Errorf("no response received")
	}
	if tc.response.StatusCode != expectedStatus {
		return fmt.Errorf("expected status %d, got %d. Body: %s", expectedStatus, tc.response.StatusCode, string(tc.responseBody))
	}
	return nil
}

func theResponseShouldBeJSON(ctx context.Context) error {
	tc := GetTestContext(ctx)
	if tc == nil {
		return fmt.Errorf("test context not found")
	}
	var js json.RawMessage
	if err := json.Unmarshal(tc.responseBody, &js); err != nil {
		return fmt.Errorf("response is not valid JSON: %w", err)
	}
	return nil
}

func theResponseShouldContain(ctx context.Context, expected string) error {
	tc := GetTestContext(ctx)
	if tc == nil {
		return fmt.Errorf("test context not found")
	}
	if !strings.Contains(string(tc.responseBody), expected) {
		return fmt.Errorf("response does not contain '%s'. Body: %s", expected, string(tc.responseBody))
	}
	return nil
}

func theResponseShouldNotContain(ctx context.Context, unexpected string) error {
	tc := GetTestContext(ctx)
	if tc == nil {
		return fmt.Errorf("test context not found")
	}
	if strings.Contains(string(tc.responseBody), unexpected) {
		return fmt.Errorf("response contains '%s'. Body: %s", unexpected, string(tc.responseBody))
	}
	return nil
}

func theResponseFieldShouldBe(ctx context.Context, field, expected string) error {
	tc := GetTestContext(ctx)
	if tc == nil {
		return fmt.Errorf("test context not found")
	}

	var data map[string]interface{}
	if err := json.Unmarshal(tc.responseBody, &data); err != nil {
		return fmt.Errorf("failed to parse response JSON: %w", err)
	}

	value, ok := data[field]
	if !ok {
		return fmt.Errorf("field '%s' not found in response", field)
	}

	actual := fmt.Sprintf("%v", value)
	if actual != expected {
		return fmt.Errorf("field '%s' expected '%s', got '%s'", field, expected, actual)
	}

	return nil
}

func theResponseShouldSetTheSessionCookie(ctx context.Context) error {
	tc := GetTestContext(ctx)
	if tc == nil {
		return fmt.Errorf("test context not found")
	}
	for _, cookie := range tc.response.Cookies() {
		if cookie.Name == tc.cfg.Session.CookieName && cookie.Value != "" {
			return nil
		}
	}
	return fmt.Errorf("response did not set cookie %q", tc.cfg.Session.CookieName)
}
