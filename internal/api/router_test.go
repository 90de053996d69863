package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/isdelr/blog-api/internal/auth"
	"github.com/isdelr/blog-api/internal/database"
	"github.com/isdelr/blog-api/internal/metrics"
	"github.com/isdelr/blog-api/internal/services"
	"github.com/isdelr/blog-api/internal/storage/sqlite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.Disabled)
	os.Exit(m.Run())
}

type testServer struct {
	t      *testing.T
	router http.Handler
	tokens *auth.TokenService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "blog.db"))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	store := sqlite.New(db)
	t.Cleanup(func() { store.Close() })

	events := services.NewEventService(store)
	tokens := auth.NewTokenService([]byte("test-signing-key"), 2*time.Minute)
	router := NewRouter(Deps{
		Users:          services.NewUserService(store, auth.NewPasswordHasher(bcrypt.MinCost), events),
		Posts:          services.NewPostService(store, events),
		Comments:       services.NewCommentService(store, events),
		Tags:           services.NewTagService(store, events),
		Events:         events,
		Health:         store,
		Tokens:         tokens,
		Metrics:        metrics.New(),
		AllowedOrigins: []string{"*"},
		RequestTimeout: 5 * time.Second,
	})
	return &testServer{t: t, router: router, tokens: tokens}
}

type result struct {
	code int
	body map[string]any
}

func (s *testServer) do(method, path, token string, payload any) result {
	s.t.Helper()
	var body bytes.Buffer
	if payload != nil {
		require.NoError(s.t, json.NewEncoder(&body).Encode(payload))
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	res := result{code: rec.Code}
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &res.body), rec.Body.String())
	}
	return res
}

func registerBody(username, email string) map[string]string {
	return map[string]string{
		"first_name":       "Alicee",
		"last_name":        "Smithh",
		"username":         username,
		"email":            email,
		"password":         "s3cret-pass",
		"confirm_password": "s3cret-pass",
	}
}

// register creates a user and returns its token and id.
func (s *testServer) register(username, email string) (string, int64) {
	s.t.Helper()
	res := s.do(http.MethodPost, "/register", "", registerBody(username, email))
	require.Equal(s.t, http.StatusCreated, res.code, res.body)
	user := res.body["user"].(map[string]any)
	return res.body["token"].(string), int64(user["id"].(float64))
}

func (s *testServer) createPost(token, title string) int64 {
	s.t.Helper()
	res := s.do(http.MethodPost, "/posts", token, map[string]string{"title": title, "content": "Body text"})
	require.Equal(s.t, http.StatusCreated, res.code, res.body)
	return int64(res.body["post"].(map[string]any)["id"].(float64))
}

func TestRegisterAndDuplicateUsername(t *testing.T) {
	s := newTestServer(t)

	res := s.do(http.MethodPost, "/register", "", registerBody("alice1", "a@x.com"))
	require.Equal(t, http.StatusCreated, res.code)
	assert.Equal(t, "success", res.body["status"])
	assert.Equal(t, "user account created successfuly", res.body["message"])
	assert.NotEmpty(t, res.body["token"])
	user := res.body["user"].(map[string]any)
	assert.Equal(t, "alice1", user["username"])
	assert.NotContains(t, user, "password_hash")
	assert.NotContains(t, user, "PasswordHash")

	res = s.do(http.MethodPost, "/register", "", registerBody("alice1", "other@x.com"))
	assert.Equal(t, http.StatusBadRequest, res.code)
	assert.Equal(t, "That username has been taken. Enter a different one.", res.body["message"])

	res = s.do(http.MethodPost, "/register", "", registerBody("bobby1", "a@x.com"))
	assert.Equal(t, http.StatusBadRequest, res.code)
	assert.Equal(t, "That email has been taken. Enter a different one.", res.body["message"])
}

func TestRegisterValidation(t *testing.T) {
	s := newTestServer(t)

	res := s.do(http.MethodPost, "/register", "", map[string]string{"username": "bob"})
	require.Equal(t, http.StatusBadRequest, res.code)
	assert.Equal(t, "validation failed", res.body["message"])
	errs := res.body["errors"].(map[string]any)
	assert.Equal(t, []any{"Field must be between 6 and 100 characters long."}, errs["username"])
	assert.Equal(t, []any{"This field is required."}, errs["email"])

	req := httptest.NewRequest(http.MethodPost, "/register", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)
	_, id := s.register("alice1", "a@x.com")

	res := s.do(http.MethodPost, "/login", "", map[string]string{"email": "a@x.com", "password": "s3cret-pass"})
	require.Equal(t, http.StatusOK, res.code)
	assert.Equal(t, "login successful", res.body["message"])
	userID, err := s.tokens.Verify(res.body["token"].(string))
	require.NoError(t, err)
	assert.Equal(t, id, userID)

	wrong := s.do(http.MethodPost, "/login", "", map[string]string{"email": "a@x.com", "password": "nope"})
	unknown := s.do(http.MethodPost, "/login", "", map[string]string{"email": "ghost@x.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, wrong.code)
	assert.Equal(t, wrong, unknown)
	assert.Equal(t, "password incorrect. Try again", wrong.body["message"])

	res = s.do(http.MethodPost, "/login", "", map[string]string{"email": "bad"})
	assert.Equal(t, http.StatusBadRequest, res.code)
	assert.Equal(t, "login unsuccessful", res.body["message"])
}

func TestInfoEndpoints(t *testing.T) {
	s := newTestServer(t)

	res := s.do(http.MethodGet, "/register", "", nil)
	assert.Equal(t, http.StatusOK, res.code)
	assert.Equal(t, "Send POST request with user data to register", res.body["message"])

	res = s.do(http.MethodGet, "/login", "", nil)
	assert.Equal(t, "Send POST request with email and password to login", res.body["message"])

	res = s.do(http.MethodPost, "/logout", "", nil)
	assert.Equal(t, http.StatusOK, res.code)

	res = s.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, res.code)
	assert.Equal(t, "ok", res.body["status"])

	res = s.do(http.MethodGet, "/nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, res.code)
	assert.Equal(t, "Resource not found", res.body["message"])

	res = s.do(http.MethodPatch, "/tag-post", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, res.code)
}

func TestCreatePostAuthMessages(t *testing.T) {
	s := newTestServer(t)

	res := s.do(http.MethodPost, "/posts", "", map[string]string{"title": "t", "content": "c"})
	assert.Equal(t, http.StatusUnauthorized, res.code)
	assert.Equal(t, "Authentication required to create posts", res.body["message"])

	res = s.do(http.MethodPost, "/posts", "garbage", map[string]string{"title": "t", "content": "c"})
	assert.Equal(t, http.StatusUnauthorized, res.code)
	assert.Equal(t, "Invalid or expired token", res.body["message"])

	res = s.do(http.MethodDelete, "/posts/delete/1", "", nil)
	assert.Equal(t, http.StatusUnauthorized, res.code)
	assert.Equal(t, auth.MsgTokenMissing, res.body["message"])
}

func TestPostLifecycle(t *testing.T) {
	s := newTestServer(t)
	alice, aliceID := s.register("alice1", "a@x.com")

	res := s.do(http.MethodPost, "/posts", alice, map[string]string{"content": "no title"})
	assert.Equal(t, http.StatusBadRequest, res.code)
	assert.Equal(t, "Post not added", res.body["message"])

	id := s.createPost(alice, "Hello")
	s.createPost(alice, "Second")

	res = s.do(http.MethodGet, "/posts", "", nil)
	require.Equal(t, http.StatusOK, res.code)
	posts := res.body["posts"].([]any)
	require.Len(t, posts, 2)
	assert.Equal(t, "Hello", posts[0].(map[string]any)["title"])

	path := fmt.Sprintf("/posts/%d", id)
	res = s.do(http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, res.code)
	post := res.body["post"].(map[string]any)
	assert.Equal(t, float64(aliceID), post["user_id"])

	res = s.do(http.MethodPut, fmt.Sprintf("/posts/update/%d", id), alice, map[string]string{"title": "Edited", "content": "New"})
	require.Equal(t, http.StatusOK, res.code)
	assert.Equal(t, "Your post has been updated successfully", res.body["message"])
	assert.Equal(t, "Edited", res.body["post"].(map[string]any)["title"])

	res = s.do(http.MethodDelete, fmt.Sprintf("/posts/delete/%d", id), alice, nil)
	require.Equal(t, http.StatusOK, res.code)
	assert.Equal(t, "Your post has been deleted successfully", res.body["message"])

	res = s.do(http.MethodGet, path, "", nil)
	assert.Equal(t, http.StatusNotFound, res.code)
	res = s.do(http.MethodGet, "/posts/99999999999999999999", "", nil)
	assert.Equal(t, http.StatusNotFound, res.code)
}

func TestNonOwnerIsForbidden(t *testing.T) {
	s := newTestServer(t)
	alice, _ := s.register("alice1", "a@x.com")
	bob, _ := s.register("bobby1", "b@x.com")
	id := s.createPost(alice, "Hello")

	// Invalid payloads still get 403, not 400.
	res := s.do(http.MethodPut, fmt.Sprintf("/posts/update/%d", id), bob, map[string]string{})
	assert.Equal(t, http.StatusForbidden, res.code)
	assert.Equal(t, "You can only update your own posts", res.body["message"])

	res = s.do(http.MethodDelete, fmt.Sprintf("/posts/delete/%d", id), bob, nil)
	assert.Equal(t, http.StatusForbidden, res.code)
	assert.Equal(t, "You can only delete your own posts", res.body["message"])

	res = s.do(http.MethodPost, "/tag-post", bob, map[string]any{"tag_name": "go", "post_id": id})
	assert.Equal(t, http.StatusForbidden, res.code)
	assert.Equal(t, "You can only tag your own posts", res.body["message"])

	res = s.do(http.MethodPut, "/posts/update/424242", bob, map[string]string{"title": "x", "content": "y"})
	assert.Equal(t, http.StatusNotFound, res.code)
}

func TestComments(t *testing.T) {
	s := newTestServer(t)
	alice, _ := s.register("alice1", "a@x.com")
	bob, bobID := s.register("bobby1", "b@x.com")
	id := s.createPost(alice, "Hello")
	path := fmt.Sprintf("/posts/%d/comments", id)

	res := s.do(http.MethodPost, path, "", map[string]string{"content": "hi"})
	assert.Equal(t, http.StatusUnauthorized, res.code)
	assert.Equal(t, "Authentication required to comment", res.body["message"])

	res = s.do(http.MethodPost, path, bob, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, res.code)
	assert.Equal(t, "Content is required to be able to comment", res.body["message"])

	res = s.do(http.MethodPost, "/posts/424242/comments", bob, map[string]string{"content": "hi"})
	assert.Equal(t, http.StatusNotFound, res.code)

	// Authorship comes from the token, not the body.
	res = s.do(http.MethodPost, path, bob, map[string]any{"content": "nice post", "user_id": 1})
	require.Equal(t, http.StatusCreated, res.code)
	assert.Equal(t, "Comment added successfully", res.body["message"])
	assert.Equal(t, float64(bobID), res.body["comment"].(map[string]any)["user_id"])

	res = s.do(http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, res.code)
	comments := res.body["comments"].([]any)
	require.Len(t, comments, 1)
	assert.Equal(t, "bobby1", comments[0].(map[string]any)["author_username"])
}

func TestTagPostTwice(t *testing.T) {
	s := newTestServer(t)
	alice, _ := s.register("alice1", "a@x.com")
	id := s.createPost(alice, "Hello")

	res := s.do(http.MethodPost, "/tag-post", alice, map[string]any{"tag_name": "golang"})
	assert.Equal(t, http.StatusBadRequest, res.code)
	assert.Equal(t, "tag_name and post_id are required", res.body["message"])

	res = s.do(http.MethodPost, "/tag-post", alice, map[string]any{"tag_name": "golang", "post_id": id, "description": "Go"})
	require.Equal(t, http.StatusOK, res.code)
	assert.Equal(t, "success", res.body["status"])
	assert.Equal(t, fmt.Sprintf("Post %d tagged with \"golang\" successfully", id), res.body["message"])
	assert.Equal(t, "Hello", res.body["post_title"])
	assert.Equal(t, "golang", res.body["tag"].(map[string]any)["name"])

	res = s.do(http.MethodPost, "/tag-post", alice, map[string]any{"tag_name": "golang", "post_id": id})
	require.Equal(t, http.StatusOK, res.code)
	assert.Equal(t, "info", res.body["status"])
	assert.Equal(t, fmt.Sprintf("Post %d already has tag \"golang\"", id), res.body["message"])

	res = s.do(http.MethodGet, fmt.Sprintf("/posts/%d", id), "", nil)
	tags := res.body["post"].(map[string]any)["tags"].([]any)
	assert.Len(t, tags, 1)
}

func TestTagPostInputErrors(t *testing.T) {
	s := newTestServer(t)
	alice, _ := s.register("alice1", "a@x.com")
	id := s.createPost(alice, "Hello")

	long := strings.Repeat("d", 201)
	res := s.do(http.MethodPost, "/tag-post", alice, map[string]any{"tag_name": "golang", "post_id": id, "description": long})
	require.Equal(t, http.StatusBadRequest, res.code)
	assert.Equal(t, "tag_name and post_id are required", res.body["message"])
	errs := res.body["errors"].(map[string]any)
	assert.Equal(t, []any{"Field cannot be longer than 200 characters."}, errs["description"])

	res = s.do(http.MethodPost, "/tag-post", alice, map[string]any{"tag_name": "golang", "post_id": "one"})
	require.Equal(t, http.StatusBadRequest, res.code)
	errs = res.body["errors"].(map[string]any)
	assert.Equal(t, []any{"Not a valid integer value."}, errs["post_id"])

	res = s.do(http.MethodPost, "/tag-post", alice, map[string]any{"tag_name": "golang", "post_id": -1})
	assert.Equal(t, http.StatusNotFound, res.code)
	assert.Equal(t, "Post not found", res.body["message"])

	res = s.do(http.MethodPost, "/tag-post", alice, map[string]any{"tag_name": `say "hi"`, "post_id": id})
	require.Equal(t, http.StatusOK, res.code)
	assert.Equal(t, fmt.Sprintf(`Post %d tagged with "say "hi"" successfully`, id), res.body["message"])
}

func TestGetPostUntaggedHasTagsKey(t *testing.T) {
	s := newTestServer(t)
	alice, _ := s.register("alice1", "a@x.com")
	id := s.createPost(alice, "Hello")

	res := s.do(http.MethodGet, fmt.Sprintf("/posts/%d", id), "", nil)
	require.Equal(t, http.StatusOK, res.code)
	post := res.body["post"].(map[string]any)
	require.Contains(t, post, "tags")
	assert.Empty(t, post["tags"])
	assert.Equal(t, "Hello", post["title"])

	res = s.do(http.MethodGet, "/posts", "", nil)
	listed := res.body["posts"].([]any)[0].(map[string]any)
	assert.NotContains(t, listed, "tags")
}

func TestConcurrentTagging(t *testing.T) {
	s := newTestServer(t)
	alice, _ := s.register("alice1", "a@x.com")
	id := s.createPost(alice, "Hello")

	const workers = 6
	statuses := make([]string, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			body, _ := json.Marshal(map[string]any{"tag_name": "race", "post_id": id})
			req := httptest.NewRequest(http.MethodPost, "/tag-post", bytes.NewReader(body))
			req.Header.Set("Authorization", "Bearer "+alice)
			rec := httptest.NewRecorder()
			s.router.ServeHTTP(rec, req)
			var env map[string]any
			if json.Unmarshal(rec.Body.Bytes(), &env) == nil {
				statuses[i], _ = env["status"].(string)
			}
		}(i)
	}
	wg.Wait()

	counts := map[string]int{}
	for _, st := range statuses {
		counts[st]++
	}
	assert.Equal(t, 1, counts["success"])
	assert.Equal(t, workers-1, counts["info"])
}

func TestAccount(t *testing.T) {
	s := newTestServer(t)
	alice, aliceID := s.register("alice1", "a@x.com")
	s.register("bobby1", "b@x.com")

	res := s.do(http.MethodGet, "/account", "", nil)
	assert.Equal(t, http.StatusUnauthorized, res.code)

	res = s.do(http.MethodGet, "/account", alice, nil)
	require.Equal(t, http.StatusOK, res.code)
	assert.Equal(t, "alice1", res.body["user"].(map[string]any)["username"])

	update := map[string]string{"first_name": "Alicia", "last_name": "Smithh", "username": "bobby1", "email": "a@x.com"}
	res = s.do(http.MethodPut, "/account", alice, update)
	assert.Equal(t, http.StatusBadRequest, res.code)
	assert.Equal(t, "That username has been taken. Enter a different one.", res.body["message"])

	update["username"] = "alice1"
	res = s.do(http.MethodPost, "/account", alice, update)
	require.Equal(t, http.StatusOK, res.code)
	user := res.body["user"].(map[string]any)
	assert.Equal(t, float64(aliceID), user["id"])
	assert.Equal(t, "Alicia", user["first_name"])

	res = s.do(http.MethodGet, "/account/activity?limit=1", alice, nil)
	require.Equal(t, http.StatusOK, res.code)
	events := res.body["events"].([]any)
	require.Len(t, events, 1)
	assert.Equal(t, "user.update", events[0].(map[string]any)["type"])
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.do(http.MethodGet, "/posts", "", nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `http_requests_total{code="200",method="GET",route="/posts`)
}
