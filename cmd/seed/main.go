// Command seed fills a running blog API with fake users, posts, comments and
// tags through its public endpoints.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/isdelr/blog-api/internal/logger"
	"github.com/rs/zerolog/log"
)

type client struct {
	base string
	http *http.Client
}

type envelope struct {
	Status  string              `json:"status"`
	Message string              `json:"message"`
	Token   string              `json:"token"`
	Errors  map[string][]string `json:"errors"`
	User    struct {
		ID int64 `json:"id"`
	} `json:"user"`
	Post struct {
		ID int64 `json:"id"`
	} `json:"post"`
}

type account struct {
	id    int64
	token string
}

func main() {
	base := flag.String("base", "http://localhost:8080", "base URL of the blog API")
	users := flag.Int("users", 5, "number of users to register")
	posts := flag.Int("posts", 3, "posts per user")
	comments := flag.Int("comments", 2, "comments per post")
	seed := flag.Int64("seed", time.Now().UnixNano(), "random seed")
	flag.Parse()

	logger.Init("info", true)
	gofakeit.Seed(*seed)

	c := &client{base: strings.TrimRight(*base, "/"), http: &http.Client{Timeout: 10 * time.Second}}
	tags := []string{"golang", "databases", "devops", "travel", "cooking", "music"}

	var accounts []account
	for i := 0; i < *users; i++ {
		acc, err := c.register()
		if err != nil {
			log.Error().Err(err).Msg("Failed to register user")
			continue
		}
		accounts = append(accounts, acc)
	}
	if len(accounts) == 0 {
		log.Error().Msg("No users registered, aborting seeding")
		os.Exit(1)
	}

	var postIDs []int64
	for _, acc := range accounts {
		for i := 0; i < *posts; i++ {
			id, err := c.createPost(acc)
			if err != nil {
				log.Error().Err(err).Int64("user_id", acc.id).Msg("Failed to create post")
				continue
			}
			postIDs = append(postIDs, id)

			tag := tags[gofakeit.Number(0, len(tags)-1)]
			if _, err := c.call(http.MethodPost, "/tag-post", acc.token, map[string]any{
				"tag_name":    tag,
				"post_id":     id,
				"description": gofakeit.Sentence(4),
			}); err != nil {
				log.Error().Err(err).Int64("post_id", id).Msg("Failed to tag post")
			}
		}
	}

	for _, id := range postIDs {
		for i := 0; i < *comments; i++ {
			author := accounts[gofakeit.Number(0, len(accounts)-1)]
			path := fmt.Sprintf("/posts/%d/comments", id)
			if _, err := c.call(http.MethodPost, path, author.token, map[string]string{
				"content": gofakeit.Sentence(12),
			}); err != nil {
				log.Error().Err(err).Int64("post_id", id).Msg("Failed to add comment")
			}
		}
	}

	log.Info().Int("users", len(accounts)).Int("posts", len(postIDs)).Msg("Seeding complete")
}

func (c *client) register() (account, error) {
	password := gofakeit.Password(true, true, true, false, false, 12)
	body := map[string]string{
		"first_name":       atLeast6(gofakeit.FirstName()),
		"last_name":        atLeast6(gofakeit.LastName()),
		"username":         atLeast6(gofakeit.Username() + gofakeit.DigitN(3)),
		"email":            gofakeit.Email(),
		"password":         password,
		"confirm_password": password,
	}
	env, err := c.call(http.MethodPost, "/register", "", body)
	if err != nil {
		return account{}, err
	}
	log.Info().Int64("user_id", env.User.ID).Str("username", body["username"]).Msg("Registered user")
	return account{id: env.User.ID, token: env.Token}, nil
}

func (c *client) createPost(acc account) (int64, error) {
	env, err := c.call(http.MethodPost, "/posts", acc.token, map[string]string{
		"title":   gofakeit.Sentence(5),
		"content": gofakeit.Paragraph(2, 4, 12, "\n\n"),
	})
	if err != nil {
		return 0, err
	}
	return env.Post.ID, nil
}

func (c *client) call(method, path, token string, payload any) (envelope, error) {
	var env envelope
	buf, err := json.Marshal(payload)
	if err != nil {
		return env, err
	}
	req, err := http.NewRequest(method, c.base+path, bytes.NewReader(buf))
	if err != nil {
		return env, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return env, err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return env, fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return env, fmt.Errorf("%s %s: %d %s %v", method, path, resp.StatusCode, env.Message, env.Errors)
	}
	return env, nil
}

// atLeast6 pads s to the minimum name length the API accepts.
func atLeast6(s string) string {
	for len(s) < 6 {
		s += gofakeit.Letter()
	}
	return s
}
