// Package sqlite implements storage.Store over database/sql and the pure-Go
// SQLite driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/isdelr/blog-api/internal/models"
	"github.com/isdelr/blog-api/internal/storage"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Store implements storage.Store on SQLite.
type Store struct {
	db *sql.DB
}

var _ storage.Store = (*Store)(nil)

// New wraps an open, migrated database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// === Users ===

const userColumns = "id, first_name, last_name, username, email, password_hash, created_at"

func scanUser(scanner interface{ Scan(...any) error }) (models.User, error) {
	var u models.User
	err := scanner.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt)
	return u, err
}

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO users(first_name, last_name, username, email, password_hash, created_at) VALUES(?, ?, ?, ?, ?, ?)",
		user.FirstName, user.LastName, user.Username, user.Email, user.PasswordHash, user.CreatedAt)
	if err != nil {
		return translate(err)
	}
	user.ID, err = res.LastInsertId()
	return err
}

func (s *Store) getUser(ctx context.Context, where string, arg any) (models.User, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE "+where+" = ?", arg)
	u, err := scanUser(row)
	if err != nil {
		return models.User{}, translate(err)
	}
	return u, nil
}

func (s *Store) GetUserByID(ctx context.Context, id int64) (models.User, error) {
	return s.getUser(ctx, "id", id)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	return s.getUser(ctx, "email", email)
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	return s.getUser(ctx, "username", username)
}

func (s *Store) UpdateUser(ctx context.Context, user *models.User) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE users SET first_name = ?, last_name = ?, username = ?, email = ? WHERE id = ?",
		user.FirstName, user.LastName, user.Username, user.Email, user.ID)
	if err != nil {
		return translate(err)
	}
	return requireRow(res)
}

// === Posts ===

func (s *Store) CreatePost(ctx context.Context, post *models.Post) error {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO posts(title, content, date_posted, user_id) VALUES(?, ?, ?, ?)",
		post.Title, post.Content, post.DatePosted, post.UserID)
	if err != nil {
		return translate(err)
	}
	post.ID, err = res.LastInsertId()
	return err
}

func (s *Store) GetPost(ctx context.Context, id int64) (models.Post, error) {
	var p models.Post
	err := s.db.QueryRowContext(ctx,
		"SELECT id, title, content, date_posted, user_id FROM posts WHERE id = ?", id).
		Scan(&p.ID, &p.Title, &p.Content, &p.DatePosted, &p.UserID)
	if err != nil {
		return models.Post{}, translate(err)
	}
	return p, nil
}

func (s *Store) ListPosts(ctx context.Context) ([]models.Post, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, title, content, date_posted, user_id FROM posts ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := []models.Post{}
	for rows.Next() {
		var p models.Post
		if err := rows.Scan(&p.ID, &p.Title, &p.Content, &p.DatePosted, &p.UserID); err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

func (s *Store) UpdatePost(ctx context.Context, post *models.Post) error {
	res, err := s.db.ExecContext(ctx, "UPDATE posts SET title = ?, content = ? WHERE id = ?",
		post.Title, post.Content, post.ID)
	if err != nil {
		return translate(err)
	}
	return requireRow(res)
}

func (s *Store) DeletePost(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM post_tags WHERE post_id = ?", id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM comments WHERE post_id = ?", id); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM posts WHERE id = ?", id)
		if err != nil {
			return err
		}
		return requireRow(res)
	})
}

// === Comments ===

func (s *Store) CreateComment(ctx context.Context, comment *models.Comment) error {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO comments(content, date_posted, user_id, post_id) VALUES(?, ?, ?, ?)",
		comment.Content, comment.DatePosted, comment.UserID, comment.PostID)
	if err != nil {
		return translate(err)
	}
	comment.ID, err = res.LastInsertId()
	return err
}

func (s *Store) ListComments(ctx context.Context, postID int64) ([]models.Comment, error) {
	const query = `
		SELECT c.id, c.content, c.date_posted, c.user_id, c.post_id, u.username
		FROM comments c JOIN users u ON u.id = c.user_id
		WHERE c.post_id = ?
		ORDER BY c.id`
	rows, err := s.db.QueryContext(ctx, query, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := []models.Comment{}
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.Content, &c.DatePosted, &c.UserID, &c.PostID, &c.AuthorUsername); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// === Tags ===

func (s *Store) TagPost(ctx context.Context, postID int64, tag *models.Tag) (bool, error) {
	var linked bool
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO tags(name, description) VALUES(?, ?) ON CONFLICT(name) DO NOTHING",
			tag.Name, tag.Description); err != nil {
			return err
		}
		if err := tx.QueryRowContext(ctx, "SELECT id, name, description FROM tags WHERE name = ?", tag.Name).
			Scan(&tag.ID, &tag.Name, &tag.Description); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			"INSERT INTO post_tags(post_id, tag_id) VALUES(?, ?) ON CONFLICT(post_id, tag_id) DO NOTHING",
			postID, tag.ID)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		linked = n > 0
		return nil
	})
	if err != nil {
		return false, translate(err)
	}
	return linked, nil
}

func (s *Store) ListPostTags(ctx context.Context, postID int64) ([]models.Tag, error) {
	const query = `
		SELECT t.id, t.name, t.description
		FROM tags t JOIN post_tags pt ON pt.tag_id = t.id
		WHERE pt.post_id = ?
		ORDER BY t.name`
	rows, err := s.db.QueryContext(ctx, query, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tags := []models.Tag{}
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Description); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// === Events ===

func (s *Store) CreateEvent(ctx context.Context, event *models.Event) error {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO events(type, level, message, user_id, created_at) VALUES(?, ?, ?, ?, ?)",
		event.Type, event.Level, event.Message, event.UserID, event.CreatedAt)
	if err != nil {
		return err
	}
	event.ID, err = res.LastInsertId()
	return err
}

func (s *Store) ListEventsByUser(ctx context.Context, userID int64, limit int) ([]models.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, type, level, message, user_id, created_at FROM events WHERE user_id = ? ORDER BY id DESC LIMIT ?",
		userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		var e models.Event
		if err := rows.Scan(&e.ID, &e.Type, &e.Level, &e.Message, &e.UserID, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (s *Store) DeleteEventsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM events WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }() // no-op after Commit

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// translate maps driver errors onto the storage error vocabulary.
func translate(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return &storage.ConflictError{Field: conflictField(sqliteErr.Error()), Err: err}
	}
	return err
}

// conflictField extracts the column from "UNIQUE constraint failed: users.email".
func conflictField(msg string) string {
	const marker = "UNIQUE constraint failed: "
	i := strings.Index(msg, marker)
	if i < 0 {
		return ""
	}
	rest := msg[i+len(marker):]
	if j := strings.IndexAny(rest, ", ("); j >= 0 {
		rest = rest[:j]
	}
	if k := strings.LastIndex(rest, "."); k >= 0 {
		rest = rest[k+1:]
	}
	return strings.TrimSpace(rest)
}
