// Package postgres implements storage.Store with GORM on PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/isdelr/blog-api/internal/models"
	"github.com/isdelr/blog-api/internal/storage"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// constraintFields maps unique index names to the field they guard.
var constraintFields = map[string]string{
	"users_username_key": "username",
	"users_email_key":    "email",
	"tags_name_key":      "name",
}

// Store implements storage.Store on PostgreSQL.
type Store struct {
	db *gorm.DB
}

var _ storage.Store = (*Store)(nil)

// New wraps a connected, migrated GORM handle.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// === Users ===

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	return translate(s.db.WithContext(ctx).Create(user).Error)
}

func (s *Store) GetUserByID(ctx context.Context, id int64) (models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error
	return user, translate(err)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "email = ?", email).Error
	return user, translate(err)
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "username = ?", username).Error
	return user, translate(err)
}

func (s *Store) UpdateUser(ctx context.Context, user *models.User) error {
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", user.ID).Updates(map[string]any{
		"first_name": user.FirstName,
		"last_name":  user.LastName,
		"username":   user.Username,
		"email":      user.Email,
	})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// === Posts ===

func (s *Store) CreatePost(ctx context.Context, post *models.Post) error {
	return translate(s.db.WithContext(ctx).Omit(clause.Associations).Create(post).Error)
}

func (s *Store) GetPost(ctx context.Context, id int64) (models.Post, error) {
	var post models.Post
	err := s.db.WithContext(ctx).First(&post, "id = ?", id).Error
	return post, translate(err)
}

func (s *Store) ListPosts(ctx context.Context) ([]models.Post, error) {
	posts := []models.Post{}
	err := s.db.WithContext(ctx).Order("id ASC").Find(&posts).Error
	return posts, err
}

func (s *Store) UpdatePost(ctx context.Context, post *models.Post) error {
	res := s.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", post.ID).Updates(map[string]any{
		"title":   post.Title,
		"content": post.Content,
	})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) DeletePost(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.PostTag{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Post{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return storage.ErrNotFound
		}
		return nil
	})
}

// === Comments ===

func (s *Store) CreateComment(ctx context.Context, comment *models.Comment) error {
	return translate(s.db.WithContext(ctx).Omit(clause.Associations).Create(comment).Error)
}

func (s *Store) ListComments(ctx context.Context, postID int64) ([]models.Comment, error) {
	comments := []models.Comment{}
	err := commentsWithAuthor(s.db.WithContext(ctx), postID).Find(&comments).Error
	return comments, err
}

// commentsWithAuthor scopes a query to a post's comments, oldest first, with
// the author's username joined in.
func commentsWithAuthor(db *gorm.DB, postID int64) *gorm.DB {
	return db.Model(&models.Comment{}).
		Select("comments.*, users.username AS author_username").
		Joins("JOIN users ON users.id = comments.user_id").
		Where("comments.post_id = ?", postID).
		Order("comments.id ASC")
}

// === Tags ===

func (s *Store) TagPost(ctx context.Context, postID int64, tag *models.Tag) (bool, error) {
	var linked bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		candidate := models.Tag{Name: tag.Name, Description: tag.Description}
		if err := insertTagIfAbsent(tx, &candidate).Error; err != nil {
			return err
		}
		if err := tx.Where("name = ?", tag.Name).Take(tag).Error; err != nil {
			return err
		}

		res := linkPostTag(tx, postID, tag.ID)
		if res.Error != nil {
			return res.Error
		}
		linked = res.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, translate(err)
	}
	return linked, nil
}

// insertTagIfAbsent creates tag unless one with the same name exists. A
// concurrent insert of the same name is absorbed by the unique index.
func insertTagIfAbsent(tx *gorm.DB, tag *models.Tag) *gorm.DB {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(tag)
}

// linkPostTag associates a post with a tag. RowsAffected is zero when the pair
// already existed.
func linkPostTag(tx *gorm.DB, postID, tagID int64) *gorm.DB {
	return tx.Clauses(clause.OnConflict{DoNothing: true}).
		Omit(clause.Associations).
		Create(&models.PostTag{PostID: postID, TagID: tagID})
}

func (s *Store) ListPostTags(ctx context.Context, postID int64) ([]models.Tag, error) {
	tags := []models.Tag{}
	err := s.db.WithContext(ctx).
		Joins("JOIN post_tags ON post_tags.tag_id = tags.id").
		Where("post_tags.post_id = ?", postID).
		Order("tags.name ASC").
		Find(&tags).Error
	return tags, err
}

// === Events ===

func (s *Store) CreateEvent(ctx context.Context, event *models.Event) error {
	return s.db.WithContext(ctx).Create(event).Error
}

func (s *Store) ListEventsByUser(ctx context.Context, userID int64, limit int) ([]models.Event, error) {
	events := []models.Event{}
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Limit(limit).
		Find(&events).Error
	return events, err
}

func (s *Store) DeleteEventsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&models.Event{})
	return res.RowsAffected, res.Error
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// translate maps GORM and pgx errors onto the storage error vocabulary.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return storage.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return &storage.ConflictError{Field: constraintFields[pgErr.ConstraintName], Err: err}
	}
	return err
}
