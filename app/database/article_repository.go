package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var _ ArticleRepository = (*SQLArticleRepository)(nil)

// SQLArticleRepository handles database operations for articles
type SQLArticleRepository struct {
	db *DB
}

func NewArticleRepository(db *DB) *SQLArticleRepository {
	return &SQLArticleRepository{db: db}
}

// GetByURL returns the article stored under the given normalized URL,
// or nil when no such article exists. Absence is not an error.
func (r *SQLArticleRepository) GetByURL(url string) (*Article, error) {
	row := r.db.QueryRow(`
		SELECT id, title, url, source, published_at, summary, tags,
		       status, content_html, image_url, created_at, updated_at
		FROM articles
		WHERE url = ?
	`, url)

	article, err := scanArticle(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get article by url: %w", err)
	}

	return article, nil
}

// Upsert inserts the article or, when a row with the same URL already
// exists, updates that row in place. The unique constraint on url is the
// concurrency control; racing upserts of the same URL resolve last-write-wins.
func (r *SQLArticleRepository) Upsert(article Article) (string, error) {
	tagsJSON, err := json.Marshal(article.Tags)
	if err != nil {
		return "", fmt.Errorf("failed to marshal tags: %w", err)
	}
	if article.Tags == nil {
		tagsJSON = []byte("[]")
	}

	newID := article.ID
	if newID == "" {
		newID = uuid.NewString()
	}

	now := time.Now().UTC()

	var id string
	err = r.db.QueryRow(`
		INSERT INTO articles (
			id, title, url, source, published_at, summary, tags,
			status, content_html, image_url, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (url) DO UPDATE SET
			title = excluded.title,
			source = excluded.source,
			published_at = excluded.published_at,
			summary = excluded.summary,
			tags = excluded.tags,
			status = excluded.status,
			content_html = excluded.content_html,
			image_url = excluded.image_url,
			updated_at = excluded.updated_at
		RETURNING id
	`, newID, article.Title, article.URL, article.Source, article.PublishedAt,
		article.Summary, string(tagsJSON), article.Status, article.ContentHTML,
		article.ImageURL, now, now).Scan(&id)

	if err != nil {
		return "", fmt.Errorf("failed to upsert article: %w", err)
	}

	return id, nil
}

// GetRecent returns the most recently published articles
func (r *SQLArticleRepository) GetRecent(limit int) ([]Article, error) {
	rows, err := r.db.Query(`
		SELECT id, title, url, source, published_at, summary, tags,
		       status, content_html, image_url, created_at, updated_at
		FROM articles
		WHERE status = ?
		ORDER BY COALESCE(published_at, created_at) DESC
		LIMIT ?
	`, StatusPublished, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent articles: %w", err)
	}
	defer rows.Close()

	var articles []Article
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan article row: %w", err)
		}
		articles = append(articles, *article)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating article rows: %w", err)
	}

	return articles, nil
}

// Count returns the total number of stored articles. Used as the
// pre-flight connectivity probe before a sync run.
func (r *SQLArticleRepository) Count() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM articles").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count articles: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(row rowScanner) (*Article, error) {
	var article Article
	var publishedAt sql.NullTime
	var summary, contentHTML, imageURL sql.NullString
	var tagsJSON string

	err := row.Scan(
		&article.ID, &article.Title, &article.URL, &article.Source,
		&publishedAt, &summary, &tagsJSON, &article.Status,
		&contentHTML, &imageURL, &article.CreatedAt, &article.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if publishedAt.Valid {
		article.PublishedAt = &publishedAt.Time
	}
	if summary.Valid {
		article.Summary = &summary.String
	}
	if contentHTML.Valid {
		article.ContentHTML = &contentHTML.String
	}
	if imageURL.Valid {
		article.ImageURL = &imageURL.String
	}

	if err := json.Unmarshal([]byte(tagsJSON), &article.Tags); err != nil {
		// Tolerate rows written before tags became a JSON column
		article.Tags = nil
	}

	return &article, nil
}
