package database

// ArticleRepository is the store contract consumed by the ingestion pipeline:
// point lookup by normalized URL, upsert-on-conflict keyed on URL, and a
// counting query used as the pre-flight connectivity probe.
type ArticleRepository interface {
	GetByURL(url string) (*Article, error)
	Upsert(article Article) (string, error)
	GetRecent(limit int) ([]Article, error)
	Count() (int, error)
}
