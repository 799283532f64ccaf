package dialog

import (
	"context"
	"fmt"
	"log"
	"strings"

	"vrnews-bot/internal/newsapi"
	"vrnews-bot/internal/settings"
)

// maxArticles caps how many articles are rendered per fetch.
const maxArticles = 10

func (e *Engine) runSearch(ctx context.Context, userID int64) []Reply {
	entries, _, err := e.store.GetSettings(userID)
	if err != nil {
		log.Printf("Could not load settings for user %d: %v", userID, err)
		return []Reply{{Text: msgSearchFailed}}
	}

	now := e.now()
	query := newsapi.EverythingQuery{}
	if value, ok := settings.Lookup(entries, settings.FieldQuery); ok {
		query.Keywords = value
	}
	if value, ok := settings.Lookup(entries, settings.FieldFrom); ok {
		query.From = settings.ResolveFrom(value, now)
	}
	if value, ok := settings.Lookup(entries, settings.FieldTo); ok {
		query.To = settings.ResolveTo(value, now)
	}
	if value, ok := settings.Lookup(entries, settings.FieldLanguage); ok {
		query.Language = value
	}
	if value, ok := settings.Lookup(entries, settings.FieldSortBy); ok {
		query.SortBy = settings.CanonicalSortBy(value)
	}

	articles, err := e.news.Everything(ctx, query)
	if err != nil {
		log.Printf("News search failed for user %d: %v", userID, err)
		return []Reply{{Text: msgSearchFailed}}
	}
	return renderArticles(articles)
}

func (e *Engine) runTopHeadlines(ctx context.Context, userID int64) []Reply {
	entries, _, err := e.store.GetSettings(userID)
	if err != nil {
		log.Printf("Could not load settings for user %d: %v", userID, err)
		return []Reply{{Text: msgSearchFailed}}
	}
	country, _ := settings.Lookup(entries, settings.FieldCountry)

	articles, err := e.news.TopHeadlines(ctx, country)
	if err != nil {
		log.Printf("Top headlines fetch failed for user %d: %v", userID, err)
		return []Reply{{Text: msgSearchFailed}}
	}
	return renderArticles(articles)
}

// renderArticles drops removed entries, caps the list, and formats one
// HTML message per article, numbered in original order.
func renderArticles(articles []newsapi.Article) []Reply {
	kept := make([]newsapi.Article, 0, maxArticles)
	for _, article := range articles {
		if strings.Contains(article.URL, "removed") {
			continue
		}
		kept = append(kept, article)
		if len(kept) == maxArticles {
			break
		}
	}
	if len(kept) == 0 {
		return []Reply{{Text: msgNoResults}}
	}

	replies := make([]Reply, 0, len(kept))
	for i, article := range kept {
		replies = append(replies, Reply{Text: formatArticle(article, i+1, len(kept)), HTML: true})
	}
	return replies
}

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func formatArticle(article newsapi.Article, num, total int) string {
	return fmt.Sprintf(
		"News %d of %d:\nPublished in %s on %s\nauthor - %s\n%s\n<a href='%s'>Link</a>",
		num,
		total,
		htmlEscaper.Replace(article.Source.Name),
		article.PublishedAt.Format("2006-01-02"),
		htmlEscaper.Replace(article.Author),
		htmlEscaper.Replace(article.Title),
		article.URL,
	)
}
