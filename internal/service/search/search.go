package search

import (
	"context"
	"strings"
	"time"

	"github.com/Skotchmaster/blog_api/internal/logging"
	"github.com/Skotchmaster/blog_api/internal/models"
	"github.com/Skotchmaster/blog_api/internal/repo"
	"github.com/Skotchmaster/blog_api/internal/util"
)

const (
	SourceIndex    = "elasticsearch"
	SourceDatabase = "database"

	searchTimeout = 2 * time.Second
)

type Index interface {
	Search(ctx context.Context, query string, from, size int) (int64, []uint, error)
}

type Store interface {
	ListPosts(ctx context.Context, f repo.PostFilter) (int64, []models.Post, error)
	PublishedPostsByIDs(ctx context.Context, ids []uint) ([]models.Post, error)
}

type Results struct {
	Total  int64
	Items  []models.Post
	Source string
}

// Service searches published posts. It asks the index first and falls back to a
// database match when there is no index or the index fails.
type Service struct {
	Index Index
	Store Store
}

func (s *Service) Search(ctx context.Context, rawQ string, page, size int) (Results, error) {
	l := logging.FromContext(ctx).With("svc", "search")

	q := strings.TrimSpace(rawQ)
	if q == "" {
		return Results{Items: []models.Post{}, Source: SourceDatabase}, nil
	}
	from, limit := util.Calculate(page, size)

	if s.Index != nil {
		res, err := s.fromIndex(ctx, q, from, limit)
		if err == nil {
			return res, nil
		}
		l.Warn("search_index_failed", "reason", "falling back to database", "error", err)
	}

	total, items, err := s.Store.ListPosts(ctx, repo.PostFilter{Offset: from, Limit: limit, Query: q})
	if err != nil {
		return Results{}, err
	}
	return Results{Total: total, Items: items, Source: SourceDatabase}, nil
}

func (s *Service) fromIndex(ctx context.Context, q string, from, limit int) (Results, error) {
	ictx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()

	total, ids, err := s.Index.Search(ictx, q, from, limit)
	if err != nil {
		return Results{}, err
	}
	items, err := s.Store.PublishedPostsByIDs(ctx, ids)
	if err != nil {
		return Results{}, err
	}
	return Results{Total: total, Items: items, Source: SourceIndex}, nil
}
