package es

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/elastic/go-elasticsearch/v9/esapi"

	"github.com/Skotchmaster/blog_api/internal/models"
)

// PostDocument is what gets stored per published post.
type PostDocument struct {
	ID          uint      `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Body        string    `json:"body"`
	Tags        []string  `json:"tags"`
	AuthorID    uint      `json:"authorId"`
	PublishedAt time.Time `json:"publishedAt"`
}

func NewPostDocument(p *models.Post) PostDocument {
	doc := PostDocument{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Body:        p.Body,
		Tags:        make([]string, 0, len(p.Tags)),
		AuthorID:    p.AuthorID,
	}
	for _, t := range p.Tags {
		doc.Tags = append(doc.Tags, t.Slug)
	}
	if p.PublishedAt != nil {
		doc.PublishedAt = *p.PublishedAt
	}
	return doc
}

type PostIndex struct {
	client *elasticsearch.Client
	index  string
}

func NewPostIndex(client *elasticsearch.Client, index string) *PostIndex {
	return &PostIndex{client: client, index: index}
}

const postMapping = `{
  "mappings": {
    "properties": {
      "id":          {"type": "long"},
      "title":       {"type": "text"},
      "description": {"type": "text"},
      "body":        {"type": "text"},
      "tags":        {"type": "keyword"},
      "authorId":    {"type": "long"},
      "publishedAt": {"type": "date"}
    }
  }
}`

// EnsureIndex creates the index with its mapping when it does not exist yet.
func (x *PostIndex) EnsureIndex(ctx context.Context) error {
	res, err := x.client.Indices.Exists([]string{x.index}, x.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index %s: %w", x.index, err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	res, err = x.client.Indices.Create(x.index,
		x.client.Indices.Create.WithContext(ctx),
		x.client.Indices.Create.WithBody(bytes.NewReader([]byte(postMapping))),
	)
	if err != nil {
		return fmt.Errorf("create index %s: %w", x.index, err)
	}
	return checkResponse(res, "create index")
}

func (x *PostIndex) IndexPost(ctx context.Context, doc PostDocument) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode post %d: %w", doc.ID, err)
	}
	res, err := x.client.Index(x.index, bytes.NewReader(body),
		x.client.Index.WithContext(ctx),
		x.client.Index.WithDocumentID(strconv.FormatUint(uint64(doc.ID), 10)),
	)
	if err != nil {
		return fmt.Errorf("index post %d: %w", doc.ID, err)
	}
	return checkResponse(res, "index post")
}

// DeletePost removes the document. A missing document is not an error.
func (x *PostIndex) DeletePost(ctx context.Context, id uint) error {
	res, err := x.client.Delete(x.index, strconv.FormatUint(uint64(id), 10), x.client.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("delete post %d: %w", id, err)
	}
	if res.StatusCode == http.StatusNotFound {
		res.Body.Close()
		return nil
	}
	return checkResponse(res, "delete post")
}

// Search returns the ids of matching posts in relevance order and the total hit count.
func (x *PostIndex) Search(ctx context.Context, query string, from, size int) (int64, []uint, error) {
	body := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"title^3", "description^2", "body", "tags"},
				"fuzziness": "AUTO",
			},
		},
		"_source": []string{"id"},
		"from":    from,
		"size":    size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("encode search: %w", err)
	}

	res, err := x.client.Search(
		x.client.Search.WithContext(ctx),
		x.client.Search.WithIndex(x.index),
		x.client.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		msg, _ := io.ReadAll(res.Body)
		return 0, nil, fmt.Errorf("search: %s: %s", res.Status(), msg)
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source struct {
					ID uint `json:"id"`
				} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, fmt.Errorf("decode search: %w", err)
	}

	ids := make([]uint, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		ids = append(ids, hit.Source.ID)
	}
	return r.Hits.Total.Value, ids, nil
}

func checkResponse(res *esapi.Response, op string) error {
	defer res.Body.Close()
	if res.IsError() {
		msg, _ := io.ReadAll(res.Body)
		return fmt.Errorf("%s: %s: %s", op, res.Status(), msg)
	}
	return nil
}
