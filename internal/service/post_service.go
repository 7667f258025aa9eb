package service

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"gopkg.in/yaml.v3"

	"github.com/0xredpill/site_go_server/config"
	"github.com/0xredpill/site_go_server/internal/model/dto"
	"github.com/0xredpill/site_go_server/internal/pkg/markdown"
)

var ErrPostNotFound = errors.New("文章不存在")

var headingPattern = regexp.MustCompile(`(?m)^(#{1,6})\s+(.+)$`)

// postMeta Markdown 文件头部的 YAML front matter
type postMeta struct {
	Title   string `yaml:"title"`
	Date    string `yaml:"date"`
	Summary string `yaml:"summary"`
	Slug    string `yaml:"slug"`
}

type cacheEntry struct {
	data      interface{}
	expiresAt time.Time
}

// PostService 从本地 Markdown 目录读取博客文章
type PostService struct {
	postsDir string
	cacheTTL time.Duration
	cache    *lru.Cache[string, cacheEntry]
}

func NewPostService(cfg *config.ContentConfig) (*PostService, error) {
	ttl := time.Duration(cfg.CacheTTLMinutes) * time.Minute
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}

	cache, err := lru.New[string, cacheEntry](128)
	if err != nil {
		return nil, fmt.Errorf("failed to create post cache: %w", err)
	}

	return &PostService{
		postsDir: cfg.PostsDir,
		cacheTTL: ttl,
		cache:    cache,
	}, nil
}

// List 按日期倒序返回所有文章的元数据
func (s *PostService) List() ([]*dto.PostListItem, error) {
	if cached, ok := s.getCache("post:list"); ok {
		return cached.([]*dto.PostListItem), nil
	}

	entries, err := os.ReadDir(s.postsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read posts dir: %w", err)
	}

	var items []*dto.PostListItem
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}

		meta, _, err := s.readPost(entry.Name())
		if err != nil {
			continue // 跳过无法解析的文件
		}

		items = append(items, &dto.PostListItem{
			Slug:    slugOf(meta, entry.Name()),
			Title:   meta.Title,
			Date:    meta.Date,
			Summary: meta.Summary,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		return parseDate(items[i].Date).After(parseDate(items[j].Date))
	})

	s.setCache("post:list", items)
	return items, nil
}

// Get 按 slug 获取文章详情（渲染后的 HTML + 目录）
func (s *PostService) Get(slug string) (*dto.PostDetail, error) {
	key := "post:detail:" + slug
	if cached, ok := s.getCache(key); ok {
		return cached.(*dto.PostDetail), nil
	}

	entries, err := os.ReadDir(s.postsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read posts dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}

		meta, body, err := s.readPost(entry.Name())
		if err != nil {
			continue
		}
		if slugOf(meta, entry.Name()) != slug {
			continue
		}

		html, err := markdown.Render(body)
		if err != nil {
			return nil, fmt.Errorf("failed to render post %s: %w", slug, err)
		}

		detail := &dto.PostDetail{
			Slug:    slug,
			Title:   meta.Title,
			Date:    meta.Date,
			Summary: meta.Summary,
			HTML:    html,
			Toc:     extractToc(body),
		}

		s.setCache(key, detail)
		return detail, nil
	}

	return nil, ErrPostNotFound
}

// readPost 读取文件并拆分 front matter 与正文
func (s *PostService) readPost(fileName string) (*postMeta, string, error) {
	data, err := os.ReadFile(filepath.Join(s.postsDir, fileName))
	if err != nil {
		return nil, "", err
	}
	return parseFrontMatter(data)
}

func parseFrontMatter(data []byte) (*postMeta, string, error) {
	meta := &postMeta{}
	content := data

	if bytes.HasPrefix(data, []byte("---\n")) || bytes.HasPrefix(data, []byte("---\r\n")) {
		rest := data[bytes.IndexByte(data, '\n')+1:]
		end := bytes.Index(rest, []byte("\n---"))
		if end >= 0 {
			if err := yaml.Unmarshal(rest[:end], meta); err != nil {
				return nil, "", fmt.Errorf("invalid front matter: %w", err)
			}
			content = rest[end+len("\n---"):]
			if idx := bytes.IndexByte(content, '\n'); idx >= 0 {
				content = content[idx+1:]
			}
		}
	}

	return meta, string(content), nil
}

// slugOf 优先 front matter 的 slug，没有则用转义后的文件名
func slugOf(meta *postMeta, fileName string) string {
	if meta.Slug != "" {
		return meta.Slug
	}
	return url.PathEscape(strings.TrimSuffix(fileName, ".md"))
}

// extractToc 从正文标题提取目录，ID 与渲染器的自动标题 ID 一致
func extractToc(body string) []*dto.TocItem {
	matches := headingPattern.FindAllStringSubmatch(body, -1)
	toc := make([]*dto.TocItem, 0, len(matches))
	for _, m := range matches {
		text := strings.TrimSpace(m[2])
		toc = append(toc, &dto.TocItem{
			ID:    markdown.HeadingID(text),
			Text:  text,
			Level: len(m[1]),
		})
	}
	return toc
}

func parseDate(s string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02", "2006-01-02 15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func (s *PostService) getCache(key string) (interface{}, bool) {
	entry, ok := s.cache.Get(key)
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		s.cache.Remove(key)
		return nil, false
	}
	return entry.data, true
}

func (s *PostService) setCache(key string, data interface{}) {
	s.cache.Add(key, cacheEntry{
		data:      data,
		expiresAt: time.Now().Add(s.cacheTTL),
	})
}
