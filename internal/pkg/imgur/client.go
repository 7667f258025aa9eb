package imgur

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"
)

const defaultBaseURL = "https://api.imgur.com/3"

// Album 相册元数据
type Album struct {
	ID       string `json:"id"`
	Datetime int64  `json:"datetime"`
}

// Image 相册图片
type Image struct {
	ID       string `json:"id"`
	Datetime int64  `json:"datetime"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Link     string `json:"link"`
}

// Client Imgur API 客户端（匿名 Client-ID 鉴权）
type Client struct {
	httpClient *http.Client
	clientID   string
	baseURL    string
}

func NewClient(clientID string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		clientID:   clientID,
		baseURL:    defaultBaseURL,
	}
}

// WithBaseURL 替换 API 地址（测试用）
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = baseURL
	return c
}

// FetchAlbums 分页获取账号下的所有相册，按时间倒序返回
func (c *Client) FetchAlbums(ctx context.Context, username string) ([]*Album, error) {
	var all []*Album
	for page := 0; ; page++ {
		url := fmt.Sprintf("%s/account/%s/albums/%d", c.baseURL, username, page)

		var albums []*Album
		if err := c.getJSON(ctx, url, &albums); err != nil {
			return nil, err
		}
		if len(albums) == 0 {
			break
		}
		all = append(all, albums...)
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].Datetime > all[j].Datetime
	})
	return all, nil
}

// FetchAlbumImages 获取相册中的图片
func (c *Client) FetchAlbumImages(ctx context.Context, albumID string) ([]*Image, error) {
	url := fmt.Sprintf("%s/album/%s/images", c.baseURL, albumID)

	var images []*Image
	if err := c.getJSON(ctx, url, &images); err != nil {
		return nil, err
	}
	return images, nil
}

// AllImages 合并所有相册的图片，按时间倒序
func (c *Client) AllImages(ctx context.Context, username string) ([]*Image, error) {
	albums, err := c.FetchAlbums(ctx, username)
	if err != nil {
		return nil, err
	}

	var all []*Image
	for _, album := range albums {
		images, err := c.FetchAlbumImages(ctx, album.ID)
		if err != nil {
			// 单个相册失败不阻塞整体
			continue
		}
		all = append(all, images...)
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].Datetime > all[j].Datetime
	})
	return all, nil
}

// envelope Imgur API 的统一响应包装
type envelope struct {
	Data    json.RawMessage `json:"data"`
	Success bool            `json:"success"`
	Status  int             `json:"status"`
}

func (c *Client) getJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Client-ID "+c.clientID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("imgur request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("imgur api error: status %d", resp.StatusCode)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("failed to decode imgur response: %w", err)
	}

	return json.Unmarshal(env.Data, out)
}
