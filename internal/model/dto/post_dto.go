package dto

// PostListItem 文章列表项（仅元数据）
type PostListItem struct {
	Slug    string `json:"slug"`
	Title   string `json:"title"`
	Date    string `json:"date"`
	Summary string `json:"summary"`
}

// TocItem 目录项
type TocItem struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Level int    `json:"level"`
}

// PostDetail 文章详情
type PostDetail struct {
	Slug    string     `json:"slug"`
	Title   string     `json:"title"`
	Date    string     `json:"date"`
	Summary string     `json:"summary"`
	HTML    string     `json:"html"`
	Toc     []*TocItem `json:"toc"`
}
