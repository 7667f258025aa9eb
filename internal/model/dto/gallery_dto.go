package dto

// GalleryImage 相册图片（按拍摄时间倒序返回）
type GalleryImage struct {
	ID       string `json:"id"`
	Datetime int64  `json:"datetime"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Link     string `json:"link"`
}
