package imgproc

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

// 输出尺寸与质量与前端头图约定保持一致。
const (
	targetWidth  = 2000
	targetHeight = 1333
	jpegQuality  = 90
)

// Processor 处理用户上传的头像：统一缩放并转为 JPEG 存盘。
type Processor struct {
	uploadDir string
}

// NewProcessor 创建处理器，uploadDir 不存在时会在首次保存前创建。
func NewProcessor(uploadDir string) *Processor {
	return &Processor{uploadDir: uploadDir}
}

// SaveProfilePic 解码、缩放并保存头像，返回生成的文件名。
//
// 文件名形如 user-<uuid>-<毫秒时间戳>.jpeg，避免覆盖。
func (p *Processor) SaveProfilePic(data []byte) (string, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}

	resized := imaging.Resize(img, targetWidth, targetHeight, imaging.Lanczos)

	if err := os.MkdirAll(p.uploadDir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	name := fmt.Sprintf("user-%s-%d.jpeg", uuid.NewString(), time.Now().UnixMilli())
	dst := filepath.Join(p.uploadDir, name)
	if err := imaging.Save(resized, dst, imaging.JPEGQuality(jpegQuality)); err != nil {
		return "", fmt.Errorf("save image: %w", err)
	}
	return name, nil
}
