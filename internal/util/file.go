package util

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// GenerateUniqueFilename 为资质文件生成带纳秒时间戳的存储名，
// 同名文件重复上传时互不覆盖
func GenerateUniqueFilename(originalFilename string) string {
	ext := filepath.Ext(originalFilename)
	base := strings.TrimSuffix(filepath.Base(originalFilename), ext)
	return fmt.Sprintf("%s_%d%s", base, time.Now().UnixNano(), ext)
}
