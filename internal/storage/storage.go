package storage

import "mime/multipart"

// FileStorage 抽象资质文件的存储后端，本地磁盘、S3、GCS 三种实现。
// 返回值为可落库的文件定位符（相对路径或公网 URL）
type FileStorage interface {
	UploadFile(file *multipart.FileHeader, path string) (string, error)
}
