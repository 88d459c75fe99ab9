package storage

import "time"

// Config describes the S3 bucket documents are stored in.
type Config struct {
	Bucket          string        `env:"S3_BUCKET" envDefault:"nda-files"`
	Region          string        `env:"S3_REGION" envDefault:"us-east-1"`
	AccessKeyID     string        `env:"S3_ACCESS_KEY_ID"`
	SecretAccessKey string        `env:"S3_SECRET_ACCESS_KEY"`
	Endpoint        string        `env:"S3_ENDPOINT"`                           // for MinIO and other S3-compatible services
	ForcePathStyle  bool          `env:"S3_FORCE_PATH_STYLE" envDefault:"false"` // required by most S3-compatible services
	UploadTimeout   time.Duration `env:"S3_UPLOAD_TIMEOUT" envDefault:"60s"`
}
