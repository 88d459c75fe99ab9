// Package storage keeps uploaded documents in Amazon S3 or an S3-compatible
// service and hands out short-lived presigned download links.
//
//	cfg := storage.Config{}
//	if err := config.Load(&cfg); err != nil { ... }
//	s, err := storage.NewS3(ctx, cfg)
//	if err != nil { ... }
//	err = s.Save(ctx, "user_1/1700000000000-1a2b3c4d.pdf", body, size, "application/pdf")
//	url, err := s.PresignGet(ctx, "user_1/1700000000000-1a2b3c4d.pdf", 15*time.Minute)
package storage
