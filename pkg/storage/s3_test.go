package storage_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/ndavault/pkg/storage"
)

type mockClient struct{ mock.Mock }

func (m *mockClient) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, in)
	if out := args.Get(0); out != nil {
		return out.(*s3.PutObjectOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockClient) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	args := m.Called(ctx, in)
	if out := args.Get(0); out != nil {
		return out.(*s3.DeleteObjectOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockPresigner struct{ mock.Mock }

func (m *mockPresigner) PresignGetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	opts := s3.PresignOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	args := m.Called(ctx, in, opts.Expires)
	if out := args.Get(0); out != nil {
		return out.(*v4.PresignedHTTPRequest), args.Error(1)
	}
	return nil, args.Error(1)
}

func newStorage(t *testing.T) (*storage.S3, *mockClient, *mockPresigner) {
	t.Helper()
	c, p := &mockClient{}, &mockPresigner{}
	s, err := storage.NewS3(context.Background(), storage.Config{Bucket: "nda-files", Region: "us-east-1"}, storage.WithClient(c, p))
	require.NoError(t, err)
	return s, c, p
}

func TestNewS3RequiresBucket(t *testing.T) {
	t.Parallel()
	_, err := storage.NewS3(context.Background(), storage.Config{Region: "us-east-1"})
	require.ErrorIs(t, err, storage.ErrInvalidConfig)
}

func TestSave(t *testing.T) {
	t.Parallel()

	t.Run("puts object with content type and length", func(t *testing.T) {
		t.Parallel()
		s, c, _ := newStorage(t)
		c.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
			return aws.ToString(in.Bucket) == "nda-files" &&
				aws.ToString(in.Key) == "user_1/1.pdf" &&
				aws.ToString(in.ContentType) == "application/pdf" &&
				aws.ToInt64(in.ContentLength) == 8
		})).Return(&s3.PutObjectOutput{}, nil)

		err := s.Save(context.Background(), "/user_1/1.pdf", bytes.NewReader([]byte("%PDF-1.7")), 8, "application/pdf")
		require.NoError(t, err)
		c.AssertExpectations(t)
	})

	t.Run("rejects traversal", func(t *testing.T) {
		t.Parallel()
		s, c, _ := newStorage(t)
		err := s.Save(context.Background(), "../etc/passwd", bytes.NewReader(nil), 0, "")
		require.ErrorIs(t, err, storage.ErrInvalidKey)
		c.AssertNotCalled(t, "PutObject", mock.Anything, mock.Anything)
	})

	t.Run("classifies access denied", func(t *testing.T) {
		t.Parallel()
		s, c, _ := newStorage(t)
		c.On("PutObject", mock.Anything, mock.Anything).
			Return(nil, &smithy.GenericAPIError{Code: "AccessDenied", Message: "denied"})
		err := s.Save(context.Background(), "user_1/1.pdf", bytes.NewReader([]byte("x")), 1, "application/pdf")
		require.ErrorIs(t, err, storage.ErrAccessDenied)
	})
}

func TestDelete(t *testing.T) {
	t.Parallel()

	t.Run("missing object is not an error", func(t *testing.T) {
		t.Parallel()
		s, c, _ := newStorage(t)
		c.On("DeleteObject", mock.Anything, mock.Anything).Return(nil, &types.NoSuchKey{})
		require.NoError(t, s.Delete(context.Background(), "user_1/1.pdf"))
	})

	t.Run("other failures surface", func(t *testing.T) {
		t.Parallel()
		s, c, _ := newStorage(t)
		c.On("DeleteObject", mock.Anything, mock.Anything).Return(nil, errors.New("network down"))
		require.Error(t, s.Delete(context.Background(), "user_1/1.pdf"))
	})
}

func TestPresignGet(t *testing.T) {
	t.Parallel()

	s, _, p := newStorage(t)
	p.On("PresignGetObject", mock.Anything, mock.MatchedBy(func(in *s3.GetObjectInput) bool {
		return aws.ToString(in.Key) == "user_1/1.pdf"
	}), 15*time.Minute).Return(&v4.PresignedHTTPRequest{URL: "https://nda-files.s3.amazonaws.com/user_1/1.pdf?X-Amz-Expires=900"}, nil)

	url, err := s.PresignGet(context.Background(), "user_1/1.pdf", 15*time.Minute)
	require.NoError(t, err)
	assert.Contains(t, url, "X-Amz-Expires=900")
}
