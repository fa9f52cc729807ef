package s3client

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/johannesboyne/gofakes3"
	"github.com/johannesboyne/gofakes3/backend/s3mem"
)

// NewInMemory starts a gofakes3 server on a loopback port and returns a
// client backed by it, for --no-s3 development mode. The returned shutdown
// function stops the embedded server.
func NewInMemory(ctx context.Context, bucketName string) (*Client, func() error, error) {
	backend := s3mem.New()
	faker := gofakes3.New(backend)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, nil, fmt.Errorf("s3client: failed to listen for fake s3: %w", err)
	}
	server := &http.Server{Handler: faker.Server()}
	go server.Serve(listener)

	endpoint := "http://" + listener.Addr().String()

	sdkConfig, err := config.LoadDefaultConfig(ctx,
		config.WithRegion("us-east-1"),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider("fake-key", "fake-secret", ""),
		),
	)
	if err != nil {
		server.Close()
		return nil, nil, fmt.Errorf("s3client: failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(sdkConfig, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	if _, err := s3Client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(bucketName),
	}); err != nil {
		server.Close()
		return nil, nil, fmt.Errorf("s3client: failed to create bucket: %w", err)
	}

	client := NewFromS3Client(s3Client, bucketName, endpoint+"/"+bucketName)
	return client, server.Close, nil
}
