package s3client

import (
	"context"
	"testing"
)

// TestClient creates an S3 client backed by an in-memory gofakes3 backend.
// The embedded server is shut down when the test completes.
func TestClient(t testing.TB, bucketName string) *Client {
	t.Helper()

	client, shutdown, err := NewInMemory(context.Background(), bucketName)
	if err != nil {
		t.Fatalf("failed to start fake s3: %v", err)
	}
	t.Cleanup(func() {
		shutdown()
	})
	return client
}
