package dataset

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/reportkit-dev/reportkit/pkg/report"
)

// S3API is the slice of the S3 client used by LoadS3.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// LoadS3 fetches a report document from S3 and builds a Dataset from it.
// The object must hold the standard wire shape with the rows under
// dataKey; its "total" field is ignored because the dataset recounts on
// every fetch.
//
//	client := s3.New(s3.Options{Region: "us-east-1"})
//	ds, err := dataset.LoadS3(ctx, client, "reports", "students.json", "students")
func LoadS3(ctx context.Context, client S3API, bucket, key, dataKey string) (*Dataset, error) {
	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("dataset: get s3://%s/%s: %w", bucket, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("dataset: read s3://%s/%s: %w", bucket, key, err)
	}

	res, err := report.UnmarshalDocument(data, dataKey)
	if err != nil {
		return nil, fmt.Errorf("dataset: decode s3://%s/%s: %w", bucket, key, err)
	}
	return New(res.Columns, res.Rows), nil
}
