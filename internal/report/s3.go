package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/alexisbeaulieu97/relayprov/internal/model"
)

// PutObjectAPI is the subset of the S3 client used for uploads.
type PutObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Destination is a parsed s3://bucket/prefix location.
type Destination struct {
	Bucket string
	Prefix string
}

// ParseDestination parses an s3:// URL. The prefix may be empty.
func ParseDestination(raw string) (Destination, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return Destination{}, fmt.Errorf("parse s3 destination: %w", err)
	}
	if u.Scheme != "s3" {
		return Destination{}, fmt.Errorf("s3 destination %q must use the s3:// scheme", raw)
	}
	if u.Host == "" {
		return Destination{}, fmt.Errorf("s3 destination %q has no bucket", raw)
	}
	return Destination{Bucket: u.Host, Prefix: strings.Trim(u.Path, "/")}, nil
}

// Key returns the object key for a run.
func (d Destination) Key(runID string) string {
	return path.Join(d.Prefix, runID+".json")
}

func (d Destination) String() string {
	if d.Prefix == "" {
		return "s3://" + d.Bucket
	}
	return "s3://" + d.Bucket + "/" + d.Prefix
}

// Uploader pushes JSON reports to S3.
type Uploader struct {
	Client PutObjectAPI
	Dest   Destination
}

// NewS3Uploader loads the default AWS configuration chain (environment,
// shared config, instance role) and returns an uploader for raw.
func NewS3Uploader(ctx context.Context, raw, region string) (*Uploader, error) {
	dest, err := ParseDestination(raw)
	if err != nil {
		return nil, err
	}

	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS config: %w", err)
	}

	return &Uploader{Client: s3.NewFromConfig(cfg), Dest: dest}, nil
}

// Upload writes r as JSON under the destination prefix and returns the
// object URL.
func (u *Uploader) Upload(ctx context.Context, r *model.RunReport) (string, error) {
	if u == nil || u.Client == nil {
		return "", errors.New("s3 uploader is not configured")
	}
	if r == nil {
		return "", errors.New("report is nil")
	}

	var buf bytes.Buffer
	if err := writeJSON(&buf, r); err != nil {
		return "", err
	}

	key := u.Dest.Key(r.RunID)
	_, err := u.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.Dest.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		var ae smithy.APIError
		if errors.As(err, &ae) {
			return "", fmt.Errorf("upload report to s3://%s/%s: %s: %w", u.Dest.Bucket, key, ae.ErrorCode(), err)
		}
		return "", fmt.Errorf("upload report to s3://%s/%s: %w", u.Dest.Bucket, key, err)
	}

	return "s3://" + u.Dest.Bucket + "/" + key, nil
}
