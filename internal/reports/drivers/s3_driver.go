package drivers

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Object metadata attached to every archived workbook, so a bucket listing can be
// traced back to the tracked code without parsing keys.
const (
	MetaHSCode   = "hs-code"
	MetaReportID = "report-id"
)

// S3Driver stores reports in an S3-compatible bucket.
type S3Driver struct {
	Client        *s3.Client
	PresignClient *s3.PresignClient
	Bucket        string
	PublicURL     string // set when the bucket is publicly readable
}

func NewS3Driver(client *s3.Client, bucket string, publicURL string) *S3Driver {
	return &S3Driver{
		Client:        client,
		PresignClient: s3.NewPresignClient(client),
		Bucket:        bucket,
		PublicURL:     publicURL,
	}
}

func (d *S3Driver) object(key ReportKey) *s3.GetObjectInput {
	return &s3.GetObjectInput{Bucket: aws.String(d.Bucket), Key: aws.String(key.String())}
}

func attachment(key ReportKey) string {
	return fmt.Sprintf("attachment; filename=%q", key.FileName())
}

func (d *S3Driver) Save(ctx context.Context, key ReportKey, body io.Reader) error {
	if err := key.Validate(); err != nil {
		return err
	}
	_, err := d.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:             aws.String(d.Bucket),
		Key:                aws.String(key.String()),
		Body:               body,
		ContentType:        aws.String(ContentTypeXLSX),
		ContentDisposition: aws.String(attachment(key)),
		Metadata: map[string]string{
			MetaHSCode:   key.HSCode,
			MetaReportID: key.ID.String(),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to upload report %s: %w", key, err)
	}
	return nil
}

// Open refuses objects that were not written as workbooks, e.g. something another
// tool dropped under a report prefix.
func (d *S3Driver) Open(ctx context.Context, key ReportKey) (io.ReadCloser, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	resp, err := d.Client.GetObject(ctx, d.object(key))
	if err != nil {
		return nil, fmt.Errorf("failed to get report %s: %w", key, err)
	}
	if ct := aws.ToString(resp.ContentType); ct != ContentTypeXLSX {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s has content type %q", ErrNotWorkbook, key, ct)
	}
	return resp.Body, nil
}

func (d *S3Driver) Delete(ctx context.Context, key ReportKey) error {
	if err := key.Validate(); err != nil {
		return err
	}
	_, err := d.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(d.Bucket),
		Key:    aws.String(key.String()),
	})
	if err != nil {
		return fmt.Errorf("failed to delete report %s: %w", key, err)
	}
	return nil
}

// GenerateURL returns a public link when configured, otherwise a presigned GET valid
// for expires (one hour when zero). Presigned links pin the response headers so the
// browser saves a workbook whatever the object's stored headers say.
func (d *S3Driver) GenerateURL(ctx context.Context, key ReportKey, expires time.Duration) (string, error) {
	if err := key.Validate(); err != nil {
		return "", err
	}
	if d.PublicURL != "" {
		return url.JoinPath(d.PublicURL, key.HSCode, key.FileName())
	}
	if expires == 0 {
		expires = time.Hour
	}

	in := d.object(key)
	in.ResponseContentType = aws.String(ContentTypeXLSX)
	in.ResponseContentDisposition = aws.String(attachment(key))

	req, err := d.PresignClient.PresignGetObject(ctx, in, s3.WithPresignExpires(expires))
	if err != nil {
		return "", fmt.Errorf("failed to presign report URL: %w", err)
	}
	return req.URL, nil
}
