package history

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioReader serves processed AIS records from an S3-compatible bucket. The
// feature pipeline writes objects under a prefix as either a single record or
// an array of records; the reader filters by MMSI and sorts by timestamp.
type MinioReader struct {
	client *minio.Client
	bucket string
	prefix string
	logger *slog.Logger
}

// NewMinioReader constructs the object storage reader.
func NewMinioReader(endpoint, accessKey, secretKey, bucket, prefix, region string, logger *slog.Logger) (*MinioReader, error) {
	cleanEndpoint := sanitizeEndpoint(endpoint)
	useSSL := strings.HasPrefix(strings.ToLower(endpoint), "https")
	client, err := minio.New(cleanEndpoint, &minio.Options{
		Creds:        credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure:       useSSL,
		Region:       region,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, fmt.Errorf("init history storage client: %w", err)
	}
	return &MinioReader{
		client: client,
		bucket: bucket,
		prefix: prefix,
		logger: logger.With("component", "history.minio"),
	}, nil
}

func (r *MinioReader) Latest(ctx context.Context, mmsi string) (Record, bool, error) {
	records, err := r.History(ctx, mmsi)
	if err != nil {
		return Record{}, false, err
	}
	if len(records) == 0 {
		return Record{}, false, nil
	}
	return records[len(records)-1], true, nil
}

func (r *MinioReader) History(ctx context.Context, mmsi string) ([]Record, error) {
	records, err := r.collect(ctx, mmsi)
	if err != nil {
		return nil, err
	}
	sortByTimestamp(records)
	return records, nil
}

func (r *MinioReader) ESG(ctx context.Context, mmsi string) (ESGView, bool, error) {
	rec, ok, err := r.Latest(ctx, mmsi)
	if err != nil || !ok {
		return ESGView{}, false, err
	}
	return esgView(rec), true, nil
}

// collect scans every object under the prefix and keeps the records matching
// the MMSI. Unreadable objects are skipped and logged, not fatal.
func (r *MinioReader) collect(ctx context.Context, mmsi string) ([]Record, error) {
	var records []Record
	for object := range r.client.ListObjects(ctx, r.bucket, minio.ListObjectsOptions{
		Prefix:    r.prefix,
		Recursive: true,
	}) {
		if object.Err != nil {
			return nil, fmt.Errorf("list history objects: %w", object.Err)
		}
		if strings.HasSuffix(object.Key, "/") {
			continue
		}

		parsed, err := r.readObject(ctx, object.Key)
		if err != nil {
			r.logger.Warn("skipping unreadable history object", "key", object.Key, "error", err)
			continue
		}
		for _, rec := range parsed {
			if rec.MMSI == mmsi {
				records = append(records, rec)
			}
		}
	}
	return records, nil
}

func (r *MinioReader) readObject(ctx context.Context, key string) ([]Record, error) {
	obj, err := r.client.GetObject(ctx, r.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()

	payload, err := io.ReadAll(obj)
	if err != nil {
		return nil, err
	}

	var many []Record
	if err := json.Unmarshal(payload, &many); err == nil {
		return many, nil
	}
	var one Record
	if err := json.Unmarshal(payload, &one); err != nil {
		return nil, fmt.Errorf("invalid history object %s: %w", key, err)
	}
	return []Record{one}, nil
}

var _ Reader = (*MinioReader)(nil)

// sanitizeEndpoint removes schemes and paths to satisfy minio.New expectations.
func sanitizeEndpoint(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return raw
	}
	raw = strings.TrimPrefix(strings.TrimPrefix(raw, "https://"), "http://")
	if strings.Contains(raw, "/") {
		raw = strings.Split(raw, "/")[0]
	}
	return raw
}
