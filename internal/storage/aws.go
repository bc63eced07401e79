package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/ignite/ppc-optimizer/internal/config"
	"github.com/ignite/ppc-optimizer/internal/domain"
)

// S3API is the subset of the S3 client the store uses.
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	CopyObject(ctx context.Context, in *s3.CopyObjectInput, optFns ...func(*s3.Options)) (*s3.CopyObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// DynamoAPI is the subset of the DynamoDB client the store uses.
type DynamoAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// AWSStore keeps objects in S3 and indexes runs in DynamoDB.
type AWSStore struct {
	s3        S3API
	dynamoDB  DynamoAPI
	bucket    string
	tableName string
}

// runItem is a run index entry in DynamoDB. Runs of one client share a
// partition; the sort key orders them by creation time.
type runItem struct {
	PK string `dynamodbav:"PK"`
	SK string `dynamodbav:"SK"`
	RunRecord
	TTL int64 `dynamodbav:"TTL,omitempty"`
}

const runRetention = 365 * 24 * time.Hour

// NewAWSStore loads the AWS configuration and creates the clients.
func NewAWSStore(ctx context.Context, cfg config.StorageConfig) (*AWSStore, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.AWSRegion)}
	if profile := cfg.GetAWSProfile(); profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(profile))
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	var dynamoClient DynamoAPI
	if cfg.DynamoDBTable != "" {
		dynamoClient = dynamodb.NewFromConfig(awsCfg)
	}
	return NewAWSStoreWithClients(s3Client, dynamoClient, cfg.S3Bucket, cfg.DynamoDBTable), nil
}

// NewAWSStoreWithClients wires explicit clients. A nil DynamoAPI disables
// the run index; ListRuns then returns an empty list.
func NewAWSStoreWithClients(s3Client S3API, dynamoClient DynamoAPI, bucket, table string) *AWSStore {
	return &AWSStore{s3: s3Client, dynamoDB: dynamoClient, bucket: bucket, tableName: table}
}

func (s *AWSStore) PutObject(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("putting object to S3: %w", err)
	}
	return nil
}

func (s *AWSStore) GetObject(ctx context.Context, key string) ([]byte, error) {
	result, err := s.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *s3types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("getting object from S3: %w", err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("reading S3 object body: %w", err)
	}
	return data, nil
}

func (s *AWSStore) ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	var out []ObjectInfo
	p := s3.NewListObjectsV2Paginator(s.s3, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing S3 objects: %w", err)
		}
		for _, obj := range page.Contents {
			info := ObjectInfo{Key: aws.ToString(obj.Key), Size: aws.ToInt64(obj.Size)}
			if obj.LastModified != nil {
				info.LastModified = obj.LastModified.UTC()
			}
			out = append(out, info)
		}
	}
	return out, nil
}

// MoveObject copies src to dst and deletes src.
func (s *AWSStore) MoveObject(ctx context.Context, src, dst string) error {
	_, err := s.s3.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(s.bucket),
		CopySource: aws.String(s.bucket + "/" + url.PathEscape(src)),
		Key:        aws.String(dst),
	})
	if err != nil {
		var noKey *s3types.NoSuchKey
		if errors.As(err, &noKey) {
			return fmt.Errorf("%s: %w", src, ErrNotFound)
		}
		return fmt.Errorf("copying S3 object: %w", err)
	}
	if _, err := s.s3.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(src),
	}); err != nil {
		return fmt.Errorf("deleting S3 object: %w", err)
	}
	return nil
}

func (s *AWSStore) SaveRun(ctx context.Context, rec RunRecord, res *domain.Result) error {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling result: %w", err)
	}
	if err := s.PutObject(ctx, rec.ResultKey, data, "application/json"); err != nil {
		return err
	}
	if s.dynamoDB == nil {
		return nil
	}

	item := runItem{
		PK:        clientPK(rec.ClientID),
		SK:        fmt.Sprintf("RUN#%s#%s", rec.CreatedAt.UTC().Format(time.RFC3339Nano), rec.RunID),
		RunRecord: rec,
		TTL:       rec.CreatedAt.Add(runRetention).Unix(),
	}
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("marshaling run item: %w", err)
	}
	_, err = s.dynamoDB.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("putting run item to DynamoDB: %w", err)
	}
	return nil
}

func (s *AWSStore) GetRun(ctx context.Context, runID string) (*domain.Result, error) {
	data, err := s.GetObject(ctx, ResultKey(runID))
	if err != nil {
		return nil, err
	}
	var res domain.Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("unmarshaling result %s: %w", runID, err)
	}
	return &res, nil
}

func (s *AWSStore) ListRuns(ctx context.Context, clientID string, limit int) ([]RunRecord, error) {
	if s.dynamoDB == nil {
		return []RunRecord{}, nil
	}
	in := &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :run)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":  &types.AttributeValueMemberS{Value: clientPK(clientID)},
			":run": &types.AttributeValueMemberS{Value: "RUN#"},
		},
		ScanIndexForward: aws.Bool(false),
	}
	if limit > 0 {
		in.Limit = aws.Int32(int32(limit))
	}
	result, err := s.dynamoDB.Query(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("querying runs from DynamoDB: %w", err)
	}

	runs := make([]RunRecord, 0, len(result.Items))
	for _, av := range result.Items {
		var item runItem
		if err := attributevalue.UnmarshalMap(av, &item); err != nil {
			return nil, fmt.Errorf("unmarshaling run item: %w", err)
		}
		runs = append(runs, item.RunRecord)
	}
	return runs, nil
}

func clientPK(clientID string) string {
	return "CLIENT#" + clientID
}
