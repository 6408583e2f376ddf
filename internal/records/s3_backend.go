package records

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"github.com/avmjs/vapdeploy/internal/ir"
)

// s3Backend stores the deployment document in S3 with optional DynamoDB
// locking.
type s3Backend struct {
	bucket        string
	key           string
	region        string
	dynamoDBTable string
	encrypt       bool
	profile       string

	s3Client *s3.Client
	dbClient *dynamodb.Client
	lockID   string
}

func newS3Backend(config map[string]string) (Backend, error) {
	bucket := config["bucket"]
	if bucket == "" {
		return nil, fmt.Errorf("s3 backend requires 'bucket' configuration")
	}

	key := config["key"]
	if key == "" {
		key = "vapdeploy/contracts.json"
	}

	region := config["region"]
	if region == "" {
		region = "us-east-1"
	}

	b := &s3Backend{
		bucket:        bucket,
		key:           key,
		region:        region,
		dynamoDBTable: config["dynamodb_table"],
		encrypt:       config["encrypt"] == "true",
		profile:       config["profile"],
	}

	if err := b.initClients(); err != nil {
		return nil, fmt.Errorf("failed to initialize S3 backend: %w", err)
	}
	return b, nil
}

func (b *s3Backend) initClients() error {
	ctx := context.Background()

	var opts []func(*awsconfig.LoadOptions) error
	opts = append(opts, awsconfig.WithRegion(b.region))
	if b.profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(b.profile))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return fmt.Errorf("unable to load AWS config: %w", err)
	}

	b.s3Client = s3.NewFromConfig(cfg)
	if b.dynamoDBTable != "" {
		b.dbClient = dynamodb.NewFromConfig(cfg)
	}
	return nil
}

func (b *s3Backend) Read(ctx context.Context) (ir.Document, error) {
	result, err := b.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key),
	})
	if err != nil {
		var nsk *s3types.NoSuchKey
		if errors.As(err, &nsk) {
			return ir.Document{}, nil
		}
		if strings.Contains(err.Error(), "NoSuchKey") || strings.Contains(err.Error(), "404") {
			return ir.Document{}, nil
		}
		return nil, fmt.Errorf("failed to read records from s3://%s/%s: %w", b.bucket, b.key, err)
	}
	defer result.Body.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(result.Body); err != nil {
		return nil, fmt.Errorf("failed to read S3 object body: %w", err)
	}

	var doc ir.Document
	if err := json.Unmarshal(stripComments(buf.Bytes()), &doc); err != nil {
		return nil, fmt.Errorf("failed to parse remote records: %w", err)
	}
	return doc, nil
}

func (b *s3Backend) Write(ctx context.Context, output string) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key),
		Body:   strings.NewReader(output),
	}
	if b.encrypt {
		input.ServerSideEncryption = s3types.ServerSideEncryptionAes256
	}

	if _, err := b.s3Client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("failed to write records to s3://%s/%s: %w", b.bucket, b.key, err)
	}
	return nil
}

func (b *s3Backend) Lock() error {
	if b.dynamoDBTable == "" {
		return nil // No locking without DynamoDB
	}

	b.lockID = uuid.NewString()

	_, err := b.dbClient.PutItem(context.Background(), &dynamodb.PutItemInput{
		TableName: aws.String(b.dynamoDBTable),
		Item: map[string]dbtypes.AttributeValue{
			"LockID":  &dbtypes.AttributeValueMemberS{Value: b.key},
			"Info":    &dbtypes.AttributeValueMemberS{Value: b.lockID},
			"Created": &dbtypes.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339)},
		},
		ConditionExpression: aws.String("attribute_not_exists(LockID)"),
	})
	if err != nil {
		if strings.Contains(err.Error(), "ConditionalCheckFailedException") {
			return fmt.Errorf("records are locked by another run. If this is an error, "+
				"manually delete the lock item with LockID=%q from DynamoDB table %q", b.key, b.dynamoDBTable)
		}
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	return nil
}

func (b *s3Backend) Unlock() error {
	if b.dynamoDBTable == "" {
		return nil
	}

	_, err := b.dbClient.DeleteItem(context.Background(), &dynamodb.DeleteItemInput{
		TableName: aws.String(b.dynamoDBTable),
		Key: map[string]dbtypes.AttributeValue{
			"LockID": &dbtypes.AttributeValueMemberS{Value: b.key},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return nil
}
