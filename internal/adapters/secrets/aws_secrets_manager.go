package secrets

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"go.uber.org/zap"

	"github.com/kevin07696/settlement-service/internal/domain/ports"
)

// AWSConfig configures the AWS Secrets Manager backend
type AWSConfig struct {
	Region string

	// Optional shared config profile for local development
	Profile string

	// Optional custom endpoint (LocalStack)
	Endpoint string

	CacheTTL time.Duration
}

// secretsManagerAPI is the slice of the AWS client the store uses
type secretsManagerAPI interface {
	GetSecretValue(ctx context.Context, in *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// AWSSecretStore reads secrets from AWS Secrets Manager
type AWSSecretStore struct {
	client secretsManagerAPI
	logger *zap.Logger
	cache  *secretCache
}

// NewAWSSecretStore loads the default AWS credential chain and creates the store
func NewAWSSecretStore(ctx context.Context, cfg AWSConfig, logger *zap.Logger) (*AWSSecretStore, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.Profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(cfg.Profile))
	}

	awsConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var clientOptions []func(*secretsmanager.Options)
	if cfg.Endpoint != "" {
		clientOptions = append(clientOptions, func(o *secretsmanager.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}

	logger.Info("AWS Secrets Manager store initialized",
		zap.String("region", cfg.Region),
		zap.Duration("cache_ttl", cfg.CacheTTL),
	)

	return newAWSSecretStore(secretsmanager.NewFromConfig(awsConfig, clientOptions...), cfg.CacheTTL, logger), nil
}

func newAWSSecretStore(client secretsManagerAPI, ttl time.Duration, logger *zap.Logger) *AWSSecretStore {
	return &AWSSecretStore{client: client, logger: logger, cache: newSecretCache(ttl)}
}

// GetSecret retrieves the current version of a secret by name or ARN
func (s *AWSSecretStore) GetSecret(ctx context.Context, path string) (*ports.Secret, error) {
	if cached := s.cache.get(path); cached != nil {
		return cached, nil
	}

	start := time.Now()
	result, err := s.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(path),
	})
	if err != nil {
		s.logger.Error("Failed to retrieve secret",
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to get secret %s: %w", path, err)
	}

	secret := &ports.Secret{
		Value:    aws.ToString(result.SecretString),
		Version:  aws.ToString(result.VersionId),
		Metadata: map[string]string{},
	}
	if result.CreatedDate != nil {
		secret.CreatedAt = result.CreatedDate.Format(time.RFC3339)
	}
	if result.ARN != nil {
		secret.Metadata["arn"] = *result.ARN
	}

	s.logger.Debug("Secret retrieved",
		zap.String("path", path),
		zap.Duration("elapsed", time.Since(start)),
	)

	s.cache.set(path, secret)
	return secret, nil
}
