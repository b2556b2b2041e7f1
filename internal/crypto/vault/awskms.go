package vault

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/kms"
)

// AWSConfig configures the AWS KMS backend. When KeyID is empty, key names resolve
// to the alias "alias/<name>".
type AWSConfig struct {
	Region          string
	KeyID           string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	Endpoint        string
}

// awsKMSClient is the subset of the AWS KMS client used by the backend.
type awsKMSClient interface {
	Encrypt(ctx context.Context, params *kms.EncryptInput, optFns ...func(*kms.Options)) (*kms.EncryptOutput, error)
	Decrypt(ctx context.Context, params *kms.DecryptInput, optFns ...func(*kms.Options)) (*kms.DecryptOutput, error)
	GenerateRandom(
		ctx context.Context,
		params *kms.GenerateRandomInput,
		optFns ...func(*kms.Options),
	) (*kms.GenerateRandomOutput, error)
}

// AWSKeyVault is a KeyVault backed by AWS KMS.
type AWSKeyVault struct {
	keyID  string
	client awsKMSClient
}

// NewAWSKeyVault loads the default AWS configuration for the region. Static credentials
// and an endpoint override are applied when configured.
func NewAWSKeyVault(ctx context.Context, cfg AWSConfig) (*AWSKeyVault, error) {
	if cfg.Region == "" {
		return nil, fmt.Errorf("aws kms requires a region")
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	var clientOpts []func(*kms.Options)
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *kms.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}

	return newAWSKeyVaultWithClient(cfg.KeyID, kms.NewFromConfig(awsCfg, clientOpts...)), nil
}

func newAWSKeyVaultWithClient(keyID string, client awsKMSClient) *AWSKeyVault {
	return &AWSKeyVault{keyID: keyID, client: client}
}

func (a *AWSKeyVault) resolveKeyID(keyName string) string {
	if a.keyID != "" {
		return a.keyID
	}
	return "alias/" + keyName
}

func (a *AWSKeyVault) Name() string {
	return "aws"
}

func (a *AWSKeyVault) EncryptEnvelope(ctx context.Context, plaintext []byte, keyName string) ([]byte, error) {
	out, err := a.client.Encrypt(ctx, &kms.EncryptInput{
		KeyId:     aws.String(a.resolveKeyID(keyName)),
		Plaintext: plaintext,
	})
	if err != nil {
		return nil, fmt.Errorf("aws kms encrypt: %w", err)
	}
	if len(out.CiphertextBlob) == 0 {
		return nil, fmt.Errorf("%w: aws kms returned empty ciphertext", ErrInvalidResponse)
	}
	return out.CiphertextBlob, nil
}

func (a *AWSKeyVault) DecryptEnvelope(ctx context.Context, ciphertext []byte, keyName string) ([]byte, error) {
	out, err := a.client.Decrypt(ctx, &kms.DecryptInput{
		KeyId:          aws.String(a.resolveKeyID(keyName)),
		CiphertextBlob: ciphertext,
	})
	if err != nil {
		return nil, fmt.Errorf("aws kms decrypt: %w", err)
	}
	return out.Plaintext, nil
}

func (a *AWSKeyVault) GenerateRandomBytes(ctx context.Context, n int) ([]byte, error) {
	if err := validateRandomLength(n); err != nil {
		return nil, err
	}
	out, err := a.client.GenerateRandom(ctx, &kms.GenerateRandomInput{
		NumberOfBytes: aws.Int32(int32(n)),
	})
	if err != nil {
		return nil, fmt.Errorf("aws kms generate random: %w", err)
	}
	return checkRandomLength(a.Name(), out.Plaintext, n)
}

// Close is a no-op; the AWS SDK client holds no connections that need closing.
func (a *AWSKeyVault) Close() error {
	return nil
}
