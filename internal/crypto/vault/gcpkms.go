package vault

import (
	"context"
	"fmt"
	"hash/crc32"

	kms "cloud.google.com/go/kms/apiv1"
	"cloud.google.com/go/kms/apiv1/kmspb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/option"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// GCPConfig addresses a Cloud KMS key ring.
type GCPConfig struct {
	ProjectID       string
	Location        string
	KeyRing         string
	CredentialsFile string
	Endpoint        string
}

func (c GCPConfig) validate() error {
	if c.ProjectID == "" || c.Location == "" || c.KeyRing == "" {
		return fmt.Errorf("gcp kms requires project id, location and key ring")
	}
	return nil
}

// gcpKMSClient is the subset of the Cloud KMS client used by the backend.
type gcpKMSClient interface {
	Encrypt(ctx context.Context, req *kmspb.EncryptRequest, opts ...gax.CallOption) (*kmspb.EncryptResponse, error)
	Decrypt(ctx context.Context, req *kmspb.DecryptRequest, opts ...gax.CallOption) (*kmspb.DecryptResponse, error)
	GenerateRandomBytes(
		ctx context.Context,
		req *kmspb.GenerateRandomBytesRequest,
		opts ...gax.CallOption,
	) (*kmspb.GenerateRandomBytesResponse, error)
	Close() error
}

// GCPKeyVault is a KeyVault backed by Google Cloud KMS. Random bytes come from the HSM
// protection level of the key ring's location.
type GCPKeyVault struct {
	cfg    GCPConfig
	client gcpKMSClient
}

// NewGCPKeyVault connects to Cloud KMS with application default credentials, or with
// the configured credentials file and endpoint.
func NewGCPKeyVault(ctx context.Context, cfg GCPConfig) (*GCPKeyVault, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}

	client, err := kms.NewKeyManagementClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gcp kms client: %w", err)
	}
	return newGCPKeyVaultWithClient(cfg, client), nil
}

func newGCPKeyVaultWithClient(cfg GCPConfig, client gcpKMSClient) *GCPKeyVault {
	return &GCPKeyVault{cfg: cfg, client: client}
}

// KeyPath returns the full resource name of a crypto key in the configured key ring.
func (g *GCPKeyVault) KeyPath(keyName string) string {
	return fmt.Sprintf("projects/%s/locations/%s/keyRings/%s/cryptoKeys/%s",
		g.cfg.ProjectID, g.cfg.Location, g.cfg.KeyRing, keyName)
}

func (g *GCPKeyVault) locationPath() string {
	return fmt.Sprintf("projects/%s/locations/%s", g.cfg.ProjectID, g.cfg.Location)
}

func (g *GCPKeyVault) Name() string {
	return "gcp"
}

func (g *GCPKeyVault) EncryptEnvelope(ctx context.Context, plaintext []byte, keyName string) ([]byte, error) {
	resp, err := g.client.Encrypt(ctx, &kmspb.EncryptRequest{
		Name:            g.KeyPath(keyName),
		Plaintext:       plaintext,
		PlaintextCrc32C: wrapperspb.Int64(crc32c(plaintext)),
	})
	if err != nil {
		return nil, fmt.Errorf("gcp kms encrypt: %w", err)
	}
	if !resp.GetVerifiedPlaintextCrc32C() {
		return nil, fmt.Errorf("%w: plaintext checksum not verified by gcp kms", ErrChecksumMismatch)
	}
	if resp.GetCiphertextCrc32C().GetValue() != crc32c(resp.GetCiphertext()) {
		return nil, fmt.Errorf("%w: gcp kms ciphertext", ErrChecksumMismatch)
	}
	return resp.GetCiphertext(), nil
}

func (g *GCPKeyVault) DecryptEnvelope(ctx context.Context, ciphertext []byte, keyName string) ([]byte, error) {
	resp, err := g.client.Decrypt(ctx, &kmspb.DecryptRequest{
		Name:             g.KeyPath(keyName),
		Ciphertext:       ciphertext,
		CiphertextCrc32C: wrapperspb.Int64(crc32c(ciphertext)),
	})
	if err != nil {
		return nil, fmt.Errorf("gcp kms decrypt: %w", err)
	}
	if resp.GetPlaintextCrc32C().GetValue() != crc32c(resp.GetPlaintext()) {
		return nil, fmt.Errorf("%w: gcp kms plaintext", ErrChecksumMismatch)
	}
	return resp.GetPlaintext(), nil
}

func (g *GCPKeyVault) GenerateRandomBytes(ctx context.Context, n int) ([]byte, error) {
	if err := validateRandomLength(n); err != nil {
		return nil, err
	}
	resp, err := g.client.GenerateRandomBytes(ctx, &kmspb.GenerateRandomBytesRequest{
		Location:        g.locationPath(),
		LengthBytes:     int32(n),
		ProtectionLevel: kmspb.ProtectionLevel_HSM,
	})
	if err != nil {
		return nil, fmt.Errorf("gcp kms generate random bytes: %w", err)
	}
	if resp.GetDataCrc32C() != nil && resp.GetDataCrc32C().GetValue() != crc32c(resp.GetData()) {
		return nil, fmt.Errorf("%w: gcp kms random bytes", ErrChecksumMismatch)
	}
	return checkRandomLength(g.Name(), resp.GetData(), n)
}

func (g *GCPKeyVault) Close() error {
	return g.client.Close()
}

var crc32cTable = crc32.MakeTable(crc32.Castagnoli)

// crc32c computes the CRC32C checksum Cloud KMS uses for request and response integrity.
func crc32c(data []byte) int64 {
	return int64(crc32.Checksum(data, crc32cTable))
}
