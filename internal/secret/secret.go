// Package secret resolves and holds sensitive values. A resolved Value
// redacts itself in every textual representation; the plaintext is only
// reachable through Reveal at the point of use.
package secret

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"

	"github.com/backstop-systems/backstop/pkg/types"
)

const redacted = "[REDACTED]"

// Value holds a resolved secret. The zero Value is empty.
type Value struct {
	v string
}

// New wraps a plaintext string in a Value. Intended for tests and for the
// resolver itself.
func New(v string) Value { return Value{v: v} }

// Reveal returns the plaintext. Callers must not log or persist the result.
func (v Value) Reveal() string { return v.v }

// IsZero reports whether the value is empty.
func (v Value) IsZero() bool { return v.v == "" }

// String implements fmt.Stringer and always redacts.
func (v Value) String() string { return redacted }

// GoString redacts %#v formatting.
func (v Value) GoString() string { return redacted }

// MarshalJSON redacts JSON serialization.
func (v Value) MarshalJSON() ([]byte, error) { return []byte(`"` + redacted + `"`), nil }

// LogValue redacts slog output.
func (v Value) LogValue() slog.Value { return slog.StringValue(redacted) }

// SecretsManagerAPI is the subset of the Secrets Manager client used by Resolver.
type SecretsManagerAPI interface {
	GetSecretValue(ctx context.Context, input *secretsmanager.GetSecretValueInput, opts ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// Resolver materializes SecretRefs from their configured source.
type Resolver struct {
	mu sync.Mutex
	sm SecretsManagerAPI
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithSecretsManagerClient sets a custom Secrets Manager client (useful for testing).
func WithSecretsManagerClient(c SecretsManagerAPI) ResolverOption {
	return func(r *Resolver) { r.sm = c }
}

// NewResolver creates a Resolver with the given options.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{}
	for _, o := range opts {
		o(r)
	}
	return r
}

// ValidateRef checks that exactly one source is configured.
func ValidateRef(ref types.SecretRef) error {
	n := 0
	for _, s := range []string{ref.Value, ref.Env, ref.File, ref.SecretsManagerARN} {
		if s != "" {
			n++
		}
	}
	switch n {
	case 0:
		return fmt.Errorf("no secret source configured")
	case 1:
		return nil
	default:
		return fmt.Errorf("multiple secret sources configured, expected exactly one")
	}
}

// Resolve materializes a SecretRef into a Value.
func (r *Resolver) Resolve(ctx context.Context, ref types.SecretRef) (Value, error) {
	if err := ValidateRef(ref); err != nil {
		return Value{}, err
	}

	switch {
	case ref.Value != "":
		return Value{v: ref.Value}, nil
	case ref.Env != "":
		v, ok := os.LookupEnv(ref.Env)
		if !ok || v == "" {
			return Value{}, fmt.Errorf("environment variable %s is not set", ref.Env)
		}
		return Value{v: v}, nil
	case ref.File != "":
		data, err := os.ReadFile(ref.File)
		if err != nil {
			return Value{}, fmt.Errorf("reading secret file: %w", err)
		}
		v := strings.TrimSpace(string(data))
		if v == "" {
			return Value{}, fmt.Errorf("secret file %s is empty", ref.File)
		}
		return Value{v: v}, nil
	default:
		return r.resolveSecretsManager(ctx, ref.SecretsManagerARN)
	}
}

func (r *Resolver) resolveSecretsManager(ctx context.Context, arn string) (Value, error) {
	client, err := r.getClient(ctx)
	if err != nil {
		return Value{}, err
	}

	out, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(arn),
	})
	if err != nil {
		return Value{}, fmt.Errorf("fetching secret from Secrets Manager: %w", err)
	}
	if out.SecretString == nil || *out.SecretString == "" {
		return Value{}, fmt.Errorf("secret %s has no string value", arn)
	}
	return Value{v: *out.SecretString}, nil
}

func (r *Resolver) getClient(ctx context.Context) (SecretsManagerAPI, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sm != nil {
		return r.sm, nil
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	r.sm = secretsmanager.NewFromConfig(cfg)
	return r.sm, nil
}
