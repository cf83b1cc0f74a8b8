package aws

import (
	"context"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"

	"github.com/relayworks/eventserver-go/pkg/config"
)

// LoadStorageConfig builds the AWS configuration for the object store.
// Explicit static credentials (MinIO deployments) take precedence; otherwise
// the default chain applies, using the shared profile outside Kubernetes.
func LoadStorageConfig(ctx context.Context, storageCfg config.StorageConfig) (aws.Config, error) {
	var options []func(*awsconfig.LoadOptions) error

	if storageCfg.AccessKeyID != "" && storageCfg.SecretAccessKey != "" {
		options = append(options, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(storageCfg.AccessKeyID, storageCfg.SecretAccessKey, ""),
		))
	} else if !isInKubernetes() {
		options = append(options, awsconfig.WithSharedConfigProfile(getProfile()))
	}

	if storageCfg.Region != "" {
		options = append(options, awsconfig.WithRegion(storageCfg.Region))
	}

	return awsconfig.LoadDefaultConfig(ctx, options...)
}

// Simple check to see if we're running in K8s
func isInKubernetes() bool {
	// Check for the service account token file
	_, err := os.Stat("/var/run/secrets/kubernetes.io/serviceaccount/token")
	return err == nil
}

func getProfile() string {
	if profile := os.Getenv("AWS_PROFILE"); profile != "" {
		return profile
	}
	return "default"
}
