// Package aws builds the SES and SNS clients used for recruiter notifications.
package aws

import (
	"context"
	"fmt"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// Clients bundles the notification channels. Either field is nil when that channel is off.
type Clients struct {
	SES *ses.Client
	SNS *sns.Client
}

// LoadConfig resolves credentials from the default chain for region.
func LoadConfig(ctx context.Context, region string) (awssdk.Config, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return awssdk.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	return cfg, nil
}

// NewClients creates the SES and/or SNS clients that are enabled.
func NewClients(ctx context.Context, region string, withSES, withSNS bool) (*Clients, error) {
	out := &Clients{}
	if !withSES && !withSNS {
		return out, nil
	}

	cfg, err := LoadConfig(ctx, region)
	if err != nil {
		return nil, err
	}
	if withSES {
		out.SES = ses.NewFromConfig(cfg)
	}
	if withSNS {
		out.SNS = sns.NewFromConfig(cfg)
	}
	return out, nil
}
