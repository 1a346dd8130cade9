package target

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

// instanceAPI is the slice of the EC2 API discovery needs.
type instanceAPI interface {
	DescribeInstances(ctx context.Context, params *ec2.DescribeInstancesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error)
}

// Discoverer finds the target host when no --target is given, by looking up
// the running instance carrying a known tag.
type Discoverer struct {
	client instanceAPI
}

// NewDiscoverer loads the default AWS config for the given region.
func NewDiscoverer(ctx context.Context, region string) (*Discoverer, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}
	return &Discoverer{client: ec2.NewFromConfig(cfg)}, nil
}

// DiscoverHost returns the public IP of the single running instance tagged
// tagKey=tagValue. Zero or multiple matches are errors: guessing the wrong
// server is worse than failing.
func (d *Discoverer) DiscoverHost(ctx context.Context, tagKey, tagValue string) (string, error) {
	out, err := d.client.DescribeInstances(ctx, &ec2.DescribeInstancesInput{
		Filters: []types.Filter{
			{Name: strPtr("tag:" + tagKey), Values: []string{tagValue}},
			{Name: strPtr("instance-state-name"), Values: []string{"running"}},
		},
	})
	if err != nil {
		return "", fmt.Errorf("describing instances: %w", err)
	}

	var ips []string
	for _, reservation := range out.Reservations {
		for _, instance := range reservation.Instances {
			if instance.PublicIpAddress != nil {
				ips = append(ips, *instance.PublicIpAddress)
			}
		}
	}

	switch len(ips) {
	case 0:
		return "", fmt.Errorf("no running instance with tag %s=%s has a public IP", tagKey, tagValue)
	case 1:
		return ips[0], nil
	default:
		return "", fmt.Errorf("%d running instances match tag %s=%s, refusing to pick one", len(ips), tagKey, tagValue)
	}
}

func strPtr(s string) *string { return &s }
