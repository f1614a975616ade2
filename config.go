package main

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ecr"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

type CloudConfig struct {
	cfg     aws.Config
	region  string
	profile string
}

type Option func(*CloudConfig)

func withRegion(region string) Option {
	return func(cc *CloudConfig) {
		cc.region = region
	}
}

func withProfile(profile string) Option {
	return func(cc *CloudConfig) {
		cc.profile = profile
	}
}

func initConfig(ctx context.Context, opts ...Option) (*CloudConfig, error) {
	cc := &CloudConfig{}
	for _, opt := range opts {
		opt(cc)
	}

	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(cc.region),
	}
	if cc.profile != "" {
		loadOpts = append(loadOpts, config.WithSharedConfigProfile(cc.profile))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}

	cc.cfg = cfg
	return cc, nil
}

func (c *CloudConfig) establishClientWith(opts ...ResourceOpt) *ResourceConfig {
	o := &ResourceConfig{}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

type ResourceConfig struct {
	ecr *ecr.Client
	sts *sts.Client
}

type ResourceOpt func(*ResourceConfig)

func ecrService(cfg aws.Config) ResourceOpt {
	return func(rc *ResourceConfig) {
		rc.ecr = ecr.NewFromConfig(cfg)
	}
}

func stsService(cfg aws.Config) ResourceOpt {
	return func(rc *ResourceConfig) {
		rc.sts = sts.NewFromConfig(cfg)
	}
}
