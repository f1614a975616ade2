package main

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ecr"
	"github.com/aws/aws-sdk-go-v2/service/ecr/types"
	"github.com/charmbracelet/log"
)

// ecrAPI is the slice of the ECR client the transfer needs.
type ecrAPI interface {
	DescribeRepositories(ctx context.Context, params *ecr.DescribeRepositoriesInput, optFns ...func(*ecr.Options)) (*ecr.DescribeRepositoriesOutput, error)
	CreateRepository(ctx context.Context, params *ecr.CreateRepositoryInput, optFns ...func(*ecr.Options)) (*ecr.CreateRepositoryOutput, error)
	GetAuthorizationToken(ctx context.Context, params *ecr.GetAuthorizationTokenInput, optFns ...func(*ecr.Options)) (*ecr.GetAuthorizationTokenOutput, error)
}

type ECR struct {
	ecr ecrAPI
}

func newEcr(api ecrAPI) *ECR {
	return &ECR{ecr: api}
}

type authorization struct {
	username string
	password string
}

// authenticate requests a short-lived authorization token and decodes it
// into the username/password pair the registry expects.
func (e *ECR) authenticate(ctx context.Context) (authorization, error) {
	authOutput, err := e.ecr.GetAuthorizationToken(ctx, &ecr.GetAuthorizationTokenInput{})
	if err != nil {
		return authorization{}, err
	}

	if len(authOutput.AuthorizationData) == 0 {
		return authorization{}, fmt.Errorf("no authorizationData found in the response")
	}

	authData := authOutput.AuthorizationData[0]
	token, err := base64.StdEncoding.DecodeString(aws.ToString(authData.AuthorizationToken))
	if err != nil {
		return authorization{}, fmt.Errorf("decoding auth token not possible")
	}

	username, password, found := strings.Cut(string(token), ":")
	if !found {
		return authorization{}, fmt.Errorf("malformed auth token in the response")
	}

	return authorization{
		username: username,
		password: password,
	}, nil
}

func (e *ECR) exists(ctx context.Context, repository string) (bool, error) {
	_, err := e.ecr.DescribeRepositories(ctx, &ecr.DescribeRepositoriesInput{
		RepositoryNames: []string{repository},
	})
	if err != nil {
		var notFoundErr *types.RepositoryNotFoundException
		if errors.As(err, &notFoundErr) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (e *ECR) create(ctx context.Context, repository string) error {
	_, err := e.ecr.CreateRepository(ctx, &ecr.CreateRepositoryInput{
		RepositoryName: aws.String(repository),
	})
	if err != nil {
		return err
	}

	log.Info("ecrCreate", "repository", repository, "status", "created")
	return nil
}

// ensure makes the destination repository exist, creating it at most once.
// A pre-existing repository is a no-op.
func (e *ECR) ensure(ctx context.Context, repository string) error {
	found, err := e.exists(ctx, repository)
	if err != nil {
		return err
	}

	if found {
		log.Info("ecrCreate", "repository", repository, "status", "already exists")
		return nil
	}

	return e.create(ctx, repository)
}
