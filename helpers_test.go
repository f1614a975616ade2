package main

import (
	"context"
	"encoding/base64"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ecr"
	ecrtypes "github.com/aws/aws-sdk-go-v2/service/ecr/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/registry"
	"gopkg.in/yaml.v2"
)

// recorder collects the calls every fake makes, in order, so ordering
// across the engine and the registry is assertable from one list.
type recorder struct {
	calls []string
}

func (r *recorder) record(call string) {
	r.calls = append(r.calls, call)
}

func (r *recorder) count(prefix string) int {
	n := 0
	for _, call := range r.calls {
		if strings.HasPrefix(call, prefix) {
			n++
		}
	}
	return n
}

type fakeEngine struct {
	rec *recorder

	pingErr   error
	loginErr  error
	pullErr   error
	tagErr    error
	pushErr   error
	removeErr error
}

func (f *fakeEngine) Ping(ctx context.Context) (types.Ping, error) {
	f.rec.record("ping")
	return types.Ping{}, f.pingErr
}

func (f *fakeEngine) RegistryLogin(ctx context.Context, auth registry.AuthConfig) (registry.AuthenticateOKBody, error) {
	f.rec.record("login " + auth.ServerAddress)
	return registry.AuthenticateOKBody{}, f.loginErr
}

func (f *fakeEngine) ImagePull(ctx context.Context, refStr string, options image.PullOptions) (io.ReadCloser, error) {
	f.rec.record("pull " + refStr)
	if f.pullErr != nil {
		return nil, f.pullErr
	}
	return io.NopCloser(strings.NewReader("")), nil
}

func (f *fakeEngine) ImageTag(ctx context.Context, source, target string) error {
	f.rec.record("tag " + source + " " + target)
	return f.tagErr
}

func (f *fakeEngine) ImagePush(ctx context.Context, img string, options image.PushOptions) (io.ReadCloser, error) {
	f.rec.record("push " + img)
	if f.pushErr != nil {
		return nil, f.pushErr
	}
	return io.NopCloser(strings.NewReader("")), nil
}

func (f *fakeEngine) ImageRemove(ctx context.Context, imageID string, options image.RemoveOptions) ([]image.DeleteResponse, error) {
	f.rec.record("remove " + imageID)
	if f.removeErr != nil {
		return nil, f.removeErr
	}
	return []image.DeleteResponse{{Untagged: imageID}}, nil
}

type fakeRegistryAPI struct {
	rec *recorder

	existing map[string]bool
	password string

	describeErr error
	createErr   error
	tokenErr    error
	noAuthData  bool
}

func (f *fakeRegistryAPI) DescribeRepositories(ctx context.Context, params *ecr.DescribeRepositoriesInput, optFns ...func(*ecr.Options)) (*ecr.DescribeRepositoriesOutput, error) {
	name := params.RepositoryNames[0]
	f.rec.record("describe " + name)

	if f.describeErr != nil {
		return nil, f.describeErr
	}
	if !f.existing[name] {
		return nil, &ecrtypes.RepositoryNotFoundException{Message: aws.String("repository not found")}
	}

	return &ecr.DescribeRepositoriesOutput{
		Repositories: []ecrtypes.Repository{
			{RepositoryName: aws.String(name)},
		},
	}, nil
}

func (f *fakeRegistryAPI) CreateRepository(ctx context.Context, params *ecr.CreateRepositoryInput, optFns ...func(*ecr.Options)) (*ecr.CreateRepositoryOutput, error) {
	name := aws.ToString(params.RepositoryName)
	f.rec.record("create " + name)

	if f.createErr != nil {
		return nil, f.createErr
	}

	return &ecr.CreateRepositoryOutput{
		Repository: &ecrtypes.Repository{RepositoryName: params.RepositoryName},
	}, nil
}

func (f *fakeRegistryAPI) GetAuthorizationToken(ctx context.Context, params *ecr.GetAuthorizationTokenInput, optFns ...func(*ecr.Options)) (*ecr.GetAuthorizationTokenOutput, error) {
	f.rec.record("token")

	if f.tokenErr != nil {
		return nil, f.tokenErr
	}
	if f.noAuthData {
		return &ecr.GetAuthorizationTokenOutput{}, nil
	}

	token := base64.StdEncoding.EncodeToString([]byte("AWS:" + f.password))
	return &ecr.GetAuthorizationTokenOutput{
		AuthorizationData: []ecrtypes.AuthorizationData{
			{AuthorizationToken: aws.String(token)},
		},
	}, nil
}

type fakeSTS struct {
	rec *recorder

	identityErr error
}

func (f *fakeSTS) GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
	f.rec.record("identity")

	if f.identityErr != nil {
		return nil, f.identityErr
	}

	return &sts.GetCallerIdentityOutput{
		Account: aws.String("111111111111"),
	}, nil
}

func createTempDefaultsFile(t *testing.T, defaults fileDefaults) string {
	t.Helper()

	file, err := os.CreateTemp(t.TempDir(), "defaults*.yaml")
	if err != nil {
		t.Fatal(err)
	}

	b, err := yaml.Marshal(defaults)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := file.Write(b); err != nil {
		t.Fatal(err)
	}
	if err := file.Close(); err != nil {
		t.Fatal(err)
	}

	return file.Name()
}
