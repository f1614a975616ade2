package main

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/charmbracelet/log"
)

// sourceLoginUser is the placeholder username GHCR expects alongside a
// token; the registry ignores its value.
const sourceLoginUser = "USERNAME"

// stsAPI is the slice of the STS client the preflight needs.
type stsAPI interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

type Transfer struct {
	opts     *Options
	docker   *Docker
	registry *ECR
	sts      stsAPI
}

func newTransfer(opts *Options, docker *Docker, registry *ECR, sts stsAPI) *Transfer {
	return &Transfer{
		opts:     opts,
		docker:   docker,
		registry: registry,
		sts:      sts,
	}
}

// run walks the pipeline in order: preflight, source login, destination
// login, ensure repository, pull, tag, push, cleanup. Every stage but
// cleanup is fatal on failure, and a failed stage skips everything after
// it, so a failed push leaves the pulled and tagged image local.
func (t *Transfer) run(ctx context.Context) error {
	src, err := parseReference(t.opts.Source)
	if err != nil {
		return fmt.Errorf("source: %w", err)
	}

	dst, err := parseReference(t.opts.Destination)
	if err != nil {
		return fmt.Errorf("destination: %w", err)
	}

	if err := t.preflight(ctx); err != nil {
		return err
	}

	srcAuth, err := t.sourceLogin(ctx, src)
	if err != nil {
		return err
	}

	dstAuth, err := t.destinationLogin(ctx, dst)
	if err != nil {
		return err
	}

	if err := t.registry.ensure(ctx, dst.repository); err != nil {
		return fmt.Errorf("ensuring repository %s: %w", dst.repository, err)
	}

	if err := t.docker.pull(ctx, src.String(), srcAuth); err != nil {
		return fmt.Errorf("pulling %s: %w", src, err)
	}

	if err := t.docker.rename(ctx, src.String(), dst.String()); err != nil {
		return fmt.Errorf("tagging %s as %s: %w", src, dst, err)
	}

	if err := t.docker.push(ctx, dst.String(), dstAuth); err != nil {
		return fmt.Errorf("pushing %s: %w", dst, err)
	}

	t.cleanup(ctx, src.String(), dst.String())

	log.Info("transfer complete", "source", src.String(), "destination", dst.String())
	return nil
}

// preflight checks the engine daemon is reachable and the cloud
// credentials resolve before any stage with side effects runs.
func (t *Transfer) preflight(ctx context.Context) error {
	if err := t.docker.ping(ctx); err != nil {
		return err
	}

	ident, err := t.sts.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return fmt.Errorf("resolving aws credentials: %w", err)
	}

	log.Info("aws identity", "account", aws.ToString(ident.Account))
	return nil
}

// sourceLogin authenticates against the source registry when a token was
// supplied. Without a token the pull proceeds anonymously, which only
// works for public images.
func (t *Transfer) sourceLogin(ctx context.Context, src reference) (string, error) {
	if t.opts.GithubToken == "" {
		log.Warn("no token supplied, pulling unauthenticated", "registry", src.host)
		return "", nil
	}

	auth := authorization{username: sourceLoginUser, password: t.opts.GithubToken}
	if err := t.docker.login(ctx, src.host, auth); err != nil {
		return "", fmt.Errorf("logging in to %s: %w", src.host, err)
	}

	return t.docker.authorize(auth)
}

func (t *Transfer) destinationLogin(ctx context.Context, dst reference) (string, error) {
	auth, err := t.registry.authenticate(ctx)
	if err != nil {
		return "", fmt.Errorf("requesting ecr authorization token: %w", err)
	}

	if err := t.docker.login(ctx, dst.host, auth); err != nil {
		return "", fmt.Errorf("logging in to %s: %w", dst.host, err)
	}

	return t.docker.authorize(auth)
}

// cleanup removes both local image references. A reference that cannot be
// removed, because another tag or a container still holds it, is a
// warning, not a failure.
func (t *Transfer) cleanup(ctx context.Context, refs ...string) {
	for _, ref := range refs {
		if err := t.docker.remove(ctx, ref); err != nil {
			log.Warn("could not remove local image", "image", ref, "error", err)
			continue
		}
		log.Info("removed local image", "image", ref)
	}
}
