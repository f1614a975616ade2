package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/registry"
)

// dockerAPI is the slice of the engine client the transfer needs.
type dockerAPI interface {
	Ping(ctx context.Context) (types.Ping, error)
	RegistryLogin(ctx context.Context, auth registry.AuthConfig) (registry.AuthenticateOKBody, error)
	ImagePull(ctx context.Context, refStr string, options image.PullOptions) (io.ReadCloser, error)
	ImageTag(ctx context.Context, source, target string) error
	ImagePush(ctx context.Context, img string, options image.PushOptions) (io.ReadCloser, error)
	ImageRemove(ctx context.Context, imageID string, options image.RemoveOptions) ([]image.DeleteResponse, error)
}

type Docker struct {
	cli dockerAPI
}

func newDocker(cli dockerAPI) *Docker {
	return &Docker{cli: cli}
}

// ping verifies the engine daemon is reachable.
func (d *Docker) ping(ctx context.Context) error {
	if _, err := d.cli.Ping(ctx); err != nil {
		return fmt.Errorf("docker daemon is not reachable: %w", err)
	}
	return nil
}

func (d *Docker) login(ctx context.Context, host string, auth authorization) error {
	_, err := d.cli.RegistryLogin(ctx, registry.AuthConfig{
		Username:      auth.username,
		Password:      auth.password,
		ServerAddress: host,
	})
	if err != nil {
		return err
	}

	log.Info("login", "registry", host, "username", auth.username)
	return nil
}

// authorize encodes credentials into the RegistryAuth header value the
// engine expects on pull and push requests.
func (d *Docker) authorize(auth authorization) (string, error) {
	encodedJSON, err := json.Marshal(registry.AuthConfig{
		Username: auth.username,
		Password: auth.password,
	})
	if err != nil {
		return "", err
	}

	return base64.URLEncoding.EncodeToString(encodedJSON), nil
}

func (d *Docker) pull(ctx context.Context, ref, auth string) error {
	out, err := d.cli.ImagePull(ctx, ref, image.PullOptions{
		RegistryAuth: auth,
	})
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(io.Discard, out); err != nil {
		return err
	}

	log.Info("imagePulling", "image", ref, "status", "pulled")
	return nil
}

func (d *Docker) rename(ctx context.Context, from, to string) error {
	if err := d.cli.ImageTag(ctx, from, to); err != nil {
		return err
	}

	log.Info("renaming", "from", from, "to", to)
	return nil
}

func (d *Docker) push(ctx context.Context, ref, auth string) error {
	out, err := d.cli.ImagePush(ctx, ref, image.PushOptions{
		RegistryAuth: auth,
	})
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(io.Discard, out); err != nil {
		return err
	}

	log.Info("imagePushing", "image", ref, "status", "pushed")
	return nil
}

// remove drops a local image reference. Failures are left for the caller to
// downgrade; removal after a successful push is best effort.
func (d *Docker) remove(ctx context.Context, ref string) error {
	_, err := d.cli.ImageRemove(ctx, ref, image.RemoveOptions{})
	return err
}
