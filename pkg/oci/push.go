/*
Copyright © 2025 Platform9 Systems
SPDX-License-Identifier: Apache-2.0
*/

// Package oci uploads collected diagnostic bundles to OCI registries.
package oci

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/distribution/reference"
	ociv1 "github.com/opencontainers/image-spec/specs-go/v1"
	oras "oras.land/oras-go/v2"
	"oras.land/oras-go/v2/content/file"
	"oras.land/oras-go/v2/registry/remote"
	"oras.land/oras-go/v2/registry/remote/auth"
	"oras.land/oras-go/v2/registry/remote/credentials"
)

// ArtifactType is the media type for pcddebug diagnostic bundles.
const ArtifactType = "application/vnd.platform9.pcddebug.archive"

// PushOptions configures the bundle upload.
type PushOptions struct {
	// SourceDir is the collected output directory to upload.
	SourceDir string
	// Reference is the full target reference, e.g. "ghcr.io/platform9/debug:case-1234".
	Reference string
	// PlainHTTP uses HTTP instead of HTTPS for the registry connection.
	PlainHTTP bool
	// InsecureTLS skips TLS certificate verification.
	InsecureTLS bool
}

// PushResult describes a completed upload.
type PushResult struct {
	// Digest is the SHA256 digest of the pushed manifest.
	Digest string
	// Reference is the normalized reference the bundle was pushed to.
	Reference string
}

// Push uploads the source directory as a single-layer OCI artifact.
func Push(ctx context.Context, opts PushOptions) (*PushResult, error) {
	repoName, tag, err := parseReference(opts.Reference)
	if err != nil {
		return nil, err
	}

	absDir, err := filepath.Abs(opts.SourceDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve source directory: %w", err)
	}

	fs, err := file.New(absDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create file store: %w", err)
	}
	defer func() { _ = fs.Close() }()

	fs.TarReproducible = true

	layerDesc, err := fs.Add(ctx, ".", ociv1.MediaTypeImageLayerGzip, absDir)
	if err != nil {
		return nil, fmt.Errorf("failed to add source directory to store: %w", err)
	}

	manifestDesc, err := oras.PackManifest(ctx, fs, oras.PackManifestVersion1_1, ArtifactType,
		oras.PackManifestOptions{Layers: []ociv1.Descriptor{layerDesc}})
	if err != nil {
		return nil, fmt.Errorf("failed to pack manifest: %w", err)
	}

	if tagErr := fs.Tag(ctx, manifestDesc, tag); tagErr != nil {
		return nil, fmt.Errorf("failed to tag manifest in local store: %w", tagErr)
	}

	repo, err := remote.NewRepository(repoName)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize remote repository: %w", err)
	}
	repo.PlainHTTP = opts.PlainHTTP
	repo.Client = newAuthClient(opts.PlainHTTP, opts.InsecureTLS)

	desc, err := oras.Copy(ctx, fs, tag, repo, tag, oras.DefaultCopyOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to push bundle to registry: %w", err)
	}

	return &PushResult{
		Digest:    desc.Digest.String(),
		Reference: fmt.Sprintf("%s:%s", repoName, tag),
	}, nil
}

// parseReference validates a full reference and splits it into the
// repository name and tag. Untagged references default to "latest".
func parseReference(ref string) (repo, tag string, err error) {
	ref = strings.TrimPrefix(strings.TrimPrefix(ref, "https://"), "http://")

	named, err := reference.ParseNormalizedNamed(ref)
	if err != nil {
		return "", "", fmt.Errorf("invalid registry reference %q: %w", ref, err)
	}
	if _, ok := named.(reference.Digested); ok {
		return "", "", fmt.Errorf("digest references are not supported: %q", ref)
	}

	tag = "latest"
	if tagged, ok := named.(reference.Tagged); ok {
		tag = tagged.Tag()
	}
	return named.Name(), tag, nil
}

// newAuthClient builds an HTTP client with Docker credential support
// and optional TLS relaxation.
func newAuthClient(plainHTTP, insecureTLS bool) *auth.Client {
	credStore, _ := credentials.NewStoreFromDocker(credentials.StoreOptions{})

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if !plainHTTP && insecureTLS {
		if transport.TLSClientConfig == nil {
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
		} else {
			transport.TLSClientConfig.InsecureSkipVerify = true //nolint:gosec
		}
	}

	return &auth.Client{
		Client:     &http.Client{Transport: transport},
		Cache:      auth.NewCache(),
		Credential: credentials.Credential(credStore),
	}
}
