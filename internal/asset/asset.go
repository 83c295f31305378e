// Package asset stages the container image the Lambda function runs.
//
// Staging validates the build context (directory, Dockerfile, FROM line),
// fingerprints its contents, and derives the ECR image URI and the asset
// manifest that publishing tools consume. Nothing is built or pushed here.
package asset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/moby/buildkit/frontend/dockerfile/parser"
	"github.com/sirupsen/logrus"

	satfetch "github.com/lex00/satellite-fetcher-aws-go"
	"github.com/lex00/satellite-fetcher-aws-go/intrinsics"
)

// ManifestVersion is the cloud assembly schema version written to asset manifests.
const ManifestVersion = "36.0.0"

// DefaultQualifier is the standard bootstrap qualifier.
const DefaultQualifier = "hnb659fds"

// DestinationID keys the single publishing destination in the manifest.
const DestinationID = "current_account-current_region"

var (
	// ErrNoImageDir is returned when the build context directory is missing.
	ErrNoImageDir = errors.New("image directory not found")

	// ErrNoDockerfile is returned when the build context has no Dockerfile.
	ErrNoDockerfile = errors.New("dockerfile not found")

	// ErrInvalidDockerfile is returned when the Dockerfile cannot be parsed
	// or has no FROM instruction.
	ErrInvalidDockerfile = errors.New("invalid dockerfile")
)

// Options configures Stage.
type Options struct {
	// Dir is the build context directory.
	Dir string
	// Dockerfile is the Dockerfile path relative to Dir.
	Dockerfile string
	// Platform is passed through to the manifest (e.g. linux/arm64).
	Platform string
	// Qualifier is the bootstrap qualifier in the repository name.
	Qualifier string
	// Concurrency bounds parallel file hashing. Zero means a default of 8.
	Concurrency int
	// Logger receives debug output. Nil discards it.
	Logger logrus.FieldLogger
}

// Image is a staged container image asset.
type Image struct {
	// Hash is the hex SHA-256 fingerprint of the build context.
	Hash string
	// Dir is the build context as given in Options.
	Dir string
	// Dockerfile is relative to Dir.
	Dockerfile string
	// BaseImages lists the FROM references in Dockerfile order.
	BaseImages []string
	// Files is the number of files that contributed to Hash.
	Files int

	platform  string
	qualifier string
}

// Stage validates the build context and fingerprints it.
func Stage(ctx context.Context, opts Options) (*Image, error) {
	log := opts.Logger
	if log == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		log = discard
	}
	if opts.Dockerfile == "" {
		opts.Dockerfile = "Dockerfile"
	}
	if opts.Qualifier == "" {
		opts.Qualifier = DefaultQualifier
	}

	info, err := os.Stat(opts.Dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNoImageDir, opts.Dir)
	}

	bases, err := parseDockerfile(filepath.Join(opts.Dir, opts.Dockerfile))
	if err != nil {
		return nil, err
	}
	log.WithField("base_images", strings.Join(bases, ",")).Debug("parsed dockerfile")

	fp, err := Fingerprint(ctx, opts.Dir, opts.Dockerfile, opts.Concurrency)
	if err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"dir":   opts.Dir,
		"files": fp.Files,
		"hash":  fp.Hash,
	}).Debug("fingerprinted image directory")

	return &Image{
		Hash:       fp.Hash,
		Dir:        opts.Dir,
		Dockerfile: opts.Dockerfile,
		BaseImages: bases,
		Files:      fp.Files,
		platform:   opts.Platform,
		qualifier:  opts.Qualifier,
	}, nil
}

func parseDockerfile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNoDockerfile, path)
	}
	defer f.Close()

	result, err := parser.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidDockerfile, path, err)
	}

	var bases []string
	for _, child := range result.AST.Children {
		if strings.ToUpper(child.Value) != "FROM" {
			continue
		}
		if child.Next != nil {
			bases = append(bases, child.Next.Value)
		}
	}
	if len(bases) == 0 {
		return nil, fmt.Errorf("%w: %s has no FROM instruction", ErrInvalidDockerfile, path)
	}
	return bases, nil
}

// RepositoryName returns the ECR repository the image is published to, with
// account and region left as Fn::Sub placeholders.
func (img *Image) RepositoryName() string {
	return fmt.Sprintf("cdk-%s-container-assets-${AWS::AccountId}-${AWS::Region}", img.qualifier)
}

// URI returns the image reference for Code.ImageUri.
func (img *Image) URI() intrinsics.Sub {
	return intrinsics.Sub{
		String: fmt.Sprintf("${AWS::AccountId}.dkr.ecr.${AWS::Region}.${AWS::URLSuffix}/%s:%s", img.RepositoryName(), img.Hash),
	}
}

// Manifest returns the asset manifest entry for this image.
func (img *Image) Manifest() satfetch.AssetManifest {
	return img.manifest(img.Dir)
}

// ManifestAt returns the manifest to be written into manifestDir, with the
// source directory relative to it as publishers resolve it.
func (img *Image) ManifestAt(manifestDir string) (satfetch.AssetManifest, error) {
	base, err := filepath.Abs(manifestDir)
	if err != nil {
		return satfetch.AssetManifest{}, err
	}
	src, err := filepath.Abs(img.Dir)
	if err != nil {
		return satfetch.AssetManifest{}, err
	}
	rel, err := filepath.Rel(base, src)
	if err != nil {
		return satfetch.AssetManifest{}, fmt.Errorf("locating %s from %s: %w", img.Dir, manifestDir, err)
	}
	return img.manifest(filepath.ToSlash(rel)), nil
}

func (img *Image) manifest(dir string) satfetch.AssetManifest {
	return satfetch.AssetManifest{
		Version: ManifestVersion,
		DockerImages: map[string]satfetch.DockerImageAsset{
			img.Hash: {
				Source: satfetch.DockerImageSource{
					Directory:  dir,
					DockerFile: img.Dockerfile,
					Platform:   img.platform,
				},
				Destinations: map[string]satfetch.DockerImageAssetDestination{
					DestinationID: {
						RepositoryName: img.RepositoryName(),
						ImageTag:       img.Hash,
						AssumeRoleArn:  fmt.Sprintf("arn:${AWS::Partition}:iam::${AWS::AccountId}:role/cdk-%s-image-publishing-role-${AWS::AccountId}-${AWS::Region}", img.qualifier),
					},
				},
			},
		},
	}
}
