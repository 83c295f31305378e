package stack

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/sirupsen/logrus"

	satfetch "github.com/lex00/satellite-fetcher-aws-go"
	"github.com/lex00/satellite-fetcher-aws-go/internal/asset"
	"github.com/lex00/satellite-fetcher-aws-go/internal/config"
)

// Logical IDs and output names of the satellite fetcher stack.
const (
	UnitID              = "DockerFunc"
	EndpointID          = "DockerFuncFunctionUrl"
	OutputFunctionURL   = "FunctionUrl"
	OutputAPIGatewayURL = "ApiGatewayUrl"
)

// Satellite is the assembled satellite fetcher stack.
type Satellite struct {
	Stack    *Stack
	Unit     *DeployableUnit
	Endpoint *InvocationEndpoint
	Gateway  *RoutedGateway
}

// NewSatellite assembles the stack from configuration. imageRef is the
// function's image URI, normally asset.Image.URI().
func NewSatellite(cfg *config.Config, imageRef any) (*Satellite, error) {
	env, err := cfg.FunctionEnvironment()
	if err != nil {
		return nil, err
	}

	s := New(cfg.Stack.Name, cfg.Stack.Description)

	unit, err := NewDeployableUnit(s, UnitID, DeployableUnitSpec{
		ImageReference:      imageRef,
		MemoryLimitMB:       cfg.Function.MemoryMB,
		TimeoutSeconds:      cfg.Function.TimeoutSeconds,
		Architecture:        Architecture(cfg.Function.Architecture),
		Environment:         env,
		ReservedConcurrency: cfg.Function.ReservedConcurrency,
	})
	if err != nil {
		return nil, err
	}

	endpoint, err := NewInvocationEndpoint(s, EndpointID, unit, InvocationEndpointSpec{
		AuthMode:       AuthMode(cfg.Endpoint.AuthMode),
		AllowedMethods: cfg.Endpoint.AllowedMethods,
		AllowedHeaders: cfg.Endpoint.AllowedHeaders,
		AllowedOrigins: cfg.Endpoint.AllowedOrigins,
	})
	if err != nil {
		return nil, err
	}

	routes := make([]Route, 0, len(cfg.Gateway.Routes))
	for _, r := range cfg.Gateway.Routes {
		routes = append(routes, Route{PathPart: r.Path, Method: r.Method})
	}
	gateway, err := NewRoutedGateway(s, logicalID(cfg.Gateway.Name), unit, GatewaySpec{
		Name:                 cfg.Gateway.Name,
		Description:          cfg.Gateway.Description,
		StageName:            cfg.Gateway.StageName,
		Routes:               routes,
		ThrottlingRateLimit:  cfg.Gateway.ThrottlingRateLimit,
		ThrottlingBurstLimit: cfg.Gateway.ThrottlingBurstLimit,
	})
	if err != nil {
		return nil, err
	}

	if err := s.AddOutput(OutputFunctionURL, satfetch.Output{
		Description: "Direct function URL",
		Value:       endpoint.URL(),
		Export:      outputExport(cfg.Stack.ExportPrefix, OutputFunctionURL),
	}); err != nil {
		return nil, err
	}
	if err := s.AddOutput(OutputAPIGatewayURL, satfetch.Output{
		Description: "REST API base URL",
		Value:       gateway.URL(),
		Export:      outputExport(cfg.Stack.ExportPrefix, OutputAPIGatewayURL),
	}); err != nil {
		return nil, err
	}

	return &Satellite{Stack: s, Unit: unit, Endpoint: endpoint, Gateway: gateway}, nil
}

// outputExport names the export for an output, or returns nil when exports
// are disabled.
func outputExport(prefix, output string) *satfetch.OutputExport {
	if prefix == "" {
		return nil
	}
	return &satfetch.OutputExport{Name: prefix + "-" + output}
}

// Result is a synthesized stack together with its image asset.
type Result struct {
	Satellite *Satellite
	Template  *satfetch.Template
	Image     *asset.Image
}

// Synthesize stages the image directory named in cfg, assembles the stack
// and builds the template.
func Synthesize(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (*Result, error) {
	img, err := asset.Stage(ctx, asset.Options{
		Dir:        cfg.Image.Path,
		Dockerfile: cfg.Image.Dockerfile,
		Platform:   cfg.Image.Platform,
		Qualifier:  cfg.Assets.Qualifier,
		Logger:     log,
	})
	if err != nil {
		return nil, fmt.Errorf("staging image %s: %w", filepath.Clean(cfg.Image.Path), err)
	}

	sat, err := NewSatellite(cfg, img.URI())
	if err != nil {
		return nil, err
	}

	t, err := sat.Stack.Synth()
	if err != nil {
		return nil, err
	}

	if log != nil {
		log.WithFields(logrus.Fields{
			"stack":     sat.Stack.Name(),
			"resources": len(t.Resources),
			"image":     img.Hash[:12],
		}).Debug("synthesized template")
	}

	return &Result{Satellite: sat, Template: t, Image: img}, nil
}
