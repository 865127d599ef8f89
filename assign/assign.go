// Copyright 2025 The Pickup Authors
// SPDX-License-Identifier: Apache-2.0

// Package assign runs the whole pipeline: resolve locations, split them into
// teams, estimate each team's distance and flag suspicious teams.
package assign

import (
	"context"

	"go.uber.org/zap"

	"github.com/treepickup/pickup/cluster"
	"github.com/treepickup/pickup/geocode"
	"github.com/treepickup/pickup/quality"
	"github.com/treepickup/pickup/spatial"
)

// Group is one team and the locations assigned to it, in input order.
type Group struct {
	Name      string                     `json:"name"`
	Locations []geocode.ResolvedLocation `json:"locations"`

	// Positions holds the 1-based input position of each location.
	Positions []int `json:"positions"`

	// DistanceKm is the minimum spanning tree estimate of the group: a lower
	// bound on any route through it, not a route length.
	DistanceKm float64           `json:"distance_km"`
	Warnings   []quality.Warning `json:"warnings,omitempty"`
}

// Coordinates returns the coordinates of the group's locations.
func (g Group) Coordinates() []spatial.Coordinate {
	coords := make([]spatial.Coordinate, len(g.Locations))
	for i, loc := range g.Locations {
		coords[i] = loc.Coordinate
	}

	return coords
}

// Result is the outcome of a run.
type Result struct {
	Groups []Group `json:"groups"`

	// Warnings holds every group warning, in group order, followed by the
	// warnings about the input as a whole.
	Warnings       []quality.Warning `json:"warnings,omitempty"`
	Seed           int64             `json:"seed"`
	TotalLocations int               `json:"total_locations"`
}

// TotalDistanceKm sums the estimates of all groups.
func (r *Result) TotalDistanceKm() float64 {
	var total float64
	for _, g := range r.Groups {
		total += g.DistanceKm
	}

	return total
}

// LocationResolver is implemented by *geocode.Resolver.
type LocationResolver interface {
	Resolve(ctx context.Context, inputs []string) ([]geocode.ResolvedLocation, error)
}

// Planner assigns locations to teams.
type Planner struct {
	resolver LocationResolver
	engine   *cluster.Engine
	seed     int64
	logger   *zap.Logger
}

// Option configures a Planner.
type Option func(*Planner)

// WithSeed sets the clustering seed.
func WithSeed(seed int64) Option {
	return func(p *Planner) {
		p.seed = seed
	}
}

// WithEngine replaces the clustering engine.
func WithEngine(e *cluster.Engine) Option {
	return func(p *Planner) {
		p.engine = e
	}
}

// WithLogger sets the logger. Defaults to zap.L().
func WithLogger(logger *zap.Logger) Option {
	return func(p *Planner) {
		p.logger = logger
	}
}

// NewPlanner creates a Planner. resolver may be nil when only
// AssignResolved is used.
func NewPlanner(resolver LocationResolver, opts ...Option) *Planner {
	p := &Planner{
		resolver: resolver,
		engine:   cluster.NewEngine(),
		seed:     cluster.DefaultSeed,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = zap.L()
	}

	if p.engine.Logger == nil {
		p.engine.Logger = p.logger
	}

	return p
}

// Assign resolves inputs and splits them into teams groups. The team count
// is checked before any location is resolved. Errors are fatal and no
// partial result is returned: *cluster.InvalidTeamCountError or
// *geocode.ResolutionError.
func (p *Planner) Assign(ctx context.Context, inputs []string, teams int) (*Result, error) {
	if err := cluster.CheckTeamCount(teams, len(inputs)); err != nil {
		return nil, err
	}

	locations, err := p.resolver.Resolve(ctx, inputs)
	if err != nil {
		return nil, err
	}

	return p.AssignResolved(locations, teams)
}

// AssignResolved splits already resolved locations into teams groups.
func (p *Planner) AssignResolved(locations []geocode.ResolvedLocation, teams int) (*Result, error) {
	coords := make([]spatial.Coordinate, len(locations))
	labels := make([]string, len(locations))

	for i, loc := range locations {
		coords[i] = loc.Coordinate
		labels[i] = loc.Label()
	}

	assignment, err := p.engine.Cluster(coords, teams, p.seed)
	if err != nil {
		return nil, err
	}

	names := TeamNames(teams)
	groups := make([]Group, teams)

	for g := range groups {
		groups[g].Name = names[g]
	}

	for i, g := range assignment {
		groups[g].Locations = append(groups[g].Locations, locations[i])
		groups[g].Positions = append(groups[g].Positions, i+1)
	}

	result := &Result{
		Groups:         groups,
		Seed:           p.seed,
		TotalLocations: len(locations),
	}

	for g := range groups {
		group := &groups[g]
		groupCoords := group.Coordinates()
		group.DistanceKm = spatial.EstimateMST(groupCoords)
		group.Warnings = quality.CheckGroup(group.Name, groupCoords, group.DistanceKm)
		result.Warnings = append(result.Warnings, group.Warnings...)

		p.logger.Debug("team assembled",
			zap.String("team", group.Name),
			zap.Int("locations", len(group.Locations)),
			zap.Float64("distance_km", group.DistanceKm),
			zap.Int("warnings", len(group.Warnings)))
	}

	result.Warnings = append(result.Warnings, quality.GlobalOutliers(labels, coords)...)

	return result, nil
}
