// Package provision brings a backend's collections in line with their
// declared definitions. Runs are idempotent: a second run over an
// up-to-date backend only takes the "already exists" paths.
package provision

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"portfolio-backend/internal/baas"
	"portfolio-backend/internal/schema"
)

type Provisioner struct {
	client         baas.Schema
	log            *zap.Logger
	attributeDelay time.Duration
}

type Option func(*Provisioner)

func WithLogger(log *zap.Logger) Option {
	return func(p *Provisioner) {
		if log != nil {
			p.log = log
		}
	}
}

// WithAttributeDelay pauses between a collection's attributes and its
// indexes when any attribute was created. Hosted backends build attributes
// asynchronously and reject indexes over attributes that are not ready.
func WithAttributeDelay(d time.Duration) Option {
	return func(p *Provisioner) { p.attributeDelay = d }
}

func New(client baas.Schema, opts ...Option) *Provisioner {
	p := &Provisioner{client: client, log: zap.NewNop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// CollectionReport summarises what one Ensure call did.
type CollectionReport struct {
	ID                 string   `json:"id"`
	Created            bool     `json:"created"` // false means an existing collection was updated
	AttributesCreated  []string `json:"attributes_created"`
	AttributesExisting []string `json:"attributes_existing"`
	IndexesCreated     []string `json:"indexes_created"`
	IndexesExisting    []string `json:"indexes_existing"`
}

type Report struct {
	Collections []CollectionReport `json:"collections"`
}

// Run validates every definition, then ensures them one after another in
// the given order. The first fatal error stops the run; the report covers
// the collections finished before it.
func (p *Provisioner) Run(ctx context.Context, defs ...schema.Definition) (*Report, error) {
	for i := range defs {
		if err := defs[i].Validate(); err != nil {
			return nil, err
		}
	}

	report := &Report{}
	for _, def := range defs {
		cr, err := p.Ensure(ctx, def)
		if err != nil {
			p.log.Error("provisioning failed", zap.String("collection", def.ID), zap.Error(err))
			return report, err
		}
		report.Collections = append(report.Collections, cr)
		p.log.Info("collection provisioned",
			zap.String("collection", cr.ID),
			zap.Bool("created", cr.Created),
			zap.Int("attributes_created", len(cr.AttributesCreated)),
			zap.Int("attributes_existing", len(cr.AttributesExisting)),
			zap.Int("indexes_created", len(cr.IndexesCreated)),
			zap.Int("indexes_existing", len(cr.IndexesExisting)),
		)
	}
	return report, nil
}

// Ensure provisions a single collection: create or update the collection,
// then every attribute, then every index. A Conflict on an attribute or
// index means it already exists and is skipped; any other error aborts.
func (p *Provisioner) Ensure(ctx context.Context, def schema.Definition) (CollectionReport, error) {
	cr := CollectionReport{ID: def.ID}

	_, err := p.client.GetCollection(ctx, def.ID)
	switch {
	case err == nil:
		if _, err := p.client.UpdateCollection(ctx, def.ID, def.Name, def.Permissions, def.DocumentSecurity); err != nil {
			return cr, fmt.Errorf("collection %s: update: %w", def.ID, err)
		}
	case baas.IsNotFound(err):
		if _, err := p.client.CreateCollection(ctx, def.ID, def.Name, def.Permissions, def.DocumentSecurity); err != nil {
			return cr, fmt.Errorf("collection %s: create: %w", def.ID, err)
		}
		cr.Created = true
	default:
		return cr, fmt.Errorf("collection %s: get: %w", def.ID, err)
	}

	for _, attr := range def.Attributes {
		_, err := p.client.CreateAttribute(ctx, def.ID, attr)
		switch {
		case err == nil:
			cr.AttributesCreated = append(cr.AttributesCreated, attr.Key)
		case baas.IsConflict(err):
			p.log.Info("attribute already exists", zap.String("collection", def.ID), zap.String("attribute", attr.Key))
			cr.AttributesExisting = append(cr.AttributesExisting, attr.Key)
		default:
			return cr, fmt.Errorf("collection %s: attribute %s: %w", def.ID, attr.Key, err)
		}
	}

	if len(cr.AttributesCreated) > 0 && len(def.Indexes) > 0 && p.attributeDelay > 0 {
		select {
		case <-ctx.Done():
			return cr, fmt.Errorf("collection %s: %w", def.ID, ctx.Err())
		case <-time.After(p.attributeDelay):
		}
	}

	for _, idx := range def.Indexes {
		_, err := p.client.CreateIndex(ctx, def.ID, idx)
		switch {
		case err == nil:
			cr.IndexesCreated = append(cr.IndexesCreated, idx.Key)
		case baas.IsConflict(err):
			p.log.Info("index already exists", zap.String("collection", def.ID), zap.String("index", idx.Key))
			cr.IndexesExisting = append(cr.IndexesExisting, idx.Key)
		default:
			return cr, fmt.Errorf("collection %s: index %s: %w", def.ID, idx.Key, err)
		}
	}

	return cr, nil
}
