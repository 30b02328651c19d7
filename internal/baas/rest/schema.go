package rest

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"portfolio-backend/internal/baas"
	"portfolio-backend/internal/schema"
)

func (c *Client) GetCollection(ctx context.Context, id string) (*baas.Collection, error) {
	var body collectionBody
	if err := c.do(ctx, http.MethodGet, c.collectionPath(id), nil, nil, &body); err != nil {
		return nil, err
	}
	return body.toCollection()
}

func (c *Client) CreateCollection(ctx context.Context, id, name string, perms []schema.Permission, documentSecurity bool) (*baas.Collection, error) {
	req := map[string]any{
		"collectionId":     id,
		"name":             name,
		"permissions":      schema.PermissionStrings(perms),
		"documentSecurity": documentSecurity,
	}
	var body collectionBody
	if err := c.do(ctx, http.MethodPost, c.collectionsPath(), nil, req, &body); err != nil {
		return nil, err
	}
	return body.toCollection()
}

func (c *Client) UpdateCollection(ctx context.Context, id, name string, perms []schema.Permission, documentSecurity bool) (*baas.Collection, error) {
	req := map[string]any{
		"name":             name,
		"permissions":      schema.PermissionStrings(perms),
		"documentSecurity": documentSecurity,
	}
	var body collectionBody
	if err := c.do(ctx, http.MethodPut, c.collectionPath(id), nil, req, &body); err != nil {
		return nil, err
	}
	return body.toCollection()
}

func (c *Client) CreateAttribute(ctx context.Context, collectionID string, attr schema.AttributeSpec) (*baas.Attribute, error) {
	if !attr.Kind.Valid() {
		return nil, fmt.Errorf("attribute %s: unknown kind %s", attr.Key, attr.Kind)
	}
	kind, req := attributeRequest(attr)
	path := c.collectionPath(collectionID) + "/attributes/" + kind

	var body attributeBody
	if err := c.do(ctx, http.MethodPost, path, nil, req, &body); err != nil {
		return nil, err
	}
	return &baas.Attribute{
		CollectionID: collectionID,
		Key:          body.Key,
		Kind:         attr.Kind,
		Required:     body.Required,
		Array:        body.Array,
		Status:       body.Status,
	}, nil
}

func (c *Client) CreateIndex(ctx context.Context, collectionID string, idx schema.IndexSpec) (*baas.Index, error) {
	req := map[string]any{
		"key":        idx.Key,
		"type":       idx.Kind.String(),
		"attributes": idx.Attributes,
	}
	if len(idx.Orders) > 0 {
		req["orders"] = idx.Orders
	}
	var body indexBody
	if err := c.do(ctx, http.MethodPost, c.collectionPath(collectionID)+"/indexes", nil, req, &body); err != nil {
		return nil, err
	}
	return &baas.Index{
		CollectionID: collectionID,
		Key:          body.Key,
		Kind:         idx.Kind,
		Attributes:   body.Attributes,
		Status:       body.Status,
	}, nil
}

func (c *Client) documentsPath(collectionID string) string {
	return c.collectionPath(collectionID) + "/documents"
}

func (c *Client) documentPath(collectionID, documentID string) string {
	return c.documentsPath(collectionID) + "/" + url.PathEscape(documentID)
}
