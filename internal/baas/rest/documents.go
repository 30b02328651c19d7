package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"portfolio-backend/internal/baas"
)

func (c *Client) CreateDocument(ctx context.Context, collectionID, documentID string, data map[string]any) (*baas.Document, error) {
	if documentID == "" {
		documentID = baas.UniqueID
	}
	req := map[string]any{
		"documentId": documentID,
		"data":       data,
	}
	var raw map[string]any
	if err := c.do(ctx, http.MethodPost, c.documentsPath(collectionID), nil, req, &raw); err != nil {
		return nil, err
	}
	return decodeDocument(collectionID, raw)
}

func (c *Client) GetDocument(ctx context.Context, collectionID, documentID string) (*baas.Document, error) {
	var raw map[string]any
	if err := c.do(ctx, http.MethodGet, c.documentPath(collectionID, documentID), nil, nil, &raw); err != nil {
		return nil, err
	}
	return decodeDocument(collectionID, raw)
}

func (c *Client) UpdateDocument(ctx context.Context, collectionID, documentID string, data map[string]any) (*baas.Document, error) {
	var raw map[string]any
	if err := c.do(ctx, http.MethodPatch, c.documentPath(collectionID, documentID), nil, map[string]any{"data": data}, &raw); err != nil {
		return nil, err
	}
	return decodeDocument(collectionID, raw)
}

func (c *Client) DeleteDocument(ctx context.Context, collectionID, documentID string) error {
	return c.do(ctx, http.MethodDelete, c.documentPath(collectionID, documentID), nil, nil, nil)
}

func (c *Client) ListDocuments(ctx context.Context, collectionID string, queries ...baas.Query) ([]*baas.Document, error) {
	params := url.Values{}
	for _, q := range queries {
		values := make([]any, len(q.Values))
		for i, v := range q.Values {
			values[i] = wireValue(v)
		}
		q.Values = values
		b, err := json.Marshal(q)
		if err != nil {
			return nil, err
		}
		params.Add("queries[]", string(b))
	}

	var list documentList
	if err := c.do(ctx, http.MethodGet, c.documentsPath(collectionID), params, nil, &list); err != nil {
		return nil, err
	}
	docs := make([]*baas.Document, 0, len(list.Documents))
	for _, raw := range list.Documents {
		doc, err := decodeDocument(collectionID, raw)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
