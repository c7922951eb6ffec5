package archiveapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/allenhsieh/archivebatcheditor-sub001/internal/services"
)

const (
	pathSearch          = "/api/search"
	pathUserItems       = "/api/user-items"
	pathUpdateMetadata  = "/api/update-metadata"
	pathSuggest         = "/api/youtube-suggest"
	pathMetadata        = "/api/metadata/"
	pathGetDescriptions = "/api/youtube/get-descriptions"
)

// Search runs a full-text archive search.
func (c *Client) Search(ctx context.Context, query string) (*ItemsResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, services.Wrap(services.ErrValidation, "", pathSearch, "query must not be empty", nil)
	}
	var out ItemsResponse
	if err := c.doJSON(ctx, http.MethodGet, pathSearch, url.Values{"q": {query}}, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UserItems lists the authenticated uploader's items. refresh bypasses the
// server-side cache.
func (c *Client) UserItems(ctx context.Context, refresh bool) (*ItemsResponse, error) {
	var query url.Values
	if refresh {
		query = url.Values{"refresh": {"true"}}
	}
	var out ItemsResponse
	if err := c.doJSON(ctx, http.MethodGet, pathUserItems, query, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateMetadata applies updates to every listed identifier.
func (c *Client) UpdateMetadata(ctx context.Context, identifiers []string, updates []MetadataUpdate) (*UpdateMetadataResponse, error) {
	if len(identifiers) == 0 || len(updates) == 0 {
		return nil, services.Wrap(services.ErrValidation, "", pathUpdateMetadata, "items and updates required", nil)
	}
	for _, u := range updates {
		if !ValidOperation(u.Operation) {
			return nil, services.Wrap(services.ErrValidation, "", pathUpdateMetadata, fmt.Sprintf("field %s: operation %q not one of add|replace|remove", u.Field, u.Operation), nil)
		}
	}
	var out UpdateMetadataResponse
	req := UpdateMetadataRequest{Items: identifiers, Updates: updates}
	if err := c.doJSON(ctx, http.MethodPost, pathUpdateMetadata, nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Suggest asks the video host for matches. Unlike the other endpoints the
// error body is decoded too, so a quota flag on a 403 is visible to the
// caller alongside the *StatusError.
func (c *Client) Suggest(ctx context.Context, items []SuggestItem, refresh bool) (*SuggestResponse, error) {
	if len(items) == 0 {
		return nil, services.Wrap(services.ErrValidation, "", pathSuggest, "items required", nil)
	}
	var query url.Values
	if refresh {
		query = url.Values{"refresh": {"true"}}
	}
	resp, err := c.send(ctx, c.httpClient, http.MethodPost, pathSuggest, query, SuggestRequest{Items: items})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, services.Wrap(services.ErrNetwork, "", pathSuggest, "read response", err)
	}
	var out SuggestResponse
	decodeErr := json.Unmarshal(bytes.TrimSpace(body), &out)
	if !isSuccess(resp.StatusCode) {
		statusErr := &StatusError{Endpoint: pathSuggest, StatusCode: resp.StatusCode, Body: truncate(string(body))}
		if decodeErr != nil {
			return nil, services.Wrap(services.ErrNetwork, "", pathSuggest, "unexpected status", statusErr)
		}
		return &out, services.Wrap(services.ErrNetwork, "", pathSuggest, "unexpected status", statusErr)
	}
	if decodeErr != nil {
		return nil, services.Wrap(services.ErrNetwork, "", pathSuggest, "decode response", decodeErr)
	}
	return &out, nil
}

// Metadata fetches one item's metadata.
func (c *Client) Metadata(ctx context.Context, identifier string) (*ItemMetadata, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, services.Wrap(services.ErrValidation, "", pathMetadata, "identifier required", nil)
	}
	var out MetadataResponse
	if err := c.doJSON(ctx, http.MethodGet, pathMetadata+url.PathEscape(identifier), nil, nil, &out); err != nil {
		return nil, err
	}
	if out.Metadata.Identifier.String() == "" {
		out.Metadata.Identifier = Text(identifier)
	}
	return &out.Metadata, nil
}

// Descriptions fetches the current description of each video. The backend
// answers either {"descriptions": {...}} or the bare map.
func (c *Client) Descriptions(ctx context.Context, videoIDs []string) (map[string]string, error) {
	if len(videoIDs) == 0 {
		return map[string]string{}, nil
	}
	var raw json.RawMessage
	payload := map[string][]string{"videoIds": videoIDs}
	if err := c.doJSON(ctx, http.MethodPost, pathGetDescriptions, nil, payload, &raw); err != nil {
		return nil, err
	}
	var wrapped struct {
		Descriptions map[string]string `json:"descriptions"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Descriptions != nil {
		return wrapped.Descriptions, nil
	}
	bare := make(map[string]string)
	if err := json.Unmarshal(raw, &bare); err != nil {
		return nil, services.Wrap(services.ErrNetwork, "", pathGetDescriptions, "decode response", err)
	}
	return bare, nil
}

func truncate(body string) string {
	if len(body) > maxErrorBodyLen {
		return body[:maxErrorBodyLen]
	}
	return body
}
