package onenote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/beevik/etree"

	"github.com/foomo/onenote-mcp/hierarchy"
)

// Client talks to the automation bridge exposing the host application over
// HTTP. It holds one bridge session, acquired by Connect and released by
// Close; all calls are blocking round-trips with no retry logic.
type Client struct {
	baseURL    string
	httpClient *http.Client
	sessionID  string
}

var _ Host = &Client{}

type sessionResponse struct {
	SessionID string `json:"sessionId"`
}

// Connect acquires a bridge session. The returned client must be released
// with Close on all exit paths.
func Connect(ctx context.Context, baseURL string, httpClient *http.Client) (*Client, error) {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
	body, err := c.do(ctx, http.MethodPost, "/session", "")
	if err != nil {
		return nil, fmt.Errorf("failed to open host session: %w", err)
	}
	var session sessionResponse
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, fmt.Errorf("failed to decode session response: %w", err)
	}
	if session.SessionID == "" {
		return nil, fmt.Errorf("host returned an empty session id")
	}
	c.sessionID = session.SessionID
	return c, nil
}

// Close releases the bridge session. A release failure is returned, never
// swallowed; the caller decides how loudly to report it.
func (c *Client) Close(ctx context.Context) error {
	if c.sessionID == "" {
		return nil
	}
	_, err := c.do(ctx, http.MethodDelete, "/session/"+url.PathEscape(c.sessionID), "")
	c.sessionID = ""
	if err != nil {
		return fmt.Errorf("failed to release host session: %w", err)
	}
	return nil
}

func (c *Client) FetchHierarchy(ctx context.Context, scope hierarchy.Scope, startNodeID string) (string, error) {
	query := url.Values{}
	query.Set("scope", scope.String())
	if startNodeID != "" {
		query.Set("start", startNodeID)
	}
	body, err := c.do(ctx, http.MethodGet, "/hierarchy?"+query.Encode(), "")
	if err != nil {
		return "", fmt.Errorf("failed to fetch hierarchy: %w", err)
	}
	return string(body), nil
}

func (c *Client) FetchPageContent(ctx context.Context, pageID string) (string, error) {
	body, err := c.do(ctx, http.MethodGet, "/pages/"+url.PathEscape(pageID), "")
	if err != nil {
		return "", fmt.Errorf("failed to fetch page content: %w", err)
	}
	return string(body), nil
}

func (c *Client) PersistPageContent(ctx context.Context, rawContent string) error {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(rawContent); err != nil {
		return fmt.Errorf("failed to persist page content: %w", err)
	}
	root := doc.Root()
	if root == nil || root.SelectAttrValue("ID", "") == "" {
		return fmt.Errorf("failed to persist page content: content has no page ID")
	}
	path := "/pages/" + url.PathEscape(root.SelectAttrValue("ID", ""))
	if _, err := c.do(ctx, http.MethodPut, path, rawContent); err != nil {
		return fmt.Errorf("failed to persist page content: %w", err)
	}
	return nil
}

func (c *Client) ResolveLinkTarget(ctx context.Context, pageID, elementID string) (string, error) {
	path := "/pages/" + url.PathEscape(pageID) + "/links/" + url.PathEscape(elementID)
	body, err := c.do(ctx, http.MethodGet, path, "")
	if err != nil {
		return "", fmt.Errorf("failed to resolve link target: %w", err)
	}
	return strings.TrimSpace(string(body)), nil
}

func (c *Client) do(ctx context.Context, method, path, body string) ([]byte, error) {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/xml")
	}
	if c.sessionID != "" {
		req.Header.Set("X-OneNote-Session", c.sessionID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("host request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%s %s: %w", method, path, ErrNodeNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("host request %s %s failed with status: %d", method, path, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return data, nil
}
