package mcpserver

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/pantry/internal/storage"
)

const maxPageSize = 5 << 20 // 5 MB

var safeSegmentRe = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

type importResult struct {
	Path    string `json:"path"`
	Records int    `json:"records"`
}

func (s *Server) importPage(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rawURL, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var data []byte
	if strings.HasPrefix(rawURL, "data:") {
		data, err = decodeDataURI(rawURL)
	} else {
		data, err = fetchHTTP(rawURL)
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !looksLikeHTML(data) {
		return mcp.NewToolResultError(fmt.Sprintf("content is not HTML (detected: %s)", http.DetectContentType(data))), nil
	}

	savePath := sanitizePagePath(req.GetString("path", ""))
	if savePath == "" {
		savePath = pathFromURL(rawURL)
	}
	if !storage.IsPage(savePath) {
		return mcp.NewToolResultError(fmt.Sprintf("path must end with .html: %s", savePath)), nil
	}
	if _, readErr := s.store.Read(savePath); readErr == nil {
		return mcp.NewToolResultError(fmt.Sprintf("page already exists: %s", savePath)), nil
	}

	if err := s.store.Write(savePath, data); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to save page: %v", err)), nil
	}
	n, err := s.ix.Capture(savePath)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("saved %s but capture failed: %v", savePath, err)), nil
	}

	out, _ := json.Marshal(importResult{Path: savePath, Records: n})
	return mcp.NewToolResultText(string(out)), nil
}

// decodeDataURI parses a data:text/html;base64,<data> URI.
func decodeDataURI(uri string) ([]byte, error) {
	rest := strings.TrimPrefix(uri, "data:")
	commaIdx := strings.Index(rest, ",")
	if commaIdx < 0 {
		return nil, fmt.Errorf("invalid data URI: missing comma separator")
	}

	meta := rest[:commaIdx]
	encoded := rest[commaIdx+1:]

	if !strings.Contains(meta, ";base64") {
		return nil, fmt.Errorf("only base64 data URIs are supported")
	}
	if mime := strings.Split(strings.TrimSuffix(meta, ";base64"), ";")[0]; mime != "text/html" {
		return nil, fmt.Errorf("unsupported MIME type in data URI: %s", mime)
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("invalid base64 data: %w", err)
		}
	}
	if len(data) > maxPageSize {
		return nil, fmt.Errorf("page too large: %d bytes (max %d)", len(data), maxPageSize)
	}
	return data, nil
}

// fetchHTTP downloads a page from an HTTP/HTTPS URL with security checks.
func fetchHTTP(rawURL string) ([]byte, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme: %s (only http/https)", parsed.Scheme)
	}
	if err := checkBlockedHost(parsed.Hostname()); err != nil {
		return nil, err
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 5 {
				return fmt.Errorf("too many redirects (max 5)")
			}
			return checkBlockedHost(req.URL.Hostname())
		},
	}

	resp, err := client.Get(rawURL) //nolint:noctx
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download failed: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPageSize+1))
	if err != nil {
		return nil, fmt.Errorf("read body failed: %w", err)
	}
	if len(data) > maxPageSize {
		return nil, fmt.Errorf("page too large: exceeds %d bytes", maxPageSize)
	}
	return data, nil
}

// checkBlockedHost rejects hosts that resolve to loopback, private,
// link-local or unspecified addresses, and cloud metadata names. Every
// resolved address must be public.
func checkBlockedHost(host string) error {
	if host == "metadata.google.internal" {
		return fmt.Errorf("blocked host: %s", host)
	}

	ips := []net.IP{net.ParseIP(host)}
	if ips[0] == nil {
		resolved, lookupErr := net.LookupIP(host)
		if lookupErr != nil || len(resolved) == 0 {
			return nil //nolint:nilerr // let http.Client handle DNS failures
		}
		ips = resolved
	}

	for _, ip := range ips {
		if blockedIP(ip) {
			return fmt.Errorf("blocked host: %s resolves to non-public address %s", host, ip)
		}
	}
	return nil
}

func blockedIP(ip net.IP) bool {
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() || ip.IsUnspecified()
}

func looksLikeHTML(data []byte) bool {
	return strings.HasPrefix(http.DetectContentType(data), "text/html")
}

// pathFromURL derives a page file name from a URL, falling back to a UUID.
func pathFromURL(rawURL string) string {
	if !strings.HasPrefix(rawURL, "data:") {
		if parsed, err := url.Parse(rawURL); err == nil {
			base := sanitizePagePath(path.Base(parsed.Path))
			if storage.IsPage(base) {
				return base
			}
			if base != "" && base != "." && base != "_" {
				return base + ".html"
			}
		}
	}
	return uuid.NewString() + ".html"
}

// sanitizePagePath keeps forward-slash separated segments and replaces unsafe
// characters. Empty, dot and dot-dot segments are dropped.
func sanitizePagePath(p string) string {
	var segs []string
	for _, seg := range strings.Split(p, "/") {
		if seg == "" || seg == "." || seg == ".." {
			continue
		}
		segs = append(segs, safeSegmentRe.ReplaceAllString(seg, "_"))
	}
	return strings.Join(segs, "/")
}
