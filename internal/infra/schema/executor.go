package schema

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/FlowMCP/flowmcp-cli-sub000/internal/buildinfo"
	"github.com/FlowMCP/flowmcp-cli-sub000/internal/domain"
	"github.com/FlowMCP/flowmcp-cli-sub000/internal/infra/telemetry"
)

// Executor performs one route invocation over HTTP. Validation problems
// and upstream HTTP failures are reported inside the InvokeResult; a
// non-nil error means the request could not be carried out at all.
type Executor struct {
	logger  *zap.Logger
	client  *http.Client
	metrics domain.Metrics
}

func NewExecutor(logger *zap.Logger, timeout time.Duration, metrics domain.Metrics) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = domain.DefaultInvokeTimeoutSeconds * time.Second
	}
	if metrics == nil {
		metrics = telemetry.NewNoopMetrics()
	}
	return &Executor{
		logger:  logger.Named("executor"),
		client:  &http.Client{Timeout: timeout},
		metrics: metrics,
	}
}

func (e *Executor) Invoke(ctx context.Context, doc *domain.SchemaDoc, routeName string, userParams map[string]any, serverParams map[string]string) (*domain.InvokeResult, error) {
	logger := e.logger.With(zap.String("operation", uuid.NewString()))
	route, ok := doc.Routes[routeName]
	if !ok {
		return nil, domain.E(domain.CodeNotFound, "schema.Invoke",
			fmt.Sprintf("route %q in namespace %s", routeName, doc.Namespace), domain.ErrRouteNotFound).
			WithHint("run `flowmcp tools` to list available routes")
	}

	var messages []string
	for _, name := range doc.RequiredServerParams {
		if _, ok := serverParams[name]; !ok {
			messages = append(messages, fmt.Sprintf(
				"missing server param %s: set serverParams.%s in config.yaml or export FLOWMCP_%s", name, name, name))
		}
	}
	resolved, resolveMessages := CompileParams(route).Resolve(userParams)
	messages = append(messages, resolveMessages...)
	if len(messages) > 0 {
		return &domain.InvokeResult{OK: false, Messages: messages}, nil
	}

	requestURL, err := e.buildURL(doc, route, resolved, serverParams)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if len(resolved.Body) > 0 {
		raw, err := json.Marshal(resolved.Body)
		if err != nil {
			return nil, domain.E(domain.CodeInternal, "schema.Invoke", "marshal request body", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, strings.ToUpper(route.Method), requestURL, body)
	if err != nil {
		return nil, domain.E(domain.CodeInvalidArgument, "schema.Invoke",
			fmt.Sprintf("build request for %s", routeName), err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "flowmcp/"+buildinfo.Version)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for name, value := range doc.Headers {
		req.Header.Set(name, substitute(value, serverParams))
	}
	for name, value := range resolved.Header {
		req.Header.Set(name, value)
	}

	start := time.Now()
	resp, err := e.client.Do(req)
	e.metrics.ObserveInvoke(doc.Namespace, time.Since(start), err)
	if err != nil {
		return nil, domain.E(domain.CodeFetchFailed, "schema.Invoke",
			fmt.Sprintf("%s %s", route.Method, routeName), err).
			WithHint("check network connectivity and the schema's root URL")
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.E(domain.CodeFetchFailed, "schema.Invoke",
			fmt.Sprintf("read response for %s", routeName), err)
	}

	logger.Debug("route invoked",
		zap.String("namespace", doc.Namespace),
		zap.String("route", routeName),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(raw)))

	result := &domain.InvokeResult{Status: resp.StatusCode}
	if resp.StatusCode >= http.StatusBadRequest {
		result.Messages = []string{
			fmt.Sprintf("upstream returned HTTP %d", resp.StatusCode),
			bodySnippet(raw),
		}
		return result, nil
	}

	result.OK = true
	result.Data = asJSON(raw)
	return result, nil
}

// buildURL joins the document root and the route path, fills path
// placeholders and appends the query. Server params are substituted into
// the root so API keys embedded there never appear in schema files.
func (e *Executor) buildURL(doc *domain.SchemaDoc, route domain.RouteSpec, resolved *ResolvedParams, serverParams map[string]string) (string, error) {
	root := substitute(doc.Root, serverParams)
	routePath := route.Path
	for name, value := range resolved.Path {
		routePath = strings.ReplaceAll(routePath, "{"+name+"}", url.PathEscape(value))
	}

	full := strings.TrimSuffix(root, "/") + routePath
	if strings.Contains(full, "{{") {
		return "", domain.E(domain.CodeInvalidArgument, "schema.Invoke",
			fmt.Sprintf("unresolved server param placeholder in %s", redact(full, serverParams)), nil).
			WithHint("declare the placeholder under requiredServerParams and set it in config.yaml")
	}

	parsed, err := url.Parse(full)
	if err != nil {
		return "", domain.E(domain.CodeInvalidArgument, "schema.Invoke",
			fmt.Sprintf("invalid route URL for %s", route.Path), err)
	}
	query := parsed.Query()
	for name, values := range resolved.Query {
		for _, value := range values {
			query.Set(name, substitute(value, serverParams))
		}
	}
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

// substitute replaces {{NAME}} markers with server param values.
func substitute(s string, serverParams map[string]string) string {
	if !strings.Contains(s, "{{") {
		return s
	}
	for name, value := range serverParams {
		s = strings.ReplaceAll(s, "{{"+name+"}}", value)
	}
	return s
}

// redact masks server param values so they never leak into error text.
func redact(s string, serverParams map[string]string) string {
	for _, value := range serverParams {
		if value != "" {
			s = strings.ReplaceAll(s, value, "***")
		}
	}
	return s
}

func bodySnippet(raw []byte) string {
	const max = 256
	s := strings.TrimSpace(string(raw))
	if len(s) > max {
		s = s[:max] + "..."
	}
	return s
}

// asJSON passes JSON responses through untouched and wraps anything else
// as a JSON string so InvokeResult.Data always holds valid JSON.
func asJSON(raw []byte) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return json.RawMessage("null")
	}
	if json.Valid(trimmed) {
		return json.RawMessage(trimmed)
	}
	quoted, err := json.Marshal(string(raw))
	if err != nil {
		return json.RawMessage("null")
	}
	return json.RawMessage(quoted)
}
