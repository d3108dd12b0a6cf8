package retrieval

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"

	"github.com/nexconsult/registry-api/internal/utils"
)

// SessionOptions carries the per-call HTTP settings threaded through a retrieval
type SessionOptions struct {
	UserAgent          string
	RequestTimeout     time.Duration
	InsecureSkipVerify bool
	Limiter            *rate.Limiter
}

// Session is the state of one identifier's retrieval: a private cookie jar,
// the hidden fields of the latest form fetch and the attempt counter.
// Sessions are never shared between identifiers.
type Session struct {
	ID       string
	Document utils.DocumentInfo
	Site     *SiteConfig
	Attempts int

	fields  map[string]string
	pageURL *url.URL
	jar     http.CookieJar
	http    *resty.Client
}

// page is a fetched and parsed HTML response
type page struct {
	status int
	url    *url.URL
	doc    *goquery.Document
}

// NewSession creates a fresh session for one identifier against one site
func NewSession(doc utils.DocumentInfo, site *SiteConfig, opts SessionOptions) (*Session, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	client := resty.New()
	client.SetCookieJar(jar)
	if opts.UserAgent != "" {
		client.SetHeader("User-Agent", opts.UserAgent)
	}
	for _, h := range site.Headers {
		client.SetHeader(h.Name, h.Value)
	}
	if opts.RequestTimeout > 0 {
		client.SetTimeout(opts.RequestTimeout)
	}
	if site.InsecureSkipVerify || opts.InsecureSkipVerify {
		client.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	if opts.Limiter != nil {
		limiter := opts.Limiter
		client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return limiter.Wait(req.Context())
		})
	}

	return &Session{
		ID:       uuid.NewString(),
		Document: doc,
		Site:     site,
		fields:   map[string]string{},
		jar:      jar,
		http:     client,
	}, nil
}

// Fields returns a copy of the hidden fields from the latest form fetch
func (s *Session) Fields() map[string]string {
	out := make(map[string]string, len(s.fields))
	for k, v := range s.fields {
		out[k] = v
	}
	return out
}

// SeedCookies adds cookies obtained elsewhere (a browser warm-up) to the jar
func (s *Session) SeedCookies(target string, cookies []*http.Cookie) error {
	u, err := url.Parse(target)
	if err != nil {
		return err
	}
	s.jar.SetCookies(u, cookies)
	return nil
}

func (s *Session) identifier() string {
	if s.Site.SendFormatted {
		return s.Document.Formatted
	}
	return s.Document.Digits
}

// fetchForm loads the query page and replaces the hidden field map with the
// fields found on it. Nothing from a previous attempt survives.
func (s *Session) fetchForm(ctx context.Context) (*page, error) {
	params := map[string]string{}
	for _, p := range s.Site.StaticParams {
		params[p.Name] = p.Value
	}
	if s.Site.PrefillIdentifier {
		params[s.Site.IdentifierField] = s.identifier()
	}

	pg, err := s.get(ctx, s.Site.FormURL, params)
	if err != nil {
		return nil, err
	}
	if err := checkStatus(pg.status); err != nil {
		return nil, err
	}

	fields := map[string]string{}
	pg.doc.Find(s.Site.FieldSelector).Each(func(_ int, sel *goquery.Selection) {
		name, ok := sel.Attr("name")
		if !ok || name == "" {
			return
		}
		fields[name] = sel.AttrOr("value", "")
	})

	s.fields = fields
	s.pageURL = pg.url
	return pg, nil
}

// captchaImage returns the captcha bytes referenced by the form page
func (s *Session) captchaImage(ctx context.Context, form *page) ([]byte, error) {
	if s.Site.CaptchaImageSelector != "" {
		src, ok := form.doc.Find(s.Site.CaptchaImageSelector).First().Attr("src")
		if !ok || src == "" {
			return nil, fmt.Errorf("%w: captcha image not found", ErrUnexpectedResponse)
		}
		if strings.HasPrefix(src, "data:") {
			return decodeDataURI(src)
		}
		ref, err := url.Parse(src)
		if err != nil {
			return nil, fmt.Errorf("%w: bad captcha src: %v", ErrUnexpectedResponse, err)
		}
		return s.getBytes(ctx, form.url.ResolveReference(ref).String())
	}

	token := s.fields[s.Site.CaptchaTokenField]
	if token == "" {
		return nil, fmt.Errorf("%w: captcha token field %q missing", ErrUnexpectedResponse, s.Site.CaptchaTokenField)
	}
	return s.getBytes(ctx, strings.ReplaceAll(s.Site.CaptchaURLTemplate, "{token}", url.PathEscape(token)))
}

// submit sends the merged field map plus the identifier
func (s *Session) submit(ctx context.Context, answer string) (*page, error) {
	params := s.Fields()
	for _, p := range s.Site.StaticParams {
		params[p.Name] = p.Value
	}
	params[s.Site.IdentifierField] = s.identifier()
	if s.Site.HasCaptcha() {
		params[s.Site.CaptchaAnswerField] = answer
	}

	target := s.Site.submitURL()
	if s.pageURL != nil {
		if ref, err := url.Parse(target); err == nil {
			target = s.pageURL.ResolveReference(ref).String()
		}
	}

	if s.Site.Method == http.MethodPost {
		req := s.http.R().SetContext(ctx).SetFormData(params)
		return s.do(ctx, req, http.MethodPost, target)
	}
	return s.get(ctx, target, params)
}

func (s *Session) get(ctx context.Context, target string, params map[string]string) (*page, error) {
	req := s.http.R().SetContext(ctx)
	if len(params) > 0 {
		req.SetQueryParams(params)
	}
	return s.do(ctx, req, http.MethodGet, target)
}

func (s *Session) do(ctx context.Context, req *resty.Request, method, target string) (*page, error) {
	res, err := req.Execute(method, target)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %s %s: %v", ErrUpstreamUnavailable, method, target, err)
	}

	if res.StatusCode() >= 500 {
		return nil, checkStatus(res.StatusCode())
	}

	finalURL := res.RawResponse.Request.URL
	doc, err := parseDocument(res.Body(), res.Header().Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
	}

	return &page{status: res.StatusCode(), url: finalURL, doc: doc}, nil
}

func (s *Session) getBytes(ctx context.Context, target string) ([]byte, error) {
	res, err := s.http.R().SetContext(ctx).Get(target)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: GET %s: %v", ErrUpstreamUnavailable, target, err)
	}
	if err := checkStatus(res.StatusCode()); err != nil {
		return nil, err
	}
	return res.Body(), nil
}

func checkStatus(status int) error {
	switch {
	case status >= 500:
		return fmt.Errorf("%w: status %d", ErrUpstreamUnavailable, status)
	case status < 200 || status >= 300:
		return fmt.Errorf("%w: status %d", ErrUnexpectedResponse, status)
	}
	return nil
}

// parseDocument decodes legacy charsets before handing the body to goquery.
// An empty body is an empty document.
func parseDocument(body []byte, contentType string) (*goquery.Document, error) {
	if len(body) == 0 {
		return goquery.NewDocumentFromReader(bytes.NewReader(body))
	}
	reader, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to detect charset: %w", err)
	}
	return goquery.NewDocumentFromReader(reader)
}

func decodeDataURI(uri string) ([]byte, error) {
	header, data, ok := strings.Cut(uri, ",")
	if !ok {
		return nil, fmt.Errorf("%w: malformed data uri", ErrUnexpectedResponse)
	}
	if !strings.HasSuffix(header, ";base64") {
		return nil, fmt.Errorf("%w: data uri is not base64", ErrUnexpectedResponse)
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(data))
	if err != nil {
		return nil, errors.Join(ErrUnexpectedResponse, err)
	}
	return raw, nil
}
