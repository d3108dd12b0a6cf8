package retrieval

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/spf13/viper"
)

// Table layouts understood by the assembler
const (
	// LayoutKeyValue reads each row as label cell followed by value cell
	LayoutKeyValue = "key-value"
	// LayoutHeaderRow reads the first row as labels and the second row as values
	LayoutHeaderRow = "header-row"
)

// Param is a name/value pair. Slices of pairs are used instead of maps so that
// case-sensitive names survive viper's key folding.
type Param struct {
	Name  string `mapstructure:"name" json:"name"`
	Value string `mapstructure:"value" json:"value"`
}

// Rename maps a raw field label to its canonical name
type Rename struct {
	From string `mapstructure:"from" json:"from"`
	To   string `mapstructure:"to" json:"to"`
}

// TableSpec describes one positional sub-table of a detail page
type TableSpec struct {
	Role    string   `mapstructure:"role" json:"role"`
	Index   int      `mapstructure:"index" json:"index"`
	Layout  string   `mapstructure:"layout" json:"layout"`
	MaxRows int      `mapstructure:"max_rows" json:"max_rows,omitempty"`
	Renames []Rename `mapstructure:"renames" json:"renames,omitempty"`
}

// SiteConfig holds every per-site constant the retrieval flow needs.
// Markup and marker strings live here so a site change is a config edit.
type SiteConfig struct {
	Name        string `mapstructure:"name" json:"name"`
	Description string `mapstructure:"description" json:"description"`

	// Form
	FormURL           string  `mapstructure:"form_url" json:"form_url"`
	SubmitURL         string  `mapstructure:"submit_url" json:"submit_url,omitempty"`
	Method            string  `mapstructure:"method" json:"method"`
	FieldSelector     string  `mapstructure:"field_selector" json:"field_selector"`
	IdentifierField   string  `mapstructure:"identifier_field" json:"identifier_field"`
	SendFormatted     bool    `mapstructure:"send_formatted" json:"send_formatted"`
	PrefillIdentifier bool    `mapstructure:"prefill_identifier" json:"prefill_identifier"`
	StaticParams      []Param `mapstructure:"static_params" json:"static_params,omitempty"`
	Headers           []Param `mapstructure:"headers" json:"headers,omitempty"`

	// Captcha; a site without an answer field has no captcha step
	CaptchaAnswerField   string `mapstructure:"captcha_answer_field" json:"captcha_answer_field,omitempty"`
	CaptchaTokenField    string `mapstructure:"captcha_token_field" json:"captcha_token_field,omitempty"`
	CaptchaURLTemplate   string `mapstructure:"captcha_url_template" json:"captcha_url_template,omitempty"`
	CaptchaImageSelector string `mapstructure:"captcha_image_selector" json:"captcha_image_selector,omitempty"`
	CaptchaThreshold     int    `mapstructure:"captcha_threshold" json:"captcha_threshold,omitempty"`

	// Response classification
	ErrorSelector    string   `mapstructure:"error_selector" json:"error_selector,omitempty"`
	NoRecordSelector string   `mapstructure:"no_record_selector" json:"no_record_selector,omitempty"`
	NoRecordPhrases  []string `mapstructure:"no_record_phrases" json:"no_record_phrases,omitempty"`
	SuccessSelector  string   `mapstructure:"success_selector" json:"success_selector,omitempty"`

	// Result assembly
	DetailLinkSelector string      `mapstructure:"detail_link_selector" json:"detail_link_selector,omitempty"`
	DetailBaseURL      string      `mapstructure:"detail_base_url" json:"detail_base_url,omitempty"`
	Tables             []TableSpec `mapstructure:"tables" json:"tables"`

	InsecureSkipVerify bool `mapstructure:"insecure_skip_verify" json:"insecure_skip_verify"`
	BrowserWarmup      bool `mapstructure:"browser_warmup" json:"browser_warmup"`
}

// HasCaptcha reports whether the form is gated by a captcha
func (s *SiteConfig) HasCaptcha() bool {
	return s.CaptchaAnswerField != ""
}

func (s *SiteConfig) submitURL() string {
	if s.SubmitURL != "" {
		return s.SubmitURL
	}
	return s.FormURL
}

func (s *SiteConfig) applyDefaults() {
	s.Method = strings.ToUpper(s.Method)
	if s.Method == "" {
		s.Method = http.MethodGet
	}
	if s.FieldSelector == "" {
		s.FieldSelector = "input[type=hidden]"
	}
	for i := range s.Tables {
		if s.Tables[i].Layout == "" {
			s.Tables[i].Layout = LayoutKeyValue
		}
	}
}

// Validate checks the definition is usable
func (s *SiteConfig) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("site name is required")
	}
	if s.FormURL == "" {
		return fmt.Errorf("site %s: form_url is required", s.Name)
	}
	if s.IdentifierField == "" {
		return fmt.Errorf("site %s: identifier_field is required", s.Name)
	}
	if s.Method != http.MethodGet && s.Method != http.MethodPost {
		return fmt.Errorf("site %s: unsupported method %q", s.Name, s.Method)
	}
	if s.HasCaptcha() && s.CaptchaImageSelector == "" && (s.CaptchaTokenField == "" || s.CaptchaURLTemplate == "") {
		return fmt.Errorf("site %s: captcha needs an image selector or a token field with url template", s.Name)
	}
	if s.CaptchaThreshold < 0 || s.CaptchaThreshold > 255 {
		return fmt.Errorf("site %s: captcha_threshold must be between 0 and 255", s.Name)
	}
	for _, t := range s.Tables {
		if t.Index < 0 {
			return fmt.Errorf("site %s: table %q has negative index", s.Name, t.Role)
		}
		if t.Layout != LayoutKeyValue && t.Layout != LayoutHeaderRow {
			return fmt.Errorf("site %s: table %q has unknown layout %q", s.Name, t.Role, t.Layout)
		}
	}
	return nil
}

// SIGEF returns the built-in definition for the INCRA land parcel registry
func SIGEF() *SiteConfig {
	site := &SiteConfig{
		Name:              "sigef",
		Description:       "INCRA SIGEF certified land parcels by CPF/CNPJ",
		FormURL:           "https://sigef.incra.gov.br/consultar/parcelas/",
		Method:            http.MethodGet,
		FieldSelector:     "input[name]",
		IdentifierField:   "cpf_cnpj",
		SendFormatted:     true,
		PrefillIdentifier: true,
		StaticParams: []Param{
			{Name: "pesquisa_avancada", Value: "True"},
		},
		Headers: []Param{
			{Name: "Accept", Value: "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"},
			{Name: "Accept-Language", Value: "pt-BR,pt;q=0.9,en-US;q=0.8,en;q=0.7"},
		},

		CaptchaAnswerField: "captcha_1",
		CaptchaTokenField:  "captcha_0",
		CaptchaURLTemplate: "https://sigef.incra.gov.br/captcha/image/{token}",
		CaptchaThreshold:   110,

		ErrorSelector:    "p.help-block.error",
		NoRecordSelector: "div.alert.alert-info.alert-block",
		NoRecordPhrases: []string{
			"nenhuma parcela",
			"não foram encontrad",
		},
		SuccessSelector: "a[title='Visualizar detalhes...'], table",

		DetailLinkSelector: "a[title='Visualizar detalhes...']",
		DetailBaseURL:      "https://sigef.incra.gov.br",
		Tables: []TableSpec{
			{Role: "parcel", Index: 4, Layout: LayoutHeaderRow},
			{Role: "certification", Index: 0, Layout: LayoutKeyValue, Renames: []Rename{
				{From: "Situação", To: "Situação da Certificação"},
			}},
			{Role: "registration", Index: 3, Layout: LayoutKeyValue, MaxRows: 5, Renames: []Rename{
				{From: "Situação", To: "Situação do Registro"},
				{From: "Denominação", To: "Nome da fazenda"},
			}},
			{Role: "holders", Index: 5, Layout: LayoutKeyValue},
		},

		InsecureSkipVerify: true,
	}
	site.applyDefaults()
	return site
}

// Registry is a read-only set of site definitions keyed by name
type Registry struct {
	sites map[string]*SiteConfig
}

// NewRegistry builds a registry, later definitions replacing earlier ones with the same name
func NewRegistry(sites ...*SiteConfig) (*Registry, error) {
	r := &Registry{sites: make(map[string]*SiteConfig, len(sites))}
	for _, s := range sites {
		s.applyDefaults()
		if err := s.Validate(); err != nil {
			return nil, err
		}
		r.sites[strings.ToLower(s.Name)] = s
	}
	return r, nil
}

// Get looks up a site by name
func (r *Registry) Get(name string) (*SiteConfig, error) {
	site, ok := r.sites[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSite, name)
	}
	return site, nil
}

// List returns the sites sorted by name
func (r *Registry) List() []*SiteConfig {
	out := make([]*SiteConfig, 0, len(r.sites))
	for _, s := range r.sites {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// LoadSites reads extra site definitions from a YAML, JSON or TOML file with a
// top level "sites" list.
func LoadSites(path string) ([]*SiteConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read sites file: %w", err)
	}

	var file struct {
		Sites []*SiteConfig `mapstructure:"sites"`
	}
	if err := v.Unmarshal(&file); err != nil {
		return nil, fmt.Errorf("failed to decode sites file: %w", err)
	}

	for _, s := range file.Sites {
		s.applyDefaults()
		if err := s.Validate(); err != nil {
			return nil, err
		}
	}
	return file.Sites, nil
}

// DefaultRegistry returns the built-in sites plus any defined in path
func DefaultRegistry(path string) (*Registry, error) {
	sites := []*SiteConfig{SIGEF()}
	if path != "" {
		extra, err := LoadSites(path)
		if err != nil {
			return nil, err
		}
		sites = append(sites, extra...)
	}
	return NewRegistry(sites...)
}
