package models

import (
	"time"

	"github.com/nexconsult/registry-api/internal/retrieval"
	"github.com/nexconsult/registry-api/internal/utils"
)

// DocumentResponse represents the validation of one CPF/CNPJ
type DocumentResponse struct {
	Input       string `json:"input" example:"058.287.937-05"`
	Digits      string `json:"digits,omitempty" example:"05828793705"`
	Kind        string `json:"kind" example:"CPF"`
	CheckDigits string `json:"check_digits,omitempty" example:"05"`
	Valid       bool   `json:"valid" example:"true"`
	Formatted   string `json:"formatted,omitempty" example:"058.287.937-05"`
	Region      string `json:"region,omitempty" example:"Rio de Janeiro e Espírito Santo"`
	Root        string `json:"root,omitempty" example:"11222333"`
	BranchType  string `json:"branch_type,omitempty" example:"MATRIZ"`
}

// NewDocumentResponse converts a validation result into its API shape
func NewDocumentResponse(info utils.DocumentInfo) DocumentResponse {
	return DocumentResponse{
		Input:       info.Original,
		Digits:      info.Digits,
		Kind:        string(info.Kind),
		CheckDigits: info.CheckDigits,
		Valid:       info.Valid,
		Formatted:   info.Formatted,
		Region:      info.Region,
		Root:        info.Root,
		BranchType:  info.BranchType,
	}
}

// ValidateRequest represents a request to validate several documents at once
type ValidateRequest struct {
	Documents []string `json:"documents" binding:"required,min=1,max=1000" example:"[\"05828793705\",\"11222333000181\"]"`
}

// ValidateResponse lists validation results in request order
type ValidateResponse struct {
	Results []DocumentResponse `json:"results"`
	Total   int                `json:"total" example:"2"`
	Valid   int                `json:"valid" example:"2"`
}

// SiteInfo describes a configured registry site
type SiteInfo struct {
	Name        string `json:"name" example:"sigef"`
	Description string `json:"description" example:"INCRA SIGEF certified land parcels by CPF/CNPJ"`
	FormURL     string `json:"form_url" example:"https://sigef.incra.gov.br/consultar/parcelas/"`
	Captcha     bool   `json:"captcha" example:"true"`
	Tables      int    `json:"tables" example:"4"`
}

// NewSiteInfo summarizes a site definition
func NewSiteInfo(site *retrieval.SiteConfig) SiteInfo {
	return SiteInfo{
		Name:        site.Name,
		Description: site.Description,
		FormURL:     site.FormURL,
		Captcha:     site.HasCaptcha(),
		Tables:      len(site.Tables),
	}
}

// SitesResponse lists configured sites
type SitesResponse struct {
	Sites []SiteInfo `json:"sites"`
	Total int        `json:"total" example:"1"`
}

// RecordsResponse represents a retrieval result as served by the API
type RecordsResponse struct {
	*retrieval.Result
	Cache         bool  `json:"cache" example:"false"`
	TempoConsulta int64 `json:"tempo_consulta_ms" example:"2500"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error     string    `json:"error" example:"Invalid document"`
	Message   string    `json:"message" example:"document must have between 5 and 14 digits"`
	Code      string    `json:"code,omitempty" example:"INVALID_DOCUMENT"`
	Timestamp time.Time `json:"timestamp" example:"2024-01-15T10:30:00Z"`
	Path      string    `json:"path" example:"/api/v1/documents/123"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string                 `json:"status" example:"healthy"`
	Timestamp time.Time              `json:"timestamp" example:"2024-01-15T10:30:00Z"`
	Version   string                 `json:"version" example:"1.0.0"`
	Services  map[string]ServiceInfo `json:"services"`
	Uptime    string                 `json:"uptime" example:"2h30m45s"`
}

// ServiceInfo represents information about a service
type ServiceInfo struct {
	Status         string    `json:"status" example:"healthy"`
	LastCheck      time.Time `json:"last_check" example:"2024-01-15T10:30:00Z"`
	ResponseTimeMs int64     `json:"response_time_ms" example:"2"`
	Error          string    `json:"error,omitempty"`
}

// MetricsResponse represents metrics data
type MetricsResponse struct {
	Retrievals RetrievalMetrics `json:"retrievals"`
	Captcha    CaptchaMetrics   `json:"captcha"`
	Cache      CacheMetrics     `json:"cache"`
	Browser    BrowserMetrics   `json:"browser"`
	System     SystemMetrics    `json:"system"`
	Timestamp  time.Time        `json:"timestamp" example:"2024-01-15T10:30:00Z"`
}

// RetrievalMetrics counts retrieval outcomes
type RetrievalMetrics struct {
	Total          int64   `json:"total" example:"150"`
	Found          int64   `json:"found" example:"120"`
	NoRecord       int64   `json:"no_record" example:"20"`
	Errors         int64   `json:"errors" example:"10"`
	Attempts       int64   `json:"attempts" example:"410"`
	AvgAttempts    float64 `json:"avg_attempts" example:"2.93"`
	AvgDurationMs  int64   `json:"avg_duration_ms" example:"8100"`
	SuccessRate    float64 `json:"success_rate" example:"93.33"`
	RetryExhausted int64   `json:"retry_exhausted" example:"4"`
}

// CaptchaMetrics reports OCR activity
type CaptchaMetrics struct {
	Decoded       int64 `json:"decoded" example:"410"`
	Failed        int64 `json:"failed" example:"3"`
	AvgDurationMs int64 `json:"avg_duration_ms" example:"35"`
}

// CacheMetrics represents cache performance metrics
type CacheMetrics struct {
	HitRate float64 `json:"hit_rate" example:"85.5"`
	Hits    int64   `json:"hits" example:"1240"`
	Misses  int64   `json:"misses" example:"210"`
}

// BrowserMetrics represents browser pool metrics
type BrowserMetrics struct {
	Enabled        bool `json:"enabled" example:"false"`
	TotalBrowsers  int  `json:"total_browsers" example:"3"`
	AvailableSlots int  `json:"available" example:"2"`
}

// SystemMetrics represents system resource metrics
type SystemMetrics struct {
	MemoryMB   float64 `json:"memory_mb" example:"64.5"`
	Goroutines int     `json:"goroutines" example:"25"`
}

// BatchRequest represents a batch retrieval request
type BatchRequest struct {
	Documents []string `json:"documents" binding:"required,min=1" example:"[\"05828793705\",\"11222333000181\"]"`
}

// BatchResponse represents a batch retrieval response
type BatchResponse struct {
	Site       string        `json:"site" example:"sigef"`
	Results    []BatchResult `json:"results"`
	Total      int           `json:"total" example:"2"`
	Success    int           `json:"success" example:"2"`
	Errors     int           `json:"errors" example:"0"`
	DurationMs int64         `json:"duration_ms" example:"5200"`
	Timestamp  time.Time     `json:"timestamp" example:"2024-01-15T10:30:00Z"`
}

// BatchResult represents one item of a batch retrieval
type BatchResult struct {
	Document   string           `json:"document" example:"05828793705"`
	Success    bool             `json:"success" example:"true"`
	Data       *RecordsResponse `json:"data,omitempty"`
	Error      string           `json:"error,omitempty"`
	DurationMs int64            `json:"duration_ms" example:"2500"`
}
