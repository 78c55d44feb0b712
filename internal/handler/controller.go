package handler

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"keyword-volume/internal/service"
	"keyword-volume/pkg/estimator"
	"keyword-volume/pkg/logger"
	"keyword-volume/pkg/volume"
)

// Controller exposes the estimation service over HTTP.
type Controller struct {
	svc service.VolumeService
	log *logger.Logger
	now func() time.Time
}

func NewController(svc service.VolumeService) *Controller {
	return &Controller{
		svc: svc,
		log: logger.GetLogger().WithField("component", "http"),
		now: time.Now,
	}
}

type volumeResponse struct {
	Keyword string         `json:"keyword"`
	Country volume.Country `json:"country"`
	Volume  int            `json:"volume"`
	Method  volume.Method  `json:"method"`
}

type batchRequest struct {
	Keywords []string `json:"keywords"`
	Country  string   `json:"country"`
	Geo      string   `json:"geo"`
	Method   string   `json:"method"`
}

type batchResponse struct {
	Country       volume.Country      `json:"country"`
	Method        volume.Method       `json:"method"`
	TotalKeywords int                 `json:"total_keywords"`
	Results       []volume.BatchEntry `json:"results"`
}

type n8nResponse struct {
	Success       bool                `json:"success"`
	Country       volume.Country      `json:"country"`
	Method        volume.Method       `json:"method"`
	TotalKeywords int                 `json:"total_keywords"`
	Keywords      []string            `json:"keywords"`
	Results       []volume.BatchEntry `json:"results"`
	Timestamp     string              `json:"timestamp"`
}

type exportDocument struct {
	Country       volume.Country      `json:"country"`
	Method        volume.Method       `json:"method"`
	TotalKeywords int                 `json:"total_keywords"`
	ExportedAt    string              `json:"exported_at"`
	Results       []volume.BatchEntry `json:"results"`
}

// geoAliases maps the names automation tools send to country codes.
var geoAliases = map[string]volume.Country{
	"united states":  volume.CountryUS,
	"united kingdom": volume.CountryUK,
	"great britain":  volume.CountryUK,
	"gb":             volume.CountryUK,
	"canada":         volume.CountryCA,
	"south africa":   volume.CountrySA,
	"za":             volume.CountrySA,
}

// ResolveGeo accepts a country code in any case or a full country name.
func ResolveGeo(geo string) (volume.Country, error) {
	geo = strings.TrimSpace(geo)
	if geo == "" {
		return volume.CountryUS, nil
	}
	if c, ok := geoAliases[strings.ToLower(geo)]; ok {
		return c, nil
	}
	return volume.ParseCountry(strings.ToUpper(geo))
}

// CheckVolume handles GET /check-volume.
func (ctl *Controller) CheckVolume(c *fiber.Ctx) error {
	country, method, err := parseTarget(c.Query("country"), c.Query("method"))
	if err != nil {
		return badRequest(c, err)
	}

	keyword := c.Query("keyword")
	v, err := ctl.svc.Estimate(c.UserContext(), keyword, country, method)
	if err != nil {
		return ctl.fail(c, err)
	}

	return c.JSON(volumeResponse{
		Keyword: strings.TrimSpace(keyword),
		Country: country,
		Volume:  v,
		Method:  method,
	})
}

// CheckBatch handles POST /check-batch.
func (ctl *Controller) CheckBatch(c *fiber.Ctx) error {
	var req batchRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.Country == "" {
		req.Country = string(volume.CountryUS)
	}

	country, method, err := parseTarget(req.Country, req.Method)
	if err != nil {
		return badRequest(c, err)
	}

	keywords := estimator.CleanKeywords(req.Keywords)
	if len(keywords) == 0 {
		return jsonError(c, fiber.StatusBadRequest, "at least one keyword is required")
	}

	results := ctl.svc.EstimateMany(c.UserContext(), keywords, country, method)
	return c.JSON(batchResponse{
		Country:       country,
		Method:        method,
		TotalKeywords: len(results),
		Results:       results,
	})
}

// CheckN8N handles POST /n8n/check-keywords. The body is either the
// request object or a webhook array whose first element is the request.
func (ctl *Controller) CheckN8N(c *fiber.Ctx) error {
	req, err := parseN8NBody(c.Body())
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, err.Error())
	}

	country, err := ResolveGeo(req.Geo)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, fmt.Sprintf("unsupported geo %q", req.Geo))
	}
	method, err := volume.ParseMethod(req.Method)
	if err != nil {
		return badRequest(c, err)
	}

	keywords := estimator.CleanKeywords(req.Keywords)
	if len(keywords) == 0 {
		return jsonError(c, fiber.StatusBadRequest, "no valid keywords provided")
	}

	results := ctl.svc.EstimateMany(c.UserContext(), keywords, country, method)
	return c.JSON(n8nResponse{
		Success:       true,
		Country:       country,
		Method:        method,
		TotalKeywords: len(keywords),
		Keywords:      keywords,
		Results:       results,
		Timestamp:     ctl.now().UTC().Format(time.RFC3339),
	})
}

// EchoN8N handles POST /n8n/test. It reports how the webhook body was
// decoded so automation workflows can be debugged.
func (ctl *Controller) EchoN8N(c *fiber.Ctx) error {
	var received interface{}
	if err := json.Unmarshal(c.Body(), &received); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}

	keys := []string{}
	if obj, ok := received.(map[string]interface{}); ok {
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
	}

	return c.JSON(fiber.Map{
		"received_data": received,
		"data_type":     jsonType(received),
		"keys":          keys,
		"timestamp":     ctl.now().UTC().Format(time.RFC3339),
	})
}

// ExportCSV handles GET /export/csv.
func (ctl *Controller) ExportCSV(c *fiber.Ctx) error {
	country, method, results, ok := ctl.export(c)
	if !ok {
		return nil
	}

	var b strings.Builder
	w := csv.NewWriter(&b)
	w.Write([]string{"keyword", "country", "volume", "method"})
	for _, r := range results {
		w.Write([]string{r.Keyword, string(r.Country), strconv.Itoa(r.Volume), string(method)})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return ctl.fail(c, err)
	}

	c.Attachment(exportFilename(country, method, "csv"))
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	return c.SendString(b.String())
}

// ExportJSON handles GET /export/json.
func (ctl *Controller) ExportJSON(c *fiber.Ctx) error {
	country, method, results, ok := ctl.export(c)
	if !ok {
		return nil
	}

	body, err := json.MarshalIndent(exportDocument{
		Country:       country,
		Method:        method,
		TotalKeywords: len(results),
		ExportedAt:    ctl.now().UTC().Format(time.RFC3339),
		Results:       results,
	}, "", "  ")
	if err != nil {
		return ctl.fail(c, err)
	}

	c.Attachment(exportFilename(country, method, "json"))
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(body)
}

// export parses the shared export query and runs the batch. When ok is
// false the error response has already been written.
func (ctl *Controller) export(c *fiber.Ctx) (country volume.Country, method volume.Method, results []volume.BatchEntry, ok bool) {
	country, method, err := parseTarget(c.Query("country"), c.Query("method"))
	if err != nil {
		badRequest(c, err)
		return "", "", nil, false
	}

	keywords := estimator.CleanKeywords(strings.Split(c.Query("keywords"), ","))
	if len(keywords) == 0 {
		jsonError(c, fiber.StatusBadRequest, "at least one keyword is required")
		return "", "", nil, false
	}

	return country, method, ctl.svc.EstimateMany(c.UserContext(), keywords, country, method), true
}

// Methods handles GET /methods.
func (ctl *Controller) Methods(c *fiber.Ctx) error {
	return c.JSON(ctl.svc.Info())
}

// ClearCache handles DELETE /cache.
func (ctl *Controller) ClearCache(c *fiber.Ctx) error {
	if err := ctl.svc.Clear(c.UserContext()); err != nil {
		return ctl.fail(c, err)
	}
	ctl.log.Info("Cache cleared")
	return c.JSON(fiber.Map{"cleared": true})
}

// Health handles GET /health.
func (ctl *Controller) Health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	return c.JSON(fiber.Map{
		"status":    "healthy",
		"service":   "keyword-volume",
		"cache":     ctl.svc.CacheStats(ctx),
		"timestamp": ctl.now().UTC().Format(time.RFC3339),
	})
}

func (ctl *Controller) fail(c *fiber.Ctx, err error) error {
	if errors.Is(err, volume.ErrInvalidInput) {
		return badRequest(c, err)
	}
	ctl.log.WithError(err).WithField("path", c.Path()).Error("Request failed")
	return jsonError(c, fiber.StatusInternalServerError, "internal server error")
}

func parseTarget(country, method string) (volume.Country, volume.Method, error) {
	cc, err := volume.ParseCountry(country)
	if err != nil {
		return "", "", err
	}
	m, err := volume.ParseMethod(method)
	if err != nil {
		return "", "", err
	}
	return cc, m, nil
}

func parseN8NBody(body []byte) (batchRequest, error) {
	var req batchRequest
	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "[") {
		var items []batchRequest
		if err := json.Unmarshal(body, &items); err != nil {
			return req, errors.New("invalid request body")
		}
		if len(items) == 0 {
			return req, errors.New("empty request array")
		}
		return items[0], nil
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return req, errors.New("invalid request body")
	}
	return req, nil
}

func jsonType(v interface{}) string {
	switch v.(type) {
	case map[string]interface{}:
		return "object"
	case []interface{}:
		return "array"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	default:
		return "null"
	}
}

func exportFilename(country volume.Country, method volume.Method, ext string) string {
	return fmt.Sprintf("keyword-volumes-%s-%s.%s", strings.ToLower(string(country)), method, ext)
}

func badRequest(c *fiber.Ctx, err error) error {
	return jsonError(c, fiber.StatusBadRequest, err.Error())
}

func jsonError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"status": "error",
		"error":  message,
	})
}
