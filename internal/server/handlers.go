package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "sales-forecast/internal/common/errors"
	"sales-forecast/internal/common/validation"
	"sales-forecast/internal/forecast"
	"sales-forecast/internal/models"
)

const readinessTimeout = 5 * time.Second

// writeError answers with the status and user message of err. Anything that is
// not a validation problem is reported as "prediction failed".
func (s *Server) writeError(c *gin.Context, err error) {
	_ = c.Error(err)
	code := string(apperrors.Normalize(err).Code)
	c.AbortWithStatusJSON(apperrors.HTTPStatus(err), gin.H{
		"error": models.APIError{Code: code, Message: apperrors.UserMessage(err)},
	})
}

// ==========================
// Probes
// ==========================

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
	defer cancel()

	status := http.StatusOK
	checks := make(map[string]string, len(s.deps.Readiness)+1)

	if _, err := s.deps.Pipeline.Models().Model(ctx); err != nil {
		status = http.StatusServiceUnavailable
		checks["model"] = err.Error()
	} else {
		checks["model"] = "ok"
	}
	for _, rc := range s.deps.Readiness {
		if err := rc.Check(ctx); err != nil {
			status = http.StatusServiceUnavailable
			checks[rc.Name] = err.Error()
			continue
		}
		checks[rc.Name] = "ok"
	}

	state := "ready"
	if status != http.StatusOK {
		state = "not_ready"
	}
	c.JSON(status, gin.H{"status": state, "checks": checks})
}

// ==========================
// Reference data
// ==========================

func toStrings[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

func (s *Server) options(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		models.ColOutletIdentifier:   s.deps.Pipeline.Outlets().IDs(),
		models.ColItemType:           toStrings(models.ItemTypes()),
		models.ColItemFatContent:     toStrings(models.FatContents()),
		models.ColOutletType:         toStrings(models.OutletTypes()),
		models.ColOutletSize:         toStrings(models.OutletSizes()),
		models.ColOutletLocationType: toStrings(models.LocationTypes()),
		"Item_Reference":             models.ItemReferences(),
	})
}

func (s *Server) listOutlets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"outlets": s.deps.Pipeline.Outlets().Profiles()})
}

func (s *Server) getOutlet(c *gin.Context) {
	id := c.Param("id")
	profile, err := s.deps.Pipeline.Outlets().Lookup(id)
	if err != nil {
		s.writeError(c, apperrors.NewUnknownOutletError(id))
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (s *Server) searchItems(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.writeError(c, apperrors.NewInvalidInputError("limit must be a non-negative integer"))
			return
		}
		limit = n
	}

	items, err := s.deps.Catalog.Search(c.Request.Context(), c.Query("search"), limit)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "source": s.deps.Catalog.Source()})
}

func (s *Server) modelInfo(c *gin.Context) {
	provider := s.deps.Pipeline.Models()
	m, err := provider.Model(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}

	body := gin.H{
		"features": m.FeatureNames(),
		"provider": provider.Mode(),
	}
	if named, ok := m.(interface {
		Name() string
		Version() string
	}); ok {
		body["name"] = named.Name()
		body["version"] = named.Version()
	}
	c.JSON(http.StatusOK, body)
}

// ==========================
// Predictions
// ==========================

func (s *Server) predictSingle(c *gin.Context) {
	var doc map[string]interface{}
	if err := json.NewDecoder(c.Request.Body).Decode(&doc); err != nil {
		s.writeError(c, apperrors.NewInvalidInputError("body must be a JSON object"))
		return
	}

	req, err := validation.ParsePredictionRequest(doc)
	if err != nil {
		s.writeError(c, err)
		return
	}

	res, err := s.deps.Pipeline.PredictSingle(c.Request.Context(), req)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, forecast.Present(res))
}

func (s *Server) predictBatch(c *gin.Context) {
	contents, err := s.readUpload(c)
	if err != nil {
		s.writeError(c, err)
		return
	}

	out, err := s.deps.Batch.Run(c.Request.Context(), contents)
	if err != nil {
		s.writeError(c, err)
		return
	}

	resp := out.Response()
	if s.deps.Charts != nil {
		figures, err := s.deps.Charts.Build(out.Result.SalesRows())
		if err != nil {
			s.logger.Warn("charts not built", map[string]interface{}{
				"batchId": out.BatchID,
				"error":   err.Error(),
			})
			resp.ChartsError = err.Error()
		} else {
			resp.Charts = figures
		}
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) downloadBatch(c *gin.Context) {
	data, err := s.deps.Batch.Download(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="predictions.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}

func (s *Server) previewUpload(c *gin.Context) {
	contents, err := s.readUpload(c)
	if err != nil {
		s.writeError(c, err)
		return
	}

	frame, err := s.deps.Batch.Preview(contents)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"columns":   frame.Names(),
		"rows":      frame.Records(),
		"row_count": frame.Rows(),
	})
}

// ==========================
// Uploads
// ==========================

// readUpload accepts a multipart "file" field, a JSON {"contents": ...} body
// holding raw CSV or a data URL, or a raw CSV body.
func (s *Server) readUpload(c *gin.Context) ([]byte, error) {
	limit := s.config.MaxUploadBytes
	if limit > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	}

	switch ct := c.ContentType(); {
	case strings.HasPrefix(ct, "multipart/form-data"):
		fh, err := c.FormFile("file")
		if err != nil {
			if tooLarge(err) {
				return nil, s.uploadTooLarge()
			}
			return nil, apperrors.NewMissingFieldError("file")
		}
		f, err := fh.Open()
		if err != nil {
			return nil, apperrors.NewInvalidInputError("cannot open uploaded file: " + err.Error())
		}
		defer f.Close()
		return io.ReadAll(f)

	case ct == "application/json":
		var body struct {
			Contents string `json:"contents"`
		}
		if err := json.NewDecoder(c.Request.Body).Decode(&body); err != nil {
			if tooLarge(err) {
				return nil, s.uploadTooLarge()
			}
			return nil, apperrors.NewInvalidInputError("body must be a JSON object")
		}
		if strings.TrimSpace(body.Contents) == "" {
			return nil, apperrors.NewMissingFieldError("contents")
		}
		return []byte(body.Contents), nil

	default:
		data, err := io.ReadAll(c.Request.Body)
		if err != nil {
			if tooLarge(err) {
				return nil, s.uploadTooLarge()
			}
			return nil, apperrors.NewInvalidInputError("cannot read upload: " + err.Error())
		}
		return data, nil
	}
}

func tooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}

func (s *Server) uploadTooLarge() error {
	return apperrors.NewInvalidInputError(fmt.Sprintf("upload exceeds %d bytes", s.config.MaxUploadBytes))
}
