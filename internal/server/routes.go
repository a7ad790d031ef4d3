package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ersonp/jurisflow/internal/application/handlers"
	"github.com/ersonp/jurisflow/internal/domain/entities"
	"github.com/ersonp/jurisflow/internal/domain/services"
	"github.com/ersonp/jurisflow/internal/infrastructure/parsers"
)

// maxBatchSize caps the observations accepted by one batch request.
const maxBatchSize = 500

type batchRequest struct {
	Observations []parsers.RawObservation `json:"observations"`
}

// MergeResponse is the body returned for an ingested observation.
type MergeResponse struct {
	Classification entities.ClassificationKind `json:"classification"`
	Action         entities.MergeAction        `json:"action"`
	Entry          *entities.TimelineEntry     `json:"entry,omitempty"`
	Audit          entities.AuditRecord        `json:"audit"`
}

// BatchItemResponse reports one observation of a batch request.
type BatchItemResponse struct {
	Index  int            `json:"index"`
	Status int            `json:"status"`
	Result *MergeResponse `json:"result,omitempty"`
	Error  *ErrorResponse `json:"error,omitempty"`
}

func (s *Server) registerRoutes(r *gin.Engine) {
	v1 := r.Group("/v1", s.limitBody)
	if s.ingest != nil {
		v1.POST("/cases/:caseId/observations", s.ingestObservation)
		v1.POST("/observations/batch", s.ingestBatch)
	}
	if s.query != nil {
		v1.GET("/cases/:caseId/timeline", s.timeline)
		v1.GET("/cases/:caseId/audit", s.audit)
		v1.GET("/cases/:caseId/search", s.search)
		v1.GET("/cases/:caseId/credits", s.credits)
		v1.GET("/entries/:id/history", s.history)
	}
}

func (s *Server) limitBody(c *gin.Context) {
	if c.Request.Body != nil {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxBodyBytes)
	}
	c.Next()
}

// bindJSON decodes the body into dst, distinguishing oversized from malformed input.
func bindJSON(c *gin.Context, dst interface{}) *apiError {
	if err := c.ShouldBindJSON(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return &apiError{statusCode: http.StatusRequestEntityTooLarge, errorType: errTooLarge, message: msgBodyTooLarge}
		}
		slog.Warn("Invalid JSON body received", "error", err)
		return &apiError{statusCode: http.StatusBadRequest, errorType: errInvalidJSON, message: msgInvalidJSON}
	}
	return nil
}

func (s *Server) ingestObservation(c *gin.Context) {
	caseID := c.Param("caseId")

	var raw parsers.RawObservation
	if err := bindJSON(c, &raw); err != nil {
		writeError(c, err)
		return
	}
	if raw.CaseID != "" && strings.TrimSpace(raw.CaseID) != caseID {
		writeError(c, ingestError(fmt.Errorf("%w: case id %q does not match path", entities.ErrInvalidObservation, raw.CaseID)))
		return
	}

	obs, err := raw.ToObservation(caseID, s.location)
	if err != nil {
		writeError(c, ingestError(err))
		return
	}

	result, err := s.ingest.Ingest(c.Request.Context(), obs)
	if err != nil {
		writeError(c, ingestError(err))
		return
	}

	c.JSON(statusFor(result.Action), toMergeResponse(result))
}

func (s *Server) ingestBatch(c *gin.Context) {
	var req batchRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, err)
		return
	}
	if len(req.Observations) == 0 || len(req.Observations) > maxBatchSize {
		writeError(c, &apiError{
			statusCode: http.StatusBadRequest,
			errorType:  errInvalidInput,
			message:    fmt.Sprintf("batch must contain between 1 and %d observations", maxBatchSize),
		})
		return
	}

	items := make([]BatchItemResponse, len(req.Observations))
	observations := make([]entities.EventObservation, 0, len(req.Observations))
	positions := make([]int, 0, len(req.Observations))

	for i, raw := range req.Observations {
		items[i].Index = i
		obs, err := raw.ToObservation("", s.location)
		if err != nil {
			items[i].fail(ingestError(err))
			continue
		}
		observations = append(observations, obs)
		positions = append(positions, i)
	}

	for _, res := range s.ingest.IngestBatch(c.Request.Context(), observations) {
		item := &items[positions[res.Index]]
		if res.Err != nil {
			item.fail(ingestError(res.Err))
			continue
		}
		item.Status = statusFor(res.Result.Action)
		item.Result = toMergeResponse(res.Result)
	}

	c.JSON(http.StatusMultiStatus, gin.H{"results": items})
}

func (item *BatchItemResponse) fail(err *apiError) {
	item.Status = err.statusCode
	item.Error = &ErrorResponse{ErrorType: err.errorType, Message: err.message}
}

func (s *Server) timeline(c *gin.Context) {
	entries, err := s.query.Timeline(c.Request.Context(), c.Param("caseId"))
	if err != nil {
		writeError(c, queryError(err))
		return
	}
	if entries == nil {
		entries = []entities.TimelineEntry{}
	}
	c.JSON(http.StatusOK, gin.H{"case_id": c.Param("caseId"), "entries": entries})
}

func (s *Server) audit(c *gin.Context) {
	limit, err := intQuery(c, "limit")
	if err != nil {
		writeError(c, err)
		return
	}

	records, qerr := s.query.Audit(c.Request.Context(), c.Param("caseId"), limit)
	if qerr != nil {
		writeError(c, queryError(qerr))
		return
	}
	if records == nil {
		records = []entities.AuditRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"case_id": c.Param("caseId"), "records": records})
}

func (s *Server) history(c *gin.Context) {
	entry, history, err := s.query.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, queryError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"entry": entry, "history": history})
}

func (s *Server) search(c *gin.Context) {
	limit, aerr := intQuery(c, "limit")
	if aerr != nil {
		writeError(c, aerr)
		return
	}

	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		writeError(c, &apiError{statusCode: http.StatusBadRequest, errorType: errInvalidInput, message: "query parameter q is required"})
		return
	}

	hits, err := s.query.Search(c.Request.Context(), c.Param("caseId"), query, limit)
	if errors.Is(err, handlers.ErrSearchDisabled) {
		writeError(c, &apiError{statusCode: http.StatusNotImplemented, errorType: errUnavailable, message: err.Error()})
		return
	}
	if err != nil {
		writeError(c, queryError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"case_id": c.Param("caseId"), "results": hits})
}

func (s *Server) credits(c *gin.Context) {
	spent, err := s.query.Balance(c.Request.Context(), c.Param("caseId"))
	if err != nil {
		writeError(c, queryError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"case_id": c.Param("caseId"), "spent": spent})
}

func intQuery(c *gin.Context, key string) (int, *apiError) {
	v := c.Query(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, &apiError{statusCode: http.StatusBadRequest, errorType: errInvalidInput, message: fmt.Sprintf("invalid %s %q", key, v)}
	}
	return n, nil
}

func statusFor(action entities.MergeAction) int {
	switch action {
	case entities.ActionCreate, entities.ActionCreateSibling:
		return http.StatusCreated
	default:
		return http.StatusOK
	}
}

func toMergeResponse(result *services.MergeResult) *MergeResponse {
	return &MergeResponse{
		Classification: result.Classification.Kind,
		Action:         result.Action,
		Entry:          result.Entry,
		Audit:          result.Audit,
	}
}
