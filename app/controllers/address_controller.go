package controllers

import (
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/address-cleaner/app/requests"
	"github.com/address-cleaner/app/responses"
	"github.com/address-cleaner/app/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AddressController controller xử lý các request liên quan đến địa chỉ
type AddressController struct {
	addressService *services.AddressService
	logger         *zap.Logger
}

// NewAddressController tạo mới AddressController
func NewAddressController(addressService *services.AddressService, logger *zap.Logger) *AddressController {
	return &AddressController{
		addressService: addressService,
		logger:         logger,
	}
}

// CleanAddress làm sạch địa chỉ đơn lẻ
func (ac *AddressController) CleanAddress(c *gin.Context) {
	var req requests.CleanAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, responses.NewError("INVALID_REQUEST", "Request không hợp lệ: "+err.Error(), nil))
		return
	}

	startTime := time.Now()
	result, cacheHit, err := ac.addressService.Clean(c.Request.Context(), req.Address, req.Options)
	if errors.Is(err, services.ErrEmptyAddress) {
		c.JSON(http.StatusBadRequest, responses.NewError("EMPTY_ADDRESS", err.Error(), nil))
		return
	}
	if err != nil {
		ac.logger.Error("Lỗi làm sạch địa chỉ", zap.Error(err))
		c.JSON(http.StatusInternalServerError, responses.NewError("CLEAN_ERROR", "Lỗi làm sạch địa chỉ: "+err.Error(), nil))
		return
	}

	c.JSON(http.StatusOK, responses.CleanAddressResponse{
		CatalogVersion:   ac.addressService.CatalogVersion(),
		Result:           result,
		Summary:          result.Summarize(),
		ProcessingTimeMs: time.Since(startTime).Milliseconds(),
		CacheHit:         cacheHit,
	})
}

// SubmitJob tạo batch job làm sạch hàng loạt địa chỉ
func (ac *AddressController) SubmitJob(c *gin.Context) {
	var req requests.BatchCleanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, responses.NewError("INVALID_REQUEST", "Request không hợp lệ: "+err.Error(), nil))
		return
	}

	jobID, err := ac.addressService.SubmitJob(req.Addresses, req.Options)
	if errors.Is(err, services.ErrBatchTooLarge) {
		c.JSON(http.StatusBadRequest, responses.NewError("TOO_MANY_ADDRESSES", err.Error(), nil))
		return
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, responses.NewError("INVALID_REQUEST", err.Error(), nil))
		return
	}

	c.JSON(http.StatusAccepted, responses.BatchCleanResponse{
		JobID:            jobID,
		EstimatedSeconds: ac.addressService.EstimateBatchProcessingTime(len(req.Addresses)),
		TotalAddresses:   len(req.Addresses),
		Message:          "Job đã được tạo và đang xử lý",
	})
}

// GetJobStatus lấy trạng thái job
func (ac *AddressController) GetJobStatus(c *gin.Context) {
	jobID := c.Param("jobID")

	status, err := ac.addressService.GetJobStatus(jobID)
	if err != nil {
		c.JSON(http.StatusNotFound, responses.NewError("JOB_NOT_FOUND", "Không tìm thấy job: "+jobID, nil))
		return
	}

	c.JSON(http.StatusOK, responses.JobStatusResponse{
		JobID:              status.JobID,
		Status:             status.Status,
		Progress:           status.Progress,
		Processed:          status.Processed,
		Total:              status.Total,
		EstimatedRemaining: status.EstimatedRemaining,
		Message:            status.Message,
	})
}

// GetJobResults lấy kết quả job: format=json|ndjson|csv, gzip=1 để nén
func (ac *AddressController) GetJobResults(c *gin.Context) {
	jobID := c.Param("jobID")

	var query requests.JobResultsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, responses.NewError("INVALID_REQUEST", "Query không hợp lệ: "+err.Error(), nil))
		return
	}

	results, err := ac.addressService.GetJobResults(jobID)
	switch {
	case errors.Is(err, services.ErrJobNotDone):
		c.JSON(http.StatusConflict, responses.NewError("JOB_NOT_DONE", "Job chưa hoàn thành", nil))
		return
	case err != nil:
		c.JSON(http.StatusNotFound, responses.NewError("JOB_NOT_FOUND", "Không tìm thấy job: "+jobID, nil))
		return
	}

	c.Header("Content-Type", services.ContentType(query.Format))
	if query.Format == services.FormatCSV {
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", jobID+".csv"))
	}

	var writer io.Writer = c.Writer
	if query.Gzip {
		c.Header("Content-Encoding", "gzip")
		gzWriter := gzip.NewWriter(c.Writer)
		defer gzWriter.Close()
		writer = gzWriter
	}

	c.Status(http.StatusOK)
	if err := services.WriteResults(writer, query.Format, results); err != nil {
		ac.logger.Error("Lỗi ghi kết quả job", zap.Error(err), zap.String("job_id", jobID))
	}
}
