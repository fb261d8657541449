package controllers

import (
	"net/http"

	"github.com/commission-finder/app/requests"
	"github.com/commission-finder/app/responses"
	"github.com/commission-finder/app/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CalculatorController serves the seller calculators.
type CalculatorController struct {
	commissionService *services.CommissionService
	calculatorService *services.CalculatorService
	logger            *zap.Logger
}

func NewCalculatorController(commissionService *services.CommissionService, calculatorService *services.CalculatorService, logger *zap.Logger) *CalculatorController {
	return &CalculatorController{
		commissionService: commissionService,
		calculatorService: calculatorService,
		logger:            logger,
	}
}

// CalculateCommission computes the payout of a sale on marketplace :id.
func (cc *CalculatorController) CalculateCommission(c *gin.Context) {
	var req requests.CalculateCommissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalid(c, err)
		return
	}

	result, err := cc.commissionService.Calculate(c.Param("id"), req)
	if err != nil {
		respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, responses.SuccessResponse{
		Success: true,
		Message: "Commission calculated",
		Data:    result,
	})
}

// CalculateKDV adds, removes or derives VAT.
func (cc *CalculatorController) CalculateKDV(c *gin.Context) {
	var req requests.KDVRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalid(c, err)
		return
	}

	result, err := cc.calculatorService.CalculateKDV(req)
	if err != nil {
		respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, responses.SuccessResponse{
		Success: true,
		Message: "VAT calculated",
		Data:    result,
	})
}

// CalculateDesi computes the volumetric weight of a parcel.
func (cc *CalculatorController) CalculateDesi(c *gin.Context) {
	var req requests.DesiRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalid(c, err)
		return
	}

	result, err := cc.calculatorService.CalculateDesi(req)
	if err != nil {
		respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, responses.SuccessResponse{
		Success: true,
		Message: "Desi calculated",
		Data:    result,
	})
}

func (cc *CalculatorController) Carriers(c *gin.Context) {
	c.JSON(http.StatusOK, responses.SuccessResponse{
		Success: true,
		Message: "Carrier desi factors",
		Data:    services.CarrierFactors(),
	})
}
