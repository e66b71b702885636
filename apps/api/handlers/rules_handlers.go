package handlers

import (
	"net/http"
	"time"

	"github.com/nexfield/nexfield-api/libs/go/constants"
	"github.com/nexfield/nexfield-api/libs/go/helpers"
	"github.com/nexfield/nexfield-api/libs/go/services"
	"github.com/nexfield/nexfield-api/libs/go/types/api/params"
	"github.com/nexfield/nexfield-api/libs/go/types/api/requests"
	"github.com/nexfield/nexfield-api/libs/go/types/api/responses"
	"github.com/nexfield/nexfield-api/libs/go/types/business"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RulesHandler handles the effective-dated rule catalog: threshold rules,
// tax rates, marketplace facilitator rules and interest/penalty schedules.
type RulesHandler struct {
	rulesService *services.RulesService
	logger       *zap.Logger
}

// NewRulesHandler creates a handler with its service dependencies
func NewRulesHandler(rulesService *services.RulesService, logger *zap.Logger) *RulesHandler {
	if logger == nil {
		logger = zap.L()
	}
	return &RulesHandler{
		rulesService: rulesService,
		logger:       logger,
	}
}

// jurisdictionCode validates and normalizes the :code path parameter
func jurisdictionCode(c *gin.Context) (string, bool) {
	code := helpers.NormalizeJurisdictionCode(c.Param("code"))
	if !helpers.IsJurisdictionCodeValid(code) {
		sendError(c, http.StatusBadRequest, "Invalid jurisdiction code", nil)
		return "", false
	}
	return code, true
}

// parseEffectiveWindow parses effective_from and the optional effective_to
func parseEffectiveWindow(c *gin.Context, from, to string) (time.Time, *time.Time, bool) {
	effectiveFrom, err := time.Parse(constants.DateLayout, from)
	if err != nil {
		sendError(c, http.StatusBadRequest, "Invalid effective_from date format", err)
		return time.Time{}, nil, false
	}

	var effectiveTo *time.Time
	if to != "" {
		parsed, err := time.Parse(constants.DateLayout, to)
		if err != nil {
			sendError(c, http.StatusBadRequest, "Invalid effective_to date format", err)
			return time.Time{}, nil, false
		}
		if parsed.Before(effectiveFrom) {
			sendError(c, http.StatusBadRequest, "effective_to precedes effective_from", nil)
			return time.Time{}, nil, false
		}
		effectiveTo = &parsed
	}

	return effectiveFrom, effectiveTo, true
}

// CreateThresholdRule godoc
// @Summary Create threshold rule
// @Description Stores a new effective-dated economic nexus threshold version
// @Tags rules
// @Accept json
// @Produce json
// @Param code path string true "Jurisdiction code"
// @Param request body requests.CreateThresholdRuleRequest true "Threshold rule details"
// @Success 201 {object} responses.ThresholdRuleResponse
// @Failure 400 {object} ErrorResponse
// @Router /jurisdictions/{code}/threshold-rules [post]
func (h *RulesHandler) CreateThresholdRule(c *gin.Context) {
	code, ok := jurisdictionCode(c)
	if !ok {
		return
	}

	var req requests.CreateThresholdRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.RevenueThresholdCents == nil && req.TransactionThreshold == nil {
		sendError(c, http.StatusBadRequest, "At least one of revenue_threshold_cents and transaction_threshold is required", nil)
		return
	}

	effectiveFrom, effectiveTo, ok := parseEffectiveWindow(c, req.EffectiveFrom, req.EffectiveTo)
	if !ok {
		return
	}

	rule, err := h.rulesService.CreateThresholdRule(c.Request.Context(), params.CreateThresholdRuleParams{
		JurisdictionCode:      code,
		RevenueThresholdCents: req.RevenueThresholdCents,
		TransactionThreshold:  req.TransactionThreshold,
		Operator:              req.Operator,
		LookbackKind:          req.LookbackKind,
		CustomWindowEndMonth:  req.CustomWindowEndMonth,
		CustomWindowEndDay:    req.CustomWindowEndDay,
		EffectiveFrom:         effectiveFrom,
		EffectiveTo:           effectiveTo,
	})
	if err != nil {
		handleServiceError(c, err, "Jurisdiction not found")
		return
	}

	sendSuccess(c, http.StatusCreated, thresholdRuleResponse(*rule))
}

// ListThresholdRules godoc
// @Summary List threshold rules
// @Description Returns all threshold rule versions for the jurisdiction in effective-date order
// @Tags rules
// @Accept json
// @Produce json
// @Param code path string true "Jurisdiction code"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Router /jurisdictions/{code}/threshold-rules [get]
func (h *RulesHandler) ListThresholdRules(c *gin.Context) {
	code, ok := jurisdictionCode(c)
	if !ok {
		return
	}

	rules, err := h.rulesService.ListThresholdRules(c.Request.Context(), code)
	if err != nil {
		handleServiceError(c, err, "Jurisdiction not found")
		return
	}

	data := make([]responses.ThresholdRuleResponse, 0, len(rules))
	for _, rule := range rules {
		data = append(data, thresholdRuleResponse(rule))
	}
	sendList(c, data)
}

// CreateTaxRate godoc
// @Summary Create tax rate
// @Description Stores a new effective-dated tax rate version (rates are normalized fractions)
// @Tags rules
// @Accept json
// @Produce json
// @Param code path string true "Jurisdiction code"
// @Param request body requests.CreateTaxRateRequest true "Tax rate details"
// @Success 201 {object} responses.TaxRateResponse
// @Failure 400 {object} ErrorResponse
// @Router /jurisdictions/{code}/tax-rates [post]
func (h *RulesHandler) CreateTaxRate(c *gin.Context) {
	code, ok := jurisdictionCode(c)
	if !ok {
		return
	}

	var req requests.CreateTaxRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	effectiveFrom, effectiveTo, ok := parseEffectiveWindow(c, req.EffectiveFrom, req.EffectiveTo)
	if !ok {
		return
	}

	rate, err := h.rulesService.CreateTaxRate(c.Request.Context(), params.CreateTaxRateParams{
		JurisdictionCode: code,
		StateRate:        req.StateRate,
		AvgLocalRate:     req.AvgLocalRate,
		CombinedRate:     req.CombinedRate,
		EffectiveFrom:    effectiveFrom,
		EffectiveTo:      effectiveTo,
	})
	if err != nil {
		handleServiceError(c, err, "Jurisdiction not found")
		return
	}

	sendSuccess(c, http.StatusCreated, taxRateResponse(*rate))
}

// ListTaxRates godoc
// @Summary List tax rates
// @Description Returns all tax rate versions for the jurisdiction in effective-date order
// @Tags rules
// @Accept json
// @Produce json
// @Param code path string true "Jurisdiction code"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Router /jurisdictions/{code}/tax-rates [get]
func (h *RulesHandler) ListTaxRates(c *gin.Context) {
	code, ok := jurisdictionCode(c)
	if !ok {
		return
	}

	rates, err := h.rulesService.ListTaxRates(c.Request.Context(), code)
	if err != nil {
		handleServiceError(c, err, "Jurisdiction not found")
		return
	}

	data := make([]responses.TaxRateResponse, 0, len(rates))
	for _, rate := range rates {
		data = append(data, taxRateResponse(rate))
	}
	sendList(c, data)
}

// CreateMarketplaceRule godoc
// @Summary Create marketplace facilitator rule
// @Description Stores a new effective-dated marketplace facilitator rule version
// @Tags rules
// @Accept json
// @Produce json
// @Param code path string true "Jurisdiction code"
// @Param request body requests.CreateMarketplaceRuleRequest true "Marketplace rule details"
// @Success 201 {object} responses.MarketplaceRuleResponse
// @Failure 400 {object} ErrorResponse
// @Router /jurisdictions/{code}/marketplace-rules [post]
func (h *RulesHandler) CreateMarketplaceRule(c *gin.Context) {
	code, ok := jurisdictionCode(c)
	if !ok {
		return
	}

	var req requests.CreateMarketplaceRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	effectiveFrom, effectiveTo, ok := parseEffectiveWindow(c, req.EffectiveFrom, req.EffectiveTo)
	if !ok {
		return
	}

	rule, err := h.rulesService.CreateMarketplaceRule(c.Request.Context(), params.CreateMarketplaceRuleParams{
		JurisdictionCode:     code,
		CountTowardThreshold: req.CountTowardThreshold,
		ExcludeFromLiability: req.ExcludeFromLiability,
		EffectiveFrom:        effectiveFrom,
		EffectiveTo:          effectiveTo,
	})
	if err != nil {
		handleServiceError(c, err, "Jurisdiction not found")
		return
	}

	sendSuccess(c, http.StatusCreated, marketplaceRuleResponse(*rule))
}

// ListMarketplaceRules godoc
// @Summary List marketplace facilitator rules
// @Description Returns all marketplace facilitator rule versions for the jurisdiction in effective-date order
// @Tags rules
// @Accept json
// @Produce json
// @Param code path string true "Jurisdiction code"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Router /jurisdictions/{code}/marketplace-rules [get]
func (h *RulesHandler) ListMarketplaceRules(c *gin.Context) {
	code, ok := jurisdictionCode(c)
	if !ok {
		return
	}

	rules, err := h.rulesService.ListMarketplaceRules(c.Request.Context(), code)
	if err != nil {
		handleServiceError(c, err, "Jurisdiction not found")
		return
	}

	data := make([]responses.MarketplaceRuleResponse, 0, len(rules))
	for _, rule := range rules {
		data = append(data, marketplaceRuleResponse(rule))
	}
	sendList(c, data)
}

// CreateInterestPenaltyRule godoc
// @Summary Create interest and penalty rule
// @Description Stores a new effective-dated interest and penalty schedule version
// @Tags rules
// @Accept json
// @Produce json
// @Param code path string true "Jurisdiction code"
// @Param request body requests.CreateInterestPenaltyRuleRequest true "Interest and penalty rule details"
// @Success 201 {object} responses.InterestPenaltyRuleResponse
// @Failure 400 {object} ErrorResponse
// @Router /jurisdictions/{code}/interest-rules [post]
func (h *RulesHandler) CreateInterestPenaltyRule(c *gin.Context) {
	code, ok := jurisdictionCode(c)
	if !ok {
		return
	}

	var req requests.CreateInterestPenaltyRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.PenaltyMinCents != nil && req.PenaltyMaxCents != nil && *req.PenaltyMaxCents < *req.PenaltyMinCents {
		sendError(c, http.StatusBadRequest, "penalty_max_cents below penalty_min_cents", nil)
		return
	}

	effectiveFrom, effectiveTo, ok := parseEffectiveWindow(c, req.EffectiveFrom, req.EffectiveTo)
	if !ok {
		return
	}

	rule, err := h.rulesService.CreateInterestPenaltyRule(c.Request.Context(), params.CreateInterestPenaltyRuleParams{
		JurisdictionCode:   code,
		AnnualInterestRate: req.AnnualInterestRate,
		InterestMethod:     req.InterestMethod,
		LatePenaltyRate:    req.LatePenaltyRate,
		PenaltyMinCents:    req.PenaltyMinCents,
		PenaltyMaxCents:    req.PenaltyMaxCents,
		VDAInterestWaived:  req.VDAInterestWaived,
		VDAPenaltiesWaived: req.VDAPenaltiesWaived,
		EffectiveFrom:      effectiveFrom,
		EffectiveTo:        effectiveTo,
	})
	if err != nil {
		handleServiceError(c, err, "Jurisdiction not found")
		return
	}

	sendSuccess(c, http.StatusCreated, interestRuleResponse(*rule))
}

// ListInterestPenaltyRules godoc
// @Summary List interest and penalty rules
// @Description Returns all interest and penalty rule versions for the jurisdiction in effective-date order
// @Tags rules
// @Accept json
// @Produce json
// @Param code path string true "Jurisdiction code"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Router /jurisdictions/{code}/interest-rules [get]
func (h *RulesHandler) ListInterestPenaltyRules(c *gin.Context) {
	code, ok := jurisdictionCode(c)
	if !ok {
		return
	}

	rules, err := h.rulesService.ListInterestPenaltyRules(c.Request.Context(), code)
	if err != nil {
		handleServiceError(c, err, "Jurisdiction not found")
		return
	}

	data := make([]responses.InterestPenaltyRuleResponse, 0, len(rules))
	for _, rule := range rules {
		data = append(data, interestRuleResponse(rule))
	}
	sendList(c, data)
}

// GetResolvedRules godoc
// @Summary Get resolved rules
// @Description Returns the rule versions in force for the jurisdiction on the
// @Description as_of date (today when omitted). Rule types with no covering
// @Description version are absent.
// @Tags rules
// @Accept json
// @Produce json
// @Param code path string true "Jurisdiction code"
// @Param as_of query string false "Resolution date (2006-01-02)"
// @Success 200 {object} responses.ResolvedRulesResponse
// @Failure 400 {object} ErrorResponse
// @Router /jurisdictions/{code}/rules [get]
func (h *RulesHandler) GetResolvedRules(c *gin.Context) {
	code, ok := jurisdictionCode(c)
	if !ok {
		return
	}

	asOf := time.Now().UTC()
	if asOfStr := c.Query("as_of"); asOfStr != "" {
		parsed, err := time.Parse(constants.DateLayout, asOfStr)
		if err != nil {
			sendError(c, http.StatusBadRequest, "Invalid as_of date format", err)
			return
		}
		asOf = parsed
	}

	resolved, err := h.rulesService.ResolveJurisdictionRules(c.Request.Context(), code, asOf)
	if err != nil {
		handleServiceError(c, err, "Jurisdiction not found")
		return
	}

	response := responses.ResolvedRulesResponse{
		JurisdictionCode: resolved.JurisdictionCode,
		AsOf:             resolved.AsOf.Format(constants.DateLayout),
	}
	if resolved.Threshold != nil {
		converted := thresholdRuleResponse(*resolved.Threshold)
		response.Threshold = &converted
	}
	if resolved.TaxRate != nil {
		converted := taxRateResponse(*resolved.TaxRate)
		response.TaxRate = &converted
	}
	if resolved.Marketplace != nil {
		converted := marketplaceRuleResponse(*resolved.Marketplace)
		response.Marketplace = &converted
	}
	if resolved.InterestPenalty != nil {
		converted := interestRuleResponse(*resolved.InterestPenalty)
		response.InterestPenalty = &converted
	}

	sendSuccess(c, http.StatusOK, response)
}

func thresholdRuleResponse(rule business.ThresholdRule) responses.ThresholdRuleResponse {
	response := responses.ThresholdRuleResponse{
		ID:                    rule.ID.String(),
		Object:                "threshold_rule",
		JurisdictionCode:      rule.JurisdictionCode,
		RevenueThresholdCents: rule.RevenueThresholdCents,
		TransactionThreshold:  rule.TransactionThreshold,
		Operator:              string(rule.Operator),
		LookbackKind:          string(rule.LookbackKind),
		CustomWindowEndMonth:  rule.CustomWindowEndMonth,
		CustomWindowEndDay:    rule.CustomWindowEndDay,
		EffectiveFrom:         rule.EffectiveFrom.Format(constants.DateLayout),
	}
	if rule.EffectiveTo != nil {
		response.EffectiveTo = rule.EffectiveTo.Format(constants.DateLayout)
	}
	return response
}

func taxRateResponse(rate business.TaxRate) responses.TaxRateResponse {
	response := responses.TaxRateResponse{
		ID:               rate.ID.String(),
		Object:           "tax_rate",
		JurisdictionCode: rate.JurisdictionCode,
		StateRate:        rate.StateRate,
		AvgLocalRate:     rate.AvgLocalRate,
		CombinedRate:     rate.CombinedRate,
		EffectiveFrom:    rate.EffectiveFrom.Format(constants.DateLayout),
	}
	if rate.EffectiveTo != nil {
		response.EffectiveTo = rate.EffectiveTo.Format(constants.DateLayout)
	}
	return response
}

func marketplaceRuleResponse(rule business.MarketplaceFacilitatorRule) responses.MarketplaceRuleResponse {
	response := responses.MarketplaceRuleResponse{
		ID:                   rule.ID.String(),
		Object:               "marketplace_rule",
		JurisdictionCode:     rule.JurisdictionCode,
		CountTowardThreshold: rule.CountTowardThreshold,
		ExcludeFromLiability: rule.ExcludeFromLiability,
		EffectiveFrom:        rule.EffectiveFrom.Format(constants.DateLayout),
	}
	if rule.EffectiveTo != nil {
		response.EffectiveTo = rule.EffectiveTo.Format(constants.DateLayout)
	}
	return response
}

func interestRuleResponse(rule business.InterestPenaltyRule) responses.InterestPenaltyRuleResponse {
	response := responses.InterestPenaltyRuleResponse{
		ID:                 rule.ID.String(),
		Object:             "interest_penalty_rule",
		JurisdictionCode:   rule.JurisdictionCode,
		AnnualInterestRate: rule.AnnualInterestRate,
		InterestMethod:     string(rule.InterestMethod),
		LatePenaltyRate:    rule.LatePenaltyRate,
		PenaltyMinCents:    rule.PenaltyMinCents,
		PenaltyMaxCents:    rule.PenaltyMaxCents,
		VDAInterestWaived:  rule.VDAInterestWaived,
		VDAPenaltiesWaived: rule.VDAPenaltiesWaived,
		EffectiveFrom:      rule.EffectiveFrom.Format(constants.DateLayout),
	}
	if rule.EffectiveTo != nil {
		response.EffectiveTo = rule.EffectiveTo.Format(constants.DateLayout)
	}
	return response
}
