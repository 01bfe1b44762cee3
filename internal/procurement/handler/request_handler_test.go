package handler

import (
	"net/http"
	"testing"

	"github.com/binaa-tech/binaa/internal/procurement/entity"
	"github.com/binaa-tech/binaa/internal/procurement/repository"
	"github.com/binaa-tech/binaa/internal/procurement/service"
	"github.com/binaa-tech/binaa/internal/procurement/testutil"
	"go.uber.org/zap"
)

// setupProcurementAPI wires repositories, services and routes against a test schema.
// Shared by request, purchase order and receipt handler tests.
func setupProcurementAPI(t *testing.T) *testutil.TestEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)

	logger := zap.NewNop()
	repos := repository.NewRepositories(db)

	ledgerSvc := service.NewLedgerService(repos.BOQ)
	requestSvc := service.NewRequestService(repos, logger)
	procurementSvc := service.NewProcurementService(repos, ledgerSvc, db, logger)
	quotationSvc := service.NewQuotationService(repos, procurementSvc, logger)
	invoiceSvc := service.NewInvoiceService(repos, logger)
	masterdataSvc := service.NewMasterDataService(repos, logger)

	requestHandler := NewRequestHandler(requestSvc)
	poHandler := NewPOHandler(procurementSvc)
	rfqHandler := NewRFQHandler(quotationSvc)
	invoiceHandler := NewInvoiceHandler(invoiceSvc)
	projectHandler := NewProjectHandler(masterdataSvc, ledgerSvc)

	router := testutil.SetupRouter()
	api := testutil.AuthGroup(router, "/api/v1")

	api.GET("/requests", requestHandler.List)
	api.POST("/requests", requestHandler.Create)
	api.GET("/requests/:id", requestHandler.Get)
	api.POST("/requests/:id/submit", requestHandler.Submit)
	api.POST("/requests/:id/approve-technical", requestHandler.ApproveTechnical)
	api.POST("/requests/:id/reject", requestHandler.Reject)

	api.GET("/purchase-orders", poHandler.List)
	api.POST("/purchase-orders", poHandler.Issue)
	api.GET("/purchase-orders/:id", poHandler.Get)
	api.POST("/purchase-orders/:id/approve", poHandler.Approve)
	api.PUT("/purchase-orders/:id/prices", poHandler.EditPrices)
	api.POST("/purchase-orders/:id/dispatch", poHandler.Dispatch)
	api.POST("/purchase-orders/:id/cancel", poHandler.Cancel)
	api.POST("/purchase-orders/:id/receipts", poHandler.PostReceipt)

	api.GET("/rfqs/:id", rfqHandler.Get)
	api.POST("/rfqs", rfqHandler.Open)
	api.POST("/rfqs/:id/quotations", rfqHandler.SubmitQuotation)
	api.POST("/rfqs/:id/quotations/:quotation_id/select", rfqHandler.SelectWinner)

	api.POST("/invoices", invoiceHandler.Create)

	api.GET("/projects/:id/boq", projectHandler.ListBOQ)
	api.PUT("/projects/:id/boq", projectHandler.SetBOQLine)

	return &testutil.TestEnv{DB: db, Router: router, T: t}
}

func seedRequestBase(t *testing.T, env *testutil.TestEnv) (projectID, itemID string) {
	t.Helper()
	project := testutil.SeedTestProject(t, env.DB, "proj-001", "PRJ-001")
	item := testutil.SeedTestItem(t, env.DB, "item-001", "SKU-001")
	return project.ID, item.ID
}

func TestRequestLifecycleFullFlow(t *testing.T) {
	env := setupProcurementAPI(t)
	projectID, itemID := seedRequestBase(t, env)

	requester := testutil.SeedTestUser(t, env.DB, "user-req", "Site Supervisor", entity.RoleSupervisor, nil)
	engineer := testutil.SeedTestUser(t, env.DB, "user-eng", "Project Engineer", entity.RoleEngineer, nil)
	requesterToken := testutil.GenerateTestToken(requester.ID, requester.Name, requester.Email, requester.Role)
	engineerToken := testutil.GenerateTestToken(engineer.ID, engineer.Name, engineer.Email, engineer.Role)

	// Create draft with one line
	body := map[string]interface{}{
		"project_id": projectID,
		"notes":      "拆迁区钢筋补料",
		"items": []map[string]interface{}{
			{"item_id": itemID, "quantity": 120},
		},
	}
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/requests", body, requesterToken)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})
	requestID := data["id"].(string)
	if data["status"] != entity.RequestStatusDraft {
		t.Fatalf("expected DRAFT, got %v", data["status"])
	}

	// Submit for technical approval
	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/requests/"+requestID+"/submit", nil, requesterToken)
	if w.Code != http.StatusOK {
		t.Fatalf("submit: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	data = testutil.ParseResponse(w)["data"].(map[string]interface{})
	if data["status"] != entity.RequestStatusPendingTechnical {
		t.Fatalf("expected PENDING_TECHNICAL, got %v", data["status"])
	}

	// Engineer approves technically
	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/requests/"+requestID+"/approve-technical", nil, engineerToken)
	if w.Code != http.StatusOK {
		t.Fatalf("approve: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	data = testutil.ParseResponse(w)["data"].(map[string]interface{})
	if data["status"] != entity.RequestStatusApprovedTechnical {
		t.Fatalf("expected APPROVED_TECHNICAL, got %v", data["status"])
	}
	if data["approved_by"] != engineer.ID {
		t.Fatalf("expected approved_by %s, got %v", engineer.ID, data["approved_by"])
	}
}

func TestSubmitEmptyRequestRejected(t *testing.T) {
	env := setupProcurementAPI(t)
	projectID, _ := seedRequestBase(t, env)

	requester := testutil.SeedTestUser(t, env.DB, "user-req", "Site Supervisor", entity.RoleSupervisor, nil)
	token := testutil.GenerateTestToken(requester.ID, requester.Name, requester.Email, requester.Role)

	body := map[string]interface{}{"project_id": projectID}
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/requests", body, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	requestID := testutil.ParseResponse(w)["data"].(map[string]interface{})["id"].(string)

	// Submitting an empty draft must fail and leave it in DRAFT
	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/requests/"+requestID+"/submit", nil, token)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}

	var req entity.MaterialRequest
	if err := env.DB.First(&req, "id = ?", requestID).Error; err != nil {
		t.Fatalf("load request: %v", err)
	}
	if req.Status != entity.RequestStatusDraft {
		t.Fatalf("expected request to remain DRAFT, got %s", req.Status)
	}
}

func TestTechnicalApprovalRequiresAuthority(t *testing.T) {
	env := setupProcurementAPI(t)
	projectID, itemID := seedRequestBase(t, env)

	requester := testutil.SeedTestUser(t, env.DB, "user-req", "Site Supervisor", entity.RoleSupervisor, nil)
	surveyor := testutil.SeedTestUser(t, env.DB, "user-qs", "Quantity Surveyor", entity.RoleQuantitySurveyor, nil)
	requesterToken := testutil.GenerateTestToken(requester.ID, requester.Name, requester.Email, requester.Role)
	surveyorToken := testutil.GenerateTestToken(surveyor.ID, surveyor.Name, surveyor.Email, surveyor.Role)

	body := map[string]interface{}{
		"project_id": projectID,
		"items":      []map[string]interface{}{{"item_id": itemID, "quantity": 10}},
	}
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/requests", body, requesterToken)
	requestID := testutil.ParseResponse(w)["data"].(map[string]interface{})["id"].(string)
	testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/requests/"+requestID+"/submit", nil, requesterToken)

	// A surveyor has no technical authority
	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/requests/"+requestID+"/approve-technical", nil, surveyorToken)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", w.Code, w.Body.String())
	}

	var req entity.MaterialRequest
	env.DB.First(&req, "id = ?", requestID)
	if req.Status != entity.RequestStatusPendingTechnical {
		t.Fatalf("expected request to remain PENDING_TECHNICAL, got %s", req.Status)
	}
}

func TestRejectRequestIsTerminal(t *testing.T) {
	env := setupProcurementAPI(t)
	projectID, itemID := seedRequestBase(t, env)

	requester := testutil.SeedTestUser(t, env.DB, "user-req", "Site Supervisor", entity.RoleSupervisor, nil)
	engineer := testutil.SeedTestUser(t, env.DB, "user-eng", "Project Engineer", entity.RoleEngineer, nil)
	requesterToken := testutil.GenerateTestToken(requester.ID, requester.Name, requester.Email, requester.Role)
	engineerToken := testutil.GenerateTestToken(engineer.ID, engineer.Name, engineer.Email, engineer.Role)

	body := map[string]interface{}{
		"project_id": projectID,
		"items":      []map[string]interface{}{{"item_id": itemID, "quantity": 10}},
	}
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/requests", body, requesterToken)
	requestID := testutil.ParseResponse(w)["data"].(map[string]interface{})["id"].(string)
	testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/requests/"+requestID+"/submit", nil, requesterToken)

	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/requests/"+requestID+"/reject",
		map[string]interface{}{"reason": "规格不符"}, engineerToken)
	if w.Code != http.StatusOK {
		t.Fatalf("reject: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// Terminal: further submit is a conflict
	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/requests/"+requestID+"/submit", nil, requesterToken)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 after rejection, got %d: %s", w.Code, w.Body.String())
	}
}
