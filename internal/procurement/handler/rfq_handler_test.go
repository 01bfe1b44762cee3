package handler

import (
	"net/http"
	"testing"

	"github.com/binaa-tech/binaa/internal/procurement/entity"
	"github.com/binaa-tech/binaa/internal/procurement/testutil"
)

func TestRFQRoundIssuesWinningPO(t *testing.T) {
	env := setupProcurementAPI(t)
	projectID, itemID := seedRequestBase(t, env)
	supplierA := testutil.SeedTestSupplier(t, env.DB, "sup-a", "Supplier A")
	supplierB := testutil.SeedTestSupplier(t, env.DB, "sup-b", "Supplier B")
	seedApprovedRequest(t, env, "req-001", projectID, itemID, 100)

	pm := testutil.SeedTestUser(t, env.DB, "user-pm", "Procurement Manager", entity.RoleProcurementManager, nil)
	token := testutil.GenerateTestToken(pm.ID, pm.Name, pm.Email, pm.Role)

	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/rfqs",
		map[string]interface{}{"request_id": "req-001"}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("open rfq: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	rfqData := testutil.ParseResponse(w)["data"].(map[string]interface{})
	rfqID := rfqData["id"].(string)
	if rfqData["status"] != entity.RFQStatusOpen {
		t.Fatalf("expected OPEN rfq, got %v", rfqData["status"])
	}

	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/rfqs/"+rfqID+"/quotations",
		map[string]interface{}{"supplier_id": supplierA.ID, "total_amount": 3000}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("quote A: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	quoteA := testutil.ParseResponse(w)["data"].(map[string]interface{})["id"].(string)

	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/rfqs/"+rfqID+"/quotations",
		map[string]interface{}{"supplier_id": supplierB.ID, "total_amount": 3600}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("quote B: expected 201, got %d: %s", w.Code, w.Body.String())
	}

	w = testutil.DoRequest(env.Router, http.MethodPost,
		"/api/v1/rfqs/"+rfqID+"/quotations/"+quoteA+"/select", nil, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("select winner: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	poData := testutil.ParseResponse(w)["data"].(map[string]interface{})
	// Lump-sum quotation carries onto the order in full
	if poData["total_amount"].(float64) != 3000 {
		t.Fatalf("expected total 3000, got %v", poData["total_amount"])
	}
	if poData["supplier_id"] != supplierA.ID {
		t.Fatalf("expected supplier %s, got %v", supplierA.ID, poData["supplier_id"])
	}
	if poData["status"] != entity.POStatusPendingApproval {
		t.Fatalf("expected PENDING_APPROVAL, got %v", poData["status"])
	}

	var rfq entity.RFQ
	if err := env.DB.First(&rfq, "id = ?", rfqID).Error; err != nil {
		t.Fatalf("Failed to load rfq: %v", err)
	}
	if rfq.Status != entity.RFQStatusClosed {
		t.Fatalf("expected CLOSED rfq, got %s", rfq.Status)
	}
	var quote entity.Quotation
	if err := env.DB.First(&quote, "id = ?", quoteA).Error; err != nil {
		t.Fatalf("Failed to load quotation: %v", err)
	}
	if !quote.IsSelected {
		t.Fatalf("expected winning quotation to be marked selected")
	}
	var req entity.MaterialRequest
	if err := env.DB.First(&req, "id = ?", "req-001").Error; err != nil {
		t.Fatalf("Failed to load request: %v", err)
	}
	if req.Status != entity.RequestStatusInProcurement {
		t.Fatalf("expected IN_PROCUREMENT, got %s", req.Status)
	}

	// Closed round: no further quotes, no second selection
	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/rfqs/"+rfqID+"/quotations",
		map[string]interface{}{"supplier_id": supplierB.ID, "total_amount": 2800}, token)
	if w.Code != http.StatusConflict {
		t.Fatalf("late quote: expected 409, got %d: %s", w.Code, w.Body.String())
	}
	w = testutil.DoRequest(env.Router, http.MethodPost,
		"/api/v1/rfqs/"+rfqID+"/quotations/"+quoteA+"/select", nil, token)
	if w.Code != http.StatusConflict {
		t.Fatalf("second select: expected 409, got %d: %s", w.Code, w.Body.String())
	}
}

func TestOpenRFQRequiresApprovedRequest(t *testing.T) {
	env := setupProcurementAPI(t)
	projectID, itemID := seedRequestBase(t, env)
	requester := testutil.SeedTestUser(t, env.DB, "user-req", "Site Supervisor", entity.RoleSupervisor, nil)
	token := testutil.GenerateTestToken(requester.ID, requester.Name, requester.Email, requester.Role)

	body := map[string]interface{}{
		"project_id": projectID,
		"items": []map[string]interface{}{
			{"item_id": itemID, "quantity": 10},
		},
	}
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/requests", body, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("create request: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	reqID := testutil.ParseResponse(w)["data"].(map[string]interface{})["id"].(string)

	// Still DRAFT: no quoting round yet
	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/rfqs",
		map[string]interface{}{"request_id": reqID}, token)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", w.Code, w.Body.String())
	}
}
