package handler

import (
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/binaa-tech/binaa/internal/procurement/entity"
	"github.com/binaa-tech/binaa/internal/procurement/testutil"
)

// seedApprovedRequest plants a technically approved request with one line directly in the DB.
func seedApprovedRequest(t *testing.T, env *testutil.TestEnv, id, projectID, itemID string, qty float64) *entity.MaterialRequest {
	t.Helper()
	req := &entity.MaterialRequest{
		ID:          id,
		ProjectID:   projectID,
		RequesterID: "user-req",
		Status:      entity.RequestStatusApprovedTechnical,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
		Items: []entity.RequestItem{
			{ID: id + "-line1", RequestID: id, ItemID: itemID, Quantity: qty, SortOrder: 1},
		},
	}
	if err := env.DB.Create(req).Error; err != nil {
		t.Fatalf("Failed to seed request: %v", err)
	}
	return req
}

func TestIssuePOLinksRequestExactlyOnce(t *testing.T) {
	env := setupProcurementAPI(t)
	projectID, itemID := seedRequestBase(t, env)
	supplier := testutil.SeedTestSupplier(t, env.DB, "sup-001", "مصنع الحديد")
	seedApprovedRequest(t, env, "req-001", projectID, itemID, 100)

	pm := testutil.SeedTestUser(t, env.DB, "user-pm", "Procurement Manager", entity.RoleProcurementManager, nil)
	token := testutil.GenerateTestToken(pm.ID, pm.Name, pm.Email, pm.Role)

	body := map[string]interface{}{
		"request_id":  "req-001",
		"supplier_id": supplier.ID,
		"items": []map[string]interface{}{
			{"item_id": itemID, "quantity": 100, "price": 25.5},
		},
	}
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/purchase-orders", body, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if data["status"] != entity.POStatusPendingApproval {
		t.Fatalf("expected PENDING_APPROVAL, got %v", data["status"])
	}
	if data["total_amount"].(float64) != 2550 {
		t.Fatalf("expected total 2550, got %v", data["total_amount"])
	}

	// Request is now linked
	var req entity.MaterialRequest
	env.DB.First(&req, "id = ?", "req-001")
	if req.Status != entity.RequestStatusInProcurement {
		t.Fatalf("expected IN_PROCUREMENT, got %s", req.Status)
	}

	// Second issue against the same request must conflict
	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/purchase-orders", body, token)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 on duplicate issue, got %d: %s", w.Code, w.Body.String())
	}
}

func TestIssuePORejectsItemOutsideRequest(t *testing.T) {
	env := setupProcurementAPI(t)
	projectID, itemID := seedRequestBase(t, env)
	other := testutil.SeedTestItem(t, env.DB, "item-999", "SKU-999")
	supplier := testutil.SeedTestSupplier(t, env.DB, "sup-001", "Supplier A")
	seedApprovedRequest(t, env, "req-001", projectID, itemID, 100)

	pm := testutil.SeedTestUser(t, env.DB, "user-pm", "Procurement Manager", entity.RoleProcurementManager, nil)
	token := testutil.GenerateTestToken(pm.ID, pm.Name, pm.Email, pm.Role)

	body := map[string]interface{}{
		"request_id":  "req-001",
		"supplier_id": supplier.ID,
		"items": []map[string]interface{}{
			{"item_id": other.ID, "quantity": 10, "price": 5},
		},
	}
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/purchase-orders", body, token)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}

	// The failed issue must not link the request
	var req entity.MaterialRequest
	env.DB.First(&req, "id = ?", "req-001")
	if req.Status != entity.RequestStatusApprovedTechnical {
		t.Fatalf("expected request untouched, got %s", req.Status)
	}
}

// issuePOForAmount creates an approved request and issues a PO with the given line total.
func issuePOForAmount(t *testing.T, env *testutil.TestEnv, reqID, projectID, itemID, supplierID, token string, amount float64) string {
	t.Helper()
	seedApprovedRequest(t, env, reqID, projectID, itemID, 100)
	body := map[string]interface{}{
		"request_id":  reqID,
		"supplier_id": supplierID,
		"items": []map[string]interface{}{
			{"item_id": itemID, "quantity": 100, "price": amount / 100},
		},
	}
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/purchase-orders", body, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("issue PO: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	return testutil.ParseResponse(w)["data"].(map[string]interface{})["id"].(string)
}

func TestFinancialApprovalRespectsLimit(t *testing.T) {
	env := setupProcurementAPI(t)
	projectID, itemID := seedRequestBase(t, env)
	supplier := testutil.SeedTestSupplier(t, env.DB, "sup-001", "Supplier A")

	limit := 50000.0
	pm := testutil.SeedTestUser(t, env.DB, "user-pm", "Procurement Manager", entity.RoleProcurementManager, &limit)
	token := testutil.GenerateTestToken(pm.ID, pm.Name, pm.Email, pm.Role)

	// Within limit: approved
	withinID := issuePOForAmount(t, env, "req-a", projectID, itemID, supplier.ID, token, 45000)
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/purchase-orders/"+withinID+"/approve", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if data["status"] != entity.POStatusApproved {
		t.Fatalf("expected APPROVED, got %v", data["status"])
	}

	// Over limit: forbidden with both amounts in the reason, order untouched
	overID := issuePOForAmount(t, env, "req-b", projectID, itemID, supplier.ID, token, 60000)
	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/purchase-orders/"+overID+"/approve", nil, token)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", w.Code, w.Body.String())
	}
	msg := testutil.ParseResponse(w)["message"].(string)
	if !strings.Contains(msg, "60000.00") || !strings.Contains(msg, "50000.00") {
		t.Fatalf("expected amounts in reason, got %q", msg)
	}

	var po entity.PurchaseOrder
	env.DB.First(&po, "id = ?", overID)
	if po.Status != entity.POStatusPendingApproval {
		t.Fatalf("expected order to stay PENDING_APPROVAL, got %s", po.Status)
	}
}

func TestFinancialApprovalBlocksTechnicalRoles(t *testing.T) {
	env := setupProcurementAPI(t)
	projectID, itemID := seedRequestBase(t, env)
	supplier := testutil.SeedTestSupplier(t, env.DB, "sup-001", "Supplier A")

	pm := testutil.SeedTestUser(t, env.DB, "user-pm", "Procurement Manager", entity.RoleProcurementManager, nil)
	engineer := testutil.SeedTestUser(t, env.DB, "user-eng", "Project Engineer", entity.RoleEngineer, nil)
	pmToken := testutil.GenerateTestToken(pm.ID, pm.Name, pm.Email, pm.Role)
	engToken := testutil.GenerateTestToken(engineer.ID, engineer.Name, engineer.Email, engineer.Role)

	// Amount is irrelevant: engineers never hold financial authority
	poID := issuePOForAmount(t, env, "req-a", projectID, itemID, supplier.ID, pmToken, 1000)
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/purchase-orders/"+poID+"/approve", nil, engToken)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", w.Code, w.Body.String())
	}
	msg := testutil.ParseResponse(w)["message"].(string)
	if !strings.Contains(msg, "role not authorized for financial approval") {
		t.Fatalf("unexpected reason: %q", msg)
	}
}

func TestGeneralManagerApprovesAnyAmount(t *testing.T) {
	env := setupProcurementAPI(t)
	projectID, itemID := seedRequestBase(t, env)
	supplier := testutil.SeedTestSupplier(t, env.DB, "sup-001", "Supplier A")

	pm := testutil.SeedTestUser(t, env.DB, "user-pm", "Procurement Manager", entity.RoleProcurementManager, nil)
	gm := testutil.SeedTestUser(t, env.DB, "user-gm", "General Manager", entity.RoleGeneralManager, nil)
	pmToken := testutil.GenerateTestToken(pm.ID, pm.Name, pm.Email, pm.Role)
	gmToken := testutil.GenerateTestToken(gm.ID, gm.Name, gm.Email, gm.Role)

	poID := issuePOForAmount(t, env, "req-a", projectID, itemID, supplier.ID, pmToken, 900000)
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/purchase-orders/"+poID+"/approve", nil, gmToken)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestEditPricesRecomputesTotal(t *testing.T) {
	env := setupProcurementAPI(t)
	projectID, itemID := seedRequestBase(t, env)
	supplier := testutil.SeedTestSupplier(t, env.DB, "sup-001", "Supplier A")

	pm := testutil.SeedTestUser(t, env.DB, "user-pm", "Procurement Manager", entity.RoleProcurementManager, nil)
	pm.Permissions = entity.Permissions{CanEditPrices: true}
	if err := env.DB.Save(pm).Error; err != nil {
		t.Fatalf("update permissions: %v", err)
	}
	token := testutil.GenerateTestToken(pm.ID, pm.Name, pm.Email, pm.Role)

	poID := issuePOForAmount(t, env, "req-a", projectID, itemID, supplier.ID, token, 10000)

	body := map[string]interface{}{
		"prices": []map[string]interface{}{{"item_id": itemID, "price": 120}},
	}
	w := testutil.DoRequest(env.Router, http.MethodPut, fmt.Sprintf("/api/v1/purchase-orders/%s/prices", poID), body, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if data["total_amount"].(float64) != 12000 {
		t.Fatalf("expected recomputed total 12000, got %v", data["total_amount"])
	}
}

func TestEditPricesRequiresPermission(t *testing.T) {
	env := setupProcurementAPI(t)
	projectID, itemID := seedRequestBase(t, env)
	supplier := testutil.SeedTestSupplier(t, env.DB, "sup-001", "Supplier A")

	pm := testutil.SeedTestUser(t, env.DB, "user-pm", "Procurement Manager", entity.RoleProcurementManager, nil)
	token := testutil.GenerateTestToken(pm.ID, pm.Name, pm.Email, pm.Role)

	poID := issuePOForAmount(t, env, "req-a", projectID, itemID, supplier.ID, token, 10000)

	body := map[string]interface{}{
		"prices": []map[string]interface{}{{"item_id": itemID, "price": 120}},
	}
	w := testutil.DoRequest(env.Router, http.MethodPut, fmt.Sprintf("/api/v1/purchase-orders/%s/prices", poID), body, token)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", w.Code, w.Body.String())
	}

	var po entity.PurchaseOrder
	env.DB.First(&po, "id = ?", poID)
	if po.TotalAmount != 10000 {
		t.Fatalf("expected total untouched, got %.2f", po.TotalAmount)
	}
}

func TestCancelledPOBlocksPriceEdits(t *testing.T) {
	env := setupProcurementAPI(t)
	projectID, itemID := seedRequestBase(t, env)
	supplier := testutil.SeedTestSupplier(t, env.DB, "sup-001", "Supplier A")

	pm := testutil.SeedTestUser(t, env.DB, "user-pm", "Procurement Manager", entity.RoleProcurementManager, nil)
	pm.Permissions = entity.Permissions{CanEditPrices: true}
	env.DB.Save(pm)
	token := testutil.GenerateTestToken(pm.ID, pm.Name, pm.Email, pm.Role)

	poID := issuePOForAmount(t, env, "req-a", projectID, itemID, supplier.ID, token, 10000)

	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/purchase-orders/"+poID+"/cancel",
		map[string]interface{}{"reason": "项目暂停"}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("cancel: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	body := map[string]interface{}{
		"prices": []map[string]interface{}{{"item_id": itemID, "price": 120}},
	}
	w = testutil.DoRequest(env.Router, http.MethodPut, fmt.Sprintf("/api/v1/purchase-orders/%s/prices", poID), body, token)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", w.Code, w.Body.String())
	}
}
