package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/binaa-tech/binaa/internal/procurement/entity"
	"github.com/binaa-tech/binaa/internal/procurement/rules"
	"github.com/binaa-tech/binaa/internal/procurement/testutil"
)

// seedDispatchedPO walks a two-line order through issue, approval and dispatch
// so receipts can be posted against it.
func seedDispatchedPO(t *testing.T, env *testutil.TestEnv) (poID, projectID, itemA, itemB, token string) {
	t.Helper()
	project := testutil.SeedTestProject(t, env.DB, "proj-001", "PRJ-001")
	a := testutil.SeedTestItem(t, env.DB, "item-a", "SKU-A")
	b := testutil.SeedTestItem(t, env.DB, "item-b", "SKU-B")
	supplier := testutil.SeedTestSupplier(t, env.DB, "sup-001", "Supplier A")

	req := &entity.MaterialRequest{
		ID:          "req-001",
		ProjectID:   project.ID,
		RequesterID: "user-req",
		Status:      entity.RequestStatusApprovedTechnical,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
		Items: []entity.RequestItem{
			{ID: "req-line-a", RequestID: "req-001", ItemID: a.ID, Quantity: 100, SortOrder: 1},
			{ID: "req-line-b", RequestID: "req-001", ItemID: b.ID, Quantity: 50, SortOrder: 2},
		},
	}
	if err := env.DB.Create(req).Error; err != nil {
		t.Fatalf("Failed to seed request: %v", err)
	}

	gm := testutil.SeedTestUser(t, env.DB, "user-gm", "General Manager", entity.RoleGeneralManager, nil)
	gmToken := testutil.GenerateTestToken(gm.ID, gm.Name, gm.Email, gm.Role)

	body := map[string]interface{}{
		"request_id":  req.ID,
		"supplier_id": supplier.ID,
		"items": []map[string]interface{}{
			{"item_id": a.ID, "quantity": 100, "price": 10},
			{"item_id": b.ID, "quantity": 50, "price": 20},
		},
	}
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/purchase-orders", body, gmToken)
	if w.Code != http.StatusCreated {
		t.Fatalf("issue PO: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	id := testutil.ParseResponse(w)["data"].(map[string]interface{})["id"].(string)

	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/purchase-orders/"+id+"/approve", nil, gmToken)
	if w.Code != http.StatusOK {
		t.Fatalf("approve PO: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/purchase-orders/"+id+"/dispatch", nil, gmToken)
	if w.Code != http.StatusOK {
		t.Fatalf("dispatch PO: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	return id, project.ID, a.ID, b.ID, gmToken
}

func postReceipt(env *testutil.TestEnv, poID, token string, lines []map[string]interface{}) *testResponse {
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/purchase-orders/"+poID+"/receipts",
		map[string]interface{}{"lines": lines}, token)
	return &testResponse{Code: w.Code, Body: w.Body.String(), Parsed: testutil.ParseResponse(w)}
}

type testResponse struct {
	Code   int
	Body   string
	Parsed map[string]interface{}
}

func TestReceiptOverQuantityIsAtomic(t *testing.T) {
	env := setupProcurementAPI(t)
	poID, projectID, itemA, itemB, token := seedDispatchedPO(t, env)
	testutil.SeedBOQLine(t, env.DB, "boq-a", projectID, itemA, 1000, 0)

	// Second line exceeds the ordered 50; the valid first line must not land either
	resp := postReceipt(env, poID, token, []map[string]interface{}{
		{"item_id": itemA, "quantity": 30},
		{"item_id": itemB, "quantity": 80},
	})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", resp.Code, resp.Body)
	}

	var items []entity.POItem
	env.DB.Where("po_id = ?", poID).Find(&items)
	for _, item := range items {
		if item.ReceivedQuantity != 0 {
			t.Fatalf("expected no received quantity, item %s has %.2f", item.ItemID, item.ReceivedQuantity)
		}
	}

	var po entity.PurchaseOrder
	env.DB.First(&po, "id = ?", poID)
	if po.Status != entity.POStatusSentToSupplier {
		t.Fatalf("expected SENT_TO_SUPPLIER, got %s", po.Status)
	}

	var receiptCount int64
	env.DB.Model(&entity.Receipt{}).Count(&receiptCount)
	if receiptCount != 0 {
		t.Fatalf("expected no receipts, found %d", receiptCount)
	}

	var line entity.ProjectBOQ
	env.DB.First(&line, "id = ?", "boq-a")
	if line.ReceivedQuantity != 0 {
		t.Fatalf("expected BOQ untouched, got %.2f", line.ReceivedQuantity)
	}
}

func TestReceiptRejectsUnknownAndNonPositiveLines(t *testing.T) {
	env := setupProcurementAPI(t)
	poID, _, itemA, _, token := seedDispatchedPO(t, env)

	resp := postReceipt(env, poID, token, []map[string]interface{}{
		{"item_id": "item-unknown", "quantity": 5},
	})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("unknown item: expected 400, got %d: %s", resp.Code, resp.Body)
	}

	resp = postReceipt(env, poID, token, []map[string]interface{}{
		{"item_id": itemA, "quantity": -5},
	})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("negative quantity: expected 400, got %d: %s", resp.Code, resp.Body)
	}
}

func TestPartialThenFullReceipt(t *testing.T) {
	env := setupProcurementAPI(t)
	poID, projectID, itemA, itemB, token := seedDispatchedPO(t, env)
	testutil.SeedBOQLine(t, env.DB, "boq-a", projectID, itemA, 1000, 0)
	testutil.SeedBOQLine(t, env.DB, "boq-b", projectID, itemB, 500, 0)

	// Partial delivery
	resp := postReceipt(env, poID, token, []map[string]interface{}{
		{"item_id": itemA, "quantity": 40},
	})
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body)
	}

	var po entity.PurchaseOrder
	env.DB.First(&po, "id = ?", poID)
	if po.Status != entity.POStatusPartiallyReceived {
		t.Fatalf("expected PARTIALLY_RECEIVED, got %s", po.Status)
	}

	// Remainder arrives
	resp = postReceipt(env, poID, token, []map[string]interface{}{
		{"item_id": itemA, "quantity": 60},
		{"item_id": itemB, "quantity": 50},
	})
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body)
	}

	env.DB.First(&po, "id = ?", poID)
	if po.Status != entity.POStatusReceived {
		t.Fatalf("expected RECEIVED, got %s", po.Status)
	}

	// Fully received order closes out the request
	var req entity.MaterialRequest
	env.DB.First(&req, "id = ?", "req-001")
	if req.Status != entity.RequestStatusCompleted {
		t.Fatalf("expected request COMPLETED, got %s", req.Status)
	}

	// Ledger carries the cumulative receipts
	var lineA, lineB entity.ProjectBOQ
	env.DB.First(&lineA, "id = ?", "boq-a")
	env.DB.First(&lineB, "id = ?", "boq-b")
	if lineA.ReceivedQuantity != 100 {
		t.Fatalf("expected BOQ line A at 100, got %.2f", lineA.ReceivedQuantity)
	}
	if lineB.ReceivedQuantity != 50 {
		t.Fatalf("expected BOQ line B at 50, got %.2f", lineB.ReceivedQuantity)
	}
	if lineA.Remaining() != 900 {
		t.Fatalf("expected remaining 900, got %.2f", lineA.Remaining())
	}

	var receiptCount int64
	env.DB.Model(&entity.Receipt{}).Count(&receiptCount)
	if receiptCount != 2 {
		t.Fatalf("expected 2 receipts, found %d", receiptCount)
	}
}

func TestReceiptEmitsBOQAdvisories(t *testing.T) {
	env := setupProcurementAPI(t)
	poID, projectID, itemA, _, token := seedDispatchedPO(t, env)
	// 950 of 1000 already consumed by earlier orders
	testutil.SeedBOQLine(t, env.DB, "boq-a", projectID, itemA, 1000, 950)

	// 950+40=990 > 0.9*1000 but within plan: warning only, receipt still lands
	resp := postReceipt(env, poID, token, []map[string]interface{}{
		{"item_id": itemA, "quantity": 40},
	})
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body)
	}
	data := resp.Parsed["data"].(map[string]interface{})
	advisories := data["advisories"].([]interface{})
	if len(advisories) != 1 {
		t.Fatalf("expected 1 advisory, got %d", len(advisories))
	}
	advisory := advisories[0].(map[string]interface{})
	if advisory["status"] != string(rules.BOQStatusWarning) {
		t.Fatalf("expected WARNING, got %v", advisory["status"])
	}

	// 990+60=1050 exceeds the plan: critical advisory, still not blocking
	resp = postReceipt(env, poID, token, []map[string]interface{}{
		{"item_id": itemA, "quantity": 60},
	})
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body)
	}
	data = resp.Parsed["data"].(map[string]interface{})
	advisories = data["advisories"].([]interface{})
	if len(advisories) != 1 {
		t.Fatalf("expected 1 advisory, got %d", len(advisories))
	}
	advisory = advisories[0].(map[string]interface{})
	if advisory["status"] != string(rules.BOQStatusCritical) {
		t.Fatalf("expected CRITICAL, got %v", advisory["status"])
	}

	var line entity.ProjectBOQ
	env.DB.First(&line, "id = ?", "boq-a")
	if line.ReceivedQuantity != 1050 {
		t.Fatalf("expected cumulative 1050, got %.2f", line.ReceivedQuantity)
	}
}

func TestReceiptRequiresDispatchedOrder(t *testing.T) {
	env := setupProcurementAPI(t)
	projectID, itemID := seedRequestBase(t, env)
	supplier := testutil.SeedTestSupplier(t, env.DB, "sup-001", "Supplier A")
	seedApprovedRequest(t, env, "req-001", projectID, itemID, 100)

	gm := testutil.SeedTestUser(t, env.DB, "user-gm", "General Manager", entity.RoleGeneralManager, nil)
	token := testutil.GenerateTestToken(gm.ID, gm.Name, gm.Email, gm.Role)

	body := map[string]interface{}{
		"request_id":  "req-001",
		"supplier_id": supplier.ID,
		"items":       []map[string]interface{}{{"item_id": itemID, "quantity": 100, "price": 10}},
	}
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/purchase-orders", body, token)
	poID := testutil.ParseResponse(w)["data"].(map[string]interface{})["id"].(string)

	// Still pending approval: receipts are a state conflict
	resp := postReceipt(env, poID, token, []map[string]interface{}{
		{"item_id": itemID, "quantity": 10},
	})
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", resp.Code, resp.Body)
	}
}

func TestReceiptRepeatedLinesCountCumulatively(t *testing.T) {
	env := setupProcurementAPI(t)
	poID, _, itemA, _, token := seedDispatchedPO(t, env)

	// Each line alone fits the ordered 100, together they do not
	resp := postReceipt(env, poID, token, []map[string]interface{}{
		{"item_id": itemA, "quantity": 60},
		{"item_id": itemA, "quantity": 60},
	})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", resp.Code, resp.Body)
	}

	var item entity.POItem
	if err := env.DB.Where("po_id = ? AND item_id = ?", poID, itemA).First(&item).Error; err != nil {
		t.Fatalf("Failed to load order item: %v", err)
	}
	if item.ReceivedQuantity != 0 {
		t.Fatalf("expected no received quantity, got %.2f", item.ReceivedQuantity)
	}
	var po entity.PurchaseOrder
	if err := env.DB.First(&po, "id = ?", poID).Error; err != nil {
		t.Fatalf("Failed to load PO: %v", err)
	}
	if po.Status != entity.POStatusSentToSupplier {
		t.Fatalf("expected SENT_TO_SUPPLIER, got %s", po.Status)
	}

	// Split deliveries that sum exactly to the ordered quantity still land
	resp = postReceipt(env, poID, token, []map[string]interface{}{
		{"item_id": itemA, "quantity": 40},
		{"item_id": itemA, "quantity": 60},
	})
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body)
	}
	if err := env.DB.Where("po_id = ? AND item_id = ?", poID, itemA).First(&item).Error; err != nil {
		t.Fatalf("Failed to load order item: %v", err)
	}
	if item.ReceivedQuantity != 100 {
		t.Fatalf("expected 100 received, got %.2f", item.ReceivedQuantity)
	}
	if err := env.DB.First(&po, "id = ?", poID).Error; err != nil {
		t.Fatalf("Failed to load PO: %v", err)
	}
	if po.Status != entity.POStatusPartiallyReceived {
		t.Fatalf("expected PARTIALLY_RECEIVED, got %s", po.Status)
	}
}
