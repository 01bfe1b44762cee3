package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/binaa-tech/binaa/internal/procurement/entity"
)

// =============================================================================
// 供应商通知客户端 — 订单下发后向供应商侧webhook推送订单摘要
// 推送失败不影响订单状态，由调用方决定重试策略
// =============================================================================

// Client 供应商通知客户端
type Client struct {
	webhookURL string
	httpClient *http.Client
}

// NewClient 创建通知客户端实例
func NewClient(webhookURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		webhookURL: webhookURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// poLine 订单行摘要
type poLine struct {
	ItemID   string  `json:"item_id"`
	Quantity float64 `json:"quantity"`
	Price    float64 `json:"price"`
}

// dispatchPayload 下发通知载荷
type dispatchPayload struct {
	PONumber      string   `json:"po_number"`
	SupplierName  string   `json:"supplier_name"`
	SupplierEmail string   `json:"supplier_email"`
	TotalAmount   float64  `json:"total_amount"`
	Currency      string   `json:"currency"`
	Lines         []poLine `json:"lines"`
}

// NotifyPODispatched 推送订单下发通知
func (c *Client) NotifyPODispatched(ctx context.Context, po *entity.PurchaseOrder, supplier *entity.Supplier) error {
	if c.webhookURL == "" {
		return nil
	}

	payload := dispatchPayload{
		PONumber:      po.ID,
		SupplierName:  supplier.Name,
		SupplierEmail: supplier.Email,
		TotalAmount:   po.TotalAmount,
		Currency:      po.Currency,
	}
	for _, item := range po.Items {
		payload.Lines = append(payload.Lines, poLine{
			ItemID:   item.ItemID,
			Quantity: item.Quantity,
			Price:    item.Price,
		})
	}

	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("序列化通知载荷失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.webhookURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("创建通知请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("推送供应商通知失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("供应商侧响应异常: %s", resp.Status)
	}
	return nil
}
