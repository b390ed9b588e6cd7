// Package integration 针对运行中服务的端到端测试
//
// 先启动服务（storage.driver=memory即可），再运行：
//
//	go test ./test/integration/... -v
//
// 服务未启动时所有用例跳过
package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const (
	// Timeout HTTP请求超时时间
	Timeout = 10 * time.Second
)

// BaseURL API基础URL，可通过 INVENTORY_API_URL 覆盖
var BaseURL = envOr("INVENTORY_API_URL", "http://localhost:8080/api/v1")

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Response 统一响应结构
type Response struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// ItemData 库存项响应数据
type ItemData struct {
	ID        uint   `json:"id"`
	SKU       string `json:"sku"`
	Available int    `json:"available"`
	Reserved  int    `json:"reserved"`
	Incoming  int    `json:"incoming"`
	Status    string `json:"status"`
	LowStock  bool   `json:"low_stock"`
}

// ReservationData 预留单响应数据
type ReservationData struct {
	ID                 string `json:"id"`
	OrderID            string `json:"order_id"`
	Quantity           int    `json:"quantity"`
	Status             string `json:"status"`
	CancellationReason string `json:"cancellation_reason"`
}

var client = &http.Client{Timeout: Timeout}

// RequireServer 服务不可用时跳过测试
func RequireServer(t *testing.T) {
	t.Helper()
	resp, err := client.Get(BaseURL + "/items?page_size=1")
	if err != nil {
		t.Skipf("服务未启动，跳过集成测试: %v", err)
	}
	_ = resp.Body.Close()
}

// PostJSON 发送POST请求并解析JSON响应
func PostJSON(t *testing.T, url string, data interface{}) *Response {
	t.Helper()

	var body io.Reader
	if data != nil {
		jsonData, err := json.Marshal(data)
		require.NoError(t, err, "JSON序列化失败")
		body = bytes.NewBuffer(jsonData)
	}
	return do(t, http.MethodPost, url, body)
}

// PutJSON 发送PUT请求并解析JSON响应
func PutJSON(t *testing.T, url string, data interface{}) *Response {
	t.Helper()

	jsonData, err := json.Marshal(data)
	require.NoError(t, err, "JSON序列化失败")
	return do(t, http.MethodPut, url, bytes.NewBuffer(jsonData))
}

// GetJSON 发送GET请求并解析JSON响应
func GetJSON(t *testing.T, url string) *Response {
	t.Helper()
	return do(t, http.MethodGet, url, nil)
}

func do(t *testing.T, method, url string, body io.Reader) *Response {
	t.Helper()

	req, err := http.NewRequest(method, url, body)
	require.NoError(t, err, "创建HTTP请求失败")
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	require.NoError(t, err, "发送HTTP请求失败")
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "读取响应体失败")

	var result Response
	require.NoError(t, json.Unmarshal(raw, &result), "解析JSON响应失败: %s", string(raw))
	return &result
}

// GenerateTestSKU 生成唯一的测试SKU，避免重复运行时冲突
func GenerateTestSKU(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

// GenerateOrderID 生成唯一的测试订单号
func GenerateOrderID() string {
	return fmt.Sprintf("ORD%d", time.Now().UnixNano())
}

// CreateTestItem 创建库存项并返回SKU
func CreateTestItem(t *testing.T, productID string, qty int) string {
	t.Helper()

	sku := GenerateTestSKU(productID)
	resp := PostJSON(t, BaseURL+"/items", map[string]interface{}{
		"product_id":       productID,
		"sku":              sku,
		"warehouse_id":     "WH-IT",
		"initial_quantity": qty,
		"thresholds": map[string]int{
			"min_stock_level":  0,
			"max_stock_level":  10000,
			"reorder_point":    2,
			"reorder_quantity": 50,
		},
		"performed_by": "integration",
	})
	require.Equal(t, 0, resp.Code, "创建库存项失败: %s", resp.Message)
	return sku
}

// GetItem 查询库存项
func GetItem(t *testing.T, sku string) ItemData {
	t.Helper()

	resp := GetJSON(t, BaseURL+"/items/"+sku)
	require.Equal(t, 0, resp.Code, "查询库存项失败: %s", resp.Message)

	var item ItemData
	require.NoError(t, json.Unmarshal(resp.Data, &item))
	return item
}

// Reserve 预留库存，返回响应供调用方判断成功或失败
func Reserve(t *testing.T, sku string, qty int, orderID string) *Response {
	t.Helper()
	return PostJSON(t, BaseURL+"/reservations", map[string]interface{}{
		"sku":      sku,
		"quantity": qty,
		"order_id": orderID,
	})
}
