package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appinventory "github.com/xiebiao/inventory-reservation/internal/application/inventory"
	"github.com/xiebiao/inventory-reservation/internal/application/reaper"
	"github.com/xiebiao/inventory-reservation/internal/domain/inventory"
	"github.com/xiebiao/inventory-reservation/internal/infrastructure/config"
	"github.com/xiebiao/inventory-reservation/internal/infrastructure/persistence/memory"
	"github.com/xiebiao/inventory-reservation/internal/interface/http/handler"
	apperrors "github.com/xiebiao/inventory-reservation/pkg/errors"
)

type apiResponse struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	t      *testing.T
	engine *appinventory.Engine
	items  *memory.ItemRepository
	http   http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store := memory.NewStore()
	items := memory.NewItemRepository(store)
	engine := appinventory.NewEngine(
		items,
		memory.NewReservationRepository(store),
		memory.NewMovementRepository(store),
		memory.NewTxManager(store),
		nil, nil,
		appinventory.Config{
			DefaultHold:  30 * time.Minute,
			MaxRetries:   10,
			RetryInitial: time.Millisecond,
			RetryMax:     5 * time.Millisecond,
			OrderTimeout: 5 * time.Second,
			BatchSize:    100,
		},
	)

	cfg := &config.Config{}
	cfg.Server.Mode = "test"

	r := New(cfg, zap.NewNop(), Handlers{
		Reservation: handler.NewReservationHandler(engine),
		Order:       handler.NewOrderHandler(engine),
		Item:        handler.NewItemHandler(engine),
		Admin:       handler.NewAdminHandler(engine, reaper.New(engine, time.Minute, nil)),
	})
	return &testServer{t: t, engine: engine, items: items, http: r}
}

func (s *testServer) do(method, path string, body interface{}) apiResponse {
	s.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.http.ServeHTTP(w, req)

	require.Equal(s.t, http.StatusOK, w.Code)
	var resp apiResponse
	require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func (s *testServer) createItem(sku string, qty, reorderPoint int) {
	s.t.Helper()
	_, err := s.engine.CreateItem(context.Background(), appinventory.CreateItemRequest{
		ProductID:       "BOOK-001",
		SKU:             sku,
		WarehouseID:     "WH-SH",
		InitialQuantity: qty,
		Thresholds:      inventory.Thresholds{MaxStockLevel: 1000, ReorderPoint: reorderPoint},
	})
	require.NoError(s.t, err)
}

func TestRouter_Ping(t *testing.T) {
	s := newTestServer(t)
	resp := s.do(http.MethodGet, "/ping", nil)
	assert.Equal(t, 0, resp.Code)
	assert.Contains(t, string(resp.Data), "pong")
}

func TestRouter_RequestID(t *testing.T) {
	s := newTestServer(t)

	t.Run("沿用客户端传入的请求ID", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("X-Request-ID", "req-123")
		w := httptest.NewRecorder()
		s.http.ServeHTTP(w, req)
		assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))
	})

	t.Run("未传入时生成", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		w := httptest.NewRecorder()
		s.http.ServeHTTP(w, req)
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	})
}

func TestRouter_Reservations(t *testing.T) {
	s := newTestServer(t)
	s.createItem("BOOK-001-SH", 10, 2)

	var reservationID string

	t.Run("预留成功", func(t *testing.T) {
		resp := s.do(http.MethodPost, "/api/v1/reservations", map[string]interface{}{
			"sku":         "BOOK-001-SH",
			"quantity":    4,
			"order_id":    "ORD-1",
			"customer_id": "cust-1",
		})
		require.Equal(t, 0, resp.Code, resp.Message)

		var data struct {
			ID       string `json:"id"`
			Status   string `json:"status"`
			Quantity int    `json:"quantity"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &data))
		assert.NotEmpty(t, data.ID)
		assert.Equal(t, "ACTIVE", data.Status)
		assert.Equal(t, 4, data.Quantity)
		reservationID = data.ID
	})

	t.Run("库存不足返回40001和可售数量", func(t *testing.T) {
		resp := s.do(http.MethodPost, "/api/v1/reservations", map[string]interface{}{
			"sku":      "BOOK-001-SH",
			"quantity": 7,
			"order_id": "ORD-2",
		})
		assert.Equal(t, apperrors.ErrCodeInsufficientStock, resp.Code)

		var data map[string]interface{}
		require.NoError(t, json.Unmarshal(resp.Data, &data))
		assert.Equal(t, "BOOK-001-SH", data["sku"])
		assert.EqualValues(t, 7, data["requested"])
		assert.EqualValues(t, 6, data["available"])
	})

	t.Run("缺少必填字段返回40900", func(t *testing.T) {
		resp := s.do(http.MethodPost, "/api/v1/reservations", map[string]interface{}{
			"sku":      "BOOK-001-SH",
			"quantity": 1,
		})
		assert.Equal(t, apperrors.ErrCodeInvalidParams, resp.Code)
		assert.Contains(t, resp.Message, "参数错误")
	})

	t.Run("SKU不存在", func(t *testing.T) {
		resp := s.do(http.MethodPost, "/api/v1/reservations", map[string]interface{}{
			"sku":      "NOPE",
			"quantity": 1,
			"order_id": "ORD-3",
		})
		assert.Equal(t, apperrors.ErrCodeItemNotFound, resp.Code)
	})

	t.Run("按订单查询", func(t *testing.T) {
		resp := s.do(http.MethodGet, "/api/v1/reservations?order_id=ORD-1", nil)
		require.Equal(t, 0, resp.Code)

		var data []map[string]interface{}
		require.NoError(t, json.Unmarshal(resp.Data, &data))
		assert.Len(t, data, 1)
	})

	t.Run("查询条件都为空返回40900", func(t *testing.T) {
		resp := s.do(http.MethodGet, "/api/v1/reservations", nil)
		assert.Equal(t, apperrors.ErrCodeInvalidParams, resp.Code)
	})

	t.Run("确认后不能再取消", func(t *testing.T) {
		resp := s.do(http.MethodPost, "/api/v1/reservations/"+reservationID+"/confirm", nil)
		require.Equal(t, 0, resp.Code, resp.Message)

		resp = s.do(http.MethodPost, "/api/v1/reservations/"+reservationID+"/cancel", map[string]string{"reason": "late"})
		assert.Equal(t, apperrors.ErrCodeInvalidState, resp.Code)
	})

	t.Run("确认后库存项数量", func(t *testing.T) {
		resp := s.do(http.MethodGet, "/api/v1/items/BOOK-001-SH", nil)
		require.Equal(t, 0, resp.Code)

		var data struct {
			Available int `json:"available"`
			Reserved  int `json:"reserved"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &data))
		assert.Equal(t, 6, data.Available)
		assert.Equal(t, 0, data.Reserved)
	})

	t.Run("预留单不存在", func(t *testing.T) {
		resp := s.do(http.MethodGet, "/api/v1/reservations/unknown", nil)
		assert.Equal(t, apperrors.ErrCodeReservationNotFound, resp.Code)
	})
}

func TestRouter_Orders(t *testing.T) {
	s := newTestServer(t)
	s.createItem("SKU-A", 5, 0)
	s.createItem("SKU-B", 1, 0)

	t.Run("整单预留失败时已预留的行被回滚", func(t *testing.T) {
		resp := s.do(http.MethodPost, "/api/v1/orders/ORD-9/reservations", map[string]interface{}{
			"lines": []map[string]interface{}{
				{"sku": "SKU-A", "quantity": 2},
				{"sku": "SKU-B", "quantity": 3},
			},
		})
		assert.Equal(t, apperrors.ErrCodeInsufficientStock, resp.Code)

		item, err := s.engine.GetItem(context.Background(), "SKU-A")
		require.NoError(t, err)
		assert.Equal(t, 5, item.Available)
		assert.Zero(t, item.Reserved)
	})

	t.Run("整单预留并确认", func(t *testing.T) {
		resp := s.do(http.MethodPost, "/api/v1/orders/ORD-10/reservations", map[string]interface{}{
			"lines": []map[string]interface{}{
				{"sku": "SKU-A", "quantity": 2},
				{"sku": "SKU-B", "quantity": 1},
			},
		})
		require.Equal(t, 0, resp.Code, resp.Message)

		resp = s.do(http.MethodPost, "/api/v1/orders/ORD-10/confirm", nil)
		require.Equal(t, 0, resp.Code, resp.Message)

		item, err := s.engine.GetItem(context.Background(), "SKU-A")
		require.NoError(t, err)
		assert.Equal(t, 3, item.Available)
		assert.Zero(t, item.Reserved)
	})

	t.Run("空明细返回40900", func(t *testing.T) {
		resp := s.do(http.MethodPost, "/api/v1/orders/ORD-11/reservations", map[string]interface{}{
			"lines": []map[string]interface{}{},
		})
		assert.Equal(t, apperrors.ErrCodeInvalidParams, resp.Code)
	})
}

func TestRouter_Items(t *testing.T) {
	s := newTestServer(t)
	s.createItem("LOW-1", 2, 5)
	s.createItem("OK-1", 50, 5)

	t.Run("低库存列表不会被当成SKU", func(t *testing.T) {
		resp := s.do(http.MethodGet, "/api/v1/items/low-stock", nil)
		require.Equal(t, 0, resp.Code, resp.Message)

		var data []struct {
			SKU      string `json:"sku"`
			LowStock bool   `json:"low_stock"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &data))
		require.Len(t, data, 1)
		assert.Equal(t, "LOW-1", data[0].SKU)
		assert.True(t, data[0].LowStock)
	})

	t.Run("分页列表", func(t *testing.T) {
		resp := s.do(http.MethodGet, "/api/v1/items?page=1&page_size=1", nil)
		require.Equal(t, 0, resp.Code)

		var data struct {
			Total      int64 `json:"total"`
			TotalPages int   `json:"total_pages"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &data))
		assert.EqualValues(t, 2, data.Total)
		assert.Equal(t, 2, data.TotalPages)
	})

	t.Run("非法状态值", func(t *testing.T) {
		resp := s.do(http.MethodPut, "/api/v1/items/OK-1/status", map[string]string{"status": "GONE"})
		assert.Equal(t, apperrors.ErrCodeInvalidParams, resp.Code)
	})

	t.Run("停用后不能预留", func(t *testing.T) {
		resp := s.do(http.MethodPut, "/api/v1/items/OK-1/status", map[string]string{"status": "INACTIVE"})
		require.Equal(t, 0, resp.Code, resp.Message)

		resp = s.do(http.MethodPost, "/api/v1/reservations", map[string]interface{}{
			"sku":      "OK-1",
			"quantity": 1,
			"order_id": "ORD-1",
		})
		assert.Equal(t, apperrors.ErrCodeItemInactive, resp.Code)
	})
}

func TestRouter_Admin(t *testing.T) {
	s := newTestServer(t)
	s.createItem("SKU-A", 10, 0)

	t.Run("入库带成本", func(t *testing.T) {
		resp := s.do(http.MethodPost, "/api/v1/admin/inbound", map[string]interface{}{
			"sku":       "SKU-A",
			"quantity":  5,
			"unit_cost": "12.50",
		})
		require.Equal(t, 0, resp.Code, resp.Message)

		resp = s.do(http.MethodGet, "/api/v1/items/SKU-A/movements", nil)
		require.Equal(t, 0, resp.Code)

		var data struct {
			List []struct {
				Type      string `json:"type"`
				TotalCost string `json:"total_cost"`
			} `json:"list"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &data))
		require.NotEmpty(t, data.List)
		assert.Equal(t, "INBOUND", data.List[0].Type)
		assert.Equal(t, "62.50", data.List[0].TotalCost)
	})

	t.Run("成本格式错误", func(t *testing.T) {
		resp := s.do(http.MethodPost, "/api/v1/admin/inbound", map[string]interface{}{
			"sku":       "SKU-A",
			"quantity":  1,
			"unit_cost": "abc",
		})
		assert.Equal(t, apperrors.ErrCodeInvalidParams, resp.Code)
	})

	t.Run("同SKU调拨被拒绝", func(t *testing.T) {
		resp := s.do(http.MethodPost, "/api/v1/admin/transfers", map[string]interface{}{
			"from_sku": "SKU-A",
			"to_sku":   "SKU-A",
			"quantity": 1,
		})
		assert.Equal(t, apperrors.ErrCodeInvalidParams, resp.Code)
	})

	t.Run("手动清理", func(t *testing.T) {
		past := time.Now().Add(time.Second)
		_, err := s.engine.Reserve(context.Background(), appinventory.ReserveRequest{
			SKU: "SKU-A", Quantity: 3, OrderID: "ORD-X", ExpiresAt: &past,
		})
		require.NoError(t, err)

		time.Sleep(1100 * time.Millisecond)

		resp := s.do(http.MethodPost, "/api/v1/admin/sweep", nil)
		require.Equal(t, 0, resp.Code, resp.Message)

		var data struct {
			Processed int `json:"processed"`
			Failed    int `json:"failed"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &data))
		assert.Equal(t, 1, data.Processed)
		assert.Zero(t, data.Failed)

		item, err := s.engine.GetItem(context.Background(), "SKU-A")
		require.NoError(t, err)
		assert.Equal(t, 15, item.Available)
		assert.Zero(t, item.Reserved)
	})
}

func TestRouter_SweepWithFailingRecord(t *testing.T) {
	s := newTestServer(t)
	s.createItem("BAD", 10, 0)
	s.createItem("GOOD", 10, 0)
	ctx := context.Background()

	expiresAt := time.Now().Add(time.Second)
	for _, sku := range []string{"BAD", "GOOD"} {
		_, err := s.engine.Reserve(ctx, appinventory.ReserveRequest{
			SKU: sku, Quantity: 1, OrderID: "ORD-" + sku, ExpiresAt: &expiresAt,
		})
		require.NoError(t, err)
	}

	item, err := s.items.Get(ctx, "BAD")
	require.NoError(t, err)
	item.Reserved = 0
	require.NoError(t, s.items.Save(ctx, item, item.Version))

	time.Sleep(1100 * time.Millisecond)

	resp := s.do(http.MethodPost, "/api/v1/admin/sweep", nil)
	require.Equal(t, 0, resp.Code, "单条失败不影响整轮结果: %s", resp.Message)

	var data struct {
		Processed int `json:"processed"`
		Failed    int `json:"failed"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Equal(t, 1, data.Processed)
	assert.Equal(t, 1, data.Failed)

	good, err := s.engine.GetItem(ctx, "GOOD")
	require.NoError(t, err)
	assert.Equal(t, 10, good.Available)
	assert.Zero(t, good.Reserved)
}
