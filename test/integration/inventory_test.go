package integration

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestReservationLifecycle 预留 → 确认 / 取消 的完整流程
func TestReservationLifecycle(t *testing.T) {
	RequireServer(t)
	sku := CreateTestItem(t, "IT-LIFE", 10)

	t.Run("预留后可售减少", func(t *testing.T) {
		resp := Reserve(t, sku, 3, GenerateOrderID())
		require.Equal(t, 0, resp.Code, resp.Message)

		item := GetItem(t, sku)
		assert.Equal(t, 7, item.Available)
		assert.Equal(t, 3, item.Reserved)
	})

	t.Run("确认后这部分数量离开库存", func(t *testing.T) {
		resp := Reserve(t, sku, 2, GenerateOrderID())
		require.Equal(t, 0, resp.Code, resp.Message)

		var r ReservationData
		require.NoError(t, json.Unmarshal(resp.Data, &r))

		resp = PostJSON(t, BaseURL+"/reservations/"+r.ID+"/confirm", nil)
		require.Equal(t, 0, resp.Code, resp.Message)

		item := GetItem(t, sku)
		assert.Equal(t, 5, item.Available)
		assert.Equal(t, 3, item.Reserved)
	})

	t.Run("取消后可售恢复且不能重复取消", func(t *testing.T) {
		resp := Reserve(t, sku, 1, GenerateOrderID())
		require.Equal(t, 0, resp.Code, resp.Message)

		var r ReservationData
		require.NoError(t, json.Unmarshal(resp.Data, &r))

		resp = PostJSON(t, BaseURL+"/reservations/"+r.ID+"/cancel", map[string]string{"reason": "integration"})
		require.Equal(t, 0, resp.Code, resp.Message)

		resp = PostJSON(t, BaseURL+"/reservations/"+r.ID+"/cancel", nil)
		assert.Equal(t, 40010, resp.Code)

		item := GetItem(t, sku)
		assert.Equal(t, 5, item.Available)
	})

	t.Run("库存不足", func(t *testing.T) {
		resp := Reserve(t, sku, 100, GenerateOrderID())
		assert.Equal(t, 40001, resp.Code)
		t.Logf("✓ 库存不足正确返回错误: %s", resp.Message)
	})
}

// TestReservationExpiry 到期后手动清理释放库存
func TestReservationExpiry(t *testing.T) {
	RequireServer(t)
	sku := CreateTestItem(t, "IT-EXP", 5)

	expiresAt := time.Now().Add(2 * time.Second).UTC().Format(time.RFC3339)
	resp := PostJSON(t, BaseURL+"/reservations", map[string]interface{}{
		"sku":        sku,
		"quantity":   5,
		"order_id":   GenerateOrderID(),
		"expires_at": expiresAt,
	})
	require.Equal(t, 0, resp.Code, resp.Message)

	var r ReservationData
	require.NoError(t, json.Unmarshal(resp.Data, &r))

	time.Sleep(3 * time.Second)

	resp = PostJSON(t, BaseURL+"/reservations/"+r.ID+"/confirm", nil)
	assert.Equal(t, 40010, resp.Code, "过期的预留不能确认")

	resp = PostJSON(t, BaseURL+"/admin/sweep", nil)
	require.Equal(t, 0, resp.Code, resp.Message)

	item := GetItem(t, sku)
	assert.Equal(t, 5, item.Available)
	assert.Zero(t, item.Reserved)

	resp = GetJSON(t, BaseURL+"/reservations/"+r.ID)
	require.Equal(t, 0, resp.Code)
	require.NoError(t, json.Unmarshal(resp.Data, &r))
	assert.Equal(t, "EXPIRED", r.Status)
}

// TestOrderRollback 整单预留任一行失败时全部回滚
func TestOrderRollback(t *testing.T) {
	RequireServer(t)
	skuA := CreateTestItem(t, "IT-ORD", 10)
	skuB := CreateTestItem(t, "IT-ORD", 1)
	orderID := GenerateOrderID()

	resp := PostJSON(t, BaseURL+"/orders/"+orderID+"/reservations", map[string]interface{}{
		"lines": []map[string]interface{}{
			{"sku": skuA, "quantity": 4},
			{"sku": skuB, "quantity": 2},
		},
	})
	assert.Equal(t, 40001, resp.Code)

	item := GetItem(t, skuA)
	assert.Equal(t, 10, item.Available, "第一行的预留应被回滚")
	assert.Zero(t, item.Reserved)

	resp = GetJSON(t, BaseURL+"/reservations?order_id="+orderID)
	require.Equal(t, 0, resp.Code)
	var list []ReservationData
	require.NoError(t, json.Unmarshal(resp.Data, &list))
	for _, r := range list {
		assert.Equal(t, "CANCELLED", r.Status)
	}
}

// TestConcurrentReservations 10件库存、20个并发请求各预留1件
func TestConcurrentReservations(t *testing.T) {
	RequireServer(t)
	sku := CreateTestItem(t, "IT-CONC", 10)

	var (
		wg           sync.WaitGroup
		mu           sync.Mutex
		successCount int
		failCount    int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp := Reserve(t, sku, 1, GenerateOrderID())

			mu.Lock()
			defer mu.Unlock()
			if resp.Code == 0 {
				successCount++
			} else {
				failCount++
			}
		}()
	}
	wg.Wait()

	t.Logf("并发测试结果: 成功%d 失败%d", successCount, failCount)
	assert.LessOrEqual(t, successCount, 10, "不能超卖")
	assert.Equal(t, 20, successCount+failCount)

	item := GetItem(t, sku)
	assert.Equal(t, 10-successCount, item.Available)
	assert.Equal(t, successCount, item.Reserved)
}
